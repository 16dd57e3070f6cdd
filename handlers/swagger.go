package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the board API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>titto-backend Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "titto-backend", "version": "v0.1.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer" } },
    "schemas": {
      "Error": { "type": "object", "properties": { "error": {"type":"string"}, "message": {"type":"string"} } },
      "QuestionRequest": { "type": "object", "required": ["title","content","department","status"], "properties": { "title": {"type":"string"}, "content": {"type":"string"}, "department": {"type":"string","enum":["HUMANITIES","SOCIAL_SCIENCE","BUSINESS","NATURAL_SCIENCE","ENGINEERING","COMPUTER_SCIENCE","ARTS","EDUCATION"]}, "status": {"type":"string","enum":["ACTIVE","INACTIVE"]}, "sendExperience": {"type":"integer","minimum":0} } },
      "AnswerRequest": { "type": "object", "required": ["content"], "properties": { "content": {"type":"string"} } }
    }
  },
  "paths": {
    "/api/questions": {
      "get": { "summary": "List questions, newest first", "parameters": [ {"name":"page","in":"query","schema":{"type":"integer"}}, {"name":"size","in":"query","schema":{"type":"integer"}} ], "responses": { "200": { "description": "page of questions" } } },
      "post": { "summary": "Post a question with an experience stake", "security": [{"bearer":[]}], "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/QuestionRequest"} } } }, "responses": { "201": { "description": "created" }, "422": { "description": "insufficient experience" } } }
    },
    "/api/questions/department/{department}": {
      "get": { "summary": "List one department's questions", "responses": { "200": { "description": "page of questions" }, "400": { "description": "unknown department" } } }
    },
    "/api/questions/{id}": {
      "get": { "summary": "Get a question; counts one view per viewer per day", "responses": { "200": { "description": "question" }, "404": { "description": "not found" } } },
      "put": { "summary": "Edit a question", "security": [{"bearer":[]}], "responses": { "200": { "description": "updated" }, "403": { "description": "not the author" } } },
      "delete": { "summary": "Delete a question and refund the stake", "security": [{"bearer":[]}], "responses": { "204": { "description": "deleted" }, "409": { "description": "answer already accepted" } } }
    },
    "/api/questions/{id}/answers": {
      "get": { "summary": "List answers of a question", "responses": { "200": { "description": "answers" } } },
      "post": { "summary": "Answer a question (+20 experience)", "security": [{"bearer":[]}], "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/AnswerRequest"} } } }, "responses": { "201": { "description": "created" } } }
    },
    "/api/questions/{id}/answers/{answerId}/accept": {
      "post": { "summary": "Accept an answer and settle the stake", "security": [{"bearer":[]}], "responses": { "200": { "description": "accepted" }, "409": { "description": "already accepted" } } }
    },
    "/api/questions/{id}/images": {
      "post": { "summary": "Upload a question image (multipart field image)", "security": [{"bearer":[]}], "responses": { "201": { "description": "stored" }, "415": { "description": "not an image" } } }
    },
    "/api/answers/{id}": {
      "put": { "summary": "Edit an answer", "security": [{"bearer":[]}], "responses": { "200": { "description": "updated" }, "403": { "description": "not the author" } } },
      "delete": { "summary": "Delete an answer", "security": [{"bearer":[]}], "responses": { "204": { "description": "deleted" }, "409": { "description": "accepted answers are kept" } } }
    },
    "/api/v1/me": {
      "get": { "summary": "Current user profile and experience", "security": [{"bearer":[]}], "responses": { "200": { "description": "profile" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
