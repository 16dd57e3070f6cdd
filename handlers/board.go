package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/titto/titto-backend/internal/config"
	"github.com/titto/titto-backend/internal/models"
	"github.com/titto/titto-backend/internal/qna"
	"github.com/titto/titto-backend/internal/storage"
	"github.com/titto/titto-backend/internal/users"
	"github.com/titto/titto-backend/pkg/logger"
	"github.com/titto/titto-backend/pkg/middleware"
)

const requestorKey = "requestor"

// BoardHandler serves the question and answer endpoints.
type BoardHandler struct {
	questions *qna.QuestionService
	answers   *qna.AnswerService
	users     *users.Service
	images    storage.ImageStore
	views     config.ViewCookieConfig
}

// NewBoardHandler wires the board services. images may be nil, in which
// case image uploads are not routed.
func NewBoardHandler(q *qna.QuestionService, a *qna.AnswerService, u *users.Service, images storage.ImageStore, views config.ViewCookieConfig) *BoardHandler {
	if views.Path == "" {
		views.Path = "/"
	}
	return &BoardHandler{questions: q, answers: a, users: u, images: images, views: views}
}

// Register mounts the routes on rg. Reads are public; writes go through
// auth, which may be nil when no token verifier is configured.
func (h *BoardHandler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	if auth == nil {
		auth = authUnavailable
	}
	write := []gin.HandlerFunc{auth, h.resolveRequestor}

	rg.GET("/questions", h.ListQuestions)
	rg.GET("/questions/department/:department", h.ListDepartmentQuestions)
	rg.GET("/questions/:id", h.GetQuestion)
	rg.GET("/questions/:id/answers", h.ListAnswers)

	rg.POST("/questions", append(write, h.CreateQuestion)...)
	rg.PUT("/questions/:id", append(write, h.UpdateQuestion)...)
	rg.DELETE("/questions/:id", append(write, h.DeleteQuestion)...)
	rg.POST("/questions/:id/answers", append(write, h.CreateAnswer)...)
	rg.POST("/questions/:id/answers/:answerId/accept", append(write, h.AcceptAnswer)...)
	rg.PUT("/answers/:id", append(write, h.UpdateAnswer)...)
	rg.DELETE("/answers/:id", append(write, h.DeleteAnswer)...)
	if h.images != nil {
		rg.POST("/questions/:id/images", append(write, h.UploadImage)...)
	}
}

func authUnavailable(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "auth_unavailable", "message": "no token verifier configured"})
}

// resolveRequestor maps verified claims to a board user, creating the user
// with zero experience on first sight.
func (h *BoardHandler) resolveRequestor(c *gin.Context) {
	u, err := h.users.UpsertFromClaims(c.Request.Context(), middleware.Claims(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if u == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "token has no email claim"})
		return
	}
	c.Set(requestorKey, u)
	c.Next()
}

func requestor(c *gin.Context) *models.User {
	u, _ := c.MustGet(requestorKey).(*models.User)
	return u
}

func parsePage(c *gin.Context) (models.Page, bool) {
	var p models.Page
	for name, dst := range map[string]*int{"page": &p.Number, "size": &p.Size} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, name+" must be a non-negative integer")
			return p, false
		}
		*dst = n
	}
	return p.Normalize(), true
}

func (h *BoardHandler) ListQuestions(c *gin.Context) {
	page, ok := parsePage(c)
	if !ok {
		return
	}
	out, err := h.questions.ListAll(c.Request.Context(), page)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page.Number, "size": page.Size, "questions": out})
}

func (h *BoardHandler) ListDepartmentQuestions(c *gin.Context) {
	page, ok := parsePage(c)
	if !ok {
		return
	}
	out, err := h.questions.ListByDepartment(c.Request.Context(), page, c.Param("department"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page.Number, "size": page.Size, "questions": out})
}

// GetQuestion returns the question and refreshes the viewer's view cookie,
// which expires at local midnight.
func (h *BoardHandler) GetQuestion(c *gin.Context) {
	token, _ := c.Cookie(qna.ViewCookieName)
	out, newToken, err := h.questions.Get(c.Request.Context(), c.Param("id"), token)
	if err != nil {
		writeError(c, err)
		return
	}
	if newToken != token {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(qna.ViewCookieName, newToken, qna.SecondsUntilEndOfDay(timeNow()), h.views.Path, "", h.views.Secure, true)
	}
	h.presignImages(c, out)
	c.JSON(http.StatusOK, out)
}

func (h *BoardHandler) presignImages(c *gin.Context, q *qna.QuestionResponse) {
	if h.images == nil || len(q.ImageKeys) == 0 {
		return
	}
	for _, key := range q.ImageKeys {
		u, err := h.images.URL(c.Request.Context(), key)
		if err != nil {
			logger.Warnw("image url unavailable", "questionId", q.ID, "key", key, "err", err)
			continue
		}
		q.Images = append(q.Images, u)
	}
}

func (h *BoardHandler) CreateQuestion(c *gin.Context) {
	var req qna.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	out, err := h.questions.Create(c.Request.Context(), requestor(c).Email, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *BoardHandler) UpdateQuestion(c *gin.Context) {
	var req qna.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	out, err := h.questions.Update(c.Request.Context(), c.Param("id"), requestor(c).ID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *BoardHandler) DeleteQuestion(c *gin.Context) {
	if err := h.questions.Delete(c.Request.Context(), c.Param("id"), requestor(c).ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BoardHandler) ListAnswers(c *gin.Context) {
	out, err := h.answers.ListByQuestion(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answers": out})
}

func (h *BoardHandler) CreateAnswer(c *gin.Context) {
	var req qna.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	out, err := h.answers.Create(c.Request.Context(), requestor(c).Email, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *BoardHandler) UpdateAnswer(c *gin.Context) {
	var req qna.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	out, err := h.answers.Update(c.Request.Context(), c.Param("id"), requestor(c).ID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *BoardHandler) DeleteAnswer(c *gin.Context) {
	if err := h.answers.Delete(c.Request.Context(), c.Param("id"), requestor(c).ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BoardHandler) AcceptAnswer(c *gin.Context) {
	qid, aid := c.Param("id"), c.Param("answerId")
	if err := h.answers.Accept(c.Request.Context(), qid, aid, requestor(c).ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questionId": qid, "acceptedAnswerId": aid})
}

// UploadImage stores the multipart "image" file and attaches it to the
// question. Only the question's author may upload.
func (h *BoardHandler) UploadImage(c *gin.Context) {
	ctx := c.Request.Context()
	qid, uid := c.Param("id"), requestor(c).ID
	if err := h.questions.CheckAuthor(ctx, qid, uid); err != nil {
		writeError(c, err)
		return
	}
	fh, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "multipart field \"image\" is required")
		return
	}
	if fh.Size > storage.MaxImageSize {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image_too_large", "message": "image exceeds 5 MiB"})
		return
	}
	contentType := fh.Header.Get("Content-Type")
	key, err := storage.ImageKey(qid, contentType)
	if err != nil {
		writeError(c, err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()
	if err := h.images.Put(ctx, key, f, fh.Size, contentType); err != nil {
		writeError(c, err)
		return
	}
	if err := h.questions.AttachImage(ctx, qid, uid, key); err != nil {
		writeError(c, err)
		return
	}
	url, err := h.images.URL(ctx, key)
	if err != nil {
		logger.Warnw("image url unavailable", "questionId", qid, "key", key, "err", err)
	}
	c.JSON(http.StatusCreated, gin.H{"key": key, "url": url})
}
