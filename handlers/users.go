package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/titto/titto-backend/internal/models"
)

// timeNow is replaced in tests.
var timeNow = time.Now

// Profile is the caller's own view of their account.
type Profile struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	Nickname          string `json:"nickname"`
	StudentNo         string `json:"studentNo,omitempty"`
	Department        string `json:"department,omitempty"`
	TotalExperience   int    `json:"totalExperience"`
	CurrentExperience int    `json:"currentExperience"`
}

func newProfile(u *models.User) Profile {
	return Profile{
		ID:                u.ID,
		Email:             u.Email,
		Name:              u.Name,
		Nickname:          u.DisplayName(),
		StudentNo:         u.StudentNo,
		Department:        u.Department,
		TotalExperience:   u.TotalExperience,
		CurrentExperience: u.CurrentExperience,
	}
}

// RegisterProfile mounts GET /me on rg.
func (h *BoardHandler) RegisterProfile(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	if auth == nil {
		auth = authUnavailable
	}
	rg.GET("/me", auth, h.resolveRequestor, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": newProfile(requestor(c))})
	})
}
