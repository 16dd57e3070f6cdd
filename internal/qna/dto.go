package qna

import (
	"time"

	"github.com/titto/titto-backend/internal/models"
)

// CreateQuestionRequest is the input of QuestionService.Create.
type CreateQuestionRequest struct {
	Title          string `json:"title" validate:"required,max=255"`
	Content        string `json:"content" validate:"required"`
	Department     string `json:"department" validate:"required"`
	Status         string `json:"status" validate:"required"`
	SendExperience int    `json:"sendExperience" validate:"min=0"`
}

// UpdateQuestionRequest carries the editable fields; nil leaves a field as is.
// The stake and the acceptance state cannot be changed through an update.
type UpdateQuestionRequest struct {
	Title      *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Content    *string `json:"content,omitempty" validate:"omitempty,min=1"`
	Department *string `json:"department,omitempty"`
	Status     *string `json:"status,omitempty"`
}

type AnswerRequest struct {
	Content string `json:"content" validate:"required"`
}

// QuestionResponse is the display projection of a question.
type QuestionResponse struct {
	ID               string            `json:"id"`
	AuthorID         string            `json:"authorId"`
	AuthorNickname   string            `json:"authorNickname"`
	Department       models.Department `json:"department"`
	Status           models.Status     `json:"status"`
	Title            string            `json:"title"`
	Content          string            `json:"content"`
	SendExperience   int               `json:"sendExperience"`
	ViewCount        int               `json:"viewCount"`
	AnswerCount      int64             `json:"answerCount"`
	IsAnswerAccepted bool              `json:"isAnswerAccepted"`
	ImageKeys        []string          `json:"-"`
	Images           []string          `json:"images,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// AnswerResponse is the display projection of an answer.
type AnswerResponse struct {
	ID             string    `json:"id"`
	QuestionID     string    `json:"questionId"`
	AuthorID       string    `json:"authorId"`
	AuthorNickname string    `json:"authorNickname"`
	Content        string    `json:"content"`
	IsAccepted     bool      `json:"isAccepted"`
	CreatedAt      time.Time `json:"createdAt"`
}

func newQuestionResponse(q *models.Question, author *models.User, answers int64) *QuestionResponse {
	r := &QuestionResponse{
		ID:               q.ID,
		AuthorID:         q.AuthorID,
		Department:       q.Department,
		Status:           q.Status,
		Title:            q.Title,
		Content:          q.Content,
		SendExperience:   q.SendExperience,
		ViewCount:        q.ViewCount,
		AnswerCount:      answers,
		IsAnswerAccepted: q.IsAnswerAccepted,
		ImageKeys:        q.ImageKeys,
		CreatedAt:        q.CreatedAt,
	}
	if author != nil {
		r.AuthorNickname = author.DisplayName()
	}
	return r
}

func newAnswerResponse(a *models.Answer, author *models.User) *AnswerResponse {
	r := &AnswerResponse{
		ID:         a.ID,
		QuestionID: a.QuestionID,
		AuthorID:   a.AuthorID,
		Content:    a.Content,
		IsAccepted: a.IsAccepted,
		CreatedAt:  a.CreatedAt,
	}
	if author != nil {
		r.AuthorNickname = author.DisplayName()
	}
	return r
}
