package qna

import (
	"context"

	"github.com/titto/titto-backend/internal/models"
	"github.com/titto/titto-backend/internal/users"
)

// QuestionRepository persists questions. Finders return (nil, nil) when
// nothing matches.
type QuestionRepository interface {
	Create(ctx context.Context, q *models.Question) error
	FindByID(ctx context.Context, id string) (*models.Question, error)
	Save(ctx context.Context, q *models.Question) error
	DeleteByID(ctx context.Context, id string) error
	IncrementViewCount(ctx context.Context, id string) error
	ExistsWithAcceptedAnswer(ctx context.Context, id string) (bool, error)
	// MarkAccepted records answerID as the accepted answer only if the
	// question has none yet, and returns ErrAlreadyAcceptedAnswer otherwise.
	MarkAccepted(ctx context.Context, questionID, answerID string) error
	ListOrderedByCreatedDesc(ctx context.Context, page models.Page) ([]*models.Question, error)
	ListByDepartmentOrderedByCreatedDesc(ctx context.Context, page models.Page, d models.Department) ([]*models.Question, error)
}

// AnswerRepository persists answers.
type AnswerRepository interface {
	Create(ctx context.Context, a *models.Answer) error
	FindByID(ctx context.Context, id string) (*models.Answer, error)
	Save(ctx context.Context, a *models.Answer) error
	DeleteByID(ctx context.Context, id string) error
	DeleteAllByQuestion(ctx context.Context, questionID string) (int64, error)
	ListByQuestion(ctx context.Context, questionID string) ([]*models.Answer, error)
	CountByQuestion(ctx context.Context, questionID string) (int64, error)
}

// Tx exposes repositories bound to one transaction.
type Tx interface {
	Users() users.Repository
	Questions() QuestionRepository
	Answers() AnswerRepository
}

// Store hands out transaction-bound repositories.
type Store interface {
	// WithinTx runs fn inside a single atomic transaction. Rows read through
	// the Tx are locked (or otherwise isolated) until fn returns; a non-nil
	// error from fn rolls back every write made through the Tx.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Read runs fn without taking locks; fn must not write.
	Read(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
