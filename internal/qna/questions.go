package qna

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/titto/titto-backend/internal/experience"
	"github.com/titto/titto-backend/internal/models"
	"github.com/titto/titto-backend/internal/users"
	"github.com/titto/titto-backend/pkg/logger"
	"github.com/titto/titto-backend/pkg/metrics"
)

var validate = validator.New()

func validateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// QuestionService implements the question lifecycle: posting with a stake,
// counted views, edits and deletion with refund.
type QuestionService struct {
	store Store
	now   func() time.Time
}

func NewQuestionService(s Store) *QuestionService {
	return &QuestionService{store: s, now: time.Now}
}

// newID returns a UUIDv7 so that ids sort in creation order.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Create posts a question for the user with authorEmail and takes the stake
// from their spendable balance. The stake may not exceed the author's
// lifetime experience.
func (s *QuestionService) Create(ctx context.Context, authorEmail string, req CreateQuestionRequest) (*QuestionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	dept, err := models.ParseDepartment(req.Department)
	if err != nil {
		return nil, err
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	var out *QuestionResponse
	var ledger *experience.Ledger
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		author, err := tx.Users().FindByEmail(ctx, strings.ToLower(authorEmail))
		if err != nil {
			return err
		}
		if author == nil {
			return users.ErrUserNotFound
		}
		if req.SendExperience > author.TotalExperience {
			return ErrInsufficientExperience
		}
		ledger = experience.NewLedger(tx.Users())
		if err := ledger.Deduct(ctx, author, req.SendExperience); err != nil {
			return err
		}
		now := s.now().UTC()
		q := &models.Question{
			ID:               newID(),
			AuthorID:         author.ID,
			Title:            req.Title,
			Content:          req.Content,
			Department:       dept,
			Status:           status,
			SendExperience:   req.SendExperience,
			ViewCount:        0,
			IsAnswerAccepted: false,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := tx.Questions().Create(ctx, q); err != nil {
			return fmt.Errorf("create question: %w", err)
		}
		out = newQuestionResponse(q, author, 0)
		return nil
	})
	if err != nil {
		return nil, err
	}
	ledger.Publish()
	metrics.QuestionsCreated.Inc()
	logger.Infow("question created", "questionId", out.ID, "authorId", out.AuthorID, "stake", out.SendExperience)
	return out, nil
}

// Get returns the question and counts a view unless viewerToken shows the
// viewer already saw it. The returned token replaces the viewer's token.
func (s *QuestionService) Get(ctx context.Context, id, viewerToken string) (*QuestionResponse, string, error) {
	var (
		out     *QuestionResponse
		counted bool
		token   string
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		q, err := tx.Questions().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if q == nil {
			return ErrQuestionNotFound
		}
		counted, token = ShouldCountView(q.ID, viewerToken)
		if counted {
			if err := tx.Questions().IncrementViewCount(ctx, q.ID); err != nil {
				return fmt.Errorf("count view: %w", err)
			}
			q.ViewCount++
		}
		out, err = s.project(ctx, tx, q)
		return err
	})
	if err != nil {
		return nil, viewerToken, err
	}
	if counted {
		metrics.QuestionViews.Inc()
	}
	return out, token, nil
}

// ListAll returns a newest-first page of questions.
func (s *QuestionService) ListAll(ctx context.Context, page models.Page) ([]*QuestionResponse, error) {
	var out []*QuestionResponse
	err := s.store.Read(ctx, func(ctx context.Context, tx Tx) error {
		qs, err := tx.Questions().ListOrderedByCreatedDesc(ctx, page.Normalize())
		if err != nil {
			return err
		}
		out, err = s.projectAll(ctx, tx, qs)
		return err
	})
	return out, err
}

// ListByDepartment returns a newest-first page of one department's questions.
func (s *QuestionService) ListByDepartment(ctx context.Context, page models.Page, department string) ([]*QuestionResponse, error) {
	dept, err := models.ParseDepartment(department)
	if err != nil {
		return nil, err
	}
	var out []*QuestionResponse
	err = s.store.Read(ctx, func(ctx context.Context, tx Tx) error {
		qs, err := tx.Questions().ListByDepartmentOrderedByCreatedDesc(ctx, page.Normalize(), dept)
		if err != nil {
			return err
		}
		out, err = s.projectAll(ctx, tx, qs)
		return err
	})
	return out, err
}

// Update edits title, content, department or status. Only the author may edit.
func (s *QuestionService) Update(ctx context.Context, id, requestorID string, req UpdateQuestionRequest) (*QuestionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var (
		dept   models.Department
		status models.Status
		err    error
	)
	if req.Department != nil {
		if dept, err = models.ParseDepartment(*req.Department); err != nil {
			return nil, err
		}
	}
	if req.Status != nil {
		if status, err = models.ParseStatus(*req.Status); err != nil {
			return nil, err
		}
	}

	var out *QuestionResponse
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		q, _, err := s.authorizedQuestion(ctx, tx, id, requestorID)
		if err != nil {
			return err
		}
		if req.Title != nil {
			q.Title = *req.Title
		}
		if req.Content != nil {
			q.Content = *req.Content
		}
		if req.Department != nil {
			q.Department = dept
		}
		if req.Status != nil {
			q.Status = status
		}
		q.UpdatedAt = s.now().UTC()
		if err := tx.Questions().Save(ctx, q); err != nil {
			return fmt.Errorf("save question: %w", err)
		}
		out, err = s.project(ctx, tx, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a question and all of its answers after returning the
// stake to the author. Questions with an accepted answer are kept.
func (s *QuestionService) Delete(ctx context.Context, id, requestorID string) error {
	var refunded int
	var ledger *experience.Ledger
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		q, author, err := s.authorizedQuestion(ctx, tx, id, requestorID)
		if err != nil {
			return err
		}
		accepted, err := tx.Questions().ExistsWithAcceptedAnswer(ctx, q.ID)
		if err != nil {
			return err
		}
		if accepted || q.IsAnswerAccepted {
			return ErrDeleteNotAllowed
		}
		ledger = experience.NewLedger(tx.Users())
		if err := ledger.Refund(ctx, author, q.SendExperience); err != nil {
			return err
		}
		removed, err := tx.Answers().DeleteAllByQuestion(ctx, q.ID)
		if err != nil {
			return fmt.Errorf("delete answers: %w", err)
		}
		if err := tx.Questions().DeleteByID(ctx, q.ID); err != nil {
			return fmt.Errorf("delete question: %w", err)
		}
		refunded = q.SendExperience
		logger.Debugw("question answers removed", "questionId", q.ID, "answers", removed)
		return nil
	})
	if err != nil {
		return err
	}
	ledger.Publish()
	metrics.QuestionsDeleted.Inc()
	logger.Infow("question deleted", "questionId", id, "refund", refunded)
	return nil
}

// CheckAuthor returns nil when requestorID wrote question id.
func (s *QuestionService) CheckAuthor(ctx context.Context, id, requestorID string) error {
	return s.store.Read(ctx, func(ctx context.Context, tx Tx) error {
		_, _, err := s.authorizedQuestion(ctx, tx, id, requestorID)
		return err
	})
}

// AttachImage records an uploaded image object key on the question.
func (s *QuestionService) AttachImage(ctx context.Context, id, requestorID, key string) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		q, _, err := s.authorizedQuestion(ctx, tx, id, requestorID)
		if err != nil {
			return err
		}
		q.ImageKeys = append(q.ImageKeys, key)
		q.UpdatedAt = s.now().UTC()
		return tx.Questions().Save(ctx, q)
	})
}

// authorizedQuestion loads the requestor and the question and checks that
// the requestor wrote it. Nothing is written before this check passes.
func (s *QuestionService) authorizedQuestion(ctx context.Context, tx Tx, id, requestorID string) (*models.Question, *models.User, error) {
	requestor, err := tx.Users().FindByID(ctx, requestorID)
	if err != nil {
		return nil, nil, err
	}
	if requestor == nil {
		return nil, nil, users.ErrUserNotFound
	}
	q, err := tx.Questions().FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if q == nil {
		return nil, nil, ErrQuestionNotFound
	}
	if q.AuthorID != requestor.ID {
		return nil, nil, ErrAuthorMismatch
	}
	return q, requestor, nil
}

func (s *QuestionService) project(ctx context.Context, tx Tx, q *models.Question) (*QuestionResponse, error) {
	author, err := tx.Users().FindByID(ctx, q.AuthorID)
	if err != nil {
		return nil, err
	}
	n, err := tx.Answers().CountByQuestion(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	return newQuestionResponse(q, author, n), nil
}

func (s *QuestionService) projectAll(ctx context.Context, tx Tx, qs []*models.Question) ([]*QuestionResponse, error) {
	authors := map[string]*models.User{}
	out := make([]*QuestionResponse, 0, len(qs))
	for _, q := range qs {
		author, ok := authors[q.AuthorID]
		if !ok {
			var err error
			if author, err = tx.Users().FindByID(ctx, q.AuthorID); err != nil {
				return nil, err
			}
			authors[q.AuthorID] = author
		}
		n, err := tx.Answers().CountByQuestion(ctx, q.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, newQuestionResponse(q, author, n))
	}
	return out, nil
}
