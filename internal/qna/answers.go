package qna

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/titto/titto-backend/internal/experience"
	"github.com/titto/titto-backend/internal/models"
	"github.com/titto/titto-backend/internal/users"
	"github.com/titto/titto-backend/pkg/logger"
	"github.com/titto/titto-backend/pkg/metrics"
)

// AnswerService implements the answer lifecycle and the acceptance protocol
// that settles a question's stake.
type AnswerService struct {
	store Store
	now   func() time.Time
}

func NewAnswerService(s Store) *AnswerService {
	return &AnswerService{store: s, now: time.Now}
}

// Create posts an answer and rewards its author with experience.AnswerReward.
func (s *AnswerService) Create(ctx context.Context, authorEmail, questionID string, req AnswerRequest) (*AnswerResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var out *AnswerResponse
	var ledger *experience.Ledger
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		author, err := tx.Users().FindByEmail(ctx, strings.ToLower(authorEmail))
		if err != nil {
			return err
		}
		if author == nil {
			return users.ErrUserNotFound
		}
		q, err := tx.Questions().FindByID(ctx, questionID)
		if err != nil {
			return err
		}
		if q == nil {
			return ErrQuestionNotFound
		}
		now := s.now().UTC()
		a := &models.Answer{
			ID:         newID(),
			QuestionID: q.ID,
			AuthorID:   author.ID,
			Content:    req.Content,
			IsAccepted: false,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.Answers().Create(ctx, a); err != nil {
			return fmt.Errorf("create answer: %w", err)
		}
		ledger = experience.NewLedger(tx.Users())
		if err := ledger.Add(ctx, author, experience.AnswerReward); err != nil {
			return err
		}
		out = newAnswerResponse(a, author)
		return nil
	})
	if err != nil {
		return nil, err
	}
	ledger.Publish()
	metrics.AnswersCreated.Inc()
	logger.Infow("answer created", "answerId", out.ID, "questionId", out.QuestionID, "authorId", out.AuthorID)
	return out, nil
}

// ListByQuestion returns the answers of a question, oldest first.
func (s *AnswerService) ListByQuestion(ctx context.Context, questionID string) ([]*AnswerResponse, error) {
	var out []*AnswerResponse
	err := s.store.Read(ctx, func(ctx context.Context, tx Tx) error {
		q, err := tx.Questions().FindByID(ctx, questionID)
		if err != nil {
			return err
		}
		if q == nil {
			return ErrQuestionNotFound
		}
		as, err := tx.Answers().ListByQuestion(ctx, q.ID)
		if err != nil {
			return err
		}
		authors := map[string]*models.User{}
		out = make([]*AnswerResponse, 0, len(as))
		for _, a := range as {
			author, ok := authors[a.AuthorID]
			if !ok {
				if author, err = tx.Users().FindByID(ctx, a.AuthorID); err != nil {
					return err
				}
				authors[a.AuthorID] = author
			}
			out = append(out, newAnswerResponse(a, author))
		}
		return nil
	})
	return out, err
}

// Update replaces the content of an answer. Only its author may edit it.
func (s *AnswerService) Update(ctx context.Context, id, requestorID string, req AnswerRequest) (*AnswerResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var out *AnswerResponse
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		a, author, err := s.authorizedAnswer(ctx, tx, id, requestorID)
		if err != nil {
			return err
		}
		a.Content = req.Content
		a.UpdatedAt = s.now().UTC()
		if err := tx.Answers().Save(ctx, a); err != nil {
			return fmt.Errorf("save answer: %w", err)
		}
		out = newAnswerResponse(a, author)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes an answer. Only its author may delete it, and an accepted
// answer stays because its question points at it.
func (s *AnswerService) Delete(ctx context.Context, id, requestorID string) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		a, _, err := s.authorizedAnswer(ctx, tx, id, requestorID)
		if err != nil {
			return err
		}
		if a.IsAccepted {
			return ErrDeleteNotAllowed
		}
		return tx.Answers().DeleteByID(ctx, a.ID)
	})
}

// Accept marks answerID as the resolution of questionID and settles the
// stake: the answer's author gives back SendExperience and the question's
// author receives AcceptanceBonus + SendExperience. Only the question's
// author may accept, and only once per question.
func (s *AnswerService) Accept(ctx context.Context, questionID, answerID, requestorID string) error {
	var stake int
	var ledger *experience.Ledger
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		requestor, err := tx.Users().FindByID(ctx, requestorID)
		if err != nil {
			return err
		}
		if requestor == nil {
			return users.ErrUserNotFound
		}
		q, err := tx.Questions().FindByID(ctx, questionID)
		if err != nil {
			return err
		}
		if q == nil {
			return ErrQuestionNotFound
		}
		a, err := tx.Answers().FindByID(ctx, answerID)
		if err != nil {
			return err
		}
		if a == nil || a.QuestionID != q.ID {
			return ErrAnswerNotFound
		}
		if q.AuthorID != requestor.ID {
			return ErrAuthorMismatch
		}
		if q.AcceptedAnswerID != nil || q.IsAnswerAccepted {
			return ErrAlreadyAcceptedAnswer
		}

		// Re-checked by the store against the row it is about to write.
		if err := tx.Questions().MarkAccepted(ctx, q.ID, a.ID); err != nil {
			return err
		}
		a.IsAccepted = true
		a.UpdatedAt = s.now().UTC()
		if err := tx.Answers().Save(ctx, a); err != nil {
			return fmt.Errorf("save answer: %w", err)
		}

		answerer := requestor
		if a.AuthorID != requestor.ID {
			if answerer, err = tx.Users().FindByID(ctx, a.AuthorID); err != nil {
				return err
			}
			if answerer == nil {
				return users.ErrUserNotFound
			}
		}
		ledger = experience.NewLedger(tx.Users())
		if err := ledger.Deduct(ctx, answerer, q.SendExperience); err != nil {
			return err
		}
		if err := ledger.Add(ctx, requestor, experience.AcceptanceBonus+q.SendExperience); err != nil {
			return err
		}
		stake = q.SendExperience
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyAcceptedAnswer) {
			logger.Debugw("accept rejected", "questionId", questionID, "answerId", answerID)
		}
		return err
	}
	ledger.Publish()
	metrics.AnswersAccepted.Inc()
	logger.Infow("answer accepted", "questionId", questionID, "answerId", answerID, "stake", stake)
	return nil
}

func (s *AnswerService) authorizedAnswer(ctx context.Context, tx Tx, id, requestorID string) (*models.Answer, *models.User, error) {
	requestor, err := tx.Users().FindByID(ctx, requestorID)
	if err != nil {
		return nil, nil, err
	}
	if requestor == nil {
		return nil, nil, users.ErrUserNotFound
	}
	a, err := tx.Answers().FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if a == nil {
		return nil, nil, ErrAnswerNotFound
	}
	if a.AuthorID != requestor.ID {
		return nil, nil, ErrAuthorMismatch
	}
	return a, requestor, nil
}
