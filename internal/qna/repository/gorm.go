package repository

import (
	"context"
	"errors"
	"time"

	"github.com/titto/titto-backend/internal/models"
	"github.com/titto/titto-backend/internal/qna"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormQuestions implements qna.QuestionRepository on a SQL database.
type GormQuestions struct {
	db        *gorm.DB
	forUpdate bool
}

func NewGormQuestions(db *gorm.DB) *GormQuestions {
	return &GormQuestions{db: db}
}

// Locking returns a repository whose single-row reads take FOR UPDATE locks.
func (r *GormQuestions) Locking() *GormQuestions {
	return &GormQuestions{db: r.db, forUpdate: true}
}

func (r *GormQuestions) Create(ctx context.Context, q *models.Question) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *GormQuestions) FindByID(ctx context.Context, id string) (*models.Question, error) {
	q := r.db.WithContext(ctx)
	if r.forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out models.Question
	if err := q.Where("id = ?", id).First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *GormQuestions) Save(ctx context.Context, q *models.Question) error {
	return r.db.WithContext(ctx).Save(q).Error
}

func (r *GormQuestions) DeleteByID(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Question{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormQuestions) IncrementViewCount(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.Question{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormQuestions) ExistsWithAcceptedAnswer(ctx context.Context, id string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Question{}).
		Where("id = ? AND accepted_answer_id IS NOT NULL", id).
		Count(&n).Error
	return n > 0, err
}

func (r *GormQuestions) MarkAccepted(ctx context.Context, questionID, answerID string) error {
	res := r.db.WithContext(ctx).Model(&models.Question{}).
		Where("id = ? AND accepted_answer_id IS NULL", questionID).
		Updates(map[string]interface{}{
			"accepted_answer_id": answerID,
			"is_answer_accepted": true,
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return qna.ErrAlreadyAcceptedAnswer
	}
	return nil
}

func (r *GormQuestions) ListOrderedByCreatedDesc(ctx context.Context, page models.Page) ([]*models.Question, error) {
	return r.list(r.db.WithContext(ctx), page)
}

func (r *GormQuestions) ListByDepartmentOrderedByCreatedDesc(ctx context.Context, page models.Page, d models.Department) ([]*models.Question, error) {
	return r.list(r.db.WithContext(ctx).Where("department = ?", d), page)
}

func (r *GormQuestions) list(q *gorm.DB, page models.Page) ([]*models.Question, error) {
	page = page.Normalize()
	out := []*models.Question{}
	err := q.Order("created_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.Size).
		Find(&out).Error
	return out, err
}

// GormAnswers implements qna.AnswerRepository on a SQL database.
type GormAnswers struct {
	db        *gorm.DB
	forUpdate bool
}

func NewGormAnswers(db *gorm.DB) *GormAnswers {
	return &GormAnswers{db: db}
}

func (r *GormAnswers) Locking() *GormAnswers {
	return &GormAnswers{db: r.db, forUpdate: true}
}

func (r *GormAnswers) Create(ctx context.Context, a *models.Answer) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *GormAnswers) FindByID(ctx context.Context, id string) (*models.Answer, error) {
	q := r.db.WithContext(ctx)
	if r.forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out models.Answer
	if err := q.Where("id = ?", id).First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *GormAnswers) Save(ctx context.Context, a *models.Answer) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *GormAnswers) DeleteByID(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Answer{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormAnswers) DeleteAllByQuestion(ctx context.Context, questionID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("question_id = ?", questionID).Delete(&models.Answer{})
	return res.RowsAffected, res.Error
}

func (r *GormAnswers) ListByQuestion(ctx context.Context, questionID string) ([]*models.Answer, error) {
	out := []*models.Answer{}
	err := r.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("created_at ASC").Order("id ASC").
		Find(&out).Error
	return out, err
}

func (r *GormAnswers) CountByQuestion(ctx context.Context, questionID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Answer{}).Where("question_id = ?", questionID).Count(&n).Error
	return n, err
}

// AutoMigrate creates or updates the board tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Question{}, &models.Answer{})
}
