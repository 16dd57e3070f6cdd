package store

import (
	"context"

	"github.com/titto/titto-backend/internal/qna"
	"github.com/titto/titto-backend/internal/qna/repository"
	"github.com/titto/titto-backend/internal/users"
	"gorm.io/gorm"
)

// Gorm runs board transactions on a SQL database. Reads inside WithinTx use
// SELECT ... FOR UPDATE on dialects that support it.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

type gormTx struct {
	users     users.Repository
	questions qna.QuestionRepository
	answers   qna.AnswerRepository
}

func (t gormTx) Users() users.Repository           { return t.users }
func (t gormTx) Questions() qna.QuestionRepository { return t.questions }
func (t gormTx) Answers() qna.AnswerRepository     { return t.answers }

func (g *Gorm) WithinTx(ctx context.Context, fn func(ctx context.Context, tx qna.Tx) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, gormTx{
			users:     users.NewGormRepository(tx).Locking(),
			questions: repository.NewGormQuestions(tx).Locking(),
			answers:   repository.NewGormAnswers(tx).Locking(),
		})
	})
}

func (g *Gorm) Read(ctx context.Context, fn func(ctx context.Context, tx qna.Tx) error) error {
	return fn(ctx, gormTx{
		users:     users.NewGormRepository(g.db),
		questions: repository.NewGormQuestions(g.db),
		answers:   repository.NewGormAnswers(g.db),
	})
}

func (g *Gorm) Users() users.Repository { return users.NewGormRepository(g.db) }

// Migrate creates or updates the tables.
func (g *Gorm) Migrate() error { return repository.AutoMigrate(g.db) }

func (g *Gorm) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (g *Gorm) Close(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
