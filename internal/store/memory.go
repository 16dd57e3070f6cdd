// Package store assembles the users and board repositories into qna.Store
// implementations, one per storage backend.
package store

import (
	"context"
	"sync"

	"github.com/titto/titto-backend/internal/models"
	"github.com/titto/titto-backend/internal/qna"
	"github.com/titto/titto-backend/internal/qna/repository"
	"github.com/titto/titto-backend/internal/users"
)

// Memory keeps everything in process. Transactions are serialized by a
// single mutex and rolled back by restoring a snapshot taken on entry.
type Memory struct {
	mu        sync.Mutex
	users     *users.MemoryRepository
	questions *repository.MemoryQuestions
	answers   *repository.MemoryAnswers
}

func NewMemory() *Memory {
	return &Memory{
		users:     users.NewMemoryRepository(),
		questions: repository.NewMemoryQuestions(),
		answers:   repository.NewMemoryAnswers(),
	}
}

type memoryTx struct{ m *Memory }

func (t memoryTx) Users() users.Repository           { return t.m.users }
func (t memoryTx) Questions() qna.QuestionRepository { return t.m.questions }
func (t memoryTx) Answers() qna.AnswerRepository     { return t.m.answers }

func (m *Memory) WithinTx(ctx context.Context, fn func(ctx context.Context, tx qna.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, q, a := m.users.Snapshot(), m.questions.Snapshot(), m.answers.Snapshot()
	if err := fn(ctx, memoryTx{m}); err != nil {
		m.users.Restore(u)
		m.questions.Restore(q)
		m.answers.Restore(a)
		return err
	}
	return nil
}

func (m *Memory) Read(ctx context.Context, fn func(ctx context.Context, tx qna.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, memoryTx{m})
}

// Users returns a repository for use outside of transactions.
func (m *Memory) Users() users.Repository { return lockedUsers{m} }

type lockedUsers struct{ m *Memory }

func (l lockedUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return l.m.users.FindByID(ctx, id)
}

func (l lockedUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return l.m.users.FindByEmail(ctx, email)
}

func (l lockedUsers) Save(ctx context.Context, u *models.User) error {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return l.m.users.Save(ctx, u)
}

func (l lockedUsers) UpsertByEmail(ctx context.Context, u *models.User) (*models.User, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return l.m.users.UpsertByEmail(ctx, u)
}

func (m *Memory) Ping(ctx context.Context) error { return nil }
func (m *Memory) Close(ctx context.Context) error { return nil }
