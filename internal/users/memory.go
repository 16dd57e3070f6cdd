package users

import (
	"context"
	"time"

	"github.com/titto/titto-backend/internal/models"
)

// MemoryRepository keeps users in maps. It does no locking of its own; the
// owning store serializes access.
type MemoryRepository struct {
	byID map[string]*models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*models.User)}
}

func (m *MemoryRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryRepository) Save(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = u.UpdatedAt
	}
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *MemoryRepository) UpsertByEmail(ctx context.Context, u *models.User) (*models.User, error) {
	existing, _ := m.FindByEmail(ctx, u.Email)
	if existing != nil {
		existing.Name = u.Name
		return existing, m.Save(ctx, existing)
	}
	fresh := *u
	fresh.TotalExperience = 0
	fresh.CurrentExperience = 0
	fresh.CreatedAt = time.Time{}
	return &fresh, m.Save(ctx, &fresh)
}

// Snapshot copies the current state; Restore puts a snapshot back.
func (m *MemoryRepository) Snapshot() map[string]models.User {
	out := make(map[string]models.User, len(m.byID))
	for id, u := range m.byID {
		out[id] = *u
	}
	return out
}

func (m *MemoryRepository) Restore(s map[string]models.User) {
	m.byID = make(map[string]*models.User, len(s))
	for id, u := range s {
		cp := u
		m.byID[id] = &cp
	}
}
