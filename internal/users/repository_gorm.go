package users

import (
	"context"
	"errors"
	"time"

	"github.com/titto/titto-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepository implements Repository on a SQL database through gorm.
type GormRepository struct {
	db        *gorm.DB
	forUpdate bool
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Locking returns a repository whose reads take row locks (SELECT ... FOR UPDATE).
// Only meaningful when db is a transaction.
func (r *GormRepository) Locking() *GormRepository {
	return &GormRepository{db: r.db, forUpdate: true}
}

func (r *GormRepository) query(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	if r.forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func (r *GormRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(r.query(ctx).Where("id = ?", id))
}

func (r *GormRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(r.query(ctx).Where("email = ?", email))
}

func (r *GormRepository) first(q *gorm.DB) (*models.User, error) {
	var u models.User
	if err := q.First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *GormRepository) Save(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

// UpsertByEmail inserts u with zero experience, or refreshes the name of the
// row that already holds its email. Concurrent first sightings of the same
// email resolve to a single row.
func (r *GormRepository) UpsertByEmail(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	fresh := *u
	fresh.TotalExperience = 0
	fresh.CurrentExperience = 0
	fresh.CreatedAt = now
	fresh.UpdatedAt = now
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	}).Create(&fresh).Error
	if err != nil {
		return nil, err
	}
	stored, err := r.FindByEmail(ctx, u.Email)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrUserNotFound
	}
	return stored, nil
}
