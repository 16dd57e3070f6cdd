package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/titto/titto-backend/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// Service encapsulates user-related business logic
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// UpsertFromClaims creates or refreshes a user from verified token claims.
// The email claim is the identity; tokens without one yield (nil, nil).
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	email, _ := claims["email"].(string)
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, nil
	}
	name, _ := claims["name"].(string)
	nickname, _ := claims["preferred_username"].(string)
	if name == "" {
		name = nickname
	}
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	if nickname == "" {
		nickname = name
	}
	u := &models.User{
		ID:       uuid.NewString(),
		Email:    email,
		Name:     name,
		Nickname: nickname,
	}
	return s.repo.UpsertByEmail(ctx, u)
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.repo.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}
