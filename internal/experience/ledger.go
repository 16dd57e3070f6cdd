// Package experience owns the point economy of the question board.
//
// Users hold two balances: CurrentExperience is spendable and can go up and
// down, TotalExperience is lifetime earnings and only grows. The Ledger is
// the only code that mutates either one.
package experience

import (
	"context"
	"errors"
	"fmt"

	"github.com/titto/titto-backend/internal/models"
	"github.com/titto/titto-backend/pkg/metrics"
)

const (
	// AnswerReward is credited to the author of every new answer.
	AnswerReward = 20
	// AcceptanceBonus is credited to a question's author, on top of the
	// returned stake, when they accept an answer.
	AcceptanceBonus = 35
)

var (
	ErrInsufficientBalance = errors.New("insufficient experience balance")
	ErrInvalidAmount       = errors.New("experience amount must not be negative")
)

// InsufficientBalanceError reports the shortfall of a rejected debit.
type InsufficientBalanceError struct {
	UserID    string
	Available int
	Requested int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient experience: user %s has %d, requested %d", e.UserID, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// Saver persists a user after a balance change.
type Saver interface {
	Save(ctx context.Context, u *models.User) error
}

// Ledger applies balance changes and persists them through the Saver it was
// built with. Build one per transaction so saves join that transaction, and
// call Publish after the commit.
type Ledger struct {
	users Saver
	moved map[string]int
}

func NewLedger(users Saver) *Ledger {
	return &Ledger{users: users}
}

// Deduct debits the spendable balance. On failure u is left untouched.
func (l *Ledger) Deduct(ctx context.Context, u *models.User, amount int) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	if amount > u.CurrentExperience {
		return &InsufficientBalanceError{UserID: u.ID, Available: u.CurrentExperience, Requested: amount}
	}
	u.CurrentExperience -= amount
	if err := l.users.Save(ctx, u); err != nil {
		u.CurrentExperience += amount
		return fmt.Errorf("save user %s: %w", u.ID, err)
	}
	l.record("debit", amount)
	return nil
}

// Add credits both the spendable and the lifetime balance.
func (l *Ledger) Add(ctx context.Context, u *models.User, amount int) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	u.CurrentExperience += amount
	u.TotalExperience += amount
	if err := l.users.Save(ctx, u); err != nil {
		u.CurrentExperience -= amount
		u.TotalExperience -= amount
		return fmt.Errorf("save user %s: %w", u.ID, err)
	}
	l.record("credit", amount)
	return nil
}

// Refund returns a stake to the spendable balance only. Lifetime earnings
// are not increased because the points were never spent from them.
func (l *Ledger) Refund(ctx context.Context, u *models.User, amount int) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	u.CurrentExperience += amount
	if err := l.users.Save(ctx, u); err != nil {
		u.CurrentExperience -= amount
		return fmt.Errorf("save user %s: %w", u.ID, err)
	}
	l.record("refund", amount)
	return nil
}

func (l *Ledger) record(direction string, amount int) {
	if l.moved == nil {
		l.moved = map[string]int{}
	}
	l.moved[direction] += amount
}

// Publish adds the points moved so far to the experience counters and
// resets them. A ledger whose transaction rolled back or was retried is
// simply dropped.
func (l *Ledger) Publish() {
	if l == nil {
		return
	}
	for direction, n := range l.moved {
		metrics.ExperiencePoints.WithLabelValues(direction).Add(float64(n))
	}
	l.moved = nil
}
