package experience

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/titto/titto-backend/internal/models"
	"github.com/titto/titto-backend/pkg/metrics"
)

type recordingSaver struct {
	saved []models.User
	err   error
}

func (r *recordingSaver) Save(ctx context.Context, u *models.User) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, *u)
	return nil
}

func newUser(current, total int) *models.User {
	return &models.User{ID: "u1", CurrentExperience: current, TotalExperience: total}
}

func TestDeduct(t *testing.T) {
	s := &recordingSaver{}
	l := NewLedger(s)
	u := newUser(50, 80)

	require.NoError(t, l.Deduct(context.Background(), u, 50))
	require.Equal(t, 0, u.CurrentExperience)
	require.Equal(t, 80, u.TotalExperience)
	require.Len(t, s.saved, 1)

	// zero is always affordable
	require.NoError(t, l.Deduct(context.Background(), u, 0))
}

func TestDeduct_InsufficientBalance(t *testing.T) {
	s := &recordingSaver{}
	u := newUser(10, 100)

	err := NewLedger(s).Deduct(context.Background(), u, 11)
	require.ErrorIs(t, err, ErrInsufficientBalance)
	var ib *InsufficientBalanceError
	require.True(t, errors.As(err, &ib))
	require.Equal(t, 10, ib.Available)
	require.Equal(t, 11, ib.Requested)

	require.Equal(t, 10, u.CurrentExperience)
	require.Empty(t, s.saved)
}

func TestAddCreditsBothBalances(t *testing.T) {
	before := testutil.ToFloat64(metrics.ExperiencePoints.WithLabelValues("credit"))
	u := newUser(5, 5)
	l := NewLedger(&recordingSaver{})
	require.NoError(t, l.Add(context.Background(), u, AcceptanceBonus))
	require.Equal(t, 40, u.CurrentExperience)
	require.Equal(t, 40, u.TotalExperience)

	// counters move only on Publish
	require.Equal(t, before, testutil.ToFloat64(metrics.ExperiencePoints.WithLabelValues("credit")))
	l.Publish()
	require.Equal(t, before+AcceptanceBonus, testutil.ToFloat64(metrics.ExperiencePoints.WithLabelValues("credit")))
	l.Publish()
	require.Equal(t, before+AcceptanceBonus, testutil.ToFloat64(metrics.ExperiencePoints.WithLabelValues("credit")))
}

func TestDroppedLedgerPublishesNothing(t *testing.T) {
	before := testutil.ToFloat64(metrics.ExperiencePoints.WithLabelValues("debit"))
	require.NoError(t, NewLedger(&recordingSaver{}).Deduct(context.Background(), newUser(50, 50), 25))
	require.Equal(t, before, testutil.ToFloat64(metrics.ExperiencePoints.WithLabelValues("debit")))

	var none *Ledger
	none.Publish()
}

func TestDeductThenAddRestoresCurrent(t *testing.T) {
	tests := []struct {
		name           string
		current, total int
		amount         int
	}{
		{"zero", 40, 60, 0},
		{"one", 40, 60, 1},
		{"part", 40, 60, 15},
		{"everything", 40, 60, 40},
		{"empty balance", 0, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger(&recordingSaver{})
			u := newUser(tt.current, tt.total)
			require.NoError(t, l.Deduct(context.Background(), u, tt.amount))
			require.NoError(t, l.Add(context.Background(), u, tt.amount))
			require.Equal(t, tt.current, u.CurrentExperience)
			require.Equal(t, tt.total+tt.amount, u.TotalExperience)
		})
	}
}

func TestRefundCreditsCurrentOnly(t *testing.T) {
	u := newUser(70, 100)
	require.NoError(t, NewLedger(&recordingSaver{}).Refund(context.Background(), u, 30))
	require.Equal(t, 100, u.CurrentExperience)
	require.Equal(t, 100, u.TotalExperience)
}

func TestNegativeAmountsRejected(t *testing.T) {
	l := NewLedger(&recordingSaver{})
	u := newUser(10, 10)
	require.ErrorIs(t, l.Deduct(context.Background(), u, -1), ErrInvalidAmount)
	require.ErrorIs(t, l.Add(context.Background(), u, -1), ErrInvalidAmount)
	require.ErrorIs(t, l.Refund(context.Background(), u, -1), ErrInvalidAmount)
	require.Equal(t, 10, u.CurrentExperience)
}

func TestSaveFailureLeavesUserUntouched(t *testing.T) {
	boom := errors.New("disk full")
	l := NewLedger(&recordingSaver{err: boom})
	u := newUser(20, 30)

	require.ErrorIs(t, l.Deduct(context.Background(), u, 5), boom)
	require.ErrorIs(t, l.Add(context.Background(), u, 5), boom)
	require.ErrorIs(t, l.Refund(context.Background(), u, 5), boom)
	require.Equal(t, 20, u.CurrentExperience)
	require.Equal(t, 30, u.TotalExperience)
}
