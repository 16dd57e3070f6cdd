package qna_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/titto/titto-backend/internal/database"
	"github.com/titto/titto-backend/internal/experience"
	"github.com/titto/titto-backend/internal/models"
	"github.com/titto/titto-backend/internal/qna"
	"github.com/titto/titto-backend/internal/store"
	"github.com/titto/titto-backend/internal/users"
	"github.com/titto/titto-backend/pkg/metrics"
)

type fixture struct {
	backend   store.Backend
	questions *qna.QuestionService
	answers   *qna.AnswerService
}

// eachStore runs fn against the in-memory store and an in-memory SQLite database.
func eachStore(t *testing.T, fn func(t *testing.T, f *fixture)) {
	backends := map[string]func(t *testing.T) store.Backend{
		"memory": func(t *testing.T) store.Backend { return store.NewMemory() },
		"sqlite": func(t *testing.T) store.Backend {
			db, err := database.OpenGorm("sqlite", ":memory:")
			require.NoError(t, err)
			g := store.NewGorm(db)
			require.NoError(t, g.Migrate())
			t.Cleanup(func() { _ = g.Close(context.Background()) })
			return g
		},
	}
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			b := open(t)
			fn(t, &fixture{backend: b, questions: qna.NewQuestionService(b), answers: qna.NewAnswerService(b)})
		})
	}
}

func (f *fixture) seed(t *testing.T, email string, current, total int) *models.User {
	t.Helper()
	u := &models.User{ID: uuid.NewString(), Email: email, Name: email, TotalExperience: total, CurrentExperience: current}
	require.NoError(t, f.backend.Users().Save(context.Background(), u))
	return u
}

func (f *fixture) user(t *testing.T, id string) *models.User {
	t.Helper()
	u, err := f.backend.Users().FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}

func (f *fixture) ask(t *testing.T, author *models.User, stake int) *qna.QuestionResponse {
	t.Helper()
	q, err := f.questions.Create(context.Background(), author.Email, qna.CreateQuestionRequest{
		Title: "Fourier series convergence", Content: "When does it converge pointwise?",
		Department: "NATURAL_SCIENCE", Status: "ACTIVE", SendExperience: stake,
	})
	require.NoError(t, err)
	return q
}

func (f *fixture) answer(t *testing.T, author *models.User, questionID string) *qna.AnswerResponse {
	t.Helper()
	a, err := f.answers.Create(context.Background(), author.Email, questionID, qna.AnswerRequest{Content: "Dirichlet conditions."})
	require.NoError(t, err)
	return a
}

func requireBalance(t *testing.T, u *models.User, current, total int) {
	t.Helper()
	require.Equal(t, current, u.CurrentExperience, "current experience of %s", u.Email)
	require.Equal(t, total, u.TotalExperience, "total experience of %s", u.Email)
}

func TestAcceptScenario(t *testing.T) {
	eachStore(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		a := f.seed(t, "a@uni.edu", 100, 100)
		b := f.seed(t, "b@uni.edu", 100, 100)

		q := f.ask(t, a, 30)
		require.Equal(t, 0, q.ViewCount)
		require.False(t, q.IsAnswerAccepted)
		requireBalance(t, f.user(t, a.ID), 70, 100)

		ans := f.answer(t, b, q.ID)
		requireBalance(t, f.user(t, b.ID), 120, 120)

		debit := testutil.ToFloat64(metrics.ExperiencePoints.WithLabelValues("debit"))
		credit := testutil.ToFloat64(metrics.ExperiencePoints.WithLabelValues("credit"))
		require.NoError(t, f.answers.Accept(ctx, q.ID, ans.ID, a.ID))
		require.Equal(t, debit+30, testutil.ToFloat64(metrics.ExperiencePoints.WithLabelValues("debit")))
		require.Equal(t, credit+65, testutil.ToFloat64(metrics.ExperiencePoints.WithLabelValues("credit")))
		requireBalance(t, f.user(t, a.ID), 135, 165)
		requireBalance(t, f.user(t, b.ID), 90, 120)

		got, _, err := f.questions.Get(ctx, q.ID, "[already-seen]["+q.ID+"]")
		require.NoError(t, err)
		require.True(t, got.IsAnswerAccepted)
		require.Equal(t, int64(1), got.AnswerCount)

		list, err := f.answers.ListByQuestion(ctx, q.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.True(t, list[0].IsAccepted)

		err = f.answers.Accept(ctx, q.ID, ans.ID, a.ID)
		require.ErrorIs(t, err, qna.ErrAlreadyAcceptedAnswer)
		requireBalance(t, f.user(t, a.ID), 135, 165)
	})
}

func TestCreateQuestionStakeRules(t *testing.T) {
	eachStore(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		req := qna.CreateQuestionRequest{Title: "t", Content: "c", Department: "ARTS", Status: "ACTIVE"}

		// stake bounded by lifetime experience
		rich := f.seed(t, "rich@uni.edu", 40, 40)
		req.SendExperience = 41
		_, err := f.questions.Create(ctx, rich.Email, req)
		require.ErrorIs(t, err, qna.ErrInsufficientExperience)
		requireBalance(t, f.user(t, rich.ID), 40, 40)

		// ...and paid from the spendable balance
		spent := f.seed(t, "spent@uni.edu", 10, 100)
		req.SendExperience = 20
		_, err = f.questions.Create(ctx, spent.Email, req)
		require.ErrorIs(t, err, experience.ErrInsufficientBalance)
		requireBalance(t, f.user(t, spent.ID), 10, 100)

		list, err := f.questions.ListAll(ctx, models.Page{})
		require.NoError(t, err)
		require.Empty(t, list)

		_, err = f.questions.Create(ctx, "ghost@uni.edu", qna.CreateQuestionRequest{Title: "t", Content: "c", Department: "ARTS", Status: "ACTIVE"})
		require.ErrorIs(t, err, users.ErrUserNotFound)

		bad := req
		bad.SendExperience = 0
		bad.Department = "MAGIC"
		_, err = f.questions.Create(ctx, rich.Email, bad)
		require.ErrorIs(t, err, models.ErrUnknownDepartment)

		bad = req
		bad.SendExperience = 0
		bad.Status = "ARCHIVED"
		_, err = f.questions.Create(ctx, rich.Email, bad)
		require.ErrorIs(t, err, models.ErrUnknownStatus)

		bad = req
		bad.SendExperience = -5
		_, err = f.questions.Create(ctx, rich.Email, bad)
		require.ErrorIs(t, err, qna.ErrInvalidRequest)
	})
}

func TestAcceptRollsBackWhenAnswererCannotPay(t *testing.T) {
	eachStore(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		a := f.seed(t, "a@uni.edu", 100, 100)
		b := f.seed(t, "b@uni.edu", 0, 0)

		q := f.ask(t, a, 50)
		ans := f.answer(t, b, q.ID) // b now holds 20, stake is 50

		credit := testutil.ToFloat64(metrics.ExperiencePoints.WithLabelValues("credit"))
		err := f.answers.Accept(ctx, q.ID, ans.ID, a.ID)
		require.ErrorIs(t, err, experience.ErrInsufficientBalance)
		require.Equal(t, credit, testutil.ToFloat64(metrics.ExperiencePoints.WithLabelValues("credit")))

		got, _, err := f.questions.Get(ctx, q.ID, "["+q.ID+"]")
		require.NoError(t, err)
		require.False(t, got.IsAnswerAccepted)
		list, err := f.answers.ListByQuestion(ctx, q.ID)
		require.NoError(t, err)
		require.False(t, list[0].IsAccepted)
		requireBalance(t, f.user(t, a.ID), 50, 100)
		requireBalance(t, f.user(t, b.ID), 20, 20)
	})
}

func TestAcceptAuthorization(t *testing.T) {
	eachStore(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		a := f.seed(t, "a@uni.edu", 100, 100)
		b := f.seed(t, "b@uni.edu", 100, 100)

		q1 := f.ask(t, a, 10)
		q2 := f.ask(t, a, 10)
		ans := f.answer(t, b, q1.ID)

		require.ErrorIs(t, f.answers.Accept(ctx, q1.ID, ans.ID, b.ID), qna.ErrAuthorMismatch)
		require.ErrorIs(t, f.answers.Accept(ctx, q2.ID, ans.ID, a.ID), qna.ErrAnswerNotFound)
		require.ErrorIs(t, f.answers.Accept(ctx, "missing", ans.ID, a.ID), qna.ErrQuestionNotFound)
		require.ErrorIs(t, f.answers.Accept(ctx, q1.ID, ans.ID, "nobody"), users.ErrUserNotFound)
		requireBalance(t, f.user(t, a.ID), 80, 100)
	})
}

func TestAcceptOwnAnswer(t *testing.T) {
	eachStore(t, func(t *testing.T, f *fixture) {
		a := f.seed(t, "a@uni.edu", 100, 100)
		q := f.ask(t, a, 30)
		ans := f.answer(t, a, q.ID)
		requireBalance(t, f.user(t, a.ID), 90, 120)

		require.NoError(t, f.answers.Accept(context.Background(), q.ID, ans.ID, a.ID))
		// -30 as answerer, +65 as author
		requireBalance(t, f.user(t, a.ID), 125, 185)
	})
}

func TestConcurrentAcceptsSettleOnce(t *testing.T) {
	eachStore(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		a := f.seed(t, "a@uni.edu", 100, 100)
		q := f.ask(t, a, 10)

		const n = 4
		ids := make([]string, n)
		for i := range ids {
			ids[i] = f.answer(t, f.seed(t, uuid.NewString()+"@uni.edu", 50, 50), q.ID).ID
		}

		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := range ids {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = f.answers.Accept(ctx, q.ID, ids[i], a.ID)
			}(i)
		}
		wg.Wait()

		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
				continue
			}
			require.True(t, errors.Is(err, qna.ErrAlreadyAcceptedAnswer), "unexpected error: %v", err)
		}
		require.Equal(t, 1, wins)
		requireBalance(t, f.user(t, a.ID), 90+experience.AcceptanceBonus+10, 100+experience.AcceptanceBonus+10)
	})
}

func TestDeleteQuestion(t *testing.T) {
	eachStore(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		a := f.seed(t, "a@uni.edu", 100, 100)
		b := f.seed(t, "b@uni.edu", 0, 0)
		q := f.ask(t, a, 40)
		ans := f.answer(t, b, q.ID)

		require.ErrorIs(t, f.questions.Delete(ctx, q.ID, b.ID), qna.ErrAuthorMismatch)
		requireBalance(t, f.user(t, a.ID), 60, 100)
		requireBalance(t, f.user(t, b.ID), 20, 20)

		require.NoError(t, f.questions.Delete(ctx, q.ID, a.ID))
		requireBalance(t, f.user(t, a.ID), 100, 100)
		// the answer reward is not clawed back
		requireBalance(t, f.user(t, b.ID), 20, 20)

		_, _, err := f.questions.Get(ctx, q.ID, "")
		require.ErrorIs(t, err, qna.ErrQuestionNotFound)
		require.ErrorIs(t, f.answers.Delete(ctx, ans.ID, b.ID), qna.ErrAnswerNotFound)
		require.ErrorIs(t, f.questions.Delete(ctx, q.ID, a.ID), qna.ErrQuestionNotFound)
	})
}

func TestDeleteQuestionWithAcceptedAnswerRefused(t *testing.T) {
	eachStore(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		a := f.seed(t, "a@uni.edu", 100, 100)
		b := f.seed(t, "b@uni.edu", 100, 100)
		q := f.ask(t, a, 10)
		ans := f.answer(t, b, q.ID)
		require.NoError(t, f.answers.Accept(ctx, q.ID, ans.ID, a.ID))

		require.ErrorIs(t, f.questions.Delete(ctx, q.ID, a.ID), qna.ErrDeleteNotAllowed)
		require.ErrorIs(t, f.answers.Delete(ctx, ans.ID, b.ID), qna.ErrDeleteNotAllowed)
		requireBalance(t, f.user(t, a.ID), 135, 145)
	})
}

func TestUpdates(t *testing.T) {
	eachStore(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		a := f.seed(t, "a@uni.edu", 10, 10)
		b := f.seed(t, "b@uni.edu", 0, 0)
		q := f.ask(t, a, 5)
		ans := f.answer(t, b, q.ID)

		title := "Uniform convergence"
		_, err := f.questions.Update(ctx, q.ID, b.ID, qna.UpdateQuestionRequest{Title: &title})
		require.ErrorIs(t, err, qna.ErrAuthorMismatch)

		status := "inactive"
		updated, err := f.questions.Update(ctx, q.ID, a.ID, qna.UpdateQuestionRequest{Title: &title, Status: &status})
		require.NoError(t, err)
		require.Equal(t, title, updated.Title)
		require.Equal(t, models.StatusInactive, updated.Status)
		require.Equal(t, q.Content, updated.Content)
		require.Equal(t, 5, updated.SendExperience)

		bogus := "PHILOSOPHY"
		_, err = f.questions.Update(ctx, q.ID, a.ID, qna.UpdateQuestionRequest{Department: &bogus})
		require.ErrorIs(t, err, models.ErrUnknownDepartment)

		_, err = f.answers.Update(ctx, ans.ID, a.ID, qna.AnswerRequest{Content: "not mine"})
		require.ErrorIs(t, err, qna.ErrAuthorMismatch)
		edited, err := f.answers.Update(ctx, ans.ID, b.ID, qna.AnswerRequest{Content: "Carleson's theorem."})
		require.NoError(t, err)
		require.Equal(t, "Carleson's theorem.", edited.Content)

		_, err = f.answers.Update(ctx, ans.ID, b.ID, qna.AnswerRequest{})
		require.ErrorIs(t, err, qna.ErrInvalidRequest)

		require.ErrorIs(t, f.answers.Delete(ctx, ans.ID, a.ID), qna.ErrAuthorMismatch)
		require.NoError(t, f.answers.Delete(ctx, ans.ID, b.ID))
		list, err := f.answers.ListByQuestion(ctx, q.ID)
		require.NoError(t, err)
		require.Empty(t, list)
	})
}

func TestViewCounting(t *testing.T) {
	eachStore(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		a := f.seed(t, "a@uni.edu", 0, 0)
		q := f.ask(t, a, 0)

		got, tok, err := f.questions.Get(ctx, q.ID, "")
		require.NoError(t, err)
		require.Equal(t, 1, got.ViewCount)
		require.Equal(t, "["+q.ID+"]", tok)

		got, tok2, err := f.questions.Get(ctx, q.ID, tok)
		require.NoError(t, err)
		require.Equal(t, 1, got.ViewCount)
		require.Equal(t, tok, tok2)

		got, _, err = f.questions.Get(ctx, q.ID, "[other]")
		require.NoError(t, err)
		require.Equal(t, 2, got.ViewCount)
	})
}

func TestListingPagesNewestFirst(t *testing.T) {
	eachStore(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		a := f.seed(t, "a@uni.edu", 0, 0)
		var ids []string
		for i := 0; i < 12; i++ {
			dept := "ARTS"
			if i%3 == 0 {
				dept = "BUSINESS"
			}
			q, err := f.questions.Create(ctx, a.Email, qna.CreateQuestionRequest{Title: "t", Content: "c", Department: dept, Status: "ACTIVE"})
			require.NoError(t, err)
			ids = append(ids, q.ID)
		}

		first, err := f.questions.ListAll(ctx, models.Page{})
		require.NoError(t, err)
		require.Len(t, first, models.DefaultPageSize)
		require.Equal(t, ids[11], first[0].ID)

		second, err := f.questions.ListAll(ctx, models.Page{Number: 1})
		require.NoError(t, err)
		require.Len(t, second, 2)
		require.Equal(t, ids[0], second[1].ID)

		business, err := f.questions.ListByDepartment(ctx, models.Page{Size: 2}, "business")
		require.NoError(t, err)
		require.Len(t, business, 2)
		require.Equal(t, ids[9], business[0].ID)
		require.Equal(t, ids[6], business[1].ID)

		_, err = f.questions.ListByDepartment(ctx, models.Page{}, "nope")
		require.ErrorIs(t, err, models.ErrUnknownDepartment)
	})
}

func TestSameInstantKeepsCreationOrder(t *testing.T) {
	eachStore(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		frozen := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		f.questions.SetClock(func() time.Time { return frozen })
		f.answers.SetClock(func() time.Time { return frozen })

		a := f.seed(t, "a@uni.edu", 0, 0)
		var qids, aids []string
		for i := 0; i < 6; i++ {
			q := f.ask(t, a, 0)
			qids = append(qids, q.ID)
		}
		for i := 0; i < 6; i++ {
			aids = append(aids, f.answer(t, a, qids[0]).ID)
		}

		list, err := f.questions.ListAll(ctx, models.Page{})
		require.NoError(t, err)
		require.Len(t, list, 6)
		for i, q := range list {
			require.Equal(t, qids[5-i], q.ID)
		}

		answers, err := f.answers.ListByQuestion(ctx, qids[0])
		require.NoError(t, err)
		require.Len(t, answers, 6)
		for i, ans := range answers {
			require.Equal(t, aids[i], ans.ID)
		}
	})
}
