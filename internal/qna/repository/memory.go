package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/titto/titto-backend/internal/models"
	"github.com/titto/titto-backend/internal/qna"
)

var ErrNotFound = errors.New("record not found")

// MemoryQuestions is an in-memory question table used by the memory store
// and in unit tests. Access must be serialized by the owner.
type MemoryQuestions struct {
	rows map[string]*models.Question
	seq  map[string]int64
	next int64
}

func NewMemoryQuestions() *MemoryQuestions {
	return &MemoryQuestions{rows: map[string]*models.Question{}, seq: map[string]int64{}}
}

func copyQuestion(q *models.Question) *models.Question {
	cp := *q
	if q.AcceptedAnswerID != nil {
		id := *q.AcceptedAnswerID
		cp.AcceptedAnswerID = &id
	}
	cp.ImageKeys = append([]string(nil), q.ImageKeys...)
	return &cp
}

func (m *MemoryQuestions) Create(ctx context.Context, q *models.Question) error {
	m.next++
	m.seq[q.ID] = m.next
	m.rows[q.ID] = copyQuestion(q)
	return nil
}

func (m *MemoryQuestions) FindByID(ctx context.Context, id string) (*models.Question, error) {
	if q, ok := m.rows[id]; ok {
		return copyQuestion(q), nil
	}
	return nil, nil
}

func (m *MemoryQuestions) Save(ctx context.Context, q *models.Question) error {
	if _, ok := m.rows[q.ID]; !ok {
		return ErrNotFound
	}
	m.rows[q.ID] = copyQuestion(q)
	return nil
}

func (m *MemoryQuestions) DeleteByID(ctx context.Context, id string) error {
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	delete(m.seq, id)
	return nil
}

func (m *MemoryQuestions) IncrementViewCount(ctx context.Context, id string) error {
	q, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	q.ViewCount++
	return nil
}

func (m *MemoryQuestions) ExistsWithAcceptedAnswer(ctx context.Context, id string) (bool, error) {
	q, ok := m.rows[id]
	return ok && q.AcceptedAnswerID != nil, nil
}

func (m *MemoryQuestions) MarkAccepted(ctx context.Context, questionID, answerID string) error {
	q, ok := m.rows[questionID]
	if !ok {
		return ErrNotFound
	}
	if q.AcceptedAnswerID != nil {
		return qna.ErrAlreadyAcceptedAnswer
	}
	id := answerID
	q.AcceptedAnswerID = &id
	q.IsAnswerAccepted = true
	return nil
}

func (m *MemoryQuestions) ListOrderedByCreatedDesc(ctx context.Context, page models.Page) ([]*models.Question, error) {
	return m.list(page, func(*models.Question) bool { return true }), nil
}

func (m *MemoryQuestions) ListByDepartmentOrderedByCreatedDesc(ctx context.Context, page models.Page, d models.Department) ([]*models.Question, error) {
	return m.list(page, func(q *models.Question) bool { return q.Department == d }), nil
}

func (m *MemoryQuestions) list(page models.Page, keep func(*models.Question) bool) []*models.Question {
	all := make([]*models.Question, 0, len(m.rows))
	for _, q := range m.rows {
		if keep(q) {
			all = append(all, q)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return m.seq[all[i].ID] > m.seq[all[j].ID]
	})
	page = page.Normalize()
	start := page.Offset()
	if start >= len(all) {
		return []*models.Question{}
	}
	end := start + page.Size
	if end > len(all) {
		end = len(all)
	}
	out := make([]*models.Question, 0, end-start)
	for _, q := range all[start:end] {
		out = append(out, copyQuestion(q))
	}
	return out
}

// QuestionsSnapshot is an opaque copy of a MemoryQuestions table.
type QuestionsSnapshot struct {
	rows map[string]*models.Question
	seq  map[string]int64
	next int64
}

func (m *MemoryQuestions) Snapshot() QuestionsSnapshot {
	s := QuestionsSnapshot{rows: make(map[string]*models.Question, len(m.rows)), seq: make(map[string]int64, len(m.seq)), next: m.next}
	for id, q := range m.rows {
		s.rows[id] = copyQuestion(q)
	}
	for id, n := range m.seq {
		s.seq[id] = n
	}
	return s
}

func (m *MemoryQuestions) Restore(s QuestionsSnapshot) {
	m.rows, m.seq, m.next = s.rows, s.seq, s.next
}

// MemoryAnswers is the in-memory answer table.
type MemoryAnswers struct {
	rows map[string]*models.Answer
	seq  map[string]int64
	next int64
}

func NewMemoryAnswers() *MemoryAnswers {
	return &MemoryAnswers{rows: map[string]*models.Answer{}, seq: map[string]int64{}}
}

func (m *MemoryAnswers) Create(ctx context.Context, a *models.Answer) error {
	m.next++
	m.seq[a.ID] = m.next
	cp := *a
	m.rows[a.ID] = &cp
	return nil
}

func (m *MemoryAnswers) FindByID(ctx context.Context, id string) (*models.Answer, error) {
	if a, ok := m.rows[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryAnswers) Save(ctx context.Context, a *models.Answer) error {
	if _, ok := m.rows[a.ID]; !ok {
		return ErrNotFound
	}
	cp := *a
	m.rows[a.ID] = &cp
	return nil
}

func (m *MemoryAnswers) DeleteByID(ctx context.Context, id string) error {
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	delete(m.seq, id)
	return nil
}

func (m *MemoryAnswers) DeleteAllByQuestion(ctx context.Context, questionID string) (int64, error) {
	var n int64
	for id, a := range m.rows {
		if a.QuestionID == questionID {
			delete(m.rows, id)
			delete(m.seq, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryAnswers) ListByQuestion(ctx context.Context, questionID string) ([]*models.Answer, error) {
	out := []*models.Answer{}
	for _, a := range m.rows {
		if a.QuestionID == questionID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.seq[out[i].ID] < m.seq[out[j].ID] })
	return out, nil
}

func (m *MemoryAnswers) CountByQuestion(ctx context.Context, questionID string) (int64, error) {
	var n int64
	for _, a := range m.rows {
		if a.QuestionID == questionID {
			n++
		}
	}
	return n, nil
}

// AnswersSnapshot is an opaque copy of a MemoryAnswers table.
type AnswersSnapshot struct {
	rows map[string]*models.Answer
	seq  map[string]int64
	next int64
}

func (m *MemoryAnswers) Snapshot() AnswersSnapshot {
	s := AnswersSnapshot{rows: make(map[string]*models.Answer, len(m.rows)), seq: make(map[string]int64, len(m.seq)), next: m.next}
	for id, a := range m.rows {
		cp := *a
		s.rows[id] = &cp
	}
	for id, n := range m.seq {
		s.seq[id] = n
	}
	return s
}

func (m *MemoryAnswers) Restore(s AnswersSnapshot) {
	m.rows, m.seq, m.next = s.rows, s.seq, s.next
}
