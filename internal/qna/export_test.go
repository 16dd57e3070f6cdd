package qna

import "time"

func (s *QuestionService) SetClock(now func() time.Time) { s.now = now }

func (s *AnswerService) SetClock(now func() time.Time) { s.now = now }
