package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "titto"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)

	QuestionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "questions_created_total", Help: "Questions posted."},
	)
	QuestionsDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "questions_deleted_total", Help: "Questions deleted with their stake refunded."},
	)
	QuestionViews = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "question_views_total", Help: "Question views counted once per viewer per day."},
	)
	AnswersCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "answers_created_total", Help: "Answers posted."},
	)
	AnswersAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "answers_accepted_total", Help: "Answers accepted by question authors."},
	)
	// ExperiencePoints counts points moved by committed ledger operations.
	ExperiencePoints = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "experience_points_total", Help: "Experience points moved by the ledger, by direction."},
		[]string{"direction"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(
		RateLimitAllowed,
		RateLimitRejected,
		QuestionsCreated,
		QuestionsDeleted,
		QuestionViews,
		AnswersCreated,
		AnswersAccepted,
		ExperiencePoints,
	)
}
