package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Total number of chat turns processed, by classified intent",
		},
		[]string{"intent"},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_turn_duration_seconds",
			Help:    "Duration of chat turn processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	AICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_ai_calls_total",
			Help: "Total number of generative AI calls, by outcome",
		},
		[]string{"outcome"},
	)

	AIErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_ai_errors_total",
			Help: "Total number of generative AI transport errors, by kind",
		},
		[]string{"kind"},
	)

	QuestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_questions_total",
			Help: "Clarifying questions detected in AI replies, by disposition",
		},
		[]string{"disposition"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_sessions_active",
			Help: "Number of conversations held by the in-memory session store",
		},
	)
)

// Path labels for TurnDuration.
const (
	PathDirect = "direct"
	PathAI     = "ai"
)

// Outcome labels for AICallsTotal.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Disposition labels for QuestionsTotal.
const (
	QuestionAsked      = "asked"
	QuestionSuppressed = "suppressed"
	QuestionDropped    = "dropped"
)
