package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// AnalysesTotal counts completed analyses by input kind and whether the AI or the fallback answered.
	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vehicleservice",
		Subsystem: "analyzer",
		Name:      "analyses_total",
		Help:      "Total number of issue analyses, labeled by input kind and outcome (ai or fallback).",
	}, []string{"input", "outcome"})

	// InvalidInputTotal counts analyses rejected before any AI call.
	InvalidInputTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vehicleservice",
		Subsystem: "analyzer",
		Name:      "invalid_input_total",
		Help:      "Total number of analysis requests rejected as invalid input.",
	}, []string{"input"})

	// AIRequestDuration is the time spent in the AI call plus reply parsing.
	AIRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vehicleservice",
		Subsystem: "analyzer",
		Name:      "ai_request_duration_seconds",
		Help:      "Duration of AI gateway calls, labeled by input kind and result.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"input", "result"})

	IssuesCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vehicleservice",
		Subsystem: "api",
		Name:      "issues_created_total",
		Help:      "Total number of issues created.",
	})

	IssuesResolvedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vehicleservice",
		Subsystem: "api",
		Name:      "issues_resolved_total",
		Help:      "Total number of issues marked resolved.",
	})

	// AssistantRepliesTotal counts assistant replies by role and how they were produced.
	AssistantRepliesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vehicleservice",
		Subsystem: "assistant",
		Name:      "replies_total",
		Help:      "Total number of assistant replies, labeled by role and outcome (ai, off_topic, unavailable).",
	}, []string{"role", "outcome"})

	EventPublishErrorTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vehicleservice",
		Subsystem: "api",
		Name:      "events_publish_errors_total",
		Help:      "Total number of issue lifecycle events that failed to publish.",
	})
)

// Register registers service metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			AnalysesTotal,
			InvalidInputTotal,
			AIRequestDuration,
			IssuesCreatedTotal,
			IssuesResolvedTotal,
			EventPublishErrorTotal,
			AssistantRepliesTotal,
		)
	})
}
