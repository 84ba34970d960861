package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// SubmissionsTotal counts report submissions by outcome.
	SubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transit",
		Subsystem: "reports",
		Name:      "submissions_total",
		Help:      "Total number of report submissions, labeled by result.",
	}, []string{"result"})

	// VerificationsTotal counts peer verification attempts by outcome.
	VerificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transit",
		Subsystem: "reports",
		Name:      "verifications_total",
		Help:      "Total number of peer verification attempts, labeled by result.",
	}, []string{"result"})

	// PromotionsTotal counts reports that reached the verification quorum.
	PromotionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "transit",
		Subsystem: "reports",
		Name:      "promotions_total",
		Help:      "Total number of reports promoted to verified.",
	})

	// EventPublishErrorsTotal counts failed event publishes.
	EventPublishErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "transit",
		Subsystem: "reports",
		Name:      "event_publish_errors_total",
		Help:      "Total number of report events that could not be published.",
	})
)

// Register registers report metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			SubmissionsTotal,
			VerificationsTotal,
			PromotionsTotal,
			EventPublishErrorsTotal,
		)
	})
}
