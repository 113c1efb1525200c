package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the identity module.
type Metrics struct {
	IdentitiesCreated *prometheus.CounterVec
	SignupRejected    prometheus.Counter
	CreateDuration    prometheus.Histogram
}

// New creates a Metrics instance with all identity module metrics registered.
func New() *Metrics {
	return &Metrics{
		IdentitiesCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "felicity_identities_created_total",
			Help: "Total number of identities created, by role",
		}, []string{"role"}),
		SignupRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "felicity_signup_rejected_total",
			Help: "Total number of signups rejected by validation or conflict",
		}),
		CreateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "felicity_identity_create_duration_seconds",
			Help:    "Duration of identity creation including password hashing",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementCreated records a successful identity creation for a role.
func (m *Metrics) IncrementCreated(role string) {
	m.IdentitiesCreated.WithLabelValues(role).Inc()
}

// IncrementSignupRejected records a rejected signup.
func (m *Metrics) IncrementSignupRejected() {
	m.SignupRejected.Inc()
}

// ObserveCreate records the duration of a creation attempt.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveCreate(start time.Time) {
	m.CreateDuration.Observe(time.Since(start).Seconds())
}
