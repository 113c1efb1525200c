package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the authentication module.
type Metrics struct {
	LoginSucceeded prometheus.Counter
	LoginFailed    *prometheus.CounterVec
}

// New creates a Metrics instance with all auth module metrics registered.
func New() *Metrics {
	return &Metrics{
		LoginSucceeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "felicity_logins_succeeded_total",
			Help: "Total number of successful logins",
		}),
		LoginFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "felicity_logins_failed_total",
			Help: "Total number of failed logins, by reason",
		}, []string{"reason"}),
	}
}

// IncrementLoginSucceeded records a successful login.
func (m *Metrics) IncrementLoginSucceeded() {
	m.LoginSucceeded.Inc()
}

// IncrementLoginFailed records a failed login with its reason
// (bad_credentials or locked_out). Reasons are coarse on purpose; anything
// finer would mirror the enumeration detail the response hides.
func (m *Metrics) IncrementLoginFailed(reason string) {
	m.LoginFailed.WithLabelValues(reason).Inc()
}
