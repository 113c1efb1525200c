package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the event module. Registration
// rejections are labelled by reason so capacity pressure is visible before
// anyone complains.
type Metrics struct {
	EventsCreated          prometheus.Counter
	RegistrationsCreated   prometheus.Counter
	RegistrationsCancelled prometheus.Counter
	RegistrationsRejected  *prometheus.CounterVec
}

// New creates a Metrics instance with all event module metrics registered.
func New() *Metrics {
	return &Metrics{
		EventsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "felicity_events_created_total",
			Help: "Total number of events created",
		}),
		RegistrationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "felicity_registrations_created_total",
			Help: "Total number of successful registrations",
		}),
		RegistrationsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "felicity_registrations_cancelled_total",
			Help: "Total number of cancelled registrations",
		}),
		RegistrationsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "felicity_registrations_rejected_total",
			Help: "Total number of rejected registrations, by reason",
		}, []string{"reason"}),
	}
}

// IncrementEventCreated records a successful event creation.
func (m *Metrics) IncrementEventCreated() {
	m.EventsCreated.Inc()
}

// IncrementRegistration records a successful registration.
func (m *Metrics) IncrementRegistration() {
	m.RegistrationsCreated.Inc()
}

// IncrementCancellation records a cancelled registration.
func (m *Metrics) IncrementCancellation() {
	m.RegistrationsCancelled.Inc()
}

// IncrementRejection records a rejected registration with its reason
// (deadline_passed, capacity_reached, already_registered).
func (m *Metrics) IncrementRejection(reason string) {
	m.RegistrationsRejected.WithLabelValues(reason).Inc()
}
