// Package metrics holds the Prometheus instruments of the service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "devevents"

// Metrics counts pipeline outcomes.
type Metrics struct {
	reg                prometheus.Registerer
	eventsCreated      prometheus.Counter
	bookingsCreated    prometheus.Counter
	validationFailures *prometheus.CounterVec
	slugCollisions     prometheus.Counter
	uploadDuration     prometheus.Histogram
}

// New registers the instruments on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		eventsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_created_total",
			Help:      "Events persisted.",
		}),
		bookingsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings persisted.",
		}),
		validationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Requests rejected by input validation.",
		}, []string{"operation"}),
		slugCollisions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slug_collisions_total",
			Help:      "Event slugs that had to be disambiguated.",
		}),
		uploadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "image_upload_duration_seconds",
			Help:      "Latency of image uploads to the object store.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}
}

// WatchDB exports connection pool statistics for db.
func (m *Metrics) WatchDB(db *sql.DB) error {
	if m == nil {
		return nil
	}
	return m.reg.Register(collectors.NewDBStatsCollector(db, namespace))
}

func (m *Metrics) EventCreated() {
	if m == nil {
		return
	}
	m.eventsCreated.Inc()
}

func (m *Metrics) BookingCreated() {
	if m == nil {
		return
	}
	m.bookingsCreated.Inc()
}

// ValidationFailed counts a rejected request for operation ("create_event", "update_event", "create_booking").
func (m *Metrics) ValidationFailed(operation string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(operation).Inc()
}

func (m *Metrics) SlugCollision() {
	if m == nil {
		return
	}
	m.slugCollisions.Inc()
}

func (m *Metrics) ObserveUpload(d time.Duration) {
	if m == nil {
		return
	}
	m.uploadDuration.Observe(d.Seconds())
}
