package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the booking services.
type Metrics struct {
	BookingsTotal       *prometheus.CounterVec
	SlotLockConflicts   prometheus.Counter
	NotifyJobsByStatus  *prometheus.GaugeVec
	NotifyAttemptsTotal *prometheus.CounterVec
	NotifyDeadLettered  prometheus.Counter
	AuthCacheHits       prometheus.Counter
	AuthCacheMisses     prometheus.Counter
}

// New initializes the metrics against the given registerer. Tests pass a
// fresh registry so repeated construction does not panic.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		BookingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicebook",
			Subsystem: "bookings",
			Name:      "requests_total",
			Help:      "Total number of booking requests by outcome.",
		}, []string{"outcome"}), // outcome: booked, conflict, invalid, error
		SlotLockConflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "voicebook",
			Subsystem: "bookings",
			Name:      "slot_lock_conflicts_total",
			Help:      "Total number of booking attempts that lost the slot lock race.",
		}),
		NotifyJobsByStatus: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "voicebook",
			Subsystem: "notify",
			Name:      "jobs",
			Help:      "Number of notification jobs by status.",
		}, []string{"status"}), // status: queued, processing, delivered, failed, dead_letter
		NotifyAttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicebook",
			Subsystem: "notify",
			Name:      "attempts_total",
			Help:      "Total number of delivery attempts by result.",
		}, []string{"result"}), // result: delivered, failed
		NotifyDeadLettered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "voicebook",
			Subsystem: "notify",
			Name:      "dead_lettered_total",
			Help:      "Total number of jobs moved to the dead letter state.",
		}),
		AuthCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "voicebook",
			Subsystem: "auth",
			Name:      "token_cache_hits_total",
			Help:      "Total number of token verification cache hits.",
		}),
		AuthCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "voicebook",
			Subsystem: "auth",
			Name:      "token_cache_misses_total",
			Help:      "Total number of token verification cache misses.",
		}),
	}
}

// NewDefault registers against the global Prometheus registry.
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer)
}
