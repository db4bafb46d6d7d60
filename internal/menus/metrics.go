package menus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts menu tree lifecycle events.
type Metrics struct {
	MenusBuilt         prometheus.Counter
	MenusDestroyed     prometheus.Counter
	OwnershipTransfers *prometheus.CounterVec
	OwnershipDropped   prometheus.Counter
	ValidationFailures *prometheus.CounterVec
}

// NewMetrics registers the manager metrics with reg. A nil reg yields
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MenusBuilt: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "program",
			Name:      "menus_built_total",
			Help:      "Total number of top-level menu trees generated",
		}),
		MenusDestroyed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "program",
			Name:      "menus_destroyed_total",
			Help:      "Total number of top-level menu trees destroyed",
		}),
		OwnershipTransfers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "program",
			Name:      "menu_ownership_transfers_total",
			Help:      "Total number of top-level menu ownership transfers by reason",
		}, []string{"reason"}),
		OwnershipDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "program",
			Name:      "menu_ownership_dropped_total",
			Help:      "Total number of bubbled ownerships dropped because the chain root already owned a menu",
		}),
		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "program",
			Name:      "menu_validation_failures_total",
			Help:      "Total number of rejected result level writes by reason",
		}, []string{"reason"}),
	}
}

// Transfer reasons.
const (
	reasonBubble = "bubble"
	reasonUnlink = "unlink"
)
