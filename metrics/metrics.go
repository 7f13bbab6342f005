// Package metrics exposes Prometheus counters for the ordering gateway.
//
// A nil *Collector is valid and records nothing, so components can be
// built without metrics in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"table-order/models"
)

type Collector struct {
	registry *prometheus.Registry

	ordersPlaced    *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	backendFailures *prometheus.CounterVec
	pollDuration    prometheus.Histogram
	activeOrders    *prometheus.GaugeVec
}

// New builds a collector on its own registry
func New() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		ordersPlaced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "table_order_orders_placed_total",
				Help: "Orders placed, by payment choice",
			},
			[]string{"choice"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "table_order_transitions_total",
				Help: "Applied status transitions",
			},
			[]string{"axis", "from", "to"},
		),
		backendFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "table_order_backend_failures_total",
				Help: "Failed backend calls, by operation",
			},
			[]string{"operation"},
		),
		pollDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "table_order_poll_duration_seconds",
				Help:    "Duration of staff order polls",
				Buckets: prometheus.DefBuckets,
			},
		),
		activeOrders: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "table_order_orders",
				Help: "Orders currently held, by fulfillment status",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(c.ordersPlaced, c.transitions, c.backendFailures, c.pollDuration, c.activeOrders)
	return c
}

func (c *Collector) OrderPlaced(choice models.PaymentChoice) {
	if c == nil {
		return
	}
	c.ordersPlaced.WithLabelValues(string(choice)).Inc()
}

func (c *Collector) Transition(axis, from, to string) {
	if c == nil {
		return
	}
	c.transitions.WithLabelValues(axis, from, to).Inc()
}

func (c *Collector) BackendFailure(operation string) {
	if c == nil {
		return
	}
	c.backendFailures.WithLabelValues(operation).Inc()
}

func (c *Collector) ObservePoll(d time.Duration) {
	if c == nil {
		return
	}
	c.pollDuration.Observe(d.Seconds())
}

// SetActiveOrders resets the per-status gauge from a full order list
func (c *Collector) SetActiveOrders(orders []models.Order) {
	if c == nil {
		return
	}
	counts := map[models.OrderStatus]int{
		models.StatusPending:   0,
		models.StatusConfirmed: 0,
		models.StatusPreparing: 0,
		models.StatusReady:     0,
		models.StatusServed:    0,
		models.StatusCompleted: 0,
	}
	for _, o := range orders {
		counts[o.Status]++
	}
	for status, n := range counts {
		c.activeOrders.WithLabelValues(string(status)).Set(float64(n))
	}
}

// Registry is exposed for tests
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
