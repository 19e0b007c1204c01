package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg           *prometheus.Registry
	CartViews     prometheus.Counter
	OrdersPlaced  prometheus.Counter
	OrderFailures *prometheus.CounterVec
	OrderTotal    prometheus.Histogram

	// Storefront API calls, labelled by operation and outcome.
	BackendLatencySec *prometheus.HistogramVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	cartViews := prometheus.NewCounter(prometheus.CounterOpts{Name: "checkout_cart_views_total"})
	placed := prometheus.NewCounter(prometheus.CounterOpts{Name: "checkout_orders_placed_total"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "checkout_order_failures_total"}, []string{"reason"})
	orderTotal := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_order_total_amount",
		Buckets: []float64{1000, 5000, 10000, 25000, 50000, 100000, 250000},
	})
	backend := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_backend_request_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "outcome"})

	r.MustRegister(cartViews, placed, failures, orderTotal, backend)
	return &Registry{
		reg:               r,
		CartViews:         cartViews,
		OrdersPlaced:      placed,
		OrderFailures:     failures,
		OrderTotal:        orderTotal,
		BackendLatencySec: backend,
	}
}

// ObserveBackend satisfies backend.Observer.
func (r *Registry) ObserveBackend(op string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.BackendLatencySec.WithLabelValues(op, outcome).Observe(elapsed.Seconds())
}

func (r *Registry) CartViewed() { r.CartViews.Inc() }

func (r *Registry) OrderPlaced(total float64) {
	r.OrdersPlaced.Inc()
	r.OrderTotal.Observe(total)
}

func (r *Registry) OrderFailed(reason string) { r.OrderFailures.WithLabelValues(reason).Inc() }

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
