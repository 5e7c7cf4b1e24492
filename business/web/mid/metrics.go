package mid

import (
	"context"
	"net/http"
	"sync"

	"github.com/charityblock/ledger/foundation/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusRequests *prometheus.CounterVec
	prometheusErrors   prometheus.Counter
	prometheusPanics   prometheus.Counter

	// only init the metrics once
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "http_requests",
			Help:      "Number of http requests handled",
		},
		[]string{
			"method", // http method of the request
		},
	)
	prometheusErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "http_errors",
			Help:      "Number of http requests that returned an error",
		},
	)
	prometheusPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "http_panics",
			Help:      "Number of http requests that panicked",
		},
	)
}

// Metrics updates program counters.
func Metrics() web.Middleware {
	initPrometheusMetrics()

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Call the next handler.
			err := handler(ctx, w, r)

			// Increment the request and errors counters.
			prometheusRequests.WithLabelValues(r.Method).Inc()
			if err != nil {
				prometheusErrors.Inc()
			}

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return m
}
