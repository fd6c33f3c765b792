package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCounter counts HTTP requests by route and status.
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration records request latency in seconds.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// RealtimeClients is the number of connected websocket clients.
	RealtimeClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_clients",
		Help: "Number of connected realtime clients",
	})

	// RealtimeBroadcasts counts realtime messages by event name and outcome.
	RealtimeBroadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_broadcasts_total",
			Help: "Realtime messages queued for broadcast",
		},
		[]string{"event", "outcome"},
	)

	// PurchaseTransitions counts purchase status changes.
	PurchaseTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchase_transitions_total",
			Help: "Purchase status transitions by payment method",
		},
		[]string{"method", "from", "to"},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// CircuitBreakerRequests counts calls through a breaker by outcome.
	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker by result",
		},
		[]string{"name", "result"},
	)
)

// Middleware records request count and latency for every Fiber route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		path := c.Route().Path
		method := c.Method()

		RequestCounter.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		RequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
