package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Messages handled, by direction and provider
	MessageCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_messages_total",
			Help: "Total number of messages handled by direction and provider",
		},
		[]string{"direction", "provider"},
	)

	// Webhook calls by provider and outcome
	WebhookCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_webhook_requests_total",
			Help: "Total number of webhook requests by provider and outcome",
		},
		[]string{"provider", "outcome"}, // outcome: handled, rejected, no_bot, error
	)

	// Signature verification failures
	SignatureFailureCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_signature_failures_total",
			Help: "Total number of webhook signature verification failures",
		},
		[]string{"provider"},
	)

	// Outbound send failures
	SendErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_send_errors_total",
			Help: "Total number of outbound send failures by provider",
		},
		[]string{"provider"},
	)

	// Auth errors
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Outbound provider call duration
	SendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_send_duration_seconds",
			Help:    "Duration of outbound provider calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
)

// Gauge metrics
var (
	// Active bots across all tenants
	ActiveBotsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_active_bots",
			Help: "Number of currently active bots",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bot_info",
			Help: "Information about the chatbot service",
		},
		[]string{"version"},
	)
)

func init() {
	prometheus.MustRegister(MessageCounter)
	prometheus.MustRegister(WebhookCounter)
	prometheus.MustRegister(SignatureFailureCounter)
	prometheus.MustRegister(SendErrorCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(HTTPRequestCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)
	prometheus.MustRegister(SendDuration)

	prometheus.MustRegister(ActiveBotsGauge)
	prometheus.MustRegister(InfoGauge)

	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(time.Since(startTime).Seconds())
	}
}

// TrackSend measures outbound provider call durations
func TrackSend(provider string) func() {
	startTime := time.Now()
	return func() {
		SendDuration.With(prometheus.Labels{
			"provider": provider,
		}).Observe(time.Since(startTime).Seconds())
	}
}

// RecordMessage records a handled message
func RecordMessage(direction, provider string) {
	MessageCounter.With(prometheus.Labels{"direction": direction, "provider": provider}).Inc()
}

// RecordWebhook records a webhook request outcome
func RecordWebhook(provider, outcome string) {
	WebhookCounter.With(prometheus.Labels{"provider": provider, "outcome": outcome}).Inc()
}

// RecordSignatureFailure records a rejected webhook signature
func RecordSignatureFailure(provider string) {
	SignatureFailureCounter.With(prometheus.Labels{"provider": provider}).Inc()
}

// RecordSendError records an outbound send failure
func RecordSendError(provider string) {
	SendErrorCounter.With(prometheus.Labels{"provider": provider}).Inc()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// MetricsMiddleware captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(time.Since(start).Seconds())

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}
