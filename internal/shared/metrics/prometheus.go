package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Business metrics
	casesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cases_created_total",
			Help: "Total number of cases created",
		},
		[]string{"incident_type", "station"},
	)

	casesStatusChanged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cases_status_changed_total",
			Help: "Total number of case status changes",
		},
		[]string{"from_status", "to_status"},
	)

	casesAssigned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cases_assigned_total",
			Help: "Total number of case assignments",
		},
		[]string{"assignee_kind"},
	)

	notificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total number of notifications created",
		},
		[]string{"type"},
	)

	legacyImports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legacy_ob_imports_total",
			Help: "Total number of legacy occurrence-book records imported",
		},
		[]string{"station", "result"},
	)

	webhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_webhook_events_total",
			Help: "Total number of identity webhook events processed",
		},
		[]string{"event_type", "result"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath keeps metric label cardinality bounded
func normalizePath(path string) string {
	if len(path) > 100 {
		return "/api/..."
	}
	return path
}

// --- Business metric helpers ---

// RecordCaseCreated records a case creation
func RecordCaseCreated(incidentType, stationCode string) {
	casesCreated.WithLabelValues(incidentType, stationCode).Inc()
}

// RecordCaseStatusChange records a case status change
func RecordCaseStatusChange(fromStatus, toStatus string) {
	casesStatusChanged.WithLabelValues(fromStatus, toStatus).Inc()
}

// RecordCaseAssigned records a case assignment
func RecordCaseAssigned(assigneeKind string) {
	casesAssigned.WithLabelValues(assigneeKind).Inc()
}

// RecordNotificationCreated records a notification creation
func RecordNotificationCreated(notificationType string) {
	notificationsCreated.WithLabelValues(notificationType).Inc()
}

// RecordLegacyImport records a legacy occurrence-book import attempt
func RecordLegacyImport(stationCode string, ok bool) {
	result := "error"
	if ok {
		result = "ok"
	}
	legacyImports.WithLabelValues(stationCode, result).Inc()
}

// RecordWebhookEvent records an identity webhook event
func RecordWebhookEvent(eventType string, ok bool) {
	result := "error"
	if ok {
		result = "ok"
	}
	webhookEvents.WithLabelValues(eventType, result).Inc()
}
