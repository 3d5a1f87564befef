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
	// OAuth login initiations
	OAuthLoginCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_oauth_login_total",
			Help: "Total number of OAuth login initiations by provider",
		},
		[]string{"provider"},
	)

	// OAuth callback attempts
	OAuthCallbackCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_oauth_callback_total",
			Help: "Total number of OAuth callback attempts by provider",
		},
		[]string{"provider"},
	)

	// Account provisioning counter
	ProvisionCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "console_account_provision_total",
			Help: "Total number of accounts provisioned from OAuth identities",
		},
	)

	// Organization hierarchy sync counter
	OrgSyncCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_org_sync_total",
			Help: "Total number of organization hierarchy sync runs by result",
		},
		[]string{"result"}, // result is "ok" or "error"
	)

	// Tenant operation counter
	TenantOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_tenant_operations_total",
			Help: "Total number of tenant operations",
		},
		[]string{"operation"}, // operation can be "create", "access", "attach_member", etc.
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // type can be "provider_exchange_failed", "account_banned", "db_error" etc.
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "console_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "console_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // operation can be "query", "insert", "update", "delete"
	)

	// Provider exchange duration
	ProviderExchangeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "console_provider_exchange_duration_seconds",
			Help:    "Duration of OAuth provider token/userinfo exchanges in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
)

// Gauge metrics
var (
	// Active sessions
	ActiveSessionsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "console_active_sessions",
			Help: "Number of currently active console sessions",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "console_info",
			Help: "Information about the console service",
		},
		[]string{"version"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(OAuthLoginCounter)
	prometheus.MustRegister(OAuthCallbackCounter)
	prometheus.MustRegister(ProvisionCounter)
	prometheus.MustRegister(OrgSyncCounter)
	prometheus.MustRegister(TenantOperationCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)
	prometheus.MustRegister(ProviderExchangeDuration)

	// Register gauges
	prometheus.MustRegister(ActiveSessionsGauge)
	prometheus.MustRegister(InfoGauge)

	// Set initial service info
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
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// TrackProviderExchange measures OAuth provider exchange durations
func TrackProviderExchange(provider string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		ProviderExchangeDuration.With(prometheus.Labels{
			"provider": provider,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			// Record metrics
			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// IncreaseActiveSessions increments the active sessions gauge
func IncreaseActiveSessions() {
	ActiveSessionsGauge.Inc()
}

// DecreaseActiveSessions decrements the active sessions gauge
func DecreaseActiveSessions() {
	ActiveSessionsGauge.Dec()
}

// RecordOAuthLogin records an OAuth login initiation by provider
func RecordOAuthLogin(provider string) {
	OAuthLoginCounter.With(prometheus.Labels{"provider": provider}).Inc()
}

// RecordOAuthCallback records an OAuth callback attempt by provider
func RecordOAuthCallback(provider string) {
	OAuthCallbackCounter.With(prometheus.Labels{"provider": provider}).Inc()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordTenantOperation records a tenant operation
func RecordTenantOperation(operation string) {
	TenantOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordOrgSync records the result of an organization hierarchy sync run
func RecordOrgSync(result string) {
	OrgSyncCounter.With(prometheus.Labels{"result": result}).Inc()
}
