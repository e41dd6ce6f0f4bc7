package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the service
type Metrics struct {
	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight *prometheus.GaugeVec
	DBConnPoolStats  *prometheus.GaugeVec

	VerificationVerdicts *prometheus.CounterVec
	Settlements          *prometheus.CounterVec
	NotificationSends    *prometheus.CounterVec
}

// NewMetrics creates a new metrics instance on the default registry
func NewMetrics(serviceName string) *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, serviceName)
}

// NewMetricsWith creates a metrics instance on the given registerer.
// Tests pass a fresh registry so parallel constructions never collide.
func NewMetricsWith(reg prometheus.Registerer, serviceName string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "zapmygoal",
				Subsystem: serviceName,
				Name:      "requests_total",
				Help:      "Total number of requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "zapmygoal",
				Subsystem: serviceName,
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		RequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "zapmygoal",
				Subsystem: serviceName,
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
			[]string{"path"},
		),
		DBConnPoolStats: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "zapmygoal",
				Subsystem: serviceName,
				Name:      "db_connection_pool",
				Help:      "Database connection pool statistics",
			},
			[]string{"stat"}, // stat can be: open, in_use, idle
		),
		VerificationVerdicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "zapmygoal",
				Subsystem: serviceName,
				Name:      "verification_verdicts_total",
				Help:      "Verification verdicts by result and failure reason",
			},
			[]string{"result", "reason"},
		),
		Settlements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "zapmygoal",
				Subsystem: serviceName,
				Name:      "settlements_total",
				Help:      "Settlements by type and outcome",
			},
			[]string{"type", "outcome"},
		),
		NotificationSends: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "zapmygoal",
				Subsystem: serviceName,
				Name:      "notification_sends_total",
				Help:      "Outbound notification attempts by channel and status",
			},
			[]string{"channel", "status"},
		),
	}
}

// Middleware returns a gin middleware that records request metrics
func Middleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		m.RequestsInFlight.WithLabelValues(path).Inc()
		defer m.RequestsInFlight.WithLabelValues(path).Dec()

		start := time.Now()
		c.Next()

		m.RequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
		m.RequestCounter.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// CollectDBStats updates connection pool gauges from sql.DB stats
func (m *Metrics) CollectDBStats(db *sql.DB) {
	stats := db.Stats()
	m.DBConnPoolStats.WithLabelValues("open").Set(float64(stats.OpenConnections))
	m.DBConnPoolStats.WithLabelValues("in_use").Set(float64(stats.InUse))
	m.DBConnPoolStats.WithLabelValues("idle").Set(float64(stats.Idle))
}
