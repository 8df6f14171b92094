package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	RefreshEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ludilearn_refresh_events_total",
			Help: "LMS events dispatched to the refresh driver",
		},
		[]string{"event"},
	)

	SkippedWrites = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ludilearn_skipped_writes_total",
			Help: "Derived value writes skipped because the stored value was unchanged",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(RefreshEvents)
	prometheus.MustRegister(SkippedWrites)
}

func RecordRefreshEvent(event string) {
	RefreshEvents.WithLabelValues(event).Inc()
}

func RecordSkippedWrites(n int) {
	if n > 0 {
		SkippedWrites.Add(float64(n))
	}
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
