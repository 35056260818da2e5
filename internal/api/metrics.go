package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	archiveAPIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "archive",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total number of archive API requests broken down by route and status.",
	}, []string{"route", "status"})

	archiveAPILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "archive",
		Subsystem: "api",
		Name:      "latency_seconds",
		Help:      "Latency distribution for archive API requests.",
		Buckets: []float64{
			0.001, 0.002, 0.005,
			0.01, 0.02, 0.05,
			0.1, 0.2, 0.5,
			1, 2, 5,
		},
	}, []string{"route"})
)

// Metrics 按路由模板统计请求数与耗时；未匹配的路由记为 "unmatched"
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		archiveAPIRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		archiveAPILatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
