package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	gateDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starter_route_gate_decisions_total",
			Help: "Total number of route gate decisions",
		},
		[]string{"decision"},
	)

	gateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "starter_route_gate_duration_seconds",
			Help:    "Route gate evaluation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// MetricsHandler віддає метрики у форматі Prometheus
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
