package httpserver

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/ledger/internal/core/domain/asset"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "The total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "The HTTP request latencies in seconds",
		},
		[]string{"method", "endpoint"},
	)

	tempAssets = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ledger_temp_assets",
			Help: "Live entries in the in-memory temporary asset store",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration, tempAssets)
}

// GetRequestsTotal returns the requests total metric for middleware use
func GetRequestsTotal() *prometheus.CounterVec {
	return requestsTotal
}

// GetRequestDuration returns the request duration metric for middleware use
func GetRequestDuration() *prometheus.HistogramVec {
	return requestDuration
}

func (s *Server) LogMetricsInitialization() {
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"http_requests_total":   "Counter for HTTP requests by method, endpoint, status",
			"http_request_duration": "Histogram for HTTP request duration by method, endpoint",
			"ledger_temp_assets":    "Gauge of live temporary assets by kind",
			"metrics_endpoint":      "/metrics",
		}).Debug("Prometheus metrics registered")
	}
}

func (s *Server) refreshTempAssetGauge() {
	if s.tempAssets == nil {
		return
	}
	for _, k := range []asset.Kind{asset.KindAudio, asset.KindImage} {
		tempAssets.WithLabelValues(k.String()).Set(float64(s.tempAssets.Len(k)))
	}
}

func (s *Server) metricsEndpoint(c echo.Context) error {
	s.refreshTempAssetGauge()
	promhttp.Handler().ServeHTTP(c.Response(), c.Request())
	return nil
}
