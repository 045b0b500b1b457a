package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "requests_total", Help: "API requests served, by endpoint and status"},
		[]string{"endpoint", "status"},
	)
	ForecastFitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forecast_fit_seconds",
			Help:    "Wall time spent fitting one forecast model",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)
	IngestRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ingest_rows_total", Help: "Price rows merged into the CSV store"},
		[]string{"ticker"},
	)
)

func init() {
	prometheus.MustRegister(RequestsTotal, ForecastFitSeconds, IngestRowsTotal)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
