package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nftview",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	compositions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nftview",
			Name:      "compositions_total",
			Help:      "Compositions attempted, by kind and outcome.",
		},
		[]string{"kind", "status"},
	)

	compositionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nftview",
			Name:      "composition_duration_seconds",
			Help:      "Wall time spent producing an artifact.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"kind"},
	)

	imageLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nftview",
			Name:      "image_loads_total",
			Help:      "Image loads, by outcome.",
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(httpRequests, compositions, compositionDuration, imageLoads)
}

// Handler serves the application registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest counts one handled request.
func RecordHTTPRequest(method, path, status string) {
	httpRequests.WithLabelValues(method, path, status).Inc()
}

// RecordComposition records the outcome of one composition call.
func RecordComposition(kind string, err error, d time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	compositions.WithLabelValues(kind, status).Inc()
	compositionDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordImageLoad counts one image load.
func RecordImageLoad(ok bool) {
	if ok {
		imageLoads.WithLabelValues("ok").Inc()
		return
	}
	imageLoads.WithLabelValues("error").Inc()
}
