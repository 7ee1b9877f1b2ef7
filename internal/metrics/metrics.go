// Package metrics exposes Prometheus collectors for the meal store and its HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	mealsAppended = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mealbuddy",
			Subsystem: "store",
			Name:      "meals_appended_total",
			Help:      "Total number of meals appended to the store.",
		},
	)

	storeWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mealbuddy",
			Subsystem: "store",
			Name:      "writes_total",
			Help:      "Durable snapshot writes by outcome.",
		},
		[]string{"result"},
	)

	storeWriteDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mealbuddy",
			Subsystem: "store",
			Name:      "write_duration_seconds",
			Help:      "Duration of durable snapshot writes including retries.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mealbuddy",
			Subsystem: "form",
			Name:      "submissions_total",
			Help:      "Meal submissions by outcome.",
		},
		[]string{"result"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mealbuddy",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "status"},
	)
)

func init() {
	Registry.MustRegister(
		mealsAppended,
		storeWrites,
		storeWriteDuration,
		submissions,
		httpRequests,
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordAppend counts one appended meal.
func RecordAppend() {
	mealsAppended.Inc()
}

// RecordWrite records the outcome of a durable write.
func RecordWrite(ok bool, d time.Duration) {
	result := "success"
	if !ok {
		result = "failure"
	}
	storeWrites.WithLabelValues(result).Inc()
	storeWriteDuration.Observe(d.Seconds())
}

// RecordSubmission records whether a form submission was accepted.
func RecordSubmission(accepted bool) {
	result := "accepted"
	if !accepted {
		result = "rejected"
	}
	submissions.WithLabelValues(result).Inc()
}

// InstrumentHandler counts requests by method and status code.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpRequests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
