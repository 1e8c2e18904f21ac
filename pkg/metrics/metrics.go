package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request latency by route and status.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "priceloka_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	// OCRPassDuration tracks how long each OCR pass takes per restriction.
	OCRPassDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "priceloka_ocr_pass_duration_seconds",
		Help:    "OCR pass latency by character-class restriction",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
	}, []string{"restriction"})

	// OCRPassFailures counts failed OCR passes per restriction.
	OCRPassFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "priceloka_ocr_pass_failures_total",
		Help: "The total number of failed OCR passes",
	}, []string{"restriction"})

	// SubmissionsAccepted counts accepted price observations.
	SubmissionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "priceloka_submissions_accepted_total",
		Help: "The total number of accepted price observations",
	})

	// SubmissionsRejected counts items dropped by per-item validation.
	SubmissionsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "priceloka_submissions_rejected_total",
		Help: "The total number of rejected submission items",
	})
)

// ObserveOCRPass records one completed OCR pass.
func ObserveOCRPass(restriction string, start time.Time, err error) {
	OCRPassDuration.WithLabelValues(restriction).Observe(time.Since(start).Seconds())
	if err != nil {
		OCRPassFailures.WithLabelValues(restriction).Inc()
	}
}
