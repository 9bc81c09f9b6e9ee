package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	aggregationsTotal     *prometheus.CounterVec
	completionsTotal      prometheus.Counter
	uploadRequestsTotal   *prometheus.CounterVec
	uploadRejectedTotal   *prometheus.CounterVec
	uploadLatencySeconds  prometheus.Histogram
	reportGenerationTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		aggregationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "progress_aggregations_total",
			Help: "Progress lookups by source (cache or computed).",
		}, []string{"source"})

		completionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "student_completions_total",
			Help: "Students that moved from in progress to complete.",
		})

		uploadRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "document_uploads_total",
			Help: "Stored supporting documents by MIME type.",
		}, []string{"mime"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "document_uploads_rejected_total",
			Help: "Rejected document uploads by reason.",
		}, []string{"reason"})

		uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "document_upload_latency_seconds",
			Help:    "Latency distribution for document uploads.",
			Buckets: prometheus.DefBuckets,
		})

		reportGenerationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "report_generations_total",
			Help: "Generated list reports by format.",
		}, []string{"format"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			aggregationsTotal,
			completionsTotal,
			uploadRequestsTotal,
			uploadRejectedTotal,
			uploadLatencySeconds,
			reportGenerationTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ProgressAggregations counts progress lookups labelled by source.
func ProgressAggregations() *prometheus.CounterVec {
	RegisterMetrics()
	return aggregationsTotal
}

// StudentCompletions counts in progress to complete transitions.
func StudentCompletions() prometheus.Counter {
	RegisterMetrics()
	return completionsTotal
}

// UploadRequests counts stored documents.
func UploadRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRequestsTotal
}

// UploadRejected counts rejected documents.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// UploadLatency exposes the upload latency histogram.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatencySeconds
}

// ReportGenerations counts generated reports.
func ReportGenerations() *prometheus.CounterVec {
	RegisterMetrics()
	return reportGenerationTotal
}

// MetricsHandler serves the default registry, including Go runtime collectors, in the
// Prometheus text or OpenMetrics format depending on the scraper's Accept header.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	handler := promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
	return adaptor.HTTPHandler(handler)
}
