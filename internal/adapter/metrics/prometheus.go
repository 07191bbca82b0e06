package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ragchat"

// Recorder collects HTTP and chat flow metrics on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	retrievals    prometheus.Counter
	retrievalTime prometheus.Histogram
	chunks        prometheus.Histogram
	documents     prometheus.Histogram
	generations   *prometheus.CounterVec
	generateTime  *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	durationBuckets := []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

	r := &Recorder{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   durationBuckets,
		}, []string{"route"}),
		retrievals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrievals_total",
			Help:      "Keyword retrievals performed.",
		}),
		retrievalTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Time spent chunking and scoring documents.",
			Buckets:   durationBuckets,
		}),
		chunks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieved_chunks",
			Help:      "Chunks returned per retrieval.",
			Buckets:   prometheus.LinearBuckets(0, 1, 11),
		}),
		documents: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_documents",
			Help:      "Documents sent per retrieval.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Generator calls by model and outcome.",
		}, []string{"model", "outcome"}),
		generateTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Generator call latency by model.",
			Buckets:   durationBuckets,
		}, []string{"model"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.httpRequests,
		r.httpDuration,
		r.retrievals,
		r.retrievalTime,
		r.chunks,
		r.documents,
		r.generations,
		r.generateTime,
	)

	return r
}

func (r *Recorder) ObserveRetrieval(d time.Duration, documents, chunks int) {
	r.retrievals.Inc()
	r.retrievalTime.Observe(d.Seconds())
	r.documents.Observe(float64(documents))
	r.chunks.Observe(float64(chunks))
}

func (r *Recorder) ObserveGeneration(model, outcome string, d time.Duration) {
	r.generations.WithLabelValues(model, outcome).Inc()
	r.generateTime.WithLabelValues(model).Observe(d.Seconds())
}

func (r *Recorder) ObserveRequest(route, method string, status int, d time.Duration) {
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
