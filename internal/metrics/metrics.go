package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reviewlens"

// Collector owns a private registry so several instances can coexist in tests.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
	ReviewsIngested     prometheus.Counter
	ClassifierFallbacks prometheus.Counter
	ReplyFallbacks      prometheus.Counter
	ArchiveFailures     prometheus.Counter
	IndexRebuilds       *prometheus.CounterVec
	IndexRebuildSeconds prometheus.Histogram
	IndexDocuments      prometheus.Gauge
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ReviewsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_ingested_total",
			Help:      "Reviews stored through ingestion",
		}),
		ClassifierFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_fallbacks_total",
			Help:      "Reviews annotated as neutral because the classifier failed",
		}),
		ReplyFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reply_template_fallbacks_total",
			Help:      "Reply suggestions answered from templates",
		}),
		ArchiveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_failures_total",
			Help:      "Ingestion payloads that could not be archived",
		}),
		IndexRebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_rebuilds_total",
			Help:      "Similarity index rebuild attempts",
		}, []string{"result"}),
		IndexRebuildSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_rebuild_duration_seconds",
			Help:      "Similarity index rebuild latency",
			Buckets:   prometheus.DefBuckets,
		}),
		IndexDocuments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_documents",
			Help:      "Documents in the current similarity index",
		}),
	}
	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.ReviewsIngested,
		c.ClassifierFallbacks,
		c.ReplyFallbacks,
		c.ArchiveFailures,
		c.IndexRebuilds,
		c.IndexRebuildSeconds,
		c.IndexDocuments,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) ObserveRebuild(docs int, elapsed time.Duration) {
	c.IndexRebuilds.WithLabelValues("ok").Inc()
	c.IndexRebuildSeconds.Observe(elapsed.Seconds())
	c.IndexDocuments.Set(float64(docs))
}

func (c *Collector) RebuildFailed() {
	c.IndexRebuilds.WithLabelValues("error").Inc()
}

// Middleware records request count and latency keyed by the matched route.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := ctx.Request.Method
		c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
