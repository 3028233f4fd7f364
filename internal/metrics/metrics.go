// Package metrics exposes Prometheus metrics for the HTTP API and the story pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "photostory"

// Collector holds every metric. Each collector owns its registry, so tests can build many.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	ChaptersCreated  prometheus.Counter
	Chapters         prometheus.Gauge
	StoryResets      prometheus.Counter
	AnalysisFailures prometheus.Counter
	AnalysisDuration prometheus.Histogram
	FilesIngested    *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ChaptersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chapters_created_total",
			Help:      "Total number of chapters created",
		}),
		Chapters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chapters",
			Help:      "Number of chapters in the current story",
		}),
		StoryResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "story_resets_total",
			Help:      "Total number of story resets",
		}),
		AnalysisFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_failures_total",
			Help:      "Total number of failed image analyses",
		}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Image analysis duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
		FilesIngested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_ingested_total",
				Help:      "Drop-folder files processed, by outcome",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.ChaptersCreated,
		c.Chapters,
		c.StoryResets,
		c.AnalysisFailures,
		c.AnalysisDuration,
		c.FilesIngested,
	)
	return c
}

// Handler serves the collector's registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveHTTP records one finished request. route is the chi route pattern, not the raw path.
func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ChapterCreated counts a new chapter; total is the story length after the insert.
func (c *Collector) ChapterCreated(total int) {
	c.ChaptersCreated.Inc()
	c.Chapters.Set(float64(total))
}

// AnalysisObserved records one analyzer call.
func (c *Collector) AnalysisObserved(d time.Duration, err error) {
	c.AnalysisDuration.Observe(d.Seconds())
	if err != nil {
		c.AnalysisFailures.Inc()
	}
}

// StoryReset counts a reset and zeroes the chapter gauge.
func (c *Collector) StoryReset() {
	c.StoryResets.Inc()
	c.Chapters.Set(0)
}

// FileIngested counts a drop-folder file by outcome ("created", "duplicate", "failed").
func (c *Collector) FileIngested(outcome string) {
	c.FilesIngested.WithLabelValues(outcome).Inc()
}
