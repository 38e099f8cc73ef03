package server

import (
	"net/http"
	"strconv"
	"time"

	"supersonic/cache"
	"supersonic/core/queue"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 服务端 Prometheus 指标，每个实例自带 registry
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	streamed     prometheus.Counter
	authFailures prometheus.Counter
	panics       prometheus.Counter
	rejected     prometheus.Counter
	waits        prometheus.Counter
}

func NewMetrics(q *queue.Queue[*Request], covers *cache.CoverCache) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supersonic",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests handled by the worker pool",
		}, []string{"op", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "supersonic",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time from acceptance to the last body byte",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 9),
		}, []string{"op"}),
		streamed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "supersonic",
			Subsystem: "stream",
			Name:      "bytes_total",
			Help:      "Body bytes written to clients",
		}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "supersonic",
			Subsystem: "auth",
			Name:      "failures_total",
			Help:      "Requests rejected with the wrong credentials error",
		}),
		panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "supersonic",
			Subsystem: "worker",
			Name:      "panics_total",
			Help:      "Handler panics recovered by workers",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "supersonic",
			Subsystem: "acceptor",
			Name:      "rejected_total",
			Help:      "Requests refused because the server is shutting down",
		}),
		waits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "supersonic",
			Subsystem: "acceptor",
			Name:      "queue_waits_total",
			Help:      "Requests that found the queue full and blocked for a slot",
		}),
	}
	m.registry.MustRegister(
		m.requests, m.duration, m.streamed, m.authFailures, m.panics, m.rejected, m.waits,
		newQueueCollector(q, covers),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) observe(op string, status int, elapsed time.Duration, written int64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	m.streamed.Add(float64(written))
}

func (m *Metrics) authFailed() {
	if m != nil {
		m.authFailures.Inc()
	}
}

func (m *Metrics) panicked() {
	if m != nil {
		m.panics.Inc()
	}
}

func (m *Metrics) queueWaited() {
	if m != nil {
		m.waits.Inc()
	}
}

func (m *Metrics) refused() {
	if m != nil {
		m.rejected.Inc()
	}
}

// queueCollector reads queue and cover cache counters at scrape time.
type queueCollector struct {
	queue  *queue.Queue[*Request]
	covers *cache.CoverCache

	depth     *prometheus.Desc
	capacity  *prometheus.Desc
	pushed    *prometheus.Desc
	coverHits *prometheus.Desc
	coverMiss *prometheus.Desc
	coverLen  *prometheus.Desc
}

func newQueueCollector(q *queue.Queue[*Request], covers *cache.CoverCache) *queueCollector {
	return &queueCollector{
		queue:  q,
		covers: covers,

		depth: prometheus.NewDesc(
			"supersonic_queue_depth",
			"Requests waiting for a worker",
			nil, nil,
		),
		capacity: prometheus.NewDesc(
			"supersonic_queue_capacity",
			"Maximum number of waiting requests",
			nil, nil,
		),
		pushed: prometheus.NewDesc(
			"supersonic_queue_pushed_total",
			"Requests ever admitted to the queue",
			nil, nil,
		),
		coverHits: prometheus.NewDesc(
			"supersonic_cover_cache_hits_total",
			"Cover art served from cache",
			[]string{"layer"}, nil,
		),
		coverMiss: prometheus.NewDesc(
			"supersonic_cover_cache_misses_total",
			"Cover art loaded from the catalog",
			nil, nil,
		),
		coverLen: prometheus.NewDesc(
			"supersonic_cover_cache_entries",
			"Covers held in the in-process LRU",
			nil, nil,
		),
	}
}

func (c *queueCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.depth
	ch <- c.capacity
	ch <- c.pushed
	ch <- c.coverHits
	ch <- c.coverMiss
	ch <- c.coverLen
}

func (c *queueCollector) Collect(ch chan<- prometheus.Metric) {
	if c.queue != nil {
		st := c.queue.Stats()
		ch <- prometheus.MustNewConstMetric(c.depth, prometheus.GaugeValue, float64(st.Depth))
		ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(st.Capacity))
		ch <- prometheus.MustNewConstMetric(c.pushed, prometheus.CounterValue, float64(st.Pushed))
	}
	if c.covers != nil {
		st := c.covers.Stats()
		ch <- prometheus.MustNewConstMetric(c.coverHits, prometheus.CounterValue, float64(st.LocalHits), "local")
		ch <- prometheus.MustNewConstMetric(c.coverHits, prometheus.CounterValue, float64(st.RedisHits), "redis")
		ch <- prometheus.MustNewConstMetric(c.coverMiss, prometheus.CounterValue, float64(st.Misses))
		ch <- prometheus.MustNewConstMetric(c.coverLen, prometheus.GaugeValue, float64(c.covers.Len()))
	}
}
