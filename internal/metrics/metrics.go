// Package metrics exports history engine activity to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dshills/rewind/internal/engine"
	"github.com/dshills/rewind/internal/engine/history"
)

// DefaultNamespace prefixes metric names when none is given.
const DefaultNamespace = "rewind"

// Collector implements engine.Observer by updating Prometheus metrics.
type Collector struct {
	captures     *prometheus.CounterVec
	skips        *prometheus.CounterVec
	navigations  *prometheus.CounterVec
	errors       *prometheus.CounterVec
	evictions    prometheus.Counter
	snapshotSize prometheus.Histogram
	ratio        prometheus.Histogram

	size       prometheus.Gauge
	cursor     prometheus.Gauge
	memory     prometheus.Gauge
	stored     prometheus.Gauge
	compressed prometheus.Gauge
	replaying  prometheus.Gauge
}

var _ engine.Observer = (*Collector)(nil)

// New registers the history metrics on reg under namespace.
// It panics if a metric with the same name is already registered.
func New(reg prometheus.Registerer, namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	f := promauto.With(reg)

	return &Collector{
		captures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "captures_total",
			Help:      "Total number of snapshots recorded, by action type",
		}, []string{"action"}),
		skips: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_skips_total",
			Help:      "Captures that did not produce an entry, by reason",
		}, []string{"reason"}),
		navigations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "navigations_total",
			Help:      "Completed undo, redo and seek operations",
		}, []string{"op"}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Failed operations, by operation",
		}, []string{"op"}),
		evictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Entries evicted from the head of the timeline",
		}),
		snapshotSize: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_size_bytes",
			Help:      "Uncompressed size of recorded snapshots",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}),
		ratio: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compression_ratio",
			Help:      "Compressed size divided by original size",
			Buckets:   []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.75, 1},
		}),
		size: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_size",
			Help:      "Current number of entries in the timeline",
		}),
		cursor: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_cursor",
			Help:      "Current cursor index, -1 when empty",
		}),
		memory: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_usage_bytes",
			Help:      "Sum of uncompressed snapshot sizes",
		}),
		stored: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stored_bytes",
			Help:      "Payload bytes actually held after compression",
		}),
		compressed: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "compressed_entries",
			Help:      "Number of entries stored compressed",
		}),
		replaying: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "replaying",
			Help:      "1 while a restore is in flight",
		}),
	}
}

// OnCapture implements engine.Observer.
func (c *Collector) OnCapture(meta history.Metadata) {
	c.captures.WithLabelValues(meta.ActionType.String()).Inc()
	c.snapshotSize.Observe(float64(meta.SizeBytes))
}

// OnSkip implements engine.Observer.
func (c *Collector) OnSkip(reason engine.SkipReason) {
	c.skips.WithLabelValues(string(reason)).Inc()
}

// OnNavigate implements engine.Observer.
func (c *Collector) OnNavigate(op engine.Op, _ int) {
	c.navigations.WithLabelValues(string(op)).Inc()
}

// OnEvict implements engine.Observer.
func (c *Collector) OnEvict(count int) {
	c.evictions.Add(float64(count))
}

// OnCompress implements engine.Observer.
func (c *Collector) OnCompress(ratio float64) {
	c.ratio.Observe(ratio)
}

// OnError implements engine.Observer.
func (c *Collector) OnError(op engine.Op, _ error) {
	c.errors.WithLabelValues(string(op)).Inc()
}

// OnStats implements engine.Observer.
func (c *Collector) OnStats(s engine.Stats) {
	c.size.Set(float64(s.Size))
	c.cursor.Set(float64(s.CurrentIndex))
	c.memory.Set(float64(s.MemoryUsage))
	c.stored.Set(float64(s.StoredBytes))
	c.compressed.Set(float64(s.CompressedEntries))
	if s.State == engine.StateReplaying.String() {
		c.replaying.Set(1)
	} else {
		c.replaying.Set(0)
	}
}
