package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/vdom"
)

// Config configures a Collector.
type Config struct {
	// Namespace is the metrics namespace (default: "reactor").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures a Collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "reactor",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector records reactive runtime activity. It is safe for concurrent use.
type Collector struct {
	flushes         *prometheus.CounterVec
	flushDuration   prometheus.Histogram
	flushQueue      prometheus.Histogram
	cycles          prometheus.Counter
	watcherRuns     *prometheus.CounterVec
	watcherDuration *prometheus.HistogramVec
	ops             *prometheus.CounterVec
	frames          prometheus.Counter
	frameBytes      prometheus.Counter
	clients         prometheus.Gauge
	treeBytes       prometheus.Gauge
}

var (
	_ reactive.Instrumentation = (*Collector)(nil)
	_ vdom.OpObserver          = (*Collector)(nil)
)

// New creates a Collector and registers its metrics. Registering twice on
// the same registry panics, as promauto does.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Collector{
		flushes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of scheduler flushes",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Scheduler flush duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		flushQueue: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_queue_size",
			Help:        "Number of watchers queued when a flush starts",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}),

		cycles: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "update_cycles_total",
			Help:        "Total number of watchers dropped for re-queueing too often",
			ConstLabels: config.ConstLabels,
		}),

		watcherRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "watcher_runs_total",
			Help:        "Total number of watcher evaluations",
			ConstLabels: config.ConstLabels,
		}, []string{"watcher", "result"}),

		watcherDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "watcher_duration_seconds",
			Help:        "Watcher evaluation duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"watcher"}),

		ops: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patch_ops_total",
			Help:        "Total number of backend mutations performed by patches",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		frames: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_sent_total",
			Help:        "Total number of op frames sent to the stream",
			ConstLabels: config.ConstLabels,
		}),

		frameBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frame_bytes_total",
			Help:        "Total number of encoded frame bytes sent to the stream",
			ConstLabels: config.ConstLabels,
		}),

		clients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stream_clients",
			Help:        "Number of connected stream clients",
			ConstLabels: config.ConstLabels,
		}),

		treeBytes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "view_tree_bytes",
			Help:        "Estimated bytes held by the mounted view trees",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// FlushStarted implements reactive.Instrumentation.
func (c *Collector) FlushStarted(queued int) {
	c.flushQueue.Observe(float64(queued))
}

// FlushFinished implements reactive.Instrumentation.
func (c *Collector) FlushFinished(stats reactive.FlushStats) {
	c.flushes.WithLabelValues(result(stats.Err)).Inc()
	c.flushDuration.Observe(stats.Duration.Seconds())
	if stats.Cycles > 0 {
		c.cycles.Add(float64(stats.Cycles))
	}
}

// WatcherRan implements reactive.Instrumentation.
func (c *Collector) WatcherRan(label string, d time.Duration, err error) {
	if label == "" {
		label = "anonymous"
	}
	c.watcherRuns.WithLabelValues(label, result(err)).Inc()
	c.watcherDuration.WithLabelValues(label).Observe(d.Seconds())
}

// Op implements vdom.OpObserver.
func (c *Collector) Op(kind vdom.OpKind) {
	c.ops.WithLabelValues(kind.String()).Inc()
}

// FrameSent records one stream frame. Its signature matches
// stream.WithFrameObserver.
func (c *Collector) FrameSent(seq uint64, ops, bytes int) {
	c.frames.Inc()
	c.frameBytes.Add(float64(bytes))
}

// SetClients records the number of connected stream clients.
func (c *Collector) SetClients(n int) {
	c.clients.Set(float64(n))
}

// SetTreeSize records the estimated size of the mounted view trees, as
// reported by reactor.App.MemoryUsage.
func (c *Collector) SetTreeSize(bytes int64) {
	c.treeBytes.Set(float64(bytes))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
