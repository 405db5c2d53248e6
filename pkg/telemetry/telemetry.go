// Package telemetry traces scheduler flushes and watcher runs with
// OpenTelemetry.
//
// Each flush becomes a span named "reactor.flush". Watcher evaluations
// become "reactor.watcher <label>" spans, children of the flush span when
// they ran inside one. The tracer uses the global provider unless
// [WithTracerProvider] is given. Configure it in main:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//	rt := reactive.NewRuntime(reactive.WithInstrumentation(telemetry.New()))
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/vdom"
)

// Default tracer name.
const defaultTracerName = "reactor"

// Config configures a Tracer.
type Config struct {
	// TracerName is the name of the tracer (default: "reactor").
	TracerName string

	// Provider supplies the tracer. Default: otel.GetTracerProvider().
	Provider trace.TracerProvider

	// Context is the parent of every flush span. Default: context.Background().
	Context context.Context

	// Attributes are added to every span.
	Attributes []attribute.KeyValue
}

// Option configures a Tracer.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the provider the tracer comes from.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.Provider = tp
	}
}

// WithContext sets the parent context of flush spans.
func WithContext(ctx context.Context) Option {
	return func(c *Config) {
		c.Context = ctx
	}
}

// WithAttributes adds attributes to every span.
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return func(c *Config) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// Tracer records spans for one runtime. It is safe for concurrent use, but a
// runtime flushes one queue at a time, so only one flush span is open.
type Tracer struct {
	tracer trace.Tracer
	parent context.Context
	attrs  []attribute.KeyValue

	mu    sync.Mutex
	flush context.Context
	span  trace.Span
	ops   int
}

var (
	_ reactive.Instrumentation = (*Tracer)(nil)
	_ vdom.OpObserver          = (*Tracer)(nil)
)

// New creates a Tracer.
func New(opts ...Option) *Tracer {
	config := Config{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Provider == nil {
		config.Provider = otel.GetTracerProvider()
	}
	if config.Context == nil {
		config.Context = context.Background()
	}
	return &Tracer{
		tracer: config.Provider.Tracer(config.TracerName),
		parent: config.Context,
		attrs:  config.Attributes,
	}
}

// FlushStarted implements reactive.Instrumentation.
func (t *Tracer) FlushStarted(queued int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.span != nil {
		t.span.End()
	}
	attrs := append([]attribute.KeyValue{attribute.Int("reactor.queued", queued)}, t.attrs...)
	t.flush, t.span = t.tracer.Start(t.parent, "reactor.flush",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	t.ops = 0
}

// FlushFinished implements reactive.Instrumentation.
func (t *Tracer) FlushFinished(stats reactive.FlushStats) {
	t.mu.Lock()
	defer t.mu.Unlock()

	span := t.span
	if span == nil {
		return
	}
	span.SetAttributes(
		attribute.Int("reactor.ran", stats.Ran),
		attribute.Int("reactor.cycles", stats.Cycles),
		attribute.Int("reactor.patch_ops", t.ops),
	)
	setStatus(span, stats.Err)
	span.End()
	t.span, t.flush = nil, nil
}

// WatcherRan implements reactive.Instrumentation. The span is recorded
// after the fact, starting d before now.
func (t *Tracer) WatcherRan(label string, d time.Duration, err error) {
	t.mu.Lock()
	parent := t.flush
	t.mu.Unlock()
	if parent == nil {
		parent = t.parent
	}

	end := time.Now()
	name := "reactor.watcher"
	if label != "" {
		name += " " + label
	}
	attrs := append([]attribute.KeyValue{attribute.String("reactor.watcher", label)}, t.attrs...)
	_, span := t.tracer.Start(parent, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(end.Add(-d)),
	)
	setStatus(span, err)
	span.End(trace.WithTimestamp(end))
}

// Op implements vdom.OpObserver. Ops are counted on the open flush span.
func (t *Tracer) Op(kind vdom.OpKind) {
	t.mu.Lock()
	if t.span != nil {
		t.ops++
	}
	t.mu.Unlock()
}

func setStatus(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
