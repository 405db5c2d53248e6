package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/vdom"
)

func newRecorder(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sr, tp
}

func attr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestFlushAndWatcherSpans(t *testing.T) {
	sr, tp := newRecorder(t)
	tr := New(WithTracerProvider(tp), WithAttributes(attribute.String("app", "todo")))

	tr.FlushStarted(2)
	tr.WatcherRan("view", 5*time.Millisecond, nil)
	tr.Op(vdom.OpCreate)
	tr.Op(vdom.OpSetText)
	tr.WatcherRan("", time.Millisecond, errors.New("boom"))
	tr.FlushFinished(reactive.FlushStats{Queued: 2, Ran: 2})

	spans := sr.Ended()
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}
	view, anon, flush := spans[0], spans[1], spans[2]

	if flush.Name() != "reactor.flush" {
		t.Errorf("expected flush span, got %q", flush.Name())
	}
	if v, _ := attr(flush, "reactor.patch_ops"); v.AsInt64() != 2 {
		t.Errorf("expected 2 patch ops, got %v", v.AsInt64())
	}
	if v, _ := attr(flush, "reactor.queued"); v.AsInt64() != 2 {
		t.Errorf("expected queued 2, got %v", v.AsInt64())
	}
	if v, ok := attr(flush, "app"); !ok || v.AsString() != "todo" {
		t.Errorf("expected app attribute, got %v", v)
	}

	if view.Name() != "reactor.watcher view" {
		t.Errorf("expected watcher span name, got %q", view.Name())
	}
	if view.Parent().SpanID() != flush.SpanContext().SpanID() {
		t.Error("expected watcher span to be a child of the flush span")
	}
	if got := view.EndTime().Sub(view.StartTime()); got != 5*time.Millisecond {
		t.Errorf("expected 5ms watcher span, got %v", got)
	}

	if anon.Name() != "reactor.watcher" {
		t.Errorf("expected anonymous watcher span, got %q", anon.Name())
	}
	if anon.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", anon.Status().Code)
	}
	if len(anon.Events()) != 1 {
		t.Errorf("expected recorded error event, got %d", len(anon.Events()))
	}
}

func TestWatcherOutsideFlushIsRoot(t *testing.T) {
	sr, tp := newRecorder(t)
	tr := New(WithTracerProvider(tp))

	tr.Op(vdom.OpCreate)
	tr.WatcherRan("first", time.Millisecond, nil)

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Parent().IsValid() {
		t.Error("expected a root span")
	}
}

func TestFlushErrorStatus(t *testing.T) {
	sr, tp := newRecorder(t)
	tr := New(WithTracerProvider(tp))

	tr.FlushFinished(reactive.FlushStats{})
	if len(sr.Ended()) != 0 {
		t.Fatal("expected no span without FlushStarted")
	}

	tr.FlushStarted(1)
	tr.FlushFinished(reactive.FlushStats{Cycles: 1, Err: errors.New("cycle")})
	spans := sr.Ended()
	if len(spans) != 1 || spans[0].Status().Code != codes.Error {
		t.Fatalf("expected one error flush span, got %v", spans)
	}
	if v, _ := attr(spans[0], "reactor.cycles"); v.AsInt64() != 1 {
		t.Errorf("expected cycles 1, got %v", v.AsInt64())
	}
}

func TestTracerWithRuntime(t *testing.T) {
	sr, tp := newRecorder(t)
	tr := New(WithTracerProvider(tp))
	rt := reactive.NewRuntime(reactive.WithInstrumentation(tr))

	v, err := rt.Observe(map[string]any{"n": 1})
	if err != nil {
		t.Fatal(err)
	}
	state := v.(*reactive.Record)
	if _, err := rt.NewWatcher(func() (any, error) { return state.Get("n"), nil }, reactive.Label("count")); err != nil {
		t.Fatal(err)
	}
	state.Set("n", 2)

	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	want := []string{"reactor.watcher count", "reactor.watcher count", "reactor.flush"}
	if len(names) != len(want) {
		t.Fatalf("expected spans %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("span %d: expected %q, got %q", i, want[i], names[i])
		}
	}
}
