package reactor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/vango-dev/reactor/internal/config"
	"github.com/vango-dev/reactor/pkg/backend/memtree"
	"github.com/vango-dev/reactor/pkg/backend/stream"
	"github.com/vango-dev/reactor/pkg/mount"
	"github.com/vango-dev/reactor/pkg/protocol"
	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/vdom"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func counter(t *testing.T, a *App) *reactive.Record {
	t.Helper()
	v, err := a.Observe(map[string]any{"count": 0})
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	return v.(*reactive.Record)
}

func view(state *reactive.Record) mount.RenderFunc {
	return func() (*vdom.VNode, error) {
		return vdom.P(vdom.Textf("count: %v", state.Get("count"))), nil
	}
}

func TestAppSynchronous(t *testing.T) {
	tree := memtree.New()
	app := New(WithBackend(tree), WithLogger(quiet()))
	state := counter(t, app)

	inst, err := app.Mount(view(state), nil)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if got := tree.Root.TextContent(); got != "count: 0" {
		t.Fatalf("expected %q, got %q", "count: 0", got)
	}

	state.Set("count", 1)
	if got := tree.Root.TextContent(); got != "count: 1" {
		t.Errorf("expected update before Set returns, got %q", got)
	}

	app.Batch(func() {
		state.Set("count", 2)
		state.Set("count", 3)
	})
	if got := tree.Root.TextContent(); got != "count: 3" {
		t.Errorf("expected %q, got %q", "count: 3", got)
	}

	app.Unmount(inst)
	if len(tree.Root.Children) != 0 || len(app.Instances()) != 0 {
		t.Error("expected unmount to clear the output and the instance list")
	}
}

func TestAppWithExecutor(t *testing.T) {
	q := &reactive.TaskQueue{}
	tree := memtree.New()
	app := New(WithBackend(tree), WithExecutor(q), WithLogger(quiet()))
	state := counter(t, app)

	if _, err := app.Mount(view(state), tree.Root); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	var ticked bool
	state.Set("count", 5)
	app.NextTick(func() { ticked = true })
	if got := tree.Root.TextContent(); got != "count: 0" {
		t.Errorf("expected deferred update, got %q", got)
	}

	q.RunPending()
	if got := tree.Root.TextContent(); got != "count: 5" {
		t.Errorf("expected %q, got %q", "count: 5", got)
	}
	if !ticked {
		t.Error("expected NextTick callback to run after the flush")
	}
}

type opCounter map[vdom.OpKind]int

func (c opCounter) Op(kind vdom.OpKind) { c[kind]++ }

type flushCounter struct{ flushes int }

func (f *flushCounter) FlushStarted(int)                          {}
func (f *flushCounter) FlushFinished(reactive.FlushStats)         { f.flushes++ }
func (f *flushCounter) WatcherRan(string, time.Duration, error) {}

func TestAppObservers(t *testing.T) {
	a, b := opCounter{}, opCounter{}
	f1, f2 := &flushCounter{}, &flushCounter{}
	app := New(WithOpObserver(a), WithOpObserver(b), WithInstrumentation(f1), WithInstrumentation(f2), WithLogger(quiet()))
	state := counter(t, app)

	if _, err := app.Mount(view(state), nil); err != nil {
		t.Fatal(err)
	}
	state.Set("count", 1)

	for _, c := range []opCounter{a, b} {
		if c[vdom.OpCreate] != 2 || c[vdom.OpSetText] != 1 {
			t.Errorf("expected 2 creates and 1 set-text, got %v", c)
		}
	}
	if f1.flushes != 1 || f2.flushes != 1 {
		t.Errorf("expected one flush on each instrumentation, got %d and %d", f1.flushes, f2.flushes)
	}
}

func TestAppMemoryUsage(t *testing.T) {
	app := New(WithBackend(memtree.New()), WithLogger(quiet()))
	if got := app.MemoryUsage(); got != 0 {
		t.Fatalf("expected 0 with nothing mounted, got %d", got)
	}

	state := counter(t, app)
	first, err := app.Mount(view(state), nil)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	one := app.MemoryUsage()
	if one != first.MemoryUsage() || one == 0 {
		t.Fatalf("expected the instance estimate %d, got %d", first.MemoryUsage(), one)
	}

	second, err := app.Mount(view(state), nil)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if two := app.MemoryUsage(); two != one+second.MemoryUsage() {
		t.Errorf("expected %d, got %d", one+second.MemoryUsage(), two)
	}

	app.Unmount(first)
	if got := app.MemoryUsage(); got != second.MemoryUsage() {
		t.Errorf("expected %d after unmount, got %d", second.MemoryUsage(), got)
	}
}

func TestAppConfig(t *testing.T) {
	cfg := config.New()
	cfg.MaxUpdateCount = 7
	cfg.StrictBackend = true

	app := New(WithConfig(cfg), WithLogger(quiet()))
	if got := app.Runtime().MaxUpdateCount(); got != 7 {
		t.Errorf("expected max update count 7, got %d", got)
	}
	tree, ok := app.Backend().(*memtree.Tree)
	if !ok || !tree.Strict {
		t.Errorf("expected a strict memtree, got %T", app.Backend())
	}

	app = New(WithMaxUpdateCount(3), WithConfig(cfg), WithLogger(quiet()))
	if got := app.Runtime().MaxUpdateCount(); got != 3 {
		t.Errorf("explicit option should win, got %d", got)
	}
}

func TestAppStreamRoot(t *testing.T) {
	app := New(WithBackend(stream.New()), WithLogger(quiet()))
	if app.Root() != protocol.RootID {
		t.Errorf("expected stream root id, got %v", app.Root())
	}
}

type bareBackend struct{ vdom.Backend }

func TestAppMountWithoutTarget(t *testing.T) {
	app := New(WithBackend(bareBackend{}), WithLogger(quiet()))
	if _, err := app.Mount(func() (*vdom.VNode, error) { return nil, nil }, nil); err == nil {
		t.Error("expected an error without a mount target")
	}
}

func TestAppRun(t *testing.T) {
	if err := New(WithLogger(quiet())).Run(context.Background()); !errors.Is(err, ErrNoLoop) {
		t.Errorf("expected ErrNoLoop, got %v", err)
	}

	loop := reactive.NewLoop(0, quiet())
	tree := memtree.New()
	app := New(WithBackend(tree), WithExecutor(loop), WithLogger(quiet()))
	state := counter(t, app)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	mounted := make(chan error, 1)
	app.Dispatch(func() {
		_, err := app.Mount(view(state), tree.Root)
		mounted <- err
	})
	if err := <-mounted; err != nil {
		t.Fatalf("Mount: %v", err)
	}

	seen := make(chan string, 1)
	app.Dispatch(func() { state.Set("count", 9) })
	app.Dispatch(func() {
		app.NextTick(func() { seen <- tree.Root.TextContent() })
	})
	select {
	case got := <-seen:
		if got != "count: 9" {
			t.Errorf("expected %q, got %q", "count: 9", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the loop")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run: %v", err)
	}
	if len(tree.Root.Children) != 0 {
		t.Error("expected Run to unmount instances on exit")
	}
	if err := app.Dispatch(func() {}); !errors.Is(err, reactive.ErrLoopStopped) {
		t.Errorf("expected ErrLoopStopped after Run, got %v", err)
	}
}
