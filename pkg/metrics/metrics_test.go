package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vango-dev/reactor/pkg/backend/memtree"
	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/vdom"
)

func TestCollectorRecordsDirectCalls(t *testing.T) {
	c := New(WithRegistry(prometheus.NewRegistry()))

	c.FlushStarted(3)
	c.FlushFinished(reactive.FlushStats{Queued: 3, Ran: 3, Duration: time.Millisecond})
	c.FlushFinished(reactive.FlushStats{Cycles: 2, Err: errors.New("cycle")})
	c.WatcherRan("view", time.Millisecond, nil)
	c.WatcherRan("", time.Millisecond, errors.New("boom"))
	c.Op(vdom.OpCreate)
	c.Op(vdom.OpCreate)
	c.Op(vdom.OpMove)
	c.FrameSent(1, 4, 40)
	c.FrameSent(2, 1, 12)
	c.SetClients(3)
	c.SetTreeSize(2048)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"flushes ok", testutil.ToFloat64(c.flushes.WithLabelValues("ok")), 1},
		{"flushes error", testutil.ToFloat64(c.flushes.WithLabelValues("error")), 1},
		{"cycles", testutil.ToFloat64(c.cycles), 2},
		{"view runs", testutil.ToFloat64(c.watcherRuns.WithLabelValues("view", "ok")), 1},
		{"anonymous errors", testutil.ToFloat64(c.watcherRuns.WithLabelValues("anonymous", "error")), 1},
		{"creates", testutil.ToFloat64(c.ops.WithLabelValues("create")), 2},
		{"moves", testutil.ToFloat64(c.ops.WithLabelValues("move")), 1},
		{"frames", testutil.ToFloat64(c.frames), 2},
		{"frame bytes", testutil.ToFloat64(c.frameBytes), 52},
		{"clients", testutil.ToFloat64(c.clients), 3},
		{"tree bytes", testutil.ToFloat64(c.treeBytes), 2048},
	}
	for _, tc := range checks {
		if tc.got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, tc.got)
		}
	}
}

func TestCollectorWithRuntimeAndPatcher(t *testing.T) {
	c := New(WithRegistry(prometheus.NewRegistry()))
	rt := reactive.NewRuntime(reactive.WithInstrumentation(c))
	tree := memtree.New()
	p := vdom.NewPatcher(tree, vdom.WithObserver(c))

	v, err := rt.Observe(map[string]any{"title": "a"})
	if err != nil {
		t.Fatal(err)
	}
	state := v.(*reactive.Record)

	var prev *vdom.VNode
	_, err = rt.NewWatcher(func() (any, error) {
		next := vdom.Div(vdom.Text(state.Get("title").(string)))
		_, err := p.Patch(prev, next, tree.Root)
		prev = next
		return nil, err
	}, reactive.Label("view"))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	state.Set("title", "b")

	if got := testutil.ToFloat64(c.watcherRuns.WithLabelValues("view", "ok")); got != 2 {
		t.Errorf("expected 2 view runs, got %v", got)
	}
	if got := testutil.ToFloat64(c.flushes.WithLabelValues("ok")); got != 1 {
		t.Errorf("expected 1 flush, got %v", got)
	}
	if got := testutil.ToFloat64(c.ops.WithLabelValues("set-text")); got != 1 {
		t.Errorf("expected 1 set-text op, got %v", got)
	}
	if got := testutil.ToFloat64(c.ops.WithLabelValues("create")); got != 2 {
		t.Errorf("expected 2 create ops, got %v", got)
	}
}

func TestNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(WithRegistry(reg), WithNamespace("demo"), WithSubsystem("ui"),
		WithConstLabels(prometheus.Labels{"app": "todo"}))
	c.Op(vdom.OpSetAttr)
	c.FlushFinished(reactive.FlushStats{})

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
		for _, m := range f.GetMetric() {
			if len(m.GetLabel()) == 0 || m.GetLabel()[0].GetName() != "app" {
				t.Errorf("%s: expected const label app, got %v", f.GetName(), m.GetLabel())
			}
		}
	}
	joined := strings.Join(names, ",")
	for _, want := range []string{"demo_ui_patch_ops_total", "demo_ui_flushes_total", "demo_ui_stream_clients"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected %s in %s", want, joined)
		}
	}
}
