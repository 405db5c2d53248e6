package demo

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/reactor"
	"github.com/vango-dev/reactor/pkg/backend/memtree"
	"github.com/vango-dev/reactor/pkg/backend/recorder"
	"github.com/vango-dev/reactor/pkg/reactive"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	tree  *memtree.Tree
	rec   *recorder.Recorder
	app   *reactor.App
	todos *Todos
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tree := memtree.NewStrict()
	rec := recorder.New(tree)
	app := reactor.New(reactor.WithBackend(rec), reactor.WithLogger(quiet))
	todos, err := New(app, "Todos")
	if err != nil {
		t.Fatal(err)
	}
	if err := todos.Mount(tree.Root); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	return &fixture{tree: tree, rec: rec, app: app, todos: todos}
}

// step applies fn as one flush and resets the recorder first.
func (f *fixture) step(t *testing.T, fn func()) {
	t.Helper()
	f.rec.Reset()
	if err := f.app.Batch(fn); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func (f *fixture) rows() []string {
	var out []string
	list := f.tree.Root.Find("class", "todo-list")
	for _, li := range list.Children {
		out = append(out, li.TextContent())
	}
	return out
}

func TestTodosOperations(t *testing.T) {
	f := newFixture(t)
	f.step(t, func() {
		f.todos.Add("a")
		f.todos.Add("b")
		f.todos.Add("c")
	})
	if diff := cmp.Diff([]int{1, 2, 3}, f.todos.IDs()); diff != "" {
		t.Errorf("IDs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, f.rows()); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	f.step(t, func() { f.todos.Toggle(2) })
	if f.tree.Root.Find("class", "done") == nil {
		t.Error("expected a row with class done")
	}
	if got := f.tree.Root.Find("class", "count").TextContent(); got != "2 left" {
		t.Errorf("expected %q, got %q", "2 left", got)
	}

	f.step(t, func() { f.todos.Rotate() })
	if diff := cmp.Diff([]string{"c", "a", "b"}, f.rows()); diff != "" {
		t.Errorf("rows after rotate mismatch (-want +got):\n%s", diff)
	}

	f.step(t, func() { f.todos.Rename(1, "A") })
	if diff := cmp.Diff([]string{"c", "A", "b"}, f.rows()); diff != "" {
		t.Errorf("rows after rename mismatch (-want +got):\n%s", diff)
	}

	f.step(t, func() {
		if n := f.todos.ClearDone(); n != 1 {
			t.Errorf("expected 1 cleared, got %d", n)
		}
	})
	if diff := cmp.Diff([]int{3, 1}, f.todos.IDs()); diff != "" {
		t.Errorf("IDs after clear mismatch (-want +got):\n%s", diff)
	}

	if f.todos.Remove(42) || f.todos.Toggle(42) || f.todos.Rename(42, "x") {
		t.Error("operations on a missing id should report false")
	}
	if err := f.todos.SetFilter("someday"); err == nil {
		t.Error("expected error for unknown filter")
	}
}

func TestRotateIsOneMove(t *testing.T) {
	f := newFixture(t)
	f.step(t, func() {
		for _, s := range []string{"a", "b", "c", "d"} {
			f.todos.Add(s)
		}
	})

	f.step(t, func() { f.todos.Rotate() })
	if f.rec.Moves() != 1 || f.rec.Creates() != 0 || f.rec.Removes() != 0 {
		t.Errorf("expected exactly one move, got %s", f.rec.Summary())
	}
}

func TestFilterHidesRows(t *testing.T) {
	f := newFixture(t)
	f.step(t, func() {
		f.todos.Add("a")
		f.todos.Add("b")
		f.todos.Toggle(1)
	})

	f.step(t, func() { f.todos.SetFilter(FilterActive) })
	if diff := cmp.Diff([]string{"b"}, f.rows()); diff != "" {
		t.Errorf("active rows mismatch (-want +got):\n%s", diff)
	}
	if f.rec.Removes() != 1 {
		t.Errorf("expected one removal, got %s", f.rec.Summary())
	}

	f.step(t, func() { f.todos.SetFilter(FilterDone) })
	if diff := cmp.Diff([]string{"a"}, f.rows()); diff != "" {
		t.Errorf("done rows mismatch (-want +got):\n%s", diff)
	}

	f.todos.Unmount()
	if len(f.tree.Root.Children) != 0 {
		t.Error("expected Unmount to clear the output")
	}
}

func TestItemNeedsRecord(t *testing.T) {
	rt := reactive.NewRuntime(reactive.WithLogger(quiet))
	v, _ := rt.Observe(map[string]any{"item": "nope"})
	if _, err := Item(v.(*reactive.Record)); err == nil {
		t.Error("expected error for a non-record item")
	}
}

func TestRun(t *testing.T) {
	var out strings.Builder
	results, err := Run(&out, 0, reactor.WithLogger(quiet))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != len(Script()) {
		t.Fatalf("expected %d results, got %d", len(Script()), len(results))
	}
	if results[0].Creates == 0 {
		t.Error("first step should create nodes")
	}
	for _, r := range results {
		if r.Step == "rotate" && (r.Moves != 1 || r.Creates != 0) {
			t.Errorf("rotate: expected one move and no creates, got %+v", r)
		}
	}

	last := results[len(results)-1].Outline
	for _, want := range []string{"Release", "wire metrics", "write changelog"} {
		if !strings.Contains(last, want) {
			t.Errorf("final outline should contain %q:\n%s", want, last)
		}
	}
	for _, gone := range []string{"ship it", "write tests"} {
		if strings.Contains(last, gone) {
			t.Errorf("final outline should not contain %q:\n%s", gone, last)
		}
	}
	if !strings.HasPrefix(out.String(), "step 1: add three (creates=") {
		t.Errorf("unexpected report start: %q", out.String()[:min(60, out.Len())])
	}

	short, err := Run(nil, 2, reactor.WithLogger(quiet))
	if err != nil || len(short) != 2 {
		t.Errorf("Run(2) = %d results, %v", len(short), err)
	}
}

func TestTickKeepsListBounded(t *testing.T) {
	f := newFixture(t)
	for n := 0; n < 40; n++ {
		var name string
		f.step(t, func() { name = Tick(f.todos, n) })
		if name == "" {
			t.Fatalf("tick %d returned no name", n)
		}
		if n > 2 && (f.todos.Len() < 2 || f.todos.Len() > 6) {
			t.Fatalf("tick %d (%s): list length %d out of bounds", n, name, f.todos.Len())
		}
	}
	if got, want := len(f.rows()), f.todos.Len(); got != want {
		t.Errorf("expected %d rows, got %d", want, got)
	}
}
