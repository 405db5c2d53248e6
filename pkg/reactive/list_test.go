package reactive

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func observeList(t *testing.T, rt *Runtime, items []any) *List {
	t.Helper()
	v, err := rt.Observe(items)
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	return v.(*List)
}

func TestListMutationsNotify(t *testing.T) {
	rt := NewRuntime()
	l := observeList(t, rt, []any{3, 1, 2})
	var snapshot []any
	_, runs := countingWatcher(t, rt, func() { snapshot = l.Items() })

	steps := []struct {
		name string
		do   func()
		want []any
	}{
		{"push", func() { l.Push(4) }, []any{3, 1, 2, 4}},
		{"pop", func() { l.Pop() }, []any{3, 1, 2}},
		{"unshift", func() { l.Unshift(0) }, []any{0, 3, 1, 2}},
		{"shift", func() { l.Shift() }, []any{3, 1, 2}},
		{"sort", func() { l.Sort(func(a, b any) bool { return a.(int) < b.(int) }) }, []any{1, 2, 3}},
		{"reverse", func() { l.Reverse() }, []any{3, 2, 1}},
		{"splice", func() { l.Splice(1, 1, 9, 8) }, []any{3, 9, 8, 1}},
		{"set at", func() { l.SetAt(0, 7) }, []any{7, 9, 8, 1}},
	}
	for i, step := range steps {
		step.do()
		if *runs != i+2 {
			t.Fatalf("%s: expected %d runs, got %d", step.name, i+2, *runs)
		}
		if diff := cmp.Diff(step.want, snapshot); diff != "" {
			t.Fatalf("%s: items mismatch (-want +got):\n%s", step.name, diff)
		}
	}
}

func TestListNoopMutations(t *testing.T) {
	rt := NewRuntime()
	l := observeList(t, rt, []any{1})
	_, runs := countingWatcher(t, rt, func() { l.Len() })

	l.SetAt(0, 1)
	l.SetAt(5, 1)
	l.Splice(0, 0)
	l.Push()
	if *runs != 1 {
		t.Errorf("no-op mutations should not notify, got %d runs", *runs)
	}

	l.Pop()
	if _, ok := l.Pop(); ok {
		t.Error("pop of an empty list should report false")
	}
	if *runs != 2 {
		t.Errorf("expected a single re-run, got %d", *runs)
	}
}

func TestListSplice(t *testing.T) {
	rt := NewRuntime()
	l := observeList(t, rt, []any{"a", "b", "c", "d"})

	removed := l.Splice(-2, 10)
	if diff := cmp.Diff([]any{"c", "d"}, removed); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"a", "b"}, l.Raw()); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}

	l.Splice(1, 0, "x")
	if diff := cmp.Diff([]any{"a", "x", "b"}, l.Raw()); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestListSetAndDeleteByIndex(t *testing.T) {
	rt := NewRuntime()
	l := observeList(t, rt, []any{"a"})
	_, runs := countingWatcher(t, rt, func() { l.Len() })

	if err := Set(l, 2, "c"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if diff := cmp.Diff([]any{"a", nil, "c"}, l.Raw()); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	if err := Set(l, 0, "z"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := Delete(l, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if diff := cmp.Diff([]any{"z", "c"}, l.Raw()); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	if *runs != 4 {
		t.Errorf("expected 4 runs, got %d", *runs)
	}
}

func TestListReadThroughParentTracksShape(t *testing.T) {
	rt := NewRuntime()
	r := observeRecord(t, rt, map[string]any{"todos": []any{map[string]any{"title": "a"}}})
	_, runs := countingWatcher(t, rt, func() { r.Get("todos") })

	todos := r.Get("todos").(*List)
	todos.Push(map[string]any{"title": "b"})
	if *runs != 2 {
		t.Fatalf("reading the list through its parent should track pushes, got %d runs", *runs)
	}

	if _, ok := todos.At(1).(*Record); !ok {
		t.Errorf("pushed item should be observed, got %T", todos.At(1))
	}
}
