package reactive

import (
	"errors"
	"math"
	"testing"
)

func TestObserveShapes(t *testing.T) {
	rt := NewRuntime()

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"record", map[string]any{"a": 1}, "record"},
		{"list", []any{1, 2}, "list"},
		{"typed map", map[string]int{"a": 1}, "record"},
		{"typed slice", []string{"x"}, "list"},
		{"array", [2]int{1, 2}, "list"},
		{"int", 42, "raw"},
		{"string", "hi", "raw"},
		{"bytes", []byte("hi"), "raw"},
		{"nil", nil, "raw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := rt.Observe(tt.value)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := "raw"
			switch v.(type) {
			case *Record:
				got = "record"
			case *List:
				got = "list"
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s (%T)", tt.want, got, v)
			}
		})
	}
}

func TestObserveIdempotent(t *testing.T) {
	rt := NewRuntime()
	r := observeRecord(t, rt, map[string]any{"a": 1})

	v, err := rt.Observe(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != r {
		t.Error("observing an observed value should return it unchanged")
	}
}

func TestObserveSameRawValueSharesHandle(t *testing.T) {
	rt := NewRuntime()
	m := map[string]any{"a": 1}
	first := observeRecord(t, rt, m)
	if second := observeRecord(t, rt, m); second != first {
		t.Error("observing the same map twice should return the same record")
	}

	items := []any{1, 2}
	l1, _ := rt.Observe(items)
	l2, _ := rt.Observe(items)
	if l1 != l2 {
		t.Error("observing the same slice twice should return the same list")
	}
	if l3, _ := rt.Observe(items[:1]); l3 == l1 {
		t.Error("a shorter window of the slice should get its own list")
	}

	other := observeRecord(t, NewRuntime(), m)
	if other == first {
		t.Error("another runtime should make its own record")
	}
}

func TestSharedNestedValueNotifiesAllPaths(t *testing.T) {
	rt := NewRuntime()
	todo := map[string]any{"text": "write tests", "done": false}
	data := observeRecord(t, rt, map[string]any{
		"items":    []any{todo},
		"selected": todo,
	})

	var seen bool
	_, runs := countingWatcher(t, rt, func() {
		item := data.Get("items").(*List).At(0).(*Record)
		seen = item.Get("done").(bool)
	})
	if *runs != 1 {
		t.Fatalf("expected 1 initial run, got %d", *runs)
	}

	selected := data.Get("selected").(*Record)
	if selected != data.Get("items").(*List).At(0) {
		t.Fatal("both paths should reach the same record")
	}
	selected.Set("done", true)

	if *runs != 2 {
		t.Errorf("expected the list reader to re-run once, got %d runs", *runs)
	}
	if !seen {
		t.Error("list reader should see done=true written through the other path")
	}
}

func TestObserveNonInterceptable(t *testing.T) {
	rt := NewRuntime()
	type point struct{ X, Y int }

	for _, v := range []any{point{1, 2}, make(chan int), map[int]string{1: "a"}, Freeze(map[string]any{})} {
		got, err := rt.Observe(v)
		var oe *ObservationError
		if !errors.As(err, &oe) {
			t.Fatalf("Observe(%T): expected *ObservationError, got %v", v, err)
		}
		switch got.(type) {
		case *Record, *List:
			t.Errorf("Observe(%T) should not wrap the value, got %T", v, got)
		}
	}
}

func TestFrozenValueStaysRaw(t *testing.T) {
	rt := NewRuntime()
	big := map[string]any{"rows": 1000}
	r := observeRecord(t, rt, map[string]any{"table": Freeze(big)})

	v := r.Get("table")
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("expected the raw map back, got %T", v)
	}
	if m["rows"] != 1000 {
		t.Errorf("unexpected content %v", m)
	}
}

func TestSameValue(t *testing.T) {
	m := map[string]any{}
	s := []int{1, 2}
	p := &struct{}{}

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"equal ints", 1, 1, true},
		{"different ints", 1, 2, false},
		{"different types", 1, int64(1), false},
		{"NaN", math.NaN(), math.NaN(), true},
		{"same map", m, m, true},
		{"different maps", m, map[string]any{}, false},
		{"same slice", s, s, true},
		{"resliced", s, s[:1], false},
		{"same pointer", p, p, true},
		{"nil and nil", nil, nil, true},
		{"nil and value", nil, 0, false},
		{"structs", struct{ A int }{1}, struct{ A int }{1}, true},
		{"funcs", func() {}, func() {}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sameValue(tt.a, tt.b); got != tt.want {
				t.Errorf("sameValue(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
