package reactive

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRecordGetSet(t *testing.T) {
	rt := NewRuntime()
	r := observeRecord(t, rt, map[string]any{"count": 0})

	if r.Get("count") != 0 {
		t.Errorf("expected 0, got %v", r.Get("count"))
	}
	r.Set("count", 5)
	if r.Get("count") != 5 {
		t.Errorf("expected 5, got %v", r.Get("count"))
	}
	if r.Get("missing") != nil {
		t.Errorf("expected nil for a missing key, got %v", r.Get("missing"))
	}
}

func TestRecordSameValueDoesNotNotify(t *testing.T) {
	rt := NewRuntime()
	r := observeRecord(t, rt, map[string]any{"count": 1})
	_, runs := countingWatcher(t, rt, func() { r.Get("count") })

	r.Set("count", 1)
	if *runs != 1 {
		t.Errorf("same value should not re-run the watcher, got %d runs", *runs)
	}
	r.Set("count", 2)
	if *runs != 2 {
		t.Errorf("expected 2 runs, got %d", *runs)
	}
}

func TestRecordLazyNestedObservation(t *testing.T) {
	rt := NewRuntime()
	r := observeRecord(t, rt, map[string]any{
		"user": map[string]any{"name": "ada", "tags": []any{"x"}},
	})

	user, ok := r.Get("user").(*Record)
	if !ok {
		t.Fatalf("expected nested *Record, got %T", r.Get("user"))
	}
	if user != r.Get("user") {
		t.Error("nested value should be observed once and reused")
	}
	if _, ok := user.Get("tags").(*List); !ok {
		t.Errorf("expected nested *List, got %T", user.Get("tags"))
	}

	want := map[string]any{"user": map[string]any{"name": "ada", "tags": []any{"x"}}}
	if diff := cmp.Diff(want, r.Raw()); diff != "" {
		t.Errorf("Raw mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordNestedWriteNotifiesReader(t *testing.T) {
	rt := NewRuntime()
	r := observeRecord(t, rt, map[string]any{"user": map[string]any{"name": "ada"}})
	var seen any
	_, runs := countingWatcher(t, rt, func() {
		seen = r.Get("user").(*Record).Get("name")
	})

	r.Get("user").(*Record).Set("name", "grace")
	if *runs != 2 || seen != "grace" {
		t.Errorf("expected re-run with grace, got %d runs and %v", *runs, seen)
	}
}

func TestRecordNewKeyIsUntracked(t *testing.T) {
	rt := NewRuntime()
	r := observeRecord(t, rt, map[string]any{})
	var seen any
	_, runs := countingWatcher(t, rt, func() { seen = r.Get("extra") })

	// A plain write adds an untracked property.
	r.Set("extra", 1)
	r.Set("extra", 2)
	if *runs != 1 {
		t.Fatalf("plain property writes should not notify, got %d runs", *runs)
	}

	// Set defines it reactively and notifies the shape.
	if err := Set(r, "extra", 3); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if *runs != 2 || seen != 3 {
		t.Fatalf("expected re-run with 3, got %d runs and %v", *runs, seen)
	}

	r.Set("extra", 4)
	if *runs != 3 || seen != 4 {
		t.Errorf("reactive property should now notify, got %d runs and %v", *runs, seen)
	}
}

func TestRecordDeleteNotifies(t *testing.T) {
	rt := NewRuntime()
	r := observeRecord(t, rt, map[string]any{"a": 1, "b": 2})
	var keys []string
	_, runs := countingWatcher(t, rt, func() { keys = r.Keys() })

	if diff := cmp.Diff([]string{"a", "b"}, keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	if err := Delete(r, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if *runs != 2 {
		t.Fatalf("expected re-run after delete, got %d", *runs)
	}
	if diff := cmp.Diff([]string{"b"}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	// Deleting a missing key is a no-op.
	r.Delete("zzz")
	if *runs != 2 {
		t.Errorf("missing key delete should not notify, got %d runs", *runs)
	}
}

func TestSetRejectsBadKeys(t *testing.T) {
	rt := NewRuntime()
	r := observeRecord(t, rt, map[string]any{})
	if err := Set(r, 1, "x"); err == nil {
		t.Error("expected an error for a non-string record key")
	}
	l, _ := rt.Observe([]any{})
	if err := Set(l.(*List), "x", 1); err == nil {
		t.Error("expected an error for a non-int list index")
	}
}
