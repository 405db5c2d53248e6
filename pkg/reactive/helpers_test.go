package reactive

import "testing"

func observeRecord(t *testing.T, rt *Runtime, m map[string]any) *Record {
	t.Helper()
	v, err := rt.Observe(m)
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	r, ok := v.(*Record)
	if !ok {
		t.Fatalf("expected *Record, got %T", v)
	}
	return r
}

// countingWatcher creates a watcher that calls read on every run and counts
// the runs.
func countingWatcher(t *testing.T, rt *Runtime, read func(), opts ...WatcherOption) (*Watcher, *int) {
	t.Helper()
	runs := 0
	w, err := rt.NewWatcher(func() (any, error) {
		runs++
		read()
		return nil, nil
	}, opts...)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	return w, &runs
}
