package reactive

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTaskQueueDrainsNestedTasks(t *testing.T) {
	q := &TaskQueue{}
	var order []int
	q.Enqueue(func() {
		order = append(order, 1)
		q.Enqueue(func() { order = append(order, 3) })
	})
	q.Enqueue(func() { order = append(order, 2) })

	if n := q.RunPending(); n != 3 {
		t.Errorf("expected 3 tasks, got %d", n)
	}
	for i, v := range []int{1, 2, 3} {
		if order[i] != v {
			t.Fatalf("expected FIFO order, got %v", order)
		}
	}
}

func TestLoopDispatchFlushes(t *testing.T) {
	loop := NewLoop(4, nil)
	rt := NewRuntime(WithExecutor(loop))
	r := observeRecord(t, rt, map[string]any{"n": 0})

	seen := make(chan any, 4)
	rt.Watch(func() any { return r.Get("n") }, func(v, _ any) { seen <- v })

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- loop.Run(ctx) }()

	if err := loop.Dispatch(func() { r.Set("n", 1) }); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	select {
	case v := <-seen:
		if v != 1 {
			t.Errorf("expected 1, got %v", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not run on the loop")
	}

	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if err := loop.Dispatch(func() {}); !errors.Is(err, ErrLoopStopped) {
		t.Errorf("expected ErrLoopStopped, got %v", err)
	}
}

func TestLoopSurvivesPanickingTask(t *testing.T) {
	loop := NewLoop(0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	done := make(chan struct{})
	loop.Dispatch(func() { panic("task failed") })
	loop.Dispatch(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop stopped after a panic")
	}
}
