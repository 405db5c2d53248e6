package reactive

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Executor runs deferred work for a Runtime. The scheduler enqueues one
// flush per update cycle; NextTick callbacks are enqueued behind it.
// Enqueue is called on the goroutine that drives the runtime.
type Executor interface {
	Enqueue(task func())
}

// TaskQueue is a FIFO executor drained by hand. It suits tests and hosts
// that already own a loop.
type TaskQueue struct {
	tasks []func()
}

// Enqueue appends task.
func (q *TaskQueue) Enqueue(task func()) {
	q.tasks = append(q.tasks, task)
}

// Len returns the number of waiting tasks.
func (q *TaskQueue) Len() int {
	return len(q.tasks)
}

// RunPending runs tasks until the queue is empty, including tasks enqueued
// by the tasks themselves, and returns how many ran.
func (q *TaskQueue) RunPending() int {
	n := 0
	for len(q.tasks) > 0 {
		task := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		task()
		n++
	}
	return n
}

// =============================================================================
// Loop
// =============================================================================

// ErrLoopStopped is returned by [Loop.Dispatch] after the loop has exited.
var ErrLoopStopped = errors.New("reactive: loop stopped")

// DefaultLoopBuffer is the dispatch channel capacity used when NewLoop is
// given a non-positive size.
const DefaultLoopBuffer = 256

// Loop is an executor backed by a goroutine the host owns. Run drives it;
// Dispatch is the only way other goroutines get work onto it.
//
//	loop := reactive.NewLoop(0, logger)
//	rt := reactive.NewRuntime(reactive.WithExecutor(loop))
//	go loop.Run(ctx)
//
//	loop.Dispatch(func() { state.Set("count", 1) })
type Loop struct {
	dispatch chan func()
	wake     chan struct{}
	done     chan struct{}

	mu      sync.Mutex
	pending []func()

	stopOnce sync.Once
	logger   *slog.Logger
}

// NewLoop creates a loop with a dispatch buffer of size buffer.
func NewLoop(buffer int, logger *slog.Logger) *Loop {
	if buffer <= 0 {
		buffer = DefaultLoopBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		dispatch: make(chan func(), buffer),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		logger:   logger.With("component", "loop"),
	}
}

// Enqueue schedules task on the loop. It never blocks.
func (l *Loop) Enqueue(task func()) {
	l.mu.Lock()
	l.pending = append(l.pending, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Dispatch hands fn to the loop goroutine. It blocks while the buffer is
// full and fails once the loop has stopped.
func (l *Loop) Dispatch(fn func()) error {
	select {
	case <-l.done:
		return ErrLoopStopped
	default:
	}
	select {
	case l.dispatch <- fn:
		return nil
	case <-l.done:
		return ErrLoopStopped
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run executes tasks on the calling goroutine until ctx is done. Enqueued
// tasks run before the next dispatched function is taken. A panicking task
// is logged and the loop keeps going.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stopOnce.Do(func() { close(l.done) })

	for {
		l.drain()

		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.dispatch:
			l.safeRun(fn)
		case <-l.wake:
		}
	}
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		if len(l.pending) == 0 {
			l.mu.Unlock()
			return
		}
		task := l.pending[0]
		l.pending[0] = nil
		l.pending = l.pending[1:]
		l.mu.Unlock()

		l.safeRun(task)
	}
}

func (l *Loop) safeRun(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panicked", "panic", r)
		}
	}()
	fn()
}
