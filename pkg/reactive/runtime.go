package reactive

import (
	"log/slog"
)

// DefaultMaxUpdateCount bounds how often one watcher may run in a single
// flush before the scheduler reports a [CycleError].
const DefaultMaxUpdateCount = 100

// Runtime is the scheduling context shared by observed data and watchers.
// It owns the stack of running watchers, the id sequence, the scheduler and
// the hooks used to report what happened.
type Runtime struct {
	// stack holds the running watchers. The top is the current target; a
	// nil entry suspends tracking.
	stack []*Watcher

	// nextID is the last id handed out to a watcher or dependency.
	nextID uint64

	sched      *Scheduler
	executor   Executor
	batchDepth int
	maxUpdates int

	// observed maps raw maps and slices to the handle made for them, so
	// data reachable from several places shares one Record or List.
	observed map[identity]observedEntry

	logger  *slog.Logger
	instr   Instrumentation
	onError func(error)
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithExecutor makes the runtime defer flushes to e. Without an executor the
// runtime flushes synchronously: at the end of the outermost [Runtime.Batch],
// or right away when no batch is open.
func WithExecutor(e Executor) Option {
	return func(rt *Runtime) {
		rt.executor = e
	}
}

// WithLogger sets the logger. The runtime derives a child logger tagged with
// component=reactive.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		if l != nil {
			rt.logger = l
		}
	}
}

// WithMaxUpdateCount overrides [DefaultMaxUpdateCount]. Values below 1 are
// ignored.
func WithMaxUpdateCount(n int) Option {
	return func(rt *Runtime) {
		if n > 0 {
			rt.maxUpdates = n
		}
	}
}

// WithInstrumentation installs hooks that observe flushes and watcher runs.
func WithInstrumentation(i Instrumentation) Option {
	return func(rt *Runtime) {
		if i != nil {
			rt.instr = i
		}
	}
}

// WithErrorHandler receives errors from flushes the runtime ran on its own
// (executor tasks and synchronous fallback flushes). The default handler logs
// them.
func WithErrorHandler(fn func(error)) Option {
	return func(rt *Runtime) {
		rt.onError = fn
	}
}

// NewRuntime creates a runtime.
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		maxUpdates: DefaultMaxUpdateCount,
		logger:     slog.Default(),
		instr:      nopInstrumentation{},
	}
	for _, opt := range opts {
		opt(rt)
	}
	rt.logger = rt.logger.With("component", "reactive")
	rt.sched = newScheduler(rt)
	return rt
}

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() *slog.Logger {
	return rt.logger
}

// Scheduler returns the runtime's scheduler.
func (rt *Runtime) Scheduler() *Scheduler {
	return rt.sched
}

// MaxUpdateCount returns the cycle guard bound.
func (rt *Runtime) MaxUpdateCount() int {
	return rt.maxUpdates
}

// Current returns the watcher that reads are attributed to, or nil.
func (rt *Runtime) Current() *Watcher {
	if len(rt.stack) == 0 {
		return nil
	}
	return rt.stack[len(rt.stack)-1]
}

// Untracked runs fn with tracking suspended. Reads inside fn subscribe
// nothing.
func (rt *Runtime) Untracked(fn func()) {
	rt.pushTarget(nil)
	defer func() {
		rt.popTarget()
		rt.settle()
	}()
	fn()
}

// Flush runs every queued watcher now. See [Scheduler.Flush].
func (rt *Runtime) Flush() error {
	return rt.sched.Flush()
}

// Pending reports whether watchers are waiting for a flush.
func (rt *Runtime) Pending() bool {
	return rt.sched.Len() > 0
}

func (rt *Runtime) pushTarget(w *Watcher) {
	rt.stack = append(rt.stack, w)
}

func (rt *Runtime) popTarget() {
	rt.stack[len(rt.stack)-1] = nil
	rt.stack = rt.stack[:len(rt.stack)-1]
}

func (rt *Runtime) allocID() uint64 {
	rt.nextID++
	return rt.nextID
}

// schedule arranges for the pending queue to be flushed.
func (rt *Runtime) schedule() {
	if rt.executor != nil {
		rt.executor.Enqueue(rt.flushTask)
		return
	}
	if rt.batchDepth > 0 || len(rt.stack) > 0 {
		return
	}
	rt.flushTask()
}

// settle runs a synchronous flush that was held back by an open batch or a
// running watcher, once neither is left.
func (rt *Runtime) settle() {
	if rt.executor != nil || rt.batchDepth > 0 || len(rt.stack) > 0 {
		return
	}
	if rt.sched.waiting && !rt.sched.flushing {
		rt.flushTask()
	}
}

func (rt *Runtime) flushTask() {
	if err := rt.sched.Flush(); err != nil {
		rt.reportError(err)
	}
}

func (rt *Runtime) reportError(err error) {
	if rt.onError != nil {
		rt.onError(err)
		return
	}
	rt.logger.Error("flush failed", "error", err)
}
