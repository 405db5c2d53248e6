package reactive

import (
	"fmt"
	"time"
)

// Watcher is a computation that re-runs when the data it read changes.
// Render passes, computed values and user side effects are all watchers.
//
// Each run collects the set of dependencies it reads from scratch; once the
// run ends, dependencies that were not read again are unsubscribed in both
// directions.
type Watcher struct {
	rt     *Runtime
	id     uint64
	label  string
	getter func() (any, error)

	cb     func(value, old any)
	before func()
	after  func()

	lazy, sync, deep, user, immediate bool

	dirty  bool
	active bool
	value  any
	err    error

	deps      []*Dep
	depSet    map[*Dep]struct{}
	newDeps   []*Dep
	newDepSet map[*Dep]struct{}
}

// NewWatcher creates a watcher around getter. Unless the watcher is lazy,
// getter runs once before NewWatcher returns; a failure of that first run is
// returned and the watcher stays subscribed to what the run read.
func (rt *Runtime) NewWatcher(getter func() (any, error), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		rt:        rt,
		id:        rt.allocID(),
		getter:    getter,
		active:    true,
		depSet:    make(map[*Dep]struct{}),
		newDepSet: make(map[*Dep]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.label == "" {
		w.label = fmt.Sprintf("watcher-%d", w.id)
	}

	if w.lazy {
		w.dirty = true
		return w, nil
	}
	value, err := w.timedGet()
	if err != nil {
		w.err = err
		return w, err
	}
	w.value = value
	return w, nil
}

// ID returns the creation id. Flushes run watchers in ascending id order.
func (w *Watcher) ID() uint64 { return w.id }

// Label returns the watcher's name.
func (w *Watcher) Label() string { return w.label }

// Value returns the result of the last successful run.
func (w *Watcher) Value() any { return w.value }

// Err returns the error of the last run, or nil.
func (w *Watcher) Err() error { return w.err }

// Dirty reports whether a lazy watcher needs to evaluate.
func (w *Watcher) Dirty() bool { return w.dirty }

// Active reports whether the watcher has not been torn down.
func (w *Watcher) Active() bool { return w.active }

// DepCount returns the number of dependencies the watcher is subscribed to.
func (w *Watcher) DepCount() int { return len(w.deps) }

// get runs the getter with w as the current target and swaps in the new
// dependency set. The target is popped on every exit path.
func (w *Watcher) get() (value any, err error) {
	w.rt.pushTarget(w)
	defer func() {
		w.rt.popTarget()
		w.cleanupDeps()
		w.rt.settle()
	}()

	value, err = w.invoke()
	if err == nil && w.deep {
		Traverse(value)
	}
	return value, err
}

func (w *Watcher) invoke() (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value, err = nil, procedureError(w.label, recoverError(r), true)
		}
	}()
	value, err = w.getter()
	if err != nil {
		return nil, procedureError(w.label, err, false)
	}
	return value, nil
}

func (w *Watcher) timedGet() (any, error) {
	start := time.Now()
	value, err := w.get()
	w.rt.instr.WatcherRan(w.label, time.Since(start), err)
	return value, err
}

// addDep records d as read in the current run. A dependency new to the
// watcher is subscribed at once.
func (w *Watcher) addDep(d *Dep) {
	if _, ok := w.newDepSet[d]; ok {
		return
	}
	w.newDepSet[d] = struct{}{}
	w.newDeps = append(w.newDeps, d)
	if _, ok := w.depSet[d]; !ok {
		d.addSub(w)
	}
}

// cleanupDeps drops the dependencies the last run did not read and makes the
// new set current.
func (w *Watcher) cleanupDeps() {
	for _, d := range w.deps {
		if _, ok := w.newDepSet[d]; !ok {
			d.removeSub(w)
		}
	}
	w.deps, w.newDeps = w.newDeps, w.deps[:0]
	w.depSet, w.newDepSet = w.newDepSet, w.depSet
	clear(w.newDepSet)
	clear(w.newDeps[:cap(w.newDeps)])

	// Torn down during its own run: nothing may keep a reference.
	if !w.active {
		w.unsubscribeAll()
	}
}

// update is called by a dependency that changed.
func (w *Watcher) update() {
	switch {
	case !w.active:
	case w.lazy:
		w.dirty = true
	case w.sync:
		if err := w.Run(); err != nil {
			w.rt.reportError(err)
		}
	default:
		w.rt.sched.Queue(w)
	}
}

// Run re-evaluates the watcher. For watchers with an OnChange callback it
// calls the callback when the value changed, when it is an observed value,
// or when the watcher is deep.
func (w *Watcher) Run() error {
	if !w.active {
		return nil
	}
	value, err := w.timedGet()
	w.err = err
	if err != nil {
		return err
	}

	old := w.value
	w.value = value
	if w.cb == nil {
		return nil
	}
	_, observed := value.(Observed)
	if !sameValue(value, old) || observed || w.deep {
		return w.call(value, old)
	}
	return nil
}

// call invokes the callback, recovering panics.
func (w *Watcher) call(value, old any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = procedureError(w.label, recoverError(r), true)
			w.err = err
		}
	}()
	w.cb(value, old)
	return nil
}

// Evaluate recomputes a lazy watcher and clears its dirty flag. On failure
// the watcher stays dirty.
func (w *Watcher) Evaluate() error {
	if !w.active {
		return ErrTornDown
	}
	value, err := w.timedGet()
	w.err = err
	if err != nil {
		return err
	}
	w.value = value
	w.dirty = false
	return nil
}

// Depend makes the current watcher depend on everything w depends on.
func (w *Watcher) Depend() {
	for _, d := range w.deps {
		d.Depend()
	}
}

// Teardown unsubscribes the watcher from every dependency and from the
// scheduler. A torn-down watcher never runs again. Teardown is idempotent.
func (w *Watcher) Teardown() {
	if !w.active {
		return
	}
	w.active = false
	w.rt.sched.remove(w)
	w.unsubscribeAll()
}

func (w *Watcher) unsubscribeAll() {
	for _, d := range w.deps {
		d.removeSub(w)
	}
	for _, d := range w.newDeps {
		d.removeSub(w)
	}
	w.deps = nil
	w.newDeps = nil
	clear(w.depSet)
	clear(w.newDepSet)
}
