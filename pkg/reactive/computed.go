package reactive

// Computed is a lazily evaluated, cached value. It recomputes only when a
// dependency changed since the last evaluation and someone reads it.
type Computed[T any] struct {
	w *Watcher
}

// NewComputed creates a computed value backed by fn.
func NewComputed[T any](rt *Runtime, fn func() (T, error), opts ...WatcherOption) *Computed[T] {
	getter := func() (any, error) {
		v, err := fn()
		return v, err
	}
	opts = append([]WatcherOption{Label("computed")}, opts...)
	opts = append(opts, Lazy())
	w, _ := rt.NewWatcher(getter, opts...)
	return &Computed[T]{w: w}
}

// Get returns the cached value, evaluating first when dirty. The running
// watcher, if any, depends on everything the computed value read.
func (c *Computed[T]) Get() (T, error) {
	var zero T
	if c.w.dirty {
		if err := c.w.Evaluate(); err != nil {
			return zero, err
		}
	}
	if !c.w.active {
		return zero, ErrTornDown
	}
	if c.w.rt.Current() != nil {
		c.w.Depend()
	}
	v, _ := c.w.value.(T)
	return v, nil
}

// Dirty reports whether the next Get recomputes.
func (c *Computed[T]) Dirty() bool {
	return c.w.dirty
}

// Watcher returns the underlying lazy watcher.
func (c *Computed[T]) Watcher() *Watcher {
	return c.w
}

// Stop tears the computed value down.
func (c *Computed[T]) Stop() {
	c.w.Teardown()
}
