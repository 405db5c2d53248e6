package reactive

// Watch runs cb whenever the value returned by source changes. With
// [Immediate], cb runs once right away with a nil old value; with [Deep],
// changes anywhere inside an observed value count.
//
// The returned function stops the watch.
func (rt *Runtime) Watch(source func() any, cb func(value, old any), opts ...WatcherOption) (func(), error) {
	getter := func() (any, error) {
		return source(), nil
	}
	opts = append([]WatcherOption{Label("watch")}, opts...)
	opts = append(opts, User(), OnChange(cb))
	w, err := rt.NewWatcher(getter, opts...)
	if err != nil {
		w.Teardown()
		return func() {}, err
	}
	if w.immediate {
		if err := w.call(w.value, nil); err != nil {
			return w.Teardown, err
		}
	}
	return w.Teardown, nil
}
