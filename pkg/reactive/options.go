package reactive

// WatcherOption configures a watcher at creation.
type WatcherOption func(*Watcher)

// Lazy defers evaluation until [Watcher.Evaluate]. Notifications only mark a
// lazy watcher dirty. Computed values are lazy watchers.
func Lazy() WatcherOption {
	return func(w *Watcher) {
		w.lazy = true
	}
}

// Sync runs the watcher during notification instead of queueing it.
func Sync() WatcherOption {
	return func(w *Watcher) {
		w.sync = true
	}
}

// Deep makes the watcher traverse its value, depending on everything
// reachable from it.
func Deep() WatcherOption {
	return func(w *Watcher) {
		w.deep = true
	}
}

// User marks a watcher created on behalf of application code. Callback
// failures of user watchers are reported as *ProcedureError.
func User() WatcherOption {
	return func(w *Watcher) {
		w.user = true
	}
}

// Immediate makes [Runtime.Watch] call its callback once at creation.
func Immediate() WatcherOption {
	return func(w *Watcher) {
		w.immediate = true
	}
}

// Label names the watcher in logs, errors and metrics.
func Label(name string) WatcherOption {
	return func(w *Watcher) {
		if name != "" {
			w.label = name
		}
	}
}

// Before runs fn right before the scheduler re-runs the watcher.
func Before(fn func()) WatcherOption {
	return func(w *Watcher) {
		w.before = fn
	}
}

// After runs fn once per flush in which the watcher ran successfully, after
// every queued watcher has run. Hooks run in reverse queue order.
func After(fn func()) WatcherOption {
	return func(w *Watcher) {
		w.after = fn
	}
}

// OnChange sets the callback a watcher calls after a run when its value
// changed, is an observed value, or the watcher is deep.
func OnChange(cb func(value, old any)) WatcherOption {
	return func(w *Watcher) {
		w.cb = cb
	}
}
