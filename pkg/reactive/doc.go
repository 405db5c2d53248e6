// Package reactive implements dependency tracking for plain data.
//
// Data is made observable with [Runtime.Observe], which wraps string-keyed
// maps in a [Record] and slices in a [List]. Reads through those types while
// a [Watcher] runs subscribe the watcher; writes notify the subscribers, which
// are then re-run by the [Scheduler] in creation order, once per flush.
//
// A Runtime is the scheduling context. It is not safe for concurrent use: one
// goroutine drives it, and other goroutines hand work to that goroutine
// through a [Loop].
//
//	rt := reactive.NewRuntime()
//	data, _ := rt.Observe(map[string]any{"count": 0})
//	state := data.(*reactive.Record)
//
//	stop, _ := rt.Watch(func() any { return state.Get("count") },
//	    func(v, old any) { fmt.Println(old, "->", v) })
//	defer stop()
//
//	state.Set("count", 1) // prints "0 -> 1"
package reactive
