package reactive

// Batch runs fn and holds back the synchronous flush until the outermost
// batch returns. With an executor, flushes are deferred anyway and Batch
// only groups the writes.
//
// Batch returns the error of the flush it ran, if any.
//
//	rt.Batch(func() {
//	    todo.Set("title", "Write docs")
//	    todo.Set("done", true)
//	})
//	// the todo's renderer ran once
func (rt *Runtime) Batch(fn func()) error {
	rt.batchDepth++
	func() {
		defer func() { rt.batchDepth-- }()
		fn()
	}()

	if rt.batchDepth > 0 || rt.executor != nil || len(rt.stack) > 0 {
		return nil
	}
	if rt.sched.waiting && !rt.sched.flushing {
		return rt.sched.Flush()
	}
	return nil
}

// NextTick runs fn after the next flush.
//
// With an executor, fn is enqueued behind the pending flush task, or run on
// the executor's next turn when nothing is pending. Without one, fn runs
// after the held-back flush, or right away when nothing is held back.
func (rt *Runtime) NextTick(fn func()) {
	if rt.executor != nil {
		rt.executor.Enqueue(fn)
		return
	}
	if rt.sched.waiting || rt.sched.flushing {
		rt.sched.ticks = append(rt.sched.ticks, fn)
		return
	}
	fn()
}
