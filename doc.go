// Package reactor ties the reactive runtime, the patcher and the component
// host into one application object.
//
// A typical host observes its state, mounts a render function and lets the
// runtime keep the output current:
//
//	tree := memtree.New()
//	app := reactor.New(reactor.WithBackend(tree))
//
//	v, _ := app.Observe(map[string]any{"count": 0})
//	state := v.(*reactive.Record)
//
//	app.Mount(func() (*vdom.VNode, error) {
//	    return vdom.P(vdom.Textf("count: %v", state.Get("count"))), nil
//	}, tree.Root)
//
//	state.Set("count", 1) // output is patched before Set returns
//
// With [WithExecutor] flushes are deferred to the executor instead, and
// [App.Flush] or the executor drains them.
package reactor
