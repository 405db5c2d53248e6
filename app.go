package reactor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vango-dev/reactor/pkg/backend/memtree"
	"github.com/vango-dev/reactor/pkg/mount"
	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/vdom"
)

// ErrNoLoop is returned by Run and Dispatch when the app's executor is not
// a *reactive.Loop.
var ErrNoLoop = errors.New("reactor: executor is not a loop")

// App is a runtime, a patcher on one backend and the component host that
// connects them. Like the runtime, it is driven by one goroutine at a time;
// other goroutines go through Dispatch.
type App struct {
	rt      *reactive.Runtime
	patcher *vdom.Patcher
	host    *mount.Host
	backend vdom.Backend
	loop    *reactive.Loop
	logger  *slog.Logger

	instances []*mount.Instance
}

// New creates an App.
func New(opts ...Option) *App {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	strict := false
	if cfg := o.config; cfg != nil {
		if o.maxUpdateCount == 0 {
			o.maxUpdateCount = cfg.MaxUpdateCount
		}
		strict = cfg.StrictBackend
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.backend == nil {
		if strict {
			o.backend = memtree.NewStrict()
		} else {
			o.backend = memtree.New()
		}
	}

	rtOpts := []reactive.Option{reactive.WithLogger(o.logger)}
	if o.executor != nil {
		rtOpts = append(rtOpts, reactive.WithExecutor(o.executor))
	}
	if o.maxUpdateCount > 0 {
		rtOpts = append(rtOpts, reactive.WithMaxUpdateCount(o.maxUpdateCount))
	}
	switch len(o.instr) {
	case 0:
	case 1:
		rtOpts = append(rtOpts, reactive.WithInstrumentation(o.instr[0]))
	default:
		rtOpts = append(rtOpts, reactive.WithInstrumentation(reactive.MultiInstrumentation(o.instr)))
	}
	rt := reactive.NewRuntime(rtOpts...)

	pOpts := []vdom.PatcherOption{vdom.WithLogger(o.logger)}
	switch len(o.observers) {
	case 0:
	case 1:
		pOpts = append(pOpts, vdom.WithObserver(o.observers[0]))
	default:
		pOpts = append(pOpts, vdom.WithObserver(multiObserver(o.observers)))
	}
	p := vdom.NewPatcher(o.backend, pOpts...)

	a := &App{
		rt:      rt,
		patcher: p,
		host:    mount.Attach(rt, p),
		backend: o.backend,
		logger:  o.logger.With("component", "app"),
	}
	a.loop, _ = o.executor.(*reactive.Loop)
	return a
}

// Runtime returns the reactive runtime.
func (a *App) Runtime() *reactive.Runtime { return a.rt }

// Patcher returns the patcher.
func (a *App) Patcher() *vdom.Patcher { return a.patcher }

// Backend returns the output backend.
func (a *App) Backend() vdom.Backend { return a.backend }

// Root returns the backend's root container when it has one: the memtree
// root element or the stream root id. It returns nil otherwise.
func (a *App) Root() vdom.Node {
	switch b := a.backend.(type) {
	case *memtree.Tree:
		return b.Root
	case interface{ Root() vdom.Node }:
		return b.Root()
	}
	return nil
}

// Observe makes data reactive. See reactive.Runtime.Observe.
func (a *App) Observe(data any) (any, error) {
	return a.rt.Observe(data)
}

// Mount renders into target and keeps it current. A nil target mounts into
// Root.
func (a *App) Mount(render mount.RenderFunc, target vdom.Node, opts ...mount.Option) (*mount.Instance, error) {
	if target == nil {
		target = a.Root()
	}
	if target == nil {
		return nil, errors.New("reactor: no mount target")
	}
	opts = append([]mount.Option{mount.WithLogger(a.logger)}, opts...)
	inst, err := mount.Mount(a.rt, a.patcher, render, target, opts...)
	if inst != nil {
		a.instances = append(a.instances, inst)
	}
	return inst, err
}

// Unmount removes inst's output and stops it.
func (a *App) Unmount(inst *mount.Instance) {
	inst.Unmount()
	for i, m := range a.instances {
		if m == inst {
			a.instances = append(a.instances[:i], a.instances[i+1:]...)
			break
		}
	}
}

// Instances returns the root instances mounted through the app.
func (a *App) Instances() []*mount.Instance {
	return append([]*mount.Instance(nil), a.instances...)
}

// MemoryUsage estimates the bytes held by every mounted instance and its
// view tree.
func (a *App) MemoryUsage() int64 {
	var n int64
	for _, inst := range a.instances {
		n += inst.MemoryUsage()
	}
	return n
}

// Flush runs pending updates now.
func (a *App) Flush() error { return a.rt.Flush() }

// Batch runs fn and flushes once at the end.
func (a *App) Batch(fn func()) error { return a.rt.Batch(fn) }

// NextTick runs fn after the next flush.
func (a *App) NextTick(fn func()) { a.rt.NextTick(fn) }

// Run drives the loop executor until ctx is done, then unmounts every
// instance.
func (a *App) Run(ctx context.Context) error {
	if a.loop == nil {
		return ErrNoLoop
	}
	err := a.loop.Run(ctx)
	for len(a.instances) > 0 {
		a.Unmount(a.instances[len(a.instances)-1])
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Dispatch runs fn on the loop goroutine. It is the only App method that is
// safe to call from other goroutines.
func (a *App) Dispatch(fn func()) error {
	if a.loop == nil {
		return ErrNoLoop
	}
	return a.loop.Dispatch(fn)
}
