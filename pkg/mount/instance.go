package mount

import (
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/vdom"
)

// ErrDestroyed is returned when a destroyed instance is asked to render.
var ErrDestroyed = errors.New("mount: instance destroyed")

// RenderFunc produces the view tree of an instance.
type RenderFunc func() (*vdom.VNode, error)

// ComponentFunc is the definition of a component: it renders from the
// component's props.
type ComponentFunc func(props *reactive.Record) (*vdom.VNode, error)

// State is the lifecycle state of an Instance.
type State uint8

const (
	StatePending   State = iota // Constructed, nothing rendered yet
	StateActive                 // Rendered and tracking
	StateDestroyed              // Torn down
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateActive:
		return "active"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Instance is a mounted render function with its state.
// It holds the render watcher, the last rendered tree and, for components,
// the props record and the placeholder node in the parent's tree.
type Instance struct {
	id      string
	name    string
	rt      *reactive.Runtime
	patcher *vdom.Patcher
	render  RenderFunc
	target  vdom.Node

	// ref is the insertion point of the first render.
	ref vdom.Node

	watcher *reactive.Watcher
	state   State

	// tree is the last rendered tree (for diffing).
	tree *vdom.VNode

	// Component instances only.
	def         ComponentFunc
	props       *reactive.Record
	placeholder *vdom.VNode
	parent      *Instance
	children    []*Instance

	hooks  hooks
	logger *slog.Logger
}

// Mount renders render under target and keeps the output up to date.
//
// When the first render fails, nothing reaches the backend, the watcher is
// torn down and Mount returns the error. When the render succeeds but a
// nested component fails, Mount returns the instance together with the
// error.
func Mount(rt *reactive.Runtime, p *vdom.Patcher, render RenderFunc, target vdom.Node, opts ...Option) (*Instance, error) {
	i := newInstance(rt, p, render, target, opts...)
	err := i.start()
	if i.state != StateActive {
		return nil, err
	}
	return i, err
}

func newInstance(rt *reactive.Runtime, p *vdom.Patcher, render RenderFunc, target vdom.Node, opts ...Option) *Instance {
	i := &Instance{
		id:      ulid.Make().String(),
		name:    "root",
		rt:      rt,
		patcher: p,
		render:  render,
		target:  target,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = i.logger.With("component", "mount", "instance", i.name)
	return i
}

// start creates the render watcher, which runs the first render.
func (i *Instance) start() error {
	w, err := i.rt.NewWatcher(i.update,
		reactive.Label(i.name),
		reactive.Before(i.beforeUpdate),
		reactive.After(i.afterUpdate),
	)
	i.watcher = w
	if i.state != StateActive {
		w.Teardown()
		i.state = StateDestroyed
		return err
	}
	if err != nil {
		i.logger.Error("mounted with errors", "error", err)
	}
	run(i.hooks.mounted)
	return err
}

// update is the watcher getter: render, then patch. A failed render
// returns before touching the backend.
func (i *Instance) update() (any, error) {
	if i.state == StateDestroyed {
		return nil, ErrDestroyed
	}
	next, err := i.render()
	if err != nil {
		return nil, err
	}
	if next == nil {
		next = vdom.Text("")
	}

	if h, ok := i.patcher.Components.(*Host); ok {
		h.push(i)
		defer h.pop()
	}
	elm, perr := i.patcher.PatchBefore(i.tree, next, i.target, i.ref)
	i.ref = nil
	i.tree = next
	i.state = StateActive
	if i.placeholder != nil {
		i.placeholder.Elm = elm
	}
	return next, perr
}

func (i *Instance) beforeUpdate() {
	if i.state == StateActive {
		run(i.hooks.beforeUpdate)
	}
}

func (i *Instance) afterUpdate() {
	if i.state == StateActive {
		run(i.hooks.updated)
	}
}

// ID returns the instance's unique id.
func (i *Instance) ID() string { return i.id }

// Name returns the instance's name.
func (i *Instance) Name() string { return i.name }

// State returns the lifecycle state.
func (i *Instance) State() State { return i.state }

// Tree returns the last rendered tree, or nil once destroyed.
func (i *Instance) Tree() *vdom.VNode { return i.tree }

// Props returns a component's props record; nil for root instances.
func (i *Instance) Props() *reactive.Record { return i.props }

// Parent returns the instance that rendered this component, or nil.
func (i *Instance) Parent() *Instance { return i.parent }

// Children returns the component instances rendered by this instance.
func (i *Instance) Children() []*Instance {
	out := make([]*Instance, len(i.children))
	copy(out, i.children)
	return out
}

// Watcher returns the render watcher.
func (i *Instance) Watcher() *reactive.Watcher { return i.watcher }

// ForceUpdate queues a re-render even though no data changed.
func (i *Instance) ForceUpdate() {
	if i.state == StateActive {
		i.rt.Scheduler().Queue(i.watcher)
	}
}

// Unmount tears the instance down and removes its output from the target.
// Child components are unmounted with it. Unmount is idempotent.
func (i *Instance) Unmount() {
	i.teardown(true)
}

// teardown destroys the instance. With removeOutput unset the output is
// left for the caller to discard (a parent removing a whole subtree).
func (i *Instance) teardown(removeOutput bool) {
	if i.state == StateDestroyed {
		return
	}
	i.state = StateDestroyed
	if i.watcher != nil {
		i.watcher.Teardown()
	}

	if i.tree != nil {
		if removeOutput {
			if _, err := i.patcher.Patch(i.tree, nil, i.target); err != nil {
				i.logger.Warn("unmount", "error", err)
			}
		} else {
			i.patcher.Destroy(i.tree)
		}
	}
	if i.parent != nil {
		i.parent.removeChild(i)
	}
	i.tree = nil
	run(i.hooks.unmounted)
}

func (i *Instance) addChild(c *Instance) {
	c.parent = i
	i.children = append(i.children, c)
}

func (i *Instance) removeChild(c *Instance) {
	for k, ch := range i.children {
		if ch == c {
			i.children = append(i.children[:k], i.children[k+1:]...)
			return
		}
	}
}

// MemoryUsage estimates the bytes held by this instance, its last tree and
// its child instances.
func (i *Instance) MemoryUsage() int64 {
	if i == nil {
		return 0
	}
	var size int64 = 160 // Base struct size
	size += estimateVNodeSize(i.tree)
	for _, c := range i.children {
		size += 8 + c.MemoryUsage()
	}
	return size
}

// estimateVNodeSize estimates the memory size of a VNode tree.
func estimateVNodeSize(node *vdom.VNode) int64 {
	if node == nil {
		return 0
	}

	var size int64 = 96 // Base VNode size
	size += int64(len(node.Tag) + len(node.Text) + len(node.Key) + len(node.Namespace))
	for k, v := range node.Attrs {
		size += int64(len(k))
		if s, ok := v.(string); ok {
			size += int64(len(s))
		} else {
			size += 16
		}
	}
	for _, child := range node.Children {
		size += estimateVNodeSize(child)
	}
	return size
}
