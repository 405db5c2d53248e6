package mount

import (
	"fmt"
	"log/slog"

	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/vdom"
)

// Host renders component placeholders as nested instances.
//
// Each component gets its own render watcher and an observed props
// record. Parents re-render before their children because a child's
// watcher is always created after its parent's.
type Host struct {
	rt     *reactive.Runtime
	logger *slog.Logger

	// rendering is the stack of instances currently patching.
	rendering []*Instance
}

var _ vdom.ComponentHost = (*Host)(nil)

// NewHost creates a component host on rt.
func NewHost(rt *reactive.Runtime, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{rt: rt, logger: logger}
}

// Attach creates a host on rt and installs it as p's component host.
func Attach(rt *reactive.Runtime, p *vdom.Patcher) *Host {
	h := NewHost(rt, p.Logger)
	p.Components = h
	return h
}

func (h *Host) push(i *Instance) { h.rendering = append(h.rendering, i) }
func (h *Host) pop()             { h.rendering = h.rendering[:len(h.rendering)-1] }

func (h *Host) current() *Instance {
	if len(h.rendering) == 0 {
		return nil
	}
	return h.rendering[len(h.rendering)-1]
}

// Create implements vdom.ComponentHost.
func (h *Host) Create(p *vdom.Patcher, v *vdom.VNode, parent, ref vdom.Node) error {
	def, err := definition(v)
	if err != nil {
		placeholder(p, v, parent, ref)
		return err
	}

	observed, _ := h.rt.Observe(propsOf(v))
	props := observed.(*reactive.Record)

	child := newInstance(h.rt, p, nil, parent, WithName(v.Tag), WithLogger(h.logger))
	child.render = func() (*vdom.VNode, error) { return child.def(child.props) }
	child.def = def
	child.props = props
	child.placeholder = v
	child.ref = ref
	v.Instance = child
	if owner := h.current(); owner != nil {
		owner.addChild(child)
	}

	err = child.start()
	if child.state != StateActive {
		v.Instance = nil
		if child.parent != nil {
			child.parent.removeChild(child)
		}
		placeholder(p, v, parent, ref)
	}
	return err
}

// Update implements vdom.ComponentHost.
func (h *Host) Update(prev, next *vdom.VNode) error {
	next.Elm = prev.Elm
	child, ok := prev.Instance.(*Instance)
	if !ok || child.state == StateDestroyed {
		return fmt.Errorf("component %s: %w", next.Tag, ErrDestroyed)
	}
	next.Instance = child
	child.placeholder = next
	if def, err := definition(next); err == nil {
		child.def = def
	}

	var err error
	h.rt.Untracked(func() { err = syncProps(child.props, next.Attrs) })
	return err
}

// Destroy implements vdom.ComponentHost.
func (h *Host) Destroy(v *vdom.VNode) {
	if child, ok := v.Instance.(*Instance); ok {
		child.teardown(false)
	}
}

// syncProps makes props match attrs. Unchanged values notify nobody.
func syncProps(props *reactive.Record, attrs vdom.Attrs) error {
	for _, k := range props.Keys() {
		if _, ok := attrs[k]; !ok {
			if err := reactive.Delete(props, k); err != nil {
				return err
			}
		}
	}
	for k, v := range attrs {
		if err := reactive.Set(props, k, v); err != nil {
			return err
		}
	}
	return nil
}

func definition(v *vdom.VNode) (ComponentFunc, error) {
	switch def := v.Def.(type) {
	case ComponentFunc:
		return def, nil
	case func(*reactive.Record) (*vdom.VNode, error):
		return def, nil
	case func(*reactive.Record) *vdom.VNode:
		return func(p *reactive.Record) (*vdom.VNode, error) { return def(p), nil }, nil
	default:
		return nil, fmt.Errorf("component %s: unsupported definition %T", v.Tag, v.Def)
	}
}

func propsOf(v *vdom.VNode) map[string]any {
	m := make(map[string]any, len(v.Attrs))
	for k, val := range v.Attrs {
		m[k] = val
	}
	return m
}

// placeholder realizes an empty text node for a component that could not
// render, so the parent's tree still has an Elm to anchor and remove.
func placeholder(p *vdom.Patcher, v *vdom.VNode, parent, ref vdom.Node) {
	v.Elm = p.Backend.CreateText("")
	p.Backend.InsertBefore(parent, v.Elm, ref)
	if p.Observer != nil {
		p.Observer.Op(vdom.OpCreate)
	}
}
