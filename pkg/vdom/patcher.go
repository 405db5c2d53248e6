package vdom

import (
	"errors"
	"log/slog"
	"sort"
)

// Patcher reconciles view trees against a Backend.
//
// A Patcher holds no per-tree state, so one Patcher can serve many mounted
// trees; the trees themselves carry the realized nodes in Elm.
type Patcher struct {
	Backend    Backend
	Components ComponentHost
	Observer   OpObserver
	Logger     *slog.Logger

	// OnShapeError, when set, receives every shape error after it is logged.
	OnShapeError func(*ShapeError)
}

// PatcherOption configures a Patcher.
type PatcherOption func(*Patcher)

// WithComponents sets the host that renders component nodes.
func WithComponents(h ComponentHost) PatcherOption {
	return func(p *Patcher) { p.Components = h }
}

// WithObserver sets the observer told about every mutation.
func WithObserver(o OpObserver) PatcherOption {
	return func(p *Patcher) { p.Observer = o }
}

// WithLogger sets the logger used for shape warnings.
func WithLogger(l *slog.Logger) PatcherOption {
	return func(p *Patcher) { p.Logger = l }
}

// WithShapeHandler sets OnShapeError.
func WithShapeHandler(fn func(*ShapeError)) PatcherOption {
	return func(p *Patcher) { p.OnShapeError = fn }
}

// NewPatcher creates a patcher that drives b.
func NewPatcher(b Backend, opts ...PatcherOption) *Patcher {
	p := &Patcher{Backend: b}
	for _, opt := range opts {
		opt(p)
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	p.Logger = p.Logger.With("component", "vdom")
	return p
}

// Patch makes the output under target match next, given that it currently
// matches prev, and returns next's realized root.
//
// A nil prev creates next from scratch and appends it to target. A nil next
// removes prev's output. When the roots are not the same node (different
// kind, tag, namespace or key) next is created in front of prev's root and
// prev is removed.
//
// The error joins failures reported by the component host. The tree stays
// consistent with the output either way.
func (p *Patcher) Patch(prev, next *VNode, target Node) (Node, error) {
	return p.PatchBefore(prev, next, target, nil)
}

// PatchBefore is Patch with an insertion point for the first render: when
// prev is nil, next is inserted before ref instead of appended.
func (p *Patcher) PatchBefore(prev, next *VNode, target, ref Node) (Node, error) {
	r := &patch{p: p, b: p.Backend}
	switch {
	case next == nil:
		if prev != nil {
			r.removeNode(target, prev)
		}
		return nil, r.err()
	case prev == nil:
		r.createElm(next, target, ref)
	case sameVnode(prev, next):
		r.patchVnode(prev, next)
	default:
		r.createElm(next, target, prev.Elm)
		r.removeNode(target, prev)
	}
	return next.Elm, r.err()
}

// Destroy runs component teardown for every component in v's subtree
// without touching the backend. Use it when the output is discarded by
// other means.
func (p *Patcher) Destroy(v *VNode) {
	r := &patch{p: p, b: p.Backend}
	r.destroy(v)
}

// patch is the state of one Patch call.
type patch struct {
	p    *Patcher
	b    Backend
	errs []error
}

func (r *patch) err() error {
	return errors.Join(r.errs...)
}

func (r *patch) op(kind OpKind) {
	if r.p.Observer != nil {
		r.p.Observer.Op(kind)
	}
}

func (r *patch) shape(e *ShapeError) {
	r.p.logger().Warn("tree shape problem", "kind", e.Kind, "parent", e.Parent, "key", e.Key, "detail", e.Detail)
	if r.p.OnShapeError != nil {
		r.p.OnShapeError(e)
	}
}

func (p *Patcher) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// =============================================================================
// Creation and removal
// =============================================================================

// createElm realizes v and its subtree, then inserts it into parent before
// ref. Children are attached before the element itself.
func (r *patch) createElm(v *VNode, parent, ref Node) {
	switch v.Kind {
	case KindComponent:
		r.createComponent(v, parent, ref)
		return
	case KindText:
		v.Elm = r.b.CreateText(v.Text)
		r.op(OpCreate)
	default:
		elm := r.b.CreateNode(Descriptor{Tag: v.Tag, Namespace: v.Namespace})
		v.Elm = elm
		r.op(OpCreate)
		for _, k := range sortedAttrKeys(v.Attrs) {
			r.b.SetAttribute(elm, k, v.Attrs[k])
		}
		for _, c := range v.Children {
			r.createElm(c, elm, nil)
		}
	}
	r.b.InsertBefore(parent, v.Elm, ref)
}

func (r *patch) createComponent(v *VNode, parent, ref Node) {
	if r.p.Components == nil {
		r.shape(&ShapeError{Kind: "unknown-component", Parent: v.Tag, Detail: "no component host configured"})
		v.Elm = r.b.CreateText("")
		r.op(OpCreate)
		r.b.InsertBefore(parent, v.Elm, ref)
		return
	}
	if err := r.p.Components.Create(r.p, v, parent, ref); err != nil {
		r.errs = append(r.errs, err)
	}
}

// removeNode detaches v's realized node from parent and tears down the
// components inside it.
func (r *patch) removeNode(parent Node, v *VNode) {
	if v.Elm != nil {
		r.b.RemoveChild(parent, v.Elm)
		r.op(OpRemove)
	}
	r.destroy(v)
}

func (r *patch) destroy(v *VNode) {
	if v.Kind == KindComponent {
		if r.p.Components != nil && v.Instance != nil {
			r.p.Components.Destroy(v)
		}
		return
	}
	for _, c := range v.Children {
		r.destroy(c)
	}
}

// =============================================================================
// Patching
// =============================================================================

// patchVnode updates old's realized node in place to match v.
func (r *patch) patchVnode(old, v *VNode) {
	if old == v {
		return
	}
	v.Elm = old.Elm

	switch v.Kind {
	case KindText:
		if old.Text != v.Text {
			r.b.SetText(v.Elm, v.Text)
			r.op(OpSetText)
		}
	case KindComponent:
		if r.p.Components == nil {
			return
		}
		if err := r.p.Components.Update(old, v); err != nil {
			r.errs = append(r.errs, err)
		}
	default:
		r.patchAttrs(old, v)
		r.updateChildren(v, old.Children, v.Children)
	}
}

// patchAttrs sets attributes that are new or changed and removes those
// that are gone.
func (r *patch) patchAttrs(old, v *VNode) {
	for _, k := range sortedAttrKeys(v.Attrs) {
		nv := v.Attrs[k]
		if ov, ok := old.Attrs[k]; ok && propsEqual(ov, nv) {
			continue
		}
		r.b.SetAttribute(v.Elm, k, nv)
		r.op(OpSetAttr)
	}
	for _, k := range sortedAttrKeys(old.Attrs) {
		if _, ok := v.Attrs[k]; !ok {
			r.b.RemoveAttribute(v.Elm, k)
			r.op(OpRemoveAttr)
		}
	}
}

// updateChildren reconciles the children of parent. The common prefix and
// suffix are patched in place; what is left in the middle is matched by
// position when nobody has a key, and by key otherwise.
func (r *patch) updateChildren(parent *VNode, c1, c2 []*VNode) {
	elm := parent.Elm
	i, e1, e2 := 0, len(c1)-1, len(c2)-1

	for i <= e1 && i <= e2 && sameVnode(c1[i], c2[i]) {
		r.patchVnode(c1[i], c2[i])
		i++
	}
	for i <= e1 && i <= e2 && sameVnode(c1[e1], c2[e2]) {
		r.patchVnode(c1[e1], c2[e2])
		e1--
		e2--
	}

	switch {
	case i > e1:
		// Only new nodes left.
		ref := anchor(c2, e2+1)
		for j := i; j <= e2; j++ {
			r.createElm(c2[j], elm, ref)
		}
	case i > e2:
		// Only old nodes left.
		for j := i; j <= e1; j++ {
			r.removeNode(elm, c1[j])
		}
	case !anyKeyed(c1[i:e1+1]) && !anyKeyed(c2[i:e2+1]):
		r.patchPositional(elm, c1[i:e1+1], c2[i:e2+1], anchor(c2, e2+1))
	default:
		r.patchKeyed(parent, c1, c2, i, e1, e2)
	}
}

// patchPositional pairs old and new children by index.
func (r *patch) patchPositional(parent Node, old, next []*VNode, ref Node) {
	n := min(len(old), len(next))
	for j := 0; j < n; j++ {
		if sameVnode(old[j], next[j]) {
			r.patchVnode(old[j], next[j])
			continue
		}
		r.createElm(next[j], parent, old[j].Elm)
		r.removeNode(parent, old[j])
	}
	for j := n; j < len(next); j++ {
		r.createElm(next[j], parent, ref)
	}
	for j := n; j < len(old); j++ {
		r.removeNode(parent, old[j])
	}
}

// patchKeyed reconciles c1[s:e1+1] against c2[s:e2+1] when keys are in
// play. Reused nodes on the longest increasing run of old positions stay
// put; every other reused node is moved once.
func (r *patch) patchKeyed(parent *VNode, c1, c2 []*VNode, s, e1, e2 int) {
	elm := parent.Elm

	keyToOld := make(map[string]int, e1-s+1)
	for j := s; j <= e1; j++ {
		k := c1[j].Key
		if k == "" {
			continue
		}
		if _, dup := keyToOld[k]; dup {
			r.shape(&ShapeError{Kind: "duplicate-key", Parent: parent.Tag, Key: k, Detail: "previous children; later occurrence is replaced"})
			continue
		}
		keyToOld[k] = j
	}

	count := e2 - s + 1
	// newToOld[j] is 1 + old index of the node reused at position s+j,
	// or 0 for a node that must be created.
	newToOld := make([]int, count)
	consumed := make([]bool, e1-s+1)
	seen := make(map[string]bool, count)
	moved := false
	maxOld := -1

	for j := s; j <= e2; j++ {
		v := c2[j]
		oldIdx := -1
		if v.Key != "" {
			if seen[v.Key] {
				r.shape(&ShapeError{Kind: "duplicate-key", Parent: parent.Tag, Key: v.Key, Detail: "next children; later occurrence is created fresh"})
			}
			seen[v.Key] = true
			if idx, ok := keyToOld[v.Key]; ok && !consumed[idx-s] && sameVnode(c1[idx], v) {
				oldIdx = idx
			}
		} else {
			for k := s; k <= e1; k++ {
				if !consumed[k-s] && c1[k].Key == "" && sameVnode(c1[k], v) {
					oldIdx = k
					break
				}
			}
		}
		if oldIdx < 0 {
			continue
		}

		consumed[oldIdx-s] = true
		newToOld[j-s] = oldIdx + 1
		if oldIdx > maxOld {
			maxOld = oldIdx
		} else {
			moved = true
		}
		r.patchVnode(c1[oldIdx], v)
	}

	for j := s; j <= e1; j++ {
		if !consumed[j-s] {
			r.removeNode(elm, c1[j])
		}
	}

	var stable []int
	if moved {
		stable = longestIncreasing(newToOld)
	}
	next := len(stable) - 1
	for j := count - 1; j >= 0; j-- {
		v := c2[s+j]
		ref := anchor(c2, s+j+1)
		switch {
		case newToOld[j] == 0:
			r.createElm(v, elm, ref)
		case !moved:
		case next >= 0 && stable[next] == j:
			next--
		default:
			r.b.InsertBefore(elm, v.Elm, ref)
			r.op(OpMove)
		}
	}
}

// anchor returns the realized node at c[i], or nil past the end.
func anchor(c []*VNode, i int) Node {
	if i < len(c) {
		return c[i].Elm
	}
	return nil
}

func anyKeyed(children []*VNode) bool {
	for _, c := range children {
		if c.Key != "" {
			return true
		}
	}
	return false
}

func sortedAttrKeys(a Attrs) []string {
	if len(a) == 0 {
		return nil
	}
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// longestIncreasing returns the positions of a longest strictly increasing
// subsequence of arr, ignoring zero entries.
func longestIncreasing(arr []int) []int {
	prev := make([]int, len(arr))
	result := make([]int, 0, len(arr))

	for i, v := range arr {
		if v == 0 {
			continue
		}
		if n := len(result); n == 0 || arr[result[n-1]] < v {
			if n > 0 {
				prev[i] = result[n-1]
			}
			result = append(result, i)
			continue
		}

		// First entry of result whose value is >= v.
		lo, hi := 0, len(result)-1
		for lo < hi {
			mid := (lo + hi) / 2
			if arr[result[mid]] < v {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if v < arr[result[lo]] {
			if lo > 0 {
				prev[i] = result[lo-1]
			}
			result[lo] = i
		}
	}

	if len(result) == 0 {
		return result
	}
	last := result[len(result)-1]
	for k := len(result) - 1; k >= 0; k-- {
		result[k] = last
		last = prev[last]
	}
	return result
}
