package reactive

import "sort"

// List is an observed sequence.
//
// Indices are not intercepted one by one: every read subscribes to the
// list's own dependency, and every mutation method notifies it.
type List struct {
	rt    *Runtime
	dep   *Dep
	items []any
}

func (rt *Runtime) newList(items []any) *List {
	l := &List{rt: rt, dep: newDep(rt), items: make([]any, len(items))}
	copy(l.items, items)
	return l
}

func (l *List) ownDep() *Dep      { return l.dep }
func (l *List) runtime() *Runtime { return l.rt }

// Dep returns the list's own dependency.
func (l *List) Dep() *Dep {
	return l.dep
}

// Len returns the number of items.
func (l *List) Len() int {
	l.dep.Depend()
	return len(l.items)
}

// At returns item i, or nil when i is out of range. Structured items are
// observed on first access.
func (l *List) At(i int) any {
	l.dep.Depend()
	if i < 0 || i >= len(l.items) {
		return nil
	}
	v := l.child(i)
	if l.rt.Current() != nil {
		dependChild(v)
	}
	return unfreeze(v)
}

// Items returns a copy of the items, with structured items observed.
func (l *List) Items() []any {
	l.dep.Depend()
	out := make([]any, len(l.items))
	for i := range l.items {
		v := l.child(i)
		if l.rt.Current() != nil {
			dependChild(v)
		}
		out[i] = unfreeze(v)
	}
	return out
}

// SetAt replaces item i. Out-of-range indices are ignored; use [Set] to grow
// the list.
func (l *List) SetAt(i int, v any) {
	if i < 0 || i >= len(l.items) {
		return
	}
	if sameValue(unfreeze(l.items[i]), unfreeze(v)) {
		return
	}
	l.items[i] = l.rt.lazyObserve(v)
	l.dep.Notify()
}

// Push appends items and returns the new length.
func (l *List) Push(items ...any) int {
	if len(items) == 0 {
		return len(l.items)
	}
	l.items = append(l.items, l.observeAll(items)...)
	l.dep.Notify()
	return len(l.items)
}

// Pop removes and returns the last item.
func (l *List) Pop() (any, bool) {
	if len(l.items) == 0 {
		return nil, false
	}
	last := len(l.items) - 1
	v := l.items[last]
	l.items[last] = nil
	l.items = l.items[:last]
	l.dep.Notify()
	return unfreeze(v), true
}

// Shift removes and returns the first item.
func (l *List) Shift() (any, bool) {
	if len(l.items) == 0 {
		return nil, false
	}
	v := l.items[0]
	l.items = append(l.items[:0], l.items[1:]...)
	l.dep.Notify()
	return unfreeze(v), true
}

// Unshift prepends items and returns the new length.
func (l *List) Unshift(items ...any) int {
	if len(items) == 0 {
		return len(l.items)
	}
	l.items = append(l.observeAll(items), l.items...)
	l.dep.Notify()
	return len(l.items)
}

// Splice removes deleteCount items at start, inserts items there, and
// returns the removed items. start is clamped to the list; a negative start
// counts from the end.
func (l *List) Splice(start, deleteCount int, items ...any) []any {
	n := len(l.items)
	if start < 0 {
		start = max(n+start, 0)
	}
	start = min(start, n)
	deleteCount = max(min(deleteCount, n-start), 0)
	if deleteCount == 0 && len(items) == 0 {
		return nil
	}

	removed := make([]any, deleteCount)
	for i := range removed {
		removed[i] = unfreeze(l.items[start+i])
	}

	tail := append([]any(nil), l.items[start+deleteCount:]...)
	l.items = append(append(l.items[:start], l.observeAll(items)...), tail...)
	l.dep.Notify()
	return removed
}

// Sort sorts the items in place with a stable sort.
func (l *List) Sort(less func(a, b any) bool) {
	if len(l.items) < 2 {
		return
	}
	sort.SliceStable(l.items, func(i, j int) bool {
		return less(unfreeze(l.items[i]), unfreeze(l.items[j]))
	})
	l.dep.Notify()
}

// Reverse reverses the items in place.
func (l *List) Reverse() {
	if len(l.items) < 2 {
		return
	}
	for i, j := 0, len(l.items)-1; i < j; i, j = i+1, j-1 {
		l.items[i], l.items[j] = l.items[j], l.items[i]
	}
	l.dep.Notify()
}

// Raw returns a deep plain copy without subscribing to anything.
func (l *List) Raw() []any {
	out := make([]any, len(l.items))
	for i, v := range l.items {
		out[i] = raw(v)
	}
	return out
}

func (l *List) child(i int) any {
	l.items[i] = l.rt.lazyObserve(l.items[i])
	return l.items[i]
}

func (l *List) observeAll(items []any) []any {
	out := make([]any, len(items))
	for i, v := range items {
		out[i] = l.rt.lazyObserve(v)
	}
	return out
}
