package reactive

import "fmt"

// Set defines key on target as a reactive property and notifies target's
// shape readers. On a [*Record] key must be a string; an existing plain
// property becomes reactive. On a [*List] key must be an int: an index past
// the end grows the list with nils.
//
// Set exists because [Record.Set] cannot make a new key reactive.
func Set(target Observed, key any, value any) error {
	switch t := target.(type) {
	case *Record:
		k, ok := key.(string)
		if !ok {
			return fmt.Errorf("reactive: record key must be a string, got %T", key)
		}
		if p, ok := t.props[k]; ok && p.dep != nil {
			t.Set(k, value)
			return nil
		}
		t.define(k, t.rt.lazyObserve(value))
		t.dep.Notify()
		return nil
	case *List:
		i, ok := key.(int)
		if !ok {
			return fmt.Errorf("reactive: list index must be an int, got %T", key)
		}
		if i < 0 {
			return fmt.Errorf("reactive: list index %d out of range", i)
		}
		if i < len(t.items) {
			t.Splice(i, 1, value)
			return nil
		}
		for len(t.items) < i {
			t.items = append(t.items, nil)
		}
		t.Push(value)
		return nil
	}
	return fmt.Errorf("reactive: cannot set on %T", target)
}

// Delete removes key from target and notifies. On a [*List] it splices the
// item out.
func Delete(target Observed, key any) error {
	switch t := target.(type) {
	case *Record:
		k, ok := key.(string)
		if !ok {
			return fmt.Errorf("reactive: record key must be a string, got %T", key)
		}
		t.Delete(k)
		return nil
	case *List:
		i, ok := key.(int)
		if !ok {
			return fmt.Errorf("reactive: list index must be an int, got %T", key)
		}
		if i < 0 || i >= len(t.items) {
			return nil
		}
		t.Splice(i, 1)
		return nil
	}
	return fmt.Errorf("reactive: cannot delete on %T", target)
}

// Traverse reads every observed value reachable from v, so that the running
// watcher depends on all of it. Cycles are visited once.
func Traverse(v any) {
	traverse(v, make(map[Observed]struct{}))
}

func traverse(v any, seen map[Observed]struct{}) {
	o, ok := v.(Observed)
	if !ok {
		return
	}
	if _, done := seen[o]; done {
		return
	}
	seen[o] = struct{}{}

	switch x := o.(type) {
	case *Record:
		for _, k := range x.Keys() {
			traverse(x.Get(k), seen)
		}
	case *List:
		for _, item := range x.Items() {
			traverse(item, seen)
		}
	}
}
