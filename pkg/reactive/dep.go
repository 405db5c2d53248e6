package reactive

import "sort"

// Dep is one observable slot and the watchers subscribed to it.
//
// Every reactive property of a [Record] owns a Dep, and every observed value
// owns one more for changes to its shape (added or removed keys, sequence
// mutations).
type Dep struct {
	rt *Runtime
	id uint64

	// subs are the watchers subscribed to this dependency.
	subs []*Watcher
}

func newDep(rt *Runtime) *Dep {
	return &Dep{rt: rt, id: rt.allocID()}
}

// ID returns the dependency's runtime-unique id.
func (d *Dep) ID() uint64 {
	return d.id
}

// Subscribers returns the number of subscribed watchers.
func (d *Dep) Subscribers() int {
	return len(d.subs)
}

// Depend subscribes the current watcher, if any.
func (d *Dep) Depend() {
	if w := d.rt.Current(); w != nil {
		w.addDep(d)
	}
}

// Notify tells every subscriber that the slot changed. Subscribers are
// notified in creation order.
func (d *Dep) Notify() {
	if len(d.subs) == 0 {
		return
	}

	// Copy first: sync watchers may resubscribe while we iterate.
	subs := make([]*Watcher, len(d.subs))
	copy(subs, d.subs)
	sort.Slice(subs, func(i, j int) bool { return subs[i].id < subs[j].id })

	for _, w := range subs {
		w.update()
	}
}

func (d *Dep) addSub(w *Watcher) {
	d.subs = append(d.subs, w)
}

func (d *Dep) removeSub(w *Watcher) {
	for i, sub := range d.subs {
		if sub == w {
			// Swap-remove; Notify sorts anyway.
			last := len(d.subs) - 1
			d.subs[i] = d.subs[last]
			d.subs[last] = nil
			d.subs = d.subs[:last]
			return
		}
	}
}
