package reactive

// Record is an observed string-keyed record.
//
// Keys present when the record was observed (and keys defined later with
// [Set]) are reactive: each has its own [Dep]. A key first written through
// [Record.Set] is stored as a plain property and is not tracked until it is
// redefined with [Set].
type Record struct {
	rt  *Runtime
	dep *Dep

	// keys keeps insertion order; observation inserts initial keys sorted.
	keys  []string
	props map[string]*property
}

type property struct {
	value any

	// dep is nil for plain, untracked properties.
	dep *Dep
}

func (rt *Runtime) newRecord(m map[string]any) *Record {
	r := &Record{
		rt:    rt,
		dep:   newDep(rt),
		keys:  make([]string, 0, len(m)),
		props: make(map[string]*property, len(m)),
	}
	for _, k := range sortedKeys(m) {
		r.define(k, m[k])
	}
	return r
}

func (r *Record) ownDep() *Dep      { return r.dep }
func (r *Record) runtime() *Runtime { return r.rt }

// Dep returns the record's own dependency, notified on shape changes.
func (r *Record) Dep() *Dep {
	return r.dep
}

// Get returns the value stored at key, or nil. A structured value is
// observed on first access, so Get returns a *Record or *List for it.
//
// While a watcher runs, Get subscribes it to the key. A missing key
// subscribes it to the record's shape instead, so defining the key later
// with [Set] re-runs the reader.
func (r *Record) Get(key string) any {
	p, ok := r.props[key]
	if !ok {
		r.dep.Depend()
		return nil
	}
	if p.dep == nil {
		return unfreeze(p.value)
	}

	p.value = r.rt.lazyObserve(p.value)
	if r.rt.Current() != nil {
		p.dep.Depend()
		dependChild(p.value)
	}
	return unfreeze(p.value)
}

// Has reports whether key is present. It subscribes to the record's shape.
func (r *Record) Has(key string) bool {
	r.dep.Depend()
	_, ok := r.props[key]
	return ok
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	r.dep.Depend()
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of keys.
func (r *Record) Len() int {
	r.dep.Depend()
	return len(r.keys)
}

// Set writes key. Writing an unchanged value notifies nobody. A structured
// value is observed before it is stored.
//
// Setting a key the record does not have adds a plain property; use [Set]
// to add a reactive one.
func (r *Record) Set(key string, v any) {
	p, ok := r.props[key]
	if !ok {
		r.keys = append(r.keys, key)
		r.props[key] = &property{value: v}
		return
	}
	if p.dep == nil {
		p.value = v
		return
	}
	if sameValue(unfreeze(p.value), unfreeze(v)) {
		return
	}
	p.value = r.rt.lazyObserve(v)
	p.dep.Notify()
}

// Delete removes key and notifies the key's readers and the record's shape
// readers.
func (r *Record) Delete(key string) {
	p, ok := r.props[key]
	if !ok {
		return
	}
	delete(r.props, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
	if p.dep != nil {
		p.dep.Notify()
	}
	r.dep.Notify()
}

// Raw returns a deep plain copy without subscribing to anything.
func (r *Record) Raw() map[string]any {
	out := make(map[string]any, len(r.keys))
	for _, k := range r.keys {
		out[k] = raw(r.props[k].value)
	}
	return out
}

// define adds or replaces key as a reactive property.
func (r *Record) define(key string, v any) {
	if _, ok := r.props[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.props[key] = &property{value: v, dep: newDep(r.rt)}
}

// dependChild subscribes the current watcher to the shape of an observed
// child, and of observed elements when the child is a list.
func dependChild(v any) {
	switch x := v.(type) {
	case *Record:
		x.dep.Depend()
	case *List:
		x.dep.Depend()
		for _, item := range x.items {
			dependChild(item)
		}
	}
}

func raw(v any) any {
	switch x := v.(type) {
	case *Record:
		return x.Raw()
	case *List:
		return x.Raw()
	case Frozen:
		return x.Value
	}
	return v
}
