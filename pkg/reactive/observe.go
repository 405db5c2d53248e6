package reactive

import (
	"math"
	"reflect"
	"sort"
)

// Observed is implemented by the values a Runtime tracks: [*Record] and
// [*List]. The interface is closed to other packages.
type Observed interface {
	ownDep() *Dep
	runtime() *Runtime
}

// Frozen marks a value that must never be observed. Store Freeze(v) instead
// of v to keep a large structure out of tracking.
type Frozen struct {
	Value any
}

// Freeze wraps v so that observation leaves it alone.
func Freeze(v any) Frozen {
	return Frozen{Value: v}
}

// Observe makes v reactive.
//
// Records and lists are returned unchanged, as are primitives. A
// map[string]any becomes a *Record and a []any becomes a *List; other
// string-keyed maps, slices and arrays are converted through reflection.
// A frozen or otherwise non-interceptable value is returned unchanged
// together with an *ObservationError.
//
// A map or slice observed before returns the handle made the first time,
// however it is reached. Arrays are values and get a new list each time.
func (rt *Runtime) Observe(v any) (any, error) {
	id, ok := identityOf(v)
	if ok {
		if e, hit := rt.observed[id]; hit {
			return e.handle, nil
		}
	}
	o, err := rt.observe(v)
	if ok && err == nil {
		if h, isObserved := o.(Observed); isObserved {
			if rt.observed == nil {
				rt.observed = make(map[identity]observedEntry)
			}
			rt.observed[id] = observedEntry{raw: v, handle: h}
		}
	}
	return o, err
}

// identity names a map or a slice window by its backing storage.
type identity struct {
	typ reflect.Type
	ptr uintptr
	len int
}

// observedEntry keeps the raw value alive so its address is not reused
// while the entry exists.
type observedEntry struct {
	raw    any
	handle Observed
}

func identityOf(v any) (identity, bool) {
	if v == nil {
		return identity{}, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return identity{}, false
		}
		return identity{typ: rv.Type(), ptr: rv.Pointer()}, true
	case reflect.Slice:
		// Empty slices may share one zero-size allocation.
		if rv.Len() == 0 {
			return identity{}, false
		}
		return identity{typ: rv.Type(), ptr: rv.Pointer(), len: rv.Len()}, true
	}
	return identity{}, false
}

func (rt *Runtime) observe(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case Observed:
		return x, nil
	case Frozen:
		return x.Value, &ObservationError{Type: typeName(x.Value), Reason: "value is frozen"}
	case map[string]any:
		return rt.newRecord(x), nil
	case []any:
		return rt.newList(x), nil
	case []byte:
		return x, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return v, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v, &ObservationError{Type: rv.Type().String(), Reason: "map keys are not strings"}
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return rt.newRecord(m), nil
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return rt.newList(items), nil
	}
	return v, &ObservationError{Type: rv.Type().String(), Reason: "kind " + rv.Kind().String() + " cannot be intercepted"}
}

// lazyObserve observes a nested value on first access. Failures keep the raw
// value.
func (rt *Runtime) lazyObserve(v any) any {
	if !isStructured(v) {
		return v
	}
	o, err := rt.Observe(v)
	if err != nil {
		rt.logger.Debug("value left unobserved", "error", err)
		return v
	}
	return o
}

// isStructured reports whether v is a map or sequence that observation would
// wrap.
func isStructured(v any) bool {
	switch v.(type) {
	case nil, []byte, Frozen, Observed:
		return false
	case map[string]any, []any:
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return true
	}
	return false
}

// sameValue is the change test used before notifying: NaN equals NaN,
// reference types compare by identity, comparable values with ==.
func sameValue(a, b any) bool {
	if fa, ok := a.(float64); ok {
		if fb, ok := b.(float64); ok {
			return fa == fb || (math.IsNaN(fa) && math.IsNaN(fb))
		}
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	case reflect.Func:
		return false
	}
	if !va.Type().Comparable() {
		return false
	}
	return safeEqual(a, b)
}

// safeEqual compares with ==, treating a runtime comparison panic (an
// interface field holding an uncomparable value) as "different".
func safeEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

func unfreeze(v any) any {
	if f, ok := v.(Frozen); ok {
		return f.Value
	}
	return v
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
