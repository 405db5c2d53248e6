package vdom

import "fmt"

// ShapeError reports a tree that breaks a reconciliation invariant, such as
// two siblings sharing a key. Shape errors are logged, never returned: the
// patcher resolves them (first match wins) and goes on.
type ShapeError struct {
	Kind   string // "duplicate-key", "unknown-component"
	Parent string // tag of the parent element
	Key    string
	Detail string
}

func (e *ShapeError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("vdom: %s %q under <%s>: %s", e.Kind, e.Key, e.Parent, e.Detail)
	}
	return fmt.Sprintf("vdom: %s under <%s>: %s", e.Kind, e.Parent, e.Detail)
}
