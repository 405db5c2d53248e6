package vdom

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement   VKind = iota // <div>, <li>, etc.
	KindText                   // Plain text leaf
	KindComponent              // Placeholder rendered by a ComponentHost
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindComponent:
		return "Component"
	default:
		return "Unknown"
	}
}

// Node is a realized backend node. Backends choose the concrete type; it
// must be comparable (a pointer or an id).
type Node any

// VNode is the virtual node.
type VNode struct {
	Kind      VKind    // Node type
	Tag       string   // Element tag, or component name
	Namespace string   // Element namespace ("" for the default one)
	Attrs     Attrs    // Attributes, or props for components
	Children  []*VNode // Child nodes
	Key       string   // Reconciliation key ("" when unkeyed)
	Text      string   // For KindText

	// Def is the component definition for KindComponent. The patcher never
	// looks inside it; the ComponentHost does.
	Def any

	// Elm is the realized node. It is written by the patcher (or, for
	// components, by the host) and never owns the node.
	Elm Node

	// Instance is the host's handle for a mounted component.
	Instance any
}

// Attrs holds attributes.
type Attrs map[string]any

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// HasKey reports whether the node carries an explicit key.
func (v *VNode) HasKey() bool {
	return v != nil && v.Key != ""
}

// sameVnode reports whether b can be patched in place of a: same kind, same
// key, same tag and namespace. Components match on name.
func sameVnode(a, b *VNode) bool {
	return a.Kind == b.Kind &&
		a.Key == b.Key &&
		a.Tag == b.Tag &&
		a.Namespace == b.Namespace
}

// Walk calls fn for v and every descendant, depth first. Component
// placeholders are visited but not entered.
func Walk(v *VNode, fn func(*VNode)) {
	if v == nil {
		return
	}
	fn(v)
	for _, c := range v.Children {
		Walk(c, fn)
	}
}
