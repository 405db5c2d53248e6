package vdom

// Descriptor describes an element to create.
type Descriptor struct {
	Tag       string
	Namespace string
}

// Backend is the capability set the patcher drives. It is all the patcher
// knows about the output; nothing else is ever called.
type Backend interface {
	CreateNode(d Descriptor) Node
	CreateText(text string) Node
	SetAttribute(node Node, name string, value any)
	RemoveAttribute(node Node, name string)

	// InsertBefore inserts node into parent before ref, or at the end when
	// ref is nil. A node that is already attached somewhere is moved.
	InsertBefore(parent, node, ref Node)

	RemoveChild(parent, node Node)
	SetText(node Node, text string)
}

// ComponentHost renders component placeholders. The patcher hands every
// KindComponent node to the host instead of creating output itself.
type ComponentHost interface {
	// Create mounts the component described by v, inserts its output into
	// parent before ref and sets v.Elm. It must leave v.Elm set even on
	// failure, so the tree stays consistent.
	Create(p *Patcher, v *VNode, parent, ref Node) error

	// Update carries prev's instance over to next and passes next's props.
	Update(prev, next *VNode) error

	// Destroy unmounts the component. Its output is removed by the patcher.
	Destroy(v *VNode)
}

// OpKind classifies the mutations a patch performs.
type OpKind uint8

const (
	OpCreate     OpKind = iota + 1 // Node created
	OpRemove                       // Subtree removed
	OpMove                         // Existing node moved
	OpSetAttr                      // Attribute set or changed
	OpRemoveAttr                   // Attribute removed
	OpSetText                      // Text changed
)

// String returns the string representation of the OpKind.
func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpRemove:
		return "remove"
	case OpMove:
		return "move"
	case OpSetAttr:
		return "set-attr"
	case OpRemoveAttr:
		return "remove-attr"
	case OpSetText:
		return "set-text"
	default:
		return "unknown"
	}
}

// OpObserver is told about every mutation a patch performs.
type OpObserver interface {
	Op(kind OpKind)
}

// OpObserverFunc adapts a function to OpObserver.
type OpObserverFunc func(kind OpKind)

// Op implements OpObserver.
func (f OpObserverFunc) Op(kind OpKind) { f(kind) }
