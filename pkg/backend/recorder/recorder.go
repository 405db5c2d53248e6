// Package recorder wraps a backend and records every call made to it.
package recorder

import (
	"fmt"
	"strings"

	"github.com/vango-dev/reactor/pkg/vdom"
)

// Kind is the type of a recorded call.
type Kind uint8

const (
	CreateNode Kind = iota + 1
	CreateText
	SetAttribute
	RemoveAttribute
	Insert // InsertBefore of a detached node
	Move   // InsertBefore of an attached node
	Remove
	SetText
)

var kindNames = [...]string{
	CreateNode:      "create-node",
	CreateText:      "create-text",
	SetAttribute:    "set-attr",
	RemoveAttribute: "remove-attr",
	Insert:          "insert",
	Move:            "move",
	Remove:          "remove",
	SetText:         "set-text",
}

// String returns the string representation of the Kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Op is one recorded call.
type Op struct {
	Kind  Kind
	Tag   string // CreateNode
	Name  string // SetAttribute, RemoveAttribute
	Text  string // CreateText, SetText
	Value any    // SetAttribute
}

// String renders the op compactly, e.g. `set-attr class="x"`.
func (o Op) String() string {
	switch o.Kind {
	case CreateNode:
		return o.Kind.String() + " " + o.Tag
	case CreateText, SetText:
		return fmt.Sprintf("%s %q", o.Kind, o.Text)
	case SetAttribute:
		return fmt.Sprintf("%s %s=%v", o.Kind, o.Name, o.Value)
	case RemoveAttribute:
		return o.Kind.String() + " " + o.Name
	}
	return o.Kind.String()
}

// Recorder is a vdom.Backend that forwards to an inner backend and records
// the calls. Nodes of the inner backend must be comparable.
type Recorder struct {
	inner    vdom.Backend
	ops      []Op
	attached map[vdom.Node]bool
}

var _ vdom.Backend = (*Recorder)(nil)

// New wraps inner.
func New(inner vdom.Backend) *Recorder {
	return &Recorder{inner: inner, attached: make(map[vdom.Node]bool)}
}

// Ops returns the recorded calls.
func (r *Recorder) Ops() []Op {
	return r.ops
}

// Reset forgets recorded calls, keeping the attachment state.
func (r *Recorder) Reset() {
	r.ops = nil
}

// Mutations returns the number of recorded calls.
func (r *Recorder) Mutations() int {
	return len(r.ops)
}

// Count returns the number of calls of kind k.
func (r *Recorder) Count(k Kind) int {
	n := 0
	for _, op := range r.ops {
		if op.Kind == k {
			n++
		}
	}
	return n
}

// Creates counts created nodes, elements and text.
func (r *Recorder) Creates() int {
	return r.Count(CreateNode) + r.Count(CreateText)
}

// Moves counts InsertBefore calls on attached nodes.
func (r *Recorder) Moves() int {
	return r.Count(Move)
}

// Removes counts RemoveChild calls.
func (r *Recorder) Removes() int {
	return r.Count(Remove)
}

// Summary renders the counts, e.g. "creates=2 moves=1 removes=0 total=5".
func (r *Recorder) Summary() string {
	return fmt.Sprintf("creates=%d moves=%d removes=%d total=%d", r.Creates(), r.Moves(), r.Removes(), r.Mutations())
}

// Strings returns every recorded op rendered with Op.String.
func (r *Recorder) Strings() []string {
	out := make([]string, len(r.ops))
	for i, op := range r.ops {
		out[i] = op.String()
	}
	return out
}

// Log renders the recorded ops one per line.
func (r *Recorder) Log() string {
	return strings.Join(r.Strings(), "\n")
}

func (r *Recorder) record(op Op) {
	r.ops = append(r.ops, op)
}

// CreateNode implements vdom.Backend.
func (r *Recorder) CreateNode(d vdom.Descriptor) vdom.Node {
	r.record(Op{Kind: CreateNode, Tag: d.Tag})
	return r.inner.CreateNode(d)
}

// CreateText implements vdom.Backend.
func (r *Recorder) CreateText(text string) vdom.Node {
	r.record(Op{Kind: CreateText, Text: text})
	return r.inner.CreateText(text)
}

// SetAttribute implements vdom.Backend.
func (r *Recorder) SetAttribute(node vdom.Node, name string, value any) {
	r.record(Op{Kind: SetAttribute, Name: name, Value: value})
	r.inner.SetAttribute(node, name, value)
}

// RemoveAttribute implements vdom.Backend.
func (r *Recorder) RemoveAttribute(node vdom.Node, name string) {
	r.record(Op{Kind: RemoveAttribute, Name: name})
	r.inner.RemoveAttribute(node, name)
}

// InsertBefore implements vdom.Backend.
func (r *Recorder) InsertBefore(parent, node, ref vdom.Node) {
	if r.attached[node] {
		r.record(Op{Kind: Move})
	} else {
		r.record(Op{Kind: Insert})
	}
	r.attached[node] = true
	r.inner.InsertBefore(parent, node, ref)
}

// RemoveChild implements vdom.Backend.
func (r *Recorder) RemoveChild(parent, node vdom.Node) {
	r.record(Op{Kind: Remove})
	delete(r.attached, node)
	r.inner.RemoveChild(parent, node)
}

// SetText implements vdom.Backend.
func (r *Recorder) SetText(node vdom.Node, text string) {
	r.record(Op{Kind: SetText, Text: text})
	r.inner.SetText(node, text)
}
