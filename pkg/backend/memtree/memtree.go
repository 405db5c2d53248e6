// Package memtree is an in-memory backend: a plain element and text tree
// that the patcher mutates. It is what tests and the demo render into.
package memtree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vango-dev/reactor/pkg/vdom"
)

// Node is an element or text node of the tree.
type Node struct {
	Tag       string
	Namespace string
	Text      string
	IsText    bool
	Attrs     map[string]any
	Children  []*Node
	Parent    *Node
}

// Tree is the backend. Its zero value is not usable; call New.
type Tree struct {
	// Root is the container element mounts attach to.
	Root *Node

	// Strict makes impossible operations panic instead of being ignored:
	// removing a node that is not a child, inserting before a foreign ref,
	// or passing a node of another backend.
	Strict bool

	created int
}

// New creates a tree with an empty root element named "#root".
func New() *Tree {
	return &Tree{Root: &Node{Tag: "#root"}}
}

// NewStrict creates a tree in strict mode.
func NewStrict() *Tree {
	t := New()
	t.Strict = true
	return t
}

// Created returns the number of nodes created so far.
func (t *Tree) Created() int {
	return t.created
}

var _ vdom.Backend = (*Tree)(nil)

// CreateNode implements vdom.Backend.
func (t *Tree) CreateNode(d vdom.Descriptor) vdom.Node {
	t.created++
	return &Node{Tag: d.Tag, Namespace: d.Namespace}
}

// CreateText implements vdom.Backend.
func (t *Tree) CreateText(text string) vdom.Node {
	t.created++
	return &Node{Text: text, IsText: true}
}

// SetAttribute implements vdom.Backend.
func (t *Tree) SetAttribute(node vdom.Node, name string, value any) {
	n := t.node(node)
	if n == nil {
		return
	}
	if n.Attrs == nil {
		n.Attrs = make(map[string]any)
	}
	n.Attrs[name] = value
}

// RemoveAttribute implements vdom.Backend.
func (t *Tree) RemoveAttribute(node vdom.Node, name string) {
	if n := t.node(node); n != nil {
		delete(n.Attrs, name)
	}
}

// InsertBefore implements vdom.Backend.
func (t *Tree) InsertBefore(parent, node, ref vdom.Node) {
	p, n := t.node(parent), t.node(node)
	if p == nil || n == nil {
		return
	}
	if n.Parent != nil {
		n.Parent.detach(n)
	}

	idx := len(p.Children)
	if r := t.node(ref); r != nil {
		if i := p.indexOf(r); i >= 0 {
			idx = i
		} else if t.Strict {
			panic(fmt.Sprintf("memtree: insert before %s, which is not a child of %s", r.label(), p.label()))
		}
	}
	p.Children = append(p.Children, nil)
	copy(p.Children[idx+1:], p.Children[idx:])
	p.Children[idx] = n
	n.Parent = p
}

// RemoveChild implements vdom.Backend.
func (t *Tree) RemoveChild(parent, node vdom.Node) {
	p, n := t.node(parent), t.node(node)
	if p == nil || n == nil {
		return
	}
	if p.indexOf(n) < 0 {
		if t.Strict {
			panic(fmt.Sprintf("memtree: remove %s, which is not a child of %s", n.label(), p.label()))
		}
		return
	}
	p.detach(n)
}

// SetText implements vdom.Backend.
func (t *Tree) SetText(node vdom.Node, text string) {
	if n := t.node(node); n != nil {
		n.Text = text
	}
}

func (t *Tree) node(v vdom.Node) *Node {
	if v == nil {
		return nil
	}
	n, ok := v.(*Node)
	if !ok {
		if t.Strict {
			panic(fmt.Sprintf("memtree: foreign node %T", v))
		}
		return nil
	}
	return n
}

func (n *Node) indexOf(c *Node) int {
	for i, child := range n.Children {
		if child == c {
			return i
		}
	}
	return -1
}

func (n *Node) detach(c *Node) {
	if i := n.indexOf(c); i >= 0 {
		n.Children = append(n.Children[:i], n.Children[i+1:]...)
		c.Parent = nil
	}
}

func (n *Node) label() string {
	if n.IsText {
		return fmt.Sprintf("text %q", n.Text)
	}
	return "<" + n.Tag + ">"
}

// TextContent returns the concatenated text of n's subtree.
func (n *Node) TextContent() string {
	if n.IsText {
		return n.Text
	}
	var sb strings.Builder
	for _, c := range n.Children {
		sb.WriteString(c.TextContent())
	}
	return sb.String()
}

// Find returns the first element in n's subtree (n included) whose
// attribute name equals value, or nil.
func (n *Node) Find(name string, value any) *Node {
	if v, ok := n.Attrs[name]; ok && fmt.Sprint(v) == fmt.Sprint(value) {
		return n
	}
	for _, c := range n.Children {
		if f := c.Find(name, value); f != nil {
			return f
		}
	}
	return nil
}

// Dump returns an indented outline of n's subtree, one node per line.
// Attributes are sorted by name.
//
//	<ul class="todos">
//	  <li data-id="1">
//	    "Write docs"
func (n *Node) Dump() string {
	var sb strings.Builder
	n.dump(&sb, 0)
	return sb.String()
}

func (n *Node) dump(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	if n.IsText {
		fmt.Fprintf(sb, "%q\n", n.Text)
		return
	}
	sb.WriteString("<")
	if n.Namespace != "" {
		sb.WriteString(n.Namespace + ":")
	}
	sb.WriteString(n.Tag)
	names := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(sb, " %s=%q", k, fmt.Sprint(n.Attrs[k]))
	}
	sb.WriteString(">\n")
	for _, c := range n.Children {
		c.dump(sb, depth+1)
	}
}
