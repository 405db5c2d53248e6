package vdom

import (
	"fmt"
	"strconv"
)

// Text creates a text node.
func Text(content string) *VNode {
	return &VNode{Kind: KindText, Text: content}
}

// Textf creates a text node from a format string.
func Textf(format string, args ...any) *VNode {
	return Text(fmt.Sprintf(format, args...))
}

// Component creates a placeholder for a component named name. The
// ComponentHost given to the Patcher interprets def and receives props.
// Extra attributes may carry the key.
func Component(name string, def any, props Attrs, attrs ...Attr) *VNode {
	node := &VNode{
		Kind:  KindComponent,
		Tag:   name,
		Def:   def,
		Attrs: make(Attrs, len(props)),
	}
	for k, v := range props {
		node.Attrs[k] = v
	}
	for _, a := range attrs {
		node.setAttr(a)
	}
	return node
}

// If returns node when cond holds and nil otherwise. Nil children are
// skipped by the element constructors.
func If(cond bool, node *VNode) *VNode {
	if !cond {
		return nil
	}
	return node
}

// Range builds one node per item. Items for which fn returns nil are left
// out.
func Range[T any](items []T, fn func(item T, index int) *VNode) []*VNode {
	nodes := make([]*VNode, 0, len(items))
	for i := range items {
		if n := fn(items[i], i); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// Repeat builds fn(0) through fn(n-1), leaving out nil results.
func Repeat(n int, fn func(i int) *VNode) []*VNode {
	var nodes []*VNode
	for i := 0; i < n; i++ {
		if node := fn(i); node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// Key sets the reconciliation key. Integers and strings are used as is;
// other values are formatted with %v.
func Key(key any) Attr {
	switch k := key.(type) {
	case string:
		return attr("key", k)
	case int:
		return attr("key", strconv.Itoa(k))
	default:
		return attr("key", fmt.Sprint(k))
	}
}
