// Package vdom describes output as trees of VNodes and reconciles two
// trees against a rendering backend.
//
// # Core Types
//
// VNode is the building block: an element, a text leaf or a component
// placeholder. Attrs holds an element's attributes (or a component's props).
// A VNode describes one render; after patching, its Elm field points at the
// realized backend node.
//
// # Element API
//
// Elements are created with variadic factory functions:
//
//	Ul(Class("todos"),
//	    Range(todos, func(t Todo, _ int) *VNode {
//	        return Li(Key(t.ID), Text(t.Title))
//	    }),
//	)
//
// # Patching
//
// A Patcher compares the previous tree with the next one and applies the
// difference through the seven calls of the Backend interface. Siblings with
// keys are matched by key; unkeyed siblings are matched by position and tag.
// Keyed reordering moves only the nodes that are not on the longest run of
// nodes already in order.
package vdom
