// Package mount binds render functions to reactive watchers.
//
// [Mount] runs a render function inside a watcher and patches its output
// under a target node; whenever data the render read changes, the watcher
// re-renders and the patcher applies the difference. A [Host] renders the
// component placeholders of a tree as nested instances whose props live in
// an observed record.
package mount
