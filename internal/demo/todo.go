// Package demo is the keyed todo list the reactor command drives.
package demo

import (
	"fmt"

	"github.com/vango-dev/reactor"
	"github.com/vango-dev/reactor/pkg/mount"
	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/vdom"
)

// Filters accepted by SetFilter.
const (
	FilterAll    = "all"
	FilterActive = "active"
	FilterDone   = "done"
)

// Todos is the observed state of the list and its mounted view.
type Todos struct {
	app   *reactor.App
	state *reactive.Record
	inst  *mount.Instance
}

// New observes an empty list titled title.
func New(app *reactor.App, title string) (*Todos, error) {
	v, err := app.Observe(map[string]any{
		"title":  title,
		"filter": FilterAll,
		"next":   1,
		"items":  []any{},
	})
	if err != nil {
		return nil, err
	}
	return &Todos{app: app, state: v.(*reactive.Record)}, nil
}

// Mount renders the list into target, or the app root when target is nil.
func (t *Todos) Mount(target vdom.Node) error {
	inst, err := t.app.Mount(t.render, target, mount.WithName("todos"))
	if err != nil {
		return err
	}
	t.inst = inst
	return nil
}

// Unmount removes the view.
func (t *Todos) Unmount() {
	if t.inst != nil {
		t.app.Unmount(t.inst)
		t.inst = nil
	}
}

// Instance returns the mounted view, or nil.
func (t *Todos) Instance() *mount.Instance { return t.inst }

func (t *Todos) items() *reactive.List {
	return t.state.Get("items").(*reactive.List)
}

// Len returns the number of items.
func (t *Todos) Len() int { return t.items().Len() }

// Add appends an item and returns its id.
func (t *Todos) Add(text string) int {
	id := t.state.Get("next").(int)
	t.state.Set("next", id+1)
	t.items().Push(map[string]any{"id": id, "text": text, "done": false})
	return id
}

// Toggle flips the done flag of item id.
func (t *Todos) Toggle(id int) bool {
	item := t.find(id)
	if item == nil {
		return false
	}
	item.Set("done", !item.Get("done").(bool))
	return true
}

// Rename changes the text of item id.
func (t *Todos) Rename(id int, text string) bool {
	item := t.find(id)
	if item == nil {
		return false
	}
	item.Set("text", text)
	return true
}

// Remove deletes item id.
func (t *Todos) Remove(id int) bool {
	i := t.index(id)
	if i < 0 {
		return false
	}
	t.items().Splice(i, 1)
	return true
}

// Rotate moves the last item to the front.
func (t *Todos) Rotate() {
	items := t.items()
	if items.Len() < 2 {
		return
	}
	last := items.Splice(-1, 1)
	items.Unshift(last...)
}

// ClearDone removes every finished item.
func (t *Todos) ClearDone() int {
	items := t.items()
	removed := 0
	for i := items.Len() - 1; i >= 0; i-- {
		if items.At(i).(*reactive.Record).Get("done").(bool) {
			items.Splice(i, 1)
			removed++
		}
	}
	return removed
}

// DoneCount returns the number of finished items.
func (t *Todos) DoneCount() int {
	items := t.items()
	n := 0
	for i := 0; i < items.Len(); i++ {
		if items.At(i).(*reactive.Record).Get("done").(bool) {
			n++
		}
	}
	return n
}

// SetFilter selects which items are shown.
func (t *Todos) SetFilter(f string) error {
	switch f {
	case FilterAll, FilterActive, FilterDone:
		t.state.Set("filter", f)
		return nil
	}
	return fmt.Errorf("demo: unknown filter %q", f)
}

// SetTitle changes the heading.
func (t *Todos) SetTitle(s string) { t.state.Set("title", s) }

// IDs returns the item ids in order.
func (t *Todos) IDs() []int {
	items := t.items()
	ids := make([]int, items.Len())
	for i := range ids {
		ids[i] = items.At(i).(*reactive.Record).Get("id").(int)
	}
	return ids
}

func (t *Todos) index(id int) int {
	items := t.items()
	for i := 0; i < items.Len(); i++ {
		if items.At(i).(*reactive.Record).Get("id").(int) == id {
			return i
		}
	}
	return -1
}

func (t *Todos) find(id int) *reactive.Record {
	if i := t.index(id); i >= 0 {
		return t.items().At(i).(*reactive.Record)
	}
	return nil
}

func (t *Todos) render() (*vdom.VNode, error) {
	filter := t.state.Get("filter").(string)
	items := t.items()

	var rows []*vdom.VNode
	left := 0
	for i := 0; i < items.Len(); i++ {
		item := items.At(i).(*reactive.Record)
		done := item.Get("done").(bool)
		if !done {
			left++
		}
		if (filter == FilterActive && done) || (filter == FilterDone && !done) {
			continue
		}
		rows = append(rows, vdom.Component("todo-item", Item, vdom.Attrs{"item": item}, vdom.Key(item.Get("id"))))
	}

	return vdom.Section(vdom.Class("todoapp"),
		vdom.Header(vdom.H1(vdom.Text(t.state.Get("title").(string)))),
		vdom.Ul(vdom.Class("todo-list"), rows),
		vdom.Footer(
			vdom.Span(vdom.Class("count"), vdom.Textf("%d left", left)),
			vdom.Span(vdom.Class("filter"), vdom.Text(filter)),
		),
	), nil
}

// Item renders one row from its "item" prop.
func Item(props *reactive.Record) (*vdom.VNode, error) {
	item, ok := props.Get("item").(*reactive.Record)
	if !ok {
		return nil, fmt.Errorf("demo: todo-item needs an item record, got %T", props.Get("item"))
	}
	done := item.Get("done").(bool)
	return vdom.Li(vdom.ClassIf(done, "done"),
		vdom.Input(vdom.Type("checkbox"), vdom.Checked(done)),
		vdom.Span(vdom.Text(item.Get("text").(string))),
	), nil
}
