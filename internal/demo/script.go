package demo

import (
	"fmt"
	"io"

	"github.com/vango-dev/reactor"
	"github.com/vango-dev/reactor/pkg/backend/memtree"
	"github.com/vango-dev/reactor/pkg/backend/recorder"
)

// Step is one scripted mutation of the list.
type Step struct {
	Name  string
	Apply func(t *Todos) error
}

// Script returns the scripted session: adds, a toggle, a reorder, a rename,
// a filter change and removals.
func Script() []Step {
	return []Step{
		{"add three", func(t *Todos) error {
			t.Add("write tests")
			t.Add("wire metrics")
			t.Add("ship it")
			return nil
		}},
		{"toggle first", func(t *Todos) error { return toggle(t, 0) }},
		{"rotate", func(t *Todos) error { t.Rotate(); return nil }},
		{"rename title", func(t *Todos) error { t.SetTitle("Release"); return nil }},
		{"insert", func(t *Todos) error { t.Add("write changelog"); return nil }},
		{"show active", func(t *Todos) error { return t.SetFilter(FilterActive) }},
		{"show all", func(t *Todos) error { return t.SetFilter(FilterAll) }},
		{"clear done", func(t *Todos) error {
			if t.ClearDone() == 0 {
				return fmt.Errorf("demo: nothing to clear")
			}
			return nil
		}},
		{"remove first", func(t *Todos) error {
			ids := t.IDs()
			if len(ids) == 0 || !t.Remove(ids[0]) {
				return fmt.Errorf("demo: nothing to remove")
			}
			return nil
		}},
	}
}

func toggle(t *Todos, i int) error {
	ids := t.IDs()
	if i >= len(ids) {
		return fmt.Errorf("demo: no item %d", i)
	}
	t.Toggle(ids[i])
	return nil
}

// Tick applies the n-th step of an endless session that keeps the list
// between two and six items. It returns the step's name.
func Tick(t *Todos, n int) string {
	switch {
	case t.Len() < 2:
		t.Add(fmt.Sprintf("task %d", n))
		return "add"
	case t.Len() >= 6:
		t.Remove(t.IDs()[0])
		return "remove"
	}
	switch n % 4 {
	case 0:
		t.Add(fmt.Sprintf("task %d", n))
		return "add"
	case 1:
		ids := t.IDs()
		t.Toggle(ids[n%len(ids)])
		return "toggle"
	case 2:
		t.Rotate()
		return "rotate"
	default:
		if t.Len()-t.DoneCount() >= 2 && t.ClearDone() > 0 {
			return "clear"
		}
		t.Rename(t.IDs()[0], fmt.Sprintf("task %d (edited)", n))
		return "rename"
	}
}

// Result is what one step did to the output.
type Result struct {
	Step    string
	Creates int
	Moves   int
	Removes int
	Total   int
	Outline string
}

// Run plays the first n steps of Script (all of them when n <= 0) against
// an in-memory tree, flushing once per step, and writes a report to w.
func Run(w io.Writer, n int, opts ...reactor.Option) ([]Result, error) {
	tree := memtree.NewStrict()
	rec := recorder.New(tree)
	app := reactor.New(append(opts, reactor.WithBackend(rec))...)

	todos, err := New(app, "Todos")
	if err != nil {
		return nil, err
	}
	if err := todos.Mount(tree.Root); err != nil {
		return nil, err
	}
	defer todos.Unmount()

	steps := Script()
	if n > 0 && n < len(steps) {
		steps = steps[:n]
	}
	results := make([]Result, 0, len(steps))
	for i, step := range steps {
		rec.Reset()
		var stepErr error
		if err := app.Batch(func() { stepErr = step.Apply(todos) }); err != nil {
			return results, fmt.Errorf("step %q: %w", step.Name, err)
		}
		if stepErr != nil {
			return results, fmt.Errorf("step %q: %w", step.Name, stepErr)
		}
		r := Result{
			Step:    step.Name,
			Creates: rec.Creates(),
			Moves:   rec.Moves(),
			Removes: rec.Removes(),
			Total:   rec.Mutations(),
			Outline: tree.Root.Dump(),
		}
		results = append(results, r)
		if w != nil {
			fmt.Fprintf(w, "step %d: %s (%s)\n%s\n", i+1, step.Name, rec.Summary(), r.Outline)
		}
	}
	return results, nil
}
