package reactive

import (
	"errors"
	"slices"
	"sort"
	"time"
)

// Scheduler batches invalidated watchers and runs them once per flush, in
// ascending id order. Parents are created before their children, so they
// re-render first.
type Scheduler struct {
	rt *Runtime

	queue []*Watcher
	has   map[uint64]bool

	// waiting is set once a flush has been scheduled for the current cycle.
	waiting  bool
	flushing bool
	index    int

	// runs counts executions per watcher in the current flush.
	runs    map[uint64]int
	dropped map[uint64]bool

	// ticks hold NextTick callbacks in synchronous mode.
	ticks []func()
}

func newScheduler(rt *Runtime) *Scheduler {
	return &Scheduler{
		rt:      rt,
		has:     make(map[uint64]bool),
		runs:    make(map[uint64]int),
		dropped: make(map[uint64]bool),
	}
}

// Len returns the number of queued watchers that have not run yet.
func (s *Scheduler) Len() int {
	if s.flushing {
		return len(s.queue) - s.index - 1
	}
	return len(s.queue)
}

// Flushing reports whether a flush is in progress.
func (s *Scheduler) Flushing() bool {
	return s.flushing
}

// Queue adds w to the pending set. A watcher already queued is ignored.
// During a flush, w is inserted by id after the running position, so it still
// runs in this flush.
func (s *Scheduler) Queue(w *Watcher) {
	if !w.active || s.has[w.id] {
		return
	}
	s.has[w.id] = true

	if !s.flushing {
		s.queue = append(s.queue, w)
	} else {
		i := len(s.queue) - 1
		for i > s.index && s.queue[i].id > w.id {
			i--
		}
		s.queue = slices.Insert(s.queue, i+1, w)
	}

	if !s.waiting {
		s.waiting = true
		s.rt.schedule()
	}
}

// remove takes a torn-down watcher out of the pending set.
func (s *Scheduler) remove(w *Watcher) {
	if !s.has[w.id] {
		return
	}
	delete(s.has, w.id)
	start := 0
	if s.flushing {
		start = s.index + 1
	}
	for i := start; i < len(s.queue); i++ {
		if s.queue[i] == w {
			s.queue = slices.Delete(s.queue, i, i+1)
			return
		}
	}
}

// Flush runs every queued watcher, including watchers queued while the
// flush is running. It then calls the After hooks of the watchers that ran
// and the pending NextTick callbacks.
//
// A watcher that runs more than the runtime's MaxUpdateCount times yields a
// *CycleError and is dropped for the rest of the flush; the others keep
// running. Flush returns every error of the cycle joined. A Flush called from
// inside a running flush does nothing.
func (s *Scheduler) Flush() error {
	if s.flushing {
		return nil
	}
	if len(s.queue) == 0 {
		s.reset()
		s.runTicks()
		return nil
	}

	s.flushing = true
	start := time.Now()
	queued := len(s.queue)
	s.rt.instr.FlushStarted(queued)

	sort.Slice(s.queue, func(i, j int) bool { return s.queue[i].id < s.queue[j].id })

	var (
		errs   []error
		ran    []*Watcher
		cycles int
	)
	for s.index = 0; s.index < len(s.queue); s.index++ {
		w := s.queue[s.index]
		if s.dropped[w.id] || !w.active {
			continue
		}

		s.runs[w.id]++
		if s.runs[w.id] > s.rt.maxUpdates {
			// Leave has set so the watcher cannot be queued again.
			s.dropped[w.id] = true
			s.has[w.id] = true
			cycles++
			cerr := &CycleError{Watcher: w.label, ID: w.id, Limit: s.rt.maxUpdates}
			s.rt.logger.Error("update loop detected", "watcher", w.label, "id", w.id, "limit", s.rt.maxUpdates)
			errs = append(errs, cerr)
			continue
		}

		if w.before != nil {
			w.before()
		}
		delete(s.has, w.id)
		if err := w.Run(); err != nil {
			errs = append(errs, err)
			continue
		}
		ran = append(ran, w)
	}

	err := errors.Join(errs...)
	stats := FlushStats{
		Queued:   queued,
		Ran:      len(ran),
		Cycles:   cycles,
		Duration: time.Since(start),
		Err:      err,
	}
	s.reset()
	s.callAfter(ran)

	s.rt.logger.Debug("flush complete",
		"queued", stats.Queued, "ran", stats.Ran, "cycles", stats.Cycles, "duration", stats.Duration)
	s.rt.instr.FlushFinished(stats)

	s.runTicks()
	return err
}

func (s *Scheduler) reset() {
	s.queue = s.queue[:0]
	s.index = 0
	s.flushing = false
	s.waiting = false
	clear(s.has)
	clear(s.runs)
	clear(s.dropped)
}

// callAfter runs After hooks once per watcher, last queued first.
func (s *Scheduler) callAfter(ran []*Watcher) {
	seen := make(map[uint64]bool, len(ran))
	for i := len(ran) - 1; i >= 0; i-- {
		w := ran[i]
		if w.after == nil || !w.active || seen[w.id] {
			continue
		}
		seen[w.id] = true
		w.after()
	}
}

func (s *Scheduler) runTicks() {
	for len(s.ticks) > 0 {
		ticks := s.ticks
		s.ticks = nil
		for _, fn := range ticks {
			fn()
		}
	}
}
