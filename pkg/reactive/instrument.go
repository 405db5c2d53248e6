package reactive

import "time"

// Instrumentation observes the scheduler. Implementations must be cheap;
// they run inside the flush.
type Instrumentation interface {
	// FlushStarted is called before a flush runs its queue.
	FlushStarted(queued int)

	// FlushFinished is called after the queue has run, before After hooks.
	FlushFinished(stats FlushStats)

	// WatcherRan is called after every watcher evaluation, inside or outside
	// a flush.
	WatcherRan(label string, d time.Duration, err error)
}

// FlushStats summarizes one flush.
type FlushStats struct {
	Queued   int
	Ran      int
	Cycles   int
	Duration time.Duration
	Err      error
}

// MultiInstrumentation fans out to several instrumentations in order.
type MultiInstrumentation []Instrumentation

func (m MultiInstrumentation) FlushStarted(queued int) {
	for _, i := range m {
		i.FlushStarted(queued)
	}
}

func (m MultiInstrumentation) FlushFinished(stats FlushStats) {
	for _, i := range m {
		i.FlushFinished(stats)
	}
}

func (m MultiInstrumentation) WatcherRan(label string, d time.Duration, err error) {
	for _, i := range m {
		i.WatcherRan(label, d, err)
	}
}

type nopInstrumentation struct{}

func (nopInstrumentation) FlushStarted(int)                        {}
func (nopInstrumentation) FlushFinished(FlushStats)                {}
func (nopInstrumentation) WatcherRan(string, time.Duration, error) {}
