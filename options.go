package reactor

import (
	"log/slog"

	"github.com/vango-dev/reactor/internal/config"
	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/vdom"
)

// Option configures an App.
type Option func(*options)

type options struct {
	backend        vdom.Backend
	executor       reactive.Executor
	logger         *slog.Logger
	maxUpdateCount int
	instr          []reactive.Instrumentation
	observers      []vdom.OpObserver
	config         *config.Config
}

// WithBackend sets the output backend. The default is a memtree.
func WithBackend(b vdom.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithExecutor defers flushes to e. A *reactive.Loop also enables
// [App.Run] and [App.Dispatch].
func WithExecutor(e reactive.Executor) Option {
	return func(o *options) { o.executor = e }
}

// WithLogger sets the logger shared by the runtime, patcher and instances.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMaxUpdateCount bounds how often a watcher may run in one flush.
func WithMaxUpdateCount(n int) Option {
	return func(o *options) { o.maxUpdateCount = n }
}

// WithInstrumentation adds scheduler instrumentation. It can be given more
// than once.
func WithInstrumentation(i reactive.Instrumentation) Option {
	return func(o *options) {
		if i != nil {
			o.instr = append(o.instr, i)
		}
	}
}

// WithOpObserver adds an observer of patch operations. It can be given
// more than once.
func WithOpObserver(obs vdom.OpObserver) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithConfig applies the settings of a loaded reactor.json. Explicit
// options win over it regardless of order.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.config = cfg }
}

// multiObserver fans out patch operations.
type multiObserver []vdom.OpObserver

func (m multiObserver) Op(kind vdom.OpKind) {
	for _, o := range m {
		o.Op(kind)
	}
}
