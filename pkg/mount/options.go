package mount

import "log/slog"

// Option configures an Instance.
type Option func(*Instance)

// WithName names the instance in logs, errors and metrics.
func WithName(name string) Option {
	return func(i *Instance) {
		if name != "" {
			i.name = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Instance) {
		if l != nil {
			i.logger = l
		}
	}
}

// OnMounted runs fn after the first successful render is in the output.
func OnMounted(fn func()) Option {
	return func(i *Instance) { i.hooks.mounted = append(i.hooks.mounted, fn) }
}

// OnBeforeUpdate runs fn before every re-render.
func OnBeforeUpdate(fn func()) Option {
	return func(i *Instance) { i.hooks.beforeUpdate = append(i.hooks.beforeUpdate, fn) }
}

// OnUpdated runs fn after a flush in which the instance re-rendered.
func OnUpdated(fn func()) Option {
	return func(i *Instance) { i.hooks.updated = append(i.hooks.updated, fn) }
}

// OnUnmounted runs fn once the instance is destroyed.
func OnUnmounted(fn func()) Option {
	return func(i *Instance) { i.hooks.unmounted = append(i.hooks.unmounted, fn) }
}

type hooks struct {
	mounted      []func()
	beforeUpdate []func()
	updated      []func()
	unmounted    []func()
}

func run(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}
