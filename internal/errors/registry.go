package errors

import (
	"sort"
	"sync"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	Hint     string
}

var (
	registryMu sync.RWMutex

	// registry maps error codes to their templates.
	registry = map[string]ErrorTemplate{
		// Reactive runtime (R001-R019)

		"R001": {
			Category: CategoryReactive,
			Message:  "Value cannot be observed",
			Detail:   "Only maps with string keys and slices can be intercepted. The value was returned as is and reads of it are not tracked.",
			Hint:     "Convert the value to a map[string]any or a slice before observing it.",
		},
		"R002": {
			Category: CategoryReactive,
			Message:  "Update cycle detected",
			Detail:   "A watcher invalidated itself more times than the update limit allows in a single flush. It was skipped for the rest of the flush.",
			Hint:     "Do not write state that the same render reads.",
		},
		"R003": {
			Category: CategoryReconcile,
			Message:  "Invalid tree shape",
			Detail:   "The rendered tree breaks a reconciliation rule, such as two siblings sharing a key. The first matching node was used.",
			Hint:     "Give every child in a keyed list a unique key.",
		},
		"R004": {
			Category: CategoryReactive,
			Message:  "Watcher failed",
			Detail:   "A getter or callback returned an error or panicked. For renders no patch was applied and the previous output stays on screen.",
		},
		"R005": {
			Category: CategoryReactive,
			Message:  "Watcher torn down",
			Detail:   "The watcher was stopped and can no longer be evaluated.",
		},
		"R006": {
			Category: CategoryReactive,
			Message:  "Instance destroyed",
			Detail:   "The mounted instance was unmounted before the update ran.",
		},
		"R007": {
			Category: CategoryReactive,
			Message:  "Event loop stopped",
			Detail:   "A task was dispatched after the loop's context was canceled.",
		},

		// Protocol (P001-P019)

		"P001": {
			Category: CategoryProtocol,
			Message:  "Frame too large",
			Detail:   "A frame header announced a payload over the configured limit.",
			Hint:     "Raise the payload limit or check that the input is a frame log.",
		},
		"P002": {
			Category: CategoryProtocol,
			Message:  "Malformed frame",
			Detail:   "The frame or op batch could not be decoded.",
			Hint:     "The log may be truncated or written by an incompatible version.",
		},
		"P003": {
			Category: CategoryProtocol,
			Message:  "Sequence gap",
			Detail:   "A batch arrived out of order, so the replayed tree would diverge from the source.",
			Hint:     "Reconnect to get a fresh snapshot.",
		},
		"P004": {
			Category: CategoryProtocol,
			Message:  "Unknown node id",
			Detail:   "An op refers to a node that was never created in this stream.",
		},

		// Storage (S001-S019)

		"S001": {
			Category: CategoryStorage,
			Message:  "Log not found",
			Hint:     "Run `reactor archive list` to see the stored logs.",
		},
		"S002": {
			Category: CategoryStorage,
			Message:  "Invalid log name",
			Detail:   "Names start with a letter or digit and use only letters, digits, '.', '_' and '-', up to 128 characters.",
		},

		// Config (C001-C019)

		"C001": {
			Category: CategoryConfig,
			Message:  "Invalid configuration",
			Hint:     "Check reactor.json against `reactor config`.",
		},

		// CLI (X001-X019)

		"X001": {
			Category: CategoryCLI,
			Message:  "Invalid arguments",
		},
	}
)

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registryMu.Lock()
	defer registryMu.Unlock()

	registry[code] = template
}
