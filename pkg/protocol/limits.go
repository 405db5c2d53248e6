package protocol

// Allocation limits applied while decoding.
const (
	// DefaultMaxAllocation is the default maximum string size (4MB).
	DefaultMaxAllocation = 4 * 1024 * 1024

	// HardMaxAllocation is the absolute ceiling for a single frame (16MB).
	// Even if configured higher, limits are capped at this value.
	HardMaxAllocation = 16 * 1024 * 1024

	// MaxCollectionCount is the default maximum number of ops in a batch.
	MaxCollectionCount = 100_000
)

// Limits bounds what a decoder will allocate.
type Limits struct {
	// MaxAllocation is the largest string accepted.
	MaxAllocation int

	// MaxCount is the largest op count accepted in one batch.
	MaxCount int

	// MaxPayload is the largest frame payload accepted.
	MaxPayload int
}

// DefaultLimits returns the default decoding limits.
func DefaultLimits() Limits {
	return Limits{
		MaxAllocation: DefaultMaxAllocation,
		MaxCount:      MaxCollectionCount,
		MaxPayload:    HardMaxAllocation,
	}
}

// normalize fills zero fields with defaults and caps everything at the
// hard ceiling.
func (l Limits) normalize() Limits {
	d := DefaultLimits()
	if l.MaxAllocation <= 0 {
		l.MaxAllocation = d.MaxAllocation
	}
	if l.MaxCount <= 0 {
		l.MaxCount = d.MaxCount
	}
	if l.MaxPayload <= 0 {
		l.MaxPayload = d.MaxPayload
	}
	l.MaxAllocation = min(l.MaxAllocation, HardMaxAllocation)
	l.MaxPayload = min(l.MaxPayload, HardMaxAllocation)
	return l
}
