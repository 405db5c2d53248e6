package stream

import (
	"sync"
	"time"
)

// DefaultHistorySize is the number of frames a History keeps by default.
const DefaultHistorySize = 256

// Entry is a sent frame kept for replay.
type Entry struct {
	Seq    uint64    // Batch sequence number
	Frame  []byte    // Encoded frame, header included
	SentAt time.Time // When the frame was sent
}

// History is a ring buffer of the most recent frames of a stream.
// It overwrites the oldest entry when full. History is safe for concurrent
// use.
type History struct {
	mu       sync.RWMutex
	entries  []*Entry
	head     int    // Next write position (circular)
	count    int    // Current number of entries
	capacity int    // Max entries
	minSeq   uint64 // Lowest sequence in buffer
	maxSeq   uint64 // Highest sequence in buffer
}

// NewHistory creates a history keeping capacity frames.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{
		entries:  make([]*Entry, capacity),
		capacity: capacity,
	}
}

// Add stores a frame. The bytes are copied.
func (h *History) Add(seq uint64, frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	frameCopy := make([]byte, len(frame))
	copy(frameCopy, frame)

	h.entries[h.head] = &Entry{Seq: seq, Frame: frameCopy, SentAt: time.Now()}
	h.head = (h.head + 1) % h.capacity
	if h.count < h.capacity {
		h.count++
	}

	h.maxSeq = seq
	if h.count == 1 {
		h.minSeq = seq
	} else if h.count == h.capacity {
		// Full: the oldest entry is the one head will overwrite next.
		h.minSeq = h.entries[h.head].Seq
	}
}

// Entries returns the kept entries, oldest first.
func (h *History) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Entry, 0, h.count)
	for i := 0; i < h.count; i++ {
		idx := (h.head - h.count + i + h.capacity) % h.capacity
		if e := h.entries[idx]; e != nil {
			out = append(out, *e)
		}
	}
	return out
}

// Frames returns the frames for sequences (afterSeq, toSeq], in order.
// It returns nil if any sequence in the range is not kept.
func (h *History) Frames(afterSeq, toSeq uint64) [][]byte {
	if h.Count() == 0 || toSeq <= afterSeq {
		return nil
	}
	h.mu.RLock()
	inRange := afterSeq+1 >= h.minSeq && toSeq <= h.maxSeq
	h.mu.RUnlock()
	if !inRange {
		return nil
	}

	var frames [][]byte
	next := afterSeq + 1
	for _, e := range h.Entries() {
		if e.Seq < next {
			continue
		}
		if e.Seq != next || e.Seq > toSeq {
			break
		}
		frames = append(frames, e.Frame)
		next++
	}
	if next != toSeq+1 {
		return nil
	}
	return frames
}

// CanRecover reports whether every frame after lastSeq is kept.
func (h *History) CanRecover(lastSeq uint64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 {
		return false
	}
	return lastSeq+1 >= h.minSeq && lastSeq < h.maxSeq
}

// MinSeq returns the lowest kept sequence.
func (h *History) MinSeq() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.minSeq
}

// MaxSeq returns the highest kept sequence.
func (h *History) MaxSeq() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.maxSeq
}

// Count returns the number of kept frames.
func (h *History) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Clear removes all entries.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.entries {
		h.entries[i] = nil
	}
	h.head = 0
	h.count = 0
	h.minSeq = 0
	h.maxSeq = 0
}
