package stream

import (
	"fmt"
	"testing"
)

func TestHistoryRing(t *testing.T) {
	h := NewHistory(3)
	if h.CanRecover(0) {
		t.Error("empty history cannot recover")
	}
	for seq := uint64(1); seq <= 5; seq++ {
		h.Add(seq, []byte(fmt.Sprintf("f%d", seq)))
	}

	if h.Count() != 3 || h.MinSeq() != 3 || h.MaxSeq() != 5 {
		t.Fatalf("count=%d min=%d max=%d", h.Count(), h.MinSeq(), h.MaxSeq())
	}
	var seqs []uint64
	for _, e := range h.Entries() {
		seqs = append(seqs, e.Seq)
	}
	if fmt.Sprint(seqs) != "[3 4 5]" {
		t.Errorf("entries = %v", seqs)
	}

	frames := h.Frames(2, 5)
	if len(frames) != 3 || string(frames[0]) != "f3" || string(frames[2]) != "f5" {
		t.Errorf("Frames(2, 5) = %q", frames)
	}
	if h.Frames(0, 5) != nil {
		t.Error("Frames(0, 5) should fail: 1 and 2 were overwritten")
	}
	if h.Frames(3, 6) != nil {
		t.Error("Frames(3, 6) should fail: 6 was never sent")
	}

	if !h.CanRecover(2) || !h.CanRecover(4) {
		t.Error("CanRecover(2) and CanRecover(4) should hold")
	}
	if h.CanRecover(1) || h.CanRecover(5) {
		t.Error("CanRecover(1) and CanRecover(5) should not hold")
	}

	h.Clear()
	if h.Count() != 0 || h.MaxSeq() != 0 {
		t.Error("Clear left entries")
	}
}

func TestHistoryCopiesFrames(t *testing.T) {
	h := NewHistory(0)
	buf := []byte("abc")
	h.Add(1, buf)
	buf[0] = 'x'
	if got := string(h.Frames(0, 1)[0]); got != "abc" {
		t.Errorf("frame = %q, want abc", got)
	}
}
