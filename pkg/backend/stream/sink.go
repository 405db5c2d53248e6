package stream

import (
	"context"
	"io"
	"sync"

	"github.com/vango-dev/reactor/pkg/protocol"
)

// Sink receives the frames of a stream. Implementations are safe for
// concurrent use.
type Sink interface {
	Send(ctx context.Context, f *protocol.Frame) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, f *protocol.Frame) error

// Send implements Sink.
func (fn SinkFunc) Send(ctx context.Context, f *protocol.Frame) error { return fn(ctx, f) }

// WriterSink writes frames to an io.Writer, producing a frame log.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Send implements Sink.
func (s *WriterSink) Send(ctx context.Context, f *protocol.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return protocol.WriteFrame(s.w, f)
}

// MultiSink sends every frame to all sinks in order and stops at the first
// error.
func MultiSink(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, f *protocol.Frame) error {
		for _, s := range sinks {
			if err := s.Send(ctx, f); err != nil {
				return err
			}
		}
		return nil
	})
}
