package errors

import (
	stderrors "errors"

	"github.com/vango-dev/reactor/pkg/archive"
	"github.com/vango-dev/reactor/pkg/backend/stream"
	"github.com/vango-dev/reactor/pkg/mount"
	"github.com/vango-dev/reactor/pkg/protocol"
	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/vdom"
)

// Classify maps err to a registered code. Errors it does not recognize
// get no code and keep their own message. A nil err returns nil.
func Classify(err error) *ReactorError {
	if err == nil {
		return nil
	}
	var re *ReactorError
	if stderrors.As(err, &re) {
		return re
	}

	var (
		oe *reactive.ObservationError
		ce *reactive.CycleError
		pe *reactive.ProcedureError
		se *vdom.ShapeError
	)
	switch {
	case stderrors.As(err, &ce):
		return New("R002").WithSubject(ce.Watcher).Wrap(err)
	case stderrors.As(err, &oe):
		return New("R001").WithSubject(oe.Type).Wrap(err)
	case stderrors.As(err, &se):
		return New("R003").WithSubject(se.Kind).Wrap(err)
	case stderrors.Is(err, reactive.ErrTornDown):
		return New("R005").Wrap(err)
	case stderrors.Is(err, mount.ErrDestroyed):
		return New("R006").Wrap(err)
	case stderrors.Is(err, reactive.ErrLoopStopped):
		return New("R007").Wrap(err)
	case stderrors.As(err, &pe):
		return New("R004").WithSubject(pe.Watcher).Wrap(err)

	case stderrors.Is(err, protocol.ErrFrameTooLarge),
		stderrors.Is(err, protocol.ErrAllocationTooLarge),
		stderrors.Is(err, protocol.ErrCollectionTooLarge):
		return New("P001").Wrap(err)
	case stderrors.Is(err, protocol.ErrInvalidFrameType),
		stderrors.Is(err, protocol.ErrInvalidOp),
		stderrors.Is(err, protocol.ErrUnknownValueTag),
		stderrors.Is(err, protocol.ErrVarintOverflow):
		return New("P002").Wrap(err)
	case stderrors.Is(err, stream.ErrSeqGap):
		return New("P003").Wrap(err)
	case stderrors.Is(err, stream.ErrUnknownNode):
		return New("P004").Wrap(err)

	case stderrors.Is(err, archive.ErrNotFound):
		return New("S001").Wrap(err)
	case stderrors.Is(err, archive.ErrInvalidName):
		return New("S002").Wrap(err)
	}
	return &ReactorError{Wrapped: err}
}
