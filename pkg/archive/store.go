package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/vango-dev/reactor/pkg/protocol"
)

// Common errors.
var (
	ErrNotFound    = errors.New("archive: not found")
	ErrInvalidName = errors.New("archive: invalid name")
)

// Store keeps frame logs by name.
type Store interface {
	// Put stores the log read from r under name, replacing any previous one.
	Put(ctx context.Context, name string, r io.Reader) error

	// Get opens the log stored under name. The caller closes it.
	Get(ctx context.Context, name string) (io.ReadCloser, error)

	// List returns the stored logs, sorted by name.
	List(ctx context.Context) ([]Info, error)

	// Delete removes the log stored under name.
	Delete(ctx context.Context, name string) error
}

// Info describes a stored log.
type Info struct {
	Name    string
	Size    int64
	ModTime time.Time
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidName reports whether name can be used as a log name.
func ValidName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Save stores frames as one log.
func Save(ctx context.Context, s Store, name string, frames [][]byte) error {
	var buf bytes.Buffer
	for _, f := range frames {
		buf.Write(f)
	}
	return s.Put(ctx, name, &buf)
}

// Load fetches a log and decodes its frames.
func Load(ctx context.Context, s Store, name string) ([]*protocol.Frame, error) {
	rc, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var frames []*protocol.Frame
	err = protocol.ReadFrames(rc, func(f *protocol.Frame) error {
		frames = append(frames, f)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("archive: %s: %w", name, err)
	}
	return frames, nil
}
