// Package camera owns the video stream used by a verification session. A
// Resource wraps a Device and enforces the session's stream discipline: at
// most one acquired stream, and a release that is idempotent and safe to call
// from every exit path.
package camera

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ticketguard/faceverify/internal/domain"
)

// ErrStreamClosed is returned when sampling a released stream.
var ErrStreamClosed = errors.New("camera stream closed")

// Frame is one sampled video frame.
type Frame []byte

// Stream is an acquired video stream bound to a renderable sink.
type Stream interface {
	// Sample returns the current frame.
	Sample(ctx context.Context) (Frame, error)

	// Close stops the stream. Close is idempotent.
	Close() error
}

// Device produces streams. Implementations surface failures as the domain
// camera error kinds (permission denied, no device, busy, unknown).
type Device interface {
	Acquire(ctx context.Context) (Stream, error)
}

// Resource guards a device with the single-stream invariant.
type Resource struct {
	device Device
	logger *slog.Logger

	mu     sync.Mutex
	stream Stream
}

// NewResource wraps a device.
func NewResource(device Device, logger *slog.Logger) *Resource {
	return &Resource{device: device, logger: logger}
}

// Acquire starts a stream. A second acquire without an intervening Release
// fails with the busy kind.
func (r *Resource) Acquire(ctx context.Context) (Stream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream != nil {
		return nil, domain.ErrCameraBusy.WithError(errors.New("stream already acquired"))
	}

	stream, err := r.device.Acquire(ctx)
	if err != nil {
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, domain.ErrCameraUnknown.WithError(err)
	}

	r.stream = stream
	return stream, nil
}

// Release closes the active stream if any. Safe to call repeatedly and from
// any exit path.
func (r *Resource) Release() {
	r.mu.Lock()
	stream := r.stream
	r.stream = nil
	r.mu.Unlock()

	if stream == nil {
		return
	}

	if err := stream.Close(); err != nil {
		r.logger.Warn("closing camera stream", slog.Any("error", err))
	}
}

// Active reports whether a stream is currently acquired.
func (r *Resource) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stream != nil
}
