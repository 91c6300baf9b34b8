package camera

import (
	"context"
	"sync"
)

// ScriptDevice plays a scripted frame sequence. It backs the dev agent and
// the engine tests, where frames carry mock provider directives.
type ScriptDevice struct {
	mu         sync.Mutex
	frames     []Frame
	acquireErr error
}

// NewScriptDevice creates a device that serves the given frames in order,
// holding on the last frame once the script is exhausted.
func NewScriptDevice(frames ...Frame) *ScriptDevice {
	return &ScriptDevice{frames: frames}
}

// FailWith makes the next Acquire return err.
func (d *ScriptDevice) FailWith(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.acquireErr = err
}

// Set replaces the remaining script.
func (d *ScriptDevice) Set(frames ...Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames = frames
}

// Append adds frames to the end of the script.
func (d *ScriptDevice) Append(frames ...Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames = append(d.frames, frames...)
}

func (d *ScriptDevice) Acquire(ctx context.Context) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.acquireErr != nil {
		return nil, d.acquireErr
	}

	return &scriptStream{device: d}, nil
}

type scriptStream struct {
	device *ScriptDevice

	mu     sync.Mutex
	closed bool
}

// Sample pops the next scripted frame. The last frame repeats so pollers can
// keep ticking after the script runs out.
func (s *scriptStream) Sample(ctx context.Context) (Frame, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrStreamClosed
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d := s.device
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.frames) == 0 {
		return nil, ErrStreamClosed
	}

	frame := d.frames[0]
	if len(d.frames) > 1 {
		d.frames = d.frames[1:]
	}

	return frame, nil
}

func (s *scriptStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
