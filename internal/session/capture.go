package session

import (
	"context"
	"log/slog"

	"github.com/ticketguard/faceverify/internal/camera"
	"github.com/ticketguard/faceverify/internal/domain"
)

// beginCapture starts the capture burst after the countdown elapsed. The
// positioning and liveness polls stop; each captured frame carries its own
// validation instead. The photo set is all-or-nothing: a failed validation
// mid-burst is terminal, never a short set.
func (s *Session) beginCapture() error {
	s.posTicker.Stop()
	s.posCh = nil
	if s.livTicker != nil {
		s.livTicker.Stop()
		s.livCh = nil
	}

	s.photos = make([]domain.CapturedPhoto, 0, s.cfg.CaptureCount)
	s.observer.Noticed(NoticeCapturing)
	s.scheduleCapture(0)
	return nil
}

// scheduleCapture arms the timer for the next frame of the burst.
func (s *Session) scheduleCapture(ordinal int) {
	spacing := s.cfg.CaptureSpacing
	if ordinal == 0 {
		// First frame fires immediately; the countdown was the delay.
		spacing = 0
	}
	s.captureStep = s.clock.NewTimer(spacing)
	s.captureCh = s.captureStep.Chan()
}

// captureTick validates positioning and takes one frame of the burst.
// Returns done=true once the full set is captured.
func (s *Session) captureTick(ctx context.Context) (bool, error) {
	frame, err := s.stream.Sample(ctx)
	if err != nil {
		if err == camera.ErrStreamClosed {
			return false, domain.ErrSessionClosed.WithError(err)
		}
		return false, err
	}

	faces, err := s.provider.DetectFaces(ctx, frame)
	if err != nil {
		return false, err
	}
	if len(faces) != 1 || !s.zone.Contains(faces[0].BoundingBox.Center()) {
		return false, domain.ErrPositioningLost
	}

	ordinal := len(s.photos) + 1
	s.photos = append(s.photos, domain.CapturedPhoto{Ordinal: ordinal, Image: frame})
	s.logger.Debug("frame captured", slog.Int("ordinal", ordinal), slog.Int("of", s.cfg.CaptureCount))

	if len(s.photos) == s.cfg.CaptureCount {
		return true, nil
	}
	s.scheduleCapture(ordinal)
	return false, nil
}
