package session

import (
	"context"
	"log/slog"

	"github.com/ticketguard/faceverify/internal/camera"
	"github.com/ticketguard/faceverify/internal/domain"
)

// livenessTick evaluates one sustained-smile poll. The gate only runs while
// the positioning monitor reports the face inside the zone; any violation
// resets the streak and cancels a running countdown, so the hold period is
// all-or-nothing.
func (s *Session) livenessTick(ctx context.Context) error {
	if s.phase != domain.PhaseScanning {
		return nil
	}
	if !s.mayProceed {
		s.smileStreak = 0
		s.cancelCountdown()
		return nil
	}

	if s.livenessDegraded {
		// Expression model unavailable: the gate passes on positioning
		// alone.
		s.smileStreak = s.cfg.SmileConsecutive
		s.startCountdown()
		return nil
	}

	frame, err := s.stream.Sample(ctx)
	if err != nil {
		if err == camera.ErrStreamClosed {
			return domain.ErrSessionClosed.WithError(err)
		}
		return err
	}

	score, err := s.provider.ExpressionScore(ctx, frame)
	if err != nil {
		// A single unreadable frame breaks the streak but not the session.
		s.logger.Debug("expression scoring failed", slog.Any("error", err))
		s.smileStreak = 0
		s.cancelCountdown()
		return nil
	}

	if score < s.cfg.SmileThreshold {
		s.smileStreak = 0
		s.cancelCountdown()
		return nil
	}

	s.smileStreak++
	if s.smileStreak >= s.cfg.SmileConsecutive {
		s.startCountdown()
	}
	return nil
}

// startCountdown arms the capture countdown if it is not already running.
func (s *Session) startCountdown() {
	if s.countdownCh != nil {
		return
	}
	s.countdown = s.clock.NewTimer(s.cfg.Countdown)
	s.countdownCh = s.countdown.Chan()
	s.observer.Noticed(NoticeHoldSmile)
}

// cancelCountdown disarms a pending capture countdown. Progress toward it
// does not carry over.
func (s *Session) cancelCountdown() {
	if s.countdownCh == nil {
		return
	}
	s.countdown.Stop()
	s.countdown = nil
	s.countdownCh = nil
	s.smileStreak = 0
}
