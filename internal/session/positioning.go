package session

import (
	"context"
	"log/slog"

	"github.com/ticketguard/faceverify/internal/camera"
	"github.com/ticketguard/faceverify/internal/domain"
	"github.com/ticketguard/faceverify/internal/matcher"
	"github.com/ticketguard/faceverify/internal/provider"
)

// positioningTick handles one positioning poll. Before SCANNING it doubles
// as the candidate identification probe.
func (s *Session) positioningTick(ctx context.Context) error {
	frame, err := s.stream.Sample(ctx)
	if err != nil {
		if err == camera.ErrStreamClosed {
			return domain.ErrSessionClosed.WithError(err)
		}
		return err
	}

	faces, err := s.provider.DetectFaces(ctx, frame)
	if err != nil {
		return err
	}

	switch s.phase {
	case domain.PhaseInitial:
		return s.identifyTick(ctx, frame, faces)
	case domain.PhaseCandidateIdentified:
		return s.candidateTick(faces)
	case domain.PhaseScanning:
		return s.monitorTick(faces)
	}
	return nil
}

// identifyTick looks for exactly one face whose descriptor matches an
// enrolled reference. The early match only gates entry to the flow; the
// authorizing comparison happens after capture.
func (s *Session) identifyTick(ctx context.Context, frame camera.Frame, faces []provider.DetectedFace) error {
	switch {
	case len(faces) == 0:
		s.observer.Noticed(NoticeFaceLost)
		return nil
	case len(faces) > 1:
		s.observer.Noticed(NoticeMultipleFaces)
		return nil
	}

	desc, err := s.provider.Descriptor(ctx, frame)
	if err != nil {
		// The single face may be partially occluded or badly lit on this
		// frame; keep polling.
		s.logger.Debug("descriptor extraction failed during identification", slog.Any("error", err))
		return nil
	}

	result := s.match.Match(desc)
	if !matcher.Authorized(result) {
		return nil
	}

	s.logger.Info("candidate identified",
		slog.String("label", result.Label),
		slog.Float64("distance", result.Distance),
	)
	s.setPhase(domain.PhaseCandidateIdentified)
	return nil
}

// candidateTick demands one more clean single-face poll before the
// positioning monitor starts. A second face or a lost face drops the
// candidate back to identification.
func (s *Session) candidateTick(faces []provider.DetectedFace) error {
	switch {
	case len(faces) == 0:
		s.observer.Noticed(NoticeFaceLost)
		s.setPhase(domain.PhaseInitial)
		return nil
	case len(faces) > 1:
		s.observer.Noticed(NoticeMultipleFaces)
		s.setPhase(domain.PhaseInitial)
		return nil
	}

	s.strikes = 0
	s.smileStreak = 0
	s.mayProceed = false
	s.setPhase(domain.PhaseScanning)

	s.livTicker = s.clock.NewTicker(s.cfg.LivenessInterval)
	s.livCh = s.livTicker.Chan()
	return nil
}

// monitorTick is one SCANNING poll: exactly one of strike reset or strike
// increment happens per tick.
func (s *Session) monitorTick(faces []provider.DetectedFace) error {
	if len(faces) > 1 {
		s.observer.Noticed(NoticeMultipleFaces)
		s.observer.PositionChanged(nil)
		return s.strike()
	}
	if len(faces) == 0 {
		s.observer.Noticed(NoticeFaceLost)
		s.observer.PositionChanged(nil)
		return s.strike()
	}

	face := faces[0]
	state := &domain.PositionState{
		InsideZone: s.zone.Contains(face.BoundingBox.Center()),
		FaceCenter: face.BoundingBox.Center(),
		FaceSize:   face.BoundingBox.Size(),
	}
	s.observer.PositionChanged(state)

	if !state.InsideZone {
		s.observer.Noticed(NoticeOutOfZone)
		return s.strike()
	}

	s.strikes = 0
	s.mayProceed = true
	return nil
}

// strike consumes one out-of-zone strike, cancelling any smile progress. A
// full strike window consumes an attempt; exhausting the attempts is
// terminal.
func (s *Session) strike() error {
	s.mayProceed = false
	s.cancelCountdown()

	s.strikes++
	if s.strikes < s.cfg.StrikeThreshold {
		return nil
	}

	s.strikes = 0
	s.attemptsOutOfZone++
	if s.attemptsOutOfZone >= s.cfg.MaxAttempts {
		return domain.ErrAttemptLimit
	}

	s.logger.Info("positioning attempt consumed", slog.Int("attempts", s.attemptsOutOfZone))
	s.observer.Noticed(NoticeReposition)
	return nil
}
