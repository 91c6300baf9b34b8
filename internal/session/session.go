// Package session runs one facial identity verification from camera acquire
// to a terminal accept/reject. All session state is owned by a single event
// loop which multiplexes the positioning poll, the liveness poll, the smile
// countdown and the capture spacing as independently cancelable timers.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/ticketguard/faceverify/internal/camera"
	"github.com/ticketguard/faceverify/internal/domain"
	"github.com/ticketguard/faceverify/internal/matcher"
	"github.com/ticketguard/faceverify/internal/provider"
)

// Config holds the engine's timing and retry policy.
type Config struct {
	PositioningInterval time.Duration
	LivenessInterval    time.Duration
	CaptureSpacing      time.Duration
	Countdown           time.Duration

	StrikeThreshold int
	MaxAttempts     int
	CaptureCount    int

	SmileThreshold   float64
	SmileConsecutive int

	CompareTimeoutWarm time.Duration
	CompareTimeoutCold time.Duration
}

// DefaultConfig returns the production policy.
func DefaultConfig() Config {
	return Config{
		PositioningInterval: 300 * time.Millisecond,
		LivenessInterval:    400 * time.Millisecond,
		CaptureSpacing:      400 * time.Millisecond,
		Countdown:           2 * time.Second,
		StrikeThreshold:     8,
		MaxAttempts:         2,
		CaptureCount:        3,
		SmileThreshold:      0.7,
		SmileConsecutive:    2,
		CompareTimeoutWarm:  30 * time.Second,
		CompareTimeoutCold:  60 * time.Second,
	}
}

// Notice is a live UI signal. Notices never terminate the session.
type Notice string

const (
	// NoticeMultipleFaces blocks progress while more than one face is
	// visible, independent of identity.
	NoticeMultipleFaces Notice = "multiple_faces"

	// NoticeFaceLost is raised while no face is found.
	NoticeFaceLost Notice = "face_lost"

	// NoticeOutOfZone is raised while the face sits outside the capture zone.
	NoticeOutOfZone Notice = "out_of_zone"

	// NoticeReposition asks the user to re-center after a strike window was
	// exhausted; the monitor restarts.
	NoticeReposition Notice = "reposition"

	// NoticeHoldSmile is raised when the countdown starts.
	NoticeHoldSmile Notice = "hold_smile"

	// NoticeCapturing is raised when the capture burst begins.
	NoticeCapturing Notice = "capturing"
)

// Observer receives live session state for the UI layer. Implementations
// must be fast; calls happen on the session's event loop.
type Observer interface {
	PhaseChanged(phase domain.Phase)
	PositionChanged(state *domain.PositionState)
	Noticed(notice Notice)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) PhaseChanged(domain.Phase)            {}
func (NopObserver) PositionChanged(*domain.PositionState) {}
func (NopObserver) Noticed(Notice)                        {}

// ReferenceSource supplies the enrolled descriptors to match against.
type ReferenceSource interface {
	IsWarm(userID string) bool
	Preload(ctx context.Context, userID string) error
	Get(ctx context.Context, userID string) ([]domain.LabeledDescriptor, error)
}

// Session is one verification attempt for one user. Create with New, drive
// with Run, abort with Close. Terminal states are final; verify again by
// opening a new session.
type Session struct {
	id       uuid.UUID
	userID   string
	provider provider.FaceProvider
	refs     ReferenceSource
	camera   *camera.Resource
	zone     CaptureZone
	cfg      Config
	clock    clockwork.Clock
	logger   *slog.Logger
	observer Observer

	// Event-loop-owned state. Only Run's goroutine touches these.
	phase             domain.Phase
	stream            camera.Stream
	match             *matcher.Matcher
	strikes           int
	attemptsOutOfZone int
	mayProceed        bool
	smileStreak       int
	livenessDegraded  bool
	photos            []domain.CapturedPhoto
	warm              bool
	startedAt         time.Time

	posTicker   clockwork.Ticker
	livTicker   clockwork.Ticker
	countdown   clockwork.Timer
	captureStep clockwork.Timer

	posCh       <-chan time.Time
	livCh       <-chan time.Time
	countdownCh <-chan time.Time
	captureCh   <-chan time.Time

	closeCh   chan struct{}
	closeOnce sync.Once
	teardown  sync.Once
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithClock injects the clock, for tests.
func WithClock(clock clockwork.Clock) SessionOption {
	return func(s *Session) {
		s.clock = clock
	}
}

// WithObserver attaches a live state observer.
func WithObserver(observer Observer) SessionOption {
	return func(s *Session) {
		s.observer = observer
	}
}

// WithZone overrides the capture zone.
func WithZone(zone CaptureZone) SessionOption {
	return func(s *Session) {
		s.zone = zone
	}
}

// WithConfig overrides the timing/retry policy.
func WithConfig(cfg Config) SessionOption {
	return func(s *Session) {
		s.cfg = cfg
	}
}

// New creates a verification session for the claimed user.
func New(userID string, faceProvider provider.FaceProvider, refs ReferenceSource, cam *camera.Resource, logger *slog.Logger, opts ...SessionOption) *Session {
	s := &Session{
		id:       uuid.New(),
		userID:   userID,
		provider: faceProvider,
		refs:     refs,
		camera:   cam,
		zone:     DefaultZone(),
		cfg:      DefaultConfig(),
		clock:    clockwork.NewRealClock(),
		logger:   logger,
		observer: NopObserver{},
		phase:    domain.PhaseInitial,
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("session_id", s.id.String()), slog.String("user_id", userID))
	return s
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Close aborts the session from any phase. Safe to call repeatedly and
// concurrently with Run.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closeCh)
	})
}

// Run drives the session to a terminal state and returns the outcome. On any
// non-nil error the outcome is nil and the error carries the structured
// failure kind. Run always leaves the camera released and every timer
// stopped, whichever path terminates it.
func (s *Session) Run(ctx context.Context) (*domain.Outcome, error) {
	defer s.stopAll()

	s.startedAt = s.clock.Now()

	if err := s.prepare(ctx); err != nil {
		return nil, s.fail(err)
	}

	return s.loop(ctx)
}

// prepare loads models, warms the reference cache and acquires the camera.
func (s *Session) prepare(ctx context.Context) error {
	if err := s.provider.EnsureModels(ctx, provider.RequiredModels...); err != nil {
		return err
	}

	// Expression model failure degrades the liveness gate instead of
	// failing the session.
	if err := s.provider.EnsureModels(ctx, provider.ModelExpression); err != nil {
		s.livenessDegraded = true
		s.logger.Warn("expression model unavailable, liveness gate degraded", slog.Any("error", err))
	}

	s.warm = s.refs.IsWarm(s.userID)
	if !s.warm {
		if err := s.refs.Preload(ctx, s.userID); err != nil {
			// Preload is an optimization; Get below falls back to an
			// on-demand fetch.
			s.logger.Warn("reference preload failed, falling back to on-demand fetch", slog.Any("error", err))
		}
	}

	refs, err := s.refs.Get(ctx, s.userID)
	if err != nil {
		return err
	}
	s.match = matcher.New(refs)

	stream, err := s.camera.Acquire(ctx)
	if err != nil {
		return err
	}
	s.stream = stream

	s.logger.Info("verification session started", slog.Bool("cache_warm", s.warm))
	return nil
}

// loop is the single event loop that owns all session state.
func (s *Session) loop(ctx context.Context) (*domain.Outcome, error) {
	s.posTicker = s.clock.NewTicker(s.cfg.PositioningInterval)
	s.posCh = s.posTicker.Chan()

	for {
		select {
		case <-ctx.Done():
			return nil, s.fail(domain.ErrSessionClosed.WithError(ctx.Err()))

		case <-s.closeCh:
			return nil, s.fail(domain.ErrSessionClosed)

		case <-s.posCh:
			if err := s.positioningTick(ctx); err != nil {
				return nil, s.fail(err)
			}

		case <-s.livCh:
			if err := s.livenessTick(ctx); err != nil {
				return nil, s.fail(err)
			}

		case <-s.countdownCh:
			s.countdownCh = nil
			if err := s.beginCapture(); err != nil {
				return nil, s.fail(err)
			}

		case <-s.captureCh:
			s.captureCh = nil
			done, err := s.captureTick(ctx)
			if err != nil {
				return nil, s.fail(err)
			}
			if done {
				return s.finalize(ctx)
			}
		}
	}
}

// setPhase records a transition and notifies the observer.
func (s *Session) setPhase(phase domain.Phase) {
	if s.phase == phase {
		return
	}
	s.phase = phase
	s.logger.Debug("phase transition", slog.String("phase", string(phase)))
	s.observer.PhaseChanged(phase)
}

// fail moves the session to FAILURE (unless already terminal), tears down,
// and returns the error for Run's caller.
func (s *Session) fail(err error) error {
	s.setPhase(domain.PhaseFailure)
	s.stopAll()

	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		err = domain.ErrInternal.WithError(err)
		appErr = domain.ErrInternal
	}
	s.logger.Info("verification failed", slog.String("kind", appErr.Code), slog.Any("error", err))
	return err
}

// stopAll clears every timer and releases the camera. Idempotent; invoked on
// every exit path so a leaked tick can never reach torn-down state.
func (s *Session) stopAll() {
	s.teardown.Do(func() {
		if s.posTicker != nil {
			s.posTicker.Stop()
		}
		if s.livTicker != nil {
			s.livTicker.Stop()
		}
		if s.countdown != nil {
			s.countdown.Stop()
		}
		if s.captureStep != nil {
			s.captureStep.Stop()
		}
		s.posCh, s.livCh, s.countdownCh, s.captureCh = nil, nil, nil, nil
		s.camera.Release()
	})
}

// compareOutcome carries the final match result across the timeout race.
type compareOutcome struct {
	result domain.MatchResult
	err    error
}

// finalize runs the post-capture comparison, racing it against the timing
// ceiling for the session's cache class.
func (s *Session) finalize(ctx context.Context) (*domain.Outcome, error) {
	s.setPhase(domain.PhaseComparing)

	ceiling := s.cfg.CompareTimeoutCold
	if s.warm {
		ceiling = s.cfg.CompareTimeoutWarm
	}

	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resultCh := make(chan compareOutcome, 1)
	go func() {
		probe := s.photos[0]
		desc, err := s.provider.Descriptor(cctx, probe.Image)
		if err != nil {
			resultCh <- compareOutcome{err: err}
			return
		}
		resultCh <- compareOutcome{result: s.match.Match(desc)}
	}()

	select {
	case <-ctx.Done():
		return nil, s.fail(domain.ErrSessionClosed.WithError(ctx.Err()))

	case <-s.closeCh:
		return nil, s.fail(domain.ErrSessionClosed)

	case <-s.clock.After(ceiling):
		return nil, s.fail(domain.ErrVerificationTimeout)

	case out := <-resultCh:
		if out.err != nil {
			return nil, s.fail(out.err)
		}

		result := out.result
		if !matcher.Authorized(result) {
			return nil, s.fail(domain.ErrIdentityMismatch)
		}

		s.setPhase(domain.PhaseSuccess)
		s.stopAll()
		s.logger.Info("verification succeeded",
			slog.String("label", result.Label),
			slog.Float64("similarity", result.Similarity()),
		)

		return &domain.Outcome{
			SessionID: s.id,
			UserID:    s.userID,
			Verified:  true,
			Match:     &result,
			Photos:    s.photos,
			Elapsed:   s.clock.Since(s.startedAt),
		}, nil
	}
}
