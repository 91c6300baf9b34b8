// Package refcache maintains the per-user reference descriptor cache the
// verification engine matches against. Entries are built from enrollment
// images fetched over the network and live in memory only; the single
// persisted artifact is an encrypted non-biometric indicator used to answer
// "is the cache warm" across restarts.
package refcache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ticketguard/faceverify/internal/domain"
	"github.com/ticketguard/faceverify/internal/provider"
)

const (
	// EntryTTL bounds how long a reference entry may be reused.
	EntryTTL = 15 * time.Minute

	// SweepInterval is how often expired entries are evicted in the
	// background. Reads still re-check expiry defensively.
	SweepInterval = 5 * time.Minute

	// maxThumbnails caps the enrollment images kept for display.
	maxThumbnails = 5
)

type entry struct {
	descriptors []domain.LabeledDescriptor
	thumbnails  [][]byte
	createdAt   time.Time
	expiresAt   time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// ImageResult is the outcome of processing one enrollment image. Images that
// yield no descriptor are skipped with an inspectable reason rather than
// silently dropped.
type ImageResult struct {
	Path       string
	Descriptor domain.Descriptor
	Skipped    bool
	Reason     string
}

// Ok reports whether the image produced a descriptor.
func (r ImageResult) Ok() bool {
	return !r.Skipped
}

// PreloadReport aggregates the per-image results of a preload.
type PreloadReport struct {
	UserID    string
	Results   []ImageResult
	Installed bool
}

// DescriptorCount returns how many images yielded a descriptor.
func (r *PreloadReport) DescriptorCount() int {
	var n int
	for _, res := range r.Results {
		if res.Ok() {
			n++
		}
	}
	return n
}

// Service is the reference cache. Construct with NewService and start the
// background sweep with Run; Stop halts it.
type Service struct {
	fetcher    ImageFetcher
	provider   provider.FaceProvider
	indicators *IndicatorStore
	logger     *slog.Logger
	clock      clockwork.Clock

	mu      sync.RWMutex
	entries map[string]*entry

	stopCh   chan struct{}
	stopOnce sync.Once
}

// Option configures the Service.
type Option func(*Service)

// WithClock injects the clock, for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// NewService creates the reference cache.
func NewService(fetcher ImageFetcher, faceProvider provider.FaceProvider, indicators *IndicatorStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		fetcher:    fetcher,
		provider:   faceProvider,
		indicators: indicators,
		logger:     logger,
		clock:      clockwork.NewRealClock(),
		entries:    make(map[string]*entry),
		stopCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsWarm reports whether verification can skip the warm-up fetch: an
// unexpired in-memory entry exists, or a valid persisted indicator says one
// existed and has not expired yet.
func (s *Service) IsWarm(userID string) bool {
	now := s.clock.Now()

	s.mu.Lock()
	e, ok := s.entries[userID]
	if ok && e.expired(now) {
		delete(s.entries, userID)
		ok = false
	}
	s.mu.Unlock()

	if ok {
		return true
	}

	if ind, found := s.indicators.Load(userID); found {
		if ind.Valid(now) {
			return true
		}
		_ = s.indicators.Remove(userID)
	}

	return false
}

// Preload fetches the user's enrollment images, extracts one descriptor per
// image, and installs a TTL entry when at least one descriptor was obtained.
// The report records every skipped image. Network failure surfaces as a
// domain network error so callers can degrade to on-demand fetching.
func (s *Service) Preload(ctx context.Context, userID string) (*PreloadReport, error) {
	descriptors, thumbnails, results, err := s.build(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := &PreloadReport{UserID: userID, Results: results}
	if len(descriptors) == 0 {
		s.logger.Warn("preload produced no descriptors",
			slog.String("user_id", userID),
			slog.Int("images", len(results)),
		)
		return report, nil
	}

	now := s.clock.Now()
	e := &entry{
		descriptors: descriptors,
		thumbnails:  thumbnails,
		createdAt:   now,
		expiresAt:   now.Add(EntryTTL),
	}

	s.mu.Lock()
	s.entries[userID] = e
	s.mu.Unlock()

	ind := domain.CacheIndicator{
		Timestamp:       now,
		ExpiresAt:       e.expiresAt,
		DescriptorCount: len(descriptors),
		ImageCount:      len(thumbnails),
	}
	if err := s.indicators.Save(userID, ind); err != nil {
		// The in-memory entry is installed regardless; the indicator
		// only accelerates the next session.
		s.logger.Warn("persisting cache indicator", slog.String("user_id", userID), slog.Any("error", err))
	}

	report.Installed = true
	return report, nil
}

// Get returns the user's reference descriptors. A valid cached entry is
// served after a defensive expiry re-check; otherwise the descriptors are
// fetched and extracted synchronously without installing a TTL entry.
func (s *Service) Get(ctx context.Context, userID string) ([]domain.LabeledDescriptor, error) {
	now := s.clock.Now()

	s.mu.Lock()
	e, ok := s.entries[userID]
	if ok && e.expired(now) {
		delete(s.entries, userID)
		ok = false
	}
	s.mu.Unlock()

	if ok {
		return append([]domain.LabeledDescriptor(nil), e.descriptors...), nil
	}

	descriptors, _, _, err := s.build(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(descriptors) == 0 {
		return nil, domain.ErrNoFaceDetected.WithError(fmt.Errorf("no descriptors for user %s", userID))
	}

	return descriptors, nil
}

// Thumbnails returns the cached enrollment thumbnails for display, if any.
func (s *Service) Thumbnails(userID string) [][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[userID]
	if !ok || e.expired(s.clock.Now()) {
		return nil
	}
	return append([][]byte(nil), e.thumbnails...)
}

// Invalidate drops one user's entry and indicator.
func (s *Service) Invalidate(userID string) {
	s.mu.Lock()
	delete(s.entries, userID)
	s.mu.Unlock()

	if err := s.indicators.Remove(userID); err != nil {
		s.logger.Warn("removing cache indicator", slog.String("user_id", userID), slog.Any("error", err))
	}
}

// InvalidateAll drops every entry and indicator.
func (s *Service) InvalidateAll() {
	s.mu.Lock()
	s.entries = make(map[string]*entry)
	s.mu.Unlock()

	if err := s.indicators.RemoveAll(); err != nil {
		s.logger.Warn("removing cache indicators", slog.Any("error", err))
	}
}

// Run performs the periodic eviction sweep until the context is cancelled or
// Stop is called.
func (s *Service) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(SweepInterval)
	defer ticker.Stop()

	s.logger.Info("reference cache sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reference cache sweeper stopped")
			return
		case <-s.stopCh:
			s.logger.Info("reference cache sweeper stopped")
			return
		case <-ticker.Chan():
			s.sweep()
		}
	}
}

// Stop halts the sweeper.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

func (s *Service) sweep() {
	now := s.clock.Now()
	var evicted []string

	s.mu.Lock()
	for userID, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, userID)
			evicted = append(evicted, userID)
		}
	}
	s.mu.Unlock()

	for _, userID := range evicted {
		if err := s.indicators.Remove(userID); err != nil {
			s.logger.Warn("removing swept indicator", slog.String("user_id", userID), slog.Any("error", err))
		}
	}

	if len(evicted) > 0 {
		s.logger.Debug("swept expired cache entries", slog.Int("count", len(evicted)))
	}
}

// build fetches enrollment images and extracts one descriptor per image,
// recording a skip reason for every image that yields none.
func (s *Service) build(ctx context.Context, userID string) ([]domain.LabeledDescriptor, [][]byte, []ImageResult, error) {
	images, err := s.fetcher.FetchImages(ctx, userID)
	if err != nil {
		return nil, nil, nil, err
	}

	var (
		descriptors []domain.LabeledDescriptor
		thumbnails  [][]byte
		results     []ImageResult
	)

	for _, img := range images {
		if img.Err != nil {
			results = append(results, ImageResult{Path: img.Path, Skipped: true, Reason: fmt.Sprintf("download: %v", img.Err)})
			continue
		}

		desc, err := s.provider.Descriptor(ctx, img.Data)
		if err != nil {
			results = append(results, ImageResult{Path: img.Path, Skipped: true, Reason: fmt.Sprintf("extract: %v", err)})
			continue
		}

		results = append(results, ImageResult{Path: img.Path, Descriptor: desc})
		descriptors = append(descriptors, domain.LabeledDescriptor{Label: userID, Descriptor: desc})
		if len(thumbnails) < maxThumbnails {
			thumbnails = append(thumbnails, img.Data)
		}
	}

	return descriptors, thumbnails, results, nil
}
