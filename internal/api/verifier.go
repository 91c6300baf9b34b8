package api

import (
	"context"
	"log/slog"

	"github.com/ticketguard/faceverify/internal/camera"
	"github.com/ticketguard/faceverify/internal/domain"
	"github.com/ticketguard/faceverify/internal/provider"
	"github.com/ticketguard/faceverify/internal/refcache"
	"github.com/ticketguard/faceverify/internal/session"
)

// SessionVerifier builds and runs one verification session per request over
// the shared camera resource.
type SessionVerifier struct {
	provider provider.FaceProvider
	refs     *refcache.Service
	camera   *camera.Resource
	logger   *slog.Logger
	opts     []session.SessionOption
}

func NewSessionVerifier(faceProvider provider.FaceProvider, refs *refcache.Service, cam *camera.Resource, logger *slog.Logger, opts ...session.SessionOption) *SessionVerifier {
	return &SessionVerifier{
		provider: faceProvider,
		refs:     refs,
		camera:   cam,
		logger:   logger,
		opts:     opts,
	}
}

func (v *SessionVerifier) Verify(ctx context.Context, userID string) (*domain.Outcome, error) {
	s := session.New(userID, v.provider, refSource{v.refs}, v.camera, v.logger, v.opts...)
	return s.Run(ctx)
}

// refSource adapts the reference cache to the session's narrower contract;
// the session has no use for the per-image preload report.
type refSource struct {
	svc *refcache.Service
}

func (r refSource) IsWarm(userID string) bool {
	return r.svc.IsWarm(userID)
}

func (r refSource) Preload(ctx context.Context, userID string) error {
	_, err := r.svc.Preload(ctx, userID)
	return err
}

func (r refSource) Get(ctx context.Context, userID string) ([]domain.LabeledDescriptor, error) {
	return r.svc.Get(ctx, userID)
}
