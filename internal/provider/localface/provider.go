package localface

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/ticketguard/faceverify/internal/domain"
	"github.com/ticketguard/faceverify/internal/provider"
)

// Provider implements provider.FaceProvider against the local inference
// sidecar. One instance is shared by every session on the device.
type Provider struct {
	client *Client

	mu     sync.Mutex
	loaded map[provider.ModelKind]bool
}

// NewProvider creates a new sidecar-backed provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
		loaded: make(map[provider.ModelKind]bool),
	}
}

// EnsureModels loads each model kind once. A kind already loaded in this
// process is skipped; failures leave the kind unloaded so a later call
// retries. Failure of the expression model is returned wrapped so callers
// can treat it as non-fatal; the required kinds map to domain.ErrModelLoad.
func (p *Provider) EnsureModels(ctx context.Context, kinds ...provider.ModelKind) error {
	for _, kind := range kinds {
		p.mu.Lock()
		already := p.loaded[kind]
		p.mu.Unlock()
		if already {
			continue
		}

		if err := p.client.LoadModel(ctx, string(kind)); err != nil {
			return domain.ErrModelLoad.WithError(fmt.Errorf("load %s: %w", kind, err))
		}

		p.mu.Lock()
		p.loaded[kind] = true
		p.mu.Unlock()
	}

	return nil
}

// DetectFaces detects face boxes in the frame
func (p *Provider) DetectFaces(ctx context.Context, frame []byte) ([]provider.DetectedFace, error) {
	resp, err := p.client.Represent(ctx, base64.StdEncoding.EncodeToString(frame))
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	faces := make([]provider.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		faces = append(faces, provider.DetectedFace{
			BoundingBox: provider.BoundingBox{
				X:      float64(result.FacialArea.X),
				Y:      float64(result.FacialArea.Y),
				Width:  float64(result.FacialArea.W),
				Height: float64(result.FacialArea.H),
			},
			Confidence: confidenceFromArea(result.FacialArea),
		})
	}

	return faces, nil
}

// Descriptor extracts the embedding of the single face in the frame
func (p *Provider) Descriptor(ctx context.Context, frame []byte) (domain.Descriptor, error) {
	resp, err := p.client.Represent(ctx, base64.StdEncoding.EncodeToString(frame))
	if err != nil {
		return nil, fmt.Errorf("extract descriptor: %w", err)
	}

	switch len(resp.Results) {
	case 0:
		return nil, domain.ErrNoFaceDetected.WithError(ErrNoFaceInResponse)
	case 1:
	default:
		return nil, domain.ErrMultipleFaces
	}

	embedding := resp.Results[0].Embedding
	if len(embedding) != domain.DescriptorLength {
		return nil, fmt.Errorf("%w: got %d dimensions", ErrBadDescriptor, len(embedding))
	}

	return domain.Descriptor(embedding), nil
}

// ExpressionScore returns the smile score of the single face in the frame.
// The sidecar reports emotion percentages summing to 100; the "happy"
// component normalized to [0,1] is the smile signal.
func (p *Provider) ExpressionScore(ctx context.Context, frame []byte) (float64, error) {
	resp, err := p.client.Analyze(ctx, base64.StdEncoding.EncodeToString(frame))
	if err != nil {
		return 0, fmt.Errorf("expression score: %w", err)
	}

	switch len(resp.Results) {
	case 0:
		return 0, domain.ErrNoFaceDetected.WithError(ErrNoFaceInResponse)
	case 1:
	default:
		return 0, domain.ErrMultipleFaces
	}

	score := resp.Results[0].Emotion["happy"] / 100
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return score, nil
}

const (
	// minFaceArea is the minimum face area (in pixels²) for reliable detection
	minFaceArea = 2500 // 50x50 pixels
	// maxFaceArea is used for confidence scaling
	maxFaceArea = 250000 // 500x500 pixels
)

// confidenceFromArea estimates detection confidence from the face area.
// The sidecar does not return confidence; larger faces are more likely to
// be accurately detected.
func confidenceFromArea(area FacialArea) float64 {
	faceArea := float64(area.W * area.H)
	if faceArea < minFaceArea {
		return 0.5
	}
	normalized := (faceArea - minFaceArea) / (maxFaceArea - minFaceArea)
	if normalized > 1 {
		normalized = 1
	}
	return 0.7 + (normalized * 0.29)
}

// Ensure Provider implements provider.FaceProvider
var _ provider.FaceProvider = (*Provider)(nil)
