// Package mock provides a deterministic FaceProvider for development and
// tests. Descriptors are derived from the frame bytes, so identical frames
// always produce identical descriptors, and a scripted frame can steer
// detection through an optional "mock:" directive header.
package mock

import (
	"bytes"
	"context"
	"crypto/sha256"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/ticketguard/faceverify/internal/domain"
	"github.com/ticketguard/faceverify/internal/provider"
)

// Frame directives: a frame starting with "mock:" carries a comma-separated
// key=value list terminated by ';', e.g. "mock:faces=2,smile=0.9;payload".
// Unknown keys are ignored. The bytes after ';' identify the face.
const directivePrefix = "mock:"

// Defaults model a single centered face in a 640x480 frame.
const (
	defaultCenterX  = 320.0
	defaultCenterY  = 240.0
	defaultFaceSize = 260.0
)

// Provider implements provider.FaceProvider deterministically.
type Provider struct {
	mu     sync.Mutex
	loaded map[provider.ModelKind]bool

	// FailModels lists kinds whose EnsureModels call fails, for tests.
	FailModels map[provider.ModelKind]bool
}

// New creates a mock provider.
func New() *Provider {
	return &Provider{loaded: make(map[provider.ModelKind]bool)}
}

type directives struct {
	faces int
	smile float64
	cx    float64
	cy    float64
	size  float64
}

func parseDirectives(frame []byte) (directives, []byte) {
	d := directives{faces: 1, smile: 0, cx: defaultCenterX, cy: defaultCenterY, size: defaultFaceSize}

	if !bytes.HasPrefix(frame, []byte(directivePrefix)) {
		return d, frame
	}

	rest := frame[len(directivePrefix):]
	end := bytes.IndexByte(rest, ';')
	if end < 0 {
		return d, frame
	}

	for _, pair := range strings.Split(string(rest[:end]), ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		val, err := strconv.ParseFloat(kv[1], 64)
		if err != nil {
			continue
		}
		switch kv[0] {
		case "faces":
			d.faces = int(val)
		case "smile":
			d.smile = val
		case "cx":
			d.cx = val
		case "cy":
			d.cy = val
		case "size":
			d.size = val
		}
	}

	return d, rest[end+1:]
}

// EnsureModels marks the given kinds loaded. Repeat calls are no-ops.
func (p *Provider) EnsureModels(ctx context.Context, kinds ...provider.ModelKind) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, kind := range kinds {
		if p.FailModels[kind] {
			return domain.ErrModelLoad
		}
		p.loaded[kind] = true
	}
	return nil
}

// Loaded reports whether a model kind was loaded, for test assertions.
func (p *Provider) Loaded(kind provider.ModelKind) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded[kind]
}

// DetectFaces returns the boxes the frame directives describe.
func (p *Provider) DetectFaces(ctx context.Context, frame []byte) ([]provider.DetectedFace, error) {
	d, _ := parseDirectives(frame)

	faces := make([]provider.DetectedFace, 0, d.faces)
	for i := 0; i < d.faces; i++ {
		// Additional faces are offset so callers see distinct boxes.
		offset := float64(i) * d.size
		faces = append(faces, provider.DetectedFace{
			BoundingBox: provider.BoundingBox{
				X:      d.cx - d.size/2 + offset,
				Y:      d.cy - d.size/2,
				Width:  d.size,
				Height: d.size,
			},
			Confidence: 0.99,
		})
	}

	return faces, nil
}

// Descriptor returns a sha256-derived normalized embedding of the frame
// payload. Frames with the same payload map to distance zero.
func (p *Provider) Descriptor(ctx context.Context, frame []byte) (domain.Descriptor, error) {
	d, payload := parseDirectives(frame)

	switch {
	case d.faces == 0:
		return nil, domain.ErrNoFaceDetected
	case d.faces > 1:
		return nil, domain.ErrMultipleFaces
	}

	return generateDescriptor(payload), nil
}

// ExpressionScore returns the scripted smile score.
func (p *Provider) ExpressionScore(ctx context.Context, frame []byte) (float64, error) {
	d, _ := parseDirectives(frame)

	switch {
	case d.faces == 0:
		return 0, domain.ErrNoFaceDetected
	case d.faces > 1:
		return 0, domain.ErrMultipleFaces
	}

	return d.smile, nil
}

// generateDescriptor derives a unit-length descriptor from the payload hash.
func generateDescriptor(payload []byte) domain.Descriptor {
	hash := sha256.Sum256(payload)
	descriptor := make(domain.Descriptor, domain.DescriptorLength)
	hashLen := len(hash)

	for i := 0; i < domain.DescriptorLength; i++ {
		idx := i % hashLen
		descriptor[i] = (float64(hash[idx])/255.0)*2 - 1
	}

	norm := 0.0
	for _, v := range descriptor {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	for i := range descriptor {
		descriptor[i] /= norm
	}

	return descriptor
}

var _ provider.FaceProvider = (*Provider)(nil)
