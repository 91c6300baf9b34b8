package provider

import (
	"context"

	"github.com/ticketguard/faceverify/internal/domain"
)

// ModelKind identifies one of the pretrained model assets the provider loads.
type ModelKind string

const (
	ModelDetector   ModelKind = "detector"
	ModelLandmarks  ModelKind = "landmarks"
	ModelRecognizer ModelKind = "recognizer"
	ModelExpression ModelKind = "expression"
)

// RequiredModels are the kinds whose load failure is fatal to a session.
// The expression model is optional: without it the liveness gate degrades.
var RequiredModels = []ModelKind{ModelDetector, ModelLandmarks, ModelRecognizer}

// FaceProvider is the capability provider backing the verification engine:
// detection, descriptor extraction and expression scoring over raw frames.
type FaceProvider interface {
	// EnsureModels loads the given model kinds. Loading is idempotent; a
	// second call for an already loaded kind is a no-op.
	EnsureModels(ctx context.Context, kinds ...ModelKind) error

	// DetectFaces returns zero, one or many face boxes found in the frame.
	DetectFaces(ctx context.Context, frame []byte) ([]DetectedFace, error)

	// Descriptor extracts the 128-d embedding of the single face in the
	// frame. Returns domain.ErrNoFaceDetected or domain.ErrMultipleFaces
	// when the frame does not hold exactly one face.
	Descriptor(ctx context.Context, frame []byte) (domain.Descriptor, error)

	// ExpressionScore returns the smile score of the single face in the
	// frame, in [0, 1].
	ExpressionScore(ctx context.Context, frame []byte) (float64, error)
}

// DetectedFace represents a detected face in the frame.
type DetectedFace struct {
	BoundingBox BoundingBox `json:"bounding_box"`
	Confidence  float64     `json:"confidence"`
}

// BoundingBox represents the face area in the frame.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() domain.Point {
	return domain.Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// Size returns the larger box dimension, used as the face size signal.
func (b BoundingBox) Size() float64 {
	if b.Width > b.Height {
		return b.Width
	}
	return b.Height
}
