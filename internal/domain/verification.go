package domain

import (
	"time"

	"github.com/google/uuid"
)

// DescriptorLength is the embedding dimension produced by the recognition model.
const DescriptorLength = 128

// UnknownLabel is the label returned by the matcher when no reference
// descriptor is within the distance ceiling.
const UnknownLabel = "unknown"

// Descriptor is a fixed-length embedding of a detected face.
type Descriptor []float64

// LabeledDescriptor pairs a reference descriptor with the identity it was
// extracted for.
type LabeledDescriptor struct {
	Label      string
	Descriptor Descriptor
}

// Phase identifies where a verification session is in its lifecycle.
type Phase string

const (
	PhaseInitial             Phase = "initial"
	PhaseCandidateIdentified Phase = "candidate_identified"
	PhaseScanning            Phase = "scanning"
	PhaseComparing           Phase = "comparing"
	PhaseSuccess             Phase = "success"
	PhaseFailure             Phase = "failure"
)

// Terminal reports whether the phase admits no further transitions.
func (p Phase) Terminal() bool {
	return p == PhaseSuccess || p == PhaseFailure
}

// Point is a coordinate in frame space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PositionState is the outcome of one positioning tick. A nil *PositionState
// means no single face was found; InsideZone is only meaningful when exactly
// one face was detected.
type PositionState struct {
	InsideZone bool    `json:"inside_zone"`
	FaceCenter Point   `json:"face_center"`
	FaceSize   float64 `json:"face_size"`
}

// CapturedPhoto is one frame of the capture burst. Immutable once taken; the
// full ordered sequence is handed downstream as one unit.
type CapturedPhoto struct {
	Ordinal int    `json:"ordinal"`
	Image   []byte `json:"-"`
}

// MatchResult is the matcher's answer for a single probe descriptor.
type MatchResult struct {
	Label    string  `json:"label"`
	Distance float64 `json:"distance"`
}

// Similarity converts the match distance to a 0-100 score.
func (r MatchResult) Similarity() float64 {
	return (1 - r.Distance) * 100
}

// Outcome is the terminal result of a verification session.
type Outcome struct {
	SessionID uuid.UUID       `json:"session_id"`
	UserID    string          `json:"user_id"`
	Verified  bool            `json:"verified"`
	Match     *MatchResult    `json:"match,omitempty"`
	Photos    []CapturedPhoto `json:"-"`
	Elapsed   time.Duration   `json:"elapsed_ms"`
}
