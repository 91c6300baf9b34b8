// Package matcher decides whether a probe descriptor belongs to one of the
// enrolled reference descriptors. It is consulted twice per session: once to
// gate candidate identification from the live feed, and once on the captured
// burst for the final decision. Both uses share the same contract.
package matcher

import (
	"math"

	"github.com/ticketguard/faceverify/internal/domain"
)

const (
	// DefaultDistanceCeiling is the nearest-neighbor distance above which a
	// probe maps to the unknown label.
	DefaultDistanceCeiling = 0.6

	// ConfidenceFloor is the similarity a match must strictly exceed to
	// authorize. A similarity of exactly 50 rejects.
	ConfidenceFloor = 50.0
)

// Option configures a Matcher.
type Option func(*Matcher)

// WithDistanceCeiling overrides the unknown-label distance ceiling.
func WithDistanceCeiling(ceiling float64) Option {
	return func(m *Matcher) {
		m.ceiling = ceiling
	}
}

// Matcher is a nearest-neighbor matcher over labeled reference descriptors.
type Matcher struct {
	refs    []domain.LabeledDescriptor
	ceiling float64
}

// New builds a matcher over the given reference set.
func New(refs []domain.LabeledDescriptor, opts ...Option) *Matcher {
	m := &Matcher{
		refs:    refs,
		ceiling: DefaultDistanceCeiling,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match returns the closest reference to the probe. When the reference set is
// empty or no reference is within the distance ceiling, the result carries
// the unknown label and a distance of 1.
func (m *Matcher) Match(probe domain.Descriptor) domain.MatchResult {
	best := domain.MatchResult{Label: domain.UnknownLabel, Distance: 1}

	for _, ref := range m.refs {
		d := EuclideanDistance(probe, ref.Descriptor)
		if d < best.Distance && d <= m.ceiling {
			best = domain.MatchResult{Label: ref.Label, Distance: d}
		}
	}

	return best
}

// Authorized applies the acceptance rule: a known label whose similarity
// strictly exceeds the confidence floor.
func Authorized(r domain.MatchResult) bool {
	return r.Label != domain.UnknownLabel && r.Similarity() > ConfidenceFloor
}

// EuclideanDistance computes the L2 distance between two descriptors.
// Mismatched or empty descriptors yield the maximum distance of 1.
func EuclideanDistance(a, b domain.Descriptor) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}

	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}

	return math.Sqrt(sum)
}
