package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ticketguard/faceverify/internal/domain"
)

// descriptorAt returns a unit-ish descriptor whose first dimension is v.
func descriptorAt(v float64) domain.Descriptor {
	d := make(domain.Descriptor, domain.DescriptorLength)
	d[0] = v
	return d
}

func TestMatcher_Match(t *testing.T) {
	refs := []domain.LabeledDescriptor{
		{Label: "user-1", Descriptor: descriptorAt(0)},
		{Label: "user-2", Descriptor: descriptorAt(1)},
	}

	tests := []struct {
		name         string
		probe        domain.Descriptor
		wantLabel    string
		wantDistance float64
	}{
		{
			name:         "exact match",
			probe:        descriptorAt(0),
			wantLabel:    "user-1",
			wantDistance: 0,
		},
		{
			name:         "nearest within ceiling",
			probe:        descriptorAt(0.1),
			wantLabel:    "user-1",
			wantDistance: 0.1,
		},
		{
			name:         "between refs, closest wins",
			probe:        descriptorAt(0.8),
			wantLabel:    "user-2",
			wantDistance: 0.2,
		},
		{
			name:         "beyond ceiling is unknown",
			probe:        descriptorAt(1.7),
			wantLabel:    domain.UnknownLabel,
			wantDistance: 1,
		},
	}

	m := New(refs)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Match(tt.probe)
			assert.Equal(t, tt.wantLabel, got.Label)
			assert.InDelta(t, tt.wantDistance, got.Distance, 1e-9)
		})
	}
}

func TestMatcher_EmptyReferenceSet(t *testing.T) {
	m := New(nil)
	got := m.Match(descriptorAt(0))
	assert.Equal(t, domain.UnknownLabel, got.Label)
	assert.False(t, Authorized(got))
}

func TestMatcher_DistanceCeilingBoundary(t *testing.T) {
	refs := []domain.LabeledDescriptor{{Label: "user-1", Descriptor: descriptorAt(0)}}

	// Exactly at the ceiling still matches; just past it does not.
	at := New(refs).Match(descriptorAt(0.6))
	assert.Equal(t, "user-1", at.Label)

	past := New(refs).Match(descriptorAt(0.600001))
	assert.Equal(t, domain.UnknownLabel, past.Label)

	tight := New(refs, WithDistanceCeiling(0.3)).Match(descriptorAt(0.4))
	assert.Equal(t, domain.UnknownLabel, tight.Label)
}

func TestAuthorized(t *testing.T) {
	tests := []struct {
		name   string
		result domain.MatchResult
		want   bool
	}{
		{
			name:   "known label above floor",
			result: domain.MatchResult{Label: "user-1", Distance: 0.2},
			want:   true,
		},
		{
			name:   "similarity exactly 50 rejects",
			result: domain.MatchResult{Label: "user-1", Distance: 0.5},
			want:   false,
		},
		{
			name:   "just above 50 accepts",
			result: domain.MatchResult{Label: "user-1", Distance: 0.499},
			want:   true,
		},
		{
			name:   "unknown label rejects regardless of distance",
			result: domain.MatchResult{Label: domain.UnknownLabel, Distance: 0},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Authorized(tt.result))
		})
	}
}

func TestEuclideanDistance(t *testing.T) {
	a := domain.Descriptor{3, 0}
	b := domain.Descriptor{0, 4}
	assert.InDelta(t, 5, EuclideanDistance(a, b), 1e-9)

	assert.Equal(t, 1.0, EuclideanDistance(a, domain.Descriptor{1}))
	assert.Equal(t, 1.0, EuclideanDistance(nil, nil))
}
