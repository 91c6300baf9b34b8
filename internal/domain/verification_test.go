package domain

import (
	"testing"
	"time"
)

func TestMatchResult_Similarity(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		expected float64
	}{
		{name: "perfect match", distance: 0, expected: 100},
		{name: "distance ceiling", distance: 0.6, expected: 40},
		{name: "boundary fifty", distance: 0.5, expected: 50},
		{name: "no similarity", distance: 1, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := MatchResult{Label: "user-1", Distance: tt.distance}
			if got := r.Similarity(); got != tt.expected {
				t.Errorf("Similarity() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPhase_Terminal(t *testing.T) {
	terminal := []Phase{PhaseSuccess, PhaseFailure}
	live := []Phase{PhaseInitial, PhaseCandidateIdentified, PhaseScanning, PhaseComparing}

	for _, p := range terminal {
		if !p.Terminal() {
			t.Errorf("Terminal() = false for %s, want true", p)
		}
	}
	for _, p := range live {
		if p.Terminal() {
			t.Errorf("Terminal() = true for %s, want false", p)
		}
	}
}

func TestCacheIndicator_Expiry(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	ind := CacheIndicator{
		Timestamp:       now,
		ExpiresAt:       now.Add(15 * time.Minute),
		DescriptorCount: 3,
		ImageCount:      5,
	}

	if ind.Expired(now) {
		t.Errorf("Expired() = true at creation, want false")
	}
	if !ind.Valid(now.Add(15*time.Minute - time.Second)) {
		t.Errorf("Valid() = false just before expiry, want true")
	}
	// Expiry instant itself is already invalid
	if !ind.Expired(now.Add(15 * time.Minute)) {
		t.Errorf("Expired() = false at the expiry instant, want true")
	}
	if ind.Valid(now.Add(16 * time.Minute)) {
		t.Errorf("Valid() = true after expiry, want false")
	}

	empty := CacheIndicator{Timestamp: now, ExpiresAt: now.Add(time.Hour)}
	if empty.Valid(now) {
		t.Errorf("Valid() = true with zero descriptors, want false")
	}
}
