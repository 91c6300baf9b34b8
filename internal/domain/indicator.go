package domain

import (
	"time"
)

// CacheIndicator records that a warm reference cache existed for a user and
// when it expires. It carries counts only, never descriptors or image data,
// so it is safe to persist across restarts.
type CacheIndicator struct {
	Timestamp       time.Time `json:"timestamp"`
	ExpiresAt       time.Time `json:"expires_at"`
	DescriptorCount int       `json:"descriptor_count"`
	ImageCount      int       `json:"image_count"`
}

// Expired reports whether the indicator is past its expiry at the given
// instant. Callers supply the clock so expiry stays testable.
func (i CacheIndicator) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// Valid reports whether the indicator still vouches for a warm cache.
func (i CacheIndicator) Valid(now time.Time) bool {
	return i.DescriptorCount > 0 && !i.Expired(now)
}
