package session

import (
	"github.com/ticketguard/faceverify/internal/domain"
)

// CaptureZone is the elliptical on-screen region a face must occupy for
// positioning to be satisfied.
type CaptureZone struct {
	Center     domain.Point
	HalfWidth  float64
	HalfHeight float64
}

// DefaultZone is sized for the 640x480 preview the engine renders into.
func DefaultZone() CaptureZone {
	return CaptureZone{
		Center:     domain.Point{X: 320, Y: 240},
		HalfWidth:  150,
		HalfHeight: 190,
	}
}

// Contains reports whether the point falls inside the ellipse, using the
// normalized distance ((x-cx)/a)^2 + ((y-cy)/b)^2 <= 1.
func (z CaptureZone) Contains(p domain.Point) bool {
	if z.HalfWidth <= 0 || z.HalfHeight <= 0 {
		return false
	}
	dx := (p.X - z.Center.X) / z.HalfWidth
	dy := (p.Y - z.Center.Y) / z.HalfHeight
	return dx*dx+dy*dy <= 1
}
