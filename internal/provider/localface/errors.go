package localface

import "errors"

var (
	ErrSidecarUnavailable = errors.New("inference sidecar unavailable")
	ErrInvalidResponse    = errors.New("invalid response from inference sidecar")
	ErrNoFaceInResponse   = errors.New("no face data in sidecar response")
	ErrBadDescriptor      = errors.New("sidecar returned a malformed descriptor")
)
