package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches AppErrors by code, so a WithError copy still compares equal to
// its sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	// Camera resource errors
	ErrCameraPermission = &AppError{
		Code:       "CAMERA_PERMISSION_DENIED",
		Message:    "Camera access was denied",
		StatusCode: 403,
	}

	ErrCameraNotFound = &AppError{
		Code:       "CAMERA_NO_DEVICE",
		Message:    "No camera device available",
		StatusCode: 404,
	}

	ErrCameraBusy = &AppError{
		Code:       "CAMERA_DEVICE_BUSY",
		Message:    "Camera is in use by another application",
		StatusCode: 409,
	}

	ErrCameraUnknown = &AppError{
		Code:       "CAMERA_UNKNOWN",
		Message:    "Camera could not be started",
		StatusCode: 500,
	}

	ErrModelLoad = &AppError{
		Code:       "MODEL_LOAD_FAILED",
		Message:    "Face model could not be loaded",
		StatusCode: 503,
	}

	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    "No face detected in the frame",
		StatusCode: 422,
	}

	ErrMultipleFaces = &AppError{
		Code:       "MULTIPLE_FACES",
		Message:    "Multiple faces detected, only one person at a time",
		StatusCode: 422,
	}

	ErrPositioningLost = &AppError{
		Code:       "POSITIONING_LOST",
		Message:    "Lost positioning or face during capture",
		StatusCode: 422,
	}

	ErrAttemptLimit = &AppError{
		Code:       "ATTEMPT_LIMIT_EXCEEDED",
		Message:    "Too many failed positioning attempts",
		StatusCode: 429,
	}

	ErrIdentityMismatch = &AppError{
		Code:       "IDENTITY_MISMATCH",
		Message:    "Captured face does not match the enrolled identity",
		StatusCode: 403,
	}

	ErrVerificationTimeout = &AppError{
		Code:       "VERIFICATION_TIMEOUT",
		Message:    "Verification did not complete in time",
		StatusCode: 408,
	}

	ErrNetwork = &AppError{
		Code:       "NETWORK_ERROR",
		Message:    "Enrollment images could not be fetched",
		StatusCode: 502,
	}

	ErrSessionClosed = &AppError{
		Code:       "SESSION_CLOSED",
		Message:    "Verification session was closed",
		StatusCode: 410,
	}
)
