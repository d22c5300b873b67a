package profile

import "errors"

var (
	// ErrQueryFailed means the relational read behind a feed run failed.
	ErrQueryFailed = errors.New("query failed")
	// ErrResolutionFailed is always recovered inside the enricher; callers
	// outside this package only see it from Resolver directly.
	ErrResolutionFailed = errors.New("resolution failed")
	ErrUploadFailed     = errors.New("upload failed")
	ErrPersistFailed    = errors.New("persist failed")

	ErrSessionNotReady = errors.New("session not ready")
	ErrInvalidImage    = errors.New("invalid image")
	ErrInvalidInput    = errors.New("invalid input")
	ErrPostNotFound    = errors.New("post not found")
	ErrForbidden       = errors.New("forbidden")
	ErrAssemblerClosed = errors.New("assembler closed")
)
