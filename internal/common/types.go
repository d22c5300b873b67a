package common

import (
	"time"
)

// UploadOptions mirrors the options object-store uploads accept.
type UploadOptions struct {
	ContentType  string
	CacheControl string
	// Upsert replaces an existing object under the same key instead of failing.
	Upsert bool
}

// ObjectInfo is the metadata stored alongside an object.
type ObjectInfo struct {
	Bucket       string    `json:"bucket"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	CacheControl string    `json:"cache_control,omitempty"`
	UploadedAt   time.Time `json:"uploaded_at"`
}
