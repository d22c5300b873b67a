package profile

import (
	"context"
	"fmt"
	"time"
)

// Resolver turns a storage path into a time-limited URL.
type Resolver struct {
	signer  URLSigner
	metrics *Metrics
}

func NewResolver(signer URLSigner, metrics *Metrics) *Resolver {
	return &Resolver{signer: signer, metrics: metrics}
}

// Resolve returns a URL valid for ttl. Every failure, including invalid
// arguments, is reported as ErrResolutionFailed.
func (r *Resolver) Resolve(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrResolutionFailed)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("%w: ttl must be positive, got %s", ErrResolutionFailed, ttl)
	}

	url, err := r.signer.CreateSignedURL(ctx, bucket, path, ttl)
	if err != nil {
		r.metrics.observeResolution(false)
		return "", fmt.Errorf("%w: %s/%s: %w", ErrResolutionFailed, bucket, path, err)
	}
	if url == "" {
		r.metrics.observeResolution(false)
		return "", fmt.Errorf("%w: %s/%s: empty url", ErrResolutionFailed, bucket, path)
	}

	r.metrics.observeResolution(true)
	return url, nil
}
