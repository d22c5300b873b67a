package profile

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Enricher resolves the media URLs of a post. All enrichers built from the
// same slots share one bound on in-flight signing calls.
type Enricher struct {
	resolver *Resolver
	bucket   string
	ttl      time.Duration
	slots    *semaphore.Weighted
	log      *slog.Logger
}

func NewEnricher(resolver *Resolver, bucket string, ttl time.Duration, signWorkers int, log *slog.Logger) *Enricher {
	if signWorkers < 1 {
		signWorkers = 1
	}
	return &Enricher{
		resolver: resolver,
		bucket:   bucket,
		ttl:      ttl,
		slots:    semaphore.NewWeighted(int64(signWorkers)),
		log:      log,
	}
}

// Enrich returns a copy of post whose media carry resolved URLs, index-aligned
// with the input. It returns only after every item has settled. An item that
// cannot be resolved keeps its metadata and gets an empty URL.
func (e *Enricher) Enrich(ctx context.Context, post Post) Post {
	if len(post.Media) == 0 {
		return post
	}

	media := make([]Media, len(post.Media))
	copy(media, post.Media)

	var wg sync.WaitGroup
	for i := range media {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			media[i].URL = e.resolve(ctx, post.ID, media[i])
		}()
	}
	wg.Wait()

	post.Media = media
	return post
}

func (e *Enricher) resolve(ctx context.Context, postID string, m Media) string {
	if err := e.slots.Acquire(ctx, 1); err != nil {
		return ""
	}
	defer e.slots.Release(1)

	url, err := e.resolver.Resolve(ctx, e.bucket, m.Path, e.ttl)
	if err != nil {
		e.log.Warn("media url unavailable", "post_id", postID, "media_id", m.ID, "error", err)
		return ""
	}
	return url
}
