package profile

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// AssemblerFactory builds the assembler for a newly seen user.
type AssemblerFactory func(userID int64) *Assembler

// Registry keeps the feed views of recently active users. Evicted views are
// stopped; their next request starts from an empty snapshot.
type Registry struct {
	mu      sync.Mutex
	cache   *lru.Cache[int64, *Assembler]
	factory AssemblerFactory
}

func NewRegistry(size int, factory AssemblerFactory) (*Registry, error) {
	cache, err := lru.NewWithEvict[int64, *Assembler](size, func(_ int64, a *Assembler) {
		a.Stop()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create assembler cache: %w", err)
	}
	return &Registry{cache: cache, factory: factory}, nil
}

// Get returns the user's assembler, creating it on first use.
func (r *Registry) Get(userID int64) (*Assembler, error) {
	if userID <= 0 {
		return nil, ErrSessionNotReady
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(userID), nil
}

// Refresh makes Registry a Reloader for services that change a user's feed.
// The lookup and the trigger share the lock, so an eviction cannot stop the
// assembler in between.
func (r *Registry) Refresh(ctx context.Context, userID int64) (uint64, error) {
	if userID <= 0 {
		return 0, ErrSessionNotReady
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(userID).Refresh(ctx, userID)
}

func (r *Registry) getLocked(userID int64) *Assembler {
	if a, ok := r.cache.Get(userID); ok {
		return a
	}
	a := r.factory(userID)
	r.cache.Add(userID, a)
	return a
}

func (r *Registry) Len() int {
	return r.cache.Len()
}

// Close stops every assembler and waits for in-flight runs.
func (r *Registry) Close() {
	r.mu.Lock()
	assemblers := r.cache.Values()
	r.cache.Purge()
	r.mu.Unlock()

	for _, a := range assemblers {
		a.Wait()
	}
}
