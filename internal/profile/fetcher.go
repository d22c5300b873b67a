package profile

import (
	"context"
	"fmt"
)

type PostFetcher struct {
	repo PostLister
}

func NewPostFetcher(repo PostLister) *PostFetcher {
	return &PostFetcher{repo: repo}
}

// FetchPosts loads the user's posts with their media references in the
// order the store returns them.
func (f *PostFetcher) FetchPosts(ctx context.Context, userID int64) ([]Post, error) {
	rows, err := f.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: posts of user %d: %w", ErrQueryFailed, userID, err)
	}

	posts := make([]Post, len(rows))
	for i, row := range rows {
		posts[i] = postFromRow(row)
	}
	return posts, nil
}
