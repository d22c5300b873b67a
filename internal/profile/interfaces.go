package profile

import (
	"context"
	"time"

	"jamsocial/internal/common"
	"jamsocial/internal/dbmysql"
)

//go:generate mockgen -source=interfaces.go -destination=mocks_test.go -package=profile

type URLSigner interface {
	CreateSignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error)
}

type ObjectStore interface {
	URLSigner
	Upload(ctx context.Context, bucket, key string, data []byte, opts common.UploadOptions) (string, error)
	GetPublicURL(bucket, key string) string
	Remove(ctx context.Context, bucket string, paths ...string) error
}

type PostLister interface {
	ListByOwner(ctx context.Context, userID int64) ([]dbmysql.Post, error)
}

type PostRepository interface {
	PostLister
	GetByID(ctx context.Context, postID string) (*dbmysql.Post, error)
	Create(ctx context.Context, post *dbmysql.Post) error
	Delete(ctx context.Context, postID string) error
	UpsertReaction(ctx context.Context, reaction *dbmysql.Reaction) error
}

type UserRepository interface {
	SetAvatarIfEmpty(ctx context.Context, userID int64, url string) (bool, error)
}

// Reloader bumps the refresh counter of a user's feed view.
type Reloader interface {
	Refresh(ctx context.Context, userID int64) (uint64, error)
}

// ErrorReporter receives feed errors meant for display.
type ErrorReporter interface {
	Report(userID int64, err error)
}

type SnapshotObserver interface {
	Name() string
	Update(snapshot *Snapshot) error
}
