package profile

import (
	"time"

	"jamsocial/internal/common"
	"jamsocial/internal/dbmysql"
)

// Media is a post attachment. URL is derived per fetch and is empty when the
// signed link could not be obtained.
type Media struct {
	ID   string               `json:"id"`
	Path string               `json:"media_path"`
	Kind common.MediaFileType `json:"type"`
	URL  string               `json:"url"`
}

type Post struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Media     []Media   `json:"post_media"`
}

// Snapshot is the result of one complete feed run. A published snapshot is
// never modified; the next run replaces it.
type Snapshot struct {
	RunID       uint64    `json:"run_id"`
	UserID      int64     `json:"user_id"`
	Posts       []Post    `json:"posts"`
	AssembledAt time.Time `json:"assembled_at"`

	// URLsExpireAt is the earliest expiry of the signed media URLs.
	URLsExpireAt time.Time `json:"urls_expire_at"`
}

// URLsExpired reports whether the media URLs must be re-resolved at now.
func (s *Snapshot) URLsExpired(now time.Time) bool {
	return !s.URLsExpireAt.IsZero() && !now.Before(s.URLsExpireAt)
}

type ReactionResult struct {
	UserID    int64     `json:"user_id"`
	PostID    string    `json:"post_id"`
	Kind      string    `json:"kind"`
	ReactedAt time.Time `json:"reacted_at"`
}

// AvatarResult carries the public avatar URL. Stored is false when the user
// already had an avatar and the record was left untouched.
type AvatarResult struct {
	URL    string `json:"url"`
	Stored bool   `json:"stored"`
}

// Upload is one file attached to a new post.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

func postFromRow(row dbmysql.Post) Post {
	media := make([]Media, len(row.Media))
	for i, m := range row.Media {
		media[i] = Media{
			ID:   m.ID,
			Path: m.MediaPath,
			Kind: m.Type,
		}
	}
	return Post{
		ID:        row.ID,
		UserID:    row.UserID,
		Content:   row.Content,
		CreatedAt: row.CreatedAt,
		Media:     media,
	}
}
