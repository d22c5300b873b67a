package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"jamsocial/internal/common"
	"jamsocial/internal/dbmysql"
)

// PostService holds the commands that change a user's posts.
type PostService struct {
	posts    PostRepository
	store    ObjectStore
	reloader Reloader
	bucket   string
	log      *slog.Logger
	now      func() time.Time
}

func NewPostService(posts PostRepository, store ObjectStore, reloader Reloader, bucket string, log *slog.Logger) *PostService {
	return &PostService{
		posts:    posts,
		store:    store,
		reloader: reloader,
		bucket:   bucket,
		log:      log,
		now:      time.Now,
	}
}

// CreatePost uploads the attachments under "<userID>/<uuid><ext>" and stores
// the post. Objects uploaded before a failure are removed again.
func (s *PostService) CreatePost(ctx context.Context, userID int64, content string, uploads []Upload) (*Post, error) {
	if userID <= 0 {
		return nil, ErrSessionNotReady
	}
	if err := common.ValidatePostContent(content, len(uploads)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	row := &dbmysql.Post{
		ID:      uuid.NewString(),
		UserID:  userID,
		Content: content,
		Media:   make([]dbmysql.PostMedia, 0, len(uploads)),
	}

	var uploaded []string
	for i, up := range uploads {
		if len(up.Data) == 0 {
			s.cleanup(uploaded)
			return nil, fmt.Errorf("%w: attachment %d is empty", ErrInvalidInput, i)
		}
		key := fmt.Sprintf("%d/%s%s", userID, uuid.NewString(), common.ExtensionFor(up.FileName, up.ContentType))
		path, err := s.store.Upload(ctx, s.bucket, key, up.Data, common.UploadOptions{ContentType: up.ContentType})
		if err != nil {
			s.cleanup(uploaded)
			return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
		}
		uploaded = append(uploaded, path)
		row.Media = append(row.Media, dbmysql.PostMedia{
			MediaPath: path,
			Type:      common.DetectFileType(up.ContentType),
			Position:  i,
		})
	}

	if err := s.posts.Create(ctx, row); err != nil {
		s.cleanup(uploaded)
		return nil, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	s.reload(ctx, userID)
	post := postFromRow(*row)
	return &post, nil
}

// DeletePost removes the post, its media rows and its stored objects, then
// reloads the owner's feed.
func (s *PostService) DeletePost(ctx context.Context, userID int64, postID string) error {
	if userID <= 0 {
		return ErrSessionNotReady
	}

	row, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return err
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		if errors.Is(err, dbmysql.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	paths := make([]string, len(row.Media))
	for i, m := range row.Media {
		paths[i] = m.MediaPath
	}
	if len(paths) > 0 {
		if err := s.store.Remove(ctx, s.bucket, paths...); err != nil {
			s.log.Warn("post media left in storage", "post_id", postID, "error", err)
		}
	}

	s.reload(ctx, userID)
	return nil
}

// React records the user's reaction, replacing any earlier one on the same
// post. Repeating a call gives the same stored state.
func (s *PostService) React(ctx context.Context, userID int64, postID, kind string) (*ReactionResult, error) {
	if userID <= 0 {
		return nil, ErrSessionNotReady
	}
	if err := common.ValidateReactionKind(kind); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		if errors.Is(err, dbmysql.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	now := s.now()
	reaction := &dbmysql.Reaction{
		UserID:    userID,
		PostID:    postID,
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.posts.UpsertReaction(ctx, reaction); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	return &ReactionResult{
		UserID:    userID,
		PostID:    postID,
		Kind:      kind,
		ReactedAt: now,
	}, nil
}

func (s *PostService) ownedPost(ctx context.Context, userID int64, postID string) (*dbmysql.Post, error) {
	row, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, dbmysql.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	if row.UserID != userID {
		return nil, ErrForbidden
	}
	return row, nil
}

func (s *PostService) cleanup(paths []string) {
	if len(paths) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.store.Remove(ctx, s.bucket, paths...); err != nil {
		s.log.Warn("orphaned post media", "paths", paths, "error", err)
	}
}

func (s *PostService) reload(ctx context.Context, userID int64) {
	if s.reloader == nil {
		return
	}
	if _, err := s.reloader.Refresh(ctx, userID); err != nil {
		s.log.Warn("feed reload failed", "user_id", userID, "error", err)
	}
}
