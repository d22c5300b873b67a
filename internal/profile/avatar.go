package profile

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"jamsocial/internal/common"
)

// AvatarKey is the object key of a user's avatar. It never changes, so a new
// upload replaces the previous image.
func AvatarKey(userID int64) string {
	return fmt.Sprintf("user_%d.jpg", userID)
}

type AvatarService struct {
	store        ObjectStore
	users        UserRepository
	reloader     Reloader
	bucket       string
	cacheControl string
	metrics      *Metrics
	log          *slog.Logger
}

func NewAvatarService(
	store ObjectStore,
	users UserRepository,
	reloader Reloader,
	bucket, cacheControl string,
	metrics *Metrics,
	log *slog.Logger,
) *AvatarService {
	return &AvatarService{
		store:        store,
		users:        users,
		reloader:     reloader,
		bucket:       bucket,
		cacheControl: cacheControl,
		metrics:      metrics,
		log:          log,
	}
}

// ReplaceAvatar uploads image and records its public URL on the user only if
// no avatar is set yet. Later uploads still overwrite the stored object but
// leave the user record alone. A persist failure returns the URL together
// with ErrPersistFailed; the uploaded object is kept.
func (s *AvatarService) ReplaceAvatar(ctx context.Context, userID int64, image []byte, contentType string) (*AvatarResult, error) {
	if userID <= 0 {
		return nil, ErrSessionNotReady
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidImage)
	}
	if contentType == "" {
		contentType = http.DetectContentType(image)
	}
	if !common.IsImageMIME(contentType) {
		return nil, fmt.Errorf("%w: unsupported content type %q", ErrInvalidImage, contentType)
	}

	key := AvatarKey(userID)
	path, err := s.store.Upload(ctx, s.bucket, key, image, common.UploadOptions{
		ContentType:  contentType,
		CacheControl: s.cacheControl,
		Upsert:       true,
	})
	if err != nil {
		s.metrics.observeAvatar("upload_failed")
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	defer s.reload(ctx, userID)

	result := &AvatarResult{URL: s.store.GetPublicURL(s.bucket, path)}

	stored, err := s.users.SetAvatarIfEmpty(ctx, userID, result.URL)
	if err != nil {
		s.metrics.observeAvatar("persist_failed")
		return result, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	result.Stored = stored

	if stored {
		s.metrics.observeAvatar("stored")
	} else {
		s.metrics.observeAvatar("kept")
		s.log.Info("avatar already set, record unchanged", "user_id", userID)
	}
	return result, nil
}

func (s *AvatarService) reload(ctx context.Context, userID int64) {
	if s.reloader == nil {
		return
	}
	if _, err := s.reloader.Refresh(ctx, userID); err != nil {
		s.log.Warn("profile reload failed", "user_id", userID, "error", err)
	}
}
