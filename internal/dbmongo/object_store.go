package dbmongo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"jamsocial/internal/common"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrObjectExists   = errors.New("object already exists")
)

// ObjectStore keeps one GridFS bucket per logical bucket name. Objects are
// addressed by their GridFS filename, which is the storage path handed out
// by Upload.
type ObjectStore struct {
	db      *mongo.Database
	signer  *common.ObjectSigner
	baseURL string

	mu      sync.Mutex
	buckets map[string]*gridfs.Bucket
}

func NewObjectStore(client *MongoClient, signer *common.ObjectSigner, baseURL string) *ObjectStore {
	return &ObjectStore{
		db:      client.Database,
		signer:  signer,
		baseURL: strings.TrimRight(baseURL, "/"),
		buckets: make(map[string]*gridfs.Bucket),
	}
}

func (s *ObjectStore) bucket(name string) (*gridfs.Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.buckets[name]; ok {
		return b, nil
	}
	b, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(name))
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %s: %w", name, err)
	}
	s.buckets[name] = b
	return b, nil
}

// Upload stores data under key and returns the storage path. With Upsert the
// new revision is written first and older revisions are removed afterwards,
// so readers never see the key missing.
func (s *ObjectStore) Upload(ctx context.Context, bucketName, key string, data []byte, opts common.UploadOptions) (string, error) {
	if key == "" {
		return "", errors.New("object key is required")
	}
	b, err := s.bucket(bucketName)
	if err != nil {
		return "", err
	}

	previous, err := s.revisions(ctx, b, key)
	if err != nil {
		return "", err
	}
	if len(previous) > 0 && !opts.Upsert {
		return "", fmt.Errorf("%w: %s/%s", ErrObjectExists, bucketName, key)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = common.ContentTypeFor(key)
	}
	metadata := bson.M{
		"content_type":  contentType,
		"cache_control": opts.CacheControl,
		"uploaded_at":   time.Now().UTC(),
	}

	if _, err := b.UploadFromStream(key, bytes.NewReader(data), options.GridFSUpload().SetMetadata(metadata)); err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}

	for _, id := range previous {
		if err := b.DeleteContext(ctx, id); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return "", fmt.Errorf("failed to drop old revision of %s: %w", key, err)
		}
	}
	return key, nil
}

// CreateSignedURL returns a media server URL carrying a token that expires
// after ttl. Missing objects are reported as ErrObjectNotFound.
func (s *ObjectStore) CreateSignedURL(ctx context.Context, bucketName, path string, ttl time.Duration) (string, error) {
	b, err := s.bucket(bucketName)
	if err != nil {
		return "", err
	}
	ids, err := s.revisions(ctx, b, path)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucketName, path)
	}

	token, err := s.signer.Sign(bucketName, path, ttl)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s/%s: %w", bucketName, path, err)
	}
	return fmt.Sprintf("%s/object/sign/%s/%s?token=%s",
		s.baseURL, url.PathEscape(bucketName), escapePath(path), url.QueryEscape(token)), nil
}

// GetPublicURL never fails; whether the bucket is served publicly is decided
// by the media server.
func (s *ObjectStore) GetPublicURL(bucketName, key string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", s.baseURL, url.PathEscape(bucketName), escapePath(key))
}

// Download opens the newest revision of path.
func (s *ObjectStore) Download(ctx context.Context, bucketName, path string) (io.ReadCloser, *common.ObjectInfo, error) {
	b, err := s.bucket(bucketName)
	if err != nil {
		return nil, nil, err
	}

	stream, err := b.OpenDownloadStreamByName(path, options.GridFSName().SetRevision(-1))
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucketName, path)
		}
		return nil, nil, fmt.Errorf("download failed: %w", err)
	}

	file := stream.GetFile()
	var metadata bson.M
	if file.Metadata != nil {
		if err := bson.Unmarshal(file.Metadata, &metadata); err != nil {
			stream.Close()
			return nil, nil, fmt.Errorf("invalid metadata for %s: %w", path, err)
		}
	}

	info := &common.ObjectInfo{
		Bucket:       bucketName,
		Path:         file.Name,
		Size:         file.Length,
		ContentType:  getStringFromMap(metadata, "content_type"),
		CacheControl: getStringFromMap(metadata, "cache_control"),
		UploadedAt:   file.UploadDate,
	}
	return stream, info, nil
}

// Remove deletes every revision of the given paths. Unknown paths are ignored.
func (s *ObjectStore) Remove(ctx context.Context, bucketName string, paths ...string) error {
	b, err := s.bucket(bucketName)
	if err != nil {
		return err
	}
	for _, p := range paths {
		ids, err := s.revisions(ctx, b, p)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := b.DeleteContext(ctx, id); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
				return fmt.Errorf("failed to delete %s: %w", p, err)
			}
		}
	}
	return nil
}

func (s *ObjectStore) revisions(ctx context.Context, b *gridfs.Bucket, name string) ([]interface{}, error) {
	cursor, err := b.FindContext(ctx, bson.M{"filename": name})
	if err != nil {
		return nil, fmt.Errorf("lookup of %s failed: %w", name, err)
	}
	defer cursor.Close(ctx)

	var files []struct {
		ID interface{} `bson:"_id"`
	}
	if err := cursor.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("lookup of %s failed: %w", name, err)
	}

	ids := make([]interface{}, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.ID)
	}
	return ids, nil
}

// escapePath escapes each segment but keeps the separators, so keys like
// "42/clip.mp4" stay readable in URLs.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func getStringFromMap(m bson.M, key string) string {
	if m == nil {
		return ""
	}
	if val, ok := m[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
