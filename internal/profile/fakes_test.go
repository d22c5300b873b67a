package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"jamsocial/internal/common"
	"jamsocial/internal/dbmysql"
	"jamsocial/internal/logging"
)

// ---- In-memory fakes ----

type fakeSigner struct {
	mu       sync.Mutex
	delays   map[string]time.Duration
	failing  map[string]bool
	issued   int
	inFlight int32
	peak     int32
}

func newFakeSigner() *fakeSigner {
	return &fakeSigner{delays: map[string]time.Duration{}, failing: map[string]bool{}}
}

func (s *fakeSigner) CreateSignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	n := atomic.AddInt32(&s.inFlight, 1)
	defer atomic.AddInt32(&s.inFlight, -1)
	for {
		p := atomic.LoadInt32(&s.peak)
		if n <= p || atomic.CompareAndSwapInt32(&s.peak, p, n) {
			break
		}
	}

	s.mu.Lock()
	delay := s.delays[path]
	fail := s.failing[path]
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if fail {
		return "", errors.New("object not found")
	}
	return fmt.Sprintf("https://media.test/object/sign/%s/%s?token=t%d&ttl=%d", bucket, path, seq, int(ttl.Seconds())), nil
}

// fakePostRepo serves fixed rows. While slow is set, every call blocks until
// release is closed, ignoring ctx, to model a backend that is slow to notice
// cancellation.
type fakePostRepo struct {
	mu      sync.Mutex
	rows    []dbmysql.Post
	err     error
	slow    bool
	release chan struct{}
	calls   int32
	blocked int32
}

func newFakePostRepo(rows ...dbmysql.Post) *fakePostRepo {
	return &fakePostRepo{rows: rows, release: make(chan struct{})}
}

func (r *fakePostRepo) ListByOwner(ctx context.Context, userID int64) ([]dbmysql.Post, error) {
	atomic.AddInt32(&r.calls, 1)

	r.mu.Lock()
	slow, rows, err := r.slow, r.rows, r.err
	r.mu.Unlock()

	if slow {
		atomic.AddInt32(&r.blocked, 1)
		<-r.release
	}
	if err != nil {
		return nil, err
	}
	out := make([]dbmysql.Post, 0, len(rows))
	for _, row := range rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakePostRepo) set(fn func(r *fakePostRepo)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r)
}

type recordingObserver struct {
	mu        sync.Mutex
	snapshots []*Snapshot
}

func (o *recordingObserver) Name() string { return "recorder" }

func (o *recordingObserver) Update(s *Snapshot) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snapshots = append(o.snapshots, s)
	return nil
}

func (o *recordingObserver) received() []*Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*Snapshot(nil), o.snapshots...)
}

type countingReporter struct {
	mu   sync.Mutex
	errs []error
}

func (r *countingReporter) Report(_ int64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *countingReporter) reported() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// fakeUsers applies the same "only when unset" rule as the SQL update.
type fakeUsers struct {
	mu      sync.Mutex
	avatars map[int64]string
}

func (u *fakeUsers) SetAvatarIfEmpty(_ context.Context, userID int64, url string) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.avatars[userID] != "" {
		return false, nil
	}
	u.avatars[userID] = url
	return true, nil
}

type memObjectStore struct {
	*fakeSigner
	objMu   sync.Mutex
	objects map[string][]byte
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{
		fakeSigner: newFakeSigner(),
		objects:    map[string][]byte{},
	}
}

func (m *memObjectStore) Upload(_ context.Context, bucket, key string, data []byte, opts common.UploadOptions) (string, error) {
	m.objMu.Lock()
	defer m.objMu.Unlock()
	if _, ok := m.objects[bucket+"/"+key]; ok && !opts.Upsert {
		return "", errors.New("object already exists")
	}
	m.objects[bucket+"/"+key] = data
	return key, nil
}

func (m *memObjectStore) GetPublicURL(bucket, key string) string {
	return "https://media.test/object/public/" + bucket + "/" + key
}

func (m *memObjectStore) Remove(_ context.Context, bucket string, paths ...string) error {
	m.objMu.Lock()
	defer m.objMu.Unlock()
	for _, p := range paths {
		delete(m.objects, bucket+"/"+p)
	}
	return nil
}

// ---- fixtures ----

const testBucket = "post-media-bucket"

func mediaRow(id, path string, kind common.MediaFileType, pos int) dbmysql.PostMedia {
	return dbmysql.PostMedia{ID: id, PostID: "", MediaPath: path, Type: kind, Position: pos}
}

func postRow(id string, userID int64, created time.Time, media ...dbmysql.PostMedia) dbmysql.Post {
	for i := range media {
		media[i].PostID = id
	}
	return dbmysql.Post{ID: id, UserID: userID, Content: "content of " + id, CreatedAt: created, Media: media}
}

func newTestAssembler(signer URLSigner, repo PostLister, reporter ErrorReporter, observers ...SnapshotObserver) *Assembler {
	log := logging.Discard()
	publisher := NewSnapshotPublisher(log)
	for _, o := range observers {
		publisher.Subscribe(o)
	}
	enricher := NewEnricher(NewResolver(signer, nil), testBucket, 60*time.Second, 4, log)
	return NewAssembler(NewPostFetcher(repo), enricher, publisher, reporter, nil, log, AssemblerConfig{
		PostWorkers: 3,
		RunTimeout:  5 * time.Second,
	})
}
