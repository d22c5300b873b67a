package profile

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type AssemblerConfig struct {
	// PostWorkers bounds how many posts of one run are enriched at once.
	PostWorkers int
	// RunTimeout caps a single run. Zero means no cap.
	RunTimeout time.Duration
}

// Assembler owns the feed view of one session. Every Refresh starts a new run
// and cancels the previous one; only the most recently triggered run may
// publish or report an error.
type Assembler struct {
	fetcher   *PostFetcher
	enricher  *Enricher
	publisher *SnapshotPublisher
	reporter  ErrorReporter
	metrics   *Metrics
	log       *slog.Logger
	cfg       AssemblerConfig
	now       func() time.Time

	// mu guards the fields below. Publishing and error reporting happen with
	// mu held, so observers and reporters must not call back into the
	// Assembler synchronously.
	mu      sync.Mutex
	counter uint64
	settled uint64 // id of the latest run that finished unsuperseded
	cancel  context.CancelFunc
	current *Snapshot
	lastErr error
	closed  bool
	wg      sync.WaitGroup
}

func NewAssembler(
	fetcher *PostFetcher,
	enricher *Enricher,
	publisher *SnapshotPublisher,
	reporter ErrorReporter,
	metrics *Metrics,
	log *slog.Logger,
	cfg AssemblerConfig,
) *Assembler {
	if cfg.PostWorkers < 1 {
		cfg.PostWorkers = 1
	}
	return &Assembler{
		fetcher:   fetcher,
		enricher:  enricher,
		publisher: publisher,
		reporter:  reporter,
		metrics:   metrics,
		log:       log,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Run executes the pipeline once and returns the assembled snapshot without
// publishing it. The returned snapshot has no run id.
func (a *Assembler) Run(ctx context.Context, userID int64) (*Snapshot, error) {
	if userID <= 0 {
		return nil, ErrSessionNotReady
	}
	// Tokens are signed after this point, so they outlive the bound below.
	start := a.now()

	posts, err := a.fetcher.FetchPosts(ctx, userID)
	if err != nil {
		return nil, err
	}

	enriched := make([]Post, len(posts))
	var g errgroup.Group
	g.SetLimit(a.cfg.PostWorkers)
	for i, post := range posts {
		i, post := i, post
		g.Go(func() error {
			enriched[i] = a.enricher.Enrich(ctx, post)
			return nil
		})
	}
	_ = g.Wait()

	return &Snapshot{
		UserID:       userID,
		Posts:        enriched,
		AssembledAt:  a.now(),
		URLsExpireAt: start.Add(a.enricher.ttl),
	}, nil
}

// Refresh bumps the counter and starts a run in the background. The run is
// detached from ctx's cancellation so a finished request does not abort it.
func (a *Assembler) Refresh(ctx context.Context, userID int64) (uint64, error) {
	if userID <= 0 {
		return 0, ErrSessionNotReady
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return 0, ErrAssemblerClosed
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.counter++
	runID := a.counter

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if a.cfg.RunTimeout > 0 {
		runCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), a.cfg.RunTimeout)
	} else {
		runCtx, cancel = context.WithCancel(context.WithoutCancel(ctx))
	}
	a.cancel = cancel
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		defer cancel()
		a.execute(runCtx, runID, userID)
	}()
	return runID, nil
}

func (a *Assembler) execute(ctx context.Context, runID uint64, userID int64) {
	start := a.now()
	snapshot, err := a.Run(ctx, userID)

	a.mu.Lock()
	defer a.mu.Unlock()

	if runID != a.counter || a.closed {
		a.metrics.observeRun(resultSuperseded, a.now().Sub(start))
		a.log.Debug("feed run superseded", "user_id", userID, "run_id", runID, "latest", a.counter)
		return
	}
	a.settled = runID

	if err != nil {
		// Keep the previous snapshot on screen.
		a.lastErr = err
		a.metrics.observeRun(resultFailed, a.now().Sub(start))
		if a.reporter != nil {
			a.reporter.Report(userID, err)
		}
		return
	}

	snapshot.RunID = runID
	a.current = snapshot
	a.lastErr = nil
	a.metrics.observeRun(resultPublished, a.now().Sub(start))
	if a.publisher != nil {
		a.publisher.Publish(snapshot)
	}
}

// Current returns the latest published snapshot, or nil before the first
// successful run.
func (a *Assembler) Current() *Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// LastError returns the error of the latest run, cleared by the next
// successful publish.
func (a *Assembler) LastError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// Counter returns the id of the most recently triggered run.
func (a *Assembler) Counter() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counter
}

// Pending reports whether the most recently triggered run has not settled
// yet.
func (a *Assembler) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settled != a.counter
}

// Wait blocks until every started run has returned.
func (a *Assembler) Wait() {
	a.wg.Wait()
}

// Stop cancels the in-flight run and rejects further refreshes. It does not
// wait; call Wait for that.
func (a *Assembler) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	if a.cancel != nil {
		a.cancel()
	}
}
