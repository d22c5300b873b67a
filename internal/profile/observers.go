package profile

import (
	"log/slog"
	"sync"
)

// SnapshotPublisher fans published snapshots out to the subscribed
// presentation observers. A failing observer does not stop the others.
type SnapshotPublisher struct {
	observers map[string]SnapshotObserver
	mu        sync.RWMutex
	log       *slog.Logger
}

func NewSnapshotPublisher(log *slog.Logger) *SnapshotPublisher {
	return &SnapshotPublisher{
		observers: make(map[string]SnapshotObserver),
		log:       log,
	}
}

func (p *SnapshotPublisher) Subscribe(observer SnapshotObserver) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers[observer.Name()] = observer
	p.log.Debug("observer subscribed", "observer", observer.Name())
}

func (p *SnapshotPublisher) Unsubscribe(observer SnapshotObserver) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.observers, observer.Name())
	p.log.Debug("observer unsubscribed", "observer", observer.Name())
}

func (p *SnapshotPublisher) Publish(snapshot *Snapshot) {
	p.mu.RLock()
	observers := make([]SnapshotObserver, 0, len(p.observers))
	for _, obs := range p.observers {
		observers = append(observers, obs)
	}
	p.mu.RUnlock()

	for _, observer := range observers {
		if err := observer.Update(snapshot); err != nil {
			p.log.Warn("observer update failed", "observer", observer.Name(), "error", err)
		}
	}
}

// SnapshotLogger records every published snapshot.
type SnapshotLogger struct {
	log *slog.Logger
}

func NewSnapshotLogger(log *slog.Logger) *SnapshotLogger {
	return &SnapshotLogger{log: log}
}

func (l *SnapshotLogger) Name() string {
	return "log_observer"
}

func (l *SnapshotLogger) Update(snapshot *Snapshot) error {
	media, unresolved := 0, 0
	for _, p := range snapshot.Posts {
		for _, m := range p.Media {
			media++
			if m.URL == "" {
				unresolved++
			}
		}
	}
	l.log.Info("feed snapshot published",
		"user_id", snapshot.UserID,
		"run_id", snapshot.RunID,
		"posts", len(snapshot.Posts),
		"media", media,
		"unresolved", unresolved,
	)
	return nil
}

// LogReporter is the default ErrorReporter.
type LogReporter struct {
	log *slog.Logger
}

func NewLogReporter(log *slog.Logger) *LogReporter {
	return &LogReporter{log: log}
}

func (r *LogReporter) Report(userID int64, err error) {
	r.log.Error("feed refresh failed", "user_id", userID, "error", err)
}

type ReporterFunc func(userID int64, err error)

func (f ReporterFunc) Report(userID int64, err error) {
	f(userID, err)
}
