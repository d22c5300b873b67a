package profile

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is safe to use as a nil pointer, which disables collection.
type Metrics struct {
	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
	resolutions *prometheus.CounterVec
	avatars     *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jamsocial",
			Subsystem: "feed",
			Name:      "runs_total",
			Help:      "Feed runs by outcome.",
		}, []string{"result"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "jamsocial",
			Subsystem: "feed",
			Name:      "run_duration_seconds",
			Help:      "Time from trigger to settle of a feed run.",
			Buckets:   prometheus.DefBuckets,
		}),
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jamsocial",
			Subsystem: "feed",
			Name:      "media_resolutions_total",
			Help:      "Signed URL resolutions by outcome.",
		}, []string{"result"}),
		avatars: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jamsocial",
			Subsystem: "profile",
			Name:      "avatar_replacements_total",
			Help:      "Avatar replacements by outcome.",
		}, []string{"result"}),
	}
}

const (
	resultPublished  = "published"
	resultSuperseded = "superseded"
	resultFailed     = "failed"
)

func (m *Metrics) observeRun(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
	m.runDuration.Observe(took.Seconds())
}

func (m *Metrics) observeResolution(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.resolutions.WithLabelValues("ok").Inc()
		return
	}
	m.resolutions.WithLabelValues("failed").Inc()
}

func (m *Metrics) observeAvatar(result string) {
	if m == nil {
		return
	}
	m.avatars.WithLabelValues(result).Inc()
}
