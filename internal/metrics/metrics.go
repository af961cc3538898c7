// Package metrics exposes Prometheus collectors for batch runs.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "slskdsync"

var (
	registerOnce sync.Once

	tracksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tracks_total",
		Help:      "Tracks processed by outcome",
	}, []string{"outcome"})
	failuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "track_failures_total",
		Help:      "Failed tracks by the state they failed in",
	}, []string{"state"})
	trackDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "track_duration_seconds",
		Help:      "Time spent acquiring one track",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	})
	searchesReused = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "searches_reused_total",
		Help:      "Searches answered by an existing slskd search",
	})
	libraryKeys = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "library_keys",
		Help:      "Lookup keys in the local library index",
	})
	runsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Batch runs started",
	})
)

// Register adds the collectors to the default registry. Safe to call repeatedly.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(tracksTotal, failuresTotal, trackDuration, searchesReused, libraryKeys, runsTotal)
	})
}

// Recorder receives batch events. The zero value is usable.
type Recorder struct{}

func (Recorder) RunStarted() { runsTotal.Inc() }

func (Recorder) TrackFinished(outcome, state string, d time.Duration) {
	tracksTotal.WithLabelValues(outcome).Inc()
	if outcome == "failed" {
		failuresTotal.WithLabelValues(state).Inc()
	}
	trackDuration.Observe(d.Seconds())
}

func (Recorder) SearchReused() { searchesReused.Inc() }

func (Recorder) LibraryKeys(n int) { libraryKeys.Set(float64(n)) }
