// Package metrics - Prometheus instrumentation of motion analysis runs.
package metrics

import (
	"time"

	"github.com/nvr-ai/go-motion/stats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exports per-frame and per-run metrics. It implements motion.Observer and
// is safe for concurrent use by many analyzers.
type Recorder struct {
	FramesTotal       prometheus.Counter
	FrameDuration     prometheus.Histogram
	FrameDelta        prometheus.Histogram
	FrameFlow         prometheus.Histogram
	RunsTotal         *prometheus.CounterVec
	RunDuration       prometheus.Histogram
	ActiveRuns        prometheus.Gauge
	ArtworksProcessed *prometheus.CounterVec
}

// NewRecorder registers the metrics with reg. Passing prometheus.DefaultRegisterer
// exposes them on the default /metrics handler.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		FramesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "motion_frames_analyzed_total",
			Help: "Total number of frame transitions analyzed",
		}),
		FrameDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "motion_frame_duration_seconds",
			Help:    "Time spent on delta, flow, decomposition and aggregation per frame",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		FrameDelta: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "motion_frame_delta",
			Help:    "Normalized mean absolute difference between consecutive frames",
			Buckets: prometheus.LinearBuckets(0, 0.05, 20),
		}),
		FrameFlow: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "motion_frame_flow",
			Help:    "Magnitude of the mean flow vector per frame",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "motion_runs_total",
			Help: "Total number of analysis runs, by status",
		}, []string{"status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "motion_run_duration_seconds",
			Help:    "Duration of complete analysis runs",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		}),
		ActiveRuns: factory.NewGauge(prometheus.GaugeOpts{
			Name: "motion_active_runs",
			Help: "Number of analysis runs in progress",
		}),
		ArtworksProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "motion_artworks_processed_total",
			Help: "Total number of artworks processed by batch runs, by status",
		}, []string{"status"}),
	}
}

// ObserveFrame records one frame transition.
func (r *Recorder) ObserveFrame(_ string, s stats.Sample, elapsed time.Duration) {
	r.FramesTotal.Inc()
	r.FrameDuration.Observe(elapsed.Seconds())
	r.FrameDelta.Observe(s.Delta)
	r.FrameFlow.Observe(s.Flow)
}

// ObserveRun records a finished run.
func (r *Recorder) ObserveRun(_ string, _ int, elapsed time.Duration, err error) {
	r.RunsTotal.WithLabelValues(status(err)).Inc()
	r.RunDuration.Observe(elapsed.Seconds())
}

// RunStarted increments ActiveRuns.
func (r *Recorder) RunStarted() { r.ActiveRuns.Inc() }

// RunDone decrements ActiveRuns.
func (r *Recorder) RunDone() { r.ActiveRuns.Dec() }

// ObserveArtwork records the outcome of one artwork in a batch.
func (r *Recorder) ObserveArtwork(err error) {
	r.ArtworksProcessed.WithLabelValues(status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
