// Package metrics records walk statistics as Prometheus metrics.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/harrison/treewalk/internal/models"
)

// Namespace prefixes every metric name.
const Namespace = "treewalk"

// Recorder implements walker.Logger by updating Prometheus metrics. Each
// Recorder owns its registry so several can coexist in one process.
type Recorder struct {
	registry *prometheus.Registry

	walksTotal        *prometheus.CounterVec
	visitsTotal       *prometheus.CounterVec
	visitDuration     prometheus.Histogram
	lastWalkDuration  prometheus.Gauge
	lastWalkInFlight  prometheus.Gauge
	lastWalkTimestamp prometheus.Gauge
	parallelism       prometheus.Gauge
}

// NewRecorder creates a Recorder with a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		walksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "walks_total",
			Help:      "The total number of completed walks by outcome.",
		}, []string{"outcome"}),

		visitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "visits_total",
			Help:      "The total number of node visits by status and phase.",
		}, []string{"status", "phase"}),

		visitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "visit_duration_seconds",
			Help:      "Time spent inside the visitor for a single node.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}),

		lastWalkDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_walk_duration_seconds",
			Help:      "Duration of the most recent walk.",
		}),

		lastWalkInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_walk_max_in_flight",
			Help:      "Highest number of concurrent child visits in the most recent walk.",
		}),

		lastWalkTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_walk_timestamp_seconds",
			Help:      "Unix time the most recent walk completed.",
		}),

		parallelism: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "max_degree_of_parallelism",
			Help:      "Configured parallelism of the most recent walk.",
		}),
	}
}

// Registry returns the registry holding the recorder's metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// LogWalkStart records the configured parallelism.
func (r *Recorder) LogWalkStart(root string, parallelism int) {
	r.parallelism.Set(float64(parallelism))
}

// LogVisit counts a visit and observes its duration.
func (r *Recorder) LogVisit(result models.VisitResult) error {
	phase := result.Phase
	if phase == "" {
		phase = "none"
	}
	r.visitsTotal.WithLabelValues(string(result.Status), phase).Inc()
	if result.Phase != "expand" {
		r.visitDuration.Observe(result.Duration.Seconds())
	}
	return nil
}

// LogWalkComplete records the walk outcome.
func (r *Recorder) LogWalkComplete(summary models.WalkSummary) {
	outcome := "success"
	switch {
	case summary.Cancelled:
		outcome = "cancelled"
	case summary.Failed > 0:
		outcome = "failed"
	}
	r.walksTotal.WithLabelValues(outcome).Inc()
	r.lastWalkDuration.Set(summary.Duration.Seconds())
	r.lastWalkInFlight.Set(float64(summary.MaxInFlight))
	r.lastWalkTimestamp.Set(float64(time.Now().Unix()))
}

// WriteTextfile writes the current metrics in the node_exporter textfile
// collector format. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
