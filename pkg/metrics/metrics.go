// Package metrics instruments the scheduling engine with Prometheus
// collectors. The engine exposes no HTTP handler of its own; a caller
// that wants to scrape these collectors registers the Metrics value's
// Registry() with its own promhttp handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every collector the engine updates during a task's
// lifetime.
type Metrics struct {
	registry *prometheus.Registry

	taskDuration   *prometheus.HistogramVec
	tasksTotal     *prometheus.CounterVec
	sessionsPlaced prometheus.Histogram
	sessionsUnplaced prometheus.Histogram
	backjumps      prometheus.Histogram
	softScore      prometheus.Histogram
	optimizerIters prometheus.Histogram
	activeTasks    prometheus.Gauge
}

// New registers a fresh set of collectors on a private registry. Each
// SchedulingEngine owns exactly one Metrics so that repeated task runs
// within the same process accumulate into the same histograms.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	taskDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scheduling_task_duration_seconds",
		Help:    "Wall-clock duration of a scheduling task by terminal state",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	}, []string{"status"})

	tasksTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduling_tasks_total",
		Help: "Total scheduling tasks by terminal state",
	}, []string{"status"})

	sessionsPlaced := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduling_sessions_placed",
		Help:    "Sessions successfully placed per completed task",
		Buckets: prometheus.ExponentialBuckets(1, 2, 14),
	})

	sessionsUnplaced := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduling_sessions_unplaced",
		Help:    "Sessions left unplaced per completed task",
		Buckets: prometheus.LinearBuckets(0, 5, 10),
	})

	backjumps := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduling_backjumps",
		Help:    "Backjump operations performed per completed task",
		Buckets: prometheus.LinearBuckets(0, 10, 10),
	})

	softScore := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduling_soft_score",
		Help:    "Final soft-constraint score per completed task, lower is better",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
	})

	optimizerIters := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduling_optimizer_iterations",
		Help:    "Local-search iterations run per completed task",
		Buckets: prometheus.LinearBuckets(0, 20, 12),
	})

	activeTasks := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scheduling_active_tasks",
		Help: "Tasks currently in the running state",
	})

	registry.MustRegister(taskDuration, tasksTotal, sessionsPlaced, sessionsUnplaced, backjumps, softScore, optimizerIters, activeTasks)

	return &Metrics{
		registry:         registry,
		taskDuration:     taskDuration,
		tasksTotal:       tasksTotal,
		sessionsPlaced:   sessionsPlaced,
		sessionsUnplaced: sessionsUnplaced,
		backjumps:        backjumps,
		softScore:        softScore,
		optimizerIters:   optimizerIters,
		activeTasks:      activeTasks,
	}
}

// Registry exposes the underlying Prometheus registry for a caller that
// wants to serve it itself.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// TaskStarted increments the active-task gauge.
func (m *Metrics) TaskStarted() { m.activeTasks.Inc() }

// TaskFinished records a terminal task outcome: duration, status label
// ("completed", "failed", "cancelled"), placed/unplaced counts,
// backjumps and soft score.
func (m *Metrics) TaskFinished(status string, durationSeconds float64, placed, unplaced, backjumpCount int, soft float64) {
	m.activeTasks.Dec()
	m.taskDuration.WithLabelValues(status).Observe(durationSeconds)
	m.tasksTotal.WithLabelValues(status).Inc()
	m.sessionsPlaced.Observe(float64(placed))
	m.sessionsUnplaced.Observe(float64(unplaced))
	m.backjumps.Observe(float64(backjumpCount))
	m.softScore.Observe(soft)
}

// OptimizerIterations records how many local-search iterations a task's
// optimizing phase consumed.
func (m *Metrics) OptimizerIterations(n int) {
	m.optimizerIters.Observe(float64(n))
}
