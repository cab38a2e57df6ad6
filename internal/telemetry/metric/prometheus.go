package metric

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/mcellckpt-go/internal/core/domain"
)

const namespace = "mcell"

// Operation labels.
const (
	OpWrite = "write"
	OpRead  = "read"
)

// Molecule outcome labels.
const (
	MoleculesWritten  = "written"
	MoleculesRestored = "restored"
	MoleculesDropped  = "dropped"
)

// Registry holds all application metrics. A nil *Registry is valid and
// records nothing.
type Registry struct {
	registry *prometheus.Registry

	CheckpointOps       *prometheus.CounterVec
	CheckpointDuration  *prometheus.HistogramVec
	CheckpointBytes     prometheus.Gauge
	Molecules           *prometheus.CounterVec
	ComplexesDropped    prometheus.Counter
	RNGReinitialized    prometheus.Counter
	CheckpointsPruned   prometheus.Counter
	SimulationIteration prometheus.Counter
}

// NewRegistry creates a registry with Go runtime and process collectors
// plus every checkpoint metric.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		CheckpointOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoint_operations_total",
			Help:      "Checkpoint reads and writes by result.",
		}, []string{"op", "result"}),
		CheckpointDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkpoint_duration_seconds",
			Help:      "Time spent encoding or decoding a checkpoint.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"op"}),
		CheckpointBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "checkpoint_last_size_bytes",
			Help:      "Size of the most recently written checkpoint.",
		}),
		Molecules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoint_molecules_total",
			Help:      "Molecule records written, restored or dropped.",
		}, []string{"outcome"}),
		ComplexesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoint_complexes_dropped_total",
			Help:      "Complexes discarded on restore because a subunit could not be placed.",
		}),
		RNGReinitialized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoint_rng_reinitialized_total",
			Help:      "Restores where the stored seed differed from the requested one.",
		}),
		CheckpointsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoints_pruned_total",
			Help:      "Checkpoint files removed by retention.",
		}),
		SimulationIteration: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulation_iterations_total",
			Help:      "Iterations executed by this process.",
		}),
	}
	reg.MustRegister(
		r.CheckpointOps,
		r.CheckpointDuration,
		r.CheckpointBytes,
		r.Molecules,
		r.ComplexesDropped,
		r.RNGReinitialized,
		r.CheckpointsPruned,
		r.SimulationIteration,
	)
	return r
}

var (
	global     *Registry
	globalOnce sync.Once
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() { global = NewRegistry() })
	return global
}

// Handler serves the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// Handler serves this registry in Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// MustRegister adds extra collectors.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.registry.MustRegister(cs...)
}

// Result maps an error to the result label of checkpoint_operations_total.
func Result(err error) string {
	var de *domain.DomainError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNoCheckpoint):
		return "missing"
	case errors.Is(err, domain.ErrVersionMismatch):
		return "version_mismatch"
	case errors.Is(err, domain.ErrDataCorrupt):
		return "corrupt"
	case errors.Is(err, domain.ErrIO):
		return "io"
	case errors.As(err, &de):
		return "error"
	default:
		return "internal"
	}
}

// ObserveCheckpoint records one checkpoint read or write.
func (r *Registry) ObserveCheckpoint(op string, err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.CheckpointOps.WithLabelValues(op, Result(err)).Inc()
	r.CheckpointDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// AddMolecules counts molecule records by outcome.
func (r *Registry) AddMolecules(outcome string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.Molecules.WithLabelValues(outcome).Add(float64(n))
}

// AddComplexesDropped counts complexes discarded on restore.
func (r *Registry) AddComplexesDropped(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.ComplexesDropped.Add(float64(n))
}

// IncRNGReinitialized counts a seed-mismatch restore.
func (r *Registry) IncRNGReinitialized() {
	if r == nil {
		return
	}
	r.RNGReinitialized.Inc()
}

// SetCheckpointBytes records the size of the last written file.
func (r *Registry) SetCheckpointBytes(n int64) {
	if r == nil {
		return
	}
	r.CheckpointBytes.Set(float64(n))
}

// AddPruned counts checkpoint files deleted by retention.
func (r *Registry) AddPruned(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.CheckpointsPruned.Add(float64(n))
}

// AddIterations counts executed simulation iterations.
func (r *Registry) AddIterations(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.SimulationIteration.Add(float64(n))
}
