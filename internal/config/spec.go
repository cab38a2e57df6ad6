package config

import (
	"time"

	"github.com/yndnr/mcellckpt-go/internal/telemetry/logger"
)

// Config is the root configuration.
type Config struct {
	Checkpoint CheckpointSection `koanf:"checkpoint"`
	Simulation SimulationSection `koanf:"simulation"`
	Model      ModelSection      `koanf:"model"`
	Log        logger.Config     `koanf:"log"`
	Metrics    MetricsSection    `koanf:"metrics"`
}

// CheckpointSection configures checkpoint storage.
type CheckpointSection struct {
	Dir            string `koanf:"dir"`
	RetentionCount int    `koanf:"retention_count"`
	// RetentionDays < 0 disables age-based pruning.
	RetentionDays int `koanf:"retention_days"`
	// CatalogDir enables the badger catalog when set.
	CatalogDir       string  `koanf:"catalog_dir"`
	SurfaceTolerance float64 `koanf:"surface_tolerance"`
}

// SimulationSection configures a run.
type SimulationSection struct {
	Seed             uint32        `koanf:"seed"`
	RNG              string        `koanf:"rng"`
	TimeStep         float64       `koanf:"time_step"`
	SchedulerBuckets int           `koanf:"scheduler_buckets"`
	CellSize         float64       `koanf:"cell_size"`
	Iterations       uint64        `koanf:"iterations"`
	CheckpointEvery  uint64        `koanf:"checkpoint_every"`
	ProgressInterval time.Duration `koanf:"progress_interval"`
}

// ModelSection describes the simulated system.
type ModelSection struct {
	Species    []SpeciesSpec   `koanf:"species"`
	Partitions []PartitionSpec `koanf:"partitions"`
	Initial    []InitialSpec   `koanf:"initial"`
}

// SpeciesSpec declares one molecule type.
type SpeciesSpec struct {
	Name      string  `koanf:"name"`
	Kind      string  `koanf:"kind"`
	Diffusion float64 `koanf:"diffusion"`
	DecayRate float64 `koanf:"decay_rate"`
	// Complex makes the species the master of a complex.
	Complex *ComplexSpec `koanf:"complex"`
}

// ComplexSpec gives the topology of a complex: Count subunits of species
// Subunit.
type ComplexSpec struct {
	Subunit string `koanf:"subunit"`
	Count   int    `koanf:"count"`
}

// PartitionSpec is an axis-aligned storage region.
type PartitionSpec struct {
	Min      []float64     `koanf:"min"`
	Max      []float64     `koanf:"max"`
	Surfaces []SurfaceSpec `koanf:"surfaces"`
}

// SurfaceSpec is a tiled planar surface.
type SurfaceSpec struct {
	Origin   []float64 `koanf:"origin"`
	U        []float64 `koanf:"u"`
	V        []float64 `koanf:"v"`
	TileSize float64   `koanf:"tile_size"`
	NU       int       `koanf:"nu"`
	NV       int       `koanf:"nv"`
}

// InitialSpec places Count molecules (or complexes, for a master species)
// when a run starts without a checkpoint.
type InitialSpec struct {
	Species string `koanf:"species"`
	Count   int    `koanf:"count"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	// Addr is empty to disable the endpoint.
	Addr string `koanf:"addr"`
}
