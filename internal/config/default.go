package config

import (
	"time"

	"github.com/yndnr/mcellckpt-go/internal/sim"
	"github.com/yndnr/mcellckpt-go/internal/storage/checkpoint"
	"github.com/yndnr/mcellckpt-go/internal/telemetry/logger"
)

// Default configuration values.
const (
	DefaultCheckpointDir    = "checkpoints"
	DefaultSeed             = 1
	DefaultRNG              = "isaac"
	DefaultIterations       = 1000
	DefaultCheckpointEvery  = 100
	DefaultProgressInterval = 5 * time.Second
)

// Default returns the default configuration with an empty model.
func Default() *Config {
	return &Config{
		Checkpoint: CheckpointSection{
			Dir:              DefaultCheckpointDir,
			RetentionCount:   checkpoint.DefaultRetentionCount,
			RetentionDays:    checkpoint.DefaultRetentionDays,
			SurfaceTolerance: sim.DefaultSurfaceTolerance,
		},
		Simulation: SimulationSection{
			Seed:             DefaultSeed,
			RNG:              DefaultRNG,
			TimeStep:         sim.DefaultTimeStep,
			SchedulerBuckets: sim.DefaultSchedulerBuckets,
			CellSize:         sim.DefaultCellSize,
			Iterations:       DefaultIterations,
			CheckpointEvery:  DefaultCheckpointEvery,
			ProgressInterval: DefaultProgressInterval,
		},
		Log: logger.DefaultConfig(),
	}
}
