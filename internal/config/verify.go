package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yndnr/mcellckpt-go/internal/sim/rng"
)

// maxComplexSubunits matches the checkpoint reader's limit.
const maxComplexSubunits = 1<<16 - 1

// Verify validates the configuration.
func Verify(cfg *Config) error {
	if err := verifyCheckpoint(&cfg.Checkpoint); err != nil {
		return err
	}
	if err := verifySimulation(&cfg.Simulation); err != nil {
		return err
	}
	return verifyModel(&cfg.Model)
}

func verifyCheckpoint(cfg *CheckpointSection) error {
	if cfg.Dir == "" {
		return errors.New("checkpoint.dir is required")
	}
	if cfg.RetentionCount < 1 {
		return errors.New("checkpoint.retention_count must be at least 1")
	}
	if !(cfg.SurfaceTolerance > 0) {
		return errors.New("checkpoint.surface_tolerance must be positive")
	}
	return nil
}

func verifySimulation(cfg *SimulationSection) error {
	if _, err := rng.ParseFamily(cfg.RNG); err != nil {
		return fmt.Errorf("simulation.rng: %w", err)
	}
	if !(cfg.TimeStep > 0) {
		return errors.New("simulation.time_step must be positive")
	}
	if cfg.SchedulerBuckets < 2 {
		return errors.New("simulation.scheduler_buckets must be at least 2")
	}
	if !(cfg.CellSize > 0) {
		return errors.New("simulation.cell_size must be positive")
	}
	if cfg.ProgressInterval < 0 {
		return errors.New("simulation.progress_interval must not be negative")
	}
	return nil
}

func verifyModel(cfg *ModelSection) error {
	kinds := make(map[string]string, len(cfg.Species))
	for i, s := range cfg.Species {
		if s.Name == "" {
			return fmt.Errorf("model.species[%d]: name is required", i)
		}
		if _, dup := kinds[s.Name]; dup {
			return fmt.Errorf("model.species[%d]: duplicate name %q", i, s.Name)
		}
		k := strings.ToLower(s.Kind)
		switch k {
		case "", "volume":
			k = "volume"
		case "surface":
		default:
			return fmt.Errorf("model.species[%d]: unknown kind %q", i, s.Kind)
		}
		if s.Diffusion < 0 || s.DecayRate < 0 {
			return fmt.Errorf("model.species[%d]: rates must not be negative", i)
		}
		kinds[s.Name] = k
	}

	hasSurface := false
	for i, p := range cfg.Partitions {
		if len(p.Min) != 3 || len(p.Max) != 3 {
			return fmt.Errorf("model.partitions[%d]: min and max need 3 coordinates", i)
		}
		for a := 0; a < 3; a++ {
			if p.Min[a] > p.Max[a] {
				return fmt.Errorf("model.partitions[%d]: min exceeds max on axis %d", i, a)
			}
		}
		for j, g := range p.Surfaces {
			if len(g.Origin) != 3 || len(g.U) != 3 || len(g.V) != 3 {
				return fmt.Errorf("model.partitions[%d].surfaces[%d]: origin, u and v need 3 coordinates", i, j)
			}
			if !(g.TileSize > 0) || g.NU <= 0 || g.NV <= 0 {
				return fmt.Errorf("model.partitions[%d].surfaces[%d]: invalid tiling", i, j)
			}
			hasSurface = true
		}
	}

	for i, s := range cfg.Species {
		c := s.Complex
		if c == nil {
			continue
		}
		sub, ok := kinds[c.Subunit]
		if !ok {
			return fmt.Errorf("model.species[%d]: unknown subunit species %q", i, c.Subunit)
		}
		if c.Count < 1 || c.Count > maxComplexSubunits {
			return fmt.Errorf("model.species[%d]: complex count %d out of range", i, c.Count)
		}
		if sub == "surface" && !hasSurface {
			return fmt.Errorf("model.species[%d]: surface subunits need a surface", i)
		}
	}

	if len(cfg.Initial) > 0 && len(cfg.Partitions) == 0 {
		return errors.New("model.initial needs at least one partition")
	}
	for i, in := range cfg.Initial {
		k, ok := kinds[in.Species]
		if !ok {
			return fmt.Errorf("model.initial[%d]: unknown species %q", i, in.Species)
		}
		if in.Count < 0 {
			return fmt.Errorf("model.initial[%d]: count must not be negative", i)
		}
		if k == "surface" && !hasSurface {
			return fmt.Errorf("model.initial[%d]: species %q needs a surface", i, in.Species)
		}
	}
	return nil
}
