package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yndnr/mcellckpt-go/internal/sim"
	"github.com/yndnr/mcellckpt-go/internal/sim/rng"
)

var errNoFreeTiles = errors.New("no surface has enough free tiles")

// BuildWorld returns an empty world for the configured model: species,
// partitions and surfaces, but no molecules. It is the shape a checkpoint
// is restored into.
func BuildWorld(cfg *Config) (*sim.World, error) {
	fam, err := rng.ParseFamily(cfg.Simulation.RNG)
	if err != nil {
		return nil, err
	}
	r, err := rng.New(fam, cfg.Simulation.Seed)
	if err != nil {
		return nil, err
	}

	table := sim.NewSpeciesTable()
	for _, s := range cfg.Model.Species {
		sp := &sim.Species{
			Name:              s.Name,
			Kind:              parseKind(s.Kind),
			DiffusionConstant: s.Diffusion,
			DecayRate:         s.DecayRate,
		}
		if s.Complex != nil {
			sp.ComplexSubunits = s.Complex.Count
		}
		if err := table.Add(sp); err != nil {
			return nil, err
		}
	}

	w := sim.NewWorld(sim.Config{
		TimeStep:         cfg.Simulation.TimeStep,
		SchedulerBuckets: cfg.Simulation.SchedulerBuckets,
		SurfaceTolerance: cfg.Checkpoint.SurfaceTolerance,
		CellSize:         cfg.Simulation.CellSize,
	}, table, r)

	gridID := 0
	for i, p := range cfg.Model.Partitions {
		part, err := w.AddPartition(sim.Bounds{Min: vec(p.Min), Max: vec(p.Max)})
		if err != nil {
			return nil, fmt.Errorf("partition %d: %w", i, err)
		}
		for _, s := range p.Surfaces {
			g, err := sim.NewSurfaceGrid(gridID, vec(s.Origin), vec(s.U), vec(s.V), s.TileSize, s.NU, s.NV)
			if err != nil {
				return nil, err
			}
			part.AddSurface(g)
			gridID++
		}
	}
	return w, nil
}

// Builder returns a factory that builds a fresh empty world on every call.
func Builder(cfg *Config) func() (*sim.World, error) {
	return func() (*sim.World, error) { return BuildWorld(cfg) }
}

func parseKind(s string) sim.Kind {
	if strings.EqualFold(s, "surface") {
		return sim.Surface
	}
	return sim.Volume
}

func vec(c []float64) sim.Vector3 {
	if len(c) != 3 {
		return sim.Vector3{}
	}
	return sim.Vector3{X: c[0], Y: c[1], Z: c[2]}
}

// Populate places the initial molecules and complexes of the model at the
// world's current time, drawing positions from the world's generator. It
// returns the number of molecules added.
func Populate(w *sim.World, model ModelSection) (int, error) {
	s := &seeder{w: w}
	for _, p := range w.Partitions {
		s.grids = append(s.grids, p.Surfaces...)
	}
	subunits := make(map[string]string, len(model.Species))
	for _, sp := range model.Species {
		if sp.Complex != nil {
			subunits[sp.Name] = sp.Complex.Subunit
		}
	}

	added := 0
	for _, in := range model.Initial {
		sp := w.Species.Lookup(in.Species)
		if sp == nil {
			return added, fmt.Errorf("initial species %q is not in the model", in.Species)
		}
		for i := 0; i < in.Count; i++ {
			var err error
			if sp.ComplexSubunits > 0 {
				sub := w.Species.Lookup(subunits[sp.Name])
				if sub == nil {
					return added, fmt.Errorf("complex %q has no subunit species", sp.Name)
				}
				err = s.placeComplex(sp, sub)
				if err == nil {
					added += sp.ComplexSubunits + 1
				}
			} else {
				err = s.placeSingle(sp)
				if err == nil {
					added++
				}
			}
			if err != nil {
				return added, fmt.Errorf("place %s #%d: %w", sp.Name, i, err)
			}
		}
	}
	return added, nil
}

type seeder struct {
	w     *sim.World
	grids []*sim.SurfaceGrid
}

func (s *seeder) intn(n int) int {
	return int(s.w.RNG.Uint64() % uint64(n))
}

func (s *seeder) volumePoint() sim.Vector3 {
	b := s.w.Partitions[s.intn(len(s.w.Partitions))].Bounds
	lerp := func(lo, hi float64) float64 { return lo + (hi-lo)*s.w.RNG.Float64() }
	return sim.Vector3{
		X: lerp(b.Min.X, b.Max.X),
		Y: lerp(b.Min.Y, b.Max.Y),
		Z: lerp(b.Min.Z, b.Max.Z),
	}
}

// freeTiles picks n unoccupied tiles on one grid, scanning from a random
// tile on a random grid.
func (s *seeder) freeTiles(n int) (*sim.SurfaceGrid, []int, error) {
	if len(s.grids) == 0 {
		return nil, nil, errNoFreeTiles
	}
	off := s.intn(len(s.grids))
	for k := range s.grids {
		g := s.grids[(off+k)%len(s.grids)]
		total := g.NU * g.NV
		if total-g.Occupied() < n {
			continue
		}
		start := s.intn(total)
		idx := make([]int, 0, n)
		for j := 0; j < total && len(idx) < n; j++ {
			t := (start + j) % total
			if g.Occupant(t) == nil {
				idx = append(idx, t)
			}
		}
		if len(idx) == n {
			return g, idx, nil
		}
	}
	return nil, nil, errNoFreeTiles
}

func (s *seeder) molecule(sp *sim.Species, pos sim.Vector3) *sim.Molecule {
	now := s.w.Time
	m := &sim.Molecule{
		Species:       sp,
		Pos:           pos,
		Birthday:      now,
		EventTime:     now,
		UnimolTimeout: s.w.DecayTimeout(sp, now),
		NewlyActive:   true,
	}
	if sp.Kind == sim.Surface {
		m.Orientation = 1
		if s.w.RNG.Uint64()&1 == 1 {
			m.Orientation = -1
		}
	}
	return m
}

func (s *seeder) placeSingle(sp *sim.Species) error {
	if sp.Kind == sim.Volume {
		return s.w.AddMolecule(s.molecule(sp, s.volumePoint()))
	}
	g, idx, err := s.freeTiles(1)
	if err != nil {
		return err
	}
	return s.w.AddMolecule(s.molecule(sp, g.TileCenter(idx[0])))
}

// placeComplex puts surface members on free tiles of one grid and
// volume members half a tile off the first of them.
func (s *seeder) placeComplex(master, sub *sim.Species) error {
	kinds := make([]*sim.Species, 0, master.ComplexSubunits+1)
	kinds = append(kinds, master)
	nSurface := 0
	if master.Kind == sim.Surface {
		nSurface++
	}
	for i := 0; i < master.ComplexSubunits; i++ {
		kinds = append(kinds, sub)
		if sub.Kind == sim.Surface {
			nSurface++
		}
	}

	var (
		g      *sim.SurfaceGrid
		tiles  []int
		anchor sim.Vector3
	)
	if nSurface > 0 {
		var err error
		if g, tiles, err = s.freeTiles(nSurface); err != nil {
			return err
		}
		anchor = g.TileCenter(tiles[0]).Sub(g.Normal.Scale(g.TileSize / 2))
		if s.w.PartitionFor(anchor) == nil {
			anchor = g.TileCenter(tiles[0])
		}
	} else {
		anchor = s.volumePoint()
	}

	members := make([]*sim.Molecule, len(kinds))
	next := 0
	for i, sp := range kinds {
		pos := anchor
		if sp.Kind == sim.Surface {
			pos = g.TileCenter(tiles[next])
			next++
		}
		members[i] = s.molecule(sp, pos)
	}
	_, err := s.w.NewComplex(members)
	return err
}
