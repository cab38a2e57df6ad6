package sim

import (
	"fmt"
	"math"

	"github.com/yndnr/mcellckpt-go/internal/sim/rng"
)

// Default world parameters.
const (
	DefaultTimeStep         = 1e-6
	DefaultSchedulerBuckets = 100
	DefaultSurfaceTolerance = 1e-3
	DefaultCellSize         = 0.1
)

// Config sets the fixed parameters of a World.
type Config struct {
	TimeStep         float64
	SchedulerBuckets int
	SurfaceTolerance float64
	CellSize         float64
}

func (c *Config) applyDefaults() {
	if c.TimeStep <= 0 {
		c.TimeStep = DefaultTimeStep
	}
	if c.SchedulerBuckets < 2 {
		c.SchedulerBuckets = DefaultSchedulerBuckets
	}
	if c.SurfaceTolerance <= 0 {
		c.SurfaceTolerance = DefaultSurfaceTolerance
	}
	if c.CellSize <= 0 {
		c.CellSize = DefaultCellSize
	}
}

// World is the complete mutable state of a simulation run.
type World struct {
	Time          float64
	Iteration     uint64
	CheckpointSeq uint32

	Species    *SpeciesTable
	RNG        *rng.RNG
	Partitions []*Partition
	Complexes  *ComplexArena

	cfg Config
}

// NewWorld returns an empty world at time zero.
func NewWorld(cfg Config, species *SpeciesTable, r *rng.RNG) *World {
	cfg.applyDefaults()
	if species == nil {
		species = NewSpeciesTable()
	}
	return &World{
		Species:   species,
		RNG:       r,
		Complexes: NewComplexArena(),
		cfg:       cfg,
	}
}

// Config returns the world parameters.
func (w *World) Config() Config { return w.cfg }

// TimeStep returns the simulation time step.
func (w *World) TimeStep() float64 { return w.cfg.TimeStep }

// SurfaceTolerance returns the placement tolerance for surface molecules.
func (w *World) SurfaceTolerance() float64 { return w.cfg.SurfaceTolerance }

// AddPartition appends a storage partition whose scheduler starts at the
// current time.
func (w *World) AddPartition(b Bounds) (*Partition, error) {
	sched, err := NewScheduler(w.cfg.TimeStep, w.cfg.SchedulerBuckets, w.Time)
	if err != nil {
		return nil, err
	}
	p := newPartition(len(w.Partitions), b, sched, w.cfg.CellSize)
	w.Partitions = append(w.Partitions, p)
	return p, nil
}

// ResetSchedulers replaces every partition's scheduler with an empty one
// starting at start.
func (w *World) ResetSchedulers(start float64) error {
	for _, p := range w.Partitions {
		sched, err := NewScheduler(w.cfg.TimeStep, w.cfg.SchedulerBuckets, start)
		if err != nil {
			return err
		}
		p.Scheduler = sched
	}
	return nil
}

// PendingCount returns the number of live scheduled molecules.
func (w *World) PendingCount() int {
	n := 0
	for _, p := range w.Partitions {
		_ = p.Scheduler.Walk(func(m *Molecule) error {
			if !m.Defunct {
				n++
			}
			return nil
		})
	}
	return n
}

// PartitionFor returns the first partition containing pos.
func (w *World) PartitionFor(pos Vector3) *Partition {
	for _, p := range w.Partitions {
		if p.Bounds.Contains(pos) {
			return p
		}
	}
	return nil
}

// AddMolecule inserts m into the world and schedules it at m.EventTime.
func (w *World) AddMolecule(m *Molecule) error {
	if m.Species == nil {
		return fmt.Errorf("sim: molecule has no species")
	}
	if m.Species.Kind == Surface {
		return w.AddSurfaceMolecule(m)
	}
	return w.AddVolumeMolecule(m)
}

// AddVolumeMolecule inserts m into the spatial index of the partition
// containing it and schedules it.
func (w *World) AddVolumeMolecule(m *Molecule) error {
	p := w.PartitionFor(m.Pos)
	if p == nil {
		return ErrOutsideWorld
	}
	p.InsertVolume(m)
	p.Scheduler.Insert(m, m.EventTime)
	m.Species.Population++
	return nil
}

// AddSurfaceMolecule places m on a surface tile within the world's
// tolerance and schedules it. The partition containing the position is
// tried first, then every other partition.
func (w *World) AddSurfaceMolecule(m *Molecule) error {
	tol := w.cfg.SurfaceTolerance
	err := ErrGeometryMismatch
	try := func(p *Partition) bool {
		perr := p.InsertSurface(m, tol)
		if perr == nil {
			p.Scheduler.Insert(m, m.EventTime)
			m.Species.Population++
			return true
		}
		if perr == ErrTileOccupied {
			err = perr
		}
		return false
	}

	home := w.PartitionFor(m.Pos)
	if home != nil && try(home) {
		return nil
	}
	for _, p := range w.Partitions {
		if p != home && try(p) {
			return nil
		}
	}
	return err
}

// RemoveMolecule takes m out of the simulation. The scheduler entry stays
// behind as a defunct placeholder and is skipped when its slot drains.
func (w *World) RemoveMolecule(m *Molecule) {
	if m.Defunct {
		return
	}
	w.detach(m)
	m.Defunct = true
}

// RetractMolecule undoes AddMolecule completely, scheduler entry included.
func (w *World) RetractMolecule(m *Molecule) {
	if m.Defunct {
		return
	}
	if p := m.partition; p != nil {
		p.Scheduler.Remove(m)
	}
	w.detach(m)
	m.partition = nil
}

func (w *World) detach(m *Molecule) {
	if g, _, ok := m.Tile(); ok {
		g.Release(m)
	} else if p := m.partition; p != nil {
		p.RemoveVolume(m)
	}
	m.Species.Population--
}

// NewComplex adds every member to the world and links them. members[0] is
// the master. On failure every member already added is retracted.
func (w *World) NewComplex(members []*Molecule) (*Complex, error) {
	for i, m := range members {
		if err := w.AddMolecule(m); err != nil {
			for _, done := range members[:i] {
				w.RetractMolecule(done)
			}
			return nil, fmt.Errorf("sim: complex member %d: %w", i, err)
		}
	}
	c, err := w.Complexes.Register(members)
	if err != nil {
		for _, m := range members {
			w.RetractMolecule(m)
		}
		return nil, err
	}
	return c, nil
}

// Step advances the simulation by one time step: every event due in the
// current slot fires, free volume molecules take one diffusion step, and
// molecules whose unimolecular timeout has passed decay. It returns the
// number of events processed.
func (w *World) Step() int {
	dt := w.cfg.TimeStep
	end := w.Time + dt
	processed := 0
	for _, p := range w.Partitions {
		for _, m := range p.Scheduler.Advance() {
			if m.Defunct {
				continue
			}
			processed++
			m.NewlyActive = false
			if m.Complex == 0 && m.UnimolTimeout <= end {
				w.RemoveMolecule(m)
				continue
			}
			if m.Species.Kind == Volume && m.Complex == 0 && m.Species.DiffusionConstant > 0 {
				w.diffuse(m, dt)
			}
			m.partition.Scheduler.Insert(m, m.EventTime+dt)
		}
	}
	w.Time = end
	w.Iteration++
	return processed
}

func (w *World) diffuse(m *Molecule, dt float64) {
	sigma := math.Sqrt(2 * m.Species.DiffusionConstant * dt)
	next := Vector3{
		X: m.Pos.X + sigma*w.RNG.Gauss(),
		Y: m.Pos.Y + sigma*w.RNG.Gauss(),
		Z: m.Pos.Z + sigma*w.RNG.Gauss(),
	}
	dst := w.PartitionFor(next)
	if dst == nil {
		// Reflective walls: stay put.
		return
	}
	m.partition.RemoveVolume(m)
	m.Pos = next
	dst.InsertVolume(m)
}

// DecayTimeout draws an absolute unimolecular timeout for a molecule of s
// born at birthday. Species without decay never time out.
func (w *World) DecayTimeout(s *Species, birthday float64) float64 {
	if s.DecayRate <= 0 {
		return math.Inf(1)
	}
	u := w.RNG.Float64()
	for u == 0 {
		u = w.RNG.Float64()
	}
	return birthday - math.Log(u)/s.DecayRate
}
