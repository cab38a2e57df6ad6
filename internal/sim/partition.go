package sim

import (
	"errors"
	"math"
)

var (
	// ErrOutsideWorld is returned when a position lies in no partition.
	ErrOutsideWorld = errors.New("sim: position outside every partition")
	// ErrGeometryMismatch is returned when a surface molecule cannot be
	// matched to any surface grid within tolerance.
	ErrGeometryMismatch = errors.New("sim: position does not lie on a surface grid")
	// ErrTileOccupied is returned when every tile within tolerance is taken.
	ErrTileOccupied = errors.New("sim: surface tile occupied")
)

// Bounds is an axis-aligned box; both faces are inclusive.
type Bounds struct {
	Min, Max Vector3
}

// Contains reports whether p lies in the box.
func (b Bounds) Contains(p Vector3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

type cellKey struct {
	x, y, z int32
}

// Partition is one storage region of the world: it owns an event scheduler,
// a uniform-cell spatial index of volume molecules and its surface grids.
type Partition struct {
	ID        int
	Bounds    Bounds
	Scheduler *Scheduler
	Surfaces  []*SurfaceGrid

	cellSize float64
	cells    map[cellKey][]*Molecule
	volume   int
}

func newPartition(id int, b Bounds, sched *Scheduler, cellSize float64) *Partition {
	return &Partition{
		ID:        id,
		Bounds:    b,
		Scheduler: sched,
		cellSize:  cellSize,
		cells:     make(map[cellKey][]*Molecule),
	}
}

// AddSurface attaches a surface grid to the partition.
func (p *Partition) AddSurface(g *SurfaceGrid) {
	p.Surfaces = append(p.Surfaces, g)
}

func (p *Partition) keyFor(pos Vector3) cellKey {
	rel := pos.Sub(p.Bounds.Min)
	return cellKey{
		x: int32(math.Floor(rel.X / p.cellSize)),
		y: int32(math.Floor(rel.Y / p.cellSize)),
		z: int32(math.Floor(rel.Z / p.cellSize)),
	}
}

// InsertVolume adds a volume molecule to the spatial index.
func (p *Partition) InsertVolume(m *Molecule) {
	k := p.keyFor(m.Pos)
	p.cells[k] = append(p.cells[k], m)
	m.cell = k
	m.partition = p
	p.volume++
}

// RemoveVolume drops a volume molecule from the spatial index.
func (p *Partition) RemoveVolume(m *Molecule) bool {
	list := p.cells[m.cell]
	if !removeFrom(&list, m) {
		return false
	}
	if len(list) == 0 {
		delete(p.cells, m.cell)
	} else {
		p.cells[m.cell] = list
	}
	p.volume--
	return true
}

// VolumeCount returns the number of indexed volume molecules.
func (p *Partition) VolumeCount() int {
	return p.volume
}

// InsertSurface places a surface molecule on the first grid that accepts
// it within tol. ErrTileOccupied wins over ErrGeometryMismatch when at least
// one grid matched the geometry.
func (p *Partition) InsertSurface(m *Molecule, tol float64) error {
	err := ErrGeometryMismatch
	for _, g := range p.Surfaces {
		perr := g.Place(m, tol)
		if perr == nil {
			m.partition = p
			return nil
		}
		if errors.Is(perr, ErrTileOccupied) {
			err = perr
		}
	}
	return err
}
