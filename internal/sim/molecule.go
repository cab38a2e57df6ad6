package sim

import "math"

// Vector3 is a point or direction in simulation space.
type Vector3 struct {
	X, Y, Z float64
}

func (v Vector3) Add(o Vector3) Vector3   { return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vector3) Sub(o Vector3) Vector3   { return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vector3) Scale(k float64) Vector3 { return Vector3{v.X * k, v.Y * k, v.Z * k} }
func (v Vector3) Dot(o Vector3) float64   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vector3) Len() float64            { return math.Sqrt(v.Dot(v)) }
func (v Vector3) Cross(o Vector3) Vector3 {
	return Vector3{v.Y*o.Z - v.Z*o.Y, v.Z*o.X - v.X*o.Z, v.X*o.Y - v.Y*o.X}
}

// Molecule is one particle with a pending scheduler event.
type Molecule struct {
	Species     *Species
	Pos         Vector3
	Orientation int16

	Birthday      float64
	EventTime     float64
	UnimolTimeout float64

	// NewlyActive marks a molecule created during the current iteration.
	NewlyActive bool

	// Defunct molecules have been removed from the simulation but may still
	// sit in a scheduler bucket until their slot is drained.
	Defunct bool

	// Complex is zero for free molecules. SubunitIndex 0 is the master.
	Complex      ComplexHandle
	SubunitIndex int

	partition *Partition
	grid      *SurfaceGrid
	tile      int
	cell      cellKey
}

// Partition returns the storage partition holding the molecule.
func (m *Molecule) Partition() *Partition {
	return m.partition
}

// Tile returns the surface grid and tile index of a placed surface molecule.
func (m *Molecule) Tile() (*SurfaceGrid, int, bool) {
	if m.grid == nil {
		return nil, 0, false
	}
	return m.grid, m.tile, true
}
