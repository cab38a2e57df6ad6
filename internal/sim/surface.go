package sim

import (
	"fmt"
	"math"
)

// SurfaceGrid is a planar rectangle split into NU x NV square tiles. Each
// tile holds at most one surface molecule.
type SurfaceGrid struct {
	ID       int
	Origin   Vector3
	U, V     Vector3
	Normal   Vector3
	TileSize float64
	NU, NV   int

	tiles    []*Molecule
	occupied int
}

// NewSurfaceGrid builds a grid spanned by the (non-parallel) directions u
// and v from origin.
func NewSurfaceGrid(id int, origin, u, v Vector3, tileSize float64, nu, nv int) (*SurfaceGrid, error) {
	if tileSize <= 0 || nu <= 0 || nv <= 0 {
		return nil, fmt.Errorf("sim: surface %d: invalid tiling (tile %v, %dx%d)", id, tileSize, nu, nv)
	}
	lu, lv := u.Len(), v.Len()
	if lu == 0 || lv == 0 {
		return nil, fmt.Errorf("sim: surface %d: zero-length axis", id)
	}
	u = u.Scale(1 / lu)
	// Make v orthogonal to u.
	v = v.Sub(u.Scale(v.Dot(u)))
	if lv = v.Len(); lv < 1e-12 {
		return nil, fmt.Errorf("sim: surface %d: parallel axes", id)
	}
	v = v.Scale(1 / lv)
	return &SurfaceGrid{
		ID:       id,
		Origin:   origin,
		U:        u,
		V:        v,
		Normal:   u.Cross(v),
		TileSize: tileSize,
		NU:       nu,
		NV:       nv,
		tiles:    make([]*Molecule, nu*nv),
	}, nil
}

// TileCenter returns the centre of tile i.
func (g *SurfaceGrid) TileCenter(i int) Vector3 {
	iu, iv := i%g.NU, i/g.NU
	return g.Origin.
		Add(g.U.Scale((float64(iu) + 0.5) * g.TileSize)).
		Add(g.V.Scale((float64(iv) + 0.5) * g.TileSize))
}

// Occupant returns the molecule on tile i, if any.
func (g *SurfaceGrid) Occupant(i int) *Molecule {
	return g.tiles[i]
}

// Occupied returns the number of taken tiles.
func (g *SurfaceGrid) Occupied() int {
	return g.occupied
}

// Place puts m on the tile under m.Pos. The position must be within tol of
// the plane and of the grid edges. When that tile is taken, the nearest free
// tile whose centre lies within tol is used instead and m.Pos is moved to
// its centre.
func (g *SurfaceGrid) Place(m *Molecule, tol float64) error {
	rel := m.Pos.Sub(g.Origin)
	if math.Abs(rel.Dot(g.Normal)) > tol {
		return ErrGeometryMismatch
	}
	a := rel.Dot(g.U)
	b := rel.Dot(g.V)
	width := float64(g.NU) * g.TileSize
	height := float64(g.NV) * g.TileSize
	if a < -tol || b < -tol || a > width+tol || b > height+tol {
		return ErrGeometryMismatch
	}

	iu := clampIndex(int(math.Floor(a/g.TileSize)), g.NU)
	iv := clampIndex(int(math.Floor(b/g.TileSize)), g.NV)
	if idx := iv*g.NU + iu; g.tiles[idx] == nil {
		g.take(m, idx)
		return nil
	}

	projected := g.Origin.Add(g.U.Scale(a)).Add(g.V.Scale(b))
	best, bestDist := -1, math.Inf(1)
	reach := int(math.Ceil(tol/g.TileSize)) + 1
	for dv := -reach; dv <= reach; dv++ {
		for du := -reach; du <= reach; du++ {
			cu, cv := iu+du, iv+dv
			if cu < 0 || cv < 0 || cu >= g.NU || cv >= g.NV {
				continue
			}
			idx := cv*g.NU + cu
			if g.tiles[idx] != nil {
				continue
			}
			d := g.TileCenter(idx).Sub(projected).Len()
			if d <= tol && d < bestDist {
				best, bestDist = idx, d
			}
		}
	}
	if best < 0 {
		return ErrTileOccupied
	}
	m.Pos = g.TileCenter(best)
	g.take(m, best)
	return nil
}

func (g *SurfaceGrid) take(m *Molecule, idx int) {
	g.tiles[idx] = m
	g.occupied++
	m.grid = g
	m.tile = idx
}

// Release frees the tile held by m.
func (g *SurfaceGrid) Release(m *Molecule) {
	if m.grid != g || g.tiles[m.tile] != m {
		return
	}
	g.tiles[m.tile] = nil
	g.occupied--
	m.grid = nil
	m.tile = 0
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
