// Package index provides a uniform grid over a mesh bbox that answers
// "which triangles might contain this point" queries.
package index

import (
	"math"

	"github.com/banshee-data/relief/internal/terrain/geom"
	"github.com/banshee-data/relief/internal/terrain/mesh"
)

// Grid is a uniform nx × ny grid of cells. Each cell lists the ids of every
// triangle whose bbox overlaps it, in ascending id order. Coverage is by
// bbox, so lists are a superset of the triangles truly touching the cell.
type Grid struct {
	bbox   geom.BBox
	nx, ny int
	dx, dy float64

	cells [][]int // cell index -> triangle ids
	empty []int   // shared result for empty cells
}

// NewGrid indexes every triangle of m over bbox at nx × ny resolution.
// Resolutions below 1 are raised to 1. A non-positive cell extent is
// replaced with 1.0 to keep cell lookups finite; an invalid bbox is still
// the caller's problem.
func NewGrid(m *mesh.Mesh, bbox geom.BBox, nx, ny int) *Grid {
	if nx < 1 {
		nx = 1
	}
	if ny < 1 {
		ny = 1
	}

	g := &Grid{
		bbox:  bbox,
		nx:    nx,
		ny:    ny,
		dx:    bbox.Width() / float64(nx),
		dy:    bbox.Height() / float64(ny),
		cells: make([][]int, nx*ny),
		empty: []int{},
	}
	if !(g.dx > 0) {
		g.dx = 1.0
	}
	if !(g.dy > 0) {
		g.dy = 1.0
	}

	for ti := 0; ti < m.TriangleCount(); ti++ {
		tb := m.TriangleBBox(ti)

		cx0 := g.clamp(g.floorX(tb.MinX), g.nx)
		cx1 := g.clamp(g.floorX(tb.MaxX), g.nx)
		cy0 := g.clamp(g.floorY(tb.MinY), g.ny)
		cy1 := g.clamp(g.floorY(tb.MaxY), g.ny)

		for cy := cy0; cy <= cy1; cy++ {
			for cx := cx0; cx <= cx1; cx++ {
				id := g.cellIndex(cx, cy)
				g.cells[id] = append(g.cells[id], ti)
			}
		}
	}
	return g
}

func (g *Grid) floorX(x float64) float64 { return math.Floor((x - g.bbox.MinX) / g.dx) }
func (g *Grid) floorY(y float64) float64 { return math.Floor((y - g.bbox.MinY) / g.dy) }

func (g *Grid) cellIndex(ix, iy int) int { return iy*g.nx + ix }

// clamp maps a floored cell coordinate into [0, n-1]. NaN maps to 0.
func (g *Grid) clamp(v float64, n int) int {
	if !(v > 0) {
		return 0
	}
	if v > float64(n-1) {
		return n - 1
	}
	return int(v)
}

// CellOf returns the cell containing (x, y). Points outside the bbox map to
// the nearest edge cell.
func (g *Grid) CellOf(x, y float64) (ix, iy int) {
	return g.clamp(g.floorX(x), g.nx), g.clamp(g.floorY(y), g.ny)
}

// Candidates returns the triangle ids registered in the cell containing
// (x, y). The result is a view into the grid and must not be modified. A
// cell with no triangles returns a shared empty slice.
func (g *Grid) Candidates(x, y float64) []int {
	ix, iy := g.CellOf(x, y)
	if c := g.cells[g.cellIndex(ix, iy)]; len(c) > 0 {
		return c
	}
	return g.empty
}

// BBox returns the indexed bbox.
func (g *Grid) BBox() geom.BBox { return g.bbox }

// Resolution returns the cell counts along x and y.
func (g *Grid) Resolution() (nx, ny int) { return g.nx, g.ny }

// CellSize returns the cell extents actually used for lookups.
func (g *Grid) CellSize() (dx, dy float64) { return g.dx, g.dy }

// Stats summarises cell occupancy.
type Stats struct {
	Cells        int
	EmptyCells   int
	Registered   int // sum of list lengths
	MaxOccupancy int
}

// Stats walks every cell and reports occupancy figures.
func (g *Grid) Stats() Stats {
	s := Stats{Cells: len(g.cells)}
	for _, c := range g.cells {
		if len(c) == 0 {
			s.EmptyCells++
		}
		s.Registered += len(c)
		if len(c) > s.MaxOccupancy {
			s.MaxOccupancy = len(c)
		}
	}
	return s
}
