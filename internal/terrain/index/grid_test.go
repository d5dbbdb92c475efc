package index

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/relief/internal/terrain/geom"
	"github.com/banshee-data/relief/internal/terrain/mesh"
)

func squareMesh(t *testing.T) *mesh.Mesh {
	t.Helper()
	m, err := mesh.New(
		[]float64{0, 0, 10, 0, 0, 10, 10, 10},
		[]int{0, 1, 3, 0, 3, 2},
		[]float64{0, 0, 0, 10},
	)
	require.NoError(t, err)
	return m
}

func TestNewGrid_ClampsResolution(t *testing.T) {
	t.Parallel()
	g := NewGrid(squareMesh(t), geom.BBox{MaxX: 10, MaxY: 10}, 0, -3)
	nx, ny := g.Resolution()
	assert.Equal(t, 1, nx)
	assert.Equal(t, 1, ny)
	assert.Equal(t, []int{0, 1}, g.Candidates(5, 5))
}

func TestNewGrid_DegenerateExtent(t *testing.T) {
	t.Parallel()
	g := NewGrid(squareMesh(t), geom.BBox{MinX: 0, MinY: 0, MaxX: 0, MaxY: 10}, 4, 4)
	dx, dy := g.CellSize()
	assert.Equal(t, 1.0, dx)
	assert.Equal(t, 2.5, dy)
}

func TestCandidates_ClampsOutsidePoints(t *testing.T) {
	t.Parallel()
	g := NewGrid(squareMesh(t), geom.BBox{MaxX: 10, MaxY: 10}, 5, 5)

	ix, iy := g.CellOf(-100, 1e9)
	assert.Equal(t, 0, ix)
	assert.Equal(t, 4, iy)

	// Both triangle bboxes span the whole square.
	assert.Equal(t, g.Candidates(0.1, 9.9), g.Candidates(-5, 50))
}

// Not parallel: AllocsPerRun reads process-wide allocation counters.
func TestCandidates_SharedEmpty(t *testing.T) {
	// One small triangle in the corner of a large bbox.
	m, err := mesh.New([]float64{0, 0, 1, 0, 0, 1}, []int{0, 1, 2}, []float64{1, 2, 3})
	require.NoError(t, err)
	g := NewGrid(m, geom.BBox{MaxX: 100, MaxY: 100}, 10, 10)

	a := g.Candidates(95, 95)
	b := g.Candidates(55, 15)
	assert.Empty(t, a)
	assert.Empty(t, b)
	assert.NotNil(t, a)
	allocs := testing.AllocsPerRun(100, func() { _ = g.Candidates(95, 95) })
	assert.Zero(t, allocs)
	assert.Equal(t, []int{0}, g.Candidates(0.5, 0.5))

	s := g.Stats()
	assert.Equal(t, 100, s.Cells)
	assert.Equal(t, 99, s.EmptyCells)
	assert.Equal(t, 1, s.Registered)
}

func TestCandidates_NoFalseNegatives(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 11))
	const nTri = 200
	coords := make([]float64, 0, nTri*6)
	tris := make([]int, 0, nTri*3)
	for i := 0; i < nTri*3; i++ {
		coords = append(coords, rng.Float64()*1000, rng.Float64()*500)
		tris = append(tris, i)
	}
	m, err := mesh.New(coords, tris, make([]float64, nTri*3))
	require.NoError(t, err)

	bbox := m.Bounds()
	g := NewGrid(m, bbox, 37, 19)

	for q := 0; q < 2000; q++ {
		p := geom.Point{
			X: bbox.MinX + rng.Float64()*bbox.Width(),
			Y: bbox.MinY + rng.Float64()*bbox.Height(),
		}
		cand := g.Candidates(p.X, p.Y)
		require.True(t, slices.IsSorted(cand), "candidate order must follow triangle id")
		for ti := 0; ti < m.TriangleCount(); ti++ {
			if m.TriangleBBox(ti).Contains(p) {
				require.Contains(t, cand, ti, "query %v", p)
			}
		}
	}
}
