package locate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/relief/internal/terrain/geom"
	"github.com/banshee-data/relief/internal/terrain/index"
	"github.com/banshee-data/relief/internal/terrain/mesh"
)

func newLocator(t *testing.T, coords []float64, tris []int, z []float64, n int) *Locator {
	t.Helper()
	m, err := mesh.New(coords, tris, z)
	require.NoError(t, err)
	return New(m, index.NewGrid(m, m.Bounds(), n, n))
}

// unitSquareLocator is the unit square with corner elevations 0,0,0,10,
// split into two triangles along the (0,0)-(1,1) diagonal.
func unitSquareLocator(t *testing.T) *Locator {
	return newLocator(t,
		[]float64{0, 0, 1, 0, 0, 1, 1, 1},
		[]int{0, 1, 3, 0, 3, 2},
		[]float64{0, 0, 0, 10},
		4,
	)
}

func TestLocate_Interior(t *testing.T) {
	t.Parallel()
	l := unitSquareLocator(t)

	hit, ok := l.Locate(0.75, 0.25)
	require.True(t, ok)
	assert.Equal(t, 0, hit.Triangle)
	assert.InDelta(t, 1.0, hit.A+hit.B+hit.C, 1e-12)

	hit, ok = l.Locate(0.25, 0.75)
	require.True(t, ok)
	assert.Equal(t, 1, hit.Triangle)
}

func TestLocate_OutsideHull(t *testing.T) {
	t.Parallel()
	l := unitSquareLocator(t)

	for _, p := range []geom.Point{{X: -0.5, Y: 0.5}, {X: 2, Y: 2}, {X: 0.5, Y: -1e-3}} {
		_, ok := l.Locate(p.X, p.Y)
		assert.False(t, ok, "point %v", p)
		_, ok = l.Interpolate(p.X, p.Y)
		assert.False(t, ok, "point %v", p)
	}
}

func TestLocate_TieBreaksByInsertionOrder(t *testing.T) {
	t.Parallel()
	l := unitSquareLocator(t)

	// The diagonal is shared; triangle 0 is registered first.
	hit, ok := l.Locate(0.5, 0.5)
	require.True(t, ok)
	assert.Equal(t, 0, hit.Triangle)
}

func TestLocate_SkipsDegenerate(t *testing.T) {
	t.Parallel()

	// Triangle 0 is collinear along y = x and overlaps triangle 1's area.
	l := newLocator(t,
		[]float64{0, 0, 1, 1, 2, 2, 0, 2, 2, 0},
		[]int{0, 1, 2, 0, 4, 3},
		[]float64{5, 5, 5, 2, 1},
		1,
	)
	hit, ok := l.Locate(1, 1)
	require.True(t, ok)
	assert.Equal(t, 1, hit.Triangle)

	// (1, 1) is the midpoint of the (2,0)-(0,2) edge.
	z, ok := l.Interpolate(1, 1)
	require.True(t, ok)
	assert.InDelta(t, 1.5, z, 1e-9)
}

func TestInterpolate_Vertices(t *testing.T) {
	t.Parallel()
	l := unitSquareLocator(t)

	z, ok := l.Interpolate(1, 1)
	require.True(t, ok)
	assert.Equal(t, 10.0, z)

	z, ok = l.Interpolate(0, 0)
	require.True(t, ok)
	assert.Equal(t, 0.0, z)
}

func TestInterpolate_Centroids(t *testing.T) {
	t.Parallel()
	l := unitSquareLocator(t)

	// Triangle 0: (0,0),(1,0),(1,1) -> mean(0,0,10).
	z, ok := l.Interpolate(2.0/3, 1.0/3)
	require.True(t, ok)
	assert.InDelta(t, 10.0/3, z, 1e-9)

	// Triangle 1: (0,0),(1,1),(0,1) -> mean(0,10,0).
	z, ok = l.Interpolate(1.0/3, 2.0/3)
	require.True(t, ok)
	assert.InDelta(t, 10.0/3, z, 1e-9)
}
