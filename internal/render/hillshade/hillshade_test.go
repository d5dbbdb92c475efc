package hillshade

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plane returns a w*h grid z = a*x_east + b*y_north with row 0 at the top.
func plane(w, h int, a, b float64) []float64 {
	z := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			z[y*w+x] = a*float64(x) + b*float64(h-1-y)
		}
	}
	return z
}

func TestDefaultParams(t *testing.T) {
	t.Parallel()
	p := DefaultParams()
	assert.False(t, p.Enabled)
	assert.Equal(t, 315.0, p.AzimuthDeg)
	assert.Equal(t, 45.0, p.AltitudeDeg)
	assert.Equal(t, 0.9, p.Gamma)
}

func TestLight_IsUnit(t *testing.T) {
	t.Parallel()
	for _, p := range []Params{{AzimuthDeg: 0, AltitudeDeg: 90}, {AzimuthDeg: 315, AltitudeDeg: 45}, {AzimuthDeg: 123, AltitudeDeg: 7}} {
		lx, ly, lz := p.Light()
		assert.InDelta(t, 1.0, lx*lx+ly*ly+lz*lz, 1e-12)
	}

	lx, ly, lz := Params{AzimuthDeg: 90, AltitudeDeg: 0}.Light()
	assert.InDelta(t, 1.0, lx, 1e-12, "azimuth 90 points east")
	assert.InDelta(t, 0.0, ly, 1e-12)
	assert.InDelta(t, 0.0, lz, 1e-12)
}

func TestCompute_FlatGrid(t *testing.T) {
	t.Parallel()
	p := DefaultParams()
	got := Compute(plane(5, 4, 0, 0), 5, 4, 1, 1, p)
	require.Len(t, got, 20)

	want := math.Pow(math.Sin(math.Pi/4), 0.9)
	for i, s := range got {
		assert.InDelta(t, want, s, 1e-12, "cell %d", i)
	}
}

func TestCompute_OverheadLightOnFlat(t *testing.T) {
	t.Parallel()
	got := Compute(plane(4, 4, 0, 0), 4, 4, 1, 1, Params{AltitudeDeg: 90, Gamma: 0.9})
	for _, s := range got {
		assert.InDelta(t, 1.0, s, 1e-12)
	}
}

func TestCompute_SlopeFacingLight(t *testing.T) {
	t.Parallel()
	p := Params{AzimuthDeg: 0, AltitudeDeg: 45, Gamma: 1}

	// Rising to the south faces north, towards the light.
	facing := Compute(plane(5, 5, 0, -0.5), 5, 5, 1, 1, p)
	// Rising to the north faces away.
	away := Compute(plane(5, 5, 0, 0.5), 5, 5, 1, 1, p)
	flat := Compute(plane(5, 5, 0, 0), 5, 5, 1, 1, p)

	c := 2*5 + 2
	assert.Greater(t, facing[c], flat[c])
	assert.Less(t, away[c], flat[c])
}

func TestCompute_ClampsToZero(t *testing.T) {
	t.Parallel()
	// A steep east-rising slope lit from the east at the horizon would go negative.
	got := Compute(plane(4, 4, 100, 0), 4, 4, 1, 1, Params{AzimuthDeg: 90, AltitudeDeg: 0, Gamma: 0.9})
	for _, s := range got {
		assert.Equal(t, 0.0, s)
	}
}

func TestCompute_BorderCopiesInterior(t *testing.T) {
	t.Parallel()
	w, h := 5, 4
	z := []float64{
		0, 1, 4, 2, 0,
		3, 5, 2, 8, 1,
		1, 7, 0, 3, 6,
		2, 2, 9, 1, 4,
	}
	got := Compute(z, w, h, 1, 1, DefaultParams())

	for x := 0; x < w; x++ {
		ix := min(max(x, 1), w-2)
		assert.Equal(t, got[1*w+ix], got[0*w+x], "top x=%d", x)
		assert.Equal(t, got[(h-2)*w+ix], got[(h-1)*w+x], "bottom x=%d", x)
	}
	for y := 1; y < h-1; y++ {
		assert.Equal(t, got[y*w+1], got[y*w], "left y=%d", y)
		assert.Equal(t, got[y*w+w-2], got[y*w+w-1], "right y=%d", y)
	}
	for _, s := range got {
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestCompute_NoInterior(t *testing.T) {
	t.Parallel()
	for _, dim := range [][2]int{{1, 1}, {2, 5}, {5, 2}} {
		w, h := dim[0], dim[1]
		got := Compute(make([]float64, w*h), w, h, 1, 1, DefaultParams())
		require.Len(t, got, w*h)
		for _, s := range got {
			assert.Equal(t, 1.0, s)
		}
	}
	assert.Nil(t, Compute(nil, 0, 3, 1, 1, DefaultParams()))
}
