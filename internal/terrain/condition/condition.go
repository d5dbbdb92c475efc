// Package condition regularises a scattered point cloud before
// triangulation: points are binned onto a regular grid, gaps are filled by
// neighbour diffusion, the grid is low-pass filtered with a separable
// Gaussian and the surviving cells are resampled back to points.
package condition

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/relief/internal/monitoring"
	"github.com/banshee-data/relief/internal/terrain/geom"
)

// ErrInvalidInput is returned for a non-positive target width or an empty
// bounding box.
var ErrInvalidInput = errors.New("invalid conditioner input")

// ConditionedPoint is a planar position with its elevation.
type ConditionedPoint struct {
	X, Y, Value float64
}

// Params configures a Conditioner.
type Params struct {
	GridScale      float64 // grid width relative to the target raster width
	FillIterations int     // gap-filling rounds; each grows coverage by one ring
	SigmaPx        float64 // Gaussian sigma in cells; <= 0 disables filtering
	SampleStep     int     // resampling stride in cells; < 1 is treated as 1
	UsePow2Grid    bool    // round grid dimensions up to a power of two
	MinGridSize    int     // lower bound on both grid dimensions; < 1 means 1
}

// DefaultParams returns the settings used by the relief CLI.
func DefaultParams() Params {
	return Params{
		GridScale:      1.0,
		FillIterations: 4,
		SigmaPx:        2.0,
		SampleStep:     2,
		UsePow2Grid:    true,
		MinGridSize:    16,
	}
}

// GridInfo describes the grid used by the last Run.
type GridInfo struct {
	Width, Height int
	Dx, Dy        float64
	Occupied      int // cells holding at least one input point
	Filled        int // cells filled by diffusion
	Dropped       int // input points outside the half-open bbox
	Emitted       int // output points
}

// Conditioner runs the binning, filling, filtering and resampling stages.
// It holds no state between runs.
type Conditioner struct {
	p Params
}

// New returns a Conditioner using p.
func New(p Params) *Conditioner {
	return &Conditioner{p: p}
}

// Params returns the conditioner settings.
func (c *Conditioner) Params() Params { return c.p }

// Run conditions points over bbox for a raster targetWidth pixels wide.
// Output size depends on coverage: cells that are still empty after
// filling are not emitted.
func (c *Conditioner) Run(points []ConditionedPoint, bbox geom.BBox, targetWidth int) ([]ConditionedPoint, GridInfo, error) {
	if targetWidth <= 0 {
		return nil, GridInfo{}, fmt.Errorf("%w: target width %d", ErrInvalidInput, targetWidth)
	}
	if err := bbox.Check(); err != nil {
		return nil, GridInfo{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	gw, gh := GridSize(targetWidth, bbox, c.p)
	g := newGrid(gw, gh, bbox)
	info := GridInfo{Width: gw, Height: gh, Dx: g.dx, Dy: g.dy}

	info.Occupied, info.Dropped = g.bin(points)
	info.Filled = g.fill(c.p.FillIterations)
	g.blur(c.p.SigmaPx)
	out := g.resample(c.p.SampleStep)
	info.Emitted = len(out)

	monitoring.Logf("[condition] grid %dx%d cell %.3gx%.3g: occupied=%d filled=%d dropped=%d emitted=%d",
		info.Width, info.Height, info.Dx, info.Dy, info.Occupied, info.Filled, info.Dropped, info.Emitted)
	return out, info, nil
}

// GridSize returns the conditioning grid dimensions for a raster
// targetWidth pixels wide over bbox. The height follows the bbox aspect
// ratio. bbox must be valid.
func GridSize(targetWidth int, bbox geom.BBox, p Params) (w, h int) {
	base := float64(targetWidth) * p.GridScale
	w = int(math.Round(base))
	h = int(math.Round(base * bbox.Height() / bbox.Width()))

	floor := max(p.MinGridSize, 1)
	w, h = max(w, floor), max(h, floor)
	if p.UsePow2Grid {
		w, h = nextPow2(w), nextPow2(h)
	}
	return w, h
}

func nextPow2(v int) int {
	p := 1
	for p < v {
		p <<= 1
	}
	return p
}

// grid is the working state of one Run: row-major values with a validity
// mask, row 0 at bbox.MaxY.
type grid struct {
	w, h   int
	bbox   geom.BBox
	dx, dy float64
	z      []float64
	valid  []bool
}

func newGrid(w, h int, bbox geom.BBox) *grid {
	return &grid{
		w:     w,
		h:     h,
		bbox:  bbox,
		dx:    bbox.Width() / float64(w),
		dy:    bbox.Height() / float64(h),
		z:     make([]float64, w*h),
		valid: make([]bool, w*h),
	}
}

// bin averages points per cell. Points whose normalised position falls
// outside [0, 1) on either axis are dropped.
func (g *grid) bin(points []ConditionedPoint) (occupied, dropped int) {
	sum := make([]float64, g.w*g.h)
	count := make([]int, g.w*g.h)
	bw, bh := g.bbox.Width(), g.bbox.Height()

	for _, p := range points {
		tx := (p.X - g.bbox.MinX) / bw
		ty := (g.bbox.MaxY - p.Y) / bh
		if !(tx >= 0 && tx < 1 && ty >= 0 && ty < 1) {
			dropped++
			continue
		}
		ix := min(g.w-1, int(math.Floor(tx*float64(g.w))))
		iy := min(g.h-1, int(math.Floor(ty*float64(g.h))))
		id := iy*g.w + ix
		sum[id] += p.Value
		count[id]++
	}

	for id, n := range count {
		if n > 0 {
			g.z[id] = sum[id] / float64(n)
			g.valid[id] = true
			occupied++
		}
	}
	return occupied, dropped
}

// fill runs diffusion rounds. Every invalid cell with at least one valid
// 8-neighbour takes their mean; a round reads only the previous round's
// state. It stops early once a round changes nothing.
func (g *grid) fill(iterations int) (filled int) {
	if iterations <= 0 {
		return 0
	}
	z2 := make([]float64, len(g.z))
	v2 := make([]bool, len(g.valid))

	for k := 0; k < iterations; k++ {
		copy(z2, g.z)
		copy(v2, g.valid)
		changed := 0

		for y := 0; y < g.h; y++ {
			for x := 0; x < g.w; x++ {
				id := y*g.w + x
				if g.valid[id] {
					continue
				}
				acc, n := 0.0, 0
				for ny := max(y-1, 0); ny <= min(y+1, g.h-1); ny++ {
					for nx := max(x-1, 0); nx <= min(x+1, g.w-1); nx++ {
						jd := ny*g.w + nx
						if jd != id && g.valid[jd] {
							acc += g.z[jd]
							n++
						}
					}
				}
				if n > 0 {
					z2[id] = acc / float64(n)
					v2[id] = true
					changed++
				}
			}
		}

		g.z, z2 = z2, g.z
		g.valid, v2 = v2, g.valid
		filled += changed
		if changed == 0 {
			break
		}
	}
	return filled
}

// Kernel returns the unit-sum Gaussian kernel for sigma, of radius
// max(1, ceil(3*sigma)). sigma must be positive.
func Kernel(sigma float64) []float64 {
	radius := max(1, int(math.Ceil(3*sigma)))
	k := make([]float64, 2*radius+1)
	s2 := 2 * sigma * sigma
	for i := -radius; i <= radius; i++ {
		k[i+radius] = math.Exp(-float64(i*i) / s2)
	}
	floats.Scale(1/floats.Sum(k), k)
	return k
}

// blur applies the separable Gaussian, horizontal sweep first, clamping
// samples at the grid edge. Every cell is filtered, valid or not.
func (g *grid) blur(sigma float64) {
	if !(sigma > 0) {
		return
	}
	k := Kernel(sigma)
	r := len(k) / 2
	tmp := make([]float64, len(g.z))

	for y := 0; y < g.h; y++ {
		row := g.z[y*g.w : (y+1)*g.w]
		for x := 0; x < g.w; x++ {
			acc := 0.0
			for d := -r; d <= r; d++ {
				acc += k[d+r] * row[clampIndex(x+d, g.w)]
			}
			tmp[y*g.w+x] = acc
		}
	}
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			acc := 0.0
			for d := -r; d <= r; d++ {
				acc += k[d+r] * tmp[clampIndex(y+d, g.h)*g.w+x]
			}
			g.z[y*g.w+x] = acc
		}
	}
}

func clampIndex(i, n int) int {
	return min(max(i, 0), n-1)
}

// resample emits one point per valid cell on a stride-step lattice, at the
// cell centre.
func (g *grid) resample(step int) []ConditionedPoint {
	step = max(step, 1)
	out := make([]ConditionedPoint, 0, ((g.w+step-1)/step)*((g.h+step-1)/step))
	for y := 0; y < g.h; y += step {
		wy := g.bbox.MaxY - (float64(y)+0.5)*g.dy
		for x := 0; x < g.w; x += step {
			id := y*g.w + x
			if !g.valid[id] {
				continue
			}
			out = append(out, ConditionedPoint{
				X:     g.bbox.MinX + (float64(x)+0.5)*g.dx,
				Y:     wy,
				Value: g.z[id],
			})
		}
	}
	return out
}
