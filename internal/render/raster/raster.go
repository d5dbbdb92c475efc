// Package raster turns a located mesh into a colour image.
//
// Pixel (i, j) samples the bbox at its centre,
//
//	x = MinX + (i+0.5)*dx    y = MaxY - (j+0.5)*dy
//
// so row 0 is the northern edge. Pixels outside the triangulated hull are
// black.
package raster

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/relief/internal/monitoring"
	"github.com/banshee-data/relief/internal/render/colormap"
	"github.com/banshee-data/relief/internal/render/hillshade"
	"github.com/banshee-data/relief/internal/terrain/geom"
)

// ErrInvalidInput is returned for an empty bbox or a non-positive width.
var ErrInvalidInput = errors.New("invalid raster input")

// Interpolator answers elevation queries. *locate.Locator satisfies it.
type Interpolator interface {
	Interpolate(x, y float64) (z float64, ok bool)
}

// Options tunes rendering.
type Options struct {
	// ShadeFloor is the darkest multiplier hillshading can apply. The zero
	// value means no floor; DefaultOptions supplies 0.35.
	ShadeFloor float64
	// Workers bounds the number of row bands processed at once.
	// Zero or less uses GOMAXPROCS.
	Workers int
}

// DefaultOptions returns a 0.35 shade floor and one worker per CPU.
func DefaultOptions() Options {
	return Options{ShadeFloor: 0.35}
}

// Image is a row-major 8-bit RGB buffer, three bytes per pixel.
type Image struct {
	Width, Height int
	Pix           []uint8
}

// At returns the colour of pixel (x, y).
func (img *Image) At(x, y int) colormap.Color {
	i := 3 * (y*img.Width + x)
	return colormap.Color{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2]}
}

// Rasterizer renders one surface over a fixed bbox.
type Rasterizer struct {
	src  Interpolator
	bbox geom.BBox
	cmap *colormap.ColorMap
	opts Options
}

// New returns a Rasterizer sampling src over bbox and colouring with cmap.
func New(src Interpolator, bbox geom.BBox, cmap *colormap.ColorMap, opts Options) (*Rasterizer, error) {
	if err := bbox.Check(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if cmap == nil {
		return nil, fmt.Errorf("%w: nil colour map", ErrInvalidInput)
	}
	return &Rasterizer{src: src, bbox: bbox, cmap: cmap, opts: opts}, nil
}

// HeightFor returns the image height that keeps the bbox aspect ratio at
// the given width, never less than 1.
func (r *Rasterizer) HeightFor(width int) int {
	h := int(math.Round(float64(width) * r.bbox.Height() / r.bbox.Width()))
	return max(h, 1)
}

// ElevationGrid is a sampled surface: row-major elevations with a mask of
// the pixels that fell inside the hull. Masked-out elevations are zero.
type ElevationGrid struct {
	Width, Height int
	Dx, Dy        float64
	Z             []float64
	Valid         []bool
}

// Sample interpolates the surface at every pixel centre.
func (r *Rasterizer) Sample(width int) (*ElevationGrid, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: width %d", ErrInvalidInput, width)
	}
	height := r.HeightFor(width)
	g := &ElevationGrid{
		Width:  width,
		Height: height,
		Dx:     r.bbox.Width() / float64(width),
		Dy:     r.bbox.Height() / float64(height),
		Z:      make([]float64, width*height),
		Valid:  make([]bool, width*height),
	}
	r.forEachBand(height, func(j0, j1 int) {
		for j := j0; j < j1; j++ {
			y := r.bbox.MaxY - (float64(j)+0.5)*g.Dy
			for i := 0; i < width; i++ {
				x := r.bbox.MinX + (float64(i)+0.5)*g.Dx
				if z, ok := r.src.Interpolate(x, y); ok {
					g.Z[j*width+i] = z
					g.Valid[j*width+i] = true
				}
			}
		}
	})
	return g, nil
}

// Render produces a width-pixel-wide image. With shading disabled every
// valid pixel takes its colour-map colour unchanged.
func (r *Rasterizer) Render(width int, shade hillshade.Params) (*Image, error) {
	g, err := r.Sample(width)
	if err != nil {
		return nil, err
	}

	var intensity []float64
	if shade.Enabled {
		intensity = hillshade.Compute(g.Z, g.Width, g.Height, g.Dx, g.Dy, shade)
	}
	floor := math.Max(0, math.Min(1, r.opts.ShadeFloor))

	img := &Image{Width: g.Width, Height: g.Height, Pix: make([]uint8, 3*g.Width*g.Height)}
	r.forEachBand(g.Height, func(j0, j1 int) {
		for id := j0 * g.Width; id < j1*g.Width; id++ {
			if !g.Valid[id] {
				continue
			}
			c := r.cmap.At(g.Z[id])
			if intensity != nil {
				c = colormap.Shade(c, floor+(1-floor)*intensity[id])
			}
			img.Pix[3*id], img.Pix[3*id+1], img.Pix[3*id+2] = c.R, c.G, c.B
		}
	})

	if holes := countInvalid(g.Valid); holes > 0 {
		monitoring.Logf("[raster] %dx%d: %d of %d pixels outside the hull", g.Width, g.Height, holes, len(g.Valid))
	}
	return img, nil
}

// forEachBand splits rows [0, height) into contiguous bands and runs fn on
// them with at most Workers in flight. Bands never overlap.
func (r *Rasterizer) forEachBand(height int, fn func(j0, j1 int)) {
	workers := r.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, height)
	rows := (height + workers - 1) / workers

	var eg errgroup.Group
	eg.SetLimit(workers)
	for j0 := 0; j0 < height; j0 += rows {
		j1 := min(j0+rows, height)
		eg.Go(func() error {
			fn(j0, j1)
			return nil
		})
	}
	_ = eg.Wait()
}

func countInvalid(valid []bool) int {
	n := 0
	for _, ok := range valid {
		if !ok {
			n++
		}
	}
	return n
}
