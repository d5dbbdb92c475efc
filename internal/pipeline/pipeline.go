// Package pipeline wires the terrain and render layers into a complete
// run: read samples, project, optionally condition, triangulate, index and
// rasterise.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/relief/internal/config"
	"github.com/banshee-data/relief/internal/monitoring"
	"github.com/banshee-data/relief/internal/render/colormap"
	"github.com/banshee-data/relief/internal/render/raster"
	"github.com/banshee-data/relief/internal/terrain/condition"
	"github.com/banshee-data/relief/internal/terrain/geom"
	"github.com/banshee-data/relief/internal/terrain/index"
	"github.com/banshee-data/relief/internal/terrain/ingest"
	"github.com/banshee-data/relief/internal/terrain/locate"
	"github.com/banshee-data/relief/internal/terrain/mesh"
	"github.com/banshee-data/relief/internal/terrain/project"
	"github.com/banshee-data/relief/internal/terrain/triangulate"
)

// Variant names one rendering of the input.
type Variant string

const (
	// Raw triangulates the projected samples as read.
	Raw Variant = "raw"
	// Conditioned triangulates the output of the grid conditioner.
	Conditioned Variant = "conditioned"
)

// Surface is a set of planar elevation samples with their bbox.
type Surface struct {
	Points []geom.Point
	Values []float64
	BBox   geom.BBox
}

// NewSurface pairs points with values by index.
func NewSurface(points []geom.Point, values []float64) (*Surface, error) {
	if len(points) != len(values) {
		return nil, fmt.Errorf("%d points but %d values", len(points), len(values))
	}
	return &Surface{Points: points, Values: values, BBox: geom.BoundsOf(points)}, nil
}

// Len returns the number of samples.
func (s *Surface) Len() int { return len(s.Points) }

// Condition runs c over the surface for a raster targetWidth pixels wide.
// The result keeps the source bbox.
func (s *Surface) Condition(c *condition.Conditioner, targetWidth int) (*Surface, condition.GridInfo, error) {
	in := make([]condition.ConditionedPoint, s.Len())
	for i, p := range s.Points {
		in[i] = condition.ConditionedPoint{X: p.X, Y: p.Y, Value: s.Values[i]}
	}
	out, info, err := c.Run(in, s.BBox, targetWidth)
	if err != nil {
		return nil, info, err
	}
	cs := &Surface{
		Points: make([]geom.Point, len(out)),
		Values: make([]float64, len(out)),
		BBox:   s.BBox,
	}
	for i, p := range out {
		cs.Points[i] = geom.Point{X: p.X, Y: p.Y}
		cs.Values[i] = p.Value
	}
	return cs, info, nil
}

// Scene is a triangulated, indexed surface ready for rasterisation.
type Scene struct {
	Mesh    *mesh.Mesh
	Locator *locate.Locator
	BBox    geom.BBox
}

// Build triangulates s and indexes the mesh on an nx*ny grid over s.BBox.
func Build(s *Surface, nx, ny int) (*Scene, error) {
	stop := monitoring.Time("triangulate")
	tris, err := triangulate.Triangulate(s.Points)
	stop()
	if err != nil {
		return nil, err
	}
	m, err := mesh.New(triangulate.Coords(s.Points), tris, s.Values)
	if err != nil {
		return nil, err
	}

	stop = monitoring.Time("index")
	g := index.NewGrid(m, s.BBox, nx, ny)
	stop()
	st := g.Stats()
	monitoring.Logf("[pipeline] index %dx%d: %d empty cells, %d registrations, max %d per cell",
		nx, ny, st.EmptyCells, st.Registered, st.MaxOccupancy)

	return &Scene{Mesh: m, Locator: locate.New(m, g), BBox: s.BBox}, nil
}

// Input is a projected sample file.
type Input struct {
	Path    string
	Dataset *ingest.Dataset
	Surface *Surface
}

// Load reads the sample file at path and projects it to the plane
// described by the proj4 string dst.
func Load(path, dst string) (*Input, error) {
	stop := monitoring.Time("read")
	ds, err := ingest.ReadFile(path)
	stop()
	if err != nil {
		return nil, err
	}
	monitoring.Logf("[pipeline] read %d samples, altitude %.2f..%.2f", ds.Len(), ds.Bounds.MinAlt, ds.Bounds.MaxAlt)

	p, err := project.New(dst)
	if err != nil {
		return nil, err
	}
	stop = monitoring.Time("project")
	pts, _, err := p.ProjectAll(ds.Samples)
	stop()
	if err != nil {
		return nil, err
	}
	s, err := NewSurface(pts, ds.Altitudes())
	if err != nil {
		return nil, err
	}
	return &Input{Path: path, Dataset: ds, Surface: s}, nil
}

// ColorMap builds the colour map described by cfg over the data range
// [dataMin, dataMax].
func ColorMap(cfg *config.RenderConfig, dataMin, dataMax float64) (*colormap.ColorMap, error) {
	zmin, zmax := cfg.ColorWindow(dataMin, dataMax)
	if path := cfg.GetPalettePath(); path != "" {
		return colormap.LoadPalette(path, zmin, zmax)
	}
	return colormap.Haxby(zmin, zmax), nil
}

// Result is one rendered variant.
type Result struct {
	Variant     Variant
	Image       *raster.Image
	InputPoints int
	MeshPoints  int
	Triangles   int
	Grid        *condition.GridInfo // nil for Raw
	Elevations  []float64           // values fed to the triangulation
	Duration    time.Duration
}

// Request describes a run.
type Request struct {
	Width    int
	Variants []Variant
	Config   *config.RenderConfig
}

// ErrNoVariants is returned for a Request without variants.
var ErrNoVariants = errors.New("no variants requested")

// Run renders every requested variant of in. Variants run concurrently;
// results keep the request order.
func Run(ctx context.Context, in *Input, req Request) ([]Result, error) {
	if len(req.Variants) == 0 {
		return nil, ErrNoVariants
	}
	cfg := req.Config
	if cfg == nil {
		cfg = config.EmptyRenderConfig()
	}
	b := in.Dataset.Bounds
	cmap, err := ColorMap(cfg, b.MinAlt, b.MaxAlt)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(req.Variants))
	eg, ctx := errgroup.WithContext(ctx)
	for i, v := range req.Variants {
		eg.Go(func() error {
			r, err := render(ctx, in.Surface, v, req.Width, cfg, cmap)
			if err != nil {
				return fmt.Errorf("%s: %w", v, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func render(ctx context.Context, s *Surface, v Variant, width int, cfg *config.RenderConfig, cmap *colormap.ColorMap) (Result, error) {
	start := time.Now()
	res := Result{Variant: v, InputPoints: s.Len()}

	switch v {
	case Raw:
	case Conditioned:
		stop := monitoring.Time("condition")
		cs, info, err := s.Condition(condition.New(cfg.ConditionerParams()), width)
		stop()
		if err != nil {
			return Result{}, err
		}
		s, res.Grid = cs, &info
	default:
		return Result{}, fmt.Errorf("unknown variant %q", v)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	scene, err := Build(s, cfg.GetIndexNX(), cfg.GetIndexNY())
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	r, err := raster.New(scene.Locator, scene.BBox, cmap, cfg.RasterOptions())
	if err != nil {
		return Result{}, err
	}
	stop := monitoring.Time("render")
	img, err := r.Render(width, cfg.HillshadeParams())
	stop()
	if err != nil {
		return Result{}, err
	}

	res.Image = img
	res.MeshPoints = scene.Mesh.VertexCount()
	res.Triangles = scene.Mesh.TriangleCount()
	res.Elevations = s.Values
	res.Duration = time.Since(start)
	return res, nil
}
