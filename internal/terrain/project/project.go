// Package project converts geographic samples to planar coordinates with a
// fixed proj4 source/destination pair.
package project

import (
	"fmt"

	"github.com/ctessum/geom/proj"

	"github.com/banshee-data/relief/internal/terrain/geom"
	"github.com/banshee-data/relief/internal/terrain/ingest"
)

// LongLatWGS84 is the proj4 definition of the input samples.
const LongLatWGS84 = "+proj=longlat +datum=WGS84"

// Lambert93 is the default destination: RGF93 / Lambert-93, in metres.
const Lambert93 = "+proj=lcc +lat_1=49 +lat_2=44 +lat_0=46.5 +lon_0=3 +x_0=700000 +y_0=6600000 +ellps=GRS80 +units=m +no_defs"

// Projector maps longitude/latitude in degrees to planar coordinates.
type Projector struct {
	dst string
	ct  proj.Transformer
}

// New returns a Projector from WGS84 long/lat to the proj4 definition dst.
// An empty dst selects Lambert93.
func New(dst string) (*Projector, error) {
	if dst == "" {
		dst = Lambert93
	}
	srcSR, err := proj.Parse(LongLatWGS84)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source projection: %w", err)
	}
	dstSR, err := proj.Parse(dst)
	if err != nil {
		return nil, fmt.Errorf("failed to parse projection %q: %w", dst, err)
	}
	ct, err := srcSR.NewTransform(dstSR)
	if err != nil {
		return nil, fmt.Errorf("failed to build transform to %q: %w", dst, err)
	}
	// Some definitions only fail on first use.
	if _, _, err := ct(0, 0); err != nil {
		return nil, fmt.Errorf("failed to build transform to %q: %w", dst, err)
	}
	return &Projector{dst: dst, ct: ct}, nil
}

// Destination returns the proj4 definition of the output plane.
func (p *Projector) Destination() string { return p.dst }

// Project returns the planar position of (lon, lat).
func (p *Projector) Project(lon, lat float64) (geom.Point, error) {
	x, y, err := p.ct(lon, lat)
	if err != nil {
		return geom.Point{}, fmt.Errorf("failed to project (%g, %g): %w", lon, lat, err)
	}
	return geom.Point{X: x, Y: y}, nil
}

// ProjectAll projects every sample in order and returns the points with
// their bbox.
func (p *Projector) ProjectAll(samples []ingest.GeoSample) ([]geom.Point, geom.BBox, error) {
	pts := make([]geom.Point, len(samples))
	for i, s := range samples {
		q, err := p.Project(s.Lon, s.Lat)
		if err != nil {
			return nil, geom.BBox{}, fmt.Errorf("sample %d: %w", i, err)
		}
		pts[i] = q
	}
	return pts, geom.BoundsOf(pts), nil
}
