// Package triangulate builds the Delaunay triangulation of planar samples.
package triangulate

import (
	"errors"
	"fmt"

	"github.com/fogleman/delaunay"

	"github.com/banshee-data/relief/internal/terrain/geom"
)

// ErrTooFewPoints is returned for inputs that cannot hold a triangle.
var ErrTooFewPoints = errors.New("need at least 3 points to triangulate")

// Triangulate returns vertex-index triples, three per triangle, over pts.
// Indices refer to pts in order. Collinear input is an error.
func Triangulate(pts []geom.Point) ([]int, error) {
	if len(pts) < 3 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewPoints, len(pts))
	}
	in := make([]delaunay.Point, len(pts))
	for i, p := range pts {
		in[i] = delaunay.Point{X: p.X, Y: p.Y}
	}
	tri, err := delaunay.Triangulate(in)
	if err != nil {
		return nil, fmt.Errorf("delaunay: %w", err)
	}
	if len(tri.Triangles) == 0 {
		return nil, fmt.Errorf("delaunay: no triangles for %d points", len(pts))
	}
	return tri.Triangles, nil
}

// Coords flattens pts into x0, y0, x1, y1, ... as expected by mesh.New.
func Coords(pts []geom.Point) []float64 {
	out := make([]float64, 0, 2*len(pts))
	for _, p := range pts {
		out = append(out, p.X, p.Y)
	}
	return out
}
