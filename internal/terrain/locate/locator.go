// Package locate answers point-location and elevation queries against a
// mesh through its spatial index.
package locate

import (
	"github.com/banshee-data/relief/internal/terrain/geom"
	"github.com/banshee-data/relief/internal/terrain/index"
	"github.com/banshee-data/relief/internal/terrain/mesh"
)

// TriangleHit is the triangle enclosing a query point and the point's
// barycentric weights in it.
type TriangleHit struct {
	Triangle int
	A, B, C  float64
}

// Locator finds enclosing triangles. It owns the index; neither the mesh
// nor the index change while a Locator is in use, so queries may run from
// several goroutines.
type Locator struct {
	mesh  *mesh.Mesh
	index *index.Grid

	InsideEps float64 // point-in-triangle band (default mesh.DefaultInsideEps)
	AreaEps   float64 // degenerate-triangle threshold (default mesh.DefaultAreaEps)
}

// New returns a Locator over m using g for candidate lookup.
func New(m *mesh.Mesh, g *index.Grid) *Locator {
	return &Locator{
		mesh:      m,
		index:     g,
		InsideEps: mesh.DefaultInsideEps,
		AreaEps:   mesh.DefaultAreaEps,
	}
}

// Mesh returns the located mesh.
func (l *Locator) Mesh() *mesh.Mesh { return l.mesh }

// Index returns the candidate index.
func (l *Locator) Index() *index.Grid { return l.index }

// Locate returns the first candidate triangle, in index order, that
// contains (x, y) and is not degenerate. ok is false when the point lies
// outside the triangulated hull or inside a hole.
func (l *Locator) Locate(x, y float64) (hit TriangleHit, ok bool) {
	p := geom.Point{X: x, Y: y}
	for _, ti := range l.index.Candidates(x, y) {
		if !l.mesh.PointInTriangle(ti, p, l.InsideEps) {
			continue
		}
		a, b, c, ok := l.mesh.Barycentric(ti, p, l.AreaEps)
		if !ok {
			continue
		}
		return TriangleHit{Triangle: ti, A: a, B: b, C: c}, true
	}
	return TriangleHit{}, false
}

// Interpolate returns the surface elevation at (x, y). ok is false when
// Locate finds no triangle.
func (l *Locator) Interpolate(x, y float64) (z float64, ok bool) {
	hit, ok := l.Locate(x, y)
	if !ok {
		return 0, false
	}
	return l.mesh.InterpolateZ(hit.Triangle, hit.A, hit.B, hit.C), true
}
