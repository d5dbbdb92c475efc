// Package mesh holds the immutable triangulated surface built from a
// triangulation and its per-vertex elevations.
//
// Vertices and triangles are flat slices addressed by integer handles:
// vertex v lives at coords[2v:2v+2] and elevations[v], triangle t refers to
// vertices triangles[3t:3t+3].
package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/relief/internal/terrain/geom"
)

// Tolerances used when callers have no better knowledge of the data scale.
const (
	// DefaultInsideEps widens each edge by a small band so points on a
	// shared edge are found in at least one of its triangles.
	DefaultInsideEps = 1e-12
	// DefaultAreaEps is the minimum |2*area| for a triangle to be usable in
	// barycentric interpolation.
	DefaultAreaEps = 1e-18
)

// ErrInvalidMesh is returned by New when the input slices are inconsistent.
var ErrInvalidMesh = errors.New("invalid mesh")

// Mesh is a triangulated surface. It is never mutated after New returns and
// is safe for concurrent readers.
type Mesh struct {
	coords     []float64 // x0,y0,x1,y1,...
	triangles  []int     // a0,b0,c0,a1,b1,c1,...
	elevations []float64 // z per vertex
}

// New builds a Mesh. coords holds two values per vertex, triangles three
// vertex indices per triangle, elevations one value per vertex in the same
// order as coords. The slices are owned by the Mesh afterwards.
func New(coords []float64, triangles []int, elevations []float64) (*Mesh, error) {
	if len(coords)%2 != 0 {
		return nil, fmt.Errorf("%w: odd coordinate count %d", ErrInvalidMesh, len(coords))
	}
	if len(triangles)%3 != 0 {
		return nil, fmt.Errorf("%w: triangle index count %d is not a multiple of 3", ErrInvalidMesh, len(triangles))
	}
	nv := len(coords) / 2
	if len(elevations) != nv {
		return nil, fmt.Errorf("%w: %d elevations for %d vertices", ErrInvalidMesh, len(elevations), nv)
	}
	for i, vi := range triangles {
		if vi < 0 || vi >= nv {
			return nil, fmt.Errorf("%w: triangle %d references vertex %d (have %d)", ErrInvalidMesh, i/3, vi, nv)
		}
	}
	return &Mesh{coords: coords, triangles: triangles, elevations: elevations}, nil
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.coords) / 2 }

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.triangles) / 3 }

// Vertex returns the position of vertex vi.
func (m *Mesh) Vertex(vi int) geom.Point {
	return geom.Point{X: m.coords[2*vi], Y: m.coords[2*vi+1]}
}

// Elevation returns the stored elevation of vertex vi.
func (m *Mesh) Elevation(vi int) float64 { return m.elevations[vi] }

// TriangleIndices returns the three vertex indices of triangle ti.
func (m *Mesh) TriangleIndices(ti int) (ia, ib, ic int) {
	k := 3 * ti
	return m.triangles[k], m.triangles[k+1], m.triangles[k+2]
}

func (m *Mesh) corners(ti int) (a, b, c geom.Point) {
	ia, ib, ic := m.TriangleIndices(ti)
	return m.Vertex(ia), m.Vertex(ib), m.Vertex(ic)
}

// TriangleBBox returns the bounding box of triangle ti.
func (m *Mesh) TriangleBBox(ti int) geom.BBox {
	a, b, c := m.corners(ti)
	return geom.BBox{
		MinX: math.Min(a.X, math.Min(b.X, c.X)),
		MinY: math.Min(a.Y, math.Min(b.Y, c.Y)),
		MaxX: math.Max(a.X, math.Max(b.X, c.X)),
		MaxY: math.Max(a.Y, math.Max(b.Y, c.Y)),
	}
}

// Bounds returns the bbox of every vertex.
func (m *Mesh) Bounds() geom.BBox {
	b := geom.EmptyBBox()
	for vi := 0; vi < m.VertexCount(); vi++ {
		b = b.Extend(m.Vertex(vi))
	}
	return b
}

// PointInTriangle reports whether p is inside triangle ti or within eps of
// its boundary. The three edge orientations must not disagree in sign by
// more than eps; winding order does not matter.
func (m *Mesh) PointInTriangle(ti int, p geom.Point, eps float64) bool {
	a, b, c := m.corners(ti)

	w1 := geom.Orient2D(a, b, p)
	w2 := geom.Orient2D(b, c, p)
	w3 := geom.Orient2D(c, a, p)

	hasNeg := w1 < -eps || w2 < -eps || w3 < -eps
	hasPos := w1 > eps || w2 > eps || w3 > eps
	return !(hasNeg && hasPos)
}

// Barycentric returns the weights of p relative to the corners of ti.
// ok is false when the triangle is degenerate (|2*area| < eps); callers
// skip such triangles.
func (m *Mesh) Barycentric(ti int, p geom.Point, eps float64) (a, b, c float64, ok bool) {
	pa, pb, pc := m.corners(ti)

	area := geom.Orient2D(pa, pb, pc)
	if math.Abs(area) < eps {
		return 0, 0, 0, false
	}

	a = geom.Orient2D(pb, pc, p) / area
	b = geom.Orient2D(pc, pa, p) / area
	c = 1 - a - b
	return a, b, c, true
}

// InterpolateZ returns the elevation at barycentric weights (a, b, c) of
// triangle ti.
func (m *Mesh) InterpolateZ(ti int, a, b, c float64) float64 {
	ia, ib, ic := m.TriangleIndices(ti)
	return a*m.elevations[ia] + b*m.elevations[ib] + c*m.elevations[ic]
}
