// Package geom holds the planar primitives shared by the terrain and render
// layers.
package geom

import (
	"fmt"
	"math"
)

// Point is a location in the projected plane (metres for the default
// projection).
type Point struct {
	X, Y float64
}

// BBox is an axis-aligned bound in planar coordinates.
// A usable bbox has MaxX > MinX and MaxY > MinY; see Valid.
type BBox struct {
	MinX, MinY, MaxX, MaxY float64
}

// EmptyBBox returns an inverted bbox that any call to Extend will replace.
func EmptyBBox() BBox {
	return BBox{
		MinX: math.Inf(1),
		MinY: math.Inf(1),
		MaxX: math.Inf(-1),
		MaxY: math.Inf(-1),
	}
}

// Width returns MaxX - MinX.
func (b BBox) Width() float64 { return b.MaxX - b.MinX }

// Height returns MaxY - MinY.
func (b BBox) Height() float64 { return b.MaxY - b.MinY }

// Valid reports whether both extents are strictly positive.
func (b BBox) Valid() bool {
	return b.Width() > 0 && b.Height() > 0
}

// Check returns an error describing why b is not Valid, or nil.
func (b BBox) Check() error {
	if !b.Valid() {
		return fmt.Errorf("bbox [%g,%g]x[%g,%g] has non-positive extent", b.MinX, b.MaxX, b.MinY, b.MaxY)
	}
	return nil
}

// Contains reports whether p lies inside b, boundary included.
func (b BBox) Contains(p Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Extend returns b grown to include p.
func (b BBox) Extend(p Point) BBox {
	if p.X < b.MinX {
		b.MinX = p.X
	}
	if p.X > b.MaxX {
		b.MaxX = p.X
	}
	if p.Y < b.MinY {
		b.MinY = p.Y
	}
	if p.Y > b.MaxY {
		b.MaxY = p.Y
	}
	return b
}

// BoundsOf returns the bbox of pts. An empty slice yields EmptyBBox.
func BoundsOf(pts []Point) BBox {
	b := EmptyBBox()
	for _, p := range pts {
		b = b.Extend(p)
	}
	return b
}

// Orient2D returns twice the signed area of triangle (a, b, c): positive
// when the points turn counter-clockwise.
func Orient2D(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}
