// Package colormap maps elevations to colours.
//
// A ColorMap is one of two kinds selected at construction:
//
//	KindGradient  ordered colour stops, sampled by piecewise-linear blending
//	KindTable     256-entry table baked from a palette of colour segments
//
// Both normalise elevation against a fixed [zmin, zmax] window.
package colormap

import (
	"errors"
	"fmt"
	"math"
)

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

// Black is used for pixels with no elevation.
var Black = Color{}

// Kind selects how a ColorMap samples normalised elevations.
type Kind int

const (
	// KindGradient blends between ordered stops on every lookup.
	KindGradient Kind = iota
	// KindTable looks up a pre-baked 256-entry table.
	KindTable
)

func (k Kind) String() string {
	switch k {
	case KindGradient:
		return "gradient"
	case KindTable:
		return "table"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// TableSize is the number of entries baked for KindTable maps.
const TableSize = 256

// ErrInvalidStops is returned when gradient stops cannot span [0, 1].
var ErrInvalidStops = errors.New("invalid colour stops")

// Stop is a gradient colour at normalised position T.
type Stop struct {
	T float64
	Color
}

// ColorMap maps elevations to colours. The zero value is not usable; build
// one with NewGradient, Haxby or ParsePalette.
type ColorMap struct {
	kind       Kind
	stops      []Stop
	table      *[TableSize]Color
	zmin, zmax float64
	fallback   Color
}

// haxbyStops is the Haxby ocean-to-summit ramp.
var haxbyStops = []Stop{
	{0.00, Color{10, 20, 70}},
	{0.10, Color{20, 60, 140}},
	{0.20, Color{30, 110, 190}},
	{0.30, Color{70, 170, 220}},
	{0.40, Color{120, 210, 180}},
	{0.50, Color{170, 230, 120}},
	{0.60, Color{220, 220, 80}},
	{0.70, Color{240, 180, 60}},
	{0.80, Color{230, 120, 70}},
	{0.90, Color{210, 170, 170}},
	{1.00, Color{245, 245, 245}},
}

// Haxby returns the built-in Haxby gradient over [zmin, zmax].
func Haxby(zmin, zmax float64) *ColorMap {
	cm, err := NewGradient(haxbyStops, zmin, zmax)
	if err != nil {
		panic(err) // built-in stops are valid
	}
	return cm
}

// NewGradient returns a KindGradient map. stops must hold at least two
// entries with non-decreasing T, the first at 0 and the last at 1.
func NewGradient(stops []Stop, zmin, zmax float64) (*ColorMap, error) {
	if len(stops) < 2 {
		return nil, fmt.Errorf("%w: need at least 2, got %d", ErrInvalidStops, len(stops))
	}
	if stops[0].T != 0 || stops[len(stops)-1].T != 1 {
		return nil, fmt.Errorf("%w: stops span [%g, %g], want [0, 1]", ErrInvalidStops, stops[0].T, stops[len(stops)-1].T)
	}
	for i := 1; i < len(stops); i++ {
		if stops[i].T < stops[i-1].T {
			return nil, fmt.Errorf("%w: stop %d at %g precedes stop %d at %g", ErrInvalidStops, i, stops[i].T, i-1, stops[i-1].T)
		}
	}
	cm := &ColorMap{
		kind:  KindGradient,
		stops: append([]Stop(nil), stops...),
		zmin:  zmin,
		zmax:  zmax,
	}
	cm.fallback = cm.Sample(0)
	return cm, nil
}

func newTable(table *[TableSize]Color, zmin, zmax float64) *ColorMap {
	return &ColorMap{
		kind:     KindTable,
		table:    table,
		zmin:     zmin,
		zmax:     zmax,
		fallback: table[0],
	}
}

// Kind reports which variant cm is.
func (cm *ColorMap) Kind() Kind { return cm.kind }

// Window returns the elevation range mapped onto [0, 1].
func (cm *ColorMap) Window() (zmin, zmax float64) { return cm.zmin, cm.zmax }

// Fallback returns the colour used when the window is empty.
func (cm *ColorMap) Fallback() Color { return cm.fallback }

// WithFallback returns a copy of cm using c when the window is empty.
func (cm *ColorMap) WithFallback(c Color) *ColorMap {
	out := *cm
	out.fallback = c
	return &out
}

// WithWindow returns a copy of cm normalising against [zmin, zmax].
func (cm *ColorMap) WithWindow(zmin, zmax float64) *ColorMap {
	out := *cm
	out.zmin, out.zmax = zmin, zmax
	return &out
}

// Normalize maps z into [0, 1]. ok is false when zmax <= zmin.
func (cm *ColorMap) Normalize(z float64) (t float64, ok bool) {
	if cm.zmax <= cm.zmin {
		return 0, false
	}
	return clamp01((z - cm.zmin) / (cm.zmax - cm.zmin)), true
}

// At returns the colour for elevation z. An empty window always yields the
// fallback colour.
func (cm *ColorMap) At(z float64) Color {
	t, ok := cm.Normalize(z)
	if !ok {
		return cm.fallback
	}
	return cm.Sample(t)
}

// Sample returns the colour at normalised position t, clamped to [0, 1].
func (cm *ColorMap) Sample(t float64) Color {
	t = clamp01(t)
	if cm.kind == KindTable {
		return cm.table[int(math.Round(t*(TableSize-1)))]
	}
	return sampleStops(cm.stops, t)
}

func sampleStops(stops []Stop, t float64) Color {
	first, last := stops[0], stops[len(stops)-1]
	if t <= first.T {
		return first.Color
	}
	if t >= last.T {
		return last.Color
	}
	for i := 0; i+1 < len(stops); i++ {
		if t >= stops[i].T && t <= stops[i+1].T {
			return lerp(stops[i].Color, stops[i+1].Color, stops[i].T, stops[i+1].T, t)
		}
	}
	return last.Color
}

// lerp blends c0 at t0 to c1 at t1. A zero-width span returns c0.
func lerp(c0, c1 Color, t0, t1, t float64) Color {
	if t1 <= t0 {
		return c0
	}
	u := (t - t0) / (t1 - t0)
	mix := func(a, b uint8) uint8 {
		return uint8(math.Round((1-u)*float64(a) + u*float64(b)))
	}
	return Color{mix(c0.R, c1.R), mix(c0.G, c1.G), mix(c0.B, c1.B)}
}

// Shade scales every channel of c by s, clamped to [0, 1], rounding to the
// nearest integer.
func Shade(c Color, s float64) Color {
	s = clamp01(s)
	mul := func(v uint8) uint8 {
		return uint8(math.Round(float64(v) * s))
	}
	return Color{mul(c.R), mul(c.G), mul(c.B)}
}

// clamp01 clamps v into [0, 1]; NaN maps to 0.
func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
