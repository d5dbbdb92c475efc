// Package hillshade estimates per-pixel light intensity from the local
// slope of an elevation grid.
package hillshade

import "math"

// Params configures the light source.
type Params struct {
	Enabled     bool
	AzimuthDeg  float64 // compass bearing of the light, 0 = north, clockwise
	AltitudeDeg float64 // elevation of the light above the horizon
	Gamma       float64 // exponent applied to the clamped intensity
}

// DefaultParams returns a north-west light at 45 degrees with a mild
// contrast curve. Shading is off until Enabled is set.
func DefaultParams() Params {
	return Params{
		Enabled:     false,
		AzimuthDeg:  315,
		AltitudeDeg: 45,
		Gamma:       0.9,
	}
}

// Light returns the unit vector pointing at the light source in a
// right-handed frame with x east, y north and z up.
func (p Params) Light() (lx, ly, lz float64) {
	az := p.AzimuthDeg * math.Pi / 180
	alt := p.AltitudeDeg * math.Pi / 180
	return math.Sin(az) * math.Cos(alt), math.Cos(az) * math.Cos(alt), math.Sin(alt)
}

// Compute returns a w*h intensity grid in [0, 1] for the row-major
// elevation grid z. Row 0 is the northern edge; dx and dy are the cell
// sizes in the same units as z.
//
// Interior cells use central differences over their 4-neighbourhood. The
// outer ring copies the nearest interior row or column. Grids without an
// interior (w < 3 or h < 3) are fully lit. Enabled is not consulted.
//
// The y gradient is taken northward, (z[y-1]-z[y+1])/(2dy), which is the
// negative of a row-index gradient; with it azimuth 315 lights north-west
// facing slopes.
func Compute(z []float64, w, h int, dx, dy float64, p Params) []float64 {
	if w <= 0 || h <= 0 {
		return nil
	}
	shade := make([]float64, w*h)
	if w < 3 || h < 3 {
		for i := range shade {
			shade[i] = 1
		}
		return shade
	}

	lx, ly, lz := p.Light()
	gamma := p.Gamma
	if !(gamma > 0) {
		gamma = 1
	}
	at := func(x, y int) float64 { return z[y*w+x] }

	for y := 1; y+1 < h; y++ {
		for x := 1; x+1 < w; x++ {
			dzdx := (at(x+1, y) - at(x-1, y)) / (2 * dx)
			// Rows run southwards, so north is y-1.
			dzdy := (at(x, y-1) - at(x, y+1)) / (2 * dy)

			nx, ny, nz := -dzdx, -dzdy, 1.0
			norm := math.Sqrt(nx*nx + ny*ny + nz*nz)
			s := (nx*lx + ny*ly + nz*lz) / norm
			s = math.Max(0, math.Min(1, s))
			shade[y*w+x] = math.Pow(s, gamma)
		}
	}

	for x := 0; x < w; x++ {
		shade[x] = shade[w+x]
		shade[(h-1)*w+x] = shade[(h-2)*w+x]
	}
	for y := 0; y < h; y++ {
		shade[y*w] = shade[y*w+1]
		shade[y*w+w-1] = shade[y*w+w-2]
	}
	return shade
}
