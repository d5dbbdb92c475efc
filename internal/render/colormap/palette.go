package colormap

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/banshee-data/relief/internal/monitoring"
)

// ErrEmptyPalette is returned when a palette holds no usable segment.
var ErrEmptyPalette = errors.New("palette has no usable segment")

// maxPaletteSize guards against pointing the loader at something that is
// clearly not a palette.
const maxPaletteSize = 1 * 1024 * 1024

// Segment is one palette line: colour C0 at T0 blending to C1 at T1.
type Segment struct {
	T0, T1 float64
	C0, C1 Color
}

// ParseSegments reads palette lines of the form
//
//	t0 R0/G0/B0 t1 R1/G1/B1
//
// Blank lines and lines starting with '#' are ignored. Malformed lines are
// skipped and counted. Segments are returned sorted by T0.
func ParseSegments(r io.Reader) (segs []Segment, skipped int, err error) {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seg, perr := parseSegment(line)
		if perr != nil {
			skipped++
			monitoring.Logf("[colormap] palette line %d skipped: %v", lineNo, perr)
			continue
		}
		segs = append(segs, seg)
	}
	if err := sc.Err(); err != nil {
		return nil, skipped, fmt.Errorf("failed to read palette: %w", err)
	}
	sort.SliceStable(segs, func(i, j int) bool { return segs[i].T0 < segs[j].T0 })
	return segs, skipped, nil
}

func parseSegment(line string) (Segment, error) {
	f := strings.Fields(line)
	if len(f) < 4 {
		return Segment{}, fmt.Errorf("want 4 fields, got %d", len(f))
	}
	t0, err := strconv.ParseFloat(f[0], 64)
	if err != nil {
		return Segment{}, fmt.Errorf("bad t0 %q: %w", f[0], err)
	}
	c0, err := parseRGB(f[1])
	if err != nil {
		return Segment{}, err
	}
	t1, err := strconv.ParseFloat(f[2], 64)
	if err != nil {
		return Segment{}, fmt.Errorf("bad t1 %q: %w", f[2], err)
	}
	c1, err := parseRGB(f[3])
	if err != nil {
		return Segment{}, err
	}
	return Segment{T0: t0, T1: t1, C0: c0, C1: c1}, nil
}

func parseRGB(s string) (Color, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return Color{}, fmt.Errorf("bad colour %q: want R/G/B", s)
	}
	var ch [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return Color{}, fmt.Errorf("bad colour %q: %w", s, err)
		}
		ch[i] = uint8(v)
	}
	return Color{ch[0], ch[1], ch[2]}, nil
}

// BakeTable resamples segs at t = i/255 for every table index. A t inside
// a segment blends that segment's colours; a t outside every segment takes
// the nearest endpoint colour. segs must be sorted by T0 and non-empty.
func BakeTable(segs []Segment) *[TableSize]Color {
	var table [TableSize]Color
	for i := range table {
		table[i] = sampleSegments(segs, float64(i)/(TableSize-1))
	}
	return &table
}

func sampleSegments(segs []Segment, t float64) Color {
	for _, s := range segs {
		if t >= s.T0 && t <= s.T1 {
			return lerp(s.C0, s.C1, s.T0, s.T1, t)
		}
	}
	// Outside every segment: nearest endpoint wins, earlier segments on ties.
	best, bestDist := segs[0].C0, math.Inf(1)
	for _, s := range segs {
		if d := math.Abs(t - s.T0); d < bestDist {
			best, bestDist = s.C0, d
		}
		if d := math.Abs(t - s.T1); d < bestDist {
			best, bestDist = s.C1, d
		}
	}
	return best
}

// ParsePalette builds a KindTable map from palette text.
func ParsePalette(r io.Reader, zmin, zmax float64) (*ColorMap, error) {
	segs, skipped, err := ParseSegments(r)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("%w (%d malformed lines)", ErrEmptyPalette, skipped)
	}
	return newTable(BakeTable(segs), zmin, zmax), nil
}

// LoadPalette reads a palette file and builds a KindTable map.
func LoadPalette(path string, zmin, zmax float64) (*ColorMap, error) {
	cleanPath := filepath.Clean(path)
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat palette: %w", err)
	}
	if info.Size() > maxPaletteSize {
		return nil, fmt.Errorf("palette too large: %d bytes (max %d)", info.Size(), maxPaletteSize)
	}
	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open palette: %w", err)
	}
	defer f.Close()

	cm, err := ParsePalette(f, zmin, zmax)
	if err != nil {
		return nil, fmt.Errorf("palette %s: %w", cleanPath, err)
	}
	return cm, nil
}
