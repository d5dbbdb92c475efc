// Package ingest reads geographic elevation samples from text files.
//
// The format is one "lat lon alt" triple per line, whitespace separated, in
// decimal degrees and metres. Blank lines are ignored; anything else that
// does not start with three numbers is an error.
package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// ErrNoSamples is returned when the input holds no sample line.
var ErrNoSamples = errors.New("no elevation samples")

// GeoSample is one surveyed elevation.
type GeoSample struct {
	Lat, Lon, Alt float64
}

// Bounds is the per-axis range of a Dataset.
type Bounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
	MinAlt, MaxAlt float64
}

// Dataset holds samples in file order with their bounds.
type Dataset struct {
	Samples []GeoSample
	Bounds  Bounds
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return len(d.Samples) }

// Altitudes returns the sample elevations in file order.
func (d *Dataset) Altitudes() []float64 {
	out := make([]float64, len(d.Samples))
	for i, s := range d.Samples {
		out[i] = s.Alt
	}
	return out
}

// NewDataset wraps samples and computes their bounds. samples must be
// non-empty.
func NewDataset(samples []GeoSample) (*Dataset, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	lat := make([]float64, len(samples))
	lon := make([]float64, len(samples))
	alt := make([]float64, len(samples))
	for i, s := range samples {
		lat[i], lon[i], alt[i] = s.Lat, s.Lon, s.Alt
	}
	return &Dataset{
		Samples: samples,
		Bounds: Bounds{
			MinLat: floats.Min(lat), MaxLat: floats.Max(lat),
			MinLon: floats.Min(lon), MaxLon: floats.Max(lon),
			MinAlt: floats.Min(alt), MaxAlt: floats.Max(alt),
		},
	}, nil
}

// Read parses samples from r. Trailing fields after the third are ignored.
func Read(r io.Reader) (*Dataset, error) {
	var samples []GeoSample
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		s, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		samples = append(samples, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read samples: %w", err)
	}
	return NewDataset(samples)
}

func parseLine(line string) (GeoSample, error) {
	f := strings.Fields(line)
	if len(f) < 3 {
		return GeoSample{}, fmt.Errorf("want lat lon alt, got %d fields", len(f))
	}
	var v [3]float64
	for i := range v {
		x, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			return GeoSample{}, fmt.Errorf("bad number %q", f[i])
		}
		v[i] = x
	}
	return GeoSample{Lat: v[0], Lon: v[1], Alt: v[2]}, nil
}

// ReadFile parses samples from the file at path.
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open samples: %w", err)
	}
	defer f.Close()

	d, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
