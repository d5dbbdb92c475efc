// Package diag writes diagnostic plots and summaries for elevation data.
package diag

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoData is returned when there is nothing to plot or summarise.
var ErrNoData = errors.New("no elevation data")

// Series is one labelled set of elevations.
type Series struct {
	Label  string
	Values []float64
}

// Summary holds descriptive statistics for a Series.
type Summary struct {
	N            int
	Min, Max     float64
	Mean, StdDev float64
}

func (s Summary) String() string {
	return fmt.Sprintf("n=%d min=%.2f max=%.2f mean=%.2f sd=%.2f", s.N, s.Min, s.Max, s.Mean, s.StdDev)
}

// Summarize returns statistics for values. The standard deviation is the
// unbiased sample estimate; it is zero for a single value.
func Summarize(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, ErrNoData
	}
	s := Summary{N: len(values), Min: floats.Min(values), Max: floats.Max(values)}
	if len(values) == 1 {
		s.Mean = values[0]
		return s, nil
	}
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	return s, nil
}

var palette = []color.Color{
	color.RGBA{R: 30, G: 110, B: 190, A: 160},
	color.RGBA{R: 230, G: 120, B: 70, A: 160},
	color.RGBA{R: 120, G: 210, B: 180, A: 160},
}

// ElevationHistogram overlays one histogram per series and saves the plot
// to path. The format follows the extension (.png, .svg, .pdf).
func ElevationHistogram(path string, bins int, series ...Series) error {
	if bins < 1 {
		bins = 1
	}
	p := plot.New()
	p.Title.Text = "Elevation distribution"
	p.X.Label.Text = "Elevation (m)"
	p.Y.Label.Text = "Samples"

	plotted := 0
	for i, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		h, err := plotter.NewHist(plotter.Values(s.Values), bins)
		if err != nil {
			return fmt.Errorf("histogram %q: %w", s.Label, err)
		}
		h.FillColor = palette[i%len(palette)]
		h.LineStyle.Width = vg.Points(0.5)
		p.Add(h)
		p.Legend.Add(s.Label, h)
		plotted++
	}
	if plotted == 0 {
		return ErrNoData
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save histogram: %w", err)
	}
	return nil
}
