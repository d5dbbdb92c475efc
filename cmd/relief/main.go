package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/relief/internal/config"
	"github.com/banshee-data/relief/internal/db"
	"github.com/banshee-data/relief/internal/monitoring"
	"github.com/banshee-data/relief/internal/pipeline"
	"github.com/banshee-data/relief/internal/render/diag"
	"github.com/banshee-data/relief/internal/render/imageio"
	"github.com/banshee-data/relief/internal/version"
)

const usage = `usage: relief [flags] <samples.txt> <width>

Renders a "lat lon alt" sample file as a colour relief image.
`

type options struct {
	configPath string
	out        string
	condition  bool
	compare    bool
	hillshade  bool
	palette    string
	workers    int
	png        bool
	dbPath     string
	history    int
	plotPath   string
	quiet      bool
	version    bool

	input string
	width int
	set   map[string]bool
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("relief", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	o := &options{set: map[string]bool{}}
	fs.StringVar(&o.configPath, "config", "", "Render config JSON (defaults built in when empty)")
	fs.StringVar(&o.out, "out", "mnt.ppm", "Output PPM path")
	fs.BoolVar(&o.condition, "condition", false, "Condition the samples on a grid before triangulation")
	fs.BoolVar(&o.compare, "compare", false, "Render both raw and conditioned variants to <out>_raw and <out>_conditioned")
	fs.BoolVar(&o.hillshade, "hillshade", false, "Blend hillshading into the colour relief")
	fs.StringVar(&o.palette, "palette", "", "Palette file in segment format (overrides config)")
	fs.IntVar(&o.workers, "workers", 0, "Raster worker count (0 uses GOMAXPROCS)")
	fs.BoolVar(&o.png, "png", false, "Also write a PNG next to each PPM")
	fs.StringVar(&o.dbPath, "db", "", "SQLite database to record runs in")
	fs.IntVar(&o.history, "history", 0, "List the N most recent runs from -db and exit")
	fs.StringVar(&o.plotPath, "plot", "", "Write an elevation histogram of input vs conditioned samples")
	fs.BoolVar(&o.quiet, "quiet", false, "Suppress stage logging")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })

	if o.version {
		return o, nil
	}
	if o.history > 0 {
		if o.dbPath == "" {
			return nil, errors.New("-history requires -db")
		}
		return o, nil
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return nil, fmt.Errorf("expected 2 arguments, got %d", fs.NArg())
	}
	o.input = fs.Arg(0)
	w, err := strconv.Atoi(fs.Arg(1))
	if err != nil || w <= 0 {
		return nil, fmt.Errorf("invalid width %q", fs.Arg(1))
	}
	o.width = w
	return o, nil
}

// renderConfig loads the config file, if any, and applies flag overrides.
func (o *options) renderConfig() (*config.RenderConfig, error) {
	cfg := config.EmptyRenderConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = config.LoadRenderConfig(o.configPath); err != nil {
			return nil, err
		}
	}
	if o.set["hillshade"] {
		cfg = cfg.WithHillshade(o.hillshade)
	}
	if o.set["palette"] {
		cfg = cfg.WithPalette(o.palette)
	}
	if o.set["workers"] {
		cfg = cfg.WithWorkers(o.workers)
	}
	return cfg, cfg.Validate()
}

func (o *options) variants() []pipeline.Variant {
	switch {
	case o.compare:
		return []pipeline.Variant{pipeline.Raw, pipeline.Conditioned}
	case o.condition:
		return []pipeline.Variant{pipeline.Conditioned}
	default:
		return []pipeline.Variant{pipeline.Raw}
	}
}

// outputPath names the image for v. Single renders keep -out as given.
func (o *options) outputPath(v pipeline.Variant) string {
	if !o.compare {
		return o.out
	}
	ext := filepath.Ext(o.out)
	return strings.TrimSuffix(o.out, ext) + "_" + string(v) + ext
}

func pngPath(ppm string) string {
	return strings.TrimSuffix(ppm, filepath.Ext(ppm)) + ".png"
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}
	if o.version {
		fmt.Fprintln(stdout, version.String())
		return nil
	}
	if o.quiet {
		monitoring.SetLogger(nil)
	}

	var store *db.DB
	if o.dbPath != "" {
		if store, err = db.NewDB(o.dbPath); err != nil {
			return err
		}
		defer store.Close()
	}
	if o.history > 0 {
		return printHistory(ctx, store, o.history, stdout)
	}

	cfg, err := o.renderConfig()
	if err != nil {
		return err
	}
	in, err := pipeline.Load(o.input, cfg.GetProjection())
	if err != nil {
		return err
	}
	results, err := pipeline.Run(ctx, in, pipeline.Request{
		Width:    o.width,
		Variants: o.variants(),
		Config:   cfg,
	})
	if err != nil {
		return err
	}

	series := []diag.Series{{Label: "input", Values: in.Surface.Values}}
	for _, r := range results {
		path := o.outputPath(r.Variant)
		if err := writeImage(path, r, o.png); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s: %dx%d, %d mesh points, %d triangles -> %s (%s)\n",
			r.Variant, r.Image.Width, r.Image.Height, r.MeshPoints, r.Triangles, path,
			r.Duration.Round(time.Millisecond))

		if r.Grid != nil {
			series = append(series, diag.Series{Label: string(r.Variant), Values: r.Elevations})
		}
		if store != nil {
			id, err := store.InsertRenderRun(ctx, renderRun(o.input, cfg.GetHillshade(), in, r, path))
			if err != nil {
				return err
			}
			monitoring.Logf("[relief] recorded run %s", id)
		}
	}

	if o.plotPath != "" {
		if err := diag.ElevationHistogram(o.plotPath, 50, series...); err != nil {
			return err
		}
		for _, s := range series {
			if sum, err := diag.Summarize(s.Values); err == nil {
				fmt.Fprintf(stdout, "%s: %s\n", s.Label, sum)
			}
		}
	}
	return nil
}

func writeImage(path string, r pipeline.Result, withPNG bool) error {
	defer monitoring.Time("write")()
	img := r.Image
	if err := imageio.WritePPM(path, img.Width, img.Height, img.Pix); err != nil {
		return err
	}
	if withPNG {
		return imageio.WritePNG(pngPath(path), img.Width, img.Height, img.Pix)
	}
	return nil
}

func renderRun(input string, hillshade bool, in *pipeline.Input, r pipeline.Result, out string) *db.RenderRun {
	run := &db.RenderRun{
		InputPath:   input,
		Conditioned: r.Variant == pipeline.Conditioned,
		Hillshade:   hillshade,
		Width:       r.Image.Width,
		Height:      r.Image.Height,
		InputPoints: r.InputPoints,
		MeshPoints:  r.MeshPoints,
		Triangles:   r.Triangles,
		ZMin:        in.Dataset.Bounds.MinAlt,
		ZMax:        in.Dataset.Bounds.MaxAlt,
		OutputPath:  out,
		Duration:    r.Duration,
	}
	if r.Grid != nil {
		run.GridWidth, run.GridHeight = r.Grid.Width, r.Grid.Height
	}
	return run
}

func printHistory(ctx context.Context, store *db.DB, limit int, w io.Writer) error {
	runs, err := store.ListRenderRuns(ctx, limit)
	if err != nil {
		return err
	}
	for _, r := range runs {
		variant := pipeline.Raw
		if r.Conditioned {
			variant = pipeline.Conditioned
		}
		fmt.Fprintf(w, "%s  %s  %-11s %5dx%-5d %8d pts  %s -> %s\n",
			r.CreatedAt.Format(time.DateTime), r.RunID, variant, r.Width, r.Height,
			r.MeshPoints, r.InputPath, r.OutputPath)
	}
	return nil
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "relief: %v\n", err)
		os.Exit(1)
	}
}
