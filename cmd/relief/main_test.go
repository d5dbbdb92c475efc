package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/relief/internal/monitoring"
	"github.com/banshee-data/relief/internal/pipeline"
	"github.com/banshee-data/relief/internal/render/imageio"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

func writeSamples(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	for i := 0; i < 15; i++ {
		for j := 0; j < 15; j++ {
			lat := 48.20 + 0.01*float64(i)/14
			lon := -3.06 + 0.015*float64(j)/14
			fmt.Fprintf(&b, "%.6f %.6f %.2f\n", lat, lon, 120+float64(i+j))
		}
	}
	path := filepath.Join(dir, "samples.txt")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestParseArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr bool
		check   func(t *testing.T, o *options)
	}{
		{
			name: "defaults",
			args: []string{"in.txt", "800"},
			check: func(t *testing.T, o *options) {
				assert.Equal(t, "in.txt", o.input)
				assert.Equal(t, 800, o.width)
				assert.Equal(t, "mnt.ppm", o.out)
				assert.Equal(t, []pipeline.Variant{pipeline.Raw}, o.variants())
				assert.Empty(t, o.set)
			},
		},
		{
			name: "condition",
			args: []string{"-condition", "in.txt", "64"},
			check: func(t *testing.T, o *options) {
				assert.Equal(t, []pipeline.Variant{pipeline.Conditioned}, o.variants())
				assert.Equal(t, "mnt.ppm", o.outputPath(pipeline.Conditioned))
			},
		},
		{
			name: "compare",
			args: []string{"-compare", "-out", "out/lake.ppm", "in.txt", "64"},
			check: func(t *testing.T, o *options) {
				assert.Equal(t, []pipeline.Variant{pipeline.Raw, pipeline.Conditioned}, o.variants())
				assert.Equal(t, "out/lake_raw.ppm", o.outputPath(pipeline.Raw))
				assert.Equal(t, "out/lake_conditioned.ppm", o.outputPath(pipeline.Conditioned))
			},
		},
		{
			name: "version needs no arguments",
			args: []string{"-version"},
			check: func(t *testing.T, o *options) {
				assert.True(t, o.version)
			},
		},
		{
			name: "history",
			args: []string{"-db", "runs.db", "-history", "5"},
			check: func(t *testing.T, o *options) {
				assert.Equal(t, 5, o.history)
			},
		},
		{name: "history without db", args: []string{"-history", "5"}, wantErr: true},
		{name: "missing width", args: []string{"in.txt"}, wantErr: true},
		{name: "zero width", args: []string{"in.txt", "0"}, wantErr: true},
		{name: "bad width", args: []string{"in.txt", "wide"}, wantErr: true},
		{name: "unknown flag", args: []string{"-sideways", "in.txt", "10"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			o, err := parseArgs(tt.args, io.Discard)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, o)
		})
	}
}

func TestParseArgs_Help(t *testing.T) {
	t.Parallel()
	var stderr bytes.Buffer
	_, err := parseArgs([]string{"-h"}, &stderr)
	assert.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, stderr.String(), "usage: relief")
}

func TestRenderConfig_Overrides(t *testing.T) {
	t.Parallel()

	o, err := parseArgs([]string{"in.txt", "10"}, io.Discard)
	require.NoError(t, err)
	cfg, err := o.renderConfig()
	require.NoError(t, err)
	assert.False(t, cfg.GetHillshade())
	assert.Equal(t, 0, cfg.GetWorkers())

	o, err = parseArgs([]string{
		"-config", filepath.Join("..", "..", "config", "render.defaults.json"),
		"-hillshade", "-workers", "3", "-palette", "p.cpt",
		"in.txt", "10",
	}, io.Discard)
	require.NoError(t, err)
	cfg, err = o.renderConfig()
	require.NoError(t, err)
	assert.True(t, cfg.GetHillshade())
	assert.Equal(t, 3, cfg.GetWorkers())
	assert.Equal(t, "p.cpt", cfg.GetPalettePath())

	o, err = parseArgs([]string{"-config", "render.yaml", "in.txt", "10"}, io.Discard)
	require.NoError(t, err)
	_, err = o.renderConfig()
	assert.Error(t, err)
}

func TestRun_Version(t *testing.T) {
	t.Parallel()
	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-version"}, &stdout, io.Discard))
	assert.True(t, strings.HasPrefix(stdout.String(), "relief "))
}

func TestRun_CompareRecordsHistory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	input := writeSamples(t, dir)
	out := filepath.Join(dir, "mnt.ppm")
	dbPath := filepath.Join(dir, "runs.db")
	plotPath := filepath.Join(dir, "hist.png")

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-compare", "-hillshade", "-png",
		"-out", out, "-db", dbPath, "-plot", plotPath,
		input, "40",
	}, &stdout, io.Discard)
	require.NoError(t, err)

	for _, v := range []string{"raw", "conditioned"} {
		w, h, rgb, err := imageio.ReadPPM(filepath.Join(dir, "mnt_"+v+".ppm"))
		require.NoError(t, err, v)
		assert.Equal(t, 40, w)
		assert.Positive(t, h)
		assert.Len(t, rgb, 3*w*h)
		assert.FileExists(t, filepath.Join(dir, "mnt_"+v+".png"))
	}
	assert.FileExists(t, plotPath)
	assert.Contains(t, stdout.String(), "raw: 40x")
	assert.Contains(t, stdout.String(), "conditioned: 40x")
	assert.Contains(t, stdout.String(), "input: n=225")

	var history bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-db", dbPath, "-history", "10"}, &history, io.Discard))
	lines := strings.Split(strings.TrimSpace(history.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, history.String(), "mnt_raw.ppm")
	assert.Contains(t, history.String(), "mnt_conditioned.ppm")
}

func TestRun_MissingInput(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	err := run(context.Background(), []string{
		"-out", filepath.Join(dir, "x.ppm"),
		filepath.Join(dir, "missing.txt"), "10",
	}, io.Discard, io.Discard)
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "x.ppm"))
}
