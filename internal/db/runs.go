package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned by GetRenderRun for an unknown id.
var ErrRunNotFound = errors.New("render run not found")

// RenderRun is one recorded rendering.
type RenderRun struct {
	RunID       string
	InputPath   string
	Conditioned bool
	Hillshade   bool
	Width       int
	Height      int
	InputPoints int
	MeshPoints  int
	Triangles   int
	GridWidth   int // conditioner grid, zero when not conditioned
	GridHeight  int
	ZMin, ZMax  float64
	OutputPath  string
	Duration    time.Duration
	CreatedAt   time.Time
}

// InsertRenderRun stores run. An empty RunID is replaced with a fresh
// UUID, which is returned.
func (db *DB) InsertRenderRun(ctx context.Context, run *RenderRun) (string, error) {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO render_runs (
			run_id, input_path, conditioned, hillshade, width, height,
			input_points, mesh_points, triangles, grid_width, grid_height,
			z_min, z_max, output_path, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.InputPath, run.Conditioned, run.Hillshade, run.Width, run.Height,
		run.InputPoints, run.MeshPoints, run.Triangles, run.GridWidth, run.GridHeight,
		run.ZMin, run.ZMax, run.OutputPath, run.Duration.Milliseconds(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert render run: %w", err)
	}
	return run.RunID, nil
}

const selectRuns = `SELECT
	run_id, input_path, conditioned, hillshade, width, height,
	input_points, mesh_points, triangles, grid_width, grid_height,
	z_min, z_max, output_path, duration_ms, created_at
FROM render_runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (RenderRun, error) {
	var r RenderRun
	var durationMs int64
	err := s.Scan(
		&r.RunID, &r.InputPath, &r.Conditioned, &r.Hillshade, &r.Width, &r.Height,
		&r.InputPoints, &r.MeshPoints, &r.Triangles, &r.GridWidth, &r.GridHeight,
		&r.ZMin, &r.ZMax, &r.OutputPath, &durationMs, &r.CreatedAt,
	)
	r.Duration = time.Duration(durationMs) * time.Millisecond
	return r, err
}

// GetRenderRun returns the run with the given id.
func (db *DB) GetRenderRun(ctx context.Context, runID string) (RenderRun, error) {
	r, err := scanRun(db.QueryRowContext(ctx, selectRuns+` WHERE run_id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return RenderRun{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return RenderRun{}, fmt.Errorf("failed to read render run: %w", err)
	}
	return r, nil
}

// ListRenderRuns returns up to limit runs, newest first. A non-positive
// limit returns every run.
func (db *DB) ListRenderRuns(ctx context.Context, limit int) ([]RenderRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx, selectRuns+` ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list render runs: %w", err)
	}
	defer rows.Close()

	var runs []RenderRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan render run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
