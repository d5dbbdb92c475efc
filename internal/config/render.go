package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/relief/internal/render/hillshade"
	"github.com/banshee-data/relief/internal/render/raster"
	"github.com/banshee-data/relief/internal/terrain/condition"
	"github.com/banshee-data/relief/internal/terrain/project"
)

// DefaultConfigPath is the path to the canonical render defaults file.
const DefaultConfigPath = "config/render.defaults.json"

// RenderConfig holds every tunable of a relief run. Nil fields fall back
// to the defaults returned by the Get* accessors, so partial files are
// safe.
type RenderConfig struct {
	// Spatial index
	IndexNX *int `json:"index_nx,omitempty"`
	IndexNY *int `json:"index_ny,omitempty"`

	// Conditioner
	GridScale      *float64 `json:"grid_scale,omitempty"`
	FillIterations *int     `json:"fill_iterations,omitempty"`
	SigmaPx        *float64 `json:"sigma_px,omitempty"`
	SampleStep     *int     `json:"sample_step,omitempty"`
	Pow2Grid       *bool    `json:"pow2_grid,omitempty"`
	MinGridSize    *int     `json:"min_grid_size,omitempty"`

	// Hillshade
	Hillshade      *bool    `json:"hillshade,omitempty"`
	AzimuthDeg     *float64 `json:"azimuth_deg,omitempty"`
	AltitudeDeg    *float64 `json:"altitude_deg,omitempty"`
	HillshadeGamma *float64 `json:"hillshade_gamma,omitempty"`

	// Rasterizer
	ShadeFloor *float64 `json:"shade_floor,omitempty"`
	Workers    *int     `json:"workers,omitempty"`

	// Colour
	PalettePath *string  `json:"palette_path,omitempty"` // empty selects the built-in Haxby gradient
	ZMin        *float64 `json:"z_min,omitempty"`        // unset uses the dataset minimum
	ZMax        *float64 `json:"z_max,omitempty"`        // unset uses the dataset maximum

	// Projection
	Projection *string `json:"projection,omitempty"` // proj4 destination
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyRenderConfig returns a RenderConfig with all fields set to nil.
func EmptyRenderConfig() *RenderConfig {
	return &RenderConfig{}
}

// LoadRenderConfig loads a RenderConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadRenderConfig(path string) (*RenderConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyRenderConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *RenderConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/render/raster/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadRenderConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *RenderConfig) Validate() error {
	if c.IndexNX != nil && *c.IndexNX < 1 {
		return fmt.Errorf("index_nx must be at least 1, got %d", *c.IndexNX)
	}
	if c.IndexNY != nil && *c.IndexNY < 1 {
		return fmt.Errorf("index_ny must be at least 1, got %d", *c.IndexNY)
	}
	if c.GridScale != nil && !(*c.GridScale > 0) {
		return fmt.Errorf("grid_scale must be positive, got %f", *c.GridScale)
	}
	if c.FillIterations != nil && *c.FillIterations < 0 {
		return fmt.Errorf("fill_iterations must be non-negative, got %d", *c.FillIterations)
	}
	if c.SampleStep != nil && *c.SampleStep < 1 {
		return fmt.Errorf("sample_step must be at least 1, got %d", *c.SampleStep)
	}
	if c.MinGridSize != nil && *c.MinGridSize < 1 {
		return fmt.Errorf("min_grid_size must be at least 1, got %d", *c.MinGridSize)
	}
	if c.AltitudeDeg != nil && (*c.AltitudeDeg < 0 || *c.AltitudeDeg > 90) {
		return fmt.Errorf("altitude_deg must be between 0 and 90, got %f", *c.AltitudeDeg)
	}
	if c.HillshadeGamma != nil && !(*c.HillshadeGamma > 0) {
		return fmt.Errorf("hillshade_gamma must be positive, got %f", *c.HillshadeGamma)
	}
	if c.ShadeFloor != nil && (*c.ShadeFloor < 0 || *c.ShadeFloor > 1) {
		return fmt.Errorf("shade_floor must be between 0 and 1, got %f", *c.ShadeFloor)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.ZMin != nil && c.ZMax != nil && *c.ZMax < *c.ZMin {
		return fmt.Errorf("z_max (%f) must not be below z_min (%f)", *c.ZMax, *c.ZMin)
	}
	return nil
}

// GetIndexNX returns the index_nx value or the default.
func (c *RenderConfig) GetIndexNX() int {
	if c.IndexNX == nil {
		return 1000
	}
	return *c.IndexNX
}

// GetIndexNY returns the index_ny value or the default.
func (c *RenderConfig) GetIndexNY() int {
	if c.IndexNY == nil {
		return 1000
	}
	return *c.IndexNY
}

// GetGridScale returns the grid_scale value or the default.
func (c *RenderConfig) GetGridScale() float64 {
	if c.GridScale == nil {
		return 1.0
	}
	return *c.GridScale
}

// GetFillIterations returns the fill_iterations value or the default.
func (c *RenderConfig) GetFillIterations() int {
	if c.FillIterations == nil {
		return 4
	}
	return *c.FillIterations
}

// GetSigmaPx returns the sigma_px value or the default.
func (c *RenderConfig) GetSigmaPx() float64 {
	if c.SigmaPx == nil {
		return 2.0
	}
	return *c.SigmaPx
}

// GetSampleStep returns the sample_step value or the default.
func (c *RenderConfig) GetSampleStep() int {
	if c.SampleStep == nil {
		return 2
	}
	return *c.SampleStep
}

// GetPow2Grid returns the pow2_grid value or the default.
func (c *RenderConfig) GetPow2Grid() bool {
	if c.Pow2Grid == nil {
		return true
	}
	return *c.Pow2Grid
}

// GetMinGridSize returns the min_grid_size value or the default.
func (c *RenderConfig) GetMinGridSize() int {
	if c.MinGridSize == nil {
		return 16
	}
	return *c.MinGridSize
}

// GetHillshade returns the hillshade value or the default.
func (c *RenderConfig) GetHillshade() bool {
	if c.Hillshade == nil {
		return false
	}
	return *c.Hillshade
}

// GetAzimuthDeg returns the azimuth_deg value or the default.
func (c *RenderConfig) GetAzimuthDeg() float64 {
	if c.AzimuthDeg == nil {
		return 315
	}
	return *c.AzimuthDeg
}

// GetAltitudeDeg returns the altitude_deg value or the default.
func (c *RenderConfig) GetAltitudeDeg() float64 {
	if c.AltitudeDeg == nil {
		return 45
	}
	return *c.AltitudeDeg
}

// GetHillshadeGamma returns the hillshade_gamma value or the default.
func (c *RenderConfig) GetHillshadeGamma() float64 {
	if c.HillshadeGamma == nil {
		return 0.9
	}
	return *c.HillshadeGamma
}

// GetShadeFloor returns the shade_floor value or the default.
func (c *RenderConfig) GetShadeFloor() float64 {
	if c.ShadeFloor == nil {
		return 0.35
	}
	return *c.ShadeFloor
}

// GetWorkers returns the workers value or the default (0, one per CPU).
func (c *RenderConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetPalettePath returns the palette_path value or the default.
func (c *RenderConfig) GetPalettePath() string {
	if c.PalettePath == nil {
		return ""
	}
	return *c.PalettePath
}

// GetProjection returns the projection value or the default.
func (c *RenderConfig) GetProjection() string {
	if c.Projection == nil || *c.Projection == "" {
		return project.Lambert93
	}
	return *c.Projection
}

// ColorWindow returns the elevation window for the colour map. Unset
// bounds take the supplied data range.
func (c *RenderConfig) ColorWindow(dataMin, dataMax float64) (zmin, zmax float64) {
	zmin, zmax = dataMin, dataMax
	if c.ZMin != nil {
		zmin = *c.ZMin
	}
	if c.ZMax != nil {
		zmax = *c.ZMax
	}
	return zmin, zmax
}

// ConditionerParams builds conditioner settings from the config.
func (c *RenderConfig) ConditionerParams() condition.Params {
	return condition.Params{
		GridScale:      c.GetGridScale(),
		FillIterations: c.GetFillIterations(),
		SigmaPx:        c.GetSigmaPx(),
		SampleStep:     c.GetSampleStep(),
		UsePow2Grid:    c.GetPow2Grid(),
		MinGridSize:    c.GetMinGridSize(),
	}
}

// HillshadeParams builds light settings from the config.
func (c *RenderConfig) HillshadeParams() hillshade.Params {
	return hillshade.Params{
		Enabled:     c.GetHillshade(),
		AzimuthDeg:  c.GetAzimuthDeg(),
		AltitudeDeg: c.GetAltitudeDeg(),
		Gamma:       c.GetHillshadeGamma(),
	}
}

// RasterOptions builds rasterizer settings from the config.
func (c *RenderConfig) RasterOptions() raster.Options {
	return raster.Options{
		ShadeFloor: c.GetShadeFloor(),
		Workers:    c.GetWorkers(),
	}
}

// WithHillshade returns a copy of c with hillshading switched on or off.
func (c *RenderConfig) WithHillshade(on bool) *RenderConfig {
	out := *c
	out.Hillshade = ptrBool(on)
	return &out
}

// WithPalette returns a copy of c using the palette file at path.
func (c *RenderConfig) WithPalette(path string) *RenderConfig {
	out := *c
	out.PalettePath = ptrString(path)
	return &out
}

// WithWorkers returns a copy of c with the given worker bound.
func (c *RenderConfig) WithWorkers(n int) *RenderConfig {
	out := *c
	out.Workers = ptrInt(n)
	return &out
}

// WithWindow returns a copy of c with a fixed colour window.
func (c *RenderConfig) WithWindow(zmin, zmax float64) *RenderConfig {
	out := *c
	out.ZMin, out.ZMax = ptrFloat64(zmin), ptrFloat64(zmax)
	return &out
}
