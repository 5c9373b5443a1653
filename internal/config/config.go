// Package config loads the planner configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/piwi3910/plateplan/internal/model"
	"github.com/piwi3910/plateplan/internal/robotfile"
	"gopkg.in/yaml.v3"
)

// Output formats written per tile.
const (
	FormatCSV    = "csv"
	FormatXLSX   = "xlsx"
	FormatPDF    = "pdf"
	FormatLabels = "labels"
	FormatDXF    = "dxf"
	FormatRobot  = "robot"
)

// KnownFormats lists every output format in the order they are written.
var KnownFormats = []string{FormatCSV, FormatXLSX, FormatPDF, FormatLabels, FormatDXF, FormatRobot}

// ErrInvalid is returned when a configuration value is out of range.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full planner configuration.
type Config struct {
	Geometry  model.PlateGeometry     `yaml:"geometry" json:"geometry"`
	Scheduler model.SchedulerSettings `yaml:"scheduler" json:"scheduler"`
	Allocator model.AllocatorSettings `yaml:"allocator" json:"allocator"`
	Robot     RobotConfig             `yaml:"robot" json:"robot"`
	Output    OutputConfig            `yaml:"output" json:"output"`
	Survey    SurveyConfig            `yaml:"survey" json:"survey"`
	LogLevel  string                  `yaml:"log_level" json:"log_level"`
}

// RobotConfig selects the controller dialect and head moves.
type RobotConfig struct {
	Profile      string  `yaml:"profile" json:"profile"`
	ProfilesFile string  `yaml:"profiles_file,omitempty" json:"profiles_file,omitempty"`
	SafeZ        float64 `yaml:"safe_z" json:"safe_z"`
	PlaceZ       float64 `yaml:"place_z" json:"place_z"`
	FeedRate     float64 `yaml:"feed_rate" json:"feed_rate"`
}

// Settings converts the robot section for the program generator.
func (r RobotConfig) Settings() robotfile.Settings {
	return robotfile.Settings{SafeZ: r.SafeZ, PlaceZ: r.PlaceZ, FeedRate: r.FeedRate}
}

// OutputConfig controls where and what is written for each tile.
type OutputConfig struct {
	Dir     string   `yaml:"dir" json:"dir"`
	Formats []string `yaml:"formats" json:"formats"`
	// DXFPickupAreas adds the pickup rectangles to the DXF drawing.
	DXFPickupAreas bool `yaml:"dxf_pickup_areas" json:"dxf_pickup_areas"`
}

// Wants reports whether format is enabled.
func (o OutputConfig) Wants(format string) bool {
	return slices.Contains(o.Formats, format)
}

// SurveyConfig locates the persistent survey state.
type SurveyConfig struct {
	StateDir string `yaml:"state_dir" json:"state_dir"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	rs := robotfile.DefaultSettings()
	return Config{
		Geometry:  model.DefaultGeometry(),
		Scheduler: model.DefaultSchedulerSettings(),
		Allocator: model.DefaultAllocatorSettings(),
		Robot: RobotConfig{
			Profile:  "Generic",
			SafeZ:    rs.SafeZ,
			PlaceZ:   rs.PlaceZ,
			FeedRate: rs.FeedRate,
		},
		Output: OutputConfig{
			Dir:            "out",
			Formats:        []string{FormatCSV, FormatXLSX, FormatPDF, FormatRobot},
			DXFPickupAreas: true,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML file over the defaults. An empty path returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	for i, f := range cfg.Output.Formats {
		cfg.Output.Formats[i] = strings.ToLower(strings.TrimSpace(f))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating parent directories.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks ranges and names.
func (c Config) Validate() error {
	var errs []error
	positive := func(name string, v float64) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%w: %s must be positive, got %g", ErrInvalid, name, v))
		}
	}

	g := c.Geometry
	positive("geometry.plate_radius", g.PlateRadius)
	positive("geometry.circular_radius", g.CircularRadius)
	positive("geometry.rectangular_length", g.RectangularLength)
	positive("geometry.rectangular_width", g.RectangularWidth)
	positive("geometry.gripper_arm_length", g.GripperArmLength)
	positive("geometry.gripper_arm_width", g.GripperArmWidth)
	positive("geometry.pair_distance", g.PairDistance)
	if g.RectangularWidth > g.RectangularLength {
		errs = append(errs, fmt.Errorf("%w: geometry.rectangular_width exceeds rectangular_length", ErrInvalid))
	}

	if c.Scheduler.MaxIterations < 1 {
		errs = append(errs, fmt.Errorf("%w: scheduler.max_iterations must be at least 1", ErrInvalid))
	}
	if c.Allocator.LargeBundleMinRadius < 0 {
		errs = append(errs, fmt.Errorf("%w: allocator.large_bundle_min_radius must not be negative", ErrInvalid))
	}

	positive("robot.safe_z", c.Robot.SafeZ)
	positive("robot.feed_rate", c.Robot.FeedRate)
	if c.Robot.PlaceZ >= c.Robot.SafeZ {
		errs = append(errs, fmt.Errorf("%w: robot.place_z must be below safe_z", ErrInvalid))
	}
	if c.Robot.ProfilesFile == "" && !robotfile.HasProfile(c.Robot.Profile) {
		errs = append(errs, fmt.Errorf("%w: unknown robot profile %q (have %s)",
			ErrInvalid, c.Robot.Profile, strings.Join(robotfile.ProfileNames(), ", ")))
	}

	for _, f := range c.Output.Formats {
		if !slices.Contains(KnownFormats, f) {
			errs = append(errs, fmt.Errorf("%w: unknown output format %q", ErrInvalid, f))
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel))
	}
	return errors.Join(errs...)
}
