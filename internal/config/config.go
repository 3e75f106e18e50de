// Package config loads mudra settings from a YAML file and command line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/mudra/internal/fitness"
	"github.com/ayusman/mudra/internal/optimizer"
	"github.com/ayusman/mudra/internal/pose"
	"github.com/ayusman/mudra/internal/raster"
	"github.com/ayusman/mudra/internal/skeleton"
)

// DefaultListen is the HTTP address used when none is configured.
const DefaultListen = ":8080"

// DefaultFPS is the optimizer step rate used when none is configured.
const DefaultFPS = 30

// Config holds every setting of a mudra session.
type Config struct {
	// Paths
	DataDir    string `yaml:"data_dir"`
	Model      string `yaml:"model"`
	Reference  string `yaml:"reference"`
	SeedPose   string `yaml:"seed_pose"`
	OutputPose string `yaml:"output_pose"`
	Database   string `yaml:"database"`
	PluginDir  string `yaml:"plugin_dir"`
	WebDir     string `yaml:"web_dir"`

	Listen string `yaml:"listen"`
	FPS    int    `yaml:"fps"`

	Render     Render     `yaml:"render"`
	Evaluator  Evaluator  `yaml:"evaluator"`
	Optimizer  Optimizer  `yaml:"optimizer"`
	Parameters []pose.Def `yaml:"parameters"`
	HandJoints []string   `yaml:"hand_joints"`
}

// Render configures the view the model is drawn from.
type Render struct {
	raster.Camera `yaml:",inline"`

	// Plugin names an external renderer. Empty uses the built-in rasterizer.
	Plugin string `yaml:"plugin"`
}

// Evaluator configures how renders are compared with the reference.
type Evaluator struct {
	Mode string `yaml:"mode"`
	// Threshold binarizes the reference image. Zero keeps raw values.
	Threshold float64 `yaml:"threshold"`
}

// Optimizer configures the search.
type Optimizer struct {
	ResetInterval int     `yaml:"reset_interval"`
	Mode          string  `yaml:"mode"`
	Exponent      float64 `yaml:"exponent"`
	Seed          int64   `yaml:"seed"`
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	DataDir   string
	Model     string
	Reference string
	SeedPose  string
	Output    string
	Listen    string
	Plugin    string
	FPS       int
	Seed      int64
}

// Load reads a YAML config file. Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve applies flag overrides and fills empty fields with defaults.
// Relative paths are resolved against the data directory.
func (c *Config) Resolve(flags Flags) {
	if flags.DataDir != "" {
		c.DataDir = flags.DataDir
	}
	if flags.Model != "" {
		c.Model = flags.Model
	}
	if flags.Reference != "" {
		c.Reference = flags.Reference
	}
	if flags.SeedPose != "" {
		c.SeedPose = flags.SeedPose
	}
	if flags.Output != "" {
		c.OutputPose = flags.Output
	}
	if flags.Listen != "" {
		c.Listen = flags.Listen
	}
	if flags.Plugin != "" {
		c.Render.Plugin = flags.Plugin
	}
	if flags.FPS > 0 {
		c.FPS = flags.FPS
	}
	if flags.Seed != 0 {
		c.Optimizer.Seed = flags.Seed
	}

	if c.DataDir == "" {
		c.DataDir = defaultDataDir()
	}
	if c.Database == "" {
		c.Database = "mudra.db"
	}
	if c.OutputPose == "" {
		c.OutputPose = "best.pose"
	}
	if c.PluginDir == "" {
		c.PluginDir = "plugins"
	}
	c.Database = c.abs(c.Database)
	c.OutputPose = c.abs(c.OutputPose)
	c.PluginDir = c.abs(c.PluginDir)
	if c.Model != "" {
		c.Model = c.abs(c.Model)
	}
	if c.Reference != "" {
		c.Reference = c.abs(c.Reference)
	}
	if c.SeedPose != "" {
		c.SeedPose = c.abs(c.SeedPose)
	}

	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.FPS <= 0 {
		c.FPS = DefaultFPS
	}

	cam := raster.DefaultCamera()
	if c.Render.Width <= 0 {
		c.Render.Width = cam.Width
	}
	if c.Render.Height <= 0 {
		c.Render.Height = cam.Height
	}
	if c.Render.Scale <= 0 {
		c.Render.Scale = cam.Scale
	}

	def := optimizer.DefaultConfig()
	if c.Optimizer.ResetInterval <= 0 {
		c.Optimizer.ResetInterval = def.ResetInterval
	}
	if c.Optimizer.Exponent <= 0 {
		c.Optimizer.Exponent = def.Exponent
	}
	if c.Optimizer.Seed == 0 {
		c.Optimizer.Seed = def.Seed
	}

	if len(c.Parameters) == 0 {
		c.Parameters = pose.RightHand()
	}
}

func (c *Config) abs(p string) string {
	if filepath.IsAbs(p) || c.DataDir == "" {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

// defaultDataDir returns ~/.mudra, or the working directory if there is no home.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".mudra")
}

// Validate checks the settings a session cannot start without.
func (c *Config) Validate() error {
	if c.Reference == "" {
		return fmt.Errorf("config: reference image is required")
	}
	if err := pose.Validate(c.Parameters); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.EvaluatorMode(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.OptimizerConfig(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// EvaluatorMode parses the evaluator mode.
func (c *Config) EvaluatorMode() (fitness.Mode, error) {
	return fitness.ParseMode(c.Evaluator.Mode)
}

// OptimizerConfig converts the optimizer section.
func (c *Config) OptimizerConfig() (optimizer.Config, error) {
	mode, err := optimizer.ParseMode(c.Optimizer.Mode)
	if err != nil {
		return optimizer.Config{}, err
	}
	return optimizer.Config{
		ResetInterval: c.Optimizer.ResetInterval,
		Mode:          mode,
		Exponent:      c.Optimizer.Exponent,
		Seed:          c.Optimizer.Seed,
	}, nil
}

// Tagger returns the function that marks hand joints. An explicit joint list
// replaces the right hand naming convention.
func (c *Config) Tagger() func(string) skeleton.Tag {
	if len(c.HandJoints) == 0 {
		return skeleton.TagRightHand
	}
	return skeleton.TagNames(skeleton.TagHand|skeleton.TagControllable, c.HandJoints...)
}
