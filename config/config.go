// Package config loads world configuration from YAML files, so simulation
// tuning lives in data instead of code.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/akmonengine/anvil"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// AutoDisable configures the at-rest detection policy.
type AutoDisable struct {
	Enabled          bool    `yaml:"enabled"`
	LinearThreshold  float64 `yaml:"linear_threshold"`
	AngularThreshold float64 `yaml:"angular_threshold"`
	Steps            int     `yaml:"steps"`
}

// Space configures the broad phase.
type Space struct {
	// Kind selects the partitioning strategy: "simple" or "hash".
	Kind     string  `yaml:"kind"`
	CellSize float64 `yaml:"cell_size"`
	Cells    int     `yaml:"cells"`
}

// Config is the YAML representation of a world's tuning parameters.
type Config struct {
	Gravity [3]float64 `yaml:"gravity"`

	ERP          float64 `yaml:"erp"`
	CFM          float64 `yaml:"cfm"`
	SurfaceLayer float64 `yaml:"surface_layer"`

	// MaxCorrectingVel of zero means unclamped.
	MaxCorrectingVel float64 `yaml:"max_correcting_vel"`

	Iterations  int `yaml:"iterations"`
	MaxContacts int `yaml:"max_contacts"`

	AutoDisable AutoDisable `yaml:"auto_disable"`
	Space       Space       `yaml:"space"`
}

// Default returns the configuration matching a freshly constructed world.
func Default() Config {
	return Config{
		Gravity:      [3]float64{0, -9.81, 0},
		ERP:          0.2,
		CFM:          1e-10,
		SurfaceLayer: 0.0,
		Iterations:   20,
		MaxContacts:  10,
		AutoDisable: AutoDisable{
			Enabled:          false,
			LinearThreshold:  0.01,
			AngularThreshold: 0.01,
			Steps:            10,
		},
		Space: Space{
			Kind: "simple",
		},
	}
}

// Load reads and parses a YAML configuration file. Fields absent from the
// file keep their Default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return cfg, nil
}

// World builds a world from the configuration, validating it first.
func (c Config) World() (*anvil.World, error) {
	space, err := c.space()
	if err != nil {
		return nil, err
	}

	world := anvil.NewWorld(space)
	world.Gravity = mgl64.Vec3{c.Gravity[0], c.Gravity[1], c.Gravity[2]}
	world.ERP = c.ERP
	world.CFM = c.CFM
	world.SurfaceLayer = c.SurfaceLayer
	world.Iterations = c.Iterations
	world.MaxContacts = c.MaxContacts

	if c.MaxCorrectingVel > 0 {
		world.MaxCorrectingVel = c.MaxCorrectingVel
	} else {
		world.MaxCorrectingVel = math.Inf(1)
	}

	world.AutoDisable = c.AutoDisable.Enabled
	world.AutoDisableLinear = c.AutoDisable.LinearThreshold
	world.AutoDisableAngular = c.AutoDisable.AngularThreshold
	world.AutoDisableSteps = c.AutoDisable.Steps

	if err := world.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return world, nil
}

func (c Config) space() (anvil.Space, error) {
	switch c.Space.Kind {
	case "", "simple":
		return anvil.NewSimpleSpace(), nil
	case "hash":
		cellSize := c.Space.CellSize
		if cellSize <= 0 {
			return nil, fmt.Errorf("%w: hash space cell size %v is not positive", ErrInvalidConfig, cellSize)
		}
		cells := c.Space.Cells
		if cells <= 0 {
			cells = 1024
		}
		return anvil.NewHashSpace(cellSize, cells), nil
	default:
		return nil, fmt.Errorf("%w: unknown space kind %q", ErrInvalidConfig, c.Space.Kind)
	}
}
