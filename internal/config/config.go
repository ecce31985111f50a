package config

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/oceansim/internal/analysis"
	"github.com/san-kum/oceansim/internal/bathymetry"
	"github.com/san-kum/oceansim/internal/dynamo"
	"github.com/san-kum/oceansim/internal/mesh"
	"github.com/san-kum/oceansim/internal/physics"
	"github.com/san-kum/oceansim/internal/render"
)

const (
	DefaultDt           = 20.0
	DefaultDuration     = 6 * 3600.0
	DefaultCourantLimit = 0.8
	DefaultMaxElevation = 50.0
	DefaultMaxSpeed     = 20.0
	DefaultScale        = 8
	DefaultField        = analysis.Elevation
)

type Config struct {
	Grid        GridConfig      `yaml:"grid"`
	Time        TimeConfig      `yaml:"time"`
	Physics     physics.Params  `yaml:"physics"`
	Forcing     ForcingConfig   `yaml:"forcing"`
	Initial     physics.Initial `yaml:"initial"`
	Output      OutputConfig    `yaml:"output"`
	Stability   StabilityConfig `yaml:"stability"`
	Gauge       *GaugeConfig    `yaml:"gauge,omitempty"`
	RecordEvery int             `yaml:"record_every"`
	Workers     int             `yaml:"workers"`
}

type GridConfig struct {
	Path      string               `yaml:"path"`
	Variables bathymetry.Variables `yaml:"variables"`
	Region    mesh.Bounds          `yaml:"region"`
	Coarsen   int                  `yaml:"coarsen"`
}

type TimeConfig struct {
	Dt           float64       `yaml:"dt"`
	Duration     float64       `yaml:"duration"`
	Steps        int           `yaml:"steps"`
	MaxWallClock time.Duration `yaml:"max_wall_clock"`
}

type ForcingConfig struct {
	WindStressX float64 `yaml:"wind_stress_x"`
	WindStressY float64 `yaml:"wind_stress_y"`
	Ramp        float64 `yaml:"ramp"`
}

type OutputConfig struct {
	Field         string  `yaml:"field"`
	Step          int     `yaml:"step"`
	Palette       string  `yaml:"palette"`
	Min           float64 `yaml:"min"`
	Max           float64 `yaml:"max"`
	Scale         int     `yaml:"scale"`
	Path          string  `yaml:"path"`
	AnimateEvery  int     `yaml:"animate_every"`
	AnimationPath string  `yaml:"animation_path"`
}

type StabilityConfig struct {
	CourantLimit float64 `yaml:"courant_limit"`
	MaxElevation float64 `yaml:"max_elevation"`
	MaxSpeed     float64 `yaml:"max_speed"`
}

type GaugeConfig struct {
	I int `yaml:"i"`
	J int `yaml:"j"`
}

func DefaultConfig() *Config {
	return &Config{
		Grid: GridConfig{
			Coarsen: 1,
		},
		Time: TimeConfig{
			Dt:       DefaultDt,
			Duration: DefaultDuration,
		},
		Physics: physics.DefaultParams(),
		Forcing: ForcingConfig{
			WindStressX: 0.1,
			Ramp:        3600,
		},
		Initial: physics.Initial{
			Kind:      physics.Gaussian,
			Amplitude: 0.5,
			Radius:    6000,
			I:         -1,
			J:         -1,
		},
		Output: OutputConfig{
			Field: DefaultField,
			Step:  -1,
			Scale: DefaultScale,
		},
		Stability: StabilityConfig{
			CourantLimit: DefaultCourantLimit,
			MaxElevation: DefaultMaxElevation,
			MaxSpeed:     DefaultMaxSpeed,
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path on top of a copy of base; keys absent from the file
// keep their base values.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Clone() *Config {
	cp := *c
	if c.Gauge != nil {
		g := *c.Gauge
		cp.Gauge = &g
	}
	return &cp
}

// StepCount resolves the number of steps: Time.Steps when set, otherwise
// enough steps to cover Time.Duration.
func (c *Config) StepCount() int {
	if c.Time.Steps > 0 {
		return c.Time.Steps
	}
	if c.Time.Dt <= 0 || c.Time.Duration <= 0 {
		return 0
	}
	return int(math.Ceil(c.Time.Duration/c.Time.Dt - 1e-9))
}

func (c *Config) Wind() physics.Wind {
	return physics.Wind{
		StressX: c.Forcing.WindStressX,
		StressY: c.Forcing.WindStressY,
		Ramp:    c.Forcing.Ramp,
	}
}

// Validate performs the checks that need no mesh. The Courant check runs
// later against the built mesh.
func (c *Config) Validate() error {
	switch {
	case !(c.Time.Dt > 0) || math.IsInf(c.Time.Dt, 0):
		return dynamo.Invalidf("time.dt", "must be positive, got %g", c.Time.Dt)
	case c.Time.Steps < 0:
		return dynamo.Invalidf("time.steps", "must not be negative, got %d", c.Time.Steps)
	case c.StepCount() <= 0:
		return dynamo.Invalidf("time.duration", "need a positive duration or step count")
	case c.Time.MaxWallClock < 0:
		return dynamo.Invalidf("time.max_wall_clock", "must not be negative")
	case !(c.Physics.Gravity > 0):
		return dynamo.Invalidf("physics.gravity", "must be positive, got %g", c.Physics.Gravity)
	case !(c.Physics.WaterDensity > 0):
		return dynamo.Invalidf("physics.water_density", "must be positive, got %g", c.Physics.WaterDensity)
	case c.Physics.LinearDrag < 0:
		return dynamo.Invalidf("physics.linear_drag", "must not be negative, got %g", c.Physics.LinearDrag)
	case c.Physics.QuadraticDrag < 0:
		return dynamo.Invalidf("physics.quadratic_drag", "must not be negative, got %g", c.Physics.QuadraticDrag)
	case c.Physics.OpenRelaxation < 0 || c.Physics.OpenRelaxation > 1:
		return dynamo.Invalidf("physics.open_relaxation", "must be within [0,1], got %g", c.Physics.OpenRelaxation)
	case !physics.KnownInitial(c.Initial.Kind):
		return dynamo.Invalidf("initial.kind", "unknown kind %q (known: %s)", c.Initial.Kind, strings.Join(physics.InitialKinds, ", "))
	case c.Grid.Coarsen < 1:
		return dynamo.Invalidf("grid.coarsen", "must be at least 1, got %d", c.Grid.Coarsen)
	case c.Output.Scale < 1:
		return dynamo.Invalidf("output.scale", "must be at least 1, got %d", c.Output.Scale)
	case c.Output.AnimateEvery < 0:
		return dynamo.Invalidf("output.animate_every", "must not be negative")
	case c.RecordEvery < 0:
		return dynamo.Invalidf("record_every", "must not be negative")
	case !(c.Stability.CourantLimit > 0):
		return dynamo.Invalidf("stability.courant_limit", "must be positive, got %g", c.Stability.CourantLimit)
	case c.Stability.MaxElevation < 0 || c.Stability.MaxSpeed < 0:
		return dynamo.Invalidf("stability", "bounds must not be negative")
	}

	if _, ok := analysis.Lookup(c.Output.Field); !ok {
		return dynamo.Invalidf("output.field", "unknown field %q", c.Output.Field)
	}
	if c.Output.Palette != "" {
		if _, ok := render.LookupPalette(c.Output.Palette); !ok {
			return dynamo.Invalidf("output.palette", "unknown palette %q (known: %s)",
				c.Output.Palette, strings.Join(render.PaletteNames(), ", "))
		}
	}
	if c.Output.Step > c.StepCount() {
		return dynamo.Invalidf("output.step", "step %d is past the last step %d", c.Output.Step, c.StepCount())
	}
	return nil
}

var params = map[string]func(c *Config) *float64{
	"time.dt":                 func(c *Config) *float64 { return &c.Time.Dt },
	"time.duration":           func(c *Config) *float64 { return &c.Time.Duration },
	"physics.linear_drag":     func(c *Config) *float64 { return &c.Physics.LinearDrag },
	"physics.quadratic_drag":  func(c *Config) *float64 { return &c.Physics.QuadraticDrag },
	"physics.open_relaxation": func(c *Config) *float64 { return &c.Physics.OpenRelaxation },
	"forcing.wind_stress_x":   func(c *Config) *float64 { return &c.Forcing.WindStressX },
	"forcing.wind_stress_y":   func(c *Config) *float64 { return &c.Forcing.WindStressY },
	"forcing.ramp":            func(c *Config) *float64 { return &c.Forcing.Ramp },
	"initial.amplitude":       func(c *Config) *float64 { return &c.Initial.Amplitude },
	"initial.radius":          func(c *Config) *float64 { return &c.Initial.Radius },
	"stability.courant_limit": func(c *Config) *float64 { return &c.Stability.CourantLimit },
}

// SetParam sets a numeric setting by its dotted YAML key.
func (c *Config) SetParam(key string, v float64) error {
	p, ok := params[key]
	if !ok {
		return fmt.Errorf("config: unknown parameter %q", key)
	}
	*p(c) = v
	return nil
}

func (c *Config) GetParam(key string) (float64, error) {
	p, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("config: unknown parameter %q", key)
	}
	return *p(c), nil
}

func ParamKeys() []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
