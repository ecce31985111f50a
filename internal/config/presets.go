package config

import "sort"

// Presets adjust the default configuration for common scenarios on the
// built-in basin.
var Presets = map[string]func(c *Config){
	"calm": func(c *Config) {
		c.Forcing = ForcingConfig{}
		c.Initial.Kind = "rest"
		c.Time.Duration = 3600
	},
	"impulse": func(c *Config) {
		c.Forcing = ForcingConfig{}
		c.Initial.Kind = "impulse"
		c.Initial.Amplitude = 1
		c.Time.Duration = 2 * 3600
		c.Output.AnimateEvery = 10
	},
	"seiche": func(c *Config) {
		c.Forcing = ForcingConfig{}
		c.Initial.Kind = "tilt"
		c.Initial.Amplitude = 0.3
		c.Physics.QuadraticDrag = 0.0005
		c.Time.Duration = 12 * 3600
		c.Gauge = &GaugeConfig{I: 4, J: -1}
	},
	"wind": func(c *Config) {
		c.Initial.Kind = "rest"
		c.Forcing = ForcingConfig{WindStressX: 0.1, Ramp: 3600}
		c.Output.Field = "speed"
	},
	"storm": func(c *Config) {
		c.Initial.Kind = "rest"
		c.Forcing = ForcingConfig{WindStressX: 0.8, WindStressY: 0.4, Ramp: 1800}
		c.Time.Dt = 15
		c.Time.Duration = 9 * 3600
		c.Output.Field = "speed"
		c.Output.AnimateEvery = 20
		c.Gauge = &GaugeConfig{I: 44, J: -1}
	},
}

func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
