package config

import (
	"slices"

	"github.com/brunoga/deep"
)

func preset(mutate func(*Config)) *Config {
	c := DefaultConfig()
	mutate(c)
	return c
}

var Presets = map[string]*Config{
	"paraglider": DefaultConfig(),
	"hang-glider": preset(func(c *Config) {
		c.Aircraft = AircraftConfig{Mass: 110, PlanformArea: 14, MinDrag: 0.03, MaxLiftOverDrag: 13, MinLift: 0.1, MaxLift: 1.3}
		c.Initial = InitialConfig{VelNorth: 14, VelDown: 1.2, Altitude: 1500}
	}),
	"sailplane": preset(func(c *Config) {
		c.Aircraft = AircraftConfig{Mass: 450, PlanformArea: 10.5, MinDrag: 0.012, MaxLiftOverDrag: 45, MinLift: 0.1, MaxLift: 1.4}
		c.Initial = InitialConfig{VelNorth: 28, VelDown: 0.8, Altitude: 2000}
		c.Simulation.Horizon = 300
	}),
	"sailplane-endurance": preset(func(c *Config) {
		c.Aircraft = AircraftConfig{Mass: 450, PlanformArea: 10.5, MinDrag: 0.012, MaxLiftOverDrag: 45, MinLift: 0.1, MaxLift: 1.4}
		c.Initial = InitialConfig{VelNorth: 28, VelDown: 0.8, Altitude: 2000}
		c.Simulation.Horizon = 300
		c.Objective = "duration"
	}),
	"quick": preset(func(c *Config) {
		c.Simulation.Horizon = 30
		c.Search.PopulationSize = 40
		c.Search.EliteCount = 4
		c.Search.NewRandomCount = 4
		c.Search.GenerationsPerLevel = 40
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return deep.MustCopy(p)
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
