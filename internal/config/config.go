package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/glideopt/internal/glide"
	"github.com/san-kum/glideopt/internal/optim"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMass            = 100.0
	DefaultPlanformArea    = 23.0
	DefaultMinDrag         = 0.025
	DefaultMaxLiftOverDrag = 9.0
	DefaultMinLift         = 0.1
	DefaultMaxLift         = 1.2
	DefaultHorizon         = 120.0
	DefaultAltitude        = 1000.0
	DefaultVelNorth        = 12.0
	DefaultVelDown         = 1.0
	DefaultObjective       = "distance"
	DefaultLogLevel        = "info"
)

type Config struct {
	Aircraft   AircraftConfig   `yaml:"aircraft" json:"aircraft"`
	Simulation SimulationConfig `yaml:"simulation" json:"simulation"`
	Initial    InitialConfig    `yaml:"initial" json:"initial"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Objective  string           `yaml:"objective" json:"objective"`
	Log        LogConfig        `yaml:"log" json:"-"`
}

type AircraftConfig struct {
	Mass            float64 `yaml:"mass" json:"mass"`
	PlanformArea    float64 `yaml:"planform_area" json:"planform_area"`
	MinDrag         float64 `yaml:"min_drag" json:"min_drag"`
	MaxLiftOverDrag float64 `yaml:"max_lift_over_drag" json:"max_lift_over_drag"`
	MinLift         float64 `yaml:"min_lift" json:"min_lift"`
	MaxLift         float64 `yaml:"max_lift" json:"max_lift"`
}

type SimulationConfig struct {
	Horizon float64 `yaml:"horizon" json:"horizon"`
	Step    float64 `yaml:"step" json:"step"`
	Floor   float64 `yaml:"floor" json:"floor"`
}

// InitialConfig is the starting velocity in north/east/down components.
type InitialConfig struct {
	VelNorth float64 `yaml:"vel_north" json:"vel_north"`
	VelEast  float64 `yaml:"vel_east" json:"vel_east"`
	VelDown  float64 `yaml:"vel_down" json:"vel_down"`
	Altitude float64 `yaml:"altitude" json:"altitude"`
}

type SearchConfig struct {
	PopulationSize      int     `yaml:"population_size" json:"population_size"`
	EliteCount          int     `yaml:"elite_count" json:"elite_count"`
	NewRandomCount      int     `yaml:"new_random_count" json:"new_random_count"`
	GenerationsPerLevel int     `yaml:"generations_per_level" json:"generations_per_level"`
	TournamentSize      int     `yaml:"tournament_size" json:"tournament_size"`
	MutationRate        float64 `yaml:"mutation_rate" json:"mutation_rate"`
	TruncationRate      float64 `yaml:"truncation_rate" json:"truncation_rate"`
	Workers             int     `yaml:"workers" json:"workers"`
	Seed                int64   `yaml:"seed" json:"seed"`
	CoarseOffset        int     `yaml:"coarse_offset" json:"coarse_offset"`
	FineOffset          int     `yaml:"fine_offset" json:"fine_offset"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

func DefaultConfig() *Config {
	s := optim.DefaultSettings()
	return &Config{
		Aircraft: AircraftConfig{
			Mass:            DefaultMass,
			PlanformArea:    DefaultPlanformArea,
			MinDrag:         DefaultMinDrag,
			MaxLiftOverDrag: DefaultMaxLiftOverDrag,
			MinLift:         DefaultMinLift,
			MaxLift:         DefaultMaxLift,
		},
		Simulation: SimulationConfig{
			Horizon: DefaultHorizon,
			Step:    glide.DefaultStep,
		},
		Initial: InitialConfig{
			VelNorth: DefaultVelNorth,
			VelDown:  DefaultVelDown,
			Altitude: DefaultAltitude,
		},
		Search: SearchConfig{
			PopulationSize:      s.PopulationSize,
			EliteCount:          s.EliteCount,
			NewRandomCount:      s.NewRandomCount,
			GenerationsPerLevel: s.GenerationsPerLevel,
			TournamentSize:      s.TournamentSize,
			MutationRate:        s.MutationRate,
			TruncationRate:      s.TruncationRate,
			CoarseOffset:        s.CoarseOffset,
			FineOffset:          s.FineOffset,
		},
		Objective: DefaultObjective,
		Log:       LogConfig{Level: DefaultLogLevel},
	}
}

// Load reads a YAML file over the defaults, so omitted keys keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
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

// Params derives the physical parameters, including the drag polar.
func (c *Config) Params() (glide.Params, error) {
	polar, err := glide.NewDragPolar(c.Aircraft.MinDrag, c.Aircraft.MaxLiftOverDrag)
	if err != nil {
		return glide.Params{}, err
	}
	return glide.Params{
		Mass:         c.Aircraft.Mass,
		PlanformArea: c.Aircraft.PlanformArea,
		Polar:        polar,
		MinLift:      c.Aircraft.MinLift,
		MaxLift:      c.Aircraft.MaxLift,
		Horizon:      c.Simulation.Horizon,
		Step:         c.Simulation.Step,
		Floor:        c.Simulation.Floor,
	}, nil
}

func (c *Config) InitialState() glide.State {
	return glide.InitialFromVelocity(c.Initial.VelNorth, c.Initial.VelEast, c.Initial.VelDown, c.Initial.Altitude)
}

func (c *Config) Settings() optim.Settings {
	s := c.Search
	return optim.Settings{
		PopulationSize:      s.PopulationSize,
		EliteCount:          s.EliteCount,
		NewRandomCount:      s.NewRandomCount,
		GenerationsPerLevel: s.GenerationsPerLevel,
		TournamentSize:      s.TournamentSize,
		MutationRate:        s.MutationRate,
		TruncationRate:      s.TruncationRate,
		Workers:             s.Workers,
		Seed:                s.Seed,
		CoarseOffset:        s.CoarseOffset,
		FineOffset:          s.FineOffset,
	}
}

// Validate checks everything a search needs except the objective name,
// which only the experiment registry can resolve.
func (c *Config) Validate() error {
	var errs []error
	p, err := c.Params()
	if err == nil {
		err = p.Validate()
	}
	errs = append(errs, err)
	errs = append(errs, c.Settings().Validate())
	if !(c.Initial.Altitude >= c.Simulation.Floor) {
		errs = append(errs, fmt.Errorf("config: initial altitude %g is below the floor %g",
			c.Initial.Altitude, c.Simulation.Floor))
	}
	if c.Initial.VelNorth == 0 && c.Initial.VelEast == 0 && c.Initial.VelDown == 0 {
		errs = append(errs, fmt.Errorf("config: initial velocity must be non-zero"))
	}
	if c.Objective == "" {
		errs = append(errs, fmt.Errorf("config: objective must be set"))
	}
	return errors.Join(errs...)
}
