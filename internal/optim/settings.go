package optim

import (
	"errors"
	"fmt"
)

var ErrInvalidSettings = errors.New("optim: invalid settings")

const (
	DefaultPopulationSize      = 100
	DefaultEliteCount          = 10
	DefaultNewRandomCount      = 10
	DefaultGenerationsPerLevel = 250
	DefaultTournamentSize      = 5
	DefaultMutationRate        = 1.0
	DefaultTruncationRate      = 0.1
	DefaultCoarseOffset        = 4
	DefaultFineOffset          = 2
)

// Settings tune the genetic search. Workers of zero uses GOMAXPROCS and a
// Seed of zero seeds from the wall clock.
type Settings struct {
	PopulationSize      int     `json:"population_size" msgpack:"population_size"`
	EliteCount          int     `json:"elite_count" msgpack:"elite_count"`
	NewRandomCount      int     `json:"new_random_count" msgpack:"new_random_count"`
	GenerationsPerLevel int     `json:"generations_per_level" msgpack:"generations_per_level"`
	TournamentSize      int     `json:"tournament_size" msgpack:"tournament_size"`
	MutationRate        float64 `json:"mutation_rate" msgpack:"mutation_rate"`
	TruncationRate      float64 `json:"truncation_rate" msgpack:"truncation_rate"`
	Workers             int     `json:"workers" msgpack:"workers"`
	Seed                int64   `json:"seed" msgpack:"seed"`

	// The search runs from level kLim-CoarseOffset to kLim-FineOffset.
	CoarseOffset int `json:"coarse_offset" msgpack:"coarse_offset"`
	FineOffset   int `json:"fine_offset" msgpack:"fine_offset"`
}

func DefaultSettings() Settings {
	return Settings{
		PopulationSize:      DefaultPopulationSize,
		EliteCount:          DefaultEliteCount,
		NewRandomCount:      DefaultNewRandomCount,
		GenerationsPerLevel: DefaultGenerationsPerLevel,
		TournamentSize:      DefaultTournamentSize,
		MutationRate:        DefaultMutationRate,
		TruncationRate:      DefaultTruncationRate,
		CoarseOffset:        DefaultCoarseOffset,
		FineOffset:          DefaultFineOffset,
	}
}

func (s Settings) Validate() error {
	var errs []error
	if s.PopulationSize < 1 {
		errs = append(errs, fmt.Errorf("population size %d must be at least 1", s.PopulationSize))
	}
	if s.EliteCount < 0 || s.NewRandomCount < 0 {
		errs = append(errs, fmt.Errorf("elite (%d) and random (%d) counts must not be negative", s.EliteCount, s.NewRandomCount))
	}
	if s.EliteCount+s.NewRandomCount > s.PopulationSize {
		errs = append(errs, fmt.Errorf("elite (%d) plus random (%d) exceed population size %d",
			s.EliteCount, s.NewRandomCount, s.PopulationSize))
	}
	if s.GenerationsPerLevel < 0 {
		errs = append(errs, fmt.Errorf("generations per level %d must not be negative", s.GenerationsPerLevel))
	}
	if s.TournamentSize < 1 {
		errs = append(errs, fmt.Errorf("tournament size %d must be at least 1", s.TournamentSize))
	}
	if !(s.MutationRate >= 0 && s.MutationRate <= 1) {
		errs = append(errs, fmt.Errorf("mutation rate %g not in [0, 1]", s.MutationRate))
	}
	if !(s.TruncationRate >= 0 && s.TruncationRate <= 1) {
		errs = append(errs, fmt.Errorf("truncation rate %g not in [0, 1]", s.TruncationRate))
	}
	if s.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers %d must not be negative", s.Workers))
	}
	if s.FineOffset < 0 || s.CoarseOffset < s.FineOffset {
		errs = append(errs, fmt.Errorf("level offsets coarse=%d fine=%d must satisfy 0 <= fine <= coarse",
			s.CoarseOffset, s.FineOffset))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(errs...))
	}
	return nil
}
