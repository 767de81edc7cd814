package optim

import (
	"fmt"
	"math"
)

// maxLevel bounds kLim; 2^30 samples is far beyond any useful horizon.
const maxLevel = 30

// Schedule is the level-of-detail plan of one search.
type Schedule struct {
	Limit   int `json:"limit"` // kLim, the finest level the policy supports
	Min     int `json:"min"`
	Max     int `json:"max"`
	Samples int `json:"samples"` // 2^Limit + 1
}

// NewSchedule picks the smallest kLim with step*2^kLim >= horizon and runs
// the search from max(0, kLim-coarse) to max(kMin, kLim-fine).
func NewSchedule(horizon, step float64, coarse, fine int) (Schedule, error) {
	if !(horizon > 0) || !(step > 0) {
		return Schedule{}, fmt.Errorf("%w: horizon %g and step %g must be positive", ErrInvalidSettings, horizon, step)
	}
	limit := 0
	for math.Ldexp(step, limit) < horizon {
		limit++
		if limit > maxLevel {
			return Schedule{}, fmt.Errorf("%w: horizon %g needs more than 2^%d steps of %g",
				ErrInvalidSettings, horizon, maxLevel, step)
		}
	}
	kMin := max(0, limit-coarse)
	return Schedule{
		Limit:   limit,
		Min:     kMin,
		Max:     max(kMin, limit-fine),
		Samples: 1<<limit + 1,
	}, nil
}

func (s Schedule) Levels() int { return s.Max - s.Min + 1 }
