// Package scoring defines the fitness contract consumed by the optimizer
// and a few generic trajectory objectives for command-line use.
package scoring

import (
	"math"

	"github.com/san-kum/glideopt/internal/glide"
	"gonum.org/v1/gonum/stat"
)

// Scorer maps a simulated trajectory to a fitness; higher is better.
// Implementations must be safe for concurrent use.
type Scorer interface {
	Score(traj glide.Trajectory) float64
}

// ScoreFunc adapts an ordinary function to the Scorer interface.
type ScoreFunc func(traj glide.Trajectory) float64

func (f ScoreFunc) Score(traj glide.Trajectory) float64 { return f(traj) }

// Distance is the horizontal distance flown.
func Distance() Scorer {
	return ScoreFunc(func(traj glide.Trajectory) float64 {
		return traj.Final().Dist2D
	})
}

// Duration is the time aloft.
func Duration() Scorer {
	return ScoreFunc(func(traj glide.Trajectory) float64 {
		return traj.Final().Time
	})
}

// HorizontalSpeed is the mean horizontal speed over the trajectory.
func HorizontalSpeed() Scorer {
	return ScoreFunc(func(traj glide.Trajectory) float64 {
		if traj.Len() == 0 {
			return math.Inf(-1)
		}
		return stat.Mean(traj.Column(glide.State.HorizontalSpeed), nil)
	})
}

// GlideRatio is horizontal distance over altitude lost.
func GlideRatio() Scorer {
	return ScoreFunc(func(traj glide.Trajectory) float64 {
		if traj.Len() < 2 {
			return math.Inf(-1)
		}
		lost := traj.States[0].Y - traj.Final().Y
		if lost <= 0 {
			return math.Inf(1)
		}
		return traj.Final().Dist2D / lost
	})
}

// FinalAltitude favours trajectories that keep the most height.
func FinalAltitude() Scorer {
	return ScoreFunc(func(traj glide.Trajectory) float64 {
		return traj.Final().Y
	})
}

// Finite maps NaN to -Inf so scores order totally.
func Finite(score float64) float64 {
	if math.IsNaN(score) {
		return math.Inf(-1)
	}
	return score
}
