package viz

import (
	"math"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/glideopt/internal/glide"
)

const (
	plotHeight = 10
	plotWidth  = 80
)

// Series is one named trajectory column.
type Series struct {
	Caption string
	Value   func(glide.State) float64
}

var TrajectorySeries = []Series{
	{"altitude (m) vs time", func(s glide.State) float64 { return s.Y }},
	{"speed (m/s) vs time", func(s glide.State) float64 { return s.Speed }},
	{"flight-path angle (rad) vs time", func(s glide.State) float64 { return s.Theta }},
	{"lift coefficient vs time", func(s glide.State) float64 { return s.Lift }},
}

// PlotTrajectory renders one chart per series. An empty trajectory gives no
// charts.
func PlotTrajectory(traj glide.Trajectory, series []Series) []string {
	if traj.Len() == 0 {
		return nil
	}
	out := make([]string, 0, len(series))
	for _, s := range series {
		out = append(out, asciigraph.Plot(traj.Column(s.Value),
			asciigraph.Height(plotHeight),
			asciigraph.Width(plotWidth),
			asciigraph.Caption(s.Caption),
		))
	}
	return out
}

// PlotHistory charts the best score per generation.
func PlotHistory(history []float64) string {
	finite := make([]float64, 0, len(history))
	for _, v := range history {
		if !math.IsInf(v, 0) && !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return ""
	}
	return asciigraph.Plot(finite,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption("best score per generation"),
	)
}
