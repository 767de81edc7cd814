package viz

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/glideopt/internal/glide"
)

func TestSummaryContainsRows(t *testing.T) {
	out := Summary("best run", []Metric{
		Metricf("score", "%.2f", 1234.5),
		{Label: "end", Value: "floor"},
	})
	for _, want := range []string{"best run", "score", "1234.50", "end", "floor"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestProgressBarWidth(t *testing.T) {
	for _, f := range []float64{-1, 0, 0.5, 1, 2} {
		bar := ProgressBar(f, 20)
		if n := strings.Count(bar, "█") + strings.Count(bar, "░"); n != 20 {
			t.Errorf("fraction %f: %d cells", f, n)
		}
	}
}

func TestSparklineSkipsNonFinite(t *testing.T) {
	out := Sparkline([]float64{math.Inf(-1), 1, 2, 3}, 4)
	if !strings.HasPrefix(out, " ") {
		t.Errorf("expected a blank for -Inf, got %q", out)
	}
	if !strings.Contains(out, "█") || !strings.Contains(out, "▁") {
		t.Errorf("expected full range of blocks, got %q", out)
	}
	if Sparkline(nil, 3) != "───" {
		t.Error("empty sparkline should be a rule")
	}
}

func TestPlotTrajectory(t *testing.T) {
	traj := glide.Trajectory{States: []glide.State{
		{Y: 100, Speed: 20, Lift: 0.5},
		{Y: 95, Speed: 21, Lift: 0.6, Time: 0.25},
		{Y: 90, Speed: 22, Lift: 0.7, Time: 0.5},
	}}
	charts := PlotTrajectory(traj, TrajectorySeries)
	if len(charts) != len(TrajectorySeries) {
		t.Fatalf("expected %d charts, got %d", len(TrajectorySeries), len(charts))
	}
	if !strings.Contains(charts[0], "altitude") {
		t.Errorf("missing caption:\n%s", charts[0])
	}
	if PlotTrajectory(glide.Trajectory{}, TrajectorySeries) != nil {
		t.Error("empty trajectory should give no charts")
	}
}

func TestPlotHistory(t *testing.T) {
	if PlotHistory([]float64{math.Inf(-1)}) != "" {
		t.Error("expected no chart without finite scores")
	}
	if !strings.Contains(PlotHistory([]float64{1, 2, 3}), "best score") {
		t.Error("missing caption")
	}
}
