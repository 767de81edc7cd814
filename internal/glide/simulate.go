package glide

import (
	"math"

	"github.com/san-kum/glideopt/internal/dynamo"
	"github.com/san-kum/glideopt/internal/integrators"
)

// Simulate integrates the lift schedule from the initial state, one sample
// per step p.Step, moving linearly between consecutive samples. It stops
// after the first state below p.Floor, and before any step that would leave
// the speed non-positive or the state non-finite (End == Stall). The result
// depends only on its inputs.
func Simulate(p Params, initial State, lift []float64) Trajectory {
	traj := Trajectory{States: make([]State, 0, len(lift)), End: Horizon}

	cur := initial
	if len(lift) > 0 {
		cur.Lift = lift[0]
		cur.Drag = p.Polar.Drag(lift[0])
	}
	traj.States = append(traj.States, cur)
	if cur.Y < p.Floor {
		traj.End = Floor
		return traj
	}

	model := NewModel(p)
	rk := integrators.NewRK4()

	x := dynamo.State{cur.Theta, cur.Speed, cur.X, cur.Y}
	u0 := dynamo.Control{cur.Lift, cur.Drag}
	for i := 1; i < len(lift); i++ {
		u1 := dynamo.Control{lift[i], p.Polar.Drag(lift[i])}
		next := rk.StepInterpolated(model, x, u0, u1, cur.Time, p.Step)
		if !next.IsValid() || !(next[1] > 0) {
			traj.End = Stall
			return traj
		}

		dx, dy := next[2]-x[2], next[3]-x[3]
		cur = State{
			Theta:  next[0],
			Speed:  next[1],
			X:      next[2],
			Y:      next[3],
			Time:   cur.Time + p.Step,
			Dist2D: cur.Dist2D + math.Abs(dx),
			Dist3D: cur.Dist3D + math.Hypot(dx, dy),
			Lift:   u1[0],
			Drag:   u1[1],
		}
		traj.States = append(traj.States, cur)

		if cur.Y < p.Floor {
			traj.End = Floor
			return traj
		}
		x, u0 = next, u1
	}
	return traj
}
