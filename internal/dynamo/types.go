package dynamo

import (
	"math"
)

type State []float64

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

// InterpolatingIntegrator advances a state while the control moves linearly
// from u0 at t to u1 at t+dt.
type InterpolatingIntegrator interface {
	Integrator
	StepInterpolated(dyn System, x State, u0, u1 Control, t, dt float64) State
}
