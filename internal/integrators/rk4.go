package integrators

import "github.com/san-kum/glideopt/internal/dynamo"

// RK4 is the classical fourth-order Runge-Kutta stepper. Stage buffers are
// reused between calls, so an RK4 must not be shared between goroutines.
type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
	uMid           dynamo.Control
}

var _ dynamo.InterpolatingIntegrator = (*RK4)(nil)

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n, m int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
	if len(r.uMid) != m {
		r.uMid = make(dynamo.Control, m)
	}
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	return r.StepInterpolated(dyn, x, u, u, t, dt)
}

// StepInterpolated advances x by dt with the control at the interval
// midpoint taken as the average of u0 and u1.
func (r *RK4) StepInterpolated(dyn dynamo.System, x dynamo.State, u0, u1 dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	r.ensureScratch(n, len(u0))

	for i := range r.uMid {
		r.uMid[i] = 0.5 * (u0[i] + u1[i])
	}

	k1 := dyn.Derive(x, u0, t)
	copy(r.k1, k1)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	k2 := dyn.Derive(r.scratch, r.uMid, t+dt*0.5)
	copy(r.k2, k2)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	k3 := dyn.Derive(r.scratch, r.uMid, t+dt*0.5)
	copy(r.k3, k3)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	k4 := dyn.Derive(r.scratch, u1, t+dt)
	copy(r.k4, k4)

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	return result
}
