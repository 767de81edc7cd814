// Package glide models unpowered gliding flight in a vertical plane.
//
// The package provides the pieces needed to turn a lift-coefficient schedule
// into a simulated flight:
//
//   - [Model]: standard-atmosphere point-mass model implementing [dynamo.System]
//   - [DragPolar]: parabolic drag polar coupling lift and drag coefficients
//   - [Params]: physical parameters of one optimization run
//   - [State] and [Trajectory]: integrated flight states
//   - [Simulate]: fixed-step RK4 integration with an altitude floor
//
// The state vector is [θ, v, x, y]: flight-path angle, airspeed, horizontal
// position and altitude. The control vector is [cl, cd].
//
// # Example
//
//	polar, _ := glide.NewDragPolar(0.07, 2.5)
//	p := glide.Params{Mass: 100, PlanformArea: 1.5, Polar: polar, ...}
//	traj := glide.Simulate(p, glide.InitialFromVelocity(40, 0, 25, 3000), lift)
//	fmt.Println(traj.Final().Dist2D)
package glide
