package glide

import (
	"fmt"
	"math"
)

// State is one integration step of a simulated flight.
type State struct {
	Theta  float64 `csv:"theta" json:"theta"`
	Speed  float64 `csv:"speed" json:"speed"`
	X      float64 `csv:"x" json:"x"`
	Y      float64 `csv:"y" json:"y"`
	Time   float64 `csv:"time" json:"time"`
	Dist2D float64 `csv:"dist2d" json:"dist2d"`
	Dist3D float64 `csv:"dist3d" json:"dist3d"`
	Lift   float64 `csv:"lift" json:"lift"`
	Drag   float64 `csv:"drag" json:"drag"`
}

// InitialFromVelocity builds a starting state from a north/east/down
// velocity and an altitude. Position, time and distances start at zero.
func InitialFromVelocity(velN, velE, velD, altitude float64) State {
	horizontal := math.Hypot(velN, velE)
	return State{
		Theta: math.Atan2(-velD, horizontal),
		Speed: math.Sqrt(horizontal*horizontal + velD*velD),
		Y:     altitude,
	}
}

// HorizontalSpeed and VerticalSpeed are signed; vertical is positive up.
func (s State) HorizontalSpeed() float64 { return s.Speed * math.Cos(s.Theta) }
func (s State) VerticalSpeed() float64   { return s.Speed * math.Sin(s.Theta) }

type Termination int

const (
	Horizon Termination = iota
	Floor
	Stall
)

func (t Termination) String() string {
	switch t {
	case Horizon:
		return "horizon"
	case Floor:
		return "floor"
	case Stall:
		return "stall"
	default:
		return "unknown"
	}
}

func (t Termination) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Termination) UnmarshalText(b []byte) error {
	switch string(b) {
	case "horizon":
		*t = Horizon
	case "floor":
		*t = Floor
	case "stall":
		*t = Stall
	default:
		return fmt.Errorf("glide: unknown termination %q", b)
	}
	return nil
}

// Trajectory is the time-ordered result of one simulation.
type Trajectory struct {
	States []State
	End    Termination
}

func (t Trajectory) Len() int { return len(t.States) }

// Final returns the last state, or the zero State for an empty trajectory.
func (t Trajectory) Final() State {
	if len(t.States) == 0 {
		return State{}
	}
	return t.States[len(t.States)-1]
}

// Column extracts one value per state, e.g. traj.Column(func(s State) float64 { return s.Y }).
func (t Trajectory) Column(f func(State) float64) []float64 {
	out := make([]float64, len(t.States))
	for i, s := range t.States {
		out[i] = f(s)
	}
	return out
}
