package glide

import (
	"fmt"
	"math"

	"github.com/san-kum/glideopt/internal/dynamo"
)

// DragPolar is cd = A·cl² + C.
type DragPolar struct {
	A float64 `yaml:"a" json:"a" msgpack:"a"`
	C float64 `yaml:"c" json:"c" msgpack:"c"`
}

// NewDragPolar derives the polar from the minimum drag coefficient and the
// maximum lift-to-drag ratio.
func NewDragPolar(minDrag, maxLiftOverDrag float64) (DragPolar, error) {
	if !(minDrag > 0) {
		return DragPolar{}, fmt.Errorf("%w: min drag %g must be positive", ErrInvalidParameters, minDrag)
	}
	if !(maxLiftOverDrag > 0) {
		return DragPolar{}, fmt.Errorf("%w: max L/D %g must be positive", ErrInvalidParameters, maxLiftOverDrag)
	}
	m := 1 / maxLiftOverDrag
	return DragPolar{A: m * m / (4 * minDrag), C: minDrag}, nil
}

func (p DragPolar) Drag(lift float64) float64 {
	return p.A*lift*lift + p.C
}

// MaxLiftOverDrag is the polar's best glide ratio, reached at cl = √(C/A).
func (p DragPolar) MaxLiftOverDrag() float64 {
	return 1 / (2 * math.Sqrt(p.A*p.C))
}

type Model struct {
	Mass         float64
	PlanformArea float64
	Gravity      float64
}

func NewModel(p Params) *Model {
	return &Model{
		Mass:         p.Mass,
		PlanformArea: p.PlanformArea,
		Gravity:      Gravity,
	}
}

func (m *Model) StateDim() int   { return 4 }
func (m *Model) ControlDim() int { return 2 }

// Derive returns [dθ/dt, dv/dt, dx/dt, dy/dt]. It does not guard v > 0;
// callers stop integrating once the speed is no longer positive.
func (m *Model) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	theta, v, y := x[0], x[1], x[3]
	cl, cd := u[0], u[1]

	q := DynamicPressure(y, v)
	liftAccel := q * m.PlanformArea * cl / m.Mass
	dragAccel := q * m.PlanformArea * cd / m.Mass

	sin, cos := math.Sincos(theta)
	return dynamo.State{
		(liftAccel - m.Gravity*cos) / v,
		-dragAccel - m.Gravity*sin,
		v * cos,
		v * sin,
	}
}
