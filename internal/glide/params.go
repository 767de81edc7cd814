package glide

import (
	"errors"
	"fmt"

	"github.com/san-kum/glideopt/internal/dynamo"
)

// ErrInvalidParameters reports physical parameters the model cannot use.
var ErrInvalidParameters = fmt.Errorf("glide: invalid physical parameters: %w", dynamo.ErrParameterBounds)

// DefaultStep is the integration step in seconds.
const DefaultStep = 0.25

// Params are the physical parameters of one optimization run.
type Params struct {
	Mass         float64   `json:"mass" msgpack:"mass"`
	PlanformArea float64   `json:"planform_area" msgpack:"planform_area"`
	Polar        DragPolar `json:"polar" msgpack:"polar"`
	MinLift      float64   `json:"min_lift" msgpack:"min_lift"`
	MaxLift      float64   `json:"max_lift" msgpack:"max_lift"`
	Horizon      float64   `json:"horizon" msgpack:"horizon"`
	Step         float64   `json:"step" msgpack:"step"`
	Floor        float64   `json:"floor" msgpack:"floor"`
}

func (p Params) Validate() error {
	var errs []error
	if !(p.Mass > 0) {
		errs = append(errs, fmt.Errorf("mass %g must be positive", p.Mass))
	}
	if !(p.PlanformArea > 0) {
		errs = append(errs, fmt.Errorf("planform area %g must be positive", p.PlanformArea))
	}
	if !(p.Polar.C > 0) || !(p.Polar.A > 0) {
		errs = append(errs, fmt.Errorf("drag polar (a=%g, c=%g) must have positive coefficients", p.Polar.A, p.Polar.C))
	}
	if !(p.MinLift < p.MaxLift) {
		errs = append(errs, fmt.Errorf("lift bounds [%g, %g] are empty", p.MinLift, p.MaxLift))
	}
	if !(p.Horizon > 0) {
		errs = append(errs, fmt.Errorf("horizon %g must be positive", p.Horizon))
	}
	if !(p.Step > 0) {
		errs = append(errs, fmt.Errorf("step %g must be positive", p.Step))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidParameters, errors.Join(errs...))
	}
	return nil
}
