package experiment

import (
	"errors"
	"fmt"
	"slices"

	"github.com/san-kum/glideopt/internal/scoring"
)

var ErrUnknownObjective = errors.New("experiment: unknown objective")

type Objective struct {
	Name        string
	Description string
	New         func() scoring.Scorer
}

type Registry struct {
	objectives map[string]Objective
}

func NewRegistry() *Registry {
	r := &Registry{objectives: make(map[string]Objective)}

	r.Register(Objective{"distance", "horizontal distance flown", scoring.Distance})
	r.Register(Objective{"duration", "time aloft", scoring.Duration})
	r.Register(Objective{"horizontal-speed", "mean horizontal speed", scoring.HorizontalSpeed})
	r.Register(Objective{"glide-ratio", "distance per metre of altitude lost", scoring.GlideRatio})
	r.Register(Objective{"altitude", "altitude kept at the end of the flight", scoring.FinalAltitude})

	return r
}

// Register adds or replaces an objective.
func (r *Registry) Register(o Objective) {
	r.objectives[o.Name] = o
}

func (r *Registry) GetObjective(name string) (scoring.Scorer, error) {
	o, ok := r.objectives[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObjective, name)
	}
	return o.New(), nil
}

func (r *Registry) ListObjectives() []Objective {
	out := make([]Objective, 0, len(r.objectives))
	for _, o := range r.objectives {
		out = append(out, o)
	}
	slices.SortFunc(out, func(a, b Objective) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out
}
