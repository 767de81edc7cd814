// Package experiment turns a run configuration into a ready-to-start
// optimization.
package experiment

import (
	"context"

	"github.com/san-kum/glideopt/internal/config"
	"github.com/san-kum/glideopt/internal/glide"
	"github.com/san-kum/glideopt/internal/optim"
	"github.com/san-kum/glideopt/internal/policy"
	"github.com/san-kum/glideopt/internal/scoring"
)

type Experiment struct {
	cfg       *config.Config
	params    glide.Params
	initial   glide.State
	scorer    scoring.Scorer
	optimizer *optim.Optimizer
}

func New(cfg *config.Config, reg *Registry, opts ...optim.Option) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	scorer, err := reg.GetObjective(cfg.Objective)
	if err != nil {
		return nil, err
	}
	params, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	o, err := optim.New(cfg.Settings(), opts...)
	if err != nil {
		return nil, err
	}
	return &Experiment{
		cfg:       cfg,
		params:    params,
		initial:   cfg.InitialState(),
		scorer:    scorer,
		optimizer: o,
	}, nil
}

func (e *Experiment) Config() *config.Config { return e.cfg }
func (e *Experiment) Params() glide.Params   { return e.params }
func (e *Experiment) Initial() glide.State   { return e.initial }
func (e *Experiment) Scorer() scoring.Scorer { return e.scorer }

func (e *Experiment) Run(ctx context.Context) (*optim.Result, error) {
	return e.optimizer.Optimize(ctx, e.params, e.initial, e.scorer)
}

func (e *Experiment) Start(ctx context.Context) *optim.Task {
	return e.optimizer.Start(ctx, e.params, e.initial, e.scorer)
}

// SimulateConstant flies the full horizon at a fixed lift coefficient.
func (e *Experiment) SimulateConstant(lift float64) (glide.Trajectory, policy.Policy, error) {
	s := e.optimizer.Settings()
	sched, err := optim.NewSchedule(e.params.Horizon, e.params.Step, s.CoarseOffset, s.FineOffset)
	if err != nil {
		return glide.Trajectory{}, policy.Policy{}, err
	}
	p, err := policy.Constant(sched.Samples, lift)
	if err != nil {
		return glide.Trajectory{}, policy.Policy{}, err
	}
	return p.Simulate(e.params, e.initial), p, nil
}
