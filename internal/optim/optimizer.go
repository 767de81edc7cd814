// Package optim searches lift schedules with a multi-resolution genetic
// algorithm.
//
// The search starts with coarse piecewise-linear policies and refines them
// level by level: every level k in the schedule runs a fixed number of
// generations whose crossover, truncation and mutation act on 2^k segments.
// Genetic operators draw from a single seeded generator on the calling
// goroutine while simulation and scoring of offspring run in parallel, so a
// seeded search gives the same answer for any worker count.
package optim

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/san-kum/glideopt/internal/glide"
	"github.com/san-kum/glideopt/internal/log"
	"github.com/san-kum/glideopt/internal/policy"
	"github.com/san-kum/glideopt/internal/rand"
	"github.com/san-kum/glideopt/internal/scoring"
	"golang.org/x/sync/errgroup"
)

// Progress is reported after the initial population and after every
// generation. Fraction never decreases and is 1 after the last generation.
type Progress struct {
	Fraction    float64
	Level       int
	Generation  int
	BestScore   float64
	MeanScore   float64
	StdDev      float64
	Evaluations int
}

type Result struct {
	Best       Individual
	Trajectory glide.Trajectory
	// History holds the best score of the initial population followed by
	// the best score of every completed generation.
	History     []float64
	Generations int
	Evaluations int
	Canceled    bool
	Elapsed     time.Duration
	Seed        int64
	Schedule    Schedule
}

type Optimizer struct {
	settings   Settings
	logger     *log.Logger
	onProgress func(Progress)
}

type Option func(*Optimizer)

func WithLogger(l *log.Logger) Option {
	return func(o *Optimizer) { o.logger = l }
}

// WithProgress registers fn to be called synchronously with every report.
func WithProgress(fn func(Progress)) Option {
	return func(o *Optimizer) { o.onProgress = fn }
}

func New(s Settings, opts ...Option) (*Optimizer, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	o := &Optimizer{settings: s}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

func (o *Optimizer) Settings() Settings { return o.settings }

// Optimize searches for the policy the scorer rates highest. Canceling ctx
// stops the search between individuals and returns the best policy
// evaluated so far with Result.Canceled set; the context error is returned
// only if nothing had been evaluated yet.
func (o *Optimizer) Optimize(ctx context.Context, params glide.Params, initial glide.State, scorer scoring.Scorer) (*Result, error) {
	return o.run(ctx, params, initial, scorer, nil)
}

// search is the state of one Optimize call.
type search struct {
	settings Settings
	params   glide.Params
	initial  glide.State
	scorer   scoring.Scorer
	schedule Schedule
	rng      *rand.Rand
	workers  int
	logger   *log.Logger
	emit     func(Progress)

	generations int
	total       int
	evaluations int
	history     []float64
}

func (o *Optimizer) run(ctx context.Context, params glide.Params, initial glide.State, scorer scoring.Scorer, sink func(Progress)) (*Result, error) {
	start := time.Now()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if scorer == nil {
		return nil, fmt.Errorf("%w: nil scorer", ErrInvalidSettings)
	}
	sched, err := NewSchedule(params.Horizon, params.Step, o.settings.CoarseOffset, o.settings.FineOffset)
	if err != nil {
		return nil, err
	}

	s := &search{
		settings: o.settings,
		params:   params,
		initial:  initial,
		scorer:   scorer,
		schedule: sched,
		rng:      rand.New(o.settings.Seed),
		workers:  o.settings.Workers,
		emit: func(p Progress) {
			if o.onProgress != nil {
				o.onProgress(p)
			}
			if sink != nil {
				sink(p)
			}
		},
	}
	if s.workers == 0 {
		s.workers = runtime.GOMAXPROCS(0)
	}
	s.total = sched.Levels() * o.settings.GenerationsPerLevel
	s.logger = o.logger.With("seed", s.rng.Seed())
	s.logger.Info("starting search",
		"samples", sched.Samples, "kLim", sched.Limit, "kMin", sched.Min, "kMax", sched.Max,
		"population", o.settings.PopulationSize, "generations", s.total, "workers", s.workers)

	best, canceled, err := s.evolve(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Best:        best,
		Trajectory:  best.Policy.Simulate(params, initial),
		History:     s.history,
		Generations: s.generations,
		Evaluations: s.evaluations,
		Canceled:    canceled,
		Elapsed:     time.Since(start),
		Seed:        s.rng.Seed(),
		Schedule:    sched,
	}
	s.logger.Info("search finished",
		"score", best.Score, "generations", res.Generations, "evaluations", res.Evaluations,
		"canceled", canceled, "elapsed", res.Elapsed)
	return res, nil
}

func (s *search) evolve(ctx context.Context) (Individual, bool, error) {
	set := s.settings
	sched := s.schedule

	batch := make(Population, 0, set.PopulationSize)
	for range set.PopulationSize {
		if ctx.Err() != nil {
			break
		}
		batch = append(batch, s.random())
	}
	pop, complete := s.evaluate(ctx, batch)
	if len(pop) == 0 {
		return Individual{}, true, ctx.Err()
	}
	pop.Sort()
	if !complete {
		s.logger.Info("search canceled during initial population", "evaluated", len(pop))
		return pop[0], true, nil
	}
	s.report(pop, sched.Min)

	for k := sched.Min; k <= sched.Max; k++ {
		s.logger.Info("level of detail", "k", k, "segments", 1<<k)
		for range set.GenerationsPerLevel {
			next := make(Population, 0, set.PopulationSize)
			canceled := false
			for _, elite := range pop[:set.EliteCount] {
				if ctx.Err() != nil {
					canceled = true
					break
				}
				next = append(next, elite)
			}

			fresh := make(Population, 0, set.PopulationSize-len(next))
			if k == sched.Min {
				for i := 0; i < set.NewRandomCount && !canceled; i++ {
					if ctx.Err() != nil {
						canceled = true
						break
					}
					fresh = append(fresh, s.random())
				}
			}
			for len(next)+len(fresh) < set.PopulationSize && !canceled {
				if ctx.Err() != nil {
					canceled = true
					break
				}
				fresh = append(fresh, s.offspring(pop, k))
			}

			evaluated, complete := s.evaluate(ctx, fresh)
			if canceled || !complete {
				candidates := append(append(Population{}, pop...), evaluated...)
				s.logger.Info("search canceled", "k", k, "generation", s.generations, "evaluated", len(evaluated))
				return candidates.Best(), true, nil
			}

			pop = append(next, evaluated...)
			pop.Sort()
			s.generations++
			s.report(pop, k)
		}
	}
	return pop[0], false, nil
}

// random returns an unevaluated policy at the coarsest level.
func (s *search) random() Individual {
	p, err := policy.Random(s.schedule.Samples, s.schedule.Min, s.params.MinLift, s.params.MaxLift, s.rng)
	if err != nil {
		panic(fmt.Sprintf("optim: random policy: %v", err))
	}
	return Individual{Score: math.Inf(-1), Policy: p}
}

// offspring breeds one unevaluated child at level k from a sorted population.
func (s *search) offspring(pop Population, k int) Individual {
	set := s.settings
	a := tournament(pop, set.TournamentSize, s.rng)
	b := tournament(pop, set.TournamentSize, s.rng)

	// Levels come from the schedule and every policy has the same length,
	// so operator errors here are programming errors.
	child, err := policy.Crossover(a.Policy, b.Policy, k, s.rng)
	if err == nil && s.rng.Bernoulli(set.TruncationRate) {
		child, err = child.Truncate(k)
	}
	if err == nil && s.rng.Bernoulli(set.MutationRate) {
		child, err = child.Mutate(k, s.schedule.Min, s.params.MinLift, s.params.MaxLift, s.rng)
	}
	if err != nil {
		panic(fmt.Sprintf("optim: breeding at level %d: %v", k, err))
	}
	return Individual{Score: math.Inf(-1), Policy: child}
}

// evaluate simulates and scores batch on up to s.workers goroutines. It
// returns the evaluated individuals in batch order and whether all of them
// were evaluated before ctx was canceled.
func (s *search) evaluate(ctx context.Context, batch Population) (Population, bool) {
	done := make([]bool, len(batch))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := range batch {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			traj := batch[i].Policy.Simulate(s.params, s.initial)
			batch[i].Score = scoring.Finite(s.scorer.Score(traj))
			done[i] = true
			return nil
		})
	}
	err := g.Wait()

	out := batch[:0]
	for i, ind := range batch {
		if done[i] {
			out = append(out, ind)
		}
	}
	s.evaluations += len(out)
	return out, err == nil && len(out) == len(batch)
}

func (s *search) report(pop Population, k int) {
	mean, std := pop.Stats()
	p := Progress{
		Fraction:    1,
		Level:       k,
		Generation:  s.generations,
		BestScore:   pop[0].Score,
		MeanScore:   mean,
		StdDev:      std,
		Evaluations: s.evaluations,
	}
	if s.total > 0 {
		p.Fraction = float64(s.generations) / float64(s.total)
	}
	s.history = append(s.history, p.BestScore)
	s.logger.Debug("generation", "k", k, "generation", p.Generation,
		"best", p.BestScore, "mean", p.MeanScore, "std", p.StdDev)
	s.emit(p)
}
