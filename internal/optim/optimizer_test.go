package optim

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/glideopt/internal/glide"
	"github.com/san-kum/glideopt/internal/rand"
	"github.com/san-kum/glideopt/internal/scoring"
)

// testParams describe a heavy glider whose lift can never pull it into a
// stall within the horizon, so every trajectory covers all samples.
func testParams() glide.Params {
	polar, err := glide.NewDragPolar(0.02, 20)
	Expect(err).NotTo(HaveOccurred())
	return glide.Params{
		Mass:         1000,
		PlanformArea: 5,
		Polar:        polar,
		MinLift:      0,
		MaxLift:      1,
		Horizon:      16,
		Step:         glide.DefaultStep,
		Floor:        0,
	}
}

func testInitial() glide.State {
	return glide.State{Speed: 45, Y: 4000}
}

// targetLift rewards lift schedules close to a constant 0.5.
var targetLift = scoring.ScoreFunc(func(traj glide.Trajectory) float64 {
	sum := 0.0
	for _, s := range traj.States {
		d := s.Lift - 0.5
		sum += d * d
	}
	return -sum / float64(traj.Len())
})

func smallSettings(seed int64) Settings {
	s := DefaultSettings()
	s.PopulationSize = 40
	s.EliteCount = 4
	s.NewRandomCount = 4
	s.GenerationsPerLevel = 40
	s.Seed = seed
	return s
}

var _ = Describe("Schedule", func() {
	DescribeTable("level bounds",
		func(horizon float64, limit, kMin, kMax int) {
			s, err := NewSchedule(horizon, 0.25, DefaultCoarseOffset, DefaultFineOffset)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Limit).To(Equal(limit))
			Expect(s.Min).To(Equal(kMin))
			Expect(s.Max).To(Equal(kMax))
			Expect(s.Samples).To(Equal(1<<limit + 1))
		},
		Entry("exact power of two", 16.0, 6, 2, 4),
		Entry("rounds up", 17.0, 7, 3, 5),
		Entry("five minutes", 300.0, 11, 7, 9),
		Entry("short horizon clamps at zero", 1.0, 2, 0, 0),
		Entry("shorter than one step", 0.1, 0, 0, 0),
	)

	It("rejects a non-positive step", func() {
		_, err := NewSchedule(10, 0, 4, 2)
		Expect(errors.Is(err, ErrInvalidSettings)).To(BeTrue())
	})
})

var _ = Describe("Settings", func() {
	It("accepts the defaults", func() {
		Expect(DefaultSettings().Validate()).To(Succeed())
	})

	DescribeTable("rejects",
		func(mutate func(*Settings)) {
			s := DefaultSettings()
			mutate(&s)
			err := s.Validate()
			Expect(errors.Is(err, ErrInvalidSettings)).To(BeTrue())
			_, err = New(s)
			Expect(errors.Is(err, ErrInvalidSettings)).To(BeTrue())
		},
		Entry("empty population", func(s *Settings) { s.PopulationSize = 0 }),
		Entry("too many elites", func(s *Settings) { s.EliteCount = 95 }),
		Entry("negative random count", func(s *Settings) { s.NewRandomCount = -1 }),
		Entry("zero tournament", func(s *Settings) { s.TournamentSize = 0 }),
		Entry("mutation rate above one", func(s *Settings) { s.MutationRate = 1.5 }),
		Entry("NaN truncation rate", func(s *Settings) { s.TruncationRate = math.NaN() }),
		Entry("negative workers", func(s *Settings) { s.Workers = -2 }),
		Entry("fine offset above coarse", func(s *Settings) { s.FineOffset = 5 }),
	)
})

var _ = Describe("Population", func() {
	It("sorts descending with NaN-free ordering", func() {
		pop := Population{{Score: 1}, {Score: math.Inf(-1)}, {Score: 3}, {Score: 2}}
		pop.Sort()
		Expect([]float64{pop[0].Score, pop[1].Score, pop[2].Score}).To(Equal([]float64{3, 2, 1}))
		Expect(math.IsInf(pop[3].Score, -1)).To(BeTrue())
		Expect(pop.Best().Score).To(Equal(3.0))
	})

	It("ignores infinite scores in statistics", func() {
		pop := Population{{Score: 1}, {Score: 3}, {Score: math.Inf(-1)}}
		mean, std := pop.Stats()
		Expect(mean).To(BeNumerically("~", 2, 1e-12))
		Expect(std).To(BeNumerically("~", math.Sqrt2, 1e-12))
	})

	It("selects uniformly with a tournament of one", func() {
		pop := Population{{Score: 4}, {Score: 3}, {Score: 2}, {Score: 1}}
		rng := rand.New(7)
		counts := map[float64]int{}
		const draws = 40000
		for range draws {
			counts[tournament(pop, 1, rng).Score]++
		}
		for _, ind := range pop {
			Expect(counts[ind.Score]).To(BeNumerically("~", draws/4, 500))
		}
	})

	It("favours the best with large tournaments", func() {
		pop := Population{{Score: 4}, {Score: 3}, {Score: 2}, {Score: 1}}
		rng := rand.New(7)
		wins := 0
		for range 1000 {
			if tournament(pop, 20, rng).Score == 4 {
				wins++
			}
		}
		Expect(wins).To(BeNumerically(">", 980))
	})
})

var _ = Describe("Optimizer", func() {
	var params glide.Params

	BeforeEach(func() {
		params = testParams()
	})

	It("rejects invalid physical parameters", func() {
		o, err := New(smallSettings(1))
		Expect(err).NotTo(HaveOccurred())
		params.Mass = 0
		_, err = o.Optimize(context.Background(), params, testInitial(), targetLift)
		Expect(errors.Is(err, glide.ErrInvalidParameters)).To(BeTrue())
	})

	It("rejects a nil scorer", func() {
		o, err := New(smallSettings(1))
		Expect(err).NotTo(HaveOccurred())
		_, err = o.Optimize(context.Background(), params, testInitial(), nil)
		Expect(errors.Is(err, ErrInvalidSettings)).To(BeTrue())
	})

	It("never loses its best score with elitism", func() {
		var reports []Progress
		o, err := New(smallSettings(11), WithProgress(func(p Progress) { reports = append(reports, p) }))
		Expect(err).NotTo(HaveOccurred())

		res, err := o.Optimize(context.Background(), params, testInitial(), targetLift)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Canceled).To(BeFalse())
		Expect(res.Generations).To(Equal(3 * 40))
		Expect(res.History).To(HaveLen(res.Generations + 1))
		Expect(reports).To(HaveLen(len(res.History)))

		for i := 1; i < len(res.History); i++ {
			Expect(res.History[i]).To(BeNumerically(">=", res.History[i-1]))
			Expect(reports[i].Fraction).To(BeNumerically(">=", reports[i-1].Fraction))
		}
		Expect(reports[0].Fraction).To(Equal(0.0))
		Expect(reports[len(reports)-1].Fraction).To(Equal(1.0))
		Expect(reports[len(reports)-1].Level).To(Equal(4))
		Expect(res.Best.Score).To(Equal(res.History[len(res.History)-1]))
	})

	It("returns the trajectory of the best policy", func() {
		o, err := New(smallSettings(5))
		Expect(err).NotTo(HaveOccurred())
		res, err := o.Optimize(context.Background(), params, testInitial(), targetLift)
		Expect(err).NotTo(HaveOccurred())

		Expect(res.Best.Policy.Len()).To(Equal(65))
		Expect(res.Trajectory.Len()).To(Equal(65))
		Expect(res.Trajectory.End).To(Equal(glide.Horizon))
		Expect(targetLift.Score(res.Trajectory)).To(Equal(res.Best.Score))
		Expect(res.Seed).To(Equal(int64(5)))
	})

	It("gives the same answer for any worker count", func() {
		run := func(workers int) *Result {
			s := smallSettings(99)
			s.GenerationsPerLevel = 10
			s.Workers = workers
			o, err := New(s)
			Expect(err).NotTo(HaveOccurred())
			res, err := o.Optimize(context.Background(), params, testInitial(), targetLift)
			Expect(err).NotTo(HaveOccurred())
			return res
		}
		one, many := run(1), run(8)
		Expect(many.Best.Score).To(Equal(one.Best.Score))
		Expect(many.Best.Policy.Values()).To(Equal(one.Best.Policy.Values()))
		Expect(many.History).To(Equal(one.History))
	})

	It("orders NaN scores last and still finishes", func() {
		s := smallSettings(3)
		s.GenerationsPerLevel = 2
		o, err := New(s)
		Expect(err).NotTo(HaveOccurred())
		nan := scoring.ScoreFunc(func(glide.Trajectory) float64 { return math.NaN() })
		res, err := o.Optimize(context.Background(), params, testInitial(), nan)
		Expect(err).NotTo(HaveOccurred())
		Expect(math.IsInf(res.Best.Score, -1)).To(BeTrue())
	})

	It("converges to a known optimum in most seeded runs", func() {
		const runs = 20
		successes := 0
		for seed := int64(1); seed <= runs; seed++ {
			o, err := New(smallSettings(seed))
			Expect(err).NotTo(HaveOccurred())
			res, err := o.Optimize(context.Background(), params, testInitial(), targetLift)
			Expect(err).NotTo(HaveOccurred())

			mse := 0.0
			for _, v := range res.Best.Policy.Values() {
				mse += (v - 0.5) * (v - 0.5)
			}
			mse /= float64(res.Best.Policy.Len())
			if mse < 0.02 {
				successes++
			}
		}
		Expect(successes).To(BeNumerically(">=", 18))
	})

	Context("when canceled", func() {
		It("returns the context error if nothing was evaluated", func() {
			o, err := New(smallSettings(1))
			Expect(err).NotTo(HaveOccurred())
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			res, err := o.Optimize(ctx, params, testInitial(), targetLift)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(res).To(BeNil())
		})

		It("keeps the best evaluated so far", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var (
				once  sync.Once
				first float64
				calls atomic.Int64
			)
			scorer := scoring.ScoreFunc(func(traj glide.Trajectory) float64 {
				score := targetLift(traj)
				once.Do(func() { first = score })
				if calls.Add(1) == 60 {
					cancel()
				}
				return score
			})

			s := smallSettings(21)
			s.Workers = 1
			o, err := New(s)
			Expect(err).NotTo(HaveOccurred())
			res, err := o.Optimize(ctx, params, testInitial(), scorer)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Canceled).To(BeTrue())
			Expect(res.Evaluations).To(Equal(60))
			Expect(res.Best.Score).To(BeNumerically(">=", first))
			Expect(res.Best.Score).To(BeNumerically(">=", res.History[0]))
			Expect(res.Trajectory.Len()).To(BeNumerically(">", 0))
		})
	})
})

var _ = Describe("Task", func() {
	It("streams progress and ends with the final report", func() {
		s := smallSettings(8)
		s.GenerationsPerLevel = 5
		o, err := New(s)
		Expect(err).NotTo(HaveOccurred())

		task := o.Start(context.Background(), testParams(), testInitial(), targetLift)
		var last Progress
		prev := -1.0
		for p := range task.Progress() {
			Expect(p.Fraction).To(BeNumerically(">=", prev))
			prev = p.Fraction
			last = p
		}
		Eventually(task.Done()).Should(BeClosed())

		res, err := task.Wait()
		Expect(err).NotTo(HaveOccurred())
		Expect(last.Fraction).To(Equal(1.0))
		Expect(last.BestScore).To(Equal(res.Best.Score))
	})

	It("stops early when canceled", func() {
		s := smallSettings(8)
		s.GenerationsPerLevel = 100000
		o, err := New(s)
		Expect(err).NotTo(HaveOccurred())

		task := o.Start(context.Background(), testParams(), testInitial(), targetLift)
		Eventually(task.Progress()).Should(Receive())
		task.Cancel()

		res, err := task.Wait()
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Canceled).To(BeTrue())
		Expect(res.Generations).To(BeNumerically("<", 3*100000))
	})
})
