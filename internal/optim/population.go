package optim

import (
	"cmp"
	"math"
	"slices"

	"github.com/san-kum/glideopt/internal/policy"
	"gonum.org/v1/gonum/stat"
)

type Individual struct {
	Score  float64
	Policy policy.Policy
}

// Population is sorted best first by Sort.
type Population []Individual

// Sort orders by descending score, keeping the relative order of ties.
func (p Population) Sort() {
	slices.SortStableFunc(p, func(a, b Individual) int {
		return cmp.Compare(b.Score, a.Score)
	})
}

// Best returns the highest scoring individual without sorting.
func (p Population) Best() Individual {
	best := p[0]
	for _, ind := range p[1:] {
		if ind.Score > best.Score {
			best = ind
		}
	}
	return best
}

// Stats returns the mean and standard deviation of the finite scores, or
// NaN when there are none.
func (p Population) Stats() (mean, std float64) {
	scores := make([]float64, 0, len(p))
	for _, ind := range p {
		if !math.IsInf(ind.Score, 0) && !math.IsNaN(ind.Score) {
			scores = append(scores, ind.Score)
		}
	}
	switch len(scores) {
	case 0:
		return math.NaN(), math.NaN()
	case 1:
		return scores[0], 0
	}
	return stat.MeanStdDev(scores, nil)
}

type intSource interface {
	Intn(n int) int
}

// tournament draws size contestants with replacement and returns the best.
func tournament(pop Population, size int, rng intSource) Individual {
	best := pop[rng.Intn(len(pop))]
	for i := 1; i < size; i++ {
		if c := pop[rng.Intn(len(pop))]; c.Score > best.Score {
			best = c
		}
	}
	return best
}
