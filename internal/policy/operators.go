package policy

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
)

// Random draws 2^k + 1 breakpoints uniformly in [minLift, maxLift] and
// interpolates linearly between them across all n samples.
func Random(n, k int, minLift, maxLift float64, rng Source) (Policy, error) {
	p := Policy{lift: make([]float64, n)}
	seg, err := p.segment(k)
	if err != nil {
		return Policy{}, err
	}

	count := 1<<k + 1
	xs := make([]float64, count)
	ys := make([]float64, count)
	for j := range xs {
		xs[j] = float64(j * seg)
		ys[j] = minLift + (maxLift-minLift)*rng.Float64()
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return Policy{}, fmt.Errorf("policy: interpolating breakpoints: %w", err)
	}
	for i := range p.lift {
		p.lift[i] = pl.Predict(float64(i))
	}
	return p, nil
}

// Crossover picks one level-k segment of the parents as pivot. The child
// follows a up to the pivot's left breakpoint, blends linearly from a to b
// across the pivot, and follows b from the right breakpoint on.
func Crossover(a, b Policy, k int, rng Source) (Policy, error) {
	if len(a.lift) != len(b.lift) {
		return Policy{}, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(a.lift), len(b.lift))
	}
	seg, err := a.segment(k)
	if err != nil {
		return Policy{}, err
	}

	left := rng.Intn(1<<k) * seg
	right := left + seg

	child := make([]float64, len(a.lift))
	copy(child[:left+1], a.lift[:left+1])
	for i := left + 1; i < right; i++ {
		w := float64(i-left) / float64(seg)
		child[i] = (1-w)*a.lift[i] + w*b.lift[i]
	}
	copy(child[right:], b.lift[right:])
	return Policy{lift: child}, nil
}

// Mutate perturbs one level-k breakpoint by up to maxLift/2^(k-minLevel),
// tapering the change linearly to zero across both adjacent segments.
// Every changed sample is clamped to [minLift, maxLift].
func (p Policy) Mutate(k, minLevel int, minLift, maxLift float64, rng Source) (Policy, error) {
	seg, err := p.segment(k)
	if err != nil {
		return Policy{}, err
	}

	center := rng.Intn(1<<k+1) * seg
	magnitude := math.Ldexp(maxLift, minLevel-k)
	delta := magnitude * (2*rng.Float64() - 1)

	out := p.Values()
	lo := max(center-seg, 0)
	hi := min(center+seg, len(out)-1)
	for i := lo; i <= hi; i++ {
		taper := 1 - math.Abs(float64(i-center))/float64(seg)
		out[i] = clamp(out[i]+delta*taper, minLift, maxLift)
	}
	return Policy{lift: out}, nil
}

// Truncate drops the first level-k segment and holds the final value for
// the same number of samples at the end.
func (p Policy) Truncate(k int) (Policy, error) {
	seg, err := p.segment(k)
	if err != nil {
		return Policy{}, err
	}

	n := len(p.lift)
	out := make([]float64, n)
	copy(out, p.lift[seg:])
	last := p.lift[n-1]
	for i := n - seg; i < n; i++ {
		out[i] = last
	}
	return Policy{lift: out}, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
