// Package policy implements the evolvable lift-coefficient schedule and its
// genetic operators.
//
// A [Policy] stores N = 2^L + 1 lift coefficients sampled every integration
// step. Operators address it at a level of detail k <= L, where the array is
// split into 2^k equal segments whose 2^k + 1 end points are the level's
// breakpoints. Operators never modify their receiver or arguments.
package policy

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/san-kum/glideopt/internal/glide"
)

var (
	ErrLength         = errors.New("policy: length must be 2^L + 1")
	ErrLevel          = errors.New("policy: level of detail out of range")
	ErrLengthMismatch = errors.New("policy: parents differ in length")
)

// Source is the randomness the operators consume.
type Source interface {
	Intn(n int) int
	Float64() float64
}

type Policy struct {
	lift []float64
}

// LengthForLevel returns 2^level + 1.
func LengthForLevel(level int) int {
	return 1<<level + 1
}

// levelOf returns L for n = 2^L + 1.
func levelOf(n int) (int, error) {
	if n < 2 || (n-1)&(n-2) != 0 {
		return 0, fmt.Errorf("%w: got %d", ErrLength, n)
	}
	return bits.TrailingZeros(uint(n - 1)), nil
}

// New copies lift into a Policy.
func New(lift []float64) (Policy, error) {
	if _, err := levelOf(len(lift)); err != nil {
		return Policy{}, err
	}
	return Policy{lift: append([]float64(nil), lift...)}, nil
}

// Constant returns a policy holding value at every sample.
func Constant(n int, value float64) (Policy, error) {
	if _, err := levelOf(n); err != nil {
		return Policy{}, err
	}
	lift := make([]float64, n)
	for i := range lift {
		lift[i] = value
	}
	return Policy{lift: lift}, nil
}

func (p Policy) Len() int { return len(p.lift) }

// Level returns L, the finest level of detail the policy supports.
func (p Policy) Level() int {
	l, _ := levelOf(len(p.lift))
	return l
}

func (p Policy) At(i int) float64 { return p.lift[i] }

// Values returns a copy of the lift coefficients.
func (p Policy) Values() []float64 {
	return append([]float64(nil), p.lift...)
}

// segment returns the number of samples per segment at level k.
func (p Policy) segment(k int) (int, error) {
	l, err := levelOf(len(p.lift))
	if err != nil {
		return 0, err
	}
	if k < 0 || k > l {
		return 0, fmt.Errorf("%w: level %d not in [0, %d]", ErrLevel, k, l)
	}
	return (len(p.lift) - 1) >> k, nil
}

// Simulate integrates the policy from initial under params.
func (p Policy) Simulate(params glide.Params, initial glide.State) glide.Trajectory {
	return glide.Simulate(params, initial, p.lift)
}
