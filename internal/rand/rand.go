// Package rand provides seedable PCG32 random streams for the optimizer.
//
// Unlike math/rand's global source, every Rand is an explicit value, so a
// search seeded with the same value replays exactly.
package rand

import (
	"time"

	"github.com/MichaelTJones/pcg"
)

// sequence is the PCG stream selector shared by all generators.
const sequence = 0xda3e39cb94b95bdb

type Rand struct {
	r    *pcg.PCG32
	seed int64
}

// New returns a generator seeded with s. A zero seed draws one from the
// wall clock; Seed reports the value actually used.
func New(s int64) *Rand {
	if s == 0 {
		s = time.Now().UnixNano()
	}
	r := &Rand{r: pcg.NewPCG32()}
	r.r.Seed(uint64(s), sequence)
	r.seed = s
	return r
}

func (r *Rand) Seed() int64 {
	return r.seed
}

// Intn returns a uniform integer in [0, n). It panics if n <= 0.
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		panic("rand: invalid argument to Intn")
	}
	return int(r.r.Bounded(uint32(n)))
}

// Float64 returns a uniform value in [0, 1).
func (r *Rand) Float64() float64 {
	return float64(r.r.Random()) / (1 << 32)
}

// Bernoulli reports true with probability p.
func (r *Rand) Bernoulli(p float64) bool {
	return r.Float64() < p
}
