package policy

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/san-kum/glideopt/internal/glide"
	"github.com/san-kum/glideopt/internal/rand"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	minLift = 0.0
	maxLift = 1.5
)

func TestLengthValidation(t *testing.T) {
	tests := []struct {
		n     int
		valid bool
		level int
	}{
		{1, false, 0},
		{2, true, 0},
		{3, true, 1},
		{4, false, 0},
		{17, true, 4},
		{257, true, 8},
		{256, false, 0},
	}

	for _, tt := range tests {
		p, err := Constant(tt.n, 0.5)
		if tt.valid {
			if err != nil {
				t.Errorf("n=%d: unexpected error %v", tt.n, err)
				continue
			}
			if p.Level() != tt.level {
				t.Errorf("n=%d: level %d, want %d", tt.n, p.Level(), tt.level)
			}
			if LengthForLevel(tt.level) != tt.n {
				t.Errorf("LengthForLevel(%d) = %d", tt.level, LengthForLevel(tt.level))
			}
		} else if !errors.Is(err, ErrLength) {
			t.Errorf("n=%d: expected ErrLength, got %v", tt.n, err)
		}
	}
}

func TestNewCopiesInput(t *testing.T) {
	lift := []float64{0.1, 0.2, 0.3}
	p, err := New(lift)
	if err != nil {
		t.Fatal(err)
	}
	lift[0] = 9
	if p.At(0) != 0.1 {
		t.Error("New aliases its input")
	}
	v := p.Values()
	v[1] = 9
	if p.At(1) != 0.2 {
		t.Error("Values aliases the policy")
	}
}

func TestRandomIsPiecewiseLinearAtLevel(t *testing.T) {
	rng := rand.New(3)
	for L := 1; L <= 8; L++ {
		n := LengthForLevel(L)
		for k := 0; k <= L; k++ {
			p, err := Random(n, k, minLift, maxLift, rng)
			if err != nil {
				t.Fatalf("L=%d k=%d: %v", L, k, err)
			}
			if p.Len() != n {
				t.Fatalf("length %d, want %d", p.Len(), n)
			}
			seg := (n - 1) >> k
			for i := 0; i < n; i++ {
				v := p.At(i)
				if v < minLift || v > maxLift {
					t.Fatalf("sample %d = %f out of bounds", i, v)
				}
				if i%seg == 0 || i == 0 || i == n-1 {
					continue
				}
				// Interior samples lie on the chord between breakpoints.
				l := i / seg * seg
				r := l + seg
				w := float64(i-l) / float64(seg)
				want := (1-w)*p.At(l) + w*p.At(r)
				if math.Abs(v-want) > 1e-12 {
					t.Fatalf("L=%d k=%d sample %d = %f, chord %f", L, k, i, v, want)
				}
			}
		}
	}
}

func TestRandomRejectsBadLevel(t *testing.T) {
	if _, err := Random(17, 5, minLift, maxLift, rand.New(1)); !errors.Is(err, ErrLevel) {
		t.Errorf("expected ErrLevel, got %v", err)
	}
	if _, err := Random(17, -1, minLift, maxLift, rand.New(1)); !errors.Is(err, ErrLevel) {
		t.Errorf("expected ErrLevel, got %v", err)
	}
}

func TestCrossover(t *testing.T) {
	rng := rand.New(11)
	n := LengthForLevel(6)
	a, _ := Constant(n, 0.2)
	b, _ := Constant(n, 1.0)

	for k := 0; k <= 6; k++ {
		for trial := 0; trial < 20; trial++ {
			child, err := Crossover(a, b, k, rng)
			if err != nil {
				t.Fatal(err)
			}
			if child.Len() != n {
				t.Fatalf("length %d, want %d", child.Len(), n)
			}
			if child.At(0) != 0.2 || child.At(n-1) != 1.0 {
				t.Fatalf("endpoints %f/%f should come from a and b", child.At(0), child.At(n-1))
			}
			// Constant parents produce a monotone ramp through the pivot.
			for i := 1; i < n; i++ {
				if child.At(i) < child.At(i-1)-1e-12 {
					t.Fatalf("k=%d: child not monotone at %d", k, i)
				}
			}
			// Exactly one segment holds blended values.
			seg := (n - 1) >> k
			blended := 0
			for i := 0; i < n; i++ {
				if v := child.At(i); v != 0.2 && v != 1.0 {
					blended++
				}
			}
			if blended != seg-1 {
				t.Fatalf("k=%d: %d blended samples, want %d", k, blended, seg-1)
			}
		}
	}

	if a.At(0) != 0.2 || b.At(0) != 1.0 {
		t.Error("Crossover modified a parent")
	}
}

func TestCrossoverLengthMismatch(t *testing.T) {
	a, _ := Constant(17, 0.5)
	b, _ := Constant(33, 0.5)
	if _, err := Crossover(a, b, 2, rand.New(1)); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestMutateStaysInBounds(t *testing.T) {
	rng := rand.New(5)
	for L := 2; L <= 8; L++ {
		n := LengthForLevel(L)
		p, _ := Random(n, 0, minLift, maxLift, rng)
		minLevel := max(0, L-4)
		for k := minLevel; k <= L; k++ {
			for trial := 0; trial < 50; trial++ {
				var err error
				p, err = p.Mutate(k, minLevel, minLift, maxLift, rng)
				if err != nil {
					t.Fatal(err)
				}
				if p.Len() != n {
					t.Fatalf("length %d, want %d", p.Len(), n)
				}
				for i := 0; i < n; i++ {
					if v := p.At(i); v < minLift || v > maxLift {
						t.Fatalf("L=%d k=%d sample %d = %f out of bounds", L, k, i, v)
					}
				}
			}
		}
	}
}

func TestMutateIsLocal(t *testing.T) {
	rng := rand.New(8)
	n := LengthForLevel(6)
	p, _ := Constant(n, 0.75)
	k := 3
	seg := (n - 1) >> k

	m, err := p.Mutate(k, 2, minLift, maxLift, rng)
	if err != nil {
		t.Fatal(err)
	}

	changed := []int{}
	for i := 0; i < n; i++ {
		if m.At(i) != p.At(i) {
			changed = append(changed, i)
		}
	}
	if len(changed) == 0 {
		t.Skip("zero perturbation drawn")
	}
	if span := changed[len(changed)-1] - changed[0]; span > 2*seg {
		t.Errorf("mutation touched a span of %d samples, limit %d", span, 2*seg)
	}
	// Magnitude at the breakpoint is bounded by maxLift/2^(k-minLevel).
	for _, i := range changed {
		if d := math.Abs(m.At(i) - p.At(i)); d > maxLift/2+1e-12 {
			t.Errorf("sample %d moved by %f", i, d)
		}
	}
	if p.At(changed[0]) != 0.75 {
		t.Error("Mutate modified its receiver")
	}
}

func TestTruncate(t *testing.T) {
	n := LengthForLevel(5)
	lift := make([]float64, n)
	for i := range lift {
		lift[i] = float64(i) / float64(n)
	}
	p, _ := New(lift)

	for k := 0; k <= 5; k++ {
		tr, err := p.Truncate(k)
		if err != nil {
			t.Fatal(err)
		}
		if tr.Len() != n {
			t.Fatalf("length %d, want %d", tr.Len(), n)
		}
		seg := (n - 1) >> k
		for i := 0; i < n-seg; i++ {
			if tr.At(i) != p.At(i+seg) {
				t.Fatalf("k=%d: sample %d = %f, want shifted %f", k, i, tr.At(i), p.At(i+seg))
			}
		}
		for i := n - seg; i < n; i++ {
			if tr.At(i) != p.At(n-1) {
				t.Fatalf("k=%d: tail sample %d = %f, want held %f", k, i, tr.At(i), p.At(n-1))
			}
		}
	}

	if _, err := p.Truncate(6); !errors.Is(err, ErrLevel) {
		t.Errorf("expected ErrLevel, got %v", err)
	}
}

func TestSimulateIsPure(t *testing.T) {
	polar, _ := glide.NewDragPolar(0.07, 2.5)
	params := glide.Params{Mass: 100, PlanformArea: 1.5, Polar: polar, MaxLift: maxLift, Horizon: 16, Step: 0.25, Floor: 0}
	initial := glide.State{Theta: -0.4, Speed: 45, Y: 3000}

	p, _ := Random(LengthForLevel(6), 3, minLift, maxLift, rand.New(21))
	a := p.Simulate(params, initial)
	b := p.Simulate(params, initial)
	if a.Len() != b.Len() {
		t.Fatalf("lengths differ: %d vs %d", a.Len(), b.Len())
	}
	for i := range a.States {
		if a.States[i] != b.States[i] {
			t.Fatalf("state %d differs", i)
		}
	}
	if a.Len() < 2 || a.Len() > p.Len() {
		t.Errorf("unexpected trajectory length %d for %d samples", a.Len(), p.Len())
	}
}

func TestMsgpackRoundTrip(t *testing.T) {
	p, err := New([]float64{0.1, 0.4, 0.9, 0.3, 0.2})
	if err != nil {
		t.Fatal(err)
	}
	data, err := msgpack.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var got Policy
	if err := msgpack.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got.Values(), p.Values()) {
		t.Errorf("got %v, want %v", got.Values(), p.Values())
	}

	bad, _ := msgpack.Marshal([]float64{1, 2, 3, 4})
	if err := msgpack.Unmarshal(bad, &got); !errors.Is(err, ErrLength) {
		t.Errorf("expected ErrLength, got %v", err)
	}
}
