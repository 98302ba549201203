package bellman

import (
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"
)

// tableProblem reads dynamics from T[a][s][s1] and rewards from R[a][s].
type tableProblem struct {
	T [][][]float64
	R [][]float64
}

func (p *tableProblem) Dynamic(s, a, s1 int) float64 { return p.T[a][s][s1] }
func (p *tableProblem) Reward(s, a int) float64      { return p.R[a][s] }

func selfLoop(reward float64) *tableProblem {
	return &tableProblem{
		T: [][][]float64{{{1}}},
		R: [][]float64{{reward}},
	}
}

func chainProblem() *tableProblem {
	return &tableProblem{
		T: [][][]float64{
			{
				{0.5, 0.5, 0, 0},
				{0, 0.5, 0.5, 0},
				{0, 0, 0.5, 0.5},
				{0, 0, 0, 1},
			},
			{
				{1, 0, 0, 0},
				{0.9, 0.1, 0, 0},
				{0, 0.2, 0.8, 0},
				{0.25, 0.25, 0.25, 0.25},
			},
		},
		R: [][]float64{
			{0, 0, 0, 1},
			{0.1, 0.2, 0.1, 0},
		},
	}
}

func TestNew(t *testing.T) {
	sol, err := New(selfLoop(1), 1, 1, 0.5)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if len(sol.Value()) != 1 || len(sol.Policy()) != 1 {
		t.Errorf("expected arrays of length 1, got %d and %d", len(sol.Value()), len(sol.Policy()))
	}

	for _, nS := range []int{1, 4, 100} {
		for _, gamma := range []float64{0, 0.5, 1} {
			sol, err := New(chainProblem(), nS, 2, gamma)
			if err != nil {
				t.Fatalf("nS=%d gamma=%g: %v", nS, gamma, err)
			}
			if len(sol.Value()) != nS || len(sol.Policy()) != nS {
				t.Errorf("nS=%d: wrong array lengths", nS)
			}
		}
	}
}

func TestNewInvalidConfig(t *testing.T) {
	tests := []struct {
		name     string
		problem  Problem
		nS, nA   int
		discount float64
		field    string
	}{
		{"nil problem", nil, 1, 1, 0.5, "problem"},
		{"zero states", selfLoop(1), 0, 1, 0.5, "nS"},
		{"negative states", selfLoop(1), -3, 1, 0.5, "nS"},
		{"zero actions", selfLoop(1), 1, 0, 0.5, "nA"},
		{"discount above one", selfLoop(1), 1, 1, 1.01, "discount"},
		{"negative discount", selfLoop(1), 1, 1, -0.1, "discount"},
		{"NaN discount", selfLoop(1), 1, 1, math.NaN(), "discount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.problem, tt.nS, tt.nA, tt.discount)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			var ce *ConfigError
			if !errors.As(err, &ce) || ce.Field != tt.field {
				t.Errorf("expected field %q, got %+v", tt.field, ce)
			}
		})
	}
}

func TestImproveSingleState(t *testing.T) {
	sol, err := New(selfLoop(1), 1, 1, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	report := sol.Improve(1, 1e-9)
	if report.Converged {
		t.Error("one sweep should not converge")
	}
	if v, _ := sol.ValueAt(0); v != 1 {
		t.Errorf("expected value 1 after one sweep, got %v", v)
	}

	report = sol.Improve(1000, 1e-9)
	if !report.Converged {
		t.Fatal("expected convergence")
	}
	// residual after sweep k is 2^(1-k); the first call already did sweep 1
	if report.Iterations != 30 {
		t.Errorf("expected convergence at iteration 30, got %d", report.Iterations)
	}
	if sol.Sweeps() != 31 {
		t.Errorf("expected 31 lifetime sweeps, got %d", sol.Sweeps())
	}
	if v, _ := sol.ValueAt(0); math.Abs(v-2) > 1e-8 {
		t.Errorf("expected value near 2, got %v", v)
	}
}

func TestImproveTieBreaksToLowestAction(t *testing.T) {
	p := &tableProblem{
		T: [][][]float64{{{1}}, {{1}}, {{1}}},
		R: [][]float64{{0.5}, {1}, {1}},
	}
	sol, err := New(p, 1, 3, 0.9)
	if err != nil {
		t.Fatal(err)
	}
	sol.Improve(50, 1e-12)

	a, err := sol.ActionAt(0)
	if err != nil {
		t.Fatal(err)
	}
	if a != 1 {
		t.Errorf("expected action 1 (lowest of the tied maxima), got %d", a)
	}
}

func TestImproveIsJacobi(t *testing.T) {
	// state 0 loops on itself with reward 1; state 1 moves to state 0.
	// A synchronous sweep from zero leaves V[1] = gamma * 0.
	p := &tableProblem{
		T: [][][]float64{{{1, 0}, {1, 0}}},
		R: [][]float64{{1, 0}},
	}
	sol, err := New(p, 2, 1, 0.9)
	if err != nil {
		t.Fatal(err)
	}
	sol.Improve(1, 1e-9)

	v := sol.Value()
	if v[0] != 1 {
		t.Errorf("expected V[0] = 1, got %v", v[0])
	}
	if v[1] != 0 {
		t.Errorf("expected V[1] = 0 after one synchronous sweep, got %v", v[1])
	}

	sol.Improve(1, 1e-9)
	v = sol.Value()
	if math.Abs(v[1]-0.9) > 1e-12 {
		t.Errorf("expected V[1] = 0.9 after two sweeps, got %v", v[1])
	}
}

func TestImproveDeterministic(t *testing.T) {
	run := func() ([]float64, []int) {
		sol, err := New(chainProblem(), 4, 2, 0.95)
		if err != nil {
			t.Fatal(err)
		}
		sol.Improve(500, 1e-10)
		return sol.Value(), sol.Policy()
	}

	v1, p1 := run()
	v2, p2 := run()
	for s := range v1 {
		if math.Float64bits(v1[s]) != math.Float64bits(v2[s]) {
			t.Errorf("state %d: values differ %v vs %v", s, v1[s], v2[s])
		}
		if p1[s] != p2[s] {
			t.Errorf("state %d: actions differ %d vs %d", s, p1[s], p2[s])
		}
	}
}

func TestImproveZeroIterations(t *testing.T) {
	sol, err := New(selfLoop(1), 1, 1, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	report := sol.Improve(0, 1e-6)
	if report.Converged || report.Iterations != 0 {
		t.Errorf("expected no sweeps, got %+v", report)
	}
	if sol.Sweeps() != 0 {
		t.Errorf("expected 0 sweeps, got %d", sol.Sweeps())
	}
}

func TestImproveNonConvergenceIsReported(t *testing.T) {
	sol, err := New(selfLoop(1), 1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	report := sol.Improve(10, 1e-6)
	if report.Converged {
		t.Error("undiscounted positive loop should not converge")
	}
	if report.Iterations != 10 || report.MaxIterations != 10 {
		t.Errorf("expected 10 of 10 iterations, got %+v", report)
	}
	if v, _ := sol.ValueAt(0); v != 10 {
		t.Errorf("expected best-effort value 10, got %v", v)
	}
}

func TestObserver(t *testing.T) {
	sol, err := New(chainProblem(), 4, 2, 0.9)
	if err != nil {
		t.Fatal(err)
	}

	var seen []SweepStats
	sol.AddObserver(ObserverFunc(func(st SweepStats) { seen = append(seen, st) }))

	report := sol.Improve(25, 1e-300)
	if len(seen) != report.Iterations {
		t.Fatalf("expected %d notifications, got %d", report.Iterations, len(seen))
	}
	for i, st := range seen {
		if st.Iteration != i+1 {
			t.Errorf("notification %d has iteration %d", i, st.Iteration)
		}
	}
	if seen[len(seen)-1].Residual != report.Residual {
		t.Errorf("last residual %v does not match report %v", seen[len(seen)-1].Residual, report.Residual)
	}
}

func TestAccessorsOutOfRange(t *testing.T) {
	sol, err := New(chainProblem(), 4, 2, 0.9)
	if err != nil {
		t.Fatal(err)
	}
	sol.Improve(3, 1e-9)
	before := sol.Value()

	for _, s := range []int{-1, 4, 100} {
		if _, err := sol.ValueAt(s); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("ValueAt(%d): expected ErrOutOfRange, got %v", s, err)
		}
		if _, err := sol.ActionAt(s); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("ActionAt(%d): expected ErrOutOfRange, got %v", s, err)
		}
	}

	after := sol.Value()
	for s := range before {
		if before[s] != after[s] {
			t.Errorf("state %d changed after failed access", s)
		}
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	g := NewWithT(t)

	sol, err := New(chainProblem(), 4, 2, 0.9)
	g.Expect(err).NotTo(HaveOccurred())
	sol.Improve(5, 1e-9)

	v := sol.Value()
	v[0] = 1234
	p := sol.Policy()
	p[0] = 7

	g.Expect(sol.ValueAt(0)).NotTo(Equal(1234.0))
	g.Expect(sol.ActionAt(0)).NotTo(Equal(7))
}

func TestSetInitialValue(t *testing.T) {
	g := NewWithT(t)

	sol, err := New(selfLoop(1), 1, 1, 0.5)
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(sol.SetInitialValue([]float64{1, 2})).To(MatchError(ErrInvalidConfig))
	g.Expect(sol.SetInitialValue([]float64{2})).To(Succeed())

	// 2 is already the fixed point
	report := sol.Improve(10, 1e-9)
	g.Expect(report.Converged).To(BeTrue())
	g.Expect(report.Iterations).To(Equal(1))
}

func TestNewFromModel(t *testing.T) {
	g := NewWithT(t)

	sol, err := NewFromModel(&sizedProblem{tableProblem: *chainProblem()})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sol.NumStates()).To(Equal(4))
	g.Expect(sol.NumActions()).To(Equal(2))
	g.Expect(sol.Discount()).To(Equal(0.9))

	_, err = NewFromModel(nil)
	g.Expect(err).To(MatchError(ErrInvalidConfig))
}

type sizedProblem struct {
	tableProblem
}

func (p *sizedProblem) NumStates() int    { return 4 }
func (p *sizedProblem) NumActions() int   { return 2 }
func (p *sizedProblem) Discount() float64 { return 0.9 }
