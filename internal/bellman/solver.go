package bellman

import (
	"math"
	"time"

	"github.com/golang/glog"
)

// progressSteps is how many progress lines a long Improve call emits.
const progressSteps = 5

// Solver runs value iteration for a fixed (nS, nA, discount) problem.
type Solver struct {
	problem  Problem
	nS       int
	nA       int
	discount float64

	value  []float64
	policy []int

	// scratch buffers swapped with value/policy at the end of each sweep
	nextValue  []float64
	nextPolicy []int

	transitions Transitions
	observers   []Observer
	sweeps      int
}

// New allocates a solver with zero value and policy arrays of length nS.
func New(p Problem, nS, nA int, discount float64) (*Solver, error) {
	if p == nil {
		return nil, &ConfigError{Field: "problem", Value: nil}
	}
	if nS <= 0 {
		return nil, &ConfigError{Field: "nS", Value: nS}
	}
	if nA <= 0 {
		return nil, &ConfigError{Field: "nA", Value: nA}
	}
	if math.IsNaN(discount) || discount < 0 || discount > 1 {
		return nil, &ConfigError{Field: "discount", Value: discount}
	}
	return &Solver{
		problem:    p,
		nS:         nS,
		nA:         nA,
		discount:   discount,
		value:      make([]float64, nS),
		policy:     make([]int, nS),
		nextValue:  make([]float64, nS),
		nextPolicy: make([]int, nS),
		observers:  make([]Observer, 0),
	}, nil
}

// NewFromModel builds a solver from a problem that knows its own sizes.
func NewFromModel(m Model) (*Solver, error) {
	if m == nil {
		return nil, &ConfigError{Field: "problem", Value: nil}
	}
	return New(m, m.NumStates(), m.NumActions(), m.Discount())
}

// AddObserver registers o to be notified after every sweep.
func (s *Solver) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// NumStates returns the size of the state space.
func (s *Solver) NumStates() int { return s.nS }

// NumActions returns the size of the action space.
func (s *Solver) NumActions() int { return s.nA }

// Discount returns the discount factor.
func (s *Solver) Discount() float64 { return s.discount }

// Sweeps returns the number of sweeps performed over the solver's lifetime.
func (s *Solver) Sweeps() int { return s.sweeps }

// Problem returns the problem definition the solver was built with.
func (s *Solver) Problem() Problem { return s.problem }

// SetInitialValue overwrites the value estimate. The policy is left as is.
func (s *Solver) SetInitialValue(v []float64) error {
	if len(v) != s.nS {
		return &ConfigError{Field: "initial value length", Value: len(v)}
	}
	copy(s.value, v)
	return nil
}

// Improve performs up to maxIterations synchronous sweeps, stopping early
// once no state's value moves by tolerance or more.
func (s *Solver) Improve(maxIterations int, tolerance float64) Report {
	start := time.Now()
	report := Report{MaxIterations: maxIterations}

	glog.Infof("bellman improvement beginning: nS=%d nA=%d discount=%g sparse=%t",
		s.nS, s.nA, s.discount, s.Sparse())

	step := 0
	if maxIterations >= progressSteps {
		step = maxIterations / progressSteps
	}

	for i := 1; i <= maxIterations; i++ {
		stats, converged := s.sweep(tolerance)
		stats.Iteration = i

		report.Iterations = i
		report.Residual = stats.Residual
		report.Converged = converged

		glog.V(2).Infof("sweep %d residual %.6g policy changes %d", i, stats.Residual, stats.PolicyChanges)
		if step > 0 && i%step == 0 {
			glog.V(1).Infof("(%d / %d)", i, maxIterations)
		}

		for _, o := range s.observers {
			o.OnSweep(stats)
		}

		if converged {
			break
		}
	}

	report.Elapsed = time.Since(start)
	if report.Converged {
		glog.Infof("... converged at iteration %d of %d", report.Iterations, maxIterations)
	} else {
		glog.Warningf("... finished at max iteration %d (residual %.6g)", maxIterations, report.Residual)
	}
	return report
}

// sweep applies the Bellman optimality operator once. All backups read the
// value array from before the sweep; results go to the scratch buffers,
// which are swapped in afterwards.
func (s *Solver) sweep(tolerance float64) (SweepStats, bool) {
	var stats SweepStats
	converged := true

	for st := 0; st < s.nS; st++ {
		best := math.Inf(-1)
		bestAction := 0
		for a := 0; a < s.nA; a++ {
			candidate := s.problem.Reward(st, a) + s.discount*s.expectation(st, a)
			if candidate > best {
				best = candidate
				bestAction = a
			}
		}

		diff := math.Abs(s.value[st] - best)
		converged = converged && diff < tolerance
		if diff > stats.Residual {
			stats.Residual = diff
		}
		if bestAction != s.policy[st] {
			stats.PolicyChanges++
		}

		s.nextValue[st] = best
		s.nextPolicy[st] = bestAction
	}

	s.value, s.nextValue = s.nextValue, s.value
	s.policy, s.nextPolicy = s.nextPolicy, s.policy
	s.sweeps++

	return stats, converged
}

// expectation returns the expected pre-sweep value of the successor state.
func (s *Solver) expectation(st, a int) float64 {
	e := 0.0
	if s.transitions != nil {
		for _, tr := range s.transitions[st][a] {
			e += tr.Prob * s.value[tr.Next]
		}
		return e
	}
	for s1 := 0; s1 < s.nS; s1++ {
		e += s.problem.Dynamic(st, a, s1) * s.value[s1]
	}
	return e
}

// Value returns a copy of the current value function.
func (s *Solver) Value() []float64 {
	v := make([]float64, s.nS)
	copy(v, s.value)
	return v
}

// Policy returns a copy of the current greedy policy.
func (s *Solver) Policy() []int {
	p := make([]int, s.nS)
	copy(p, s.policy)
	return p
}

// ValueAt returns the current value estimate of state st.
func (s *Solver) ValueAt(st int) (float64, error) {
	if st < 0 || st >= s.nS {
		return 0, &RangeError{Index: st, Size: s.nS}
	}
	return s.value[st], nil
}

// ActionAt returns the current greedy action of state st.
func (s *Solver) ActionAt(st int) (int, error) {
	if st < 0 || st >= s.nS {
		return 0, &RangeError{Index: st, Size: s.nS}
	}
	return s.policy[st], nil
}
