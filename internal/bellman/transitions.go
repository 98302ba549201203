package bellman

import (
	"math"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// DefaultVerifyTolerance bounds |sum - 1| for a valid successor distribution.
const DefaultVerifyTolerance = 1e-6

// Transition is one nonzero-probability successor of a state-action pair.
type Transition struct {
	Next int
	Prob float64
}

// Transitions holds the successors of every (s, a), indexed [s][a] and
// ordered by Next within each pair.
type Transitions [][][]Transition

// BuildTransitions scans p.Dynamic over every (s, a, s1) triple once and
// keeps only the nonzero entries.
func BuildTransitions(p Problem, nS, nA int) Transitions {
	t := make(Transitions, nS)
	for s := 0; s < nS; s++ {
		t[s] = make([][]Transition, nA)
		for a := 0; a < nA; a++ {
			row := make([]Transition, 0)
			for s1 := 0; s1 < nS; s1++ {
				if prob := p.Dynamic(s, a, s1); prob != 0 {
					row = append(row, Transition{Next: s1, Prob: prob})
				}
			}
			t[s][a] = row
		}
	}
	return t
}

// Sparsity computes fan-out statistics for a structure over nS states.
func (t Transitions) Sparsity(nS int) Sparsity {
	var sp Sparsity
	pairs := 0
	for _, actions := range t {
		for _, row := range actions {
			pairs++
			sp.Entries += len(row)
			if len(row) > sp.MaxFanOut {
				sp.MaxFanOut = len(row)
			}
		}
	}
	if pairs > 0 {
		sp.MeanFanOut = float64(sp.Entries) / float64(pairs)
		if nS > 0 {
			sp.Density = sp.MeanFanOut / float64(nS)
		}
	}
	return sp
}

// AnalyzeSparsity precomputes the sparse transition structure from the
// problem's Dynamic and installs it for subsequent sweeps.
func (s *Solver) AnalyzeSparsity() Sparsity {
	s.transitions = BuildTransitions(s.problem, s.nS, s.nA)
	sp := s.transitions.Sparsity(s.nS)
	glog.Infof("sparse transitions: %d entries, mean fan-out %.2f, max %d, density %.4g",
		sp.Entries, sp.MeanFanOut, sp.MaxFanOut, sp.Density)
	return sp
}

// Clone returns a deep copy of t.
func (t Transitions) Clone() Transitions {
	if t == nil {
		return nil
	}
	out := make(Transitions, len(t))
	for s, actions := range t {
		out[s] = make([][]Transition, len(actions))
		for a, row := range actions {
			out[s][a] = append([]Transition(nil), row...)
		}
	}
	return out
}

// SetTransitions installs a copy of a caller-built structure after checking
// its shape and that every row is a probability distribution with unique
// successors.
func (s *Solver) SetTransitions(t Transitions) error {
	if len(t) != s.nS {
		return errors.Wrapf(ErrInvalidTransitions, "have %d states, want %d", len(t), s.nS)
	}
	for st, actions := range t {
		if len(actions) != s.nA {
			return errors.Wrapf(ErrInvalidTransitions, "state %d has %d actions, want %d", st, len(actions), s.nA)
		}
		for a, row := range actions {
			if err := s.checkRow(st, a, row); err != nil {
				return err
			}
		}
	}
	s.transitions = t.Clone()
	return nil
}

func (s *Solver) checkRow(st, a int, row []Transition) error {
	seen := make(map[int]struct{}, len(row))
	sum := 0.0
	for _, tr := range row {
		if tr.Next < 0 || tr.Next >= s.nS {
			return errors.Wrapf(ErrInvalidTransitions, "s=%d a=%d successor %d out of range", st, a, tr.Next)
		}
		if _, dup := seen[tr.Next]; dup {
			return errors.Wrapf(ErrInvalidTransitions, "s=%d a=%d duplicate successor %d", st, a, tr.Next)
		}
		seen[tr.Next] = struct{}{}
		if tr.Prob < 0 {
			return &DistributionError{State: st, Action: a, Next: tr.Next}
		}
		sum += tr.Prob
	}
	if math.Abs(sum-1) > DefaultVerifyTolerance {
		return &DistributionError{State: st, Action: a, Sum: sum, Next: -1}
	}
	return nil
}

// ClearTransitions drops any installed sparse structure; sweeps go back to
// scanning Dynamic over every successor.
func (s *Solver) ClearTransitions() { s.transitions = nil }

// Sparse reports whether a sparse structure is installed.
func (s *Solver) Sparse() bool { return s.transitions != nil }

// Transitions returns a copy of the installed sparse structure, or nil.
func (s *Solver) Transitions() Transitions { return s.transitions.Clone() }

// Verify checks that every successor distribution sums to one within tol
// and contains no negative probability.
func (s *Solver) Verify(tol float64) error {
	if tol <= 0 || math.IsNaN(tol) {
		return &ConfigError{Field: "verify tolerance", Value: tol}
	}
	for st := 0; st < s.nS; st++ {
		for a := 0; a < s.nA; a++ {
			sum := 0.0
			if s.transitions != nil {
				for _, tr := range s.transitions[st][a] {
					if tr.Prob < 0 {
						return &DistributionError{State: st, Action: a, Next: tr.Next}
					}
					sum += tr.Prob
				}
			} else {
				for s1 := 0; s1 < s.nS; s1++ {
					p := s.problem.Dynamic(st, a, s1)
					if p < 0 {
						return &DistributionError{State: st, Action: a, Next: s1}
					}
					sum += p
				}
			}
			if !(math.Abs(sum-1) <= tol) {
				return &DistributionError{State: st, Action: a, Sum: sum, Next: -1}
			}
		}
	}
	glog.V(1).Infof("verified %d state-action distributions", s.nS*s.nA)
	return nil
}
