package metrics

import "github.com/san-kum/bellman/internal/bellman"

// Stability counts the trailing sweeps in which no state changed action.
type Stability struct {
	name   string
	stable int
}

func NewStability() *Stability {
	return &Stability{name: "policy_stable_sweeps"}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) OnSweep(st bellman.SweepStats) {
	if st.PolicyChanges == 0 {
		s.stable++
	} else {
		s.stable = 0
	}
}

func (s *Stability) Value() float64 {
	return float64(s.stable)
}

func (s *Stability) Reset() {
	s.stable = 0
}
