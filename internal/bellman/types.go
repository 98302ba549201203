package bellman

import (
	"io"
	"time"
)

// Problem supplies the dynamics and rewards of a finite MDP.
//
// Dynamic must describe a probability distribution over s1 for every fixed
// (s, a). Reward must be deterministic and free of side effects; it is
// evaluated again on every sweep.
type Problem interface {
	Dynamic(s, a, s1 int) float64
	Reward(s, a int) float64
}

// Model is a Problem that carries its own state count, action count and
// discount factor.
type Model interface {
	Problem
	NumStates() int
	NumActions() int
	Discount() float64
}

// Recorder is implemented by problems that write a richer solution table
// than the default (s, a, v) triples, typically decoding each state index
// into its coordinates.
type Recorder interface {
	RecordSolution(sol *Solver, w io.Writer) error
}

// SweepStats describes a completed sweep.
type SweepStats struct {
	Iteration     int
	Residual      float64
	PolicyChanges int
}

// Observer is notified after every sweep, once the new value and policy
// arrays are in place.
type Observer interface {
	OnSweep(stats SweepStats)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(SweepStats)

func (f ObserverFunc) OnSweep(stats SweepStats) { f(stats) }

// Report summarises a call to Improve. Non-convergence is not an error;
// the value and policy arrays remain usable either way.
type Report struct {
	Iterations    int
	MaxIterations int
	Converged     bool
	Residual      float64
	Elapsed       time.Duration
}

// Sparsity describes the fan-out of an installed transition structure.
type Sparsity struct {
	Entries    int
	MeanFanOut float64
	MaxFanOut  int
	Density    float64
}
