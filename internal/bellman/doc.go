// Package bellman solves finite, discounted Markov decision processes by
// synchronous value iteration.
//
// The package defines the contract a problem definition must satisfy and
// the solver that consumes it:
//
//   - [Problem]: transition probabilities and rewards for a fixed MDP
//   - [Model]: a Problem that also knows its own sizes and discount
//   - [Solver]: owns the value function and greedy policy and improves them
//   - [Transitions]: optional precomputed sparse transition structure
//
// # Example
//
//	sol, _ := bellman.New(problem, nS, nA, 0.99)
//	sol.AnalyzeSparsity()
//	if err := sol.Verify(bellman.DefaultVerifyTolerance); err != nil {
//	    return err
//	}
//	report := sol.Improve(2000, 1e-4)
//	_ = sol.WriteSolutionFile("out.sol")
//
// # Update Semantics
//
// Sweeps are Jacobi style. Every state in a sweep is backed up against the
// value array as it was when the sweep began; the new values are written to
// a separate buffer that replaces the old one once the sweep completes.
// Gauss-Seidel (in place) updates reach the same fixed point along a
// different trajectory and are not used.
//
// # Thread Safety
//
// Solver instances are NOT thread-safe. A solver is owned by one goroutine
// for the duration of [Solver.Improve].
package bellman
