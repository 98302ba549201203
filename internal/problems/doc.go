// Package problems provides Markov decision processes for the solver.
//
//   - [Table]: dynamics and rewards given as dense lookup tables
//   - [WendyHunt]: the three-state, two-action textbook table problem
//   - [GridBoi]: a pursuit game on a grid whose state is encoded with
//     [codec.Codec]
//
// Every problem implements [bellman.Model].
package problems
