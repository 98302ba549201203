package metrics

import "github.com/san-kum/bellman/internal/bellman"

// Residual keeps the sup-norm change of every sweep. Value is the residual
// of the last sweep seen.
type Residual struct {
	name    string
	history []float64
	changes []int
}

func NewResidual() *Residual {
	return &Residual{name: "residual"}
}

func (r *Residual) Name() string {
	return r.name
}

func (r *Residual) OnSweep(st bellman.SweepStats) {
	r.history = append(r.history, st.Residual)
	r.changes = append(r.changes, st.PolicyChanges)
}

func (r *Residual) Value() float64 {
	if len(r.history) == 0 {
		return 0
	}
	return r.history[len(r.history)-1]
}

// History returns the residual of each sweep in order.
func (r *Residual) History() []float64 {
	h := make([]float64, len(r.history))
	copy(h, r.history)
	return h
}

// PolicyChanges returns how many states switched action in each sweep.
func (r *Residual) PolicyChanges() []int {
	c := make([]int, len(r.changes))
	copy(c, r.changes)
	return c
}

func (r *Residual) Reset() {
	r.history = r.history[:0]
	r.changes = r.changes[:0]
}
