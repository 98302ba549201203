package problems

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrTableShape indicates transition or reward tables of inconsistent size.
var ErrTableShape = errors.New("problems: inconsistent table shape")

// Table is an MDP given by T[a][s][s1] transition probabilities and R[a][s]
// rewards.
type Table struct {
	T      [][][]float64
	R      [][]float64
	Gamma  float64
	nS, nA int
	labels []string
}

// NewTable checks that T is nA x nS x nS and R is nA x nS.
func NewTable(t [][][]float64, r [][]float64, gamma float64) (*Table, error) {
	nA := len(t)
	if nA == 0 {
		return nil, errors.Wrap(ErrTableShape, "no actions")
	}
	nS := len(t[0])
	if nS == 0 {
		return nil, errors.Wrap(ErrTableShape, "no states")
	}
	if len(r) != nA {
		return nil, errors.Wrapf(ErrTableShape, "rewards have %d actions, transitions %d", len(r), nA)
	}
	for a := 0; a < nA; a++ {
		if len(t[a]) != nS {
			return nil, errors.Wrapf(ErrTableShape, "T[%d] has %d rows, want %d", a, len(t[a]), nS)
		}
		for s := 0; s < nS; s++ {
			if len(t[a][s]) != nS {
				return nil, errors.Wrapf(ErrTableShape, "T[%d][%d] has %d columns, want %d", a, s, len(t[a][s]), nS)
			}
		}
		if len(r[a]) != nS {
			return nil, errors.Wrapf(ErrTableShape, "R[%d] has %d entries, want %d", a, len(r[a]), nS)
		}
	}
	return &Table{T: t, R: r, Gamma: gamma, nS: nS, nA: nA}, nil
}

func (p *Table) Dynamic(s, a, s1 int) float64 { return p.T[a][s][s1] }
func (p *Table) Reward(s, a int) float64      { return p.R[a][s] }
func (p *Table) NumStates() int               { return p.nS }
func (p *Table) NumActions() int              { return p.nA }
func (p *Table) Discount() float64            { return p.Gamma }

// SetActionNames attaches display names to the actions.
func (p *Table) SetActionNames(names ...string) { p.labels = names }

func (p *Table) ActionName(a int) string {
	if a >= 0 && a < len(p.labels) {
		return p.labels[a]
	}
	return fmt.Sprintf("a%d", a)
}
