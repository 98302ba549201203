package problems

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/san-kum/bellman/internal/bellman"
	"github.com/san-kum/bellman/internal/codec"
)

// Grid-Boi actions.
const (
	Wait = iota
	Up
	Down
	Left
	Right
	numGridActions
)

const (
	GooReward = 1.0
	GobReward = -5.0
)

var gridActionNames = [numGridActions]string{"wait", "up", "down", "left", "right"}

// Cell is a grid position.
type Cell struct {
	X, Y int
}

func (c Cell) up() Cell    { return Cell{c.X, c.Y + 1} }
func (c Cell) down() Cell  { return Cell{c.X, c.Y - 1} }
func (c Cell) left() Cell  { return Cell{c.X - 1, c.Y} }
func (c Cell) right() Cell { return Cell{c.X + 1, c.Y} }

// GridState places the boi, the gob and the goo on the grid.
type GridState struct {
	Boi, Gob, Goo Cell
}

// GridBoi is a pursuit game on an nX x nY grid. The boi moves where it is
// told, stopping at walls. The gob wanders uniformly over staying put and
// its in-grid neighbours. The goo stays put until the boi reaches it, then
// respawns uniformly over the grid. Touching the goo pays GooReward and
// sharing a cell with the gob pays GobReward.
type GridBoi struct {
	NX, NY int
	Gamma  float64

	codec  *codec.Codec
	states []GridState
}

// NewGridBoi enumerates every (boi, gob, goo) placement on the grid.
func NewGridBoi(nX, nY int, gamma float64) (*GridBoi, error) {
	if nX < 2 || nY < 2 {
		return nil, errors.Errorf("grid-boi needs at least a 2x2 grid, got %dx%d", nX, nY)
	}
	c, err := codec.New(nX, nY, nX, nY, nX, nY)
	if err != nil {
		return nil, errors.Wrap(err, "grid-boi state space")
	}

	g := &GridBoi{NX: nX, NY: nY, Gamma: gamma, codec: c, states: make([]GridState, c.Size())}
	for i := range g.states {
		coords, err := c.Decode(i)
		if err != nil {
			return nil, err
		}
		g.states[i] = GridState{
			Boi: Cell{coords[0], coords[1]},
			Gob: Cell{coords[2], coords[3]},
			Goo: Cell{coords[4], coords[5]},
		}
	}
	return g, nil
}

func (g *GridBoi) NumStates() int    { return len(g.states) }
func (g *GridBoi) NumActions() int   { return numGridActions }
func (g *GridBoi) Discount() float64 { return g.Gamma }

func (g *GridBoi) ActionName(a int) string {
	if a >= 0 && a < numGridActions {
		return gridActionNames[a]
	}
	return fmt.Sprintf("a%d", a)
}

// State decodes a state index.
func (g *GridBoi) State(s int) GridState { return g.states[s] }

// Index encodes a placement back into a state index.
func (g *GridBoi) Index(st GridState) (int, error) {
	return g.codec.Encode(st.Boi.X, st.Boi.Y, st.Gob.X, st.Gob.Y, st.Goo.X, st.Goo.Y)
}

// move returns where the boi ends up after action a.
func (g *GridBoi) move(c Cell, a int) Cell {
	switch a {
	case Up:
		if c.Y < g.NY-1 {
			return c.up()
		}
	case Down:
		if c.Y > 0 {
			return c.down()
		}
	case Left:
		if c.X > 0 {
			return c.left()
		}
	case Right:
		if c.X < g.NX-1 {
			return c.right()
		}
	}
	return c
}

// gobMoves counts staying put plus every in-grid neighbour.
func (g *GridBoi) gobMoves(c Cell) int {
	n := 5
	if c.X == 0 || c.X == g.NX-1 {
		n--
	}
	if c.Y == 0 || c.Y == g.NY-1 {
		n--
	}
	return n
}

func (g *GridBoi) Dynamic(si, a, s1i int) float64 {
	s, s1 := g.states[si], g.states[s1i]

	if s1.Boi != g.move(s.Boi, a) {
		return 0
	}

	switch s1.Gob {
	case s.Gob, s.Gob.up(), s.Gob.down(), s.Gob.left(), s.Gob.right():
	default:
		return 0
	}
	p := 1.0 / float64(g.gobMoves(s.Gob))

	if s.Boi == s.Goo {
		p *= 1.0 / float64(g.NX*g.NY)
	} else if s1.Goo != s.Goo {
		return 0
	}
	return p
}

func (g *GridBoi) Reward(si, a int) float64 {
	s := g.states[si]
	if s.Boi == s.Goo {
		return GooReward
	}
	if s.Boi == s.Gob {
		return GobReward
	}
	return 0
}

// RecordSolution writes the grid size on the first line, then one row per
// state with the decoded coordinates in place of the state index.
func (g *GridBoi) RecordSolution(sol *bellman.Solver, w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n", g.NX, g.NY)
	fmt.Fprintln(bw, "boi_x, boi_y,  gob_x, gob_y,  goo_x, goo_y,  action, value")

	value, policy := sol.Value(), sol.Policy()
	for i, s := range g.states {
		fmt.Fprintf(bw, "%d, %d,  %d, %d,  %d, %d,  %d, %s\n",
			s.Boi.X, s.Boi.Y, s.Gob.X, s.Gob.Y, s.Goo.X, s.Goo.Y,
			policy[i], bellman.FormatValue(value[i]))
	}
	return bw.Flush()
}
