package metrics

import (
	"math"

	"github.com/san-kum/bellman/internal/bellman"
)

// contractionWindow is how many recent sweep ratios are averaged.
const contractionWindow = 10

// Contraction estimates the rate at which residuals shrink, as the
// geometric mean of the last few residual ratios. For a discounted problem
// it approaches a value no larger than the discount factor.
type Contraction struct {
	name   string
	prev   float64
	ratios []float64
}

func NewContraction() *Contraction {
	return &Contraction{name: "contraction"}
}

func (c *Contraction) Name() string {
	return c.name
}

func (c *Contraction) OnSweep(st bellman.SweepStats) {
	if c.prev > 0 && st.Residual > 0 {
		c.ratios = append(c.ratios, st.Residual/c.prev)
		if len(c.ratios) > contractionWindow {
			c.ratios = c.ratios[1:]
		}
	}
	c.prev = st.Residual
}

func (c *Contraction) Value() float64 {
	if len(c.ratios) == 0 {
		return 0
	}
	logSum := 0.0
	for _, r := range c.ratios {
		logSum += math.Log(r)
	}
	return math.Exp(logSum / float64(len(c.ratios)))
}

func (c *Contraction) Reset() {
	c.prev = 0
	c.ratios = c.ratios[:0]
}
