package metrics

import "github.com/san-kum/bellman/internal/bellman"

// Metric summarises the sweeps of an Improve call into a single number.
// Every Metric is a bellman.Observer.
type Metric interface {
	bellman.Observer
	Name() string
	Value() float64
	Reset()
}

// Collect reads every metric into a name -> value map.
func Collect(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}

// Defaults returns the metrics recorded for every run, a *Residual among
// them.
func Defaults() []Metric {
	return []Metric{
		NewResidual(),
		NewContraction(),
		NewStability(),
	}
}
