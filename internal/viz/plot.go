package viz

import (
	"math"

	"github.com/guptarohit/asciigraph"
)

const (
	plotWidth  = 80
	plotHeight = 12
)

// ResidualPlot charts log10 of the per-sweep residual.
func ResidualPlot(residuals []float64) string {
	if len(residuals) == 0 {
		return ""
	}
	data := make([]float64, len(residuals))
	for i, r := range residuals {
		if r <= 0 {
			// exact convergence; clamp to something plottable
			r = math.SmallestNonzeroFloat64
		}
		data[i] = math.Log10(r)
	}
	return asciigraph.Plot(data,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption("log10 residual per sweep"),
	)
}

// ValuePlot charts the value function over state index.
func ValuePlot(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	return asciigraph.Plot(values,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption("value by state"),
	)
}

// ChangesPlot charts how many states switched action in each sweep.
func ChangesPlot(changes []int) string {
	if len(changes) == 0 {
		return ""
	}
	data := make([]float64, len(changes))
	for i, c := range changes {
		data[i] = float64(c)
	}
	return asciigraph.Plot(data,
		asciigraph.Height(plotHeight/2),
		asciigraph.Width(plotWidth),
		asciigraph.Caption("policy changes per sweep"),
	)
}
