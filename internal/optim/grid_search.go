package optim

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/san-kum/bellman/internal/config"
	"github.com/san-kum/bellman/internal/experiment"
)

// ErrUnknownParam is returned for a parameter no config field answers to.
var ErrUnknownParam = errors.New("optim: unknown parameter")

// Objectives besides the per-run metrics.
const (
	ObjectiveIterations = "iterations"
	ObjectiveElapsed    = "elapsed_ms"
)

var setters = map[string]func(*config.Config, float64){
	"discount":   func(c *config.Config, v float64) { c.Discount = &v },
	"tolerance":  func(c *config.Config, v float64) { c.Tolerance = v },
	"init":       func(c *config.Config, v float64) { c.InitialValue = v },
	"iterations": func(c *config.Config, v float64) { c.Iterations = int(v) },
	"nx":         func(c *config.Config, v float64) { c.Grid.NX = int(v) },
	"ny":         func(c *config.Config, v float64) { c.Grid.NY = int(v) },
}

// Params lists the names GridSearch accepts.
func Params() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Point is one solved combination of the grid.
type Point struct {
	Params map[string]float64
	Result *experiment.Result
	Score  float64
	Err    error
}

// GridSearch solves every combination of parameter values. Each solve runs
// on its own solver; Workers bounds how many run at once.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	Workers    int
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, errors.Errorf("optim: %d parameters but %d ranges", len(params), len(ranges))
	}
	for i, name := range params {
		if _, ok := setters[name]; !ok {
			return nil, errors.Wrapf(ErrUnknownParam, "%q (available: %v)", name, Params())
		}
		if len(ranges[i]) == 0 {
			return nil, errors.Errorf("optim: no values for %s", name)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, Workers: 4}, nil
}

// Combinations enumerates the grid, last parameter varying fastest.
func (g *GridSearch) Combinations() []map[string]float64 {
	var out []map[string]float64
	g.combine(0, map[string]float64{}, &out)
	return out
}

func (g *GridSearch) combine(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}
	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[name] = val
		g.combine(depth+1, next, out)
	}
}

// Search solves every combination on top of base and scores it by
// objective, lower being better. Points come back in grid order; best is
// the index of the lowest score among points without error, or -1.
func (g *GridSearch) Search(ctx context.Context, r *experiment.Registry, base *config.Config, objective string) ([]Point, int, error) {
	combos := g.Combinations()
	points := make([]Point, len(combos))

	workers := g.Workers
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				points[idx] = g.solve(r, base, combos[idx], objective)
			}
		}()
	}

feed:
	for i := range combos {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, -1, err
	}

	best := -1
	for i, p := range points {
		if p.Err != nil {
			continue
		}
		if best < 0 || p.Score < points[best].Score {
			best = i
		}
	}
	return points, best, nil
}

func (g *GridSearch) solve(r *experiment.Registry, base *config.Config, params map[string]float64, objective string) Point {
	cfg := *base
	if base.Discount != nil {
		d := *base.Discount
		cfg.Discount = &d
	}
	for name, v := range params {
		setters[name](&cfg, v)
	}

	pt := Point{Params: params, Score: math.Inf(1)}
	if err := cfg.Validate(); err != nil {
		pt.Err = err
		return pt
	}

	res, err := experiment.Solve(r, &cfg)
	if err != nil {
		glog.Warningf("grid point %v: %v", params, err)
		pt.Err = err
		return pt
	}
	pt.Result = res
	pt.Score, pt.Err = score(res, objective)
	glog.V(1).Infof("grid point %v: %s=%g", params, objective, pt.Score)
	return pt
}

func score(res *experiment.Result, objective string) (float64, error) {
	switch objective {
	case ObjectiveIterations:
		return float64(res.Report.Iterations), nil
	case ObjectiveElapsed:
		return float64(res.Report.Elapsed.Microseconds()) / 1000, nil
	}
	v, ok := res.Metrics[objective]
	if !ok {
		return math.Inf(1), errors.Errorf("optim: unknown objective %q", objective)
	}
	return v, nil
}
