package experiment

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/san-kum/bellman/internal/bellman"
	"github.com/san-kum/bellman/internal/config"
	"github.com/san-kum/bellman/internal/metrics"
)

// Result is everything a finished run produced.
type Result struct {
	Problem  string
	Config   config.Config
	Report   bellman.Report
	Sparsity *bellman.Sparsity
	Metrics  map[string]float64
	History  []float64
	Changes  []int
	Solver   *bellman.Solver
}

type Experiment struct {
	cfg      config.Config
	solver   *bellman.Solver
	sparsity *bellman.Sparsity
	residual *metrics.Residual
	metrics  []metrics.Metric
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: *cfg}
}

// Setup builds the solver, precomputes sparse transitions and verifies the
// dynamics as the configuration asks.
func (e *Experiment) Setup(model bellman.Model, extra ...bellman.Observer) error {
	sol, err := bellman.NewFromModel(model)
	if err != nil {
		return err
	}

	if e.cfg.InitialValue != 0 {
		init := make([]float64, sol.NumStates())
		for i := range init {
			init[i] = e.cfg.InitialValue
		}
		if err := sol.SetInitialValue(init); err != nil {
			return err
		}
	}

	if e.cfg.Sparse {
		sp := sol.AnalyzeSparsity()
		e.sparsity = &sp
	}

	if e.cfg.Verify {
		if err := sol.Verify(e.cfg.VerifyTolerance); err != nil {
			return errors.Wrap(err, "verify dynamics")
		}
	}

	e.metrics = metrics.Defaults()
	for _, m := range e.metrics {
		if r, ok := m.(*metrics.Residual); ok {
			e.residual = r
		}
		sol.AddObserver(m)
	}

	for _, o := range extra {
		sol.AddObserver(o)
	}

	e.solver = sol
	return nil
}

func (e *Experiment) Run() (*Result, error) {
	if e.solver == nil {
		return nil, errors.New("experiment not setup")
	}

	glog.Infof("solving %s: %d states, %d actions", e.cfg.Problem, e.solver.NumStates(), e.solver.NumActions())
	report := e.solver.Improve(e.cfg.Iterations, e.cfg.Tolerance)

	return &Result{
		Problem:  e.cfg.Problem,
		Config:   e.cfg,
		Report:   report,
		Sparsity: e.sparsity,
		Metrics:  metrics.Collect(e.metrics),
		History:  e.residual.History(),
		Changes:  e.residual.PolicyChanges(),
		Solver:   e.solver,
	}, nil
}

// Solve looks the configured problem up in r, sets it up and runs it.
func Solve(r *Registry, cfg *config.Config, extra ...bellman.Observer) (*Result, error) {
	model, err := r.GetProblem(cfg.Problem, cfg)
	if err != nil {
		return nil, err
	}
	exp := New(cfg)
	if err := exp.Setup(model, extra...); err != nil {
		return nil, err
	}
	return exp.Run()
}
