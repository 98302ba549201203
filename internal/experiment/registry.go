package experiment

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/san-kum/bellman/internal/bellman"
	"github.com/san-kum/bellman/internal/config"
	"github.com/san-kum/bellman/internal/problems"
)

// ErrUnknownProblem is returned for a name with no registered builder.
var ErrUnknownProblem = errors.New("experiment: unknown problem")

// Builder constructs a problem from a run configuration.
type Builder func(cfg *config.Config) (bellman.Model, error)

type Registry struct {
	problems map[string]Builder
}

func NewRegistry() *Registry {
	r := &Registry{problems: make(map[string]Builder)}

	r.problems["wendyhunt"] = func(cfg *config.Config) (bellman.Model, error) {
		p := problems.WendyHunt()
		if cfg.Discount != nil {
			p.Gamma = *cfg.Discount
		}
		return p, nil
	}
	r.problems["gridboi"] = func(cfg *config.Config) (bellman.Model, error) {
		gamma := 0.99
		if cfg.Discount != nil {
			gamma = *cfg.Discount
		}
		p, err := problems.NewGridBoi(cfg.Grid.NX, cfg.Grid.NY, gamma)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	r.problems["table"] = func(cfg *config.Config) (bellman.Model, error) {
		if !cfg.HasTable() {
			return nil, errors.New("table problem needs a table section in the config")
		}
		gamma := cfg.Table.Discount
		if cfg.Discount != nil {
			gamma = *cfg.Discount
		}
		p, err := problems.NewTable(cfg.Table.Transitions, cfg.Table.Rewards, gamma)
		if err != nil {
			return nil, err
		}
		p.SetActionNames(cfg.Table.Actions...)
		return p, nil
	}

	return r
}

func (r *Registry) GetProblem(name string, cfg *config.Config) (bellman.Model, error) {
	fn, ok := r.problems[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownProblem, "%q (available: %v)", name, r.ListProblems())
	}
	p, err := fn(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "build %s", name)
	}
	return p, nil
}

func (r *Registry) ListProblems() []string {
	names := make([]string, 0, len(r.problems))
	for name := range r.problems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
