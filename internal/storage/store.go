package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/san-kum/bellman/internal/bellman"
)

const (
	metadataFile  = "metadata.json"
	solutionFile  = "solution.csv"
	historyFile   = "history.csv"
	annotatedFile = "annotated.txt"
)

// ErrNotAnnotated is returned for runs whose problem has no richer table.
var ErrNotAnnotated = errors.New("storage: run has no annotated table")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID            string             `json:"id"`
	Problem       string             `json:"problem"`
	Timestamp     time.Time          `json:"timestamp"`
	States        int                `json:"states"`
	Actions       int                `json:"actions"`
	Discount      float64            `json:"discount"`
	MaxIterations int                `json:"max_iterations"`
	Tolerance     float64            `json:"tolerance"`
	Iterations    int                `json:"iterations"`
	Converged     bool               `json:"converged"`
	Residual      float64            `json:"residual"`
	ElapsedMs     float64            `json:"elapsed_ms"`
	Sparse        bool               `json:"sparse"`
	Metrics       map[string]float64 `json:"metrics"`
	Annotated     bool               `json:"annotated"`
}

// Run is what Save persists.
type Run struct {
	Problem   string
	Tolerance float64
	Report    bellman.Report
	Metrics   map[string]float64
	History   []float64
	Changes   []int
	Solver    *bellman.Solver
}

// Save writes a new run directory holding metadata, the solution table and
// the per-sweep residual history.
func (s *Store) Save(run Run) (string, error) {
	if run.Solver == nil {
		return "", errors.New("storage: run has no solver")
	}
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", run.Problem, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", errors.Wrap(err, "create run directory")
	}

	sol := run.Solver
	_, annotated := sol.Problem().(bellman.Recorder)
	meta := RunMetadata{
		ID:            runID,
		Problem:       run.Problem,
		Timestamp:     now,
		States:        sol.NumStates(),
		Actions:       sol.NumActions(),
		Discount:      sol.Discount(),
		MaxIterations: run.Report.MaxIterations,
		Tolerance:     run.Tolerance,
		Iterations:    run.Report.Iterations,
		Converged:     run.Report.Converged,
		Residual:      run.Report.Residual,
		ElapsedMs:     float64(run.Report.Elapsed.Microseconds()) / 1000,
		Sparse:        sol.Sparse(),
		Metrics:       run.Metrics,
		Annotated:     annotated,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	if err := sol.WriteSolutionFile(filepath.Join(runDir, solutionFile)); err != nil {
		return "", err
	}

	if annotated {
		if err := writeAnnotated(filepath.Join(runDir, annotatedFile), sol); err != nil {
			return "", err
		}
	}

	if err := writeHistory(filepath.Join(runDir, historyFile), run.History, run.Changes); err != nil {
		return "", err
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create metadata")
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "encode metadata")
	}
	return f.Close()
}

func writeAnnotated(path string, sol *bellman.Solver) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create annotated solution")
	}
	defer f.Close()

	if err := sol.Record(f); err != nil {
		return errors.Wrap(err, "record annotated solution")
	}
	return f.Close()
}

func writeHistory(path string, history []float64, changes []int) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create history")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"sweep", "residual", "policy_changes"}); err != nil {
		return err
	}
	for i, r := range history {
		c := 0
		if i < len(changes) {
			c = changes[i]
		}
		row := []string{strconv.Itoa(i + 1), bellman.FormatValue(r), strconv.Itoa(c)}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "write history")
	}
	return f.Close()
}

// List returns the metadata of every stored run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}

		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, errors.Wrapf(err, "load run %s", runID)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "decode run %s", runID)
	}

	return &meta, nil
}

// LoadSolution parses the stored solution table of a run.
func (s *Store) LoadSolution(runID string) ([]bellman.Row, error) {
	return bellman.ReadSolutionFile(filepath.Join(s.baseDir, runID, solutionFile))
}

// SolutionPath returns where the solution table of a run lives.
func (s *Store) SolutionPath(runID string) string {
	return filepath.Join(s.baseDir, runID, solutionFile)
}

// AnnotatedPath returns where the problem-specific table of a run lives.
func (s *Store) AnnotatedPath(runID string) string {
	return filepath.Join(s.baseDir, runID, annotatedFile)
}

// LoadAnnotated returns the problem-specific table of a run, or
// ErrNotAnnotated when its problem writes none.
func (s *Store) LoadAnnotated(runID string) ([]byte, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	if !meta.Annotated {
		return nil, errors.Wrapf(ErrNotAnnotated, "run %s (%s)", runID, meta.Problem)
	}
	data, err := os.ReadFile(s.AnnotatedPath(runID))
	if err != nil {
		return nil, errors.Wrapf(err, "read annotated table of %s", runID)
	}
	return data, nil
}

// LoadHistory returns the residual and policy change count of each sweep.
func (s *Store) LoadHistory(runID string) ([]float64, []int, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, historyFile))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open history of %s", runID)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 3

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read history of %s", runID)
	}

	if len(records) < 2 {
		return []float64{}, []int{}, nil
	}

	residuals := make([]float64, 0, len(records)-1)
	changes := make([]int, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		res, err := strconv.ParseFloat(records[i][1], 64)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "history line %d", i+1)
		}
		c, err := strconv.Atoi(records[i][2])
		if err != nil {
			return nil, nil, errors.Wrapf(err, "history line %d", i+1)
		}
		residuals = append(residuals, res)
		changes = append(changes, c)
	}

	return residuals, changes, nil
}
