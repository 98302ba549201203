package bellman

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// SolutionHeader is the first line of a solution table.
const SolutionHeader = "s, a, v"

const (
	bannerWidth = 16
	printTitle  = "Bellman Solution"
	printHeader = "s | a | v"
)

// Row is one (state, action, value) triple of a solution table.
type Row struct {
	State  int
	Action int
	Value  float64
}

// Rows returns the current solution as triples in state order.
func (s *Solver) Rows() []Row {
	rows := make([]Row, s.nS)
	for st := 0; st < s.nS; st++ {
		rows[st] = Row{State: st, Action: s.policy[st], Value: s.value[st]}
	}
	return rows
}

// FormatValue renders a value with the shortest text that parses back to
// the same float64.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteSolution writes the comma-delimited solution table to w.
func (s *Solver) WriteSolution(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, SolutionHeader)
	for st := 0; st < s.nS; st++ {
		fmt.Fprintf(bw, "%d, %d, %s\n", st, s.policy[st], FormatValue(s.value[st]))
	}
	return bw.Flush()
}

// WriteSolutionFile creates or truncates path and writes the solution
// table to it.
func (s *Solver) WriteSolutionFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create solution file")
	}
	defer f.Close()

	if err := s.WriteSolution(f); err != nil {
		return errors.Wrapf(err, "write solution to %s", path)
	}
	return f.Close()
}

// PrintSolution writes the pipe-delimited console rendering of the solution.
func (s *Solver) PrintSolution(w io.Writer) error {
	bw := bufio.NewWriter(w)
	banner := strings.Repeat("=", bannerWidth)
	fmt.Fprintln(bw, banner)
	fmt.Fprintln(bw, printTitle)
	fmt.Fprintln(bw, printHeader)
	fmt.Fprintln(bw, strings.Repeat("-", bannerWidth))
	for st := 0; st < s.nS; st++ {
		fmt.Fprintf(bw, "%d | %d | %s\n", st, s.policy[st], FormatValue(s.value[st]))
	}
	fmt.Fprintln(bw, banner)
	return bw.Flush()
}

// ReadSolution parses a table produced by WriteSolution.
func ReadSolution(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = 3

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.Wrap(ErrMalformedSolution, "empty input")
	}
	if err != nil {
		return nil, errors.Wrap(ErrMalformedSolution, err.Error())
	}
	if strings.Join(header, ", ") != SolutionHeader {
		return nil, errors.Wrapf(ErrMalformedSolution, "unexpected header %q", strings.Join(header, ","))
	}

	rows := make([]Row, 0)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(ErrMalformedSolution, err.Error())
		}
		row, err := parseRow(record)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedSolution, "line %d: %v", len(rows)+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadSolutionFile parses the solution table stored at path.
func ReadSolutionFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open solution file")
	}
	defer f.Close()
	return ReadSolution(f)
}

func parseRow(record []string) (Row, error) {
	st, err := strconv.Atoi(record[0])
	if err != nil {
		return Row{}, err
	}
	a, err := strconv.Atoi(record[1])
	if err != nil {
		return Row{}, err
	}
	v, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return Row{}, err
	}
	return Row{State: st, Action: a, Value: v}, nil
}

// Record writes the solution through the problem's own Recorder when it
// has one, falling back to WriteSolution.
func (s *Solver) Record(w io.Writer) error {
	if rec, ok := s.problem.(Recorder); ok {
		return rec.RecordSolution(s, w)
	}
	return s.WriteSolution(w)
}
