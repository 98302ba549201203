package bellman

import (
	"bytes"
	"errors"
	"io"
	"math"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteSolutionRoundTrip(t *testing.T) {
	sol, err := New(chainProblem(), 4, 2, 0.95)
	if err != nil {
		t.Fatal(err)
	}
	sol.Improve(37, 1e-12)

	var buf bytes.Buffer
	if err := sol.WriteSolution(&buf); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "s, a, v" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}

	rows, err := ReadSolution(&buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	want := sol.Rows()
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i := range rows {
		if rows[i] != want[i] {
			t.Errorf("row %d: got %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestWriteSolutionFile(t *testing.T) {
	sol, err := New(selfLoop(1), 1, 1, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	sol.Improve(3, 1e-9)

	path := filepath.Join(t.TempDir(), "single.sol")
	if err := sol.WriteSolutionFile(path); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	rows, err := ReadSolutionFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Value != 1.75 || rows[0].Action != 0 {
		t.Errorf("unexpected rows %+v", rows)
	}
}

func TestWriteSolutionRowFormat(t *testing.T) {
	sol, err := New(selfLoop(1), 1, 1, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	sol.Improve(2, 1e-9)

	var buf bytes.Buffer
	if err := sol.WriteSolution(&buf); err != nil {
		t.Fatal(err)
	}
	expected := "s, a, v\n0, 0, 1.5\n"
	if buf.String() != expected {
		t.Errorf("got %q, want %q", buf.String(), expected)
	}
}

func TestPrintSolution(t *testing.T) {
	p := &tableProblem{
		T: [][][]float64{{{1, 0}, {1, 0}}, {{0, 1}, {0, 1}}},
		R: [][]float64{{1, 0}, {0, 2}},
	}
	sol, err := New(p, 2, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	sol.Improve(1, 1e-9)

	var buf bytes.Buffer
	if err := sol.PrintSolution(&buf); err != nil {
		t.Fatal(err)
	}

	expected := "================\n" +
		"Bellman Solution\n" +
		"s | a | v\n" +
		"----------------\n" +
		"0 | 0 | 1\n" +
		"1 | 1 | 2\n" +
		"================\n"
	if buf.String() != expected {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), expected)
	}
}

func TestReadSolutionMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"wrong header", "state, action, value\n0, 0, 1\n"},
		{"missing column", "s, a, v\n0, 0\n"},
		{"bad state", "s, a, v\nx, 0, 1\n"},
		{"bad value", "s, a, v\n0, 0, one\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSolution(strings.NewReader(tt.input))
			if !errors.Is(err, ErrMalformedSolution) {
				t.Errorf("expected ErrMalformedSolution, got %v", err)
			}
		})
	}
}

func TestFormatValueRoundTrips(t *testing.T) {
	for _, v := range []float64{0, 1, -5, 1.0 / 3, 98.76543210123, math.Inf(-1), 1e-300} {
		rows, err := ReadSolution(strings.NewReader("s, a, v\n0, 0, " + FormatValue(v) + "\n"))
		if err != nil {
			t.Fatalf("v=%v: %v", v, err)
		}
		if rows[0].Value != v {
			t.Errorf("round trip of %v gave %v", v, rows[0].Value)
		}
	}
}

type recordingProblem struct {
	tableProblem
	called bool
}

func (p *recordingProblem) RecordSolution(sol *Solver, w io.Writer) error {
	p.called = true
	_, err := w.Write([]byte("custom\n"))
	return err
}

func TestRecordUsesRecorder(t *testing.T) {
	p := &recordingProblem{tableProblem: *selfLoop(1)}
	sol, err := New(p, 1, 1, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := sol.Record(&buf); err != nil {
		t.Fatal(err)
	}
	if !p.called || buf.String() != "custom\n" {
		t.Errorf("recorder not used, output %q", buf.String())
	}

	plain, _ := New(selfLoop(1), 1, 1, 0.5)
	buf.Reset()
	if err := plain.Record(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), SolutionHeader) {
		t.Errorf("expected default table, got %q", buf.String())
	}
}
