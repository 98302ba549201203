package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/bellman/internal/bellman"
)

const (
	barWidth     = 40
	sparkWidth   = 60
	historyLimit = 600
)

// SweepMsg carries one completed sweep into the progress view.
type SweepMsg bellman.SweepStats

// DoneMsg ends the progress view with the solver's report or an error.
type DoneMsg struct {
	Report bellman.Report
	Err    error
}

// Progress follows a running solve. Send it SweepMsg values as sweeps
// complete and a single DoneMsg when Improve returns.
type Progress struct {
	problem       string
	maxIterations int
	tolerance     float64

	last    bellman.SweepStats
	history []float64
	started time.Time

	done    bool
	report  bellman.Report
	err     error
	aborted bool
}

func NewProgress(problem string, maxIterations int, tolerance float64) Progress {
	return Progress{
		problem:       problem,
		maxIterations: maxIterations,
		tolerance:     tolerance,
		started:       time.Now(),
	}
}

func (m Progress) Init() tea.Cmd { return nil }

func (m Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.aborted = !m.done
			return m, tea.Quit
		}
	case SweepMsg:
		m.last = bellman.SweepStats(msg)
		m.history = append(m.history, logResidual(msg.Residual))
		if len(m.history) > historyLimit {
			m.history = m.history[len(m.history)-historyLimit:]
		}
	case DoneMsg:
		m.done = true
		m.report = msg.Report
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m Progress) View() string {
	var b strings.Builder

	b.WriteString(GradientTitle.Render("bellman · " + m.problem))
	b.WriteString("\n\n")

	frac := 0.0
	if m.maxIterations > 0 {
		frac = float64(m.last.Iteration) / float64(m.maxIterations)
	}
	b.WriteString(ProgressBar(frac, barWidth))
	b.WriteString(fmt.Sprintf(" %d/%d\n\n", m.last.Iteration, m.maxIterations))

	b.WriteString(MetricLabel.Render("residual"))
	b.WriteString(MetricValue.Render(fmt.Sprintf("%.3e", m.last.Residual)))
	b.WriteString(Subtle.Render(fmt.Sprintf("  (tol %.1e)", m.tolerance)))
	b.WriteString("\n")
	b.WriteString(MetricLabel.Render("policy changes"))
	b.WriteString(MetricValue.Render(fmt.Sprintf("%d", m.last.PolicyChanges)))
	b.WriteString("\n")
	b.WriteString(MetricLabel.Render("elapsed"))
	b.WriteString(MetricValue.Render(m.elapsed().Round(time.Millisecond).String()))
	b.WriteString("\n\n")

	b.WriteString(SparklineChart(m.history, sparkWidth))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(StatusFailed.Render("failed: " + m.err.Error()))
	case m.done && m.report.Converged:
		b.WriteString(StatusRunning.Render(fmt.Sprintf("converged after %d sweeps", m.report.Iterations)))
	case m.done:
		b.WriteString(StatusStopped.Render(fmt.Sprintf("stopped after %d sweeps, residual %.3e", m.report.Iterations, m.report.Residual)))
	default:
		b.WriteString(KeyHint.Render("q: quit"))
	}
	b.WriteString("\n")

	return Panel.Render(b.String())
}

func (m Progress) elapsed() time.Duration {
	if m.done {
		return m.report.Elapsed
	}
	return time.Since(m.started)
}

// Done reports whether the solve finished, as opposed to the view being
// closed by the user.
func (m Progress) Done() bool { return m.done }

// Aborted reports whether the user quit before the solve finished.
func (m Progress) Aborted() bool { return m.aborted }

func (m Progress) Report() bellman.Report { return m.report }

func (m Progress) Err() error { return m.err }

// Last returns the most recent sweep seen.
func (m Progress) Last() bellman.SweepStats { return m.last }

func logResidual(r float64) float64 {
	if r <= 0 {
		return math.Log10(math.SmallestNonzeroFloat64)
	}
	return math.Log10(r)
}
