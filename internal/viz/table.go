package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/bellman/internal/bellman"
)

// ActionNamer is implemented by problems that name their actions.
type ActionNamer interface {
	ActionName(a int) string
}

var (
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
	stateStyle  = cellStyle.Foreground(lipgloss.Color("245")).Align(lipgloss.Right)
	actionStyle = cellStyle.Foreground(lipgloss.Color("213"))
	posStyle    = cellStyle.Foreground(lipgloss.Color("82")).Align(lipgloss.Right)
	negStyle    = cellStyle.Foreground(lipgloss.Color("203")).Align(lipgloss.Right)
)

// RenderSolution renders rows as a styled s | a | v table. At most limit
// rows are shown when limit is positive.
func RenderSolution(title string, rows []bellman.Row, namer ActionNamer, limit int) string {
	shown := rows
	if limit > 0 && len(rows) > limit {
		shown = rows[:limit]
	}

	sw := len("s")
	aw := len("a")
	vw := len("v")
	cells := make([][3]string, len(shown))
	for i, r := range shown {
		a := fmt.Sprintf("%d", r.Action)
		if namer != nil {
			a = fmt.Sprintf("%d %s", r.Action, namer.ActionName(r.Action))
		}
		cells[i] = [3]string{fmt.Sprintf("%d", r.State), a, bellman.FormatValue(r.Value)}
		sw = max(sw, len(cells[i][0]))
		aw = max(aw, len(cells[i][1]))
		vw = max(vw, len(cells[i][2]))
	}

	var b strings.Builder
	b.WriteString(GradientTitle.Render(title))
	b.WriteString("\n")
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		cellStyle.Width(sw+2).Align(lipgloss.Right).Render("s"),
		cellStyle.Width(aw+2).Render("a"),
		cellStyle.Width(vw+2).Align(lipgloss.Right).Render("v"),
	)
	b.WriteString(HeaderStyle.Render(header))
	b.WriteString("\n")

	for i, c := range cells {
		vs := posStyle
		if shown[i].Value < 0 {
			vs = negStyle
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			stateStyle.Width(sw+2).Render(c[0]),
			actionStyle.Width(aw+2).Render(c[1]),
			vs.Width(vw+2).Render(c[2]),
		))
		b.WriteString("\n")
	}

	if len(shown) < len(rows) {
		b.WriteString(Subtle.Render(fmt.Sprintf("... %d more states", len(rows)-len(shown))))
		b.WriteString("\n")
	}
	return b.String()
}
