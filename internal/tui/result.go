package tui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/apbtype/internal/model"
	statsPkg "github.com/verte-zerg/apbtype/internal/stats"
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

var matrixTabs = []struct {
	title string
	kind  statsPkg.MatrixKind
}{
	{"Attempts", statsPkg.KindAttempts},
	{"Errors", statsPkg.KindErrors},
	{"Avg (ms)", statsPkg.KindAvgLatency},
}

// resultView shows phase metrics and the transition matrices of a report.
type resultView struct {
	report    statsPkg.Report
	phases    []model.Phase
	phaseIdx  int
	activeTab int
	summary   table.Model
	matrix    viewport.Model
	width     int
	height    int
}

func newResultView(report statsPkg.Report) *resultView {
	r := &resultView{report: report, matrix: viewport.New(0, 0)}
	for _, s := range report.Summaries {
		r.phases = append(r.phases, s.Phase)
	}
	r.summary = buildSummaryTable(report.Summaries)
	r.renderMatrix()
	return r
}

func buildSummaryTable(summaries []model.PhaseSummary) table.Model {
	columns := []table.Column{
		{Title: "Phase", Width: 18},
		{Title: "WPM", Width: 7},
		{Title: "Accuracy", Width: 9},
		{Title: "Typed", Width: 6},
		{Title: "Time (s)", Width: 9},
		{Title: "Attempts", Width: 9},
		{Title: "Errors", Width: 7},
	}
	rows := make([]table.Row, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, table.Row{
			s.Phase.Title(),
			fmt.Sprintf("%.1f", s.WPM),
			fmt.Sprintf("%.1f%%", s.Accuracy*100),
			fmt.Sprintf("%d", s.TypedChars),
			fmt.Sprintf("%.1f", float64(s.ActiveMs)/1000),
			fmt.Sprintf("%d", s.Attempts),
			fmt.Sprintf("%d", s.Errors),
		})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(len(rows)+1),
	)
	t.SetStyles(summaryTableStyles())
	return t
}

func summaryTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	// No row is focused; keep every row plain.
	styles.Selected = styles.Cell
	return styles
}

func (r *resultView) setSize(width, height int) {
	r.width = width
	r.height = height
	if width <= 0 || height <= 0 {
		return
	}
	r.summary.SetWidth(width)
	used := lipgloss.Height(r.headerView())
	r.matrix.Width = width
	r.matrix.Height = maxInt(1, height-used-2)
}

func (r *resultView) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "left", "h":
		r.activeTab = (r.activeTab + len(matrixTabs) - 1) % len(matrixTabs)
		r.renderMatrix()
		return nil
	case "right", "l", "tab":
		r.activeTab = (r.activeTab + 1) % len(matrixTabs)
		r.renderMatrix()
		return nil
	case "p":
		if len(r.phases) > 0 {
			r.phaseIdx = (r.phaseIdx + 1) % len(r.phases)
			r.renderMatrix()
		}
		return nil
	case "g", "home":
		r.matrix.GotoTop()
		return nil
	case "G", "end":
		r.matrix.GotoBottom()
		return nil
	}
	var cmd tea.Cmd
	r.matrix, cmd = r.matrix.Update(msg)
	return cmd
}

func (r *resultView) currentPhase() (model.Phase, bool) {
	if len(r.phases) == 0 {
		return "", false
	}
	return r.phases[r.phaseIdx], true
}

func (r *resultView) renderMatrix() {
	phase, ok := r.currentPhase()
	if !ok {
		r.matrix.SetContent("No phases recorded.")
		return
	}
	m, ok := r.report.Matrices[phase]
	if !ok || m.TotalAttempts() == 0 {
		r.matrix.SetContent(fmt.Sprintf("No transitions recorded in phase %s.", phase))
		return
	}
	var buf bytes.Buffer
	if err := statsPkg.RenderMatrix(&buf, m, matrixTabs[r.activeTab].kind); err != nil {
		r.matrix.SetContent(fmt.Sprintf("Failed to render matrix: %v", err))
		return
	}
	r.matrix.SetContent(strings.TrimRight(buf.String(), "\n"))
}

func (r *resultView) renderTabs() string {
	parts := make([]string, 0, len(matrixTabs)+1)
	if phase, ok := r.currentPhase(); ok {
		parts = append(parts, activeNavStyle.Render("Phase "+string(phase)))
	}
	for i, tab := range matrixTabs {
		if i == r.activeTab {
			parts = append(parts, activeNavStyle.Render(tab.title))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab.title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (r *resultView) headerView() string {
	lines := []string{titleStyle.Render("Results"), r.summary.View()}
	if len(r.report.Targets) > 0 {
		top := statsPkg.TopTargets(r.report.Targets, 10)
		lines = append(lines, headerStyle.Render("Targets: "+statsPkg.FormatTargets(top)))
	}
	lines = append(lines, r.renderTabs())
	return strings.Join(lines, "\n")
}

func (r *resultView) view() string {
	help := headerStyle.Render("Tabs: left/right  Phase: p  Scroll: up/down/pgup/pgdn  Quit: q")
	return r.headerView() + "\n" + r.matrix.View() + "\n" + help
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
