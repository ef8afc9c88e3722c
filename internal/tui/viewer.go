// Package tui is the interactive terminal viewer for simulation runs.
package tui

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/kinsim/internal/sim"
	"github.com/san-kum/kinsim/internal/viz"
)

type state int

const (
	stateRunning state = iota
	stateView
)

type view int

const (
	viewSpecies view = iota
	viewExtents
)

const (
	trendWidth = 16
	plotHeight = 10
)

type model struct {
	state state
	title string

	res    *sim.Result
	err    error
	view   view
	window int // -1 shows every window
	table  table.Model

	spinner spinner.Model
	done    int
	total   int
	reached float64

	width  int
	height int
}

func newModel(title string) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = viz.Title
	return model{
		title:   title,
		window:  -1,
		spinner: sp,
		width:   80,
		height:  24,
	}
}

// NewViewer returns the model for a finished run.
func NewViewer(title string, res *sim.Result) tea.Model {
	m := newModel(title)
	m.state = stateView
	m.res = res
	m.total = len(res.Windows)
	m.done = res.Store.Len()
	m.rebuild()
	return m
}

func (m model) Init() tea.Cmd {
	if m.state == stateRunning {
		return m.spinner.Tick
	}
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.state == stateView {
			m.rebuild()
		}
		return m, nil
	case windowMsg:
		m.done++
		m.reached = msg.reached
		return m, nil
	case resultMsg:
		m.err = msg.err
		if msg.res != nil {
			m.res = msg.res
			m.total = len(msg.res.Windows)
			m.done = msg.res.Store.Len()
			if m.done > 0 {
				m.state = stateView
				m.rebuild()
			}
		}
		return m, nil
	case spinner.TickMsg:
		if m.state != stateRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	}
	if m.state != stateView {
		return m, nil
	}

	switch msg.String() {
	case "tab":
		if m.res.Config.Diagnostics {
			m.view = 1 - m.view
			m.rebuild()
		}
		return m, nil
	case "]":
		m.window++
		if m.window >= m.res.Store.Len() {
			m.window = -1
		}
		m.rebuild()
		return m, nil
	case "[":
		m.window--
		if m.window < -1 {
			m.window = m.res.Store.Len() - 1
		}
		m.rebuild()
		return m, nil
	case "t":
		names := viz.ThemeNames()
		for i, n := range names {
			if n == viz.CurrentTheme.Name {
				viz.SetTheme(names[(i+1)%len(names)])
				break
			}
		}
		m.rebuild()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// series returns column col of the current view and window.
func (m model) series(col int) (times, values []float64) {
	st := m.res.Store
	if m.window < 0 {
		if m.view == viewExtents {
			return st.ExtentSeries(col)
		}
		return st.Series(col)
	}

	tr := st.Windows()[m.window]
	g := tr.Species
	if m.view == viewExtents {
		g = tr.Extents
	}
	if g == nil {
		return nil, nil
	}
	for t := 0; t <= tr.Top(); t++ {
		times = append(times, tr.Time(t))
		values = append(values, g.At(t, col))
	}
	return times, values
}

func (m model) names() []string {
	if m.view == viewExtents {
		return m.res.Network.Labels()
	}
	return m.res.Network.Names()
}

func (m *model) rebuild() {
	cursor := m.table.Cursor()

	first := "species"
	if m.view == viewExtents {
		first = "reaction"
	}
	columns := []table.Column{
		{Title: first, Width: 12},
		{Title: "start", Width: 12},
		{Title: "end", Width: 12},
		{Title: "min", Width: 12},
		{Title: "max", Width: 12},
		{Title: "trend", Width: trendWidth},
	}

	var rows []table.Row
	for i, name := range m.names() {
		_, vs := m.series(i)
		if len(vs) == 0 {
			rows = append(rows, table.Row{name, "-", "-", "-", "-", ""})
			continue
		}
		lo, hi := vs[0], vs[0]
		for _, v := range vs {
			lo = min(lo, v)
			hi = max(hi, v)
		}
		rows = append(rows, table.Row{
			name,
			fmt.Sprintf("%.5g", vs[0]),
			fmt.Sprintf("%.5g", vs[len(vs)-1]),
			fmt.Sprintf("%.5g", lo),
			fmt.Sprintf("%.5g", hi),
			viz.Sparkline(vs, trendWidth),
		})
	}

	height := max(min(len(rows), m.height-plotHeight-10), 3)
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(viz.CurrentTheme.Muted).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(viz.CurrentTheme.Text).
		Background(viz.CurrentTheme.Accent).
		Bold(false)
	t.SetStyles(s)
	if cursor < len(rows) {
		t.SetCursor(cursor)
	}
	m.table = t
}

func (m model) View() string {
	switch m.state {
	case stateRunning:
		return m.viewRunning()
	case stateView:
		return m.viewResult()
	}
	return ""
}

func (m model) viewRunning() string {
	var b strings.Builder
	b.WriteString("\n  " + m.spinner.View() + " " + viz.Title.Render(m.title) + "\n\n")
	percent := 0.0
	if m.total > 0 {
		percent = float64(m.done) / float64(m.total)
	}
	b.WriteString("  " + viz.ProgressBar(percent, 40) + "\n")
	b.WriteString("  " + viz.Metric("windows", fmt.Sprintf("%d/%d", m.done, m.total)) +
		"   " + viz.Metric("t", fmt.Sprintf("%.4g", m.reached)) + "\n")
	if m.err != nil {
		b.WriteString("\n  " + viz.StatusError.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n  " + viz.KeyHint.Render("q quit") + "\n")
	return b.String()
}

func (m model) viewResult() string {
	var b strings.Builder

	scope := "all windows"
	if m.window >= 0 {
		w := m.res.Store.Windows()[m.window]
		scope = fmt.Sprintf("window %d  [%.4g, %.4g]", m.window+1, w.Start, w.End)
	}
	b.WriteString("\n  " + viz.Title.Render(m.title) + "  " + viz.Subtle.Render(m.res.Config.Method.String()+"  "+scope) + "\n\n")
	b.WriteString(m.table.View() + "\n\n")

	if row := m.table.SelectedRow(); row != nil {
		col := m.table.Cursor()
		_, vs := m.series(col)
		b.WriteString(viz.PlotSeries([]string{row[0]}, [][]float64{vs}, viz.PlotOptions{
			Width:   max(m.width-16, 20),
			Height:  plotHeight,
			Caption: row[0],
		}))
		b.WriteString("\n\n")
	}

	tot := m.res.Totals()
	b.WriteString("  " + viz.Metric("steps", fmt.Sprint(tot.Accepted)) +
		"   " + viz.Metric("rejected", fmt.Sprint(tot.Rejected)) +
		"   " + viz.Metric("evals", fmt.Sprint(tot.Evaluations)) + "\n")
	for _, name := range slices.Sorted(maps.Keys(m.res.Metrics)) {
		b.WriteString("  " + viz.Metric(name, fmt.Sprintf("%.4g", m.res.Metrics[name])) + "\n")
	}
	for _, w := range m.res.Warnings {
		b.WriteString("  " + viz.StatusWarn.Render("warning: "+w.String()) + "\n")
	}
	if m.err != nil {
		b.WriteString("  " + viz.StatusError.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n  " + viz.KeyHint.Render("↑↓ select   [ ] window   tab species/extents   t theme   q quit") + "\n")
	return b.String()
}

// Run shows a finished run until the user quits.
func Run(title string, res *sim.Result) error {
	p := tea.NewProgram(NewViewer(title, res), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
