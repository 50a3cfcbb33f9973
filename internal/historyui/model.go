// Package historyui provides the Bubble Tea run history interface.
package historyui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/appdef/internal/model"
	"github.com/verte-zerg/appdef/internal/report"
)

const (
	tabRuns = iota
	tabDetails
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
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Source loads recorded runs. *store.Store satisfies it.
type Source interface {
	ListRuns(ctx context.Context, cfg model.HistoryConfig) ([]model.Run, error)
	ListSectionCounts(ctx context.Context, runIDs []string) (map[string][]model.RunSection, error)
}

// Model implements the Bubble Tea history UI.
type Model struct {
	source Source
	cfg    model.HistoryConfig
	now    func() time.Time

	runs     []model.Run
	sections map[string][]model.RunSection
	errMsg   string

	tabs      []string
	activeTab int
	runTable  table.Model
	details   viewport.Model

	width  int
	height int

	filterMode  bool
	filterInput textinput.Model
}

// Option configures a Model.
type Option func(*Model)

// WithClock replaces time.Now for relative timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

// NewModel constructs a history UI model and loads the first page of runs.
func NewModel(src Source, cfg model.HistoryConfig, opts ...Option) *Model {
	m := &Model{
		source: src,
		cfg:    cfg,
		now:    time.Now,
		tabs:   []string{"Runs", "Details"},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.filterInput = textinput.New()
	m.filterInput.Prompt = "Source: "
	m.filterInput.Placeholder = "path/to/appdef.xml"
	m.filterInput.Cursor.SetMode(cursor.CursorBlink)
	m.runTable = table.New(
		table.WithColumns(runColumns(80)),
		table.WithFocused(true),
		table.WithHeight(1),
	)
	m.runTable.SetStyles(runTableStyles())
	m.details = viewport.New(0, 0)
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, nil
		case "right", "l":
			m.moveTab(1)
			return m, nil
		case "enter":
			if m.activeTab == tabRuns && len(m.runs) > 0 {
				m.activeTab = tabDetails
				m.renderDetails()
			}
			return m, nil
		case "esc":
			m.activeTab = tabRuns
			return m, nil
		case "r":
			m.refresh()
			return m, nil
		case "/":
			m.filterMode = true
			m.filterInput.SetValue(m.cfg.Source)
			return m, m.filterInput.Focus()
		default:
			if m.activeTab == tabRuns {
				var cmd tea.Cmd
				m.runTable, cmd = m.runTable.Update(msg)
				return m, cmd
			}
			var cmd tea.Cmd
			m.details, cmd = m.details.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// Selected returns the run under the cursor.
func (m *Model) Selected() (model.Run, bool) {
	idx := m.runTable.Cursor()
	if idx < 0 || idx >= len(m.runs) {
		return model.Run{}, false
	}
	return m.runs[idx], true
}

func (m *Model) refresh() {
	ctx := context.Background()
	runs, err := m.source.ListRuns(ctx, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	ids := make([]string, len(runs))
	for i, run := range runs {
		ids[i] = run.ID
	}
	sections, err := m.source.ListSectionCounts(ctx, ids)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.runs = runs
	m.sections = sections
	m.runTable.SetRows(runRows(runs, m.now()))
	if m.runTable.Cursor() >= len(runs) {
		m.runTable.SetCursor(maxInt(0, len(runs)-1))
	}
	m.renderDetails()
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = maxInt(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.runTable.SetColumns(runColumns(m.width))
	m.runTable.SetWidth(m.width)
	m.runTable.SetHeight(maxInt(1, bodyHeight-1))
	m.details.Width = m.width
	m.details.Height = bodyHeight
	m.filterInput.Width = maxInt(10, m.width-lipgloss.Width(m.filterInput.Prompt)-2)
	m.renderDetails()
}

func (m *Model) moveTab(delta int) {
	next := m.activeTab + delta
	if next < 0 {
		next = len(m.tabs) - 1
	}
	if next >= len(m.tabs) {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabDetails {
		m.renderDetails()
	}
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterInput.Blur()
		return m, nil
	case tea.KeyEnter:
		m.filterMode = false
		m.filterInput.Blur()
		m.cfg.Source = strings.TrimSpace(m.filterInput.Value())
		m.runTable.SetCursor(0)
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, cmd
}

func (m *Model) renderHeader() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	return tabs + "\n" + headerStyle.Render(report.Truncate(m.filterSummary(), m.width))
}

func (m *Model) filterSummary() string {
	source := m.cfg.Source
	if source == "" {
		source = "any"
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	return fmt.Sprintf("Filter: source=%s  last=%s  runs=%d", source, last, len(m.runs))
}

func (m *Model) renderBody() string {
	if m.filterMode {
		return "Filter runs by source (enter to apply, esc to cancel)\n" + m.filterInput.View()
	}
	if m.activeTab == tabDetails {
		return m.details.View()
	}
	if len(m.runs) == 0 {
		return "No conversions recorded yet."
	}
	return tableMutedStyle.Render(m.runTable.View())
}

func (m *Model) renderFooter() string {
	help := "Nav: left/right  Move: up/down  Details: enter  Filter: /  Reload: r  Quit: q"
	if m.filterMode {
		help = "enter: apply  esc: cancel"
	}
	out := headerStyle.Render(help)
	if m.errMsg != "" {
		out += "\n" + errorStyle.Render(m.errMsg)
	}
	return out
}

func (m *Model) renderDetails() {
	run, ok := m.Selected()
	if !ok {
		m.details.SetContent("No run selected.")
		return
	}
	m.details.SetContent(renderRunDetails(run, m.sections[run.ID], m.now()))
}

func renderRunDetails(run model.Run, sections []model.RunSection, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", run.AppName)
	fmt.Fprintf(&b, "Run:     %s\n", run.ID)
	fmt.Fprintf(&b, "Source:  %s\n", run.SourcePath)
	fmt.Fprintf(&b, "Digest:  %s\n", shortDigest(run.Digest))
	fmt.Fprintf(&b, "Output:  %s (%s)\n", run.OutputPath, run.Format)
	fmt.Fprintf(&b, "Ended:   %s (%s)\n", run.EndedAt.Local().Format("2006-01-02 15:04:05"), report.HistoryRows([]model.Run{run}, now)[0][0])
	fmt.Fprintf(&b, "Warnings: %d\n\n", run.Warnings)
	if len(sections) == 0 {
		b.WriteString("No section counts recorded.")
		return b.String()
	}
	var buf bytes.Buffer
	if err := report.WriteSections(&buf, sections); err != nil {
		return fmt.Sprintf("Failed to render sections: %v", err)
	}
	b.WriteString(strings.TrimRight(buf.String(), "\n"))
	return b.String()
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}

func runRows(runs []model.Run, now time.Time) []table.Row {
	cells := report.HistoryRows(runs, now)
	rows := make([]table.Row, len(cells))
	for i, row := range cells {
		rows[i] = table.Row(row)
	}
	return rows
}

func runColumns(width int) []table.Column {
	headers := report.HistoryHeaders()
	fixed := []int{14, 0, 6, 9, 8, 8, 0}
	used := 0
	flexible := 0
	for _, w := range fixed {
		if w == 0 {
			flexible++
		}
		used += w + 1
	}
	flex := maxInt(8, (width-used)/maxInt(1, flexible))
	columns := make([]table.Column, len(headers))
	for i, title := range headers {
		w := fixed[i]
		if w == 0 {
			w = flex
		}
		columns[i] = table.Column{Title: title, Width: w}
	}
	return columns
}

func runTableStyles() table.Styles {
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
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}
