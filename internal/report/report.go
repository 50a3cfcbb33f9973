package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/verte-zerg/appdef/internal/appdef"
	"github.com/verte-zerg/appdef/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	headStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

// Output describes where a conversion was written.
type Output struct {
	Path   string
	Format string
	Bytes  int
	// Sections adds the per-section count table.
	Sections bool
}

// ShouldUseColor reports whether w is a terminal and NO_COLOR is unset.
func ShouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

type painter bool

func (p painter) paint(style lipgloss.Style, s string) string {
	if !p {
		return s
	}
	return style.Render(s)
}

// WriteSummary prints the per-section counts of a conversion and its warnings.
func WriteSummary(w io.Writer, summary *appdef.Summary, out Output, color bool) error {
	if summary == nil {
		return fmt.Errorf("summary is nil")
	}
	p := painter(color)
	var b strings.Builder
	title := fmt.Sprintf("Converted %s -> %s (%s, %s)", summary.Name, out.Path, out.Format, humanize.Bytes(uint64(out.Bytes)))
	b.WriteString(p.paint(titleStyle, title))
	b.WriteByte('\n')

	if out.Sections {
		writeSectionTable(&b, summary, p)
	}

	if len(summary.Warnings) > 0 {
		b.WriteString(p.paint(warnStyle, fmt.Sprintf("%d %s:", len(summary.Warnings), plural(len(summary.Warnings), "warning", "warnings"))))
		b.WriteByte('\n')
		for _, warning := range summary.Warnings {
			b.WriteString("  ")
			b.WriteString(warning.String())
			b.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeSectionTable(b *strings.Builder, summary *appdef.Summary, p painter) {
	rows := make([][]string, 0, len(summary.Sections)+1)
	for _, sc := range summary.Sections {
		detail := ""
		if sc.Section == appdef.SectionCollections && len(summary.CollectionBooks) > 0 {
			detail = "books: " + joinInts(summary.CollectionBooks)
		}
		rows = append(rows, []string{sc.Section, strconv.Itoa(sc.Count), detail})
	}
	if summary.AudioTracks > 0 {
		rows = append(rows, []string{"audio tracks", strconv.Itoa(summary.AudioTracks), humanize.Bytes(uint64(summary.AudioBytes))})
	}
	lines := formatTable([]string{"Section", "Count", ""}, rows, map[int]bool{1: true})
	for i, line := range lines {
		if i == 0 {
			line = p.paint(headStyle, line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

// WriteSkipped prints the notice for an unchanged source.
func WriteSkipped(w io.Writer, run *model.Run, now time.Time, color bool) error {
	p := painter(color)
	msg := "Source unchanged, skipping conversion"
	if run != nil {
		msg = fmt.Sprintf("%s unchanged since %s, kept %s", filepath.Base(run.SourcePath),
			humanize.RelTime(run.EndedAt, now, "ago", "from now"), run.OutputPath)
	}
	_, err := fmt.Fprintln(w, p.paint(mutedStyle, msg))
	return err
}

// HistoryRows converts runs into table cells, newest first as given.
func HistoryRows(runs []model.Run, now time.Time) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			humanize.RelTime(run.EndedAt, now, "ago", "from now"),
			run.AppName,
			run.Format,
			humanize.Bytes(uint64(run.OutputSize)),
			strconv.Itoa(run.Warnings),
			run.Duration().Round(time.Millisecond).String(),
			run.OutputPath,
		})
	}
	return rows
}

// HistoryHeaders names the columns produced by HistoryRows.
func HistoryHeaders() []string {
	return []string{"When", "App", "Format", "Size", "Warnings", "Took", "Output"}
}

// WriteHistory prints runs as an aligned table.
func WriteHistory(w io.Writer, runs []model.Run, now time.Time, color bool) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No conversions recorded yet.")
		return err
	}
	p := painter(color)
	lines := formatTable(HistoryHeaders(), HistoryRows(runs, now), map[int]bool{3: true, 4: true, 5: true})
	var b strings.Builder
	for i, line := range lines {
		if i == 0 {
			line = p.paint(headStyle, line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteSections prints the section counts recorded for one run.
func WriteSections(w io.Writer, sections []model.RunSection) error {
	rows := make([][]string, 0, len(sections))
	for _, sec := range sections {
		rows = append(rows, []string{sec.Section, strconv.Itoa(sec.Count)})
	}
	var b strings.Builder
	for _, line := range formatTable([]string{"Section", "Count"}, rows, map[int]bool{1: true}) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
