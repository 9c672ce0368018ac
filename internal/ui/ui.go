package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/spx/internal/formatter"
	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/tasks"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// ExportSummary renders the outcome of one export run: counts, the files
// written, and the skipped playlists with their causes.
func ExportSummary(summary tasks.RunSummary, files []formatter.ExportFile) string {
	var b strings.Builder

	b.WriteString(styles.title.Render(fmt.Sprintf("Export complete (%s)", strings.ToUpper(string(summary.Format)))))
	b.WriteString("\n")

	b.WriteString(styles.ok.Render(fmt.Sprintf("✓ %d/%d exported", summary.Succeeded, summary.Total)))
	if summary.Failed > 0 {
		b.WriteString("  ")
		b.WriteString(styles.err.Render(fmt.Sprintf("✗ %d skipped", summary.Failed)))
	}
	b.WriteString("\n")

	for _, file := range files {
		b.WriteString(fmt.Sprintf("  %s → %s (%d bytes)\n", file.PlaylistName, file.Path, file.Bytes))
	}

	for _, res := range summary.Skipped {
		b.WriteString(styles.warn.Render(fmt.Sprintf("  skipped %s: %v", res.ID, res.Err)))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// HistoryTable renders recorded export runs newest first, each with its
// per-playlist outcomes when available.
func HistoryTable(runs []*models.ExportRun, items map[string][]*models.RunItem) string {
	if len(runs) == 0 {
		return styles.help.Render("No export runs recorded yet. Run 'spx export all' to create one.")
	}

	var b strings.Builder
	for i, run := range runs {
		if i > 0 {
			b.WriteString("\n")
		}

		header := fmt.Sprintf("#%d  %s  %s", run.Sequence(), strings.ToUpper(run.Format()), run.StartedAt().Local().Format("2006-01-02 15:04:05"))
		b.WriteString(styles.title.Render(header))
		b.WriteString("\n")

		b.WriteString(styles.ok.Render(fmt.Sprintf("✓ %d/%d exported", run.Succeeded(), run.Total())))
		if run.Failed() > 0 {
			b.WriteString("  ")
			b.WriteString(styles.err.Render(fmt.Sprintf("✗ %d skipped", run.Failed())))
		}
		b.WriteString("\n")

		for _, item := range items[run.ID()] {
			switch item.Status() {
			case models.RunItemSkipped:
				b.WriteString(styles.warn.Render(fmt.Sprintf("  %s: %s", item.PlaylistID(), item.Error())))
				b.WriteString("\n")
			default:
				b.WriteString(fmt.Sprintf("  %s (%d bytes)\n", item.PlaylistName(), item.Bytes()))
			}
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
