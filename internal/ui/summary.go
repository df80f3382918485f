package ui

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vvka-141/transitload/pkg/transitload"
)

// RenderSummary writes the per-category totals of a run followed by a
// success or failure banner.
func RenderSummary(w io.Writer, summary *transitload.RunSummary, runErr error) {
	title := "Load summary"
	if summary.DryRun {
		title = "Dry-run summary"
	}
	fmt.Fprintln(w, titleStyle.Render(title))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("run %s  database %s  took %s",
		summary.RunID, summary.Database, summary.Duration().Round(time.Millisecond))))

	recordsHeader := "Records"
	if summary.DryRun {
		recordsHeader = "Records read"
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("Category", "Table", "Files", "Failed", recordsHeader)

	var files, failed int
	for _, c := range summary.Categories {
		records := c.Records
		if summary.DryRun {
			records = 0
			for _, f := range c.Files {
				records += f.Read
			}
		}
		t.Row(string(c.Category), c.Table,
			strconv.Itoa(len(c.Files)), strconv.Itoa(c.FailedFiles()), strconv.FormatInt(records, 10))
		files += len(c.Files)
		failed += c.FailedFiles()
	}
	fmt.Fprintln(w, t.Render())

	for _, c := range summary.Categories {
		for _, f := range c.Files {
			if f.Failed() {
				fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("%s %s: %s", symbolCross, f.Path, f.Error)))
			}
		}
	}

	switch {
	case runErr != nil:
		fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("%s Load failed: %v", symbolCross, runErr)))
	case failed > 0:
		fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("%s %d of %d file(s) failed", symbolCross, failed, files)))
	case summary.DryRun:
		fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("%s Dry run complete: %d file(s) readable, nothing written", symbolCheck, files)))
	default:
		fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("%s Load completed successfully: %d record(s) from %d file(s)",
			symbolCheck, summary.TotalRecords(), files)))
	}
}
