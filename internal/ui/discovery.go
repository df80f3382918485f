package ui

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vvka-141/transitload/internal/files/scanner"
	"github.com/vvka-141/transitload/pkg/transitload"
)

// RenderDiscovery lists the snapshots of one category in processing order.
func RenderDiscovery(w io.Writer, category transitload.Category, pattern string, snapshots []scanner.Snapshot) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (%d file(s))", category, len(snapshots))))
	if len(snapshots) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no files match "+pattern))
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("#", "File", "Snapshot (UTC)", "Size")
	for i, s := range snapshots {
		taken := "-"
		if s.HasTime {
			taken = s.Taken.UTC().Format(time.DateTime)
		}
		t.Row(strconv.Itoa(i+1), s.Name, taken, humanBytes(s.Size))
	}
	fmt.Fprintln(w, t.Render())
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
