package ui

import (
	"fmt"
	"strings"
)

// resetWarning renders the banner shown before destination tables are dropped.
func resetWarning(dbName string, tables []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "DANGER: destructive reset of database %q\n\n", dbName)
	b.WriteString("These tables will be DROPPED and RECREATED:\n")
	for _, t := range tables {
		fmt.Fprintf(&b, "  - %s\n", t)
	}
	b.WriteString("\nEvery row they hold will be permanently deleted.")
	return dangerStyle.Render(b.String())
}
