package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"

	"buildmirror/src/contracts"
	"buildmirror/src/sanitize"
)

// Column widths
const (
	runNumberWidth  = 7
	branchWidth     = 24
	shaWidth        = 8
	minMessageWidth = 20
)

// ShortSHA returns the abbreviated commit id shown in tables.
func ShortSHA(sha string) string {
	if len(sha) > shaWidth {
		return sha[:shaWidth]
	}
	return sha
}

// FirstLine returns the commit title with control sequences removed.
func FirstLine(message string) string {
	title, _, _ := strings.Cut(sanitize.Clean(message), "\n")
	return strings.TrimSpace(title)
}

// Columns lays the table out for a terminal width. The message column takes what is left.
func Columns(width int) []table.Column {
	// each cell carries one column of padding on both sides
	msg := width - runNumberWidth - branchWidth - shaWidth - 4*2
	if msg < minMessageWidth {
		msg = minMessageWidth
	}
	return []table.Column{
		{Title: "Run", Width: runNumberWidth},
		{Title: "Branch", Width: branchWidth},
		{Title: "Commit", Width: shaWidth},
		{Title: "Message", Width: msg},
	}
}

// Rows renders builds as table rows sized to columns.
func Rows(builds []contracts.RunMetadata, columns []table.Column) []table.Row {
	rows := make([]table.Row, 0, len(builds))
	for _, b := range builds {
		rows = append(rows, table.Row{
			"#" + strconv.Itoa(b.RunNumber),
			Truncate(sanitize.Clean(b.Branch), columns[1].Width, true),
			ShortSHA(b.Commit.ID),
			Truncate(FirstLine(b.Commit.Message), columns[3].Width, true),
		})
	}
	return rows
}

// Branches returns the distinct branches in order of first appearance.
func Branches(builds []contracts.RunMetadata) []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range builds {
		if !seen[b.Branch] {
			seen[b.Branch] = true
			out = append(out, b.Branch)
		}
	}
	return out
}
