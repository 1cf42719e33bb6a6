package tui

import (
	"strconv"
	"strings"

	"buildmirror/src/contracts"
)

// RenderList renders builds as a plain aligned table for non-interactive output.
func RenderList(builds []contracts.RunMetadata, width int) string {
	styles := DefaultStyles()
	if len(builds) == 0 {
		return "No builds mirrored yet.\n"
	}

	cols := Columns(width)
	var b strings.Builder

	var header []string
	for _, c := range cols {
		header = append(header, TruncateAndPad(c.Title, c.Width, false))
	}
	b.WriteString(styles.HeaderStyle().Render(strings.TrimRight(strings.Join(header, "  "), " ")))
	b.WriteString("\n")

	for _, build := range builds {
		cells := []string{
			TruncateAndPad("#"+strconv.Itoa(build.RunNumber), cols[0].Width, false),
			TruncateAndPad(build.Branch, cols[1].Width, true),
			TruncateAndPad(ShortSHA(build.Commit.ID), cols[2].Width, false),
			Truncate(FirstLine(build.Commit.Message), cols[3].Width, true),
		}
		b.WriteString(strings.Join(cells, "  "))
		b.WriteString("\n")
	}
	return b.String()
}
