package tui

import (
	"strings"
	"testing"

	"buildmirror/src/contracts"
)

func sampleBuilds() []contracts.RunMetadata {
	return []contracts.RunMetadata{
		{ID: 30, Branch: "main", Commit: contracts.Commit{ID: "0123456789abcdef", Message: "Fix GPU crash\n\nDetails here"}, RunNumber: 3},
		{ID: 20, Branch: "feature/input", Commit: contracts.Commit{ID: "fedcba98", Message: "Input rework"}, RunNumber: 2},
		{ID: 10, Branch: "main", Commit: contracts.Commit{ID: "abc", Message: ""}, RunNumber: 1},
	}
}

func TestShortSHA(t *testing.T) {
	tests := map[string]string{
		"0123456789abcdef": "01234567",
		"fedcba98":         "fedcba98",
		"abc":              "abc",
		"":                 "",
	}
	for in, want := range tests {
		if got := ShortSHA(in); got != want {
			t.Errorf("ShortSHA(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFirstLine(t *testing.T) {
	if got := FirstLine("Fix GPU crash\n\nDetails"); got != "Fix GPU crash" {
		t.Errorf("FirstLine = %q", got)
	}
	if got := FirstLine(""); got != "" {
		t.Errorf("FirstLine(empty) = %q", got)
	}
	if got := FirstLine("\x1b[31mRed\x1b[0m title\r\nbody"); got != "Red title" {
		t.Errorf("FirstLine(ansi) = %q", got)
	}
}

func TestColumns(t *testing.T) {
	cols := Columns(120)
	if len(cols) != 4 {
		t.Fatalf("got %d columns", len(cols))
	}
	total := 0
	for _, c := range cols {
		total += c.Width + 2
	}
	if total != 120 {
		t.Errorf("columns fill %d, want 120", total)
	}

	if narrow := Columns(10); narrow[3].Width != minMessageWidth {
		t.Errorf("message width = %d, want minimum %d", narrow[3].Width, minMessageWidth)
	}
}

func TestRows(t *testing.T) {
	rows := Rows(sampleBuilds(), Columns(80))
	if len(rows) != 3 {
		t.Fatalf("got %d rows", len(rows))
	}

	first := rows[0]
	if first[0] != "#3" || first[1] != "main" || first[2] != "01234567" || first[3] != "Fix GPU crash" {
		t.Errorf("row = %v", first)
	}

	long := []contracts.RunMetadata{{Branch: strings.Repeat("b", 40), Commit: contracts.Commit{Message: strings.Repeat("m", 200)}}}
	row := Rows(long, Columns(80))[0]
	if VisualWidth(row[1]) > branchWidth || !strings.HasSuffix(row[1], "...") {
		t.Errorf("branch not truncated: %q", row[1])
	}
	if VisualWidth(row[3]) > Columns(80)[3].Width {
		t.Errorf("message not truncated: %d", VisualWidth(row[3]))
	}
}

func TestBranches(t *testing.T) {
	got := Branches(sampleBuilds())
	if len(got) != 2 || got[0] != "main" || got[1] != "feature/input" {
		t.Errorf("Branches = %v", got)
	}
}

func TestRenderList(t *testing.T) {
	out := RenderList(sampleBuilds(), 100)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "Branch") {
		t.Errorf("missing header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "#3") || !strings.Contains(lines[1], "Fix GPU crash") {
		t.Errorf("first row = %q", lines[1])
	}

	if RenderList(nil, 80) != "No builds mirrored yet.\n" {
		t.Error("unexpected empty output")
	}
}
