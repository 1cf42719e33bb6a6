package sanitize

import "testing"

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "color codes",
			input:    "\x1b[31mFix\x1b[0m: renderer crash",
			expected: "Fix: renderer crash",
		},
		{
			name:     "no ANSI",
			input:    "plain commit message",
			expected: "plain commit message",
		},
		{
			name:     "multiple codes",
			input:    "\x1b[1m\x1b[31mbold red\x1b[0m normal",
			expected: "bold red normal",
		},
		{
			name:     "cursor movement",
			input:    "before\x1b[2Jafter\x1b[?25l",
			expected: "beforeafter",
		},
		{
			name:     "window title",
			input:    "\x1b]0;pwned\x07title",
			expected: "title",
		},
		{
			name:     "hyperlink terminated by ST",
			input:    "\x1b]8;;https://example.com\x1b\\link\x1b]8;;\x1b\\",
			expected: "link",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := StripANSI(tt.input)
			if result != tt.expected {
				t.Errorf("StripANSI(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "full cleanup",
			input:    "\x1b[31mFix\x1b[0m: crash\r\n\r\nBody\x07",
			expected: "Fix: crash\n\nBody",
		},
		{
			name:     "keeps tabs and newlines",
			input:    "Title\n\n\t- item",
			expected: "Title\n\n\t- item",
		},
		{
			name:     "drops C1 controls and DEL",
			input:    "a\u0085b\x7fc",
			expected: "abc",
		},
		{
			name:     "unicode untouched",
			input:    "修复渲染器 ✓",
			expected: "修复渲染器 ✓",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Clean(tt.input)
			if result != tt.expected {
				t.Errorf("Clean(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}
