package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// AllBranches is the filter value that shows every build.
const AllBranches = "ALL"

// Header is the status bar above the table: repository, branch filter and refresh time.
type Header struct {
	repository     string
	selectedFilter string
	branches       []string
	styles         *StyleConfig
}

// NewHeader creates a header for repository with default styles
func NewHeader(repository string) Header {
	return Header{
		repository:     repository,
		selectedFilter: AllBranches,
		styles:         DefaultStyles(),
	}
}

// SetBranches replaces the branches the filter cycles through.
// A selected branch that disappeared falls back to ALL.
func (h *Header) SetBranches(branches []string) {
	h.branches = branches
	if h.selectedFilter == AllBranches {
		return
	}
	for _, b := range branches {
		if b == h.selectedFilter {
			return
		}
	}
	h.selectedFilter = AllBranches
}

// GetFilter returns the current filter
func (h Header) GetFilter() string {
	return h.selectedFilter
}

// CycleFilter cycles to the next filter
func (h *Header) CycleFilter() {
	filters := append([]string{AllBranches}, h.branches...)
	currentIndex := 0
	for i, f := range filters {
		if f == h.selectedFilter {
			currentIndex = i
			break
		}
	}
	h.selectedFilter = filters[(currentIndex+1)%len(filters)]
}

// Render draws the header line.
func (h Header) Render(count int, refreshedAt time.Time, width int) string {
	title := h.styles.TitleStyle().Render(h.repository)

	filter := h.selectedFilter
	filterStyle := lipgloss.NewStyle().Foreground(h.styles.TextSecondary)
	if filter != AllBranches {
		filterStyle = filterStyle.Foreground(h.styles.BranchColor(filter)).Bold(true)
	}

	status := fmt.Sprintf("%d builds  branch: %s  refreshed %s",
		count, filterStyle.Render(filter), refreshedAt.Format("15:04:05"))

	line := lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", status)
	return lipgloss.NewStyle().MaxWidth(width).Render(line)
}
