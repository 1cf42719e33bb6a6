// Package tui provides the terminal viewer for mirrored builds.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"buildmirror/src/catalog"
	"buildmirror/src/contracts"
	"buildmirror/src/sanitize"
)

// UI overhead: header (1) + table header (2) + help (1) + spacing (2)
const chromeHeight = 6

const detailHeight = 8

// Model is the Bubble Tea model of the build viewer.
type Model struct {
	source      catalog.Source
	builds      []contracts.RunMetadata // everything in the last snapshot
	visible     []contracts.RunMetadata // builds passing the branch filter
	header      Header
	table       table.Model
	styles      *StyleConfig
	showDetail  bool
	width       int
	height      int
	refreshedAt time.Time
	now         func() time.Time
}

// NewModel creates a viewer reading builds from src.
func NewModel(src catalog.Source, repository string) Model {
	styles := DefaultStyles()
	t := table.New(
		table.WithColumns(Columns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(styles.TableStyles())

	m := Model{
		source: src,
		header: NewHeader(repository),
		table:  t,
		styles: styles,
		width:  80,
		now:    time.Now,
	}
	m.refresh()
	return m
}

// Init initializes the model. Required by tea.Model interface.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.refresh()
			return m, nil
		case "tab":
			m.header.CycleFilter()
			m.applyFilter()
			return m, nil
		case "enter":
			m.showDetail = !m.showDetail
			m.layout()
			return m, nil
		case "esc":
			m.showDetail = false
			m.layout()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// Selected returns the build under the cursor.
func (m Model) Selected() (contracts.RunMetadata, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.visible) {
		return contracts.RunMetadata{}, false
	}
	return m.visible[i], true
}

// View renders the header, table, optional detail panel and help line.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.header.Render(len(m.visible), m.refreshedAt, m.width))
	b.WriteString("\n\n")

	if len(m.builds) == 0 {
		b.WriteString(m.styles.HelpStyle().Render("No builds mirrored yet."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	if m.showDetail {
		if build, ok := m.Selected(); ok {
			b.WriteString(m.renderDetail(build))
			b.WriteString("\n")
		}
	}

	b.WriteString(m.styles.HelpStyle().Render("↑/↓ move • enter details • tab branch • r refresh • q quit"))
	return b.String()
}

func (m Model) renderDetail(build contracts.RunMetadata) string {
	inner := m.width - 4
	if inner < minMessageWidth {
		inner = minMessageWidth
	}

	lines := []string{
		fmt.Sprintf("Run #%d (id %d) on %s", build.RunNumber, build.ID, build.Branch),
		"Commit " + build.Commit.ID,
		"",
	}
	for _, para := range strings.Split(sanitize.Clean(build.Commit.Message), "\n") {
		lines = append(lines, strings.Split(Wrap(para, inner), "\n")...)
	}
	if len(lines) > detailHeight-2 {
		lines = append(lines[:detailHeight-3], "...")
	}

	return m.styles.DetailStyle().Width(inner).Render(strings.Join(lines, "\n"))
}

func (m *Model) refresh() {
	m.builds = m.source.Builds()
	m.header.SetBranches(Branches(m.builds))
	m.refreshedAt = m.now()
	m.applyFilter()
}

func (m *Model) applyFilter() {
	filter := m.header.GetFilter()
	if filter == AllBranches {
		m.visible = m.builds
	} else {
		m.visible = catalog.FilterBranch(m.builds, filter)
	}
	m.table.SetRows(Rows(m.visible, m.table.Columns()))
	// an empty table leaves the cursor at -1
	switch c := m.table.Cursor(); {
	case c < 0:
		m.table.SetCursor(0)
	case c >= len(m.visible):
		m.table.SetCursor(max(0, len(m.visible)-1))
	}
}

func (m *Model) layout() {
	m.table.SetColumns(Columns(m.width))
	m.table.SetWidth(m.width)

	h := m.height - chromeHeight
	if m.showDetail {
		h -= detailHeight
	}
	if h < 3 {
		h = 3
	}
	m.table.SetHeight(h)
	m.table.SetRows(Rows(m.visible, m.table.Columns()))
}

// Run starts the viewer full screen and blocks until the user quits.
func Run(src catalog.Source, repository string) error {
	_, err := tea.NewProgram(NewModel(src, repository), tea.WithAltScreen()).Run()
	return err
}
