package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/worldloom/worldloom/pkg/engine"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// NodeListModel - Interactive node selection
// =============================================================================

// NodeListModel is the bubbletea model for browsing a layout and selecting
// nodes. Selection goes through the coordinator, so the model always shows
// the coordinator's current snapshot.
type NodeListModel struct {
	Coord  *engine.Coordinator
	Snap   *engine.Snapshot
	Cursor int
	Height int
	Offset int
}

// NewNodeListModel creates a node list over the coordinator's current snapshot.
func NewNodeListModel(coord *engine.Coordinator) NodeListModel {
	return NodeListModel{
		Coord:  coord,
		Snap:   coord.Current(),
		Height: 15,
	}
}

func (m NodeListModel) Init() tea.Cmd {
	return nil
}

func (m NodeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.Snap == nil {
		if key, ok := msg.(tea.KeyMsg); ok && isQuitKey(key.String()) {
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); {
		case isQuitKey(key):
			return m, tea.Quit
		case key == "up" || key == "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case key == "down" || key == "j":
			if m.Cursor < len(m.Snap.Nodes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case key == "enter" || key == " ":
			if len(m.Snap.Nodes) > 0 {
				m.Snap = m.Coord.Select(m.Snap.Nodes[m.Cursor].ID())
			}
		case key == "x" || key == "backspace":
			m.Snap = m.Coord.Select("")
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 14
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func isQuitKey(k string) bool {
	return k == "q" || k == "ctrl+c" || k == "esc"
}

func (m NodeListModel) View() string {
	var b strings.Builder

	if m.Snap == nil {
		return StyleDim.Render("No layout yet") + "\n"
	}

	b.WriteString(StyleTitle.Render(fmt.Sprintf("%s layout", m.Snap.Request.Strategy)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  x clear  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Snap.Nodes))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		n := &m.Snap.Nodes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		mark := ""
		if n.Selected {
			mark = "●"
		}
		rows = append(rows, []string{
			cursor,
			mark,
			n.ID(),
			string(n.Element.Type),
			n.Element.Title,
			fmt.Sprintf("%.0f, %.0f", n.X, n.Y),
			fmt.Sprintf("%d", n.Connections),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "", "ID", "Type", "Title", "Position", "Links").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Snap.Nodes) {
				return lipgloss.NewStyle()
			}
			switch {
			case m.Snap.Nodes[idx].Selected:
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(idx == m.Cursor)
			case idx == m.Cursor:
				return listSelectedStyle
			default:
				return listNormalStyle
			}
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Snap.Nodes))))
	b.WriteString("\n\n")
	b.WriteString(m.detail())

	return b.String()
}

// detail renders the selected node and its edges.
func (m NodeListModel) detail() string {
	n, ok := m.Snap.Node(m.Snap.SelectedID)
	if !ok {
		return listDimStyle.Render("Nothing selected") + "\n"
	}

	var b strings.Builder
	b.WriteString(StyleHighlight.Render(n.Element.Title))
	b.WriteString(" " + listDimStyle.Render("("+string(n.Element.Type)+")"))
	b.WriteString("\n")

	for _, line := range edgeLines(m.Snap, n.ID()) {
		b.WriteString("  " + line + "\n")
	}
	return b.String()
}

// edgeLines describes the edges touching id, in edge order.
func edgeLines(s *engine.Snapshot, id string) []string {
	var lines []string
	for _, e := range s.Edges {
		var dir, other string
		switch id {
		case e.Source.ID():
			dir, other = iconArrow, e.Target.ID()
		case e.Target.ID():
			dir, other = "←", e.Source.ID()
		default:
			continue
		}
		if e.Relationship.Bidirectional {
			dir = "↔"
		}
		lines = append(lines, fmt.Sprintf("%s %s %s %s",
			dir, other, StyleDim.Render(e.Relationship.Type), StyleNumber.Render(fmt.Sprintf("%.1f", e.Strength))))
	}
	if len(lines) == 0 {
		lines = append(lines, StyleDim.Render("no relationships"))
	}
	return lines
}
