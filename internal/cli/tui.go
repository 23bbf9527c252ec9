package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/singleline/pkg/graph"
)

// List styles
var (
	listHeaderStyle = lipgloss.NewStyle().Foreground(colorLabel).Bold(true)
	listBorderStyle = lipgloss.NewStyle().Foreground(colorMuted)
	listDimStyle    = lipgloss.NewStyle().Foreground(colorMuted)
)

// =============================================================================
// Cell Table
// =============================================================================

// cellRows summarizes the cells of vl: one row per cell with its node count.
func cellRows(vl graph.PlacedVoltageLevel) [][]string {
	nodes := make(map[int]int, len(vl.Cells))
	for _, n := range vl.Nodes {
		if n.Cell >= 0 {
			nodes[n.Cell]++
		}
	}
	rows := make([][]string, 0, len(vl.Cells))
	for _, c := range vl.Cells {
		rows = append(rows, []string{
			strconv.Itoa(c.ID),
			c.Kind,
			orDash(c.Shape),
			orDash(c.Direction),
			strconv.Itoa(nodes[c.ID]),
			c.FullID,
		})
	}
	return rows
}

// cellTable renders the cells of vl as a bordered table.
func cellTable(vl graph.PlacedVoltageLevel) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(listBorderStyle).
		Headers("#", "Kind", "Shape", "Direction", "Nodes", "Cell").
		Rows(cellRows(vl)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return listHeaderStyle
			}
			if col == 1 {
				return lipgloss.NewStyle().Foreground(colorAccent)
			}
			if col == 5 {
				return lipgloss.NewStyle().Foreground(colorMuted)
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

// =============================================================================
// VoltageLevelListModel - Interactive voltage level selection
// =============================================================================

// VoltageLevelListModel is the bubbletea model for picking a voltage level.
type VoltageLevelListModel struct {
	Levels   []graph.PlacedVoltageLevel
	Cursor   int
	Selected *graph.PlacedVoltageLevel
	Height   int
	Offset   int
}

// NewVoltageLevelListModel creates a new voltage level list model.
func NewVoltageLevelListModel(levels []graph.PlacedVoltageLevel) VoltageLevelListModel {
	return VoltageLevelListModel{Levels: levels, Height: 15}
}

func (m VoltageLevelListModel) Init() tea.Cmd {
	return nil
}

func (m VoltageLevelListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Levels)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Levels) == 0 {
				return m, tea.Quit
			}
			vl := m.Levels[m.Cursor]
			m.Selected = &vl
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m VoltageLevelListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Voltage Level"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Levels))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		vl := m.Levels[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			vl.ID,
			strconv.Itoa(len(vl.Buses)),
			strconv.Itoa(len(vl.Cells)),
			fmt.Sprintf("%.0f×%.0f", vl.Width, vl.Height),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(listBorderStyle).
		Headers("", "Voltage level", "Busbars", "Cells", "Size").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return listHeaderStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorOK).Bold(true)
			}
			if col >= 2 {
				return lipgloss.NewStyle().Foreground(colorMuted)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Levels))))

	return b.String()
}
