package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/boardpack/pkg/pipeline"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// ScenarioListModel - Interactive scenario selection
// =============================================================================

// ScenarioListModel is the bubbletea model for picking one compared layout.
type ScenarioListModel struct {
	Comparisons []pipeline.Comparison
	Cursor      int
	Best        int
	// Selected is the chosen index, or -1 when the user quit.
	Selected int
}

// NewScenarioListModel starts with the cursor on the best comparison.
func NewScenarioListModel(cs []pipeline.Comparison) ScenarioListModel {
	best := pipeline.Best(cs)
	return ScenarioListModel{Comparisons: cs, Cursor: max(best, 0), Best: best, Selected: -1}
}

func (m ScenarioListModel) Init() tea.Cmd {
	return nil
}

func (m ScenarioListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Comparisons)-1 {
				m.Cursor++
			}
		case "enter":
			m.Selected = m.Cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m ScenarioListModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Select Layout"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")
	b.WriteString(comparisonTable(m.Comparisons, m.Cursor, m.Best, true))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  * smallest board", m.Cursor+1, len(m.Comparisons))))
	return b.String()
}

// comparisonTable renders one row per scenario. With cursor rows, the row
// under the cursor is highlighted.
func comparisonTable(cs []pipeline.Comparison, cursor, best int, withCursor bool) string {
	rows := make([][]string, len(cs))
	for i, c := range cs {
		mark := "  "
		if withCursor && i == cursor {
			mark = "▸ "
		}
		name := c.Scenario.Name
		if i == best {
			name += " *"
		}
		l := c.Layout
		rows[i] = []string{
			mark,
			name,
			fmt.Sprintf("%g/%g", c.Scenario.Weights.Size, c.Scenario.Weights.Wire),
			fmt.Sprintf("%.2f x %.2f", l.Width, l.Height),
			fmt.Sprintf("%.2f", c.Area()),
			fmt.Sprintf("%.2f", l.Stats.WireLength),
			fmt.Sprintf("%.0f%%", 100*l.Stats.Utilization),
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Scenario", "Size/Wire", "Board", "Area", "Wire", "Util").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case withCursor && row == cursor:
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			case row == best:
				return StyleHighlight
			default:
				return lipgloss.NewStyle().Foreground(colorWhite)
			}
		}).
		Render()
}
