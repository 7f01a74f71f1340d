package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"crmdash/internal/model"
)

// RenderHelp renders context-sensitive help footer.
func RenderHelp(screen model.Screen, mode model.Mode, width int) string {
	if mode == model.ModeSearch {
		return renderSearchHelp(width)
	}

	switch screen {
	case model.ScreenCustomers:
		return renderListHelp(width, helpKey("enter", "detail"))
	case model.ScreenCustomerDetail:
		return renderDetailHelp(width)
	default:
		return renderListHelp(width)
	}
}

func renderListHelp(width int, extra ...string) string {
	keys := []string{
		helpKey("j/k", "navigate"),
		helpKey("1-4", "tab"),
		helpKey("/", "search"),
		helpKey("f", "filter"),
		helpKey("s/S", "sort"),
		helpKey("[/]", "page"),
		helpKey("r", "refresh"),
		helpKey("x", "export"),
	}
	keys = append(keys, extra...)
	keys = append(keys, helpKey("?", "help"))
	return renderHelpLine(keys, width)
}

func renderDetailHelp(width int) string {
	keys := []string{
		helpKey("b/esc", "back"),
		helpKey("r", "refresh"),
		helpKey("q", "quit"),
	}
	return renderHelpLine(keys, width)
}

func renderSearchHelp(width int) string {
	keys := []string{
		helpKey("enter", "keep search"),
		helpKey("esc", "clear"),
	}
	return renderHelpLine(keys, width)
}

func helpKey(key, desc string) string {
	return HelpKeyStyle.Render(key) + " " + HelpDescStyle.Render(desc)
}

func renderHelpLine(keys []string, width int) string {
	line := strings.Join(keys, "  ")
	return FooterStyle.Width(width).Render(line)
}

// RenderFullHelp renders the full help screen.
func RenderFullHelp(width, height int) string {
	content := lipgloss.NewStyle().
		Width(max(0, width-4)).
		Height(max(0, height-6)).
		Padding(1, 2)

	sections := []string{
		titleSection("Navigation"),
		helpSection([]helpItem{
			{"j / ↓", "Move down"},
			{"k / ↑", "Move up"},
			{"gg / G", "Jump to top / bottom"},
			{"1-4 / h / l", "Switch tab"},
			{"tab / shift+tab", "Cycle active column"},
			{"# then 1-9", "Jump to column"},
			{"enter", "Open customer detail"},
			{"b / esc", "Back"},
			{"q", "Quit"},
			{"?", "Toggle help"},
		}),
		titleSection("Tables"),
		helpSection([]helpItem{
			{"/", "Search (enter keeps, esc clears)"},
			{"f", "Cycle filter"},
			{"s / S", "Sort active column asc/desc"},
			{"c / C", "Hide active column / show all"},
			{"[ / ]", "Previous / next page"},
			{"p", "Cycle page size"},
			{"x", "Export filtered rows to CSV"},
		}),
		titleSection("Data"),
		helpSection([]helpItem{
			{"r", "Refresh now"},
			{"i", "Cycle auto refresh interval"},
			{"o", "Toggle overview panel"},
		}),
	}

	helpText := content.Render(strings.Join(sections, "\n\n"))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		TitleStyle.Width(width).Render("Help"),
		helpText,
		FooterStyle.Width(width).Render(HelpKeyStyle.Render("esc")+" "+HelpDescStyle.Render("close help")),
	)
}

type helpItem struct {
	key  string
	desc string
}

func titleSection(title string) string {
	return LabelStyle.Render(title)
}

func helpSection(items []helpItem) string {
	var lines []string
	for _, item := range items {
		lines = append(lines, "  "+HelpKeyStyle.Render(item.key)+" - "+HelpDescStyle.Render(item.desc))
	}
	return strings.Join(lines, "\n")
}
