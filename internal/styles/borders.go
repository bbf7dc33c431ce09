package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Border characters for rounded borders (matching lipgloss.RoundedBorder)
const (
	borderCornerTL   = "╭"
	borderCornerTR   = "╮"
	borderCornerBL   = "╰"
	borderCornerBR   = "╯"
	borderHorizontal = "─"
	borderVertical   = "│"
)

// RenderBorder renders content inside a box with a rounded border. An
// optional title is set into the top edge. width and height are the outer
// dimensions including borders; content is clipped to fit.
func RenderBorder(content, title string, width, height int, color lipgloss.TerminalColor, padding int) string {
	if width < 3 || height < 3 {
		return content
	}

	innerWidth := width - 2
	innerHeight := height - 2

	lines := strings.Split(content, "\n")

	paddedLines := make([]string, innerHeight)
	paddingStr := strings.Repeat(" ", padding)
	contentWidth := max(innerWidth-padding*2, 0)

	for i := 0; i < innerHeight; i++ {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		if lipgloss.Width(line) > contentWidth {
			line = ansi.Truncate(line, contentWidth, "")
		}
		rightPad := max(contentWidth-lipgloss.Width(line), 0)
		paddedLines[i] = paddingStr + line + strings.Repeat(" ", rightPad) + paddingStr
	}

	edge := lipgloss.NewStyle().Foreground(color)
	var result strings.Builder

	result.WriteString(edge.Render(borderTop(title, width)))
	result.WriteString("\n")
	side := edge.Render(borderVertical)
	for _, line := range paddedLines {
		result.WriteString(side)
		result.WriteString(line)
		result.WriteString(side)
		result.WriteString("\n")
	}
	result.WriteString(edge.Render(borderCornerBL + strings.Repeat(borderHorizontal, width-2) + borderCornerBR))

	return result.String()
}

// borderTop renders the top edge, embedding " title " after the first
// horizontal segment when it fits.
func borderTop(title string, width int) string {
	fill := width - 2
	if title == "" || fill < 4 {
		return borderCornerTL + strings.Repeat(borderHorizontal, fill) + borderCornerTR
	}
	label := " " + ansi.Truncate(title, fill-3, "…") + " "
	rest := max(fill-1-ansi.StringWidth(label), 0)
	return borderCornerTL + borderHorizontal + label + strings.Repeat(borderHorizontal, rest) + borderCornerTR
}

// RenderPanel renders content in a bordered panel. active selects the
// focused border color.
func RenderPanel(content, title string, width, height int, active bool) string {
	color := BorderNormal
	if active {
		color = BorderActive
	}
	return RenderBorder(content, title, width, height, color, 1)
}
