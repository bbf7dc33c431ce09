package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

func TestRenderBorder_MinimumSize(t *testing.T) {
	// Too small - should return content as-is
	result := RenderBorder("test", "", 2, 2, BorderNormal, 0)
	if result != "test" {
		t.Errorf("expected content returned for small dimensions, got %q", result)
	}

	result = RenderBorder("test", "", 1, 5, BorderNormal, 0)
	if result != "test" {
		t.Errorf("expected content returned for narrow width, got %q", result)
	}
}

func TestRenderBorder_ContainsBorderChars(t *testing.T) {
	result := RenderBorder("hello", "", 20, 5, BorderNormal, 1)

	for _, ch := range []string{"╭", "╮", "╰", "╯", "─", "│"} {
		if !strings.Contains(result, ch) {
			t.Errorf("result should contain %q", ch)
		}
	}
}

func TestRenderBorder_Dimensions(t *testing.T) {
	result := RenderBorder("line1\nline2\nline3", "", 20, 6, BorderNormal, 1)

	lines := strings.Split(result, "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d", len(lines))
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w != 20 {
			t.Errorf("line %d width = %d, want 20", i, w)
		}
	}
	for _, want := range []string{"line1", "line2", "line3"} {
		if !strings.Contains(result, want) {
			t.Errorf("result should contain %q", want)
		}
	}
}

func TestRenderBorder_ClipsContent(t *testing.T) {
	long := strings.Repeat("x", 50)
	result := RenderBorder(long+"\nsecond\nthird", "", 12, 4, BorderNormal, 1)

	lines := strings.Split(ansi.Strip(result), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if strings.Contains(result, "third") {
		t.Error("rows beyond the inner height should be dropped")
	}
	if got := lipgloss.Width(lines[1]); got != 12 {
		t.Errorf("clipped row width = %d, want 12", got)
	}
}

func TestRenderBorder_Title(t *testing.T) {
	result := ansi.Strip(RenderBorder("body", "Details", 24, 4, BorderNormal, 1))
	top := strings.Split(result, "\n")[0]
	if !strings.HasPrefix(top, "╭─ Details ─") {
		t.Errorf("top edge = %q, want title after first segment", top)
	}
	if w := lipgloss.Width(top); w != 24 {
		t.Errorf("top width = %d, want 24", w)
	}
}

func TestRenderPanel(t *testing.T) {
	active := RenderPanel("x", "", 10, 3, true)
	normal := RenderPanel("x", "", 10, 3, false)
	if !strings.Contains(ansi.Strip(active), "x") || !strings.Contains(ansi.Strip(normal), "x") {
		t.Error("panels should contain content")
	}
}
