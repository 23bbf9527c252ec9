package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Palette
// =============================================================================

// Colors are named after the role they play in the output, not their hue.
var (
	colorAccent = lipgloss.Color("36")
	colorOK     = lipgloss.Color("35")
	colorWarn   = lipgloss.Color("220")
	colorFail   = lipgloss.Color("167")
	colorCmd    = lipgloss.Color("75")
	colorValue  = lipgloss.Color("255")
	colorLabel  = lipgloss.Color("245")
	colorMuted  = lipgloss.Color("240")
)

var (
	// StyleTitle renders headings such as the voltage level in inspect.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)

	// StyleDim renders secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorMuted)

	styleValue   = lipgloss.NewStyle().Foreground(colorValue)
	styleLabel   = lipgloss.NewStyle().Foreground(colorLabel).Width(14)
	styleCommand = lipgloss.NewStyle().Foreground(colorCmd)
)

// =============================================================================
// Status Lines
// =============================================================================

// mark is the leading symbol of a status line.
type mark struct {
	icon  string
	style lipgloss.Style
	body  *lipgloss.Style
}

var (
	warnBody = lipgloss.NewStyle().Foreground(colorWarn)

	markOK   = mark{icon: "✓", style: lipgloss.NewStyle().Foreground(colorOK)}
	markFail = mark{icon: "✗", style: lipgloss.NewStyle().Foreground(colorFail)}
	markWarn = mark{icon: "!", style: lipgloss.NewStyle().Foreground(colorWarn), body: &warnBody}
	markInfo = mark{icon: "›", style: lipgloss.NewStyle().Foreground(colorLabel)}
)

func (m mark) println(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if m.body != nil {
		msg = m.body.Render(msg)
	}
	fmt.Println(m.style.Render(m.icon), msg)
}

func printSuccess(format string, args ...any) { markOK.println(format, args...) }
func printError(format string, args ...any)   { markFail.println(format, args...) }
func printWarning(format string, args ...any) { markWarn.println(format, args...) }
func printInfo(format string, args ...any)    { markInfo.println(format, args...) }

// printDetail prints an indented, muted line under a status line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written file under a status line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render("→") + " " + styleValue.Render(path))
}

// printKeyValue prints a labeled value with the labels aligned.
func printKeyValue(key, value string) {
	fmt.Println(styleLabel.Render(key) + " " + styleValue.Render(value))
}

// printNextStep suggests the command to run next.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() { fmt.Println() }

// =============================================================================
// Layout Summary
// =============================================================================

// statsLine formats the size of a layout and where it came from, e.g.
// "3 voltage levels · 42 nodes · 2 edges · cached".
func statsLine(vls, nodes, edges int, cached bool) string {
	parts := []string{
		plural(vls, "voltage level"),
		plural(nodes, "node"),
	}
	if edges > 0 {
		parts = append(parts, plural(edges, "edge"))
	}
	origin := StyleDim.Render("computed")
	if cached {
		origin = markOK.style.Render("cached")
	}
	sep := StyleDim.Render(" · ")
	return StyleDim.Render(strings.Join(parts, " · ")) + sep + origin
}

// printStats prints the summary line of a layout.
func printStats(vls, nodes, edges int, cached bool) {
	fmt.Println("  " + statsLine(vls, nodes, edges, cached))
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
