// Package theme holds the terminal styles of the threadchat CLI.
package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Theme represents a color theme
type Theme struct {
	Primary   lipgloss.Color
	Accent    lipgloss.Color
	Text      lipgloss.Color
	TextMuted lipgloss.Color
	Danger    lipgloss.Color
}

var CurrentTheme = Theme{
	Primary:   lipgloss.Color("10"),
	Accent:    lipgloss.Color("12"),
	Text:      lipgloss.Color("15"),
	TextMuted: lipgloss.Color("7"),
	Danger:    lipgloss.Color("9"),
}

// Styles are derived from CurrentTheme by SetTheme.
var (
	UserStyle      lipgloss.Style
	AssistantStyle lipgloss.Style
	ToolStyle      lipgloss.Style
	DimStyle       lipgloss.Style
	ErrorStyle     lipgloss.Style
	TitleStyle     lipgloss.Style
)

func init() {
	SetTheme(CurrentTheme)
}

// SetTheme sets the current theme
func SetTheme(t Theme) {
	CurrentTheme = t
	UserStyle = lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	AssistantStyle = lipgloss.NewStyle().Foreground(t.Accent)
	ToolStyle = lipgloss.NewStyle().Foreground(t.TextMuted).Italic(true)
	DimStyle = lipgloss.NewStyle().Foreground(t.TextMuted)
	ErrorStyle = lipgloss.NewStyle().Foreground(t.Danger).Bold(true)
	TitleStyle = lipgloss.NewStyle().Foreground(t.Text).Bold(true)
}

// DisableColor replaces every style with an unstyled one.
func DisableColor() {
	plain := lipgloss.NewStyle()
	UserStyle, AssistantStyle, ToolStyle = plain, plain, plain
	DimStyle, ErrorStyle, TitleStyle = plain, plain, plain
}

// Preview flattens s onto one line and truncates it to width cells.
func Preview(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if width <= 0 {
		return s
	}
	return ansi.Truncate(s, width, "…")
}
