package shell

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	Primary = lipgloss.Color("#5B8DEF")
	Accent  = lipgloss.Color("#8BC34A")
	Danger  = lipgloss.Color("#E5534B")
	Muted   = lipgloss.Color("#8B949E")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	ruleStyle    = lipgloss.NewStyle().Foreground(Muted)
	okStyle      = lipgloss.NewStyle().Foreground(Accent)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(Danger)
	mutedStyle   = lipgloss.NewStyle().Foreground(Muted)
	sectionStyle = lipgloss.NewStyle().Bold(true)
)

const ruleWidth = 60

// heading renders a title framed by rules.
func heading(title string, width int) string {
	rule := ruleStyle.Render(strings.Repeat("=", width))
	return lipgloss.JoinVertical(lipgloss.Left, rule, titleStyle.Render(title), rule)
}

// subheading renders a section title over a short rule.
func subheading(title string) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render(title),
		ruleStyle.Render(strings.Repeat("-", 30)))
}
