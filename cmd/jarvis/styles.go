package main

import (
	"github.com/charmbracelet/lipgloss"

	"jarvis/internal/session"
)

type styles struct {
	dark bool

	header    lipgloss.Style
	title     lipgloss.Style
	indicator lipgloss.Style
	muted     lipgloss.Style
	warn      lipgloss.Style
	ok        lipgloss.Style
	user      lipgloss.Style
	jarvis    lipgloss.Style
	panel     lipgloss.Style
	panelHead lipgloss.Style
	input     lipgloss.Style
	footer    lipgloss.Style
	high      lipgloss.Style
	done      lipgloss.Style
}

type palette struct {
	accent, alt, text, muted, bad, good, border lipgloss.Color
	dark                                        bool
}

// Stealth is the original dark cyan scheme; Stark Industrial is the light
// red and gold one.
var (
	stealth = palette{
		accent: "#00d8ff", alt: "#0a84ff", text: "#d7f9ff", muted: "#4d7a87",
		bad: "#ff5f5f", good: "#5fffaf", border: "#00617a", dark: true,
	}
	industrial = palette{
		accent: "#b3001b", alt: "#c99700", text: "#1a1a1a", muted: "#7a6a55",
		bad: "#d70000", good: "#2e7d32", border: "#c99700",
	}
)

func newStyles(t session.Theme) styles {
	p := stealth
	if t == session.ThemeLight {
		p = industrial
	}

	return styles{
		dark: p.dark,
		header: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(p.border).
			Padding(0, 1),
		title:     lipgloss.NewStyle().Foreground(p.accent).Bold(true),
		indicator: lipgloss.NewStyle().Foreground(p.alt).Bold(true),
		muted:     lipgloss.NewStyle().Foreground(p.muted),
		warn:      lipgloss.NewStyle().Foreground(p.bad).Bold(true),
		ok:        lipgloss.NewStyle().Foreground(p.good),
		user:      lipgloss.NewStyle().Foreground(p.alt).Bold(true),
		jarvis:    lipgloss.NewStyle().Foreground(p.accent).Bold(true),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Foreground(p.text).
			Padding(0, 1),
		panelHead: lipgloss.NewStyle().Foreground(p.accent).Bold(true).Underline(true),
		input: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(p.border),
		footer: lipgloss.NewStyle().Foreground(p.muted).Padding(0, 1),
		high:   lipgloss.NewStyle().Foreground(p.bad),
		done:   lipgloss.NewStyle().Foreground(p.muted).Strikethrough(true),
	}
}
