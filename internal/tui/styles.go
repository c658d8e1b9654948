package tui

import "github.com/charmbracelet/lipgloss"

type Theme string

const (
	ThemeDefault      Theme = "default"
	ThemeHighContrast Theme = "high-contrast"
)

type palette struct {
	accent    lipgloss.Color
	dim       lipgloss.Color
	unread    lipgloss.Color
	outbound  lipgloss.Color
	inbound   lipgloss.Color
	errorText lipgloss.Color
}

func paletteFor(theme Theme) palette {
	if theme == ThemeHighContrast {
		return palette{
			accent:    lipgloss.Color("15"),
			dim:       lipgloss.Color("7"),
			unread:    lipgloss.Color("11"),
			outbound:  lipgloss.Color("14"),
			inbound:   lipgloss.Color("15"),
			errorText: lipgloss.Color("9"),
		}
	}
	return palette{
		accent:    lipgloss.Color("75"),
		dim:       lipgloss.Color("241"),
		unread:    lipgloss.Color("214"),
		outbound:  lipgloss.Color("117"),
		inbound:   lipgloss.Color("252"),
		errorText: lipgloss.Color("196"),
	}
}

type styleSet struct {
	header    lipgloss.Style
	footer    lipgloss.Style
	selected  lipgloss.Style
	normal    lipgloss.Style
	unread    lipgloss.Style
	closed    lipgloss.Style
	outbound  lipgloss.Style
	inbound   lipgloss.Style
	timestamp lipgloss.Style
	errorLine lipgloss.Style
}

func newStyleSet(theme Theme) styleSet {
	p := paletteFor(theme)
	return styleSet{
		header:    lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		footer:    lipgloss.NewStyle().Foreground(p.dim),
		selected:  lipgloss.NewStyle().Bold(true).Foreground(p.accent).Reverse(true),
		normal:    lipgloss.NewStyle(),
		unread:    lipgloss.NewStyle().Bold(true).Foreground(p.unread),
		closed:    lipgloss.NewStyle().Foreground(p.dim).Strikethrough(true),
		outbound:  lipgloss.NewStyle().Foreground(p.outbound),
		inbound:   lipgloss.NewStyle().Foreground(p.inbound),
		timestamp: lipgloss.NewStyle().Foreground(p.dim),
		errorLine: lipgloss.NewStyle().Foreground(p.errorText),
	}
}
