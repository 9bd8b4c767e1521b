package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var (
	accentColor  = lipgloss.Color("#5B8DEF")
	brandColor   = lipgloss.Color("#FF6B6B")
	mutedColor   = lipgloss.Color("#AAAAAA")
	borderColor  = lipgloss.Color("#444444")
	successColor = lipgloss.Color("#2ECC71")
	warnColor    = lipgloss.Color("#F5A623")
	errorColor   = lipgloss.Color("#E74C3C")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(brandColor)
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	labelStyle  = lipgloss.NewStyle().Foreground(mutedColor).Width(10)
	focusLabel  = lipgloss.NewStyle().Foreground(accentColor).Bold(true).Width(10)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)

	kpiStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1).
			Width(16)

	tabStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(mutedColor)
	activeTabStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true).Foreground(accentColor).Underline(true)

	digitStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(borderColor).
			Width(1).
			Align(lipgloss.Center)
	digitFocusStyle  = digitStyle.BorderForeground(accentColor)
	digitLockedStyle = digitStyle.BorderForeground(errorColor).Foreground(errorColor)
	digitAlertStyle  = digitStyle.BorderForeground(errorColor).Foreground(lipgloss.Color("#FFFFFF")).Background(errorColor)

	buttonStyle         = lipgloss.NewStyle().Padding(0, 2).Border(lipgloss.RoundedBorder()).BorderForeground(borderColor)
	buttonFocusStyle    = buttonStyle.BorderForeground(accentColor).Foreground(accentColor).Bold(true)
	buttonDisabledStyle = buttonStyle.Foreground(borderColor)

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(warnColor).
			Padding(1, 2)
)

func noticeStyle(level string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch level {
	case "success":
		return base.Foreground(successColor)
	case "warn":
		return base.Foreground(warnColor)
	case "error":
		return base.Foreground(errorColor)
	default:
		return base.Foreground(accentColor)
	}
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case "valid":
		return lipgloss.NewStyle().Foreground(successColor)
	case "paid":
		return lipgloss.NewStyle().Foreground(accentColor)
	case "not_valid", "not_found":
		return lipgloss.NewStyle().Foreground(errorColor)
	default:
		return lipgloss.NewStyle()
	}
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(accentColor)
	return s
}
