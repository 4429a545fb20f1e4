package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"agent-council/internal/council"
)

var (
	// Colors
	colorPrimary   = lipgloss.Color("99")
	colorSecondary = lipgloss.Color("241")
	colorSuccess   = lipgloss.Color("82")
	colorWarning   = lipgloss.Color("214")
	colorError     = lipgloss.Color("196")
	colorHighlight = lipgloss.Color("212")
	colorMuted     = lipgloss.Color("245")
	colorActive    = lipgloss.Color("86")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorHighlight)

	roleNameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("81"))

	statusOKStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSuccess)

	statusWarnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWarning)

	statusErrorStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorError)

	statusActiveStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorActive)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	dividerStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	iconOK      = statusOKStyle.Render("✓")
	iconWarn    = statusWarnStyle.Render("!")
	iconError   = statusErrorStyle.Render("✗")
	iconRunning = statusActiveStyle.Render("●")
	iconQueued  = labelStyle.Render("○")
	iconArrow   = lipgloss.NewStyle().Foreground(colorHighlight).Render("→")
)

func renderStateIcon(state council.State) string {
	switch state {
	case council.StateDone:
		return iconOK
	case council.StateRunning:
		return iconRunning
	case council.StateQueued:
		return iconQueued
	case council.StateTimedOut, council.StateCanceled:
		return iconWarn
	default:
		return iconError
	}
}

func stateStyle(state council.State) lipgloss.Style {
	switch state {
	case council.StateDone:
		return statusOKStyle
	case council.StateRunning:
		return statusActiveStyle
	case council.StateQueued:
		return labelStyle
	case council.StateTimedOut, council.StateCanceled:
		return statusWarnStyle
	default:
		return statusErrorStyle
	}
}

func renderDivider(width int) string {
	return dividerStyle.Render(strings.Repeat("─", width))
}
