package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Palette. Adaptive colors keep output readable on light terminals.
var (
	colorTitle   = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	colorSection = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}
	colorOK      = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"}
	colorFailure = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	colorWarn    = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	colorValue   = lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#93C5FD"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	colorCell    = lipgloss.AdaptiveColor{Light: "#111827", Dark: "#E5E7EB"}
	colorStripe  = lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#1F2937"}
)

var (
	SuccessStyle = lipgloss.NewStyle().Foreground(colorOK)
	ErrorStyle   = lipgloss.NewStyle().Foreground(colorFailure)
	WarningStyle = lipgloss.NewStyle().Foreground(colorWarn)
	InfoStyle    = lipgloss.NewStyle().Foreground(colorValue)
	DimStyle     = lipgloss.NewStyle().Foreground(colorMuted)

	TitleStyle   = lipgloss.NewStyle().Foreground(colorTitle).Bold(true).MarginBottom(1)
	SectionStyle = lipgloss.NewStyle().Foreground(colorSection).Bold(true).MarginTop(1)

	// BoxStyle frames error messages; the border takes the failure color.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorFailure).
			Padding(0, 1)

	TableHeaderStyle = lipgloss.NewStyle().Foreground(colorCell).Bold(true)
	TableRowStyle    = lipgloss.NewStyle().Foreground(colorCell)
)

// Plain disables colors, borders and highlighting.
var Plain = false

// TerminalWidth is the width used for wrapping.
func TerminalWidth() int {
	return 100
}

// IsCI reports whether output goes to a CI log.
func IsCI() bool {
	for _, name := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"} {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

func render(style lipgloss.Style, text string) string {
	if Plain {
		return text
	}
	return style.Render(text)
}

// TruncateWithEllipsis cuts s to width bytes, marking the cut with "...".
func TruncateWithEllipsis(s string, width int) string {
	switch {
	case len(s) <= width:
		return s
	case width <= 3:
		return s[:width]
	}
	return s[:width-3] + "..."
}
