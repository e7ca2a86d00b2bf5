// Package ui holds the terminal prompts and styles used by the parkspot CLI.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/kamikazebr/parkspot/pkg/models"
)

var (
	accentColor    = lipgloss.Color("#2E86DE")
	mutedColor     = lipgloss.Color("#888888")
	availableColor = lipgloss.Color("#27AE60")
	occupiedColor  = lipgloss.Color("#E74C3C")
	warningColor   = lipgloss.Color("#FFAA00")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	UnselectedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	CursorStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	AvailableStyle = lipgloss.NewStyle().
			Foreground(availableColor).
			Bold(true)

	OccupiedStyle = lipgloss.NewStyle().
			Foreground(occupiedColor)
)

// Status renders the spot's availability label in its colour.
func Status(spot models.ParkingSpot) string {
	if spot.Available {
		return AvailableStyle.Render(spot.StatusLabel())
	}
	return OccupiedStyle.Render(spot.StatusLabel())
}

// Interactive reports whether stdin and stdout are both terminals, which
// the prompts need.
func Interactive() bool {
	return isTerminal(os.Stdin.Fd()) && isTerminal(os.Stdout.Fd())
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
