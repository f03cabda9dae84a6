// Package tui provides shared theme and styles for interactive terminal views.
package tui

import "github.com/charmbracelet/lipgloss"

// Colors used across the picker and other views.
var (
	ColorPrimary = lipgloss.Color("#38BDF8") // sky
	ColorAccent  = lipgloss.Color("#FBBF24") // amber

	ColorSuccess = lipgloss.Color("#34D399") // emerald
	ColorError   = lipgloss.Color("#F87171") // red
	ColorMuted   = lipgloss.Color("#6B7280") // gray-500
	ColorText    = lipgloss.Color("#E5E7EB") // gray-200
	ColorSubtle  = lipgloss.Color("#9CA3AF") // gray-400
)

// Shared styles.
var (
	// Title is the main heading style.
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		MarginBottom(1)

	// Selected highlights the currently focused item.
	Selected = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	// Dimmed for non-focused items.
	Dimmed = lipgloss.NewStyle().
		Foreground(ColorMuted)

	// Success for positive messages.
	Success = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle for error messages (avoiding collision with builtin error).
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	// Help for keybind hints at the bottom.
	Help = lipgloss.NewStyle().
		Foreground(ColorMuted)

	// Header for table column labels.
	Header = lipgloss.NewStyle().
		Foreground(ColorSubtle).
		Bold(true)

	// ActiveDot marks the provider currently in use.
	ActiveDot = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Render("●")
)
