// Package color holds the terminal colors used by the CLI output.
package color

import "github.com/charmbracelet/lipgloss"

// New wraps an ANSI index or a hex value.
func New(value string) lipgloss.Color {
	return lipgloss.Color(value)
}

// Base ANSI colors. Terminals remap these to their own theme.
var (
	Red    = New("1")
	Green  = New("2")
	Yellow = New("3")
	Blue   = New("4")
	Purple = New("5")
	Cyan   = New("6")
)

var (
	HiRed    = New("9")
	HiPurple = New("13")

	// Cream is the foreground of filled banners.
	Cream = New("230")
)

// Toggle picks the color of a boolean setting.
func Toggle(on bool) lipgloss.Color {
	if on {
		return Green
	}
	return Red
}
