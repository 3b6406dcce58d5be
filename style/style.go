// Package style provides a functional API for composing and applying lipgloss-based terminal styles.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/ytrelay/ytrelay/color"
)

// New returns an empty lipgloss.Style used as a foundation for visual composition.
func New() lipgloss.Style {
	return lipgloss.NewStyle()
}

// Colored initializes a new style with the specified foreground and background colors.
func Colored(fg, bg lipgloss.Color) lipgloss.Style {
	return New().Foreground(fg).Background(bg)
}

// Fg returns a stateless rendering function that applies the specified foreground color to a string.
func Fg(c lipgloss.Color) func(string) string {
	return func(s string) string { return Colored(c, "").Render(s) }
}

// Standard Text Transformation Helpers - these functions apply common typographic styles like bold or italics.
var (
	Faint  = func(s string) string { return New().Faint(true).Render(s) }
	Bold   = func(s string) string { return New().Bold(true).Render(s) }
	Italic = func(s string) string { return New().Italic(true).Render(s) }
)

// Title renders a padded banner in the accent colors.
var Title = func(s string) string {
	return Colored(color.Cream, AccentColor).Padding(0, 1).Render(s)
}

// ErrorTitle renders a visually highlighted banner using dominant error status colors.
var ErrorTitle = func(s string) string {
	return Colored(color.Cream, ErrorColor).Padding(0, 1).Render(s)
}

// Tag returns a rendering function that encapsulates a string in a colored, padded tag block.
func Tag(fg, bg lipgloss.Color) func(string) string {
	return func(s string) string { return Colored(fg, bg).Padding(0, 1).Render(s) }
}

// Status colors an HTTP status code by class.
func Status(code int) lipgloss.Color {
	switch {
	case code >= 500:
		return ErrorColor
	case code >= 400:
		return WarningColor
	default:
		return SuccessColor
	}
}

// ErrorBox wraps message to width and frames it with a rounded error border.
// A non-positive width disables wrapping.
func ErrorBox(title, message string, width int) string {
	body := message
	if width > 4 {
		body = wordwrap.String(message, width-4)
	}

	return New().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ErrorColor).
		Padding(0, 1).
		Render(ErrorTitle(title) + "\n\n" + body)
}
