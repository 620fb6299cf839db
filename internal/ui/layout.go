// Package ui is the terminal consumer of a repository: a flat list kept in
// step with the working-tree model by positional events, a diff viewport
// and the lipgloss renderers they share with the CLI.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

// PlaceCentre centres content both horizontally and vertically within the given dimensions.
func PlaceCentre(width, height int, content string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

// Truncate cuts s to width terminal cells, ending in "…" when cut. ANSI
// sequences are preserved.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	return truncate.StringWithTail(s, uint(width), "…")
}

// PadRight pads s with spaces to the given width.
func PadRight(s string, width int) string {
	n := lipgloss.Width(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
