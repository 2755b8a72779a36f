package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

const ellipsis = "…"

// truncateEnd cuts s so it occupies at most width terminal cells, ending in
// an ellipsis when anything was dropped. Wide runes (emoji, CJK) count double.
func truncateEnd(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	return takeCells([]rune(s), width-1) + ellipsis
}

// truncateMiddle keeps both ends of s, which suits URLs and hostnames.
func truncateMiddle(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	budget := width - 1
	head := takeCells(r, budget/2)
	tail := reverse(takeCells(reversed(r), budget-lipgloss.Width(head)))
	return head + ellipsis + tail
}

// takeCells returns the longest prefix of r that fits in width cells.
func takeCells(r []rune, width int) string {
	used := 0
	for i, c := range r {
		w := lipgloss.Width(string(c))
		if used+w > width {
			return string(r[:i])
		}
		used += w
	}
	return string(r)
}

func reversed(r []rune) []rune {
	out := make([]rune, len(r))
	for i, c := range r {
		out[len(r)-1-i] = c
	}
	return out
}

func reverse(s string) string { return string(reversed([]rune(s))) }

// countLabel formats n with the singular or plural noun.
func countLabel(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
