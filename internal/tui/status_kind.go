package tui

import "github.com/charmbracelet/lipgloss"

// StatusKind indicates severity for status messages/spinners.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

func (k StatusKind) style() lipgloss.Style {
	switch k {
	case StatusSuccess:
		return StatusSuccessStyle
	case StatusWarn:
		return StatusWarnStyle
	case StatusError:
		return StatusErrorStyle
	default:
		return StatusInfoStyle
	}
}

func (k StatusKind) icon() string {
	switch k {
	case StatusSuccess:
		return "✓ "
	case StatusWarn:
		return "! "
	case StatusError:
		return "✗ "
	default:
		return ""
	}
}

// render draws text as a status line of this severity.
func (k StatusKind) render(text string) string {
	return k.style().Render(k.icon() + text)
}
