package tui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestTruncateEnd(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "soup", 10, "soup"},
		{"exact", "soup", 4, "soup"},
		{"cut", "sourdough", 5, "sour…"},
		{"zero width", "soup", 0, ""},
		{"single cell", "soup", 1, "…"},
		{"wide runes", "寿司寿司", 5, "寿司…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateEnd(tt.in, tt.width)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, lipgloss.Width(got), max(tt.width, 0))
		})
	}
}

func TestTruncateMiddle(t *testing.T) {
	assert.Equal(t, "http://localhost", truncateMiddle("http://localhost", 32))
	assert.Equal(t, "http…8080", truncateMiddle("http://localhost:8080", 9))
	assert.Equal(t, "", truncateMiddle("abc", 0))
	assert.Equal(t, 9, lipgloss.Width(truncateMiddle("https://recipes.example.com/api", 9)))
}

func TestCountLabel(t *testing.T) {
	assert.Equal(t, "1 follower", countLabel(1, "follower", "followers"))
	assert.Equal(t, "0 followers", countLabel(0, "follower", "followers"))
	assert.Equal(t, "12 followers", countLabel(12, "follower", "followers"))
}
