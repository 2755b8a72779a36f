package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/pders01/crumb/internal/config"
)

const AppName = "crumb"

// LogoLines is the canonical crumb logo.
var LogoLines = []string{
	" ▄▄▄▄  ▄▄▄▄▄  ▄▄   ▄▄ ▄▄   ▄▄ ▄▄▄▄▄ ",
	"██▀▀▀  ██  ██ ██   ██ ███▄███ ██  ██",
	"██     ██▀▀█▄ ██   ██ ██ ▀ ██ ██▀▀█▄",
	"██▄▄▄  ██  ██ ▀█▄▄▄█▀ ██   ██ ██▄▄█▀",
	" ▀▀▀▀  ▀▀  ▀▀   ▀▀▀   ▀▀   ▀▀ ▀▀▀▀  ",
}

const CompactLogo = `crumb ›`

// Brand colors. ApplyTheme replaces them from config.
var (
	PrimaryColor   lipgloss.Color
	SecondaryColor lipgloss.Color
	AccentColor    lipgloss.Color

	BackgroundColor lipgloss.Color
	SurfaceColor    lipgloss.Color
	TextColor       lipgloss.Color
	MutedColor      lipgloss.Color

	HighlightColor lipgloss.Color
	ErrorColor     lipgloss.Color
	SuccessColor   lipgloss.Color
)

// Banner gradient colors
var BannerColors []lipgloss.Color

// Styled components, rebuilt by ApplyTheme.
var (
	LogoStyle           lipgloss.Style
	TitleStyle          lipgloss.Style
	HeaderStyle         lipgloss.Style
	StatusBarStyle      lipgloss.Style
	SelectedItemStyle   lipgloss.Style
	HelpStyle           lipgloss.Style
	TimeStyle           lipgloss.Style
	ModalTextStyle      lipgloss.Style
	ModalHighlightStyle lipgloss.Style
	ErrorMessageStyle   lipgloss.Style
	SeparatorStyle      lipgloss.Style
	StatusInfoStyle     lipgloss.Style
	StatusSuccessStyle  lipgloss.Style
	StatusWarnStyle     lipgloss.Style
	StatusErrorStyle    lipgloss.Style
	LikedStyle          lipgloss.Style
	BookmarkedStyle     lipgloss.Style
	AuthorStyle         lipgloss.Style
	TabStyle            lipgloss.Style
	ActiveTabStyle      lipgloss.Style
	EmptyStyle          = lipgloss.NewStyle()
)

func init() {
	ApplyTheme(config.Default().UI.Colors, false)
}

// ApplyTheme sets the palette from colors. Inverted swaps the background
// and text colors for light terminals.
func ApplyTheme(colors config.UIColors, inverted bool) {
	PrimaryColor = lipgloss.Color(colors.Primary)
	SecondaryColor = lipgloss.Color(colors.Secondary)
	AccentColor = lipgloss.Color(colors.Accent)
	BackgroundColor = lipgloss.Color(colors.Background)
	SurfaceColor = lipgloss.Color(colors.Surface)
	TextColor = lipgloss.Color(colors.Text)
	MutedColor = lipgloss.Color(colors.Muted)
	HighlightColor = lipgloss.Color(colors.Accent)
	ErrorColor = lipgloss.Color(colors.Error)
	SuccessColor = lipgloss.Color(colors.Success)
	if inverted {
		BackgroundColor, TextColor = TextColor, BackgroundColor
		SurfaceColor = lipgloss.Color(colors.Muted)
		MutedColor = lipgloss.Color(colors.Surface)
	}
	BannerColors = []lipgloss.Color{PrimaryColor, AccentColor, SecondaryColor, AccentColor, PrimaryColor}
	buildStyles()
}

func buildStyles() {
	LogoStyle = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true)
	TitleStyle = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(SurfaceColor).
		Bold(true).
		Padding(0, 2)
	HeaderStyle = lipgloss.NewStyle().Foreground(SecondaryColor).Bold(true)
	StatusBarStyle = lipgloss.NewStyle().Foreground(MutedColor).Padding(0, 1)
	SelectedItemStyle = lipgloss.NewStyle().
		Foreground(BackgroundColor).
		Background(AccentColor).
		Bold(true)
	HelpStyle = lipgloss.NewStyle().Foreground(MutedColor).Italic(true)
	TimeStyle = lipgloss.NewStyle().Foreground(MutedColor).Faint(true)
	ModalTextStyle = lipgloss.NewStyle().Foreground(TextColor)
	ModalHighlightStyle = lipgloss.NewStyle().Foreground(HighlightColor).Bold(true)
	ErrorMessageStyle = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	SeparatorStyle = lipgloss.NewStyle().Foreground(MutedColor)
	StatusInfoStyle = lipgloss.NewStyle().Foreground(MutedColor)
	StatusSuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	StatusWarnStyle = lipgloss.NewStyle().Foreground(HighlightColor)
	StatusErrorStyle = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	LikedStyle = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true)
	BookmarkedStyle = lipgloss.NewStyle().Foreground(AccentColor)
	AuthorStyle = lipgloss.NewStyle().Foreground(SecondaryColor)
	TabStyle = lipgloss.NewStyle().Foreground(MutedColor).Padding(0, 1)
	ActiveTabStyle = lipgloss.NewStyle().
		Foreground(BackgroundColor).
		Background(PrimaryColor).
		Bold(true).
		Padding(0, 1)
}

// ContentWrapper returns a style for wrapping content with width and height constraints
func ContentWrapper(width, height int) lipgloss.Style {
	return EmptyStyle.Width(width).Height(height).MaxHeight(height)
}

func GetWelcomeMessage() string {
	return GetCompactBanner("Nothing here yet. Press r to reload or ctrl+n to post something.")
}

func GetCompactBanner(message string) string {
	var coloredLines []string
	for _, line := range LogoLines {
		coloredLines = append(coloredLines, LogoStyle.Render(line))
	}

	logo := lipgloss.JoinVertical(lipgloss.Center, coloredLines...)

	return lipgloss.JoinVertical(
		lipgloss.Center,
		logo,
		"",
		HelpStyle.Render(message),
	)
}

// Banner returns the startup banner with an optional version tagline.
func Banner(version string) string {
	lines := make([]string, len(LogoLines)+1)
	copy(lines, LogoLines)

	tagline := "    Recipes · Blogs · Events"
	if version != "" && version != "dev" {
		if version[0] != 'v' && version[0] != 'V' {
			version = "v" + version
		}
		tagline += " " + version
	}
	lines = append(lines, tagline)

	var coloredLines []string
	for i, line := range lines {
		if line == "" {
			coloredLines = append(coloredLines, line)
			continue
		}
		style := lipgloss.NewStyle().
			Foreground(BannerColors[i%len(BannerColors)]).
			Bold(i < len(LogoLines))
		coloredLines = append(coloredLines, style.Render(line))
	}

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(SecondaryColor).
		Padding(1, 3).
		MarginTop(1)

	output := borderStyle.Render(lipgloss.JoinVertical(lipgloss.Center, coloredLines...))
	return lipgloss.NewStyle().Width(70).Align(lipgloss.Center).Render(output)
}

func ShowBanner(version string) {
	fmt.Println(Banner(version))
}
