package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// LoadState is what a paged list shows besides its items.
type LoadState int

const (
	LoadNone LoadState = iota
	LoadSpinner
	LoadError
	LoadMoreSpinner
	LoadMoreError
	LoadNoContent
)

// ResolveLoadState picks the single indicator to show. The initial load
// outranks its error, which outranks load-more progress and its error. An
// error ending in 404 is not a failure: on the initial load the list is
// empty, on a later page the list has simply ended.
func ResolveLoadState(loading bool, err string, loadingMore bool, errMore string) LoadState {
	switch {
	case loading:
		return LoadSpinner
	case err != "":
		if strings.HasSuffix(strings.TrimSpace(err), "404") {
			return LoadNoContent
		}
		return LoadError
	case loadingMore:
		return LoadMoreSpinner
	case errMore != "":
		if strings.HasSuffix(strings.TrimSpace(errMore), "404") {
			return LoadNone
		}
		return LoadMoreError
	default:
		return LoadNone
	}
}

// renderLoadState draws the indicator for state; LoadNone renders nothing.
func renderLoadState(state LoadState, sp spinner.Model, err, errMore string, width int) string {
	switch state {
	case LoadSpinner:
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).
			Render(sp.View() + " " + renderMuted(MsgLoading))
	case LoadError:
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).
			Render(ErrorMessageStyle.Render("✗ "+truncateEnd(err, width-4)) + "\n" + renderHelp("r: retry"))
	case LoadMoreSpinner:
		return sp.View() + " " + renderMuted(MsgLoadingMore)
	case LoadMoreError:
		return ErrorMessageStyle.Render("✗ "+truncateEnd(errMore, width-16)) + " " + renderHelp("r: retry")
	case LoadNoContent:
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(renderMuted(MsgNothingHere))
	default:
		return ""
	}
}
