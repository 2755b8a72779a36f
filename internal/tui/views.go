package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pders01/crumb/internal/api"
)

func (a *App) View() string {
	if a.width == 0 {
		return ""
	}

	var content string
	bodyHeight := max(a.height-3, 1)

	switch a.view {
	case ViewRecipes, ViewBlogs, ViewEvents, ViewFollowing:
		content = lipgloss.JoinVertical(lipgloss.Top,
			renderTabs(a.view, a.accountLabel(), a.width),
			a.listView(a.current(), bodyHeight-1),
		)
	case ViewSearch:
		content = a.searchView(bodyHeight)
	case ViewUser:
		content = a.profileView(bodyHeight)
	case ViewReader:
		content = a.readerView(bodyHeight)
	case ViewLogin, ViewRegister:
		content = a.formView(a.auth, bodyHeight)
	case ViewCompose:
		if a.compose != nil {
			content = a.formView(a.compose.form, bodyHeight)
		}
	case ViewDeleteConfirm:
		content = a.deleteView(bodyHeight)
	case ViewHistory:
		content = a.historyView(bodyHeight)
	}

	content = ContentWrapper(a.width, bodyHeight).Render(content)

	customStatus := a.getCustomStatusBar()
	if customStatus == "" {
		return content
	}
	separatorWidth := max(a.width-2, 0)
	separator := SeparatorStyle.Render("─" + strings.Repeat("─", separatorWidth))
	return lipgloss.JoinVertical(lipgloss.Top, content, separator, customStatus)
}

// accountLabel names the signed in user, or the server for guests.
func (a *App) accountLabel() string {
	v := a.session.Viewer()
	if v.Anonymous() {
		return "guest @ " + truncateMiddle(a.config.API.BaseURL, 32)
	}
	if v.IsAdmin() {
		return "@" + v.Username + " (admin)"
	}
	return "@" + v.Username
}

// listView draws a paged list with its loading indicator below it.
func (a *App) listView(s *screen, height int) string {
	if a.view == ViewFollowing && !a.session.LoggedIn() {
		return renderCentered(a.width, height, GetCompactBanner(MsgLoginToSee))
	}
	if s == nil {
		return ""
	}
	snap := s.pager.Snapshot()
	state := ResolveLoadState(snap.Loading, snap.Err, snap.LoadingMore, snap.ErrMore)

	if len(snap.Items) == 0 {
		switch state {
		case LoadNone:
			return renderCentered(a.width, height, GetWelcomeMessage())
		default:
			return renderCentered(a.width, height, renderLoadState(state, a.spinner, snap.Err, snap.ErrMore, a.width))
		}
	}

	indicator := renderLoadState(state, a.spinner, snap.Err, snap.ErrMore, a.width)
	if indicator == "" && snap.TotalPages > 0 {
		loaded := min(snap.PageNumber-1, snap.TotalPages)
		indicator = renderMuted(fmt.Sprintf("page %d of %d", loaded, snap.TotalPages))
	}
	return lipgloss.JoinVertical(lipgloss.Top, s.list.View(), indicator)
}

func (a *App) searchView(height int) string {
	header := "› search " + a.searchKind.Collection()
	input := renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), a.searchInput.Width)

	s := a.current()
	var results string
	if s != nil {
		results = a.listView(s, height-5)
	} else if strings.TrimSpace(a.searchInput.Value()) == "" {
		results = renderMuted("Start typing to search " + a.searchKind.Collection())
	}

	return lipgloss.JoinVertical(lipgloss.Top,
		HeaderStyle.Render(header),
		input,
		results,
	)
}

func (a *App) profileView(height int) string {
	p := a.profile
	if p == nil {
		return renderCentered(a.width, height, a.spinner.View()+" "+renderMuted(MsgLoadingItem))
	}

	subtitle := []string{
		countLabel(p.user.FollowersCount, "follower", "followers"),
		fmt.Sprintf("%d following", p.user.FollowingCount),
	}
	if st := p.preview.Snapshot(); st.Following {
		subtitle = append(subtitle, "you follow them")
	}
	if p.user.Role == api.RoleAdmin {
		subtitle = append(subtitle, "admin")
	}
	rows := []string{renderHeader("@"+p.user.Username, strings.Join(subtitle, " • "), a.width)}
	if p.user.Bio != "" {
		rows = append(rows, ModalTextStyle.Render(truncateEnd(p.user.Bio, a.width-2)))
	} else {
		rows = append(rows, "")
	}

	tabs := []string{"recipes", "blogs"}
	for i, t := range tabs {
		if i == p.tab {
			tabs[i] = ActiveTabStyle.Render(t)
		} else {
			tabs[i] = TabStyle.Render(t)
		}
	}
	rows = append(rows, strings.Join(tabs, " "), a.listView(p.active(), height-3))
	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}

func (a *App) readerView(height int) string {
	r := a.reader.item
	subtitle := []string{string(r.kind)}
	if r.author != "" {
		subtitle = append(subtitle, "by "+r.author)
	}
	if r.preview != nil {
		st := r.preview.Snapshot()
		if st.Loaded {
			subtitle = append(subtitle, counts(r.kind, st)...)
		}
		if st.Liked {
			subtitle = append(subtitle, LikedStyle.Render("♥ liked"))
		}
		if st.Bookmarked {
			subtitle = append(subtitle, BookmarkedStyle.Render("★ saved"))
		}
		if st.Following {
			subtitle = append(subtitle, "following author")
		}
		if st.Image != nil {
			subtitle = append(subtitle, "o: image")
		}
	}
	header := renderHeader(r.title, strings.Join(subtitle, " • "), a.width)

	if a.reader.loading {
		return lipgloss.JoinVertical(lipgloss.Top, header,
			renderCentered(a.width, height-2, a.spinner.View()+" "+renderMuted(MsgLoadingItem)))
	}
	return lipgloss.JoinVertical(lipgloss.Top, header, a.viewport.View())
}

func (a *App) formView(f *form, height int) string {
	if f == nil {
		return ""
	}
	var help string
	switch a.view {
	case ViewLogin:
		help = "No account yet? " + a.keyHandler.modifierKey + "r"
	case ViewRegister:
		help = "Already registered? " + a.keyHandler.modifierKey + "r"
	case ViewCompose:
		help = "Saved as a draft if publishing fails"
	}
	if f.busy {
		help = a.spinner.View() + " " + help
	}
	return renderCentered(a.width, height, f.view(f.fields[0].input.Width, help))
}

func (a *App) deleteView(height int) string {
	name := "this item"
	if a.pendingDelete != nil && a.pendingDelete.title != "" {
		name = a.pendingDelete.title
	}

	modalWidth := (a.width * 4) / 5
	if modalWidth < 20 {
		modalWidth = max(a.width-4, 15)
	}
	name = truncateEnd(name, modalWidth-4)

	center := lipgloss.NewStyle().Width(modalWidth).Align(lipgloss.Center)
	kind := "item"
	if a.pendingDelete != nil {
		kind = string(a.pendingDelete.kind)
	}

	return renderCentered(a.width, height, lipgloss.JoinVertical(
		lipgloss.Center,
		lipgloss.NewStyle().Foreground(ErrorColor).Bold(true).Render("⚠ Delete "+kind),
		"",
		center.Inherit(ModalTextStyle).Render("Delete this "+kind+"?"),
		"",
		center.Inherit(ModalHighlightStyle).Render(name),
		"",
		center.Foreground(MutedColor).Render("This cannot be undone."),
		"",
		"",
		HelpStyle.Render("Enter: confirm • Esc: cancel"),
	))
}

func (a *App) historyView(height int) string {
	input := renderInputFrame(a.historyInput.View(), a.historyInput.Focused(), a.historyInput.Width)
	body := a.history.View()
	if len(a.history.Items()) == 0 {
		body = renderCentered(a.width, height-5, renderMuted("Nothing opened yet"))
	}
	return lipgloss.JoinVertical(lipgloss.Top,
		HeaderStyle.Render("› history"),
		input,
		body,
	)
}

func (a *App) getCustomStatusBar() string {
	commands := a.keyHandler.GetHelpForCurrentView()
	if len(commands) == 0 && a.status == "" {
		return ""
	}

	bar := lipgloss.NewStyle().Width(a.width).Padding(0, 1).Foreground(MutedColor)
	if a.status != "" {
		return bar.Render(a.statusKind.render(truncateEnd(a.status, a.width-4)))
	}
	return bar.Render(truncateEnd(strings.Join(commands, " • "), a.width-2))
}
