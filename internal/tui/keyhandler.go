package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pders01/crumb/internal/api"
	"github.com/pders01/crumb/internal/config"
	"github.com/pders01/crumb/internal/preview"
)

type KeyHandler struct {
	app         *App
	config      *config.Config
	modifierKey string
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	modifierKey := cfg.Keys.Modifier + "+"
	return &KeyHandler{app: app, config: cfg, modifierKey: modifierKey}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(key); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.view {
	case ViewLogin, ViewRegister, ViewCompose:
		return true
	case ViewSearch:
		return kh.app.searchInput.Focused()
	case ViewHistory:
		return kh.app.historyInput.Focused()
	default:
		return false
	}
}

// activeForm is the form of the current view, if any.
func (kh *KeyHandler) activeForm() *form {
	switch kh.app.view {
	case ViewLogin, ViewRegister:
		return kh.app.auth
	case ViewCompose:
		if kh.app.compose != nil {
			return kh.app.compose.form
		}
	}
	return nil
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	key := msg.String()

	switch key {
	case "ctrl+c":
		return a, tea.Quit
	case "esc":
		return kh.navigateBack()
	}

	if f := kh.activeForm(); f != nil {
		return kh.handleFormKey(f, msg)
	}

	switch key {
	case "enter", "tab", "down":
		switch a.view {
		case ViewSearch:
			if key == "enter" {
				cmd := a.runSearch()
				a.searchInput.Blur()
				return a, cmd
			}
			if s := a.current(); s != nil && len(s.list.Items()) > 0 {
				a.searchInput.Blur()
			}
		case ViewHistory:
			if len(a.history.Items()) > 0 {
				a.historyInput.Blur()
			}
		}
		return a, nil
	case kh.modifierKey + "k":
		if a.view == ViewSearch {
			return a, a.cycleSearchKind()
		}
	}
	return kh.delegateToTextInput(msg)
}

func (kh *KeyHandler) handleFormKey(f *form, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch msg.String() {
	case "tab", "down":
		f.next()
		return a, nil
	case "shift+tab", "up":
		f.prev()
		return a, nil
	case kh.modifierKey + "r":
		switch a.view {
		case ViewLogin:
			a.openAuth(ViewRegister)
		case ViewRegister:
			a.openAuth(ViewLogin)
		}
		return a, nil
	case "enter":
		if !f.last() {
			f.next()
			return a, nil
		}
		return a, kh.submit()
	case kh.modifierKey + "d":
		if a.view == ViewCompose {
			return a, kh.submit()
		}
	}
	return a, f.update(msg)
}

func (kh *KeyHandler) submit() tea.Cmd {
	a := kh.app
	switch a.view {
	case ViewLogin:
		if a.auth.busy {
			return nil
		}
		return a.submitLogin()
	case ViewRegister:
		if a.auth.busy {
			return nil
		}
		return a.submitRegister()
	case ViewCompose:
		if a.compose.busy {
			return nil
		}
		return a.submitCompose()
	}
	return nil
}

// delegateToTextInput passes the key to the focused search box, scheduling
// a debounced search when its value changed.
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewSearch:
		prev := a.searchInput.Value()
		var cmd tea.Cmd
		a.searchInput, cmd = a.searchInput.Update(msg)
		if a.searchInput.Value() != prev {
			return a, tea.Batch(cmd, a.scheduleSearch())
		}
		return a, cmd

	case ViewHistory:
		prev := a.historyInput.Value()
		var cmd tea.Cmd
		a.historyInput, cmd = a.historyInput.Update(msg)
		if a.historyInput.Value() != prev {
			return a, tea.Batch(cmd, a.scheduleHistorySearch())
		}
		return a, cmd

	default:
		return a, nil
	}
}

// handleCustomKeys handles only our custom action keys
func (kh *KeyHandler) handleCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app

	switch key {
	case "ctrl+c", "q":
		return a, tea.Quit, true
	case "esc":
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case kh.modifierKey + "s":
		a.openSearch()
		return a, nil, true
	case kh.modifierKey + "r":
		return a, a.openHistory(), true
	case kh.modifierKey + "t":
		a.toggleTheme()
		if a.view == ViewReader {
			return a, a.renderDocument(a.reader.item), true
		}
		return a, nil, true
	case kh.modifierKey + "l":
		if a.session.LoggedIn() {
			return a, a.logout(), true
		}
		a.openAuth(ViewLogin)
		return a, nil, true
	case kh.modifierKey + "n":
		if !a.session.LoggedIn() {
			a.openAuth(ViewLogin)
			a.setStatus(MsgLoginToAct, StatusInfo)
			return a, nil, true
		}
		a.openCompose(composeKind(a.lastTab))
		return a, nil, true
	}

	switch {
	case a.view.isFeedTab():
		if model, cmd, ok := kh.handleTabKeys(key); ok {
			return model, cmd, true
		}
		return kh.handleListKeys(key)
	case a.view == ViewSearch, a.view == ViewUser:
		if a.view == ViewUser && key == "tab" {
			a.profile.tab = 1 - a.profile.tab
			if s := a.current(); s != nil && !s.started {
				return a, a.loadInitial(s), true
			}
			return a, nil, true
		}
		if a.view == ViewSearch && (key == "tab" || key == "/") {
			a.searchInput.Focus()
			return a, nil, true
		}
		return kh.handleListKeys(key)
	case a.view == ViewReader:
		return kh.handleItemKeys(key, a.reader.item)
	case a.view == ViewDeleteConfirm:
		return kh.handleDeleteConfirmKeys(key)
	case a.view == ViewHistory:
		return kh.handleHistoryKeys(key)
	default:
		return a, nil, false
	}
}

func composeKind(tab View) api.Kind {
	switch tab {
	case ViewBlogs:
		return api.KindBlog
	case ViewEvents:
		return api.KindEvent
	default:
		return api.KindRecipe
	}
}

func (kh *KeyHandler) handleTabKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	idx := 0
	for i, t := range feedTabs {
		if t == a.view {
			idx = i
		}
	}
	switch key {
	case "1", "2", "3", "4":
		return a, a.switchTab(feedTabs[int(key[0]-'1')]), true
	case "tab":
		return a, a.switchTab(feedTabs[(idx+1)%len(feedTabs)]), true
	case "shift+tab":
		return a, a.switchTab(feedTabs[(idx+len(feedTabs)-1)%len(feedTabs)]), true
	}
	return a, nil, false
}

// handleListKeys handles keys acting on the selected row of a list.
func (kh *KeyHandler) handleListKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	s := a.current()
	if s == nil {
		return a, nil, false
	}
	if key == "r" {
		if a.view == ViewFollowing && !a.session.LoggedIn() {
			a.openAuth(ViewLogin)
			return a, nil, true
		}
		return a, a.retry(s), true
	}
	r, ok := s.selected()
	if !ok {
		return a, nil, false
	}
	if key == "enter" {
		if r.kind == api.KindUser {
			return a, a.openProfile(r.id), true
		}
		return a, a.openReader(r), true
	}
	return kh.handleItemKeys(key, r)
}

// handleItemKeys handles actions on one item, from a list or the reader.
func (kh *KeyHandler) handleItemKeys(key string, r row) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	perms := a.permissions(r)

	switch key {
	case "l":
		if r.kind == api.KindUser || r.kind == api.KindEvent {
			return a, nil, false
		}
		return a, a.toggle(r.preview, (*preview.Preview).ToggleLike), true
	case "b":
		if r.kind == api.KindUser || r.kind == api.KindEvent {
			return a, nil, false
		}
		return a, a.toggle(r.preview, (*preview.Preview).ToggleBookmark), true
	case "f":
		p := r.preview
		if a.view == ViewUser && a.profile != nil {
			p = a.profile.preview
		}
		return a, a.toggle(p, (*preview.Preview).ToggleFollow), true
	case "o":
		return a, a.openImage(r.preview), true
	case "p":
		if a.view == ViewUser && a.profile != nil && a.profile.user.ID == r.authorID {
			return a, nil, true
		}
		return a, a.openProfile(r.authorID), true
	case kh.modifierKey + "e":
		if !perms.CanEdit || (r.recipe == nil && r.blog == nil && r.event == nil) {
			return a, nil, true
		}
		a.editItem(r)
		return a, nil, true
	case kh.modifierKey + "x":
		if !perms.CanDelete || r.kind == api.KindUser {
			return a, nil, true
		}
		a.confirmDelete(r)
		return a, nil, true
	case kh.modifierKey + "b":
		if !perms.CanBan {
			return a, nil, true
		}
		target := r.authorID
		if a.view == ViewUser && a.profile != nil {
			target = a.profile.user.ID
		}
		return a, a.banUser(target), true
	}
	return a, nil, false
}

// permissions are the viewer's rights over r.
func (a *App) permissions(r row) preview.Permissions {
	viewer := a.session.Viewer()
	if r.preview != nil {
		return r.preview.Permissions(viewer)
	}
	return preview.Permit(viewer, r.authorID, false)
}

func (kh *KeyHandler) handleDeleteConfirmKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	switch key {
	case "enter", "y":
		if a.pendingDelete == nil {
			return a, nil, true
		}
		return a, a.deleteItem(*a.pendingDelete), true
	case "n":
		model, cmd := kh.navigateBack()
		return model, cmd, true
	}
	return a, nil, true
}

func (kh *KeyHandler) handleHistoryKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	switch key {
	case "tab", "/":
		a.historyInput.Focus()
		return a, nil, true
	case "enter":
		if it, ok := a.history.SelectedItem().(historyItem); ok {
			return a, a.fetchItem(it.entry), true
		}
		return a, nil, true
	case kh.modifierKey + "x":
		a.historyInput.SetValue("")
		a.setStatus(MsgHistoryCleared, StatusSuccess)
		return a, a.clearHistory(), true
	}
	return a, nil, false
}

func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	var cmd tea.Cmd

	switch a.view {
	case ViewReader:
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd

	case ViewHistory:
		if msg.String() == "up" && a.history.Index() == 0 {
			a.historyInput.Focus()
			return a, nil
		}
		a.history, cmd = a.history.Update(msg)
		return a, cmd

	case ViewSearch:
		if s := a.current(); s != nil && msg.String() == "up" && s.list.Index() == 0 {
			a.searchInput.Focus()
			return a, nil
		}
	}

	s := a.current()
	if s == nil {
		return a, nil
	}
	s.list, cmd = s.list.Update(msg)
	return a, tea.Batch(cmd, a.scheduleScrollCheck(s))
}

func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewReader:
		back := a.reader.back
		if back == ViewUser && a.profile == nil || back == ViewReader {
			back = a.lastTab
		}
		a.view = back
		return a, nil

	case ViewUser:
		a.closeProfile()
		if a.view == ViewUser || a.view == ViewReader {
			a.view = a.lastTab
		}
		return a, nil

	case ViewSearch, ViewHistory:
		a.searchInput.Blur()
		a.historyInput.Blur()
		a.view = a.lastTab
		a.clearStatus()
		return a, nil

	case ViewLogin, ViewRegister:
		a.auth = nil
		a.view = a.lastTab
		return a, nil

	case ViewCompose:
		a.compose = nil
		a.view = a.lastTab
		return a, nil

	case ViewDeleteConfirm:
		a.pendingDelete = nil
		a.view = a.deleteBack
		return a, nil

	default:
		return a, tea.Quit
	}
}

// GetHelpForCurrentView returns only our custom help text (Charm handles the rest)
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	a := kh.app
	m := kh.modifierKey
	account := m + "l: log in"
	if a.session.LoggedIn() {
		account = m + "l: log out"
	}

	switch a.view {
	case ViewRecipes, ViewBlogs, ViewEvents, ViewFollowing:
		help := []string{"1-4/tab: lists", "enter: open", "l: like", "b: bookmark", "f: follow", m + "n: new", m + "s: search", m + "r: history", account}
		if r, ok := a.selectedRow(); ok {
			help = append(help, kh.itemHelp(r)...)
		}
		return help

	case ViewSearch:
		if a.searchInput.Focused() {
			return []string{"type to search", m + "k: " + a.searchKind.Collection(), "tab/↓: results", "esc: back"}
		}
		return []string{"enter: open", "l: like", "b: bookmark", "f: follow", "tab: search box", "esc: back"}

	case ViewUser:
		help := []string{"tab: recipes/blogs", "enter: open", "f: follow", "o: picture", "esc: back"}
		if a.profile != nil && preview.Permit(a.session.Viewer(), a.profile.user.ID, false).CanBan {
			help = append(help, m+"b: ban")
		}
		return help

	case ViewReader:
		help := []string{"l: like", "b: bookmark", "f: follow", "o: image", "p: author", m + "t: theme"}
		return append(help, kh.itemHelp(a.reader.item)...)

	case ViewLogin:
		return []string{"tab: next field", "enter: log in", m + "r: create account", "esc: cancel"}

	case ViewRegister:
		return []string{"tab: next field", "enter: create", m + "r: log in instead", "esc: cancel"}

	case ViewCompose:
		return []string{"tab: next field", m + "d: publish", "esc: cancel"}

	case ViewDeleteConfirm:
		return []string{"enter: confirm", "esc: cancel"}

	case ViewHistory:
		if a.historyInput.Focused() {
			return []string{"type to search", "tab/↓: results", "esc: back"}
		}
		return []string{"enter: open", m + "x: clear", "tab: search box", "esc: back"}

	default:
		return []string{}
	}
}

func (kh *KeyHandler) itemHelp(r row) []string {
	perms := kh.app.permissions(r)
	var help []string
	if perms.CanEdit && r.kind != api.KindUser {
		help = append(help, kh.modifierKey+"e: edit")
	}
	if perms.CanDelete && r.kind != api.KindUser {
		help = append(help, kh.modifierKey+"x: delete")
	}
	if perms.CanBan {
		help = append(help, kh.modifierKey+"b: ban")
	}
	return help
}

func (a *App) selectedRow() (row, bool) {
	if s := a.current(); s != nil {
		return s.selected()
	}
	return row{}, false
}
