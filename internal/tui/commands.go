package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pders01/crumb/internal/api"
	"github.com/pders01/crumb/internal/debuglog"
	"github.com/pders01/crumb/internal/preview"
	"github.com/pders01/crumb/internal/storage"
	"github.com/pders01/crumb/internal/validation"
)

// historyLimit caps the history list and search results.
const historyLimit = 100

func (a *App) loadInitial(s *screen) tea.Cmd {
	if s == nil {
		return nil
	}
	s.started = true
	s.queued = make(map[string]struct{})
	old := s.pager.Snapshot().Items
	// The open reader keeps using its preview and takes over its release.
	var reading *preview.Preview
	if a.reader.open {
		reading = a.reader.item.preview
	}
	return func() tea.Msg {
		err := s.pager.LoadInitial(a.ctx)
		for _, r := range old {
			if r.preview != nil && r.preview != reading {
				r.preview.Release()
			}
		}
		return pageLoadedMsg{screen: s, err: err}
	}
}

func (a *App) loadMore(s *screen) tea.Cmd {
	return func() tea.Msg {
		loaded, err := s.pager.LoadMore(a.ctx)
		if !loaded && err == nil {
			return nil
		}
		return pageLoadedMsg{screen: s, more: true, err: err}
	}
}

// scheduleScrollCheck debounces the near-bottom check; only the latest
// scheduled check runs.
func (a *App) scheduleScrollCheck(s *screen) tea.Cmd {
	if s == nil {
		return nil
	}
	s.seq++
	seq := s.seq
	return tea.Tick(a.config.Feed.Debounce, func(time.Time) tea.Msg {
		return scrollCheckMsg{screen: s, seq: seq}
	})
}

// retry reloads whatever failed on s: the whole list, or just the next page.
func (a *App) retry(s *screen) tea.Cmd {
	snap := s.pager.Snapshot()
	if snap.ErrMore != "" && snap.Err == "" {
		return a.loadMore(s)
	}
	return a.loadInitial(s)
}

func (a *App) prefetch(s *screen) tea.Cmd {
	previews := s.pending()
	if len(previews) == 0 {
		return nil
	}
	return func() tea.Msg {
		if err := preview.Prefetch(a.ctx, previews); err != nil {
			debuglog.WithFields(map[string]any{"screen": s.id}).Warnf("prefetch: %v", err)
		}
		return previewsLoadedMsg{screen: s}
	}
}

func (a *App) loadPreview(p *preview.Preview) tea.Cmd {
	if p == nil {
		return nil
	}
	return func() tea.Msg {
		if err := p.Load(a.ctx); err != nil && !errors.Is(err, preview.ErrDiscarded) {
			debuglog.Warnf("preview load: %v", err)
		}
		return nil
	}
}

// waitForLoginPrompt delivers the next login prompt raised by a toggle.
func (a *App) waitForLoginPrompt() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-a.prompts:
			return loginPromptMsg{}
		case <-a.ctx.Done():
			return nil
		}
	}
}

// reloadAll refreshes every list that has been shown, e.g. after the
// viewer changed.
func (a *App) reloadAll() tea.Cmd {
	var cmds []tea.Cmd
	for _, s := range a.screens {
		if s.started {
			cmds = append(cmds, a.loadInitial(s))
		}
	}
	if s := a.screenFor(a.view); s != nil && !s.started {
		cmds = append(cmds, a.loadInitial(s))
	}
	if a.reader.open {
		cmds = append(cmds, a.loadPreview(a.reader.item.preview))
	}
	return tea.Batch(cmds...)
}

// switchTab shows one of the top-level lists, loading it on first use.
func (a *App) switchTab(v View) tea.Cmd {
	a.view = v
	a.lastTab = v
	a.clearStatus()
	if v == ViewFollowing && !a.session.LoggedIn() {
		a.setStatus(MsgLoginToSee, StatusInfo)
		return nil
	}
	if s := a.screenFor(v); s != nil && !s.started {
		return a.loadInitial(s)
	}
	return nil
}

func (a *App) openReader(r row) tea.Cmd {
	if a.reader.open && a.reader.item.Key() != r.Key() && !a.listed(a.reader.item) && a.reader.item.preview != nil {
		a.reader.item.preview.Release()
	}
	back := a.view
	if back == ViewReader {
		back = a.reader.back
	}
	a.reader = readerState{item: r, open: true, loading: true, back: back}
	a.view = ViewReader
	a.viewport.SetContent("")

	cmds := []tea.Cmd{a.renderDocument(r), a.recordHistory(r)}
	if r.preview != nil && !r.preview.Snapshot().Loaded {
		cmds = append(cmds, a.loadPreview(r.preview))
	}
	return tea.Batch(cmds...)
}

// listed reports whether r's preview belongs to a mounted list, which
// owns its release.
func (a *App) listed(r row) bool {
	mounted := make([]*screen, 0, len(a.screens)+2)
	for _, s := range a.screens {
		mounted = append(mounted, s)
	}
	if a.profile != nil {
		mounted = append(mounted, a.profile.recipes, a.profile.blogs)
	}
	for _, s := range mounted {
		for _, it := range s.list.Items() {
			if other, ok := it.(row); ok && other.preview == r.preview {
				return true
			}
		}
	}
	return false
}

func (a *App) renderDocument(r row) tea.Cmd {
	key := r.Key()
	doc := r.document()
	return func() tea.Msg {
		renderer, err := a.getRenderer()
		if err != nil {
			return readerRenderedMsg{key: key, content: "Error initializing renderer: " + err.Error()}
		}
		rendered, err := renderer.Render(doc)
		if err != nil {
			return readerRenderedMsg{key: key, content: fmt.Sprintf("# Error\n\nFailed to render: %s\n\nPress Escape to go back.", err.Error())}
		}
		return readerRenderedMsg{key: key, content: rendered}
	}
}

// recordHistory stores and indexes r as opened now.
func (a *App) recordHistory(r row) tea.Cmd {
	if a.store == nil || r.kind == api.KindUser {
		return nil
	}
	entry := r.historyEntry()
	return func() tea.Msg {
		if err := a.store.SaveHistory(entry); err != nil {
			debuglog.Warnf("saving history for %s: %v", entry.ID, err)
			return nil
		}
		if a.index != nil {
			if err := a.index.Index(entry); err != nil {
				debuglog.Warnf("indexing %s: %v", entry.ID, err)
			}
		}
		return nil
	}
}

// fetchItem loads a history entry's item fresh; if that fails the stored
// copy is opened instead.
func (a *App) fetchItem(e *storage.HistoryEntry) tea.Cmd {
	return func() tea.Msg {
		var (
			r   row
			err error
		)
		switch api.Kind(e.Kind) {
		case api.KindRecipe:
			var rec api.Recipe
			if rec, err = a.client.GetRecipe(a.ctx, e.ItemID); err == nil {
				r = recipeRow(a.previews, rec)
			}
		case api.KindBlog:
			var b api.Blog
			if b, err = a.client.GetBlog(a.ctx, e.ItemID); err == nil {
				r = blogRow(a.previews, b)
			}
		case api.KindEvent:
			var ev api.Event
			if ev, err = a.client.GetEvent(a.ctx, e.ItemID); err == nil {
				r = eventRow(a.previews, ev)
			}
		default:
			err = fmt.Errorf("unknown item kind %q", e.Kind)
		}
		if err != nil {
			return itemFetchedMsg{item: historyRow(a.previews, e), err: err}
		}
		return itemFetchedMsg{item: r}
	}
}

func (a *App) openProfile(userID string) tea.Cmd {
	if userID == "" {
		return nil
	}
	return func() tea.Msg {
		user, err := a.client.GetUser(a.ctx, userID)
		return profileLoadedMsg{user: user, err: err}
	}
}

func (a *App) showProfile(user api.User) tea.Cmd {
	back := a.view
	if a.profile != nil {
		back = a.profile.back
		a.profile.close()
	}
	if back == ViewUser || back == ViewReader {
		back = a.lastTab
	}
	recipes, blogs := a.profileScreens(user.ID)
	a.sizeScreen(recipes, 3)
	a.sizeScreen(blogs, 3)
	a.profile = &profileState{
		user:    user,
		preview: a.previews.New(api.KindUser, user.ID, ""),
		recipes: recipes,
		blogs:   blogs,
		back:    back,
	}
	a.view = ViewUser
	a.clearStatus()
	return tea.Batch(a.loadInitial(recipes), a.loadInitial(blogs), a.loadPreview(a.profile.preview))
}

func (a *App) closeProfile() {
	if a.profile == nil {
		return
	}
	a.view = a.profile.back
	a.profile.close()
	a.profile = nil
}

// toggle runs one of the preview toggles. Failures were already rolled
// back and logged by the preview; only a self-follow is reported.
func (a *App) toggle(p *preview.Preview, fn func(*preview.Preview, context.Context) error) tea.Cmd {
	if p == nil {
		return nil
	}
	return func() tea.Msg {
		err := fn(p, a.ctx)
		if errors.Is(err, preview.ErrSelfFollow) {
			return toggledMsg{err: err}
		}
		return nil
	}
}

func (a *App) openImage(p *preview.Preview) tea.Cmd {
	if p == nil || a.launcher == nil {
		return nil
	}
	img := p.Snapshot().Image
	if img == nil {
		a.setStatus(MsgNoImage, StatusInfo)
		return nil
	}
	return func() tea.Msg {
		if err := a.launcher.Open(img.Path); err != nil {
			return errorMsg{err: wrapErr("opening image", err)}
		}
		return nil
	}
}

func (a *App) openAuth(v View) {
	if v == ViewRegister {
		a.auth = registerForm()
	} else {
		v = ViewLogin
		a.auth = loginForm()
	}
	a.auth.setWidth(a.searchInput.Width)
	a.view = v
}

func (a *App) submitLogin() tea.Cmd {
	f := a.auth
	form := validation.LoginForm{Email: f.value("email"), Password: f.value("password")}
	if err := validation.Struct(form); err != nil {
		f.errs = validation.Messages(err)
		return nil
	}
	f.busy = true
	f.errs = nil
	a.setStatus(MsgSigningIn, StatusInfo)
	return func() tea.Msg {
		user, err := a.login(form.Email, form.Password)
		return authMsg{user: user, err: err}
	}
}

func (a *App) submitRegister() tea.Cmd {
	f := a.auth
	form := validation.RegisterForm{
		Username: f.value("username"),
		Email:    f.value("email"),
		Password: f.value("password"),
		Confirm:  f.value("confirm"),
	}
	if err := validation.Struct(form); err != nil {
		f.errs = validation.Messages(err)
		return nil
	}
	f.busy = true
	f.errs = nil
	a.setStatus(MsgRegistering, StatusInfo)
	return func() tea.Msg {
		_, err := a.client.Register(a.ctx, api.RegisterRequest{Username: form.Username, Email: form.Email, Password: form.Password})
		if err != nil {
			return authMsg{err: err}
		}
		user, err := a.login(form.Email, form.Password)
		return authMsg{user: user, err: err}
	}
}

func (a *App) login(email, password string) (api.User, error) {
	resp, err := a.client.Login(a.ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return api.User{}, err
	}
	if err := a.session.Login(resp.User, resp.Token); err != nil {
		return api.User{}, wrapErr("saving session", err)
	}
	return resp.User, nil
}

func (a *App) logout() tea.Cmd {
	if err := a.session.Logout(); err != nil {
		a.setStatus(err.Error(), StatusError)
		return nil
	}
	a.setStatus(MsgSignedOut, StatusSuccess)
	a.screens[screenFollowing].close()
	a.screens[screenFollowing] = a.followingScreen()
	a.sizeScreen(a.screens[screenFollowing], 0)
	return a.reloadAll()
}

func (a *App) toggleTheme() {
	inverted := !a.session.State().Inverted
	if err := a.session.SetInverted(inverted); err != nil {
		a.setStatus(err.Error(), StatusError)
		return
	}
	ApplyTheme(a.config.UI.Colors, inverted)
	a.glamourRenderer = nil
}

// openCompose starts a new post of kind, restoring an unsent draft.
func (a *App) openCompose(kind api.Kind) {
	a.compose = newCompose(kind)
	a.restoreDraft("")
	a.compose.setWidth(a.searchInput.Width)
	a.view = ViewCompose
}

func (a *App) editItem(r row) {
	a.compose = editCompose(r)
	a.restoreDraft(r.id)
	a.compose.setWidth(a.searchInput.Width)
	a.view = ViewCompose
}

func (a *App) restoreDraft(editing string) {
	if a.store == nil {
		return
	}
	drafts, err := a.store.ListDrafts()
	if err != nil {
		debuglog.Warnf("listing drafts: %v", err)
		return
	}
	for _, d := range drafts {
		if d.Kind == string(a.compose.kind) && d.EditingID == editing {
			a.compose.draftID = d.ID
			a.compose.setValues(d.Fields)
			if d.LastError != "" {
				a.compose.errs = []string{d.LastError}
			}
			return
		}
	}
}

func (a *App) submitCompose() tea.Cmd {
	c := a.compose
	c.busy = true
	c.errs = nil
	a.setStatus(MsgPublishing, StatusInfo)

	draft := &storage.Draft{ID: c.draftID, Kind: string(c.kind), EditingID: c.editing, Fields: c.values()}
	title := c.heading()
	kind, editing := c.kind, c.editing

	var (
		send    func(ctx context.Context) error
		invalid error
	)
	switch kind {
	case api.KindBlog:
		req, err := c.blog()
		invalid = err
		send = func(ctx context.Context) error {
			if editing != "" {
				_, err := a.client.UpdateBlog(ctx, editing, req)
				return err
			}
			_, err := a.client.CreateBlog(ctx, req)
			return err
		}
	case api.KindEvent:
		req, err := c.event()
		invalid = err
		send = func(ctx context.Context) error {
			if editing != "" {
				_, err := a.client.UpdateEvent(ctx, editing, req)
				return err
			}
			_, err := a.client.CreateEvent(ctx, req)
			return err
		}
	default:
		req, err := c.recipe()
		invalid = err
		send = func(ctx context.Context) error {
			if editing != "" {
				_, err := a.client.UpdateRecipe(ctx, editing, req)
				return err
			}
			_, err := a.client.CreateRecipe(ctx, req)
			return err
		}
	}

	return func() tea.Msg {
		err := invalid
		if err == nil {
			err = send(a.ctx)
		}
		if err != nil {
			draft.LastError = strings.Join(formErrors(err, invalid != nil), "; ")
			if a.store != nil {
				if serr := a.store.SaveDraft(draft); serr != nil {
					debuglog.Warnf("saving draft: %v", serr)
				}
			}
			return composeResultMsg{title: title, draftID: draft.ID, invalid: invalid != nil, err: err}
		}
		if draft.ID != "" && a.store != nil {
			if derr := a.store.DeleteDraft(draft.ID); derr != nil {
				debuglog.Warnf("deleting draft %s: %v", draft.ID, derr)
			}
		}
		if editing != "" {
			a.previews.Cache().Invalidate(kind, editing)
		}
		return composeResultMsg{title: title}
	}
}

func (a *App) confirmDelete(r row) {
	a.pendingDelete = &r
	a.deleteBack = a.view
	a.view = ViewDeleteConfirm
}

func (a *App) deleteItem(r row) tea.Cmd {
	a.setStatus(MsgDeleting, StatusInfo)
	return func() tea.Msg {
		return deletedMsg{item: r, err: a.client.Delete(a.ctx, r.kind, r.id)}
	}
}

func (a *App) banUser(userID string) tea.Cmd {
	return func() tea.Msg {
		return bannedMsg{err: a.client.Ban(a.ctx, userID)}
	}
}

// historyItem is a history entry in the history list.
type historyItem struct {
	entry *storage.HistoryEntry
	score float64
}

func (i historyItem) Title() string { return i.entry.Title }

func (i historyItem) Description() string {
	parts := []string{i.entry.Kind}
	if i.entry.Author != "" {
		parts = append(parts, "by "+i.entry.Author)
	}
	parts = append(parts, "opened "+i.entry.OpenedAt.Format("Jan 2, 15:04"))
	return renderMuted(strings.Join(parts, " • "))
}

func (i historyItem) FilterValue() string { return i.entry.Title }

func (a *App) openHistory() tea.Cmd {
	a.view = ViewHistory
	a.historyInput.SetValue("")
	a.historyInput.Focus()
	return a.loadHistory("")
}

// loadHistory lists recent history, or searches it when query is set.
func (a *App) loadHistory(query string) tea.Cmd {
	return func() tea.Msg {
		msg := historyLoadedMsg{query: query}
		if strings.TrimSpace(query) == "" || a.index == nil {
			if a.store == nil {
				return msg
			}
			entries, err := a.store.GetHistory(historyLimit)
			if err != nil {
				msg.err = wrapErr("loading history", err)
				return msg
			}
			for _, e := range entries {
				msg.items = append(msg.items, historyItem{entry: e})
			}
			return msg
		}
		results, err := a.index.Search(query, historyLimit)
		if err != nil {
			msg.err = wrapErr("searching history", err)
			return msg
		}
		for _, r := range results {
			msg.items = append(msg.items, historyItem{entry: r.Entry, score: r.Score})
		}
		return msg
	}
}

func (a *App) scheduleHistorySearch() tea.Cmd {
	a.historySeq++
	seq := a.historySeq
	return tea.Tick(a.config.Feed.Debounce, func(time.Time) tea.Msg { return historyDebounceMsg{seq: seq} })
}

func (a *App) clearHistory() tea.Cmd {
	if a.store == nil {
		return nil
	}
	return func() tea.Msg {
		entries, err := a.store.GetHistory(0)
		if err != nil {
			return errorMsg{err: wrapErr("loading history", err)}
		}
		if err := a.store.ClearHistory(); err != nil {
			return errorMsg{err: wrapErr("clearing history", err)}
		}
		if del, ok := a.index.(interface{ Delete(id string) error }); ok {
			for _, e := range entries {
				if err := del.Delete(e.ID); err != nil {
					debuglog.Warnf("unindexing %s: %v", e.ID, err)
				}
			}
		}
		return a.loadHistory("")()
	}
}

func (a *App) openSearch() {
	a.view = ViewSearch
	a.searchInput.Focus()
	a.clearStatus()
}

func (a *App) scheduleSearch() tea.Cmd {
	a.searchSeq++
	seq := a.searchSeq
	return tea.Tick(a.config.Feed.Debounce, func(time.Time) tea.Msg { return searchDebounceMsg{seq: seq} })
}

// runSearch replaces the results list with one for the current query.
func (a *App) runSearch() tea.Cmd {
	query := strings.TrimSpace(a.searchInput.Value())
	if old := a.screens[screenSearch]; old != nil {
		old.close()
		delete(a.screens, screenSearch)
	}
	if query == "" {
		a.clearStatus()
		return nil
	}
	s := a.searchScreen(a.searchKind, query)
	a.sizeScreen(s, 4)
	a.screens[screenSearch] = s
	return a.loadInitial(s)
}

// cycleSearchKind switches between recipe, blog and user search.
func (a *App) cycleSearchKind() tea.Cmd {
	switch a.searchKind {
	case api.KindRecipe:
		a.searchKind = api.KindBlog
	case api.KindBlog:
		a.searchKind = api.KindUser
	default:
		a.searchKind = api.KindRecipe
	}
	return a.runSearch()
}
