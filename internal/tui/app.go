package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/pders01/crumb/internal/api"
	"github.com/pders01/crumb/internal/config"
	"github.com/pders01/crumb/internal/debuglog"
	"github.com/pders01/crumb/internal/media"
	"github.com/pders01/crumb/internal/pager"
	"github.com/pders01/crumb/internal/preview"
	"github.com/pders01/crumb/internal/search"
	"github.com/pders01/crumb/internal/session"
	"github.com/pders01/crumb/internal/storage"
	"github.com/pders01/crumb/internal/validation"
)

// Deps are the services the App drives. Client, Session and Store are
// required; a nil Index disables history search and a nil Launcher
// disables opening images.
type Deps struct {
	Client   *api.Client
	Session  *session.Session
	Store    *storage.Store
	Index    search.Searcher
	Blobs    *media.BlobStore
	Launcher *media.Launcher
}

type App struct {
	config     *config.Config
	client     *api.Client
	session    *session.Session
	store      *storage.Store
	index      search.Searcher
	previews   *preview.Service
	launcher   *media.Launcher
	keyHandler *KeyHandler

	ctx    context.Context
	cancel context.CancelFunc

	view    View
	lastTab View
	screens map[string]*screen
	profile *profileState
	reader  readerState
	auth    *form
	compose *compose

	searchInput textinput.Model
	searchKind  api.Kind
	searchSeq   int

	history      list.Model
	historyInput textinput.Model
	historySeq   int

	pendingDelete *row
	deleteBack    View

	viewport        viewport.Model
	spinner         spinner.Model
	help            help.Model
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int

	status      string
	statusKind  StatusKind
	prompts     chan struct{}
	unsubscribe func()

	width  int
	height int
}

// profileState is an open user profile with its recipes and blogs.
type profileState struct {
	user    api.User
	preview *preview.Preview
	recipes *screen
	blogs   *screen
	tab     int
	back    View
}

func (p *profileState) active() *screen {
	if p.tab == 1 {
		return p.blogs
	}
	return p.recipes
}

func (p *profileState) close() {
	p.recipes.close()
	p.blogs.close()
	p.preview.Release()
}

// readerState is the item open in the reader.
type readerState struct {
	item    row
	open    bool
	loading bool
	back    View
}

func NewApp(cfg *config.Config, deps Deps) *App {
	ctx, cancel := context.WithCancel(context.Background())

	si := textinput.New()
	si.Placeholder = "Search recipes, blogs and people..."

	hi := textinput.New()
	hi.Placeholder = "Search what you have read..."

	history := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	history.Title = "› history"
	history.SetShowStatusBar(false)
	history.SetFilteringEnabled(false)
	history.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	var blobs preview.Blobs
	if deps.Blobs != nil {
		blobs = deps.Blobs
	}
	svc := preview.NewService(deps.Client, deps.Session, blobs, preview.NewCache(cfg.Cache.Size, cfg.Cache.TTL))

	app := &App{
		config:       cfg,
		client:       deps.Client,
		session:      deps.Session,
		store:        deps.Store,
		index:        deps.Index,
		previews:     svc,
		launcher:     deps.Launcher,
		ctx:          ctx,
		cancel:       cancel,
		view:         ViewRecipes,
		lastTab:      ViewRecipes,
		searchInput:  si,
		searchKind:   api.KindRecipe,
		history:      history,
		historyInput: hi,
		viewport:     viewport.New(0, 0),
		spinner:      sp,
		help:         help.New(),
		prompts:      make(chan struct{}, 1),
	}
	app.screens = app.feedScreens()
	app.keyHandler = NewKeyHandler(app, cfg)

	svc.SetLoginPrompt(func() {
		select {
		case app.prompts <- struct{}{}:
		default:
		}
	})

	st := deps.Session.State()
	deps.Client.SetToken(st.Token)
	app.unsubscribe = deps.Session.Subscribe(func(st session.State) {
		deps.Client.SetToken(st.Token)
	})
	ApplyTheme(cfg.UI.Colors, st.Inverted)

	return app
}

// Close cancels in-flight requests and frees every cached image.
func (a *App) Close() {
	a.cancel()
	a.unsubscribe()
	for _, s := range a.screens {
		s.close()
	}
	if a.profile != nil {
		a.profile.close()
	}
	if a.reader.open && a.reader.item.preview != nil {
		a.reader.item.preview.Release()
	}
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	reader := a.config.UI.Reader
	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > reader.WordWrapMaxWidth {
		wordWrapWidth = reader.WordWrapMaxWidth
	}
	if wordWrapWidth < reader.WordWrapMinWidth {
		wordWrapWidth = reader.WordWrapMinWidth
	}
	if a.width < 50 {
		wordWrapWidth = max(a.width-4, 20)
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		style := "dark"
		if a.session.State().Inverted {
			style = "light"
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.loadInitial(a.screens[screenRecipes]),
		a.spinner.Tick,
		a.waitForLoginPrompt(),
		tea.EnterAltScreen,
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case tea.MouseMsg:
		if a.view == ViewReader {
			var cmd tea.Cmd
			a.viewport, cmd = a.viewport.Update(msg)
			return a, cmd
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case pageLoadedMsg:
		return a, a.handlePageLoaded(msg)

	case scrollCheckMsg:
		return a, a.handleScrollCheck(msg)

	case previewsLoadedMsg:
		if a.registered(msg.screen) {
			msg.screen.sync()
		}
		return a, nil

	case readerRenderedMsg:
		if a.view == ViewReader && a.reader.item.Key() == msg.key {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.reader.loading = false
		}
		return a, nil

	case itemFetchedMsg:
		if msg.err != nil {
			a.setStatus(api.ErrorMessage(msg.err, ""), StatusWarn)
		}
		return a, a.openReader(msg.item)

	case profileLoadedMsg:
		if msg.err != nil {
			a.setStatus(api.ErrorMessage(msg.err, ""), StatusError)
			return a, nil
		}
		return a, a.showProfile(msg.user)

	case toggledMsg:
		if errors.Is(msg.err, preview.ErrSelfFollow) {
			a.setStatus("You cannot follow yourself", StatusWarn)
		}
		return a, nil

	case loginPromptMsg:
		a.openAuth(ViewLogin)
		a.setStatus(MsgLoginToAct, StatusInfo)
		return a, a.waitForLoginPrompt()

	case authMsg:
		return a, a.handleAuth(msg)

	case composeResultMsg:
		return a, a.handleComposeResult(msg)

	case deletedMsg:
		return a, a.handleDeleted(msg)

	case bannedMsg:
		if msg.err != nil {
			a.setStatus(api.ErrorMessage(msg.err, ""), StatusError)
		} else {
			a.setStatus(MsgBanned, StatusSuccess)
		}
		return a, nil

	case historyLoadedMsg:
		a.handleHistoryLoaded(msg)
		return a, nil

	case historyDebounceMsg:
		if msg.seq == a.historySeq && a.view == ViewHistory {
			return a, a.loadHistory(a.historyInput.Value())
		}
		return a, nil

	case searchDebounceMsg:
		if msg.seq == a.searchSeq && a.view == ViewSearch {
			return a, a.runSearch()
		}
		return a, nil

	case statusMsg:
		a.setStatus(msg.text, msg.kind)
		return a, nil

	case errorMsg:
		a.setStatus(msg.err.Error(), StatusError)
		return a, nil
	}

	return a, nil
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height

	listHeight := max(height-5, 3)
	for _, s := range a.screens {
		s.setSize(width, listHeight)
	}
	if a.profile != nil {
		a.profile.recipes.setSize(width, max(listHeight-3, 3))
		a.profile.blogs.setSize(width, max(listHeight-3, 3))
	}
	a.history.SetSize(width, max(height-9, 3))
	a.viewport.Width = width
	a.viewport.Height = max(height-5, 1)

	inputWidth := width - 8
	if inputWidth < 20 {
		inputWidth = width
	}
	a.searchInput.Width = inputWidth
	a.historyInput.Width = inputWidth
	if a.auth != nil {
		a.auth.setWidth(inputWidth)
	}
	if a.compose != nil {
		a.compose.setWidth(inputWidth)
	}
}

// sizeScreen fits a newly created screen to the window.
func (a *App) sizeScreen(s *screen, chrome int) {
	s.setSize(a.width, max(a.height-5-chrome, 3))
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = text
	a.statusKind = kind
	if kind == StatusError {
		debuglog.Warnf("status: %s", text)
	}
}

func (a *App) clearStatus() {
	a.status = ""
	a.statusKind = StatusInfo
}

func (a *App) handlePageLoaded(msg pageLoadedMsg) tea.Cmd {
	if errors.Is(msg.err, pager.ErrDiscarded) || errors.Is(msg.err, pager.ErrClosed) || !a.registered(msg.screen) {
		return nil
	}
	msg.screen.sync()
	if msg.err != nil {
		return nil
	}
	if msg.screen.id == screenSearch && !msg.more {
		a.setStatus(MsgResultsCount(len(msg.screen.list.Items())), StatusInfo)
	}
	return tea.Batch(a.prefetch(msg.screen), a.scheduleScrollCheck(msg.screen))
}

func (a *App) handleScrollCheck(msg scrollCheckMsg) tea.Cmd {
	s := msg.screen
	if !a.registered(s) || msg.seq != s.seq {
		return nil
	}
	total := len(s.list.Items())
	if total == 0 || !s.pager.HasMore() {
		return nil
	}
	if !pager.NearBottom(s.list.Index(), 1, total, a.config.Feed.ScrollThreshold) {
		return nil
	}
	return a.loadMore(s)
}

func (a *App) handleAuth(msg authMsg) tea.Cmd {
	if a.auth != nil {
		a.auth.busy = false
	}
	if msg.err != nil {
		if a.auth != nil {
			a.auth.errs = formErrors(msg.err, msg.invalid)
		}
		return nil
	}
	a.auth = nil
	a.setStatus(MsgSignedIn(msg.user.Username), StatusSuccess)
	a.view = a.lastTab
	return a.reloadAll()
}

// formErrors lists what went wrong with a submitted form: each failed
// rule for invalid input, otherwise the backend's message.
func formErrors(err error, invalid bool) []string {
	if invalid {
		return validation.Messages(err)
	}
	return []string{api.ErrorMessage(err, "")}
}

func (a *App) handleComposeResult(msg composeResultMsg) tea.Cmd {
	if a.compose == nil {
		return nil
	}
	a.compose.busy = false
	if msg.draftID != "" {
		a.compose.draftID = msg.draftID
	}
	if msg.err != nil {
		a.compose.errs = formErrors(msg.err, msg.invalid)
		a.setStatus(MsgDraftSaved, StatusWarn)
		return nil
	}
	kind := a.compose.kind
	a.compose = nil
	a.setStatus(MsgPublished(string(kind), msg.title), StatusSuccess)

	target := ViewRecipes
	switch kind {
	case api.KindBlog:
		target = ViewBlogs
	case api.KindEvent:
		target = ViewEvents
	}
	a.view = target
	a.lastTab = target
	return a.loadInitial(a.screenFor(target))
}

func (a *App) handleDeleted(msg deletedMsg) tea.Cmd {
	if msg.err != nil {
		a.setStatus(api.ErrorMessage(msg.err, ""), StatusError)
		a.pendingDelete = nil
		a.view = a.deleteBack
		return nil
	}
	key := msg.item.Key()
	for _, s := range a.screens {
		if s.pager.Remove(key) {
			s.sync()
		}
	}
	if a.profile != nil {
		for _, s := range []*screen{a.profile.recipes, a.profile.blogs} {
			if s.pager.Remove(key) {
				s.sync()
			}
		}
	}
	a.previews.Cache().Invalidate(msg.item.kind, msg.item.id)
	if msg.item.preview != nil {
		msg.item.preview.Release()
	}
	back := a.deleteBack
	if a.reader.open && a.reader.item.Key() == key {
		if back == ViewReader {
			back = a.reader.back
		}
		a.reader = readerState{}
	}
	if back == ViewReader || (back == ViewUser && a.profile == nil) {
		back = a.lastTab
	}
	a.pendingDelete = nil
	a.view = back
	a.setStatus(MsgDeleted, StatusSuccess)
	return nil
}

func (a *App) handleHistoryLoaded(msg historyLoadedMsg) {
	if msg.err != nil {
		a.setStatus(msg.err.Error(), StatusError)
		return
	}
	if msg.query != a.historyInput.Value() {
		return
	}
	items := make([]list.Item, len(msg.items))
	for i, it := range msg.items {
		items[i] = it
	}
	a.history.SetItems(items)
	if msg.query == "" {
		docs := -1
		if st, ok := a.index.(search.DebugStatser); ok {
			if n, err := st.DocCount(); err == nil {
				docs = n
			}
		}
		a.setStatus(MsgHistorySummary(len(items), docs), StatusInfo)
	} else if len(items) == 0 {
		a.setStatus(MsgNoResults, StatusInfo)
	} else {
		a.setStatus(MsgResultsCount(len(items)), StatusInfo)
	}
}

type pageLoadedMsg struct {
	screen *screen
	more   bool
	err    error
}

type scrollCheckMsg struct {
	screen *screen
	seq    int
}

type previewsLoadedMsg struct {
	screen *screen
}

type readerRenderedMsg struct {
	key     string
	content string
}

type itemFetchedMsg struct {
	item row
	err  error
}

type profileLoadedMsg struct {
	user api.User
	err  error
}

type toggledMsg struct {
	err error
}

type loginPromptMsg struct{}

type authMsg struct {
	user    api.User
	invalid bool
	err     error
}

type composeResultMsg struct {
	title   string
	draftID string
	invalid bool
	err     error
}

type deletedMsg struct {
	item row
	err  error
}

type bannedMsg struct {
	err error
}

type historyLoadedMsg struct {
	query string
	items []historyItem
	err   error
}

type historyDebounceMsg struct {
	seq int
}

type searchDebounceMsg struct {
	seq int
}

type statusMsg struct {
	text string
	kind StatusKind
}

type errorMsg struct {
	err error
}
