package tui

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/crumb/internal/api"
	"github.com/pders01/crumb/internal/config"
	"github.com/pders01/crumb/internal/fakeapi"
	"github.com/pders01/crumb/internal/search"
	"github.com/pders01/crumb/internal/session"
	"github.com/pders01/crumb/internal/storage"
)

type fixture struct {
	app     *App
	backend *fakeapi.Server
	store   *storage.Store
	index   *search.HistoryIndex
	alice   api.User
	bob     api.User
}

func setup(t *testing.T) *fixture {
	t.Helper()
	backend := fakeapi.New()
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	cfg := config.TestConfig()
	cfg.API.BaseURL = srv.URL

	client, err := api.NewClient(cfg)
	require.NoError(t, err)

	store, err := storage.NewStore(filepath.Join(t.TempDir(), "crumb.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sess, err := session.Open(store)
	require.NoError(t, err)

	idx, err := search.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	f := &fixture{backend: backend, store: store, index: idx}
	f.alice = backend.AddUser(api.User{ID: "alice", Username: "alice", Email: "alice@example.com"}, "password1")
	f.bob = backend.AddUser(api.User{ID: "bob", Username: "bob", Email: "bob@example.com"}, "password2")

	f.app = NewApp(cfg, Deps{Client: client, Session: sess, Store: store, Index: idx})
	t.Cleanup(f.app.Close)
	f.app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return f
}

// run executes cmd and feeds what it produces back into the app until
// nothing is left. Commands that block, like the login prompt listener,
// are abandoned after a short wait.
func (f *fixture) run(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	f.runDepth(t, cmd, 0)
}

func (f *fixture) runDepth(t *testing.T, cmd tea.Cmd, depth int) {
	if cmd == nil || depth > 12 {
		return
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(500 * time.Millisecond):
		return
	}

	switch m := msg.(type) {
	case nil, spinner.TickMsg:
		return
	case tea.BatchMsg:
		for _, c := range m {
			f.runDepth(t, c, depth+1)
		}
	default:
		_, next := f.app.Update(m)
		f.runDepth(t, next, depth+1)
	}
}

func (f *fixture) key(t *testing.T, k tea.KeyMsg) {
	t.Helper()
	_, cmd := f.app.Update(k)
	f.run(t, cmd)
}

func (f *fixture) typeText(t *testing.T, text string) {
	t.Helper()
	for _, r := range text {
		f.key(t, runes(string(r)))
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func (f *fixture) login(t *testing.T, user api.User, password string) {
	t.Helper()
	_, err := f.app.login(user.Email, password)
	require.NoError(t, err)
}

func seedRecipes(backend *fakeapi.Server, n int, author string) {
	for i := 0; i < n; i++ {
		backend.AddRecipes(api.Recipe{
			AuthorID:        author,
			Author:          &api.UserSummary{ID: author, Username: author},
			Header:          "Recipe " + string(rune('A'+i%26)),
			BodyText:        "Mix and bake.",
			PreparationTime: 20,
			Servings:        2,
		})
	}
}

func TestInitialLoadFillsRecipes(t *testing.T) {
	f := setup(t)
	seedRecipes(f.backend, 5, "bob")

	s := f.app.screens[screenRecipes]
	f.run(t, f.app.loadInitial(s))

	assert.Len(t, s.list.Items(), 5)
	snap := s.pager.Snapshot()
	assert.Equal(t, 2, snap.PageNumber, "next page to fetch")
	assert.Equal(t, 1, snap.TotalPages)
	assert.Contains(t, f.app.View(), "Recipe A")
}

func TestScrollingLoadsNextPage(t *testing.T) {
	f := setup(t)
	seedRecipes(f.backend, 25, "bob")

	s := f.app.screens[screenRecipes]
	f.run(t, f.app.loadInitial(s))
	require.Len(t, s.list.Items(), 10)

	for i := 0; i < 8; i++ {
		f.key(t, tea.KeyMsg{Type: tea.KeyDown})
	}

	assert.Len(t, s.list.Items(), 20, "moving near the bottom loads page two")
	assert.Equal(t, 3, s.pager.Snapshot().PageNumber)
}

func TestMissingNextPageEndsListQuietly(t *testing.T) {
	f := setup(t)
	seedRecipes(f.backend, 25, "bob")

	s := f.app.screens[screenRecipes]
	f.run(t, f.app.loadInitial(s))
	require.Len(t, s.list.Items(), 10)

	f.backend.Fail(http.MethodGet, "/api/v1/feed/recipe", http.StatusNotFound)
	for i := 0; i < 8; i++ {
		f.key(t, tea.KeyMsg{Type: tea.KeyDown})
	}

	snap := s.pager.Snapshot()
	require.True(t, strings.HasSuffix(snap.ErrMore, "404"), "got %q", snap.ErrMore)
	assert.Len(t, s.list.Items(), 10)

	assert.Equal(t, LoadNone, ResolveLoadState(snap.Loading, snap.Err, snap.LoadingMore, snap.ErrMore))
	assert.NotContains(t, f.app.View(), MsgNothingHere)
}

func TestViewStateTransitions(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(*testing.T, *fixture)
		msg          tea.KeyMsg
		expectedView View
	}{
		{
			name:         "tab moves to blogs",
			msg:          tea.KeyMsg{Type: tea.KeyTab},
			expectedView: ViewBlogs,
		},
		{
			name:         "number selects events",
			msg:          runes("3"),
			expectedView: ViewEvents,
		},
		{
			name:         "search opens",
			msg:          tea.KeyMsg{Type: tea.KeyCtrlS},
			expectedView: ViewSearch,
		},
		{
			name:         "history opens",
			msg:          tea.KeyMsg{Type: tea.KeyCtrlR},
			expectedView: ViewHistory,
		},
		{
			name:         "compose while logged out asks to log in",
			msg:          tea.KeyMsg{Type: tea.KeyCtrlN},
			expectedView: ViewLogin,
		},
		{
			name: "compose while logged in",
			setup: func(t *testing.T, f *fixture) {
				f.login(t, f.alice, "password1")
			},
			msg:          tea.KeyMsg{Type: tea.KeyCtrlN},
			expectedView: ViewCompose,
		},
		{
			name: "escape leaves search",
			setup: func(t *testing.T, f *fixture) {
				f.app.openSearch()
			},
			msg:          tea.KeyMsg{Type: tea.KeyEsc},
			expectedView: ViewRecipes,
		},
		{
			name: "escape leaves login",
			setup: func(t *testing.T, f *fixture) {
				f.app.openAuth(ViewLogin)
			},
			msg:          tea.KeyMsg{Type: tea.KeyEsc},
			expectedView: ViewRecipes,
		},
		{
			name: "enter opens the reader",
			setup: func(t *testing.T, f *fixture) {
				seedRecipes(f.backend, 2, "bob")
				s := f.app.screens[screenRecipes]
				cmd := f.app.loadInitial(s)
				f.app.Update(cmd())
			},
			msg:          tea.KeyMsg{Type: tea.KeyEnter},
			expectedView: ViewReader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			if tt.setup != nil {
				tt.setup(t, f)
			}
			f.app.Update(tt.msg)
			assert.Equal(t, tt.expectedView, f.app.view)
		})
	}
}

func TestReaderRecordsHistory(t *testing.T) {
	f := setup(t)
	seedRecipes(f.backend, 1, "bob")

	s := f.app.screens[screenRecipes]
	f.run(t, f.app.loadInitial(s))
	f.key(t, tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, ViewReader, f.app.view)
	assert.False(t, f.app.reader.loading, "document rendered")

	entries, err := f.store.GetHistory(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Recipe A", entries[0].Title)

	n, err := f.index.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	f.key(t, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewRecipes, f.app.view)
}

func TestLikeWhileLoggedOutPromptsLogin(t *testing.T) {
	f := setup(t)
	seedRecipes(f.backend, 1, "bob")

	s := f.app.screens[screenRecipes]
	f.run(t, f.app.loadInitial(s))

	_, cmd := f.app.Update(runes("l"))
	require.NotNil(t, cmd)
	cmd()

	msg := f.app.waitForLoginPrompt()()
	assert.IsType(t, loginPromptMsg{}, msg)

	f.app.Update(msg)
	assert.Equal(t, ViewLogin, f.app.view)
	assert.Equal(t, MsgLoginToAct, f.app.status)
}

func TestLoginFormFlow(t *testing.T) {
	f := setup(t)
	f.app.openAuth(ViewLogin)

	f.key(t, tea.KeyMsg{Type: tea.KeyEnter})
	f.key(t, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ViewLogin, f.app.view)
	assert.Contains(t, f.app.auth.errs, "Email is required")

	f.app.openAuth(ViewLogin)
	f.typeText(t, "alice@example.com")
	f.key(t, tea.KeyMsg{Type: tea.KeyTab})
	f.typeText(t, "wrong")
	f.key(t, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ViewLogin, f.app.view)
	assert.Equal(t, []string{"Invalid email or password"}, f.app.auth.errs)
	assert.False(t, f.app.session.LoggedIn())

	f.app.openAuth(ViewLogin)
	f.typeText(t, "alice@example.com")
	f.key(t, tea.KeyMsg{Type: tea.KeyTab})
	f.typeText(t, "password1")
	f.key(t, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ViewRecipes, f.app.view)
	assert.True(t, f.app.session.LoggedIn())
	assert.Equal(t, MsgSignedIn("alice"), f.app.status)
	assert.Equal(t, f.app.session.Token(), f.app.client.Token(), "client follows the session token")
}

func TestLoginRegisterSwitch(t *testing.T) {
	f := setup(t)
	f.app.openAuth(ViewLogin)

	f.key(t, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Equal(t, ViewRegister, f.app.view)
	assert.Len(t, f.app.auth.fields, 4)

	f.key(t, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Equal(t, ViewLogin, f.app.view)
}

func TestComposeFailureSavesDraft(t *testing.T) {
	f := setup(t)
	f.login(t, f.alice, "password1")
	f.backend.Fail("POST", "/api/v1/recipes", 500)

	f.app.openCompose(api.KindRecipe)
	c := f.app.compose
	c.setValues(map[string]string{
		"header":      "Pancakes",
		"ingredients": "200 g flour, 2 eggs",
		"preparation": "15",
		"servings":    "2",
		"body":        "Whisk and fry.",
	})

	f.run(t, f.app.submitCompose())

	require.Equal(t, ViewCompose, f.app.view)
	assert.Equal(t, MsgDraftSaved, f.app.status)
	assert.NotEmpty(t, f.app.compose.errs)

	drafts, err := f.store.ListDrafts()
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Pancakes", drafts[0].Fields["header"])
	assert.NotEmpty(t, drafts[0].LastError)

	// Reopening restores the draft; a successful publish removes it.
	f.backend.Fail("POST", "/api/v1/recipes", 0)
	f.app.openCompose(api.KindRecipe)
	assert.Equal(t, "Pancakes", f.app.compose.value("header"))

	f.run(t, f.app.submitCompose())
	assert.Equal(t, ViewRecipes, f.app.view)
	assert.Equal(t, MsgPublished("recipe", "Pancakes"), f.app.status)

	drafts, err = f.store.ListDrafts()
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestComposeValidation(t *testing.T) {
	f := setup(t)
	f.login(t, f.alice, "password1")

	f.app.openCompose(api.KindBlog)
	f.app.compose.setValues(map[string]string{"header": "", "body": "short"})
	f.run(t, f.app.submitCompose())

	require.Equal(t, ViewCompose, f.app.view)
	assert.Contains(t, f.app.compose.errs, "Title is required")
	assert.Zero(t, f.backend.Hits("POST", "/api/v1/blogs"))
}

func TestDeleteOwnRecipe(t *testing.T) {
	f := setup(t)
	f.login(t, f.alice, "password1")
	f.backend.AddRecipes(api.Recipe{ID: "r1", AuthorID: "alice", Header: "Mine"})
	f.backend.AddRecipes(api.Recipe{ID: "r2", AuthorID: "bob", Header: "Theirs"})

	s := f.app.screens[screenRecipes]
	f.run(t, f.app.loadInitial(s))
	require.Len(t, s.list.Items(), 2)

	f.key(t, tea.KeyMsg{Type: tea.KeyCtrlX})
	require.Equal(t, ViewDeleteConfirm, f.app.view)
	assert.Contains(t, f.app.View(), "Mine")

	f.key(t, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ViewRecipes, f.app.view)
	assert.Equal(t, MsgDeleted, f.app.status)
	require.Len(t, s.list.Items(), 1)
	r, ok := s.selected()
	require.True(t, ok)
	assert.Equal(t, "r2", r.id)

	// Someone else's post cannot be deleted.
	f.key(t, tea.KeyMsg{Type: tea.KeyCtrlX})
	assert.Equal(t, ViewRecipes, f.app.view)
}

func TestSearchDebounce(t *testing.T) {
	f := setup(t)
	f.backend.AddRecipes(
		api.Recipe{AuthorID: "bob", Header: "Tomato soup"},
		api.Recipe{AuthorID: "bob", Header: "Garlic bread"},
	)

	f.key(t, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Equal(t, ViewSearch, f.app.view)

	f.typeText(t, "soup")

	s := f.app.screens[screenSearch]
	require.NotNil(t, s)
	require.Len(t, s.list.Items(), 1)
	r, _ := s.selected()
	assert.Equal(t, "Tomato soup", r.title)
	assert.Equal(t, MsgResultsCount(1), f.app.status)

	// Every keystroke bumps the sequence; stale ticks are dropped.
	_, cmd := f.app.Update(searchDebounceMsg{seq: f.app.searchSeq - 1})
	assert.Nil(t, cmd)
}

func TestSearchKindCycles(t *testing.T) {
	f := setup(t)
	f.app.openSearch()

	f.key(t, tea.KeyMsg{Type: tea.KeyCtrlK})
	assert.Equal(t, api.KindBlog, f.app.searchKind)
	f.key(t, tea.KeyMsg{Type: tea.KeyCtrlK})
	assert.Equal(t, api.KindUser, f.app.searchKind)
	f.key(t, tea.KeyMsg{Type: tea.KeyCtrlK})
	assert.Equal(t, api.KindRecipe, f.app.searchKind)
}

func TestFollowingRequiresLogin(t *testing.T) {
	f := setup(t)

	f.key(t, runes("4"))
	assert.Equal(t, ViewFollowing, f.app.view)
	assert.Equal(t, MsgLoginToSee, f.app.status)
	assert.False(t, f.app.screens[screenFollowing].started)
	assert.Contains(t, f.app.View(), MsgLoginToSee)
}

func TestFollowingMergesSources(t *testing.T) {
	f := setup(t)
	f.login(t, f.alice, "password1")
	f.backend.SetFollow("alice", "bob")
	now := time.Now().UTC()
	f.backend.AddRecipes(api.Recipe{ID: "r1", AuthorID: "bob", Header: "Older recipe", CreatedDate: now.Add(-time.Hour)})
	f.backend.AddBlogs(api.Blog{ID: "b1", AuthorID: "bob", Header: "Newer blog", CreatedDate: now})

	f.key(t, runes("4"))
	s := f.app.screens[screenFollowing]
	require.Len(t, s.list.Items(), 2)

	first, _ := s.list.Items()[0].(row)
	assert.Equal(t, api.KindBlog, first.kind, "newest first")
}

func TestHistoryViewAndClear(t *testing.T) {
	f := setup(t)
	entry := &storage.HistoryEntry{
		ID:       storage.HistoryID("recipe", "r1"),
		Kind:     "recipe",
		ItemID:   "r1",
		Title:    "Tomato soup",
		OpenedAt: time.Now(),
	}
	require.NoError(t, f.store.SaveHistory(entry))
	require.NoError(t, f.index.Index(entry))

	f.key(t, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.Equal(t, ViewHistory, f.app.view)
	assert.Len(t, f.app.history.Items(), 1)

	f.typeText(t, "soup")
	assert.Len(t, f.app.history.Items(), 1)

	f.key(t, tea.KeyMsg{Type: tea.KeyTab})
	require.False(t, f.app.historyInput.Focused())

	f.key(t, tea.KeyMsg{Type: tea.KeyCtrlX})
	assert.Empty(t, f.app.historyInput.Value())
	assert.Empty(t, f.app.history.Items())

	entries, err := f.store.GetHistory(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLogoutResetsFollowing(t *testing.T) {
	f := setup(t)
	f.login(t, f.alice, "password1")
	old := f.app.screens[screenFollowing]

	f.key(t, tea.KeyMsg{Type: tea.KeyCtrlL})

	assert.False(t, f.app.session.LoggedIn())
	assert.Empty(t, f.app.client.Token())
	assert.Equal(t, MsgSignedOut, f.app.status)
	assert.NotSame(t, old, f.app.screens[screenFollowing])
}

func TestLogoutKeepsReaderPreview(t *testing.T) {
	f := setup(t)
	f.backend.AddRecipes(api.Recipe{ID: "r1", AuthorID: "bob", Header: "Stew"})
	f.backend.SetLiked(api.KindRecipe, "r1", "alice")
	f.login(t, f.alice, "password1")

	s := f.app.screens[screenRecipes]
	f.run(t, f.app.loadInitial(s))
	f.key(t, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ViewReader, f.app.view)
	p := f.app.reader.item.preview
	require.NotNil(t, p)
	require.True(t, p.Snapshot().Liked)

	f.key(t, tea.KeyMsg{Type: tea.KeyCtrlL})
	require.False(t, f.app.session.LoggedIn())

	st := p.Snapshot()
	assert.True(t, st.Loaded, "reader preview reloaded for the new viewer")
	assert.False(t, st.Liked)
	assert.Equal(t, 1, st.LikeCount)
}

func TestThemeToggle(t *testing.T) {
	f := setup(t)
	before := BackgroundColor

	f.key(t, tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.True(t, f.app.session.State().Inverted)
	assert.NotEqual(t, before, BackgroundColor)

	f.key(t, tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.False(t, f.app.session.State().Inverted)
	assert.Equal(t, before, BackgroundColor)
}

func TestStatusBarShowsHelp(t *testing.T) {
	f := setup(t)
	view := f.app.View()
	assert.Contains(t, view, "enter: open")
	assert.True(t, strings.Contains(view, "guest @"), "anonymous viewers see the server")
}
