package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/crumb/internal/api"
)

func TestKeyHandler_ModifierKey(t *testing.T) {
	f := setup(t)
	assert.NotNil(t, f.app.keyHandler)
	assert.Equal(t, "ctrl+", f.app.keyHandler.modifierKey)
}

func TestKeyHandler_TextInputMode(t *testing.T) {
	f := setup(t)
	kh := f.app.keyHandler

	assert.False(t, kh.isInTextInputMode())

	f.app.openSearch()
	assert.True(t, kh.isInTextInputMode())
	f.app.searchInput.Blur()
	assert.False(t, kh.isInTextInputMode())

	f.app.openAuth(ViewRegister)
	assert.True(t, kh.isInTextInputMode())
}

func TestKeyHandler_QuitOnlyOutsideInputs(t *testing.T) {
	f := setup(t)

	_, cmd := f.app.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	f.app.openSearch()
	_, cmd = f.app.Update(runes("q"))
	assert.Equal(t, "q", f.app.searchInput.Value(), "q is typed into the search box")
	if cmd != nil {
		_, isQuit := cmd().(tea.QuitMsg)
		assert.False(t, isQuit)
	}
}

func TestKeyHandler_FormFieldNavigation(t *testing.T) {
	f := setup(t)
	f.app.openAuth(ViewRegister)
	form := f.app.auth

	assert.Equal(t, 0, form.focus)
	f.app.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, form.focus)
	f.app.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, 0, form.focus)
	f.app.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, 3, form.focus, "focus wraps around")
}

func TestKeyHandler_ProfileTabs(t *testing.T) {
	f := setup(t)
	f.backend.AddRecipes(api.Recipe{AuthorID: "bob", Header: "Bob's stew"})
	f.backend.AddBlogs(api.Blog{AuthorID: "bob", Header: "Bob writes"})

	f.run(t, f.app.openProfile("bob"))
	require.Equal(t, ViewUser, f.app.view)
	require.NotNil(t, f.app.profile)
	assert.Equal(t, "bob", f.app.profile.user.Username)
	assert.Len(t, f.app.profile.recipes.list.Items(), 1)

	f.key(t, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, f.app.profile.tab)
	assert.Same(t, f.app.profile.blogs, f.app.current())
	assert.Len(t, f.app.current().list.Items(), 1)

	f.key(t, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewRecipes, f.app.view)
	assert.Nil(t, f.app.profile)
}

func TestKeyHandler_DeleteCancelReturns(t *testing.T) {
	f := setup(t)
	f.login(t, f.alice, "password1")
	f.backend.AddRecipes(api.Recipe{ID: "r1", AuthorID: "alice", Header: "Mine"})

	s := f.app.screens[screenRecipes]
	f.run(t, f.app.loadInitial(s))
	f.key(t, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ViewReader, f.app.view)

	f.key(t, tea.KeyMsg{Type: tea.KeyCtrlX})
	require.Equal(t, ViewDeleteConfirm, f.app.view)

	f.key(t, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewReader, f.app.view)
	assert.Nil(t, f.app.pendingDelete)
}

func TestKeyHandler_EditPrefillsCompose(t *testing.T) {
	f := setup(t)
	f.login(t, f.alice, "password1")
	f.backend.AddBlogs(api.Blog{ID: "b1", AuthorID: "alice", Header: "Notes", BodyText: "Long enough body"})

	f.key(t, runes("2"))
	require.Len(t, f.app.screens[screenBlogs].list.Items(), 1)

	f.key(t, tea.KeyMsg{Type: tea.KeyCtrlE})
	require.Equal(t, ViewCompose, f.app.view)
	assert.Equal(t, "b1", f.app.compose.editing)
	assert.Equal(t, "Notes", f.app.compose.value("header"))
	assert.Equal(t, "edit blog", f.app.compose.title)
}

func TestKeyHandler_HelpFollowsView(t *testing.T) {
	f := setup(t)
	kh := f.app.keyHandler

	assert.Contains(t, kh.GetHelpForCurrentView(), "ctrl+l: log in")

	f.login(t, f.alice, "password1")
	assert.Contains(t, kh.GetHelpForCurrentView(), "ctrl+l: log out")

	f.app.openAuth(ViewLogin)
	assert.Contains(t, kh.GetHelpForCurrentView(), "ctrl+r: create account")

	f.app.view = ViewDeleteConfirm
	assert.Equal(t, []string{"enter: confirm", "esc: cancel"}, kh.GetHelpForCurrentView())
}

func TestComposeKindFollowsTab(t *testing.T) {
	assert.Equal(t, api.KindRecipe, composeKind(ViewRecipes))
	assert.Equal(t, api.KindBlog, composeKind(ViewBlogs))
	assert.Equal(t, api.KindEvent, composeKind(ViewEvents))
	assert.Equal(t, api.KindRecipe, composeKind(ViewFollowing))
}
