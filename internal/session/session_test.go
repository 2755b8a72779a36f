package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/crumb/internal/api"
	"github.com/pders01/crumb/internal/storage"
)

func newStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "session.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func token(t *testing.T, userID, role string, exp time.Time) string {
	t.Helper()
	c := claims{
		UserID:           userID,
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("test"))
	require.NoError(t, err)
	return signed
}

func TestOpenEmpty(t *testing.T) {
	s, err := Open(newStore(t))
	require.NoError(t, err)

	st := s.State()
	assert.False(t, st.LoggedIn)
	assert.Nil(t, st.User)
	assert.True(t, st.Viewer.Anonymous())
	assert.False(t, st.Inverted)
}

func TestLoginPersists(t *testing.T) {
	store := newStore(t)
	s, err := Open(store)
	require.NoError(t, err)

	user := api.User{ID: "u1", Username: "alice", Role: api.RoleUser}
	tok := token(t, "u1", api.RoleAdmin, time.Now().Add(time.Hour))
	require.NoError(t, s.Login(user, tok))

	st := s.State()
	assert.True(t, st.LoggedIn)
	assert.Equal(t, tok, st.Token)
	assert.Equal(t, "u1", st.Viewer.ID)
	assert.Equal(t, "alice", st.Viewer.Username)
	assert.True(t, st.Viewer.IsAdmin(), "role comes from the token claims")

	reopened, err := Open(store)
	require.NoError(t, err)
	assert.True(t, reopened.LoggedIn())
	assert.Equal(t, "alice", reopened.State().User.Username)

	raw, err := store.GetSession(KeyUserLogged)
	require.NoError(t, err)
	assert.Equal(t, "true", string(raw))
}

func TestExpiredTokenReadsLoggedOut(t *testing.T) {
	s, err := Open(newStore(t))
	require.NoError(t, err)

	require.NoError(t, s.Login(api.User{ID: "u1"}, token(t, "u1", "", time.Now().Add(time.Minute))))
	assert.True(t, s.LoggedIn())

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	st := s.State()
	assert.False(t, st.LoggedIn)
	assert.Empty(t, st.Token)
	assert.True(t, st.Viewer.Anonymous())
}

func TestOpaqueTokenUsesStoredUser(t *testing.T) {
	s, err := Open(newStore(t))
	require.NoError(t, err)

	require.NoError(t, s.Login(api.User{ID: "u2", Username: "bob", Role: api.RoleUser}, "not-a-jwt"))
	v := s.Viewer()
	assert.Equal(t, "u2", v.ID)
	assert.Equal(t, api.RoleUser, v.Role)
	assert.True(t, v.ExpiresAt.IsZero())
}

func TestLogoutKeepsTheme(t *testing.T) {
	s, err := Open(newStore(t))
	require.NoError(t, err)

	require.NoError(t, s.SetInverted(true))
	require.NoError(t, s.Login(api.User{ID: "u1"}, token(t, "u1", "", time.Now().Add(time.Hour))))
	require.NoError(t, s.Logout())

	st := s.State()
	assert.False(t, st.LoggedIn)
	assert.Nil(t, st.User)
	assert.True(t, st.Inverted)
}

func TestSubscribe(t *testing.T) {
	s, err := Open(newStore(t))
	require.NoError(t, err)

	var seen []State
	unsubscribe := s.Subscribe(func(st State) { seen = append(seen, st) })

	require.NoError(t, s.Login(api.User{ID: "u1"}, token(t, "u1", "", time.Now().Add(time.Hour))))
	require.NoError(t, s.SetInverted(true))
	require.NoError(t, s.Logout())

	require.Len(t, seen, 3)
	assert.True(t, seen[0].LoggedIn)
	assert.True(t, seen[1].Inverted)
	assert.False(t, seen[2].LoggedIn)

	unsubscribe()
	require.NoError(t, s.SetInverted(false))
	assert.Len(t, seen, 3)
}
