// Package session is the single owner of the signed-in user, the auth token
// and the theme flag. Every reader goes through it; changes are persisted
// and broadcast to subscribers.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pders01/crumb/internal/api"
	"github.com/pders01/crumb/internal/debuglog"
	"github.com/pders01/crumb/internal/storage"
)

// Persisted keys.
const (
	KeyUserLogged = "userLogged"
	KeyUserData   = "userData"
	KeyToken      = "token"
	KeyInverted   = "isInverted"
)

// Store persists session keys. *storage.Store implements it.
type Store interface {
	PutSession(key string, value []byte) error
	GetSession(key string) ([]byte, error)
	DeleteSession(key string) error
}

// Viewer is who the client acts as. The zero Viewer is anonymous.
type Viewer struct {
	ID        string
	Username  string
	Role      string
	ExpiresAt time.Time
}

func (v Viewer) Anonymous() bool { return v.ID == "" }

func (v Viewer) IsAdmin() bool { return v.Role == api.RoleAdmin }

type State struct {
	LoggedIn bool
	User     *api.User
	Token    string
	Inverted bool
	Viewer   Viewer
}

type claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Session struct {
	store Store
	now   func() time.Time

	mu       sync.RWMutex
	logged   bool
	user     *api.User
	token    string
	inverted bool

	subMu  sync.Mutex
	subs   map[int]func(State)
	nextID int
}

// Open loads the persisted session.
func Open(store Store) (*Session, error) {
	s := &Session{
		store: store,
		now:   time.Now,
		subs:  make(map[int]func(State)),
	}

	logged, err := s.read(KeyUserLogged)
	if err != nil {
		return nil, err
	}
	s.logged = string(logged) == "true"

	if data, err := s.read(KeyUserData); err != nil {
		return nil, err
	} else if len(data) > 0 {
		var user api.User
		if err := json.Unmarshal(data, &user); err != nil {
			debuglog.Warnf("discarding unreadable session user: %v", err)
		} else {
			s.user = &user
		}
	}

	token, err := s.read(KeyToken)
	if err != nil {
		return nil, err
	}
	s.token = string(token)

	inverted, err := s.read(KeyInverted)
	if err != nil {
		return nil, err
	}
	s.inverted = string(inverted) == "true"

	return s, nil
}

func (s *Session) read(key string) ([]byte, error) {
	data, err := s.store.GetSession(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", key, err)
	}
	return data, nil
}

// State returns the current session. A session whose token has expired
// reads as logged out.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	st := State{Inverted: s.inverted}
	if !s.logged || s.token == "" {
		return st
	}

	viewer := viewerFromToken(s.token, s.user)
	if !viewer.ExpiresAt.IsZero() && !s.now().Before(viewer.ExpiresAt) {
		return st
	}

	st.LoggedIn = true
	st.Token = s.token
	st.Viewer = viewer
	if s.user != nil {
		u := *s.user
		st.User = &u
	}
	return st
}

func (s *Session) LoggedIn() bool { return s.State().LoggedIn }

func (s *Session) Viewer() Viewer { return s.State().Viewer }

func (s *Session) Token() string { return s.State().Token }

// Login persists user and token and notifies subscribers.
func (s *Session) Login(user api.User, token string) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding session user: %w", err)
	}

	s.mu.Lock()
	err = s.writeAll(map[string][]byte{
		KeyUserLogged: []byte("true"),
		KeyUserData:   data,
		KeyToken:      []byte(token),
	})
	if err == nil {
		s.logged = true
		s.user = &user
		s.token = token
	}
	st := s.stateLocked()
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.publish(st)
	return nil
}

// Logout forgets the user and token. The theme flag survives.
func (s *Session) Logout() error {
	s.mu.Lock()
	var errs []error
	for _, key := range []string{KeyUserData, KeyToken} {
		if err := s.store.DeleteSession(key); err != nil {
			errs = append(errs, fmt.Errorf("deleting session %s: %w", key, err))
		}
	}
	if err := s.store.PutSession(KeyUserLogged, []byte("false")); err != nil {
		errs = append(errs, fmt.Errorf("writing session %s: %w", KeyUserLogged, err))
	}
	s.logged = false
	s.user = nil
	s.token = ""
	st := s.stateLocked()
	s.mu.Unlock()

	s.publish(st)
	return errors.Join(errs...)
}

func (s *Session) SetInverted(inverted bool) error {
	s.mu.Lock()
	err := s.store.PutSession(KeyInverted, []byte(fmt.Sprint(inverted)))
	if err == nil {
		s.inverted = inverted
	}
	st := s.stateLocked()
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("writing session %s: %w", KeyInverted, err)
	}
	s.publish(st)
	return nil
}

// Subscribe calls fn after every change until the returned func is called.
// fn runs on the goroutine that made the change.
func (s *Session) Subscribe(fn func(State)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Session) publish(st State) {
	s.subMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(State), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

func (s *Session) writeAll(values map[string][]byte) error {
	for key, value := range values {
		if err := s.store.PutSession(key, value); err != nil {
			return fmt.Errorf("writing session %s: %w", key, err)
		}
	}
	return nil
}

// viewerFromToken reads the token claims without verifying the signature;
// the backend verifies it on every request. When the token is not a JWT the
// stored user fills in the viewer.
func viewerFromToken(token string, user *api.User) Viewer {
	var v Viewer
	if user != nil {
		v = Viewer{ID: user.ID, Username: user.Username, Role: user.Role}
	}

	c := &claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, c); err != nil {
		return v
	}
	if c.UserID != "" {
		v.ID = c.UserID
	} else if c.Subject != "" {
		v.ID = c.Subject
	}
	if c.Role != "" {
		v.Role = c.Role
	}
	if c.ExpiresAt != nil {
		v.ExpiresAt = c.ExpiresAt.Time
	}
	return v
}
