package fakeapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/pders01/crumb/internal/api"
)

// AddUser seeds a user with a login password. An empty ID is generated.
func (s *Server) AddUser(user api.User, password string) api.User {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = api.RoleUser
	}
	if user.CreationDate.IsZero() {
		user.CreationDate = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, user)
	s.passwords[user.ID] = password
	return user
}

// AddRecipes appends recipes to the popular feed in order.
func (s *Server) AddRecipes(recipes ...api.Recipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recipes {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		s.recipes = append(s.recipes, r)
	}
}

// AddBlogs appends blogs to the popular feed in order.
func (s *Server) AddBlogs(blogs ...api.Blog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range blogs {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		s.blogs = append(s.blogs, b)
	}
}

func (s *Server) AddEvents(events ...api.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range events {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		s.events = append(s.events, e)
	}
}

// SetImage stores an image for kind/id; field is "banner" or "profile-picture".
func (s *Server) SetImage(kind api.Kind, id, field string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[itemKey(kind, id)+":"+field] = data
}

func (s *Server) AddComment(kind api.Kind, id string, comment api.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	key := itemKey(kind, id)
	s.comments[key] = append(s.comments[key], comment)
}

func (s *Server) AddParticipant(eventID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[eventID] = append(s.participants[eventID], userID)
}

// SetFollow records that follower follows target.
func (s *Server) SetFollow(follower, target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.follows[follower] == nil {
		s.follows[follower] = make(map[string]bool)
	}
	s.follows[follower][target] = true
}

// SetLiked marks kind/id as liked by userID.
func (s *Server) SetLiked(kind api.Kind, id, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := itemKey(kind, id)
	if s.likes[key] == nil {
		s.likes[key] = make(map[string]bool)
	}
	s.likes[key][userID] = true
}

// Liked reports whether userID currently likes kind/id.
func (s *Server) Liked(kind api.Kind, id, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.likes[itemKey(kind, id)][userID]
}

func (s *Server) Bookmarked(kind api.Kind, id, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookmarks[itemKey(kind, id)][userID]
}

func (s *Server) Follows(follower, target string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.follows[follower][target]
}

// findUser and findItem expect s.mu to be held.
func (s *Server) findUser(id string) (api.User, bool) {
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return api.User{}, false
}

func (s *Server) findItem(kind api.Kind, id string) (any, int, bool) {
	switch kind {
	case api.KindRecipe:
		for i, r := range s.recipes {
			if r.ID == id {
				return r, i, true
			}
		}
	case api.KindBlog:
		for i, b := range s.blogs {
			if b.ID == id {
				return b, i, true
			}
		}
	case api.KindEvent:
		for i, e := range s.events {
			if e.ID == id {
				e.ParticipantCount = len(s.participants[id])
				return e, i, true
			}
		}
	}
	return nil, -1, false
}

func (s *Server) authorOf(kind api.Kind, idx int) string {
	switch kind {
	case api.KindRecipe:
		return s.recipes[idx].AuthorID
	case api.KindBlog:
		return s.blogs[idx].AuthorID
	case api.KindEvent:
		return s.events[idx].AuthorID
	}
	return ""
}
