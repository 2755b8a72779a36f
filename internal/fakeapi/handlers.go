package fakeapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pders01/crumb/internal/api"
)

func (s *Server) login(c *gin.Context) {
	var req api.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	var found *api.User
	for i := range s.users {
		if strings.EqualFold(s.users[i].Email, req.Email) {
			found = &s.users[i]
			break
		}
	}
	ok := found != nil && s.passwords[found.ID] == req.Password
	var user api.User
	if ok {
		user = *found
	}
	s.mu.Unlock()

	if !ok {
		abort(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	c.JSON(http.StatusOK, api.AuthResponse{Token: s.sign(user, time.Hour), User: user})
}

func (s *Server) register(c *gin.Context) {
	var req api.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, req.Email) {
			abort(c, http.StatusConflict, "Email is already taken")
			return
		}
		if strings.EqualFold(u.Username, req.Username) {
			abort(c, http.StatusConflict, "Username is already taken")
			return
		}
	}

	user := api.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		Role:         api.RoleUser,
		CreationDate: time.Now().UTC(),
	}
	s.users = append(s.users, user)
	s.passwords[user.ID] = req.Password
	c.JSON(http.StatusCreated, user)
}

func (s *Server) recipeFeed(c *gin.Context) {
	s.mu.Lock()
	items := append([]api.Recipe(nil), s.recipes...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, paginate(c, items))
}

func (s *Server) blogFeed(c *gin.Context) {
	s.mu.Lock()
	items := append([]api.Blog(nil), s.blogs...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, paginate(c, items))
}

func (s *Server) followedRecipes(c *gin.Context) {
	claims, _ := viewer(c)
	s.mu.Lock()
	var items []api.Recipe
	for _, r := range s.recipes {
		if s.follows[claims.UserID][r.AuthorID] {
			items = append(items, r)
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, paginate(c, items))
}

func (s *Server) followedBlogs(c *gin.Context) {
	claims, _ := viewer(c)
	s.mu.Lock()
	var items []api.Blog
	for _, b := range s.blogs {
		if s.follows[claims.UserID][b.AuthorID] {
			items = append(items, b)
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, paginate(c, items))
}

func (s *Server) searchRecipes(c *gin.Context) {
	needle := strings.ToLower(c.Query("HeaderContains"))
	s.mu.Lock()
	var items []api.Recipe
	for _, r := range s.recipes {
		if strings.Contains(strings.ToLower(r.Header), needle) {
			items = append(items, r)
		}
	}
	s.mu.Unlock()
	sortByDate(items, c)
	c.JSON(http.StatusOK, paginate(c, items))
}

func (s *Server) searchBlogs(c *gin.Context) {
	needle := strings.ToLower(c.Query("HeaderContains"))
	s.mu.Lock()
	var items []api.Blog
	for _, b := range s.blogs {
		if strings.Contains(strings.ToLower(b.Header), needle) {
			items = append(items, b)
		}
	}
	s.mu.Unlock()
	sortByDate(items, c)
	c.JSON(http.StatusOK, paginate(c, items))
}

func (s *Server) searchUsers(c *gin.Context) {
	needle := strings.ToLower(c.Query("UsernameContains"))
	s.mu.Lock()
	var items []api.User
	for _, u := range s.users {
		if strings.Contains(strings.ToLower(u.Username), needle) {
			items = append(items, public(u))
		}
	}
	s.mu.Unlock()
	sortByDate(items, c)
	c.JSON(http.StatusOK, paginate(c, items))
}

func (s *Server) listEvents(c *gin.Context) {
	s.mu.Lock()
	items := append([]api.Event(nil), s.events...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, paginate(c, items))
}

func (s *Server) listParticipants(c *gin.Context) {
	s.mu.Lock()
	if _, _, ok := s.findItem(api.KindEvent, c.Param("id")); !ok {
		s.mu.Unlock()
		abort(c, http.StatusNotFound, "Event not found")
		return
	}
	var items []api.User
	for _, id := range s.participants[c.Param("id")] {
		if u, ok := s.findUser(id); ok {
			items = append(items, public(u))
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, paginate(c, items))
}

func (s *Server) getItem(kind api.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		item, _, ok := s.findItem(kind, c.Param("id"))
		s.mu.Unlock()
		if !ok {
			abort(c, http.StatusNotFound, notFound(kind))
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func (s *Server) createItem(kind api.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := viewer(c)
		now := time.Now().UTC()
		id := uuid.NewString()

		var created any
		switch kind {
		case api.KindRecipe:
			var req api.RecipeRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				abort(c, http.StatusBadRequest, err.Error())
				return
			}
			r := api.Recipe{ID: id, AuthorID: claims.UserID, Header: req.Header, BodyText: req.BodyText,
				Ingredients: req.Ingredients, PreparationTime: req.PreparationTime, Servings: req.Servings,
				Tags: req.Tags, CreatedDate: now}
			s.mu.Lock()
			s.recipes = append([]api.Recipe{r}, s.recipes...)
			s.mu.Unlock()
			created = r
		case api.KindBlog:
			var req api.BlogRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				abort(c, http.StatusBadRequest, err.Error())
				return
			}
			b := api.Blog{ID: id, AuthorID: claims.UserID, Header: req.Header, BodyText: req.BodyText, CreatedDate: now}
			s.mu.Lock()
			s.blogs = append([]api.Blog{b}, s.blogs...)
			s.mu.Unlock()
			created = b
		case api.KindEvent:
			var req api.EventRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				abort(c, http.StatusBadRequest, err.Error())
				return
			}
			if !req.EndDate.After(req.StartDate) {
				abort(c, http.StatusBadRequest, "End date must be after start date")
				return
			}
			e := api.Event{ID: id, AuthorID: claims.UserID, Title: req.Title, Description: req.Description,
				Location: req.Location, StartDate: req.StartDate, EndDate: req.EndDate, CreationDate: now}
			s.mu.Lock()
			s.events = append([]api.Event{e}, s.events...)
			s.mu.Unlock()
			created = e
		}
		c.JSON(http.StatusCreated, created)
	}
}

func (s *Server) updateItem(kind api.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := viewer(c)
		id := c.Param("id")

		s.mu.Lock()
		defer s.mu.Unlock()
		_, idx, ok := s.findItem(kind, id)
		if !ok {
			abort(c, http.StatusNotFound, notFound(kind))
			return
		}
		if s.authorOf(kind, idx) != claims.UserID {
			abort(c, http.StatusForbidden, "Only the author can edit this")
			return
		}

		switch kind {
		case api.KindRecipe:
			var req api.RecipeRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				abort(c, http.StatusBadRequest, err.Error())
				return
			}
			r := &s.recipes[idx]
			r.Header, r.BodyText, r.Ingredients = req.Header, req.BodyText, req.Ingredients
			r.PreparationTime, r.Servings, r.Tags = req.PreparationTime, req.Servings, req.Tags
			c.JSON(http.StatusOK, *r)
		case api.KindBlog:
			var req api.BlogRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				abort(c, http.StatusBadRequest, err.Error())
				return
			}
			b := &s.blogs[idx]
			b.Header, b.BodyText = req.Header, req.BodyText
			c.JSON(http.StatusOK, *b)
		case api.KindEvent:
			var req api.EventRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				abort(c, http.StatusBadRequest, err.Error())
				return
			}
			e := &s.events[idx]
			e.Title, e.Description, e.Location = req.Title, req.Description, req.Location
			e.StartDate, e.EndDate = req.StartDate, req.EndDate
			c.JSON(http.StatusOK, *e)
		}
	}
}

func (s *Server) deleteItem(kind api.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := viewer(c)

		s.mu.Lock()
		defer s.mu.Unlock()
		_, idx, ok := s.findItem(kind, c.Param("id"))
		if !ok {
			abort(c, http.StatusNotFound, notFound(kind))
			return
		}
		if s.authorOf(kind, idx) != claims.UserID && claims.Role != api.RoleAdmin {
			abort(c, http.StatusForbidden, "Only the author or an admin can delete this")
			return
		}

		switch kind {
		case api.KindRecipe:
			s.recipes = append(s.recipes[:idx], s.recipes[idx+1:]...)
		case api.KindBlog:
			s.blogs = append(s.blogs[:idx], s.blogs[idx+1:]...)
		case api.KindEvent:
			s.events = append(s.events[:idx], s.events[idx+1:]...)
		}
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) image(kind api.Kind, field string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		data, ok := s.images[itemKey(kind, c.Param("id"))+":"+field]
		s.mu.Unlock()
		if !ok {
			abort(c, http.StatusNotFound, "Image not found")
			return
		}
		c.Data(http.StatusOK, http.DetectContentType(data), data)
	}
}

func (s *Server) membership(kind api.Kind, set map[string]map[string]bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := viewer(c)
		s.mu.Lock()
		member := set[itemKey(kind, c.Param("id"))][claims.UserID]
		s.mu.Unlock()
		c.JSON(http.StatusOK, member)
	}
}

func (s *Server) toggle(kind api.Kind, set map[string]map[string]bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := viewer(c)
		key := itemKey(kind, c.Param("id"))

		s.mu.Lock()
		defer s.mu.Unlock()
		if _, _, ok := s.findItem(kind, c.Param("id")); !ok {
			abort(c, http.StatusNotFound, notFound(kind))
			return
		}
		if set[key] == nil {
			set[key] = make(map[string]bool)
		}
		if set[key][claims.UserID] {
			delete(set[key], claims.UserID)
		} else {
			set[key][claims.UserID] = true
		}
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) likeCount(kind api.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		_, _, ok := s.findItem(kind, c.Param("id"))
		count := len(s.likes[itemKey(kind, c.Param("id"))])
		s.mu.Unlock()
		if !ok {
			abort(c, http.StatusNotFound, notFound(kind))
			return
		}
		c.JSON(http.StatusOK, count)
	}
}

func (s *Server) listComments(kind api.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		_, _, ok := s.findItem(kind, c.Param("id"))
		items := append([]api.Comment(nil), s.comments[itemKey(kind, c.Param("id"))]...)
		s.mu.Unlock()
		if !ok {
			abort(c, http.StatusNotFound, notFound(kind))
			return
		}
		c.JSON(http.StatusOK, paginate(c, items))
	}
}

func (s *Server) isFollowing(c *gin.Context) {
	claims, _ := viewer(c)
	s.mu.Lock()
	following := s.follows[claims.UserID][c.Query("targetUserId")]
	s.mu.Unlock()
	c.JSON(http.StatusOK, following)
}

func (s *Server) follow(c *gin.Context) {
	claims, _ := viewer(c)
	target := c.Query("targetUserId")

	s.mu.Lock()
	defer s.mu.Unlock()
	if target == claims.UserID {
		abort(c, http.StatusBadRequest, "You cannot follow yourself")
		return
	}
	if _, ok := s.findUser(target); !ok {
		abort(c, http.StatusNotFound, "User not found")
		return
	}
	if s.follows[claims.UserID] == nil {
		s.follows[claims.UserID] = make(map[string]bool)
	}
	s.follows[claims.UserID][target] = true
	c.Status(http.StatusNoContent)
}

func (s *Server) unfollow(c *gin.Context) {
	claims, _ := viewer(c)
	s.mu.Lock()
	delete(s.follows[claims.UserID], c.Query("targetUserId"))
	s.mu.Unlock()
	c.Status(http.StatusNoContent)
}

func (s *Server) getUser(c *gin.Context) {
	s.mu.Lock()
	user, ok := s.findUser(c.Param("id"))
	if ok {
		user.FollowingCount = len(s.follows[user.ID])
		for _, targets := range s.follows {
			if targets[user.ID] {
				user.FollowersCount++
			}
		}
	}
	s.mu.Unlock()
	if !ok {
		abort(c, http.StatusNotFound, "User not found")
		return
	}
	c.JSON(http.StatusOK, public(user))
}

func (s *Server) followers(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	var items []api.User
	for _, u := range s.users {
		if s.follows[u.ID][id] {
			items = append(items, public(u))
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, paginate(c, items))
}

func (s *Server) following(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	var items []api.User
	for _, u := range s.users {
		if s.follows[id][u.ID] {
			items = append(items, public(u))
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, paginate(c, items))
}

func (s *Server) userRecipes(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	var items []api.Recipe
	for _, r := range s.recipes {
		if r.AuthorID == id {
			items = append(items, r)
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, paginate(c, items))
}

func (s *Server) userBlogs(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	var items []api.Blog
	for _, b := range s.blogs {
		if b.AuthorID == id {
			items = append(items, b)
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, paginate(c, items))
}

func (s *Server) ban(c *gin.Context) {
	claims, _ := viewer(c)
	if claims.Role != api.RoleAdmin {
		abort(c, http.StatusForbidden, "Only admins can ban users")
		return
	}
	s.mu.Lock()
	_, ok := s.findUser(c.Param("id"))
	if ok {
		s.banned[c.Param("id")] = true
	}
	s.mu.Unlock()
	if !ok {
		abort(c, http.StatusNotFound, "User not found")
		return
	}
	c.Status(http.StatusNoContent)
}

func notFound(kind api.Kind) string {
	name := string(kind)
	return strings.ToUpper(name[:1]) + name[1:] + " not found"
}

func public(u api.User) api.User {
	u.Email = ""
	return u
}
