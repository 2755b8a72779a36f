// Package fakeapi is an in-memory implementation of the platform backend,
// used by tests and by `crumb` when pointed at a local demo server.
package fakeapi

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/pders01/crumb/internal/api"
)

// Claims are the token claims the backend issues.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Server struct {
	mu     sync.Mutex
	secret []byte
	engine *gin.Engine

	users     []api.User
	passwords map[string]string
	banned    map[string]bool
	recipes   []api.Recipe
	blogs     []api.Blog
	events    []api.Event

	likes        map[string]map[string]bool
	bookmarks    map[string]map[string]bool
	follows      map[string]map[string]bool
	images       map[string][]byte
	comments     map[string][]api.Comment
	participants map[string][]string

	failures map[string]int
	hits     map[string]int
}

func New() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		secret:       []byte("crumb-fakeapi"),
		passwords:    make(map[string]string),
		banned:       make(map[string]bool),
		likes:        make(map[string]map[string]bool),
		bookmarks:    make(map[string]map[string]bool),
		follows:      make(map[string]map[string]bool),
		images:       make(map[string][]byte),
		comments:     make(map[string][]api.Comment),
		participants: make(map[string][]string),
		failures:     make(map[string]int),
		hits:         make(map[string]int),
	}
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.record(), s.authenticate())

	v1 := r.Group("/api/v1")

	v1.POST("/auth/login", s.login)
	v1.POST("/auth/register", s.register)

	v1.GET("/feed/recipe", s.recipeFeed)
	v1.GET("/feed/blog", s.blogFeed)
	v1.GET("/feed/recipe/followed", requireViewer, s.followedRecipes)
	v1.GET("/feed/blog/followed", requireViewer, s.followedBlogs)

	for _, kind := range []api.Kind{api.KindRecipe, api.KindBlog, api.KindEvent} {
		kind := kind
		g := v1.Group("/" + kind.Collection())
		g.GET("/:id", s.getItem(kind))
		g.POST("", requireViewer, s.createItem(kind))
		g.PUT("/:id", requireViewer, s.updateItem(kind))
		g.DELETE("/:id", requireViewer, s.deleteItem(kind))
		g.GET("/:id/banner", s.image(kind, "banner"))
		g.GET("/:id/is-liked", requireViewer, s.membership(kind, s.likes))
		g.GET("/:id/is-bookmarked", requireViewer, s.membership(kind, s.bookmarks))
		g.GET("/:id/like-count", s.likeCount(kind))
		g.GET("/:id/comments", s.listComments(kind))
		g.POST("/:id/toggle-like", requireViewer, s.toggle(kind, s.likes))
		g.POST("/:id/bookmark", requireViewer, s.toggle(kind, s.bookmarks))
	}
	v1.GET("/recipes/search", s.searchRecipes)
	v1.GET("/blogs/search", s.searchBlogs)
	v1.GET("/events", s.listEvents)
	v1.GET("/events/:id/participants", s.listParticipants)

	v1.GET("/users/search", s.searchUsers)
	v1.GET("/users/follow", requireViewer, s.isFollowing)
	v1.POST("/users/follow", requireViewer, s.follow)
	v1.DELETE("/users/unfollow", requireViewer, s.unfollow)
	v1.GET("/users/:id", s.getUser)
	v1.GET("/users/:id/followers", s.followers)
	v1.GET("/users/:id/following", s.following)
	v1.GET("/users/:id/recipes", s.userRecipes)
	v1.GET("/users/:id/blogs", s.userBlogs)
	v1.GET("/users/:id/profile-picture", s.image(api.KindUser, "profile-picture"))
	v1.GET("/users/:id/banner", s.image(api.KindUser, "banner"))
	v1.POST("/users/:id/ban", requireViewer, s.ban)

	return r
}

// Fail makes every later request matching method and path answer with status.
// A status of zero clears the failure.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	if status == 0 {
		delete(s.failures, key)
		return
	}
	s.failures[key] = status
}

// Hits reports how many requests matched method and path.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

// TotalHits counts every request the server has seen.
func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.hits {
		total += n
	}
	return total
}

func (s *Server) record() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Request.Method + " " + c.Request.URL.Path

		s.mu.Lock()
		s.hits[key]++
		status, failing := s.failures[key]
		s.mu.Unlock()

		if failing {
			abort(c, status, fmt.Sprintf("Injected failure %d", status))
			return
		}
		c.Next()
	}
}

func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.Next()
			return
		}

		claims := &Claims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		s.mu.Lock()
		banned := s.banned[claims.UserID]
		s.mu.Unlock()
		if banned {
			abort(c, http.StatusForbidden, "User is banned")
			return
		}

		c.Set("viewer", claims)
		c.Next()
	}
}

func requireViewer(c *gin.Context) {
	if _, ok := viewer(c); !ok {
		abort(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	c.Next()
}

func viewer(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get("viewer")
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}

// Token issues a signed token for a seeded user, valid for ttl.
func (s *Server) Token(userID string, ttl time.Duration) string {
	s.mu.Lock()
	user, _ := s.findUser(userID)
	s.mu.Unlock()
	return s.sign(user, ttl)
}

func (s *Server) sign(user api.User, ttl time.Duration) string {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(fmt.Sprintf("signing token: %v", err))
	}
	return signed
}

func paginate[T any](c *gin.Context, items []T) api.ListResponse[T] {
	pageNumber, _ := strconv.Atoi(c.DefaultQuery("pageNumber", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "10"))
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	start := (pageNumber - 1) * pageSize
	if start > len(items) {
		start = len(items)
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}

	page := make([]T, end-start)
	copy(page, items[start:end])
	return api.ListResponse[T]{Items: page, TotalCount: len(items)}
}

func sortByDate[T interface{ Timestamp() time.Time }](items []T, c *gin.Context) {
	if !strings.EqualFold(c.Query("SortBy"), "createdDate") && !strings.EqualFold(c.Query("SortBy"), "creationDate") {
		return
	}
	asc := strings.EqualFold(c.Query("SortOrder"), "asc")
	sort.SliceStable(items, func(i, j int) bool {
		if asc {
			return items[i].Timestamp().Before(items[j].Timestamp())
		}
		return items[i].Timestamp().After(items[j].Timestamp())
	})
}

func itemKey(kind api.Kind, id string) string {
	return string(kind) + ":" + id
}
