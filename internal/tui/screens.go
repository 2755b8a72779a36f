package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/list"
	"github.com/pders01/crumb/internal/api"
	"github.com/pders01/crumb/internal/pager"
	"github.com/pders01/crumb/internal/preview"
)

// Screen ids. Profile screens are recreated for every profile opened.
const (
	screenRecipes     = "recipes"
	screenBlogs       = "blogs"
	screenEvents      = "events"
	screenFollowing   = "following"
	screenSearch      = "search"
	screenUserRecipes = "user-recipes"
	screenUserBlogs   = "user-blogs"
)

// screen is a paged list: a pager feeding a bubbles list.
type screen struct {
	id      string
	title   string
	pager   *pager.Pager[row]
	list    list.Model
	seq     int
	started bool
	queued  map[string]struct{}
}

func newScreen(id, title string, fetch pager.FetchFunc[row], pageSize int) *screen {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "› " + title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	return &screen{
		id:     id,
		title:  title,
		pager:  pager.New(fetch, pageSize).Named(id),
		list:   l,
		queued: make(map[string]struct{}),
	}
}

// sync copies the pager's items into the list, keeping the cursor.
func (s *screen) sync() {
	snap := s.pager.Snapshot()
	items := make([]list.Item, len(snap.Items))
	for i, r := range snap.Items {
		items[i] = r
	}
	idx := s.list.Index()
	s.list.SetItems(items)
	if idx < len(items) {
		s.list.Select(idx)
	}
}

func (s *screen) selected() (row, bool) {
	r, ok := s.list.SelectedItem().(row)
	return r, ok
}

// pending returns previews of listed rows not yet queued for loading and
// marks them queued.
func (s *screen) pending() []*preview.Preview {
	var out []*preview.Preview
	for _, r := range s.pager.Snapshot().Items {
		if r.preview == nil {
			continue
		}
		if _, ok := s.queued[r.Key()]; ok {
			continue
		}
		s.queued[r.Key()] = struct{}{}
		out = append(out, r.preview)
	}
	return out
}

func (s *screen) releasePreviews() {
	for _, r := range s.pager.Snapshot().Items {
		if r.preview != nil {
			r.preview.Release()
		}
	}
}

// close cancels in-flight loads and frees images.
func (s *screen) close() {
	s.pager.Close()
	s.releasePreviews()
}

func (s *screen) setSize(width, height int) {
	s.list.SetSize(width, height)
}

// listFetch adapts an api list call, converting each item to a row.
func listFetch[T any](call func(context.Context, api.PageRequest) (api.ListResponse[T], error), seed string, conv func(T) row) pager.FetchFunc[row] {
	return func(ctx context.Context, pageNumber, pageSize int) (pager.Page[row], error) {
		resp, err := call(ctx, api.PageRequest{PageNumber: pageNumber, PageSize: pageSize, Seed: seed})
		if err != nil {
			return pager.Page[row]{}, err
		}
		rows := make([]row, len(resp.Items))
		for i, item := range resp.Items {
			rows[i] = conv(item)
		}
		return pager.Page[row]{Items: rows, TotalCount: resp.TotalCount}, nil
	}
}

// mapFetch converts the items of another FetchFunc to rows.
func mapFetch[T any](fetch pager.FetchFunc[T], conv func(T) row) pager.FetchFunc[row] {
	return func(ctx context.Context, pageNumber, pageSize int) (pager.Page[row], error) {
		page, err := fetch(ctx, pageNumber, pageSize)
		if err != nil {
			return pager.Page[row]{}, err
		}
		rows := make([]row, len(page.Items))
		for i, item := range page.Items {
			rows[i] = conv(item)
		}
		return pager.Page[row]{Items: rows, TotalCount: page.TotalCount}, nil
	}
}

// feedScreens builds the top-level lists.
func (a *App) feedScreens() map[string]*screen {
	c, svc, feed := a.client, a.previews, a.config.Feed
	recipe := func(r api.Recipe) row { return recipeRow(svc, r) }
	blog := func(b api.Blog) row { return blogRow(svc, b) }
	event := func(e api.Event) row { return eventRow(svc, e) }

	return map[string]*screen{
		screenRecipes:   newScreen(screenRecipes, "recipes", listFetch(c.RecipeFeed, feed.Seed, recipe), feed.RecipePageSize),
		screenBlogs:     newScreen(screenBlogs, "blogs", listFetch(c.BlogFeed, feed.Seed, blog), feed.BlogPageSize),
		screenEvents:    newScreen(screenEvents, "events", listFetch(c.Events, "", event), feed.RecipePageSize),
		screenFollowing: a.followingScreen(),
	}
}

// followingScreen merges recipes and blogs of followed users, newest first.
func (a *App) followingScreen() *screen {
	c, svc := a.client, a.previews
	merged := pager.MergeFetch(
		pager.NewSource(string(api.KindRecipe), pager.FromList(c.FollowedRecipeFeed)),
		pager.NewSource(string(api.KindBlog), pager.FromList(c.FollowedBlogFeed)),
	)
	fetch := mapFetch(merged, func(e pager.Entry) row { return entryRow(svc, e) })
	return newScreen(screenFollowing, "following", fetch, a.config.Feed.FollowingPageSize)
}

// searchScreen lists server-side search results for query.
func (a *App) searchScreen(kind api.Kind, query string) *screen {
	c, svc, size := a.client, a.previews, a.config.Feed.SearchPageSize
	q := api.SearchQuery{Contains: query}
	var fetch pager.FetchFunc[row]
	switch kind {
	case api.KindBlog:
		fetch = listFetch(func(ctx context.Context, p api.PageRequest) (api.ListResponse[api.Blog], error) {
			return c.SearchBlogs(ctx, q, p)
		}, "", func(b api.Blog) row { return blogRow(svc, b) })
	case api.KindUser:
		fetch = listFetch(func(ctx context.Context, p api.PageRequest) (api.ListResponse[api.User], error) {
			return c.SearchUsers(ctx, q, p)
		}, "", func(u api.User) row { return userRow(svc, u) })
	default:
		fetch = listFetch(func(ctx context.Context, p api.PageRequest) (api.ListResponse[api.Recipe], error) {
			return c.SearchRecipes(ctx, q, p)
		}, "", func(r api.Recipe) row { return recipeRow(svc, r) })
	}
	return newScreen(screenSearch, kind.Collection()+" matching "+query, fetch, size)
}

// profileScreens lists a user's recipes and blogs.
func (a *App) profileScreens(userID string) (*screen, *screen) {
	c, svc, size := a.client, a.previews, a.config.Feed.UserPageSize
	recipes := listFetch(func(ctx context.Context, p api.PageRequest) (api.ListResponse[api.Recipe], error) {
		return c.UserRecipes(ctx, userID, p)
	}, "", func(r api.Recipe) row { return recipeRow(svc, r) })
	blogs := listFetch(func(ctx context.Context, p api.PageRequest) (api.ListResponse[api.Blog], error) {
		return c.UserBlogs(ctx, userID, p)
	}, "", func(b api.Blog) row { return blogRow(svc, b) })
	return newScreen(screenUserRecipes, "recipes", recipes, size),
		newScreen(screenUserBlogs, "blogs", blogs, size)
}

// screenFor returns the list shown in view v.
func (a *App) screenFor(v View) *screen {
	switch v {
	case ViewRecipes:
		return a.screens[screenRecipes]
	case ViewBlogs:
		return a.screens[screenBlogs]
	case ViewEvents:
		return a.screens[screenEvents]
	case ViewFollowing:
		return a.screens[screenFollowing]
	case ViewSearch:
		return a.screens[screenSearch]
	case ViewUser:
		if a.profile == nil {
			return nil
		}
		return a.profile.active()
	default:
		return nil
	}
}

// current is the list under the cursor, if the view has one.
func (a *App) current() *screen {
	return a.screenFor(a.view)
}

// registered reports whether s is still mounted.
func (a *App) registered(s *screen) bool {
	if s == nil {
		return false
	}
	if a.screens[s.id] == s {
		return true
	}
	return a.profile != nil && (a.profile.recipes == s || a.profile.blogs == s)
}
