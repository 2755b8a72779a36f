package api

import (
	"context"
	"net/url"
)

// SearchQuery filters a search endpoint. Contains is matched against the
// header for posts and the username for users.
type SearchQuery struct {
	Contains  string
	SortBy    string
	SortOrder string
}

func (s SearchQuery) apply(q url.Values, containsParam string) url.Values {
	if s.Contains != "" {
		q.Set(containsParam, s.Contains)
	}
	if s.SortBy != "" {
		q.Set("SortBy", s.SortBy)
	}
	if s.SortOrder != "" {
		q.Set("SortOrder", s.SortOrder)
	}
	return q
}

func (c *Client) RecipeFeed(ctx context.Context, page PageRequest) (ListResponse[Recipe], error) {
	return list[Recipe](ctx, c, "/feed/recipe", page.values())
}

func (c *Client) BlogFeed(ctx context.Context, page PageRequest) (ListResponse[Blog], error) {
	return list[Blog](ctx, c, "/feed/blog", page.values())
}

// FollowedRecipeFeed lists recipes by users the viewer follows. Requires a token.
func (c *Client) FollowedRecipeFeed(ctx context.Context, page PageRequest) (ListResponse[Recipe], error) {
	return list[Recipe](ctx, c, "/feed/recipe/followed", page.values())
}

// FollowedBlogFeed lists blogs by users the viewer follows. Requires a token.
func (c *Client) FollowedBlogFeed(ctx context.Context, page PageRequest) (ListResponse[Blog], error) {
	return list[Blog](ctx, c, "/feed/blog/followed", page.values())
}

func (c *Client) SearchRecipes(ctx context.Context, query SearchQuery, page PageRequest) (ListResponse[Recipe], error) {
	return list[Recipe](ctx, c, "/recipes/search", query.apply(page.values(), "HeaderContains"))
}

func (c *Client) SearchBlogs(ctx context.Context, query SearchQuery, page PageRequest) (ListResponse[Blog], error) {
	return list[Blog](ctx, c, "/blogs/search", query.apply(page.values(), "HeaderContains"))
}

func (c *Client) SearchUsers(ctx context.Context, query SearchQuery, page PageRequest) (ListResponse[User], error) {
	return list[User](ctx, c, "/users/search", query.apply(page.values(), "UsernameContains"))
}

func (c *Client) Events(ctx context.Context, page PageRequest) (ListResponse[Event], error) {
	return list[Event](ctx, c, "/events", page.values())
}
