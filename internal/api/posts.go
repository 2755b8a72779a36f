package api

import (
	"context"
	"net/http"
	"time"
)

type RecipeRequest struct {
	Header          string       `json:"header"`
	BodyText        string       `json:"bodyText"`
	Ingredients     []Ingredient `json:"ingredients"`
	PreparationTime int          `json:"preparationTime"`
	Servings        int          `json:"servings"`
	Tags            []string     `json:"tags,omitempty"`
}

type BlogRequest struct {
	Header   string `json:"header"`
	BodyText string `json:"bodyText"`
}

type EventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
}

func get[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	err := c.do(ctx, http.MethodGet, path, nil, nil, &out)
	return out, err
}

func send[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var out T
	err := c.do(ctx, method, path, nil, body, &out)
	return out, err
}

func (c *Client) GetRecipe(ctx context.Context, id string) (Recipe, error) {
	return get[Recipe](ctx, c, itemPath(KindRecipe, id))
}

func (c *Client) CreateRecipe(ctx context.Context, req RecipeRequest) (Recipe, error) {
	return send[Recipe](ctx, c, http.MethodPost, "/recipes", req)
}

func (c *Client) UpdateRecipe(ctx context.Context, id string, req RecipeRequest) (Recipe, error) {
	return send[Recipe](ctx, c, http.MethodPut, itemPath(KindRecipe, id), req)
}

func (c *Client) DeleteRecipe(ctx context.Context, id string) error {
	return c.Delete(ctx, KindRecipe, id)
}

func (c *Client) GetBlog(ctx context.Context, id string) (Blog, error) {
	return get[Blog](ctx, c, itemPath(KindBlog, id))
}

func (c *Client) CreateBlog(ctx context.Context, req BlogRequest) (Blog, error) {
	return send[Blog](ctx, c, http.MethodPost, "/blogs", req)
}

func (c *Client) UpdateBlog(ctx context.Context, id string, req BlogRequest) (Blog, error) {
	return send[Blog](ctx, c, http.MethodPut, itemPath(KindBlog, id), req)
}

func (c *Client) DeleteBlog(ctx context.Context, id string) error {
	return c.Delete(ctx, KindBlog, id)
}

func (c *Client) GetEvent(ctx context.Context, id string) (Event, error) {
	return get[Event](ctx, c, itemPath(KindEvent, id))
}

func (c *Client) CreateEvent(ctx context.Context, req EventRequest) (Event, error) {
	return send[Event](ctx, c, http.MethodPost, "/events", req)
}

func (c *Client) UpdateEvent(ctx context.Context, id string, req EventRequest) (Event, error) {
	return send[Event](ctx, c, http.MethodPut, itemPath(KindEvent, id), req)
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.Delete(ctx, KindEvent, id)
}

// Delete removes a recipe, blog or event by kind.
func (c *Client) Delete(ctx context.Context, kind Kind, id string) error {
	return c.do(ctx, http.MethodDelete, itemPath(kind, id), nil, nil, nil)
}
