package api

import (
	"context"
	"net/http"
)

func (c *Client) GetUser(ctx context.Context, id string) (User, error) {
	return get[User](ctx, c, itemPath(KindUser, id))
}

func (c *Client) Followers(ctx context.Context, userID string, page PageRequest) (ListResponse[User], error) {
	return list[User](ctx, c, itemPath(KindUser, userID, "followers"), page.values())
}

func (c *Client) Following(ctx context.Context, userID string, page PageRequest) (ListResponse[User], error) {
	return list[User](ctx, c, itemPath(KindUser, userID, "following"), page.values())
}

func (c *Client) UserRecipes(ctx context.Context, userID string, page PageRequest) (ListResponse[Recipe], error) {
	return list[Recipe](ctx, c, itemPath(KindUser, userID, "recipes"), page.values())
}

func (c *Client) UserBlogs(ctx context.Context, userID string, page PageRequest) (ListResponse[Blog], error) {
	return list[Blog](ctx, c, itemPath(KindUser, userID, "blogs"), page.values())
}

func (c *Client) ProfilePicture(ctx context.Context, userID string) (Image, error) {
	data, contentType, err := c.getBytes(ctx, itemPath(KindUser, userID, "profile-picture"))
	if err != nil {
		return Image{}, err
	}
	return Image{Data: data, ContentType: contentType}, nil
}

func (c *Client) UserBanner(ctx context.Context, userID string) (Image, error) {
	data, contentType, err := c.getBytes(ctx, itemPath(KindUser, userID, "banner"))
	if err != nil {
		return Image{}, err
	}
	return Image{Data: data, ContentType: contentType}, nil
}

// Ban is restricted to admins.
func (c *Client) Ban(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodPost, itemPath(KindUser, userID, "ban"), nil, nil, nil)
}
