package api

import (
	"context"
	"net/http"
	"net/url"
)

// Image is a binary resource such as a banner or profile picture.
type Image struct {
	Data        []byte
	ContentType string
}

// Banner fetches the banner image of a recipe, blog or event.
// A missing banner is reported as a 404 *Error.
func (c *Client) Banner(ctx context.Context, kind Kind, id string) (Image, error) {
	data, contentType, err := c.getBytes(ctx, itemPath(kind, id, "banner"))
	if err != nil {
		return Image{}, err
	}
	return Image{Data: data, ContentType: contentType}, nil
}

func (c *Client) IsLiked(ctx context.Context, kind Kind, id string) (bool, error) {
	return get[bool](ctx, c, itemPath(kind, id, "is-liked"))
}

func (c *Client) IsBookmarked(ctx context.Context, kind Kind, id string) (bool, error) {
	return get[bool](ctx, c, itemPath(kind, id, "is-bookmarked"))
}

func (c *Client) LikeCount(ctx context.Context, kind Kind, id string) (int, error) {
	return get[int](ctx, c, itemPath(kind, id, "like-count"))
}

func (c *Client) Comments(ctx context.Context, kind Kind, id string, page PageRequest) (ListResponse[Comment], error) {
	return list[Comment](ctx, c, itemPath(kind, id, "comments"), page.values())
}

func (c *Client) EventParticipants(ctx context.Context, eventID string, page PageRequest) (ListResponse[User], error) {
	return list[User](ctx, c, itemPath(KindEvent, eventID, "participants"), page.values())
}

func (c *Client) ToggleLike(ctx context.Context, kind Kind, id string) error {
	return c.do(ctx, http.MethodPost, itemPath(kind, id, "toggle-like"), nil, nil, nil)
}

func (c *Client) ToggleBookmark(ctx context.Context, kind Kind, id string) error {
	return c.do(ctx, http.MethodPost, itemPath(kind, id, "bookmark"), nil, nil, nil)
}

func targetUser(userID string) url.Values {
	return url.Values{"targetUserId": {userID}}
}

func (c *Client) Follow(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodPost, "/users/follow", targetUser(userID), nil, nil)
}

func (c *Client) Unfollow(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/users/unfollow", targetUser(userID), nil, nil)
}

func (c *Client) IsFollowing(ctx context.Context, userID string) (bool, error) {
	var following bool
	err := c.do(ctx, http.MethodGet, "/users/follow", targetUser(userID), nil, &following)
	return following, err
}
