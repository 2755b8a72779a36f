package api

import (
	"context"
	"net/http"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Login exchanges credentials for a token. The caller decides whether to
// install it with SetToken.
func (c *Client) Login(ctx context.Context, req LoginRequest) (AuthResponse, error) {
	return send[AuthResponse](ctx, c, http.MethodPost, "/auth/login", req)
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (User, error) {
	return send[User](ctx, c, http.MethodPost, "/auth/register", req)
}
