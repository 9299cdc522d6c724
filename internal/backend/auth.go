package backend

import (
	"context"
	"net/http"

	"github.com/frahmantamala/expense-console/internal/core/user"
)

func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login/", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register/", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout/", token, nil, nil)
}

func (c *Client) Profile(ctx context.Context, token string) (*user.Profile, error) {
	var profile user.Profile
	if err := c.do(ctx, http.MethodGet, "/profile/", token, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
