package client

import (
	"context"

	"memeshare/internal/models"
)

func (c *Client) Register(ctx context.Context, in models.RegisterInput) (models.AuthResponse, error) {
	var out models.AuthResponse
	err := c.Post(ctx, "/auth/register", in, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, in models.LoginInput) (models.AuthResponse, error) {
	var out models.AuthResponse
	err := c.Post(ctx, "/auth/login", in, &out)
	return out, err
}

// Me returns the user the current token belongs to.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	err := c.Get(ctx, "/auth/me", &out)
	return out.User, err
}

// Status reports API health.
func (c *Client) Status(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.Get(ctx, "/status", &out)
	return out, err
}
