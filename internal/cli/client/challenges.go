package client

import (
	"context"

	"memeshare/internal/models"
	"memeshare/internal/resource"
)

func (c *Client) ListChallenges(ctx context.Context, q resource.Query) (resource.Page[models.Challenge], error) {
	return list[models.Challenge](ctx, c, "/challenges", "challenges", q)
}

func (c *Client) GetChallenge(ctx context.Context, id string) (models.Challenge, error) {
	var out models.Challenge
	err := c.Get(ctx, "/challenges/"+escape(id), &out)
	return out, err
}

func (c *Client) CreateChallenge(ctx context.Context, in models.ChallengeInput) (models.Challenge, error) {
	var out models.Challenge
	err := c.Post(ctx, "/challenges", in, &out)
	return out, err
}

func (c *Client) UpdateChallenge(ctx context.Context, id string, in models.ChallengeInput) (models.Challenge, error) {
	var out models.Challenge
	err := c.Put(ctx, "/challenges/"+escape(id), in, &out)
	return out, err
}

func (c *Client) DeleteChallenge(ctx context.Context, id string) error {
	return c.Delete(ctx, "/challenges/"+escape(id))
}

func (c *Client) JoinChallenge(ctx context.Context, id string) (models.Challenge, error) {
	var out models.Challenge
	err := c.Post(ctx, "/challenges/"+escape(id)+"/join", nil, &out)
	return out, err
}
