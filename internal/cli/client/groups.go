package client

import (
	"context"

	"memeshare/internal/models"
	"memeshare/internal/resource"
)

func (c *Client) ListGroups(ctx context.Context, q resource.Query) (resource.Page[models.Group], error) {
	return list[models.Group](ctx, c, "/groups", "groups", q)
}

func (c *Client) GetGroup(ctx context.Context, id string) (models.Group, error) {
	var out models.Group
	err := c.Get(ctx, "/groups/"+escape(id), &out)
	return out, err
}

func (c *Client) CreateGroup(ctx context.Context, in models.GroupInput) (models.Group, error) {
	var out models.Group
	err := c.Post(ctx, "/groups", in, &out)
	return out, err
}

func (c *Client) UpdateGroup(ctx context.Context, id string, in models.GroupInput) (models.Group, error) {
	var out models.Group
	err := c.Put(ctx, "/groups/"+escape(id), in, &out)
	return out, err
}

func (c *Client) DeleteGroup(ctx context.Context, id string) error {
	return c.Delete(ctx, "/groups/"+escape(id))
}

func (c *Client) JoinGroup(ctx context.Context, id string) (models.Group, error) {
	var out models.Group
	err := c.Post(ctx, "/groups/"+escape(id)+"/join", nil, &out)
	return out, err
}

func (c *Client) LeaveGroup(ctx context.Context, id string) (models.Group, error) {
	var out models.Group
	err := c.Post(ctx, "/groups/"+escape(id)+"/leave", nil, &out)
	return out, err
}
