package client

import (
	"context"

	"memeshare/internal/models"
	"memeshare/internal/resource"
)

func (c *Client) ListMemes(ctx context.Context, q resource.Query) (resource.Page[models.Meme], error) {
	return list[models.Meme](ctx, c, "/memes", "memes", q)
}

func (c *Client) GetMeme(ctx context.Context, id string) (models.Meme, error) {
	var out models.Meme
	err := c.Get(ctx, "/memes/"+escape(id), &out)
	return out, err
}

func (c *Client) CreateMeme(ctx context.Context, in models.MemeInput) (models.Meme, error) {
	var out models.Meme
	err := c.Post(ctx, "/memes", in, &out)
	return out, err
}

func (c *Client) DeleteMeme(ctx context.Context, id string) error {
	return c.Delete(ctx, "/memes/"+escape(id))
}

// LikeMeme toggles the caller's like and returns the updated meme.
func (c *Client) LikeMeme(ctx context.Context, id string) (models.Meme, error) {
	var out models.Meme
	err := c.Post(ctx, "/memes/"+escape(id)+"/like", nil, &out)
	return out, err
}
