package client

import (
	"context"

	"memeshare/internal/models"
	"memeshare/internal/resource"
)

// ListComments lists top-level comments; filter by meme with the "memeId"
// query filter.
func (c *Client) ListComments(ctx context.Context, q resource.Query) (resource.Page[models.Comment], error) {
	return list[models.Comment](ctx, c, "/comments", "comments", q)
}

// ListReplies pages through the replies to one comment.
func (c *Client) ListReplies(ctx context.Context, commentID string, q resource.Query) (resource.Page[models.Comment], error) {
	return list[models.Comment](ctx, c, "/comments/"+escape(commentID)+"/replies", "comments", q)
}

func (c *Client) GetComment(ctx context.Context, id string) (models.Comment, error) {
	var out models.Comment
	err := c.Get(ctx, "/comments/"+escape(id), &out)
	return out, err
}

func (c *Client) CreateComment(ctx context.Context, in models.CommentInput) (models.Comment, error) {
	var out models.Comment
	err := c.Post(ctx, "/comments", in, &out)
	return out, err
}

func (c *Client) UpdateComment(ctx context.Context, id, content string) (models.Comment, error) {
	var out models.Comment
	err := c.Put(ctx, "/comments/"+escape(id), map[string]string{"content": content}, &out)
	return out, err
}

func (c *Client) DeleteComment(ctx context.Context, id string) error {
	return c.Delete(ctx, "/comments/"+escape(id))
}

// LikeComment toggles the caller's like and returns the updated comment.
func (c *Client) LikeComment(ctx context.Context, id string) (models.Comment, error) {
	var out models.Comment
	err := c.Post(ctx, "/comments/"+escape(id)+"/like", nil, &out)
	return out, err
}

func (c *Client) ReportComment(ctx context.Context, id string, in models.ReportInput) (models.CommentReport, error) {
	var out models.CommentReport
	err := c.Post(ctx, "/comments/"+escape(id)+"/report", in, &out)
	return out, err
}
