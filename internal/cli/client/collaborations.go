package client

import (
	"context"

	"memeshare/internal/models"
	"memeshare/internal/resource"
)

func (c *Client) ListCollaborations(ctx context.Context, q resource.Query) (resource.Page[models.Collaboration], error) {
	return list[models.Collaboration](ctx, c, "/collaborations", "collaborations", q)
}

func (c *Client) GetCollaboration(ctx context.Context, id string) (models.Collaboration, error) {
	var out models.Collaboration
	err := c.Get(ctx, "/collaborations/"+escape(id), &out)
	return out, err
}

func (c *Client) CreateCollaboration(ctx context.Context, in models.CollaborationInput) (models.Collaboration, error) {
	var out models.Collaboration
	err := c.Post(ctx, "/collaborations", in, &out)
	return out, err
}

func (c *Client) UpdateCollaboration(ctx context.Context, id string, in models.CollaborationUpdate) (models.Collaboration, error) {
	var out models.Collaboration
	err := c.Patch(ctx, "/collaborations/"+escape(id), in, &out)
	return out, err
}

func (c *Client) DeleteCollaboration(ctx context.Context, id string) error {
	return c.Delete(ctx, "/collaborations/"+escape(id))
}

// ListInvites returns the caller's pending collaboration invites.
func (c *Client) ListInvites(ctx context.Context) ([]models.CollaborationInvite, error) {
	var out struct {
		Invites []models.CollaborationInvite `json:"invites"`
	}
	err := c.Get(ctx, "/collaborations/invites", &out)
	return out.Invites, err
}

func (c *Client) AcceptInvite(ctx context.Context, collaborationID string) error {
	return c.Post(ctx, "/collaborations/"+escape(collaborationID)+"/invite/accept", nil, nil)
}

func (c *Client) DeclineInvite(ctx context.Context, collaborationID string) error {
	return c.Post(ctx, "/collaborations/"+escape(collaborationID)+"/invite/decline", nil, nil)
}
