package client

import (
	"context"

	"memeshare/internal/models"
	"memeshare/internal/resource"
)

func (c *Client) ListFolders(ctx context.Context, q resource.Query) (resource.Page[models.Folder], error) {
	return list[models.Folder](ctx, c, "/folders", "folders", q)
}

// GetFolder returns the folder with its memes embedded.
func (c *Client) GetFolder(ctx context.Context, id string) (models.Folder, error) {
	var out models.Folder
	err := c.Get(ctx, "/folders/"+escape(id), &out)
	return out, err
}

func (c *Client) CreateFolder(ctx context.Context, in models.FolderInput) (models.Folder, error) {
	var out models.Folder
	err := c.Post(ctx, "/folders", in, &out)
	return out, err
}

func (c *Client) UpdateFolder(ctx context.Context, id string, in models.FolderUpdate) (models.Folder, error) {
	var out models.Folder
	err := c.Patch(ctx, "/folders/"+escape(id), in, &out)
	return out, err
}

func (c *Client) DeleteFolder(ctx context.Context, id string) error {
	return c.Delete(ctx, "/folders/"+escape(id))
}

// AddMemesToFolder adds memeIDs to the folder in one call. Memes already in
// the folder are ignored by the server.
func (c *Client) AddMemesToFolder(ctx context.Context, folderID string, memeIDs []string) (models.Folder, error) {
	var out models.Folder
	err := c.Post(ctx, "/folders/"+escape(folderID)+"/memes", models.AddMemesInput{MemeIDs: memeIDs}, &out)
	return out, err
}

func (c *Client) RemoveMemeFromFolder(ctx context.Context, folderID, memeID string) error {
	return c.Delete(ctx, "/folders/"+escape(folderID)+"/memes/"+escape(memeID))
}
