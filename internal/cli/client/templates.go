package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"memeshare/internal/models"
	"memeshare/internal/resource"
)

func (c *Client) ListTemplates(ctx context.Context, q resource.Query) (resource.Page[models.Template], error) {
	return list[models.Template](ctx, c, "/templates", "templates", q)
}

// ListFavoriteTemplates lists the templates the current user has favorited.
func (c *Client) ListFavoriteTemplates(ctx context.Context, q resource.Query) (resource.Page[models.Template], error) {
	return list[models.Template](ctx, c, "/templates/favorites", "templates", q)
}

func (c *Client) GetTemplate(ctx context.Context, id string) (models.Template, error) {
	var out models.Template
	err := c.Get(ctx, "/templates/"+escape(id), &out)
	return out, err
}

// CreateTemplate uploads a template image with its metadata as a multipart
// form. textAreas travels as a JSON string and isPublic as "true"/"false".
func (c *Client) CreateTemplate(ctx context.Context, in models.TemplateInput, filename string, image io.Reader) (models.Template, error) {
	var out models.Template
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	part, err := mw.CreateFormFile("image", filepath.Base(filename))
	if err != nil {
		return out, err
	}
	if _, err := io.Copy(part, image); err != nil {
		return out, fmt.Errorf("read image: %w", err)
	}
	areas := in.TextAreas
	if areas == nil {
		areas = []models.TextArea{}
	}
	textAreas, err := json.Marshal(areas)
	if err != nil {
		return out, err
	}
	fields := [][2]string{
		{"name", in.Name},
		{"category", in.Category},
		{"description", in.Description},
		{"textAreas", string(textAreas)},
		{"isPublic", strconv.FormatBool(in.IsPublic)},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return out, err
		}
	}
	if err := mw.Close(); err != nil {
		return out, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/templates", body)
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	err = c.exchange(req, &out)
	return out, err
}

func (c *Client) UpdateTemplate(ctx context.Context, id string, in models.TemplateUpdate) (models.Template, error) {
	var out models.Template
	err := c.Patch(ctx, "/templates/"+escape(id), in, &out)
	return out, err
}

func (c *Client) DeleteTemplate(ctx context.Context, id string) error {
	return c.Delete(ctx, "/templates/"+escape(id))
}

func (c *Client) FavoriteTemplate(ctx context.Context, id string) error {
	return c.Post(ctx, "/templates/"+escape(id)+"/favorite", nil, nil)
}

func (c *Client) UnfavoriteTemplate(ctx context.Context, id string) error {
	return c.Delete(ctx, "/templates/"+escape(id)+"/favorite")
}

// DownloadTemplate records a download and returns the template with its
// updated counters; the image itself is fetched with Download.
func (c *Client) DownloadTemplate(ctx context.Context, id string) (models.Template, error) {
	var out models.Template
	err := c.Post(ctx, "/templates/"+escape(id)+"/download", nil, &out)
	return out, err
}

func (c *Client) UseTemplate(ctx context.Context, id string) (models.Template, error) {
	var out models.Template
	err := c.Post(ctx, "/templates/"+escape(id)+"/use", nil, &out)
	return out, err
}

// RateTemplate records a 1-5 rating; rating again replaces the caller's
// previous rating.
func (c *Client) RateTemplate(ctx context.Context, id string, rating int) (models.Template, error) {
	var out models.Template
	err := c.Post(ctx, "/templates/"+escape(id)+"/rate", models.RateInput{Rating: rating}, &out)
	return out, err
}
