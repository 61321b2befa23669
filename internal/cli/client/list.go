package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"memeshare/internal/models"
	"memeshare/internal/resource"
)

// list fetches one page of a collection. List responses carry the items under
// the collection noun next to the pagination block:
//
//	{"templates": [...], "page": 1, "limit": 12, "total": 40, "totalPages": 4}
func list[T any](ctx context.Context, c *Client, path, noun string, q resource.Query) (resource.Page[T], error) {
	var raw map[string]json.RawMessage
	if err := c.Get(ctx, withQuery(path, q.Values()), &raw); err != nil {
		return resource.Page[T]{}, err
	}
	return decodePage[T](raw, noun, q)
}

func decodePage[T any](raw map[string]json.RawMessage, noun string, q resource.Query) (resource.Page[T], error) {
	page := resource.Page[T]{Page: q.Page, Limit: q.Limit}
	items, ok := raw[noun]
	if !ok {
		return page, fmt.Errorf("decode %s: response has no %q field", noun, noun)
	}
	if err := json.Unmarshal(items, &page.Items); err != nil {
		return page, fmt.Errorf("decode %s: %w", noun, err)
	}
	var meta models.ListMeta
	for key, dst := range map[string]*int{"page": &meta.Page, "limit": &meta.Limit, "total": &meta.Total, "totalPages": &meta.TotalPages} {
		if v, ok := raw[key]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				return page, fmt.Errorf("decode %s %s: %w", noun, key, err)
			}
		}
	}
	if meta.Page > 0 {
		page.Page = meta.Page
	}
	if meta.Limit > 0 {
		page.Limit = meta.Limit
	}
	page.Total = meta.Total
	page.TotalPages = meta.TotalPages
	if page.Total == 0 {
		page.Total = len(page.Items)
	}
	if page.TotalPages == 0 && page.Total > 0 {
		page.TotalPages = models.TotalPages(page.Total, page.Limit)
	}
	return page, nil
}

func withQuery(path string, v url.Values) string {
	if enc := v.Encode(); enc != "" {
		return path + "?" + enc
	}
	return path
}

func escape(id string) string {
	return url.PathEscape(id)
}
