package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"memeshare/internal/models"
)

type SearchParams struct {
	Query string
	// Kind restricts hits to one of models.SearchKinds; empty searches all.
	Kind  string
	Limit int
}

// searchSources maps each kind to a query over its public rows. Every
// query takes the LIKE pattern twice.
var searchSources = map[string]string{
	models.KindMeme: `
SELECT 'meme', m.id, m.title, '', u.username, m.created
FROM memes m JOIN users u ON u.id = m.owner_id
WHERE LOWER(m.title) LIKE ? ESCAPE '\' OR LOWER(u.username) LIKE ? ESCAPE '\'`,
	models.KindTemplate: `
SELECT 'template', t.id, t.name, t.category, u.username, t.created
FROM templates t JOIN users u ON u.id = t.owner_id
WHERE t.is_public = 1 AND (LOWER(t.name) LIKE ? ESCAPE '\' OR LOWER(t.description) LIKE ? ESCAPE '\')`,
	models.KindGroup: `
SELECT 'group', g.id, g.name, g.category, u.username, g.created
FROM meme_groups g JOIN users u ON u.id = g.owner_id
WHERE g.is_private = 0 AND (LOWER(g.name) LIKE ? ESCAPE '\' OR LOWER(g.description) LIKE ? ESCAPE '\')`,
	models.KindChallenge: `
SELECT 'challenge', c.id, c.title, c.category, u.username, c.created
FROM challenges c JOIN users u ON u.id = c.owner_id
WHERE LOWER(c.title) LIKE ? ESCAPE '\' OR LOWER(c.description) LIKE ? ESCAPE '\'`,
}

// SearchCatalog matches public memes, templates, groups and challenges by
// name, newest first.
func SearchCatalog(ctx context.Context, database *sql.DB, params SearchParams) ([]models.SearchHit, error) {
	q := strings.ToLower(strings.TrimSpace(params.Query))
	if q == "" {
		return nil, fmt.Errorf("search query is required")
	}
	limit := params.Limit
	if limit <= 0 || limit > MaxPageLimit {
		limit = 20
	}
	kinds := models.SearchKinds
	if params.Kind != "" {
		if _, ok := searchSources[params.Kind]; !ok {
			return nil, fmt.Errorf("unknown search kind %q", params.Kind)
		}
		kinds = []string{params.Kind}
	}

	pattern := likePattern(q)
	parts := make([]string, 0, len(kinds))
	args := make([]any, 0, 2*len(kinds)+1)
	for _, kind := range kinds {
		parts = append(parts, searchSources[kind])
		args = append(args, pattern, pattern)
	}
	query := `SELECT * FROM (` + strings.Join(parts, "\nUNION ALL\n") + `) ORDER BY created DESC LIMIT ?`
	args = append(args, limit)

	rows, err := database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.SearchHit, 0)
	for rows.Next() {
		var h models.SearchHit
		if err := rows.Scan(&h.Kind, &h.ID, &h.Title, &h.Category, &h.Owner, &h.Created); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
