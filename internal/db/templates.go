package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"memeshare/internal/models"
)

const templateColumns = `
t.id, t.name, t.category, t.description, t.image_url, t.text_areas, t.is_public,
t.downloads, t.uses, t.created, t.updated,
(SELECT COUNT(1) FROM template_favorites f WHERE f.template_id = t.id),
(SELECT COALESCE(AVG(r.rating), 0) FROM template_ratings r WHERE r.template_id = t.id),
(SELECT COUNT(1) FROM template_ratings r WHERE r.template_id = t.id),
EXISTS(SELECT 1 FROM template_favorites f WHERE f.template_id = t.id AND f.user_id = ?),
u.id, u.username, u.avatar_url`

var templateOrder = map[string]string{
	"newest":    "t.created DESC",
	"popular":   "(SELECT COUNT(1) FROM template_favorites f WHERE f.template_id = t.id) DESC, t.downloads DESC",
	"most_used": "t.uses DESC",
	"top_rated": "(SELECT COALESCE(AVG(r.rating), 0) FROM template_ratings r WHERE r.template_id = t.id) DESC",
}

// CreateTemplate stores template metadata; the image has already been saved
// and imageURL points at it.
func CreateTemplate(ctx context.Context, database *sql.DB, ownerID string, in models.TemplateInput, imageURL string) (*models.Template, error) {
	areas, err := encodeTextAreas(in.TextAreas)
	if err != nil {
		return nil, err
	}
	id := newID()
	now := nowRFC3339()
	_, err = database.ExecContext(ctx, `
INSERT INTO templates (id, owner_id, name, category, description, image_url, text_areas, is_public, created, updated)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, ownerID, strings.TrimSpace(in.Name), in.Category, strings.TrimSpace(in.Description),
		imageURL, areas, boolInt(in.IsPublic), now, now)
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}
	return GetTemplate(ctx, database, id, ownerID)
}

// GetTemplate returns a template visible to viewer. Private templates of
// other users read as not found.
func GetTemplate(ctx context.Context, database *sql.DB, id, viewer string) (*models.Template, error) {
	row := database.QueryRowContext(ctx, `SELECT `+templateColumns+`
FROM templates t JOIN users u ON u.id = t.owner_id
WHERE t.id = ? AND (t.is_public = 1 OR t.owner_id = ?)`, viewer, id, viewer)
	return scanTemplate(row)
}

// ListTemplates lists public templates plus the viewer's own. Filters:
// "category" and "owner".
func ListTemplates(ctx context.Context, database *sql.DB, p ListParams) ([]models.Template, int, error) {
	return listTemplates(ctx, database, p, "")
}

// ListFavoriteTemplates lists the templates p.Viewer has favorited, most
// recently favorited first unless another sort is requested.
func ListFavoriteTemplates(ctx context.Context, database *sql.DB, p ListParams) ([]models.Template, int, error) {
	if p.Viewer == "" {
		return nil, 0, ErrForbidden
	}
	return listTemplates(ctx, database, p,
		"EXISTS(SELECT 1 FROM template_favorites mf WHERE mf.template_id = t.id AND mf.user_id = ?)")
}

func listTemplates(ctx context.Context, database *sql.DB, p ListParams, extra string) ([]models.Template, int, error) {
	p = p.normalized()
	where := []string{"(t.is_public = 1 OR t.owner_id = ?)"}
	args := []any{p.Viewer}
	if extra != "" {
		where = append(where, extra)
		args = append(args, p.Viewer)
	}
	if category := p.filter("category"); category != "" {
		where = append(where, "t.category = ?")
		args = append(args, category)
	}
	if owner := p.filter("owner"); owner != "" {
		where = append(where, "t.owner_id = ?")
		args = append(args, owner)
	}
	if p.Search != "" {
		where = append(where, "(LOWER(t.name) LIKE ? ESCAPE '\\' OR LOWER(t.description) LIKE ? ESCAPE '\\')")
		args = append(args, p.like(), p.like())
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := database.QueryRowContext(ctx, `SELECT COUNT(1) FROM templates t WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count templates: %w", err)
	}

	order, ok := templateOrder[p.Sort]
	if !ok {
		order = templateOrder["newest"]
	}
	rows, err := database.QueryContext(ctx, `SELECT `+templateColumns+`
FROM templates t JOIN users u ON u.id = t.owner_id
WHERE `+clause+`
ORDER BY `+order+`, t.created DESC, t.id
LIMIT ? OFFSET ?`, append(append([]any{p.Viewer}, args...), p.Limit, p.offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	out := make([]models.Template, 0, p.Limit)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *t)
	}
	return out, total, rows.Err()
}

// UpdateTemplate applies the non-nil fields of in. Only the owner may update.
func UpdateTemplate(ctx context.Context, database *sql.DB, id, ownerID string, in models.TemplateUpdate) (*models.Template, error) {
	if err := checkOwner(ctx, database, "templates", id, ownerID); err != nil {
		return nil, err
	}
	sets := []string{"updated = ?"}
	args := []any{nowRFC3339()}
	if in.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, strings.TrimSpace(*in.Name))
	}
	if in.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *in.Category)
	}
	if in.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, strings.TrimSpace(*in.Description))
	}
	if in.TextAreas != nil {
		areas, err := encodeTextAreas(*in.TextAreas)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "text_areas = ?")
		args = append(args, areas)
	}
	if in.IsPublic != nil {
		sets = append(sets, "is_public = ?")
		args = append(args, boolInt(*in.IsPublic))
	}
	args = append(args, id)
	if _, err := database.ExecContext(ctx, `UPDATE templates SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return GetTemplate(ctx, database, id, ownerID)
}

// DeleteTemplate removes the template and returns its image URL so the
// caller can drop the stored file.
func DeleteTemplate(ctx context.Context, database *sql.DB, id, ownerID string) (string, error) {
	var imageURL string
	if err := database.QueryRowContext(ctx, `SELECT image_url FROM templates WHERE id = ?`, id).Scan(&imageURL); err != nil {
		return "", notFound(err)
	}
	if err := deleteOwned(ctx, database, "templates", id, ownerID); err != nil {
		return "", err
	}
	return imageURL, nil
}

// SetTemplateFavorite adds or removes the favorite mark. Both directions are
// idempotent.
func SetTemplateFavorite(ctx context.Context, database *sql.DB, id, userID string, favorite bool) error {
	if _, err := GetTemplate(ctx, database, id, userID); err != nil {
		return err
	}
	var err error
	if favorite {
		_, err = database.ExecContext(ctx, `
INSERT INTO template_favorites (template_id, user_id, created) VALUES (?, ?, ?)
ON CONFLICT(template_id, user_id) DO NOTHING`, id, userID, nowRFC3339())
	} else {
		_, err = database.ExecContext(ctx,
			`DELETE FROM template_favorites WHERE template_id = ? AND user_id = ?`, id, userID)
	}
	return err
}

// CountTemplateUsage increments the downloads or uses counter.
func CountTemplateUsage(ctx context.Context, database *sql.DB, id, viewer, counter string) (*models.Template, error) {
	if counter != "downloads" && counter != "uses" {
		return nil, fmt.Errorf("unknown template counter %q", counter)
	}
	if _, err := GetTemplate(ctx, database, id, viewer); err != nil {
		return nil, err
	}
	if _, err := database.ExecContext(ctx,
		`UPDATE templates SET `+counter+` = `+counter+` + 1 WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return GetTemplate(ctx, database, id, viewer)
}

// RateTemplate records userID's rating, replacing any earlier one.
func RateTemplate(ctx context.Context, database *sql.DB, id, userID string, rating int) (*models.Template, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5")
	}
	if _, err := GetTemplate(ctx, database, id, userID); err != nil {
		return nil, err
	}
	_, err := database.ExecContext(ctx, `
INSERT INTO template_ratings (template_id, user_id, rating, created) VALUES (?, ?, ?, ?)
ON CONFLICT(template_id, user_id) DO UPDATE SET rating = excluded.rating`,
		id, userID, rating, nowRFC3339())
	if err != nil {
		return nil, err
	}
	return GetTemplate(ctx, database, id, userID)
}

func encodeTextAreas(areas []models.TextArea) (string, error) {
	if areas == nil {
		areas = []models.TextArea{}
	}
	b, err := json.Marshal(areas)
	if err != nil {
		return "", fmt.Errorf("encode text areas: %w", err)
	}
	return string(b), nil
}

func scanTemplate(row scanner) (*models.Template, error) {
	var (
		t                 models.Template
		areas             string
		public, favorited bool
		ownerID, username string
		avatar            sql.NullString
	)
	err := row.Scan(&t.ID, &t.Name, &t.Category, &t.Description, &t.ImageURL, &areas, &public,
		&t.Stats.Downloads, &t.Stats.Uses, &t.Created, &t.Updated,
		&t.Stats.Favorites, &t.Stats.Rating, &t.Stats.RatingCount, &favorited,
		&ownerID, &username, &avatar)
	if err != nil {
		return nil, notFound(err)
	}
	if err := json.Unmarshal([]byte(areas), &t.TextAreas); err != nil {
		return nil, fmt.Errorf("decode text areas of %s: %w", t.ID, err)
	}
	t.IsPublic = public
	t.IsFavorited = favorited
	t.Owner = owner(ownerID, username, avatar)
	return &t, nil
}
