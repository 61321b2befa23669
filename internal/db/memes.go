package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"memeshare/internal/models"
)

const memeColumns = `
m.id, m.title, m.image_url, m.views, m.created,
(SELECT COUNT(1) FROM meme_likes l WHERE l.meme_id = m.id),
EXISTS(SELECT 1 FROM meme_likes l WHERE l.meme_id = m.id AND l.user_id = ?),
u.id, u.username, u.avatar_url`

var memeOrder = map[string]string{
	"newest":   "m.created DESC",
	"popular":  "(SELECT COUNT(1) FROM meme_likes l WHERE l.meme_id = m.id) DESC, m.created DESC",
	"trending": "(SELECT COUNT(1) FROM meme_likes l WHERE l.meme_id = m.id AND l.created >= datetime('now', '-7 days')) DESC, m.views DESC, m.created DESC",
}

func CreateMeme(ctx context.Context, database *sql.DB, ownerID string, in models.MemeInput) (*models.Meme, error) {
	id := newID()
	_, err := database.ExecContext(ctx, `
INSERT INTO memes (id, owner_id, title, image_url, views, created)
VALUES (?, ?, ?, ?, 0, ?)`,
		id, ownerID, strings.TrimSpace(in.Title), strings.TrimSpace(in.ImageURL), nowRFC3339())
	if err != nil {
		return nil, fmt.Errorf("insert meme: %w", err)
	}
	return GetMeme(ctx, database, id, ownerID)
}

func GetMeme(ctx context.Context, database *sql.DB, id, viewer string) (*models.Meme, error) {
	row := database.QueryRowContext(ctx, `SELECT `+memeColumns+`
FROM memes m JOIN users u ON u.id = m.owner_id
WHERE m.id = ?`, viewer, id)
	return scanMeme(row)
}

// ViewMeme bumps the view counter and returns the meme.
func ViewMeme(ctx context.Context, database *sql.DB, id, viewer string) (*models.Meme, error) {
	res, err := database.ExecContext(ctx, `UPDATE memes SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return GetMeme(ctx, database, id, viewer)
}

// ListMemes supports the "owner" filter (a user id) and title search.
func ListMemes(ctx context.Context, database *sql.DB, p ListParams) ([]models.Meme, int, error) {
	p = p.normalized()
	where := []string{"1 = 1"}
	args := []any{}
	if owner := p.filter("owner"); owner != "" {
		where = append(where, "m.owner_id = ?")
		args = append(args, owner)
	}
	if p.Search != "" {
		where = append(where, "LOWER(m.title) LIKE ? ESCAPE '\\'")
		args = append(args, p.like())
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := database.QueryRowContext(ctx, `SELECT COUNT(1) FROM memes m WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count memes: %w", err)
	}

	order, ok := memeOrder[p.Sort]
	if !ok {
		order = memeOrder["newest"]
	}
	query := `SELECT ` + memeColumns + `
FROM memes m JOIN users u ON u.id = m.owner_id
WHERE ` + clause + `
ORDER BY ` + order + `, m.id
LIMIT ? OFFSET ?`
	rows, err := database.QueryContext(ctx, query, append(append([]any{p.Viewer}, args...), p.Limit, p.offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list memes: %w", err)
	}
	defer rows.Close()

	out := make([]models.Meme, 0, p.Limit)
	for rows.Next() {
		m, err := scanMeme(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *m)
	}
	return out, total, rows.Err()
}

// DeleteMeme removes a meme owned by ownerID.
func DeleteMeme(ctx context.Context, database *sql.DB, id, ownerID string) error {
	return deleteOwned(ctx, database, "memes", id, ownerID)
}

// ToggleMemeLike likes the meme for userID, or removes an existing like.
func ToggleMemeLike(ctx context.Context, database *sql.DB, id, userID string) (*models.Meme, error) {
	if err := toggle(ctx, database, "meme_likes", "meme_id", "memes", id, userID); err != nil {
		return nil, err
	}
	return GetMeme(ctx, database, id, userID)
}

func scanMeme(row scanner) (*models.Meme, error) {
	var (
		m                 models.Meme
		liked             bool
		ownerID, username string
		avatar            sql.NullString
	)
	err := row.Scan(&m.ID, &m.Title, &m.ImageURL, &m.Stats.Views, &m.Created,
		&m.Stats.Likes, &liked, &ownerID, &username, &avatar)
	if err != nil {
		return nil, notFound(err)
	}
	m.IsLiked = liked
	m.Owner = owner(ownerID, username, avatar)
	return &m, nil
}

// deleteOwned deletes a row from table by id when owner_id matches. It
// reports ErrNotFound for a missing row and ErrForbidden for someone else's.
func deleteOwned(ctx context.Context, database *sql.DB, table, id, ownerID string) error {
	if err := checkOwner(ctx, database, table, id, ownerID); err != nil {
		return err
	}
	_, err := database.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	return err
}

func checkOwner(ctx context.Context, database *sql.DB, table, id, ownerID string) error {
	var current string
	err := database.QueryRowContext(ctx, `SELECT owner_id FROM `+table+` WHERE id = ?`, id).Scan(&current)
	if err != nil {
		return notFound(err)
	}
	if current != ownerID {
		return ErrForbidden
	}
	return nil
}

// toggle flips membership of (id, userID) in a join table whose parent lives
// in parentTable.
func toggle(ctx context.Context, database *sql.DB, table, column, parentTable, id, userID string) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM `+parentTable+` WHERE id = ?`, id).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE `+column+` = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO `+table+` (`+column+`, user_id, created) VALUES (?, ?, ?)`,
			id, userID, nowRFC3339()); err != nil {
			return err
		}
	}
	return tx.Commit()
}
