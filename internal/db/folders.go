package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"memeshare/internal/models"
)

const folderColumns = `
f.id, f.name, f.color, f.icon, f.description, f.is_private, f.created, f.updated,
(SELECT COUNT(1) FROM folder_memes fm WHERE fm.folder_id = f.id),
u.id, u.username, u.avatar_url`

var folderOrder = map[string]string{
	"newest":  "f.created DESC",
	"name":    "LOWER(f.name) ASC",
	"updated": "f.updated DESC",
}

func CreateFolder(ctx context.Context, database *sql.DB, ownerID string, in models.FolderInput) (*models.Folder, error) {
	id := newID()
	now := nowRFC3339()
	_, err := database.ExecContext(ctx, `
INSERT INTO folders (id, owner_id, name, color, icon, description, is_private, created, updated)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, ownerID, strings.TrimSpace(in.Name), in.Color, in.Icon, strings.TrimSpace(in.Description),
		boolInt(in.IsPrivate), now, now)
	if err != nil {
		return nil, fmt.Errorf("insert folder: %w", err)
	}
	return GetFolder(ctx, database, id, ownerID)
}

// GetFolder returns the folder with its memes, newest addition first.
// Private folders are only visible to their owner.
func GetFolder(ctx context.Context, database *sql.DB, id, viewer string) (*models.Folder, error) {
	row := database.QueryRowContext(ctx, `SELECT `+folderColumns+`
FROM folders f JOIN users u ON u.id = f.owner_id
WHERE f.id = ? AND (f.is_private = 0 OR f.owner_id = ?)`, id, viewer)
	f, err := scanFolder(row)
	if err != nil {
		return nil, err
	}

	rows, err := database.QueryContext(ctx, `SELECT `+memeColumns+`
FROM folder_memes fm
JOIN memes m ON m.id = fm.meme_id
JOIN users u ON u.id = m.owner_id
WHERE fm.folder_id = ?
ORDER BY fm.added DESC, m.id`, viewer, id)
	if err != nil {
		return nil, fmt.Errorf("folder memes: %w", err)
	}
	defer rows.Close()
	f.Memes = []models.Meme{}
	for rows.Next() {
		m, err := scanMeme(rows)
		if err != nil {
			return nil, err
		}
		f.Memes = append(f.Memes, *m)
	}
	return f, rows.Err()
}

// ListFolders lists the viewer's own folders.
func ListFolders(ctx context.Context, database *sql.DB, p ListParams) ([]models.Folder, int, error) {
	p = p.normalized()
	where := []string{"f.owner_id = ?"}
	args := []any{p.Viewer}
	if p.Search != "" {
		where = append(where, "(LOWER(f.name) LIKE ? ESCAPE '\\' OR LOWER(f.description) LIKE ? ESCAPE '\\')")
		args = append(args, p.like(), p.like())
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := database.QueryRowContext(ctx, `SELECT COUNT(1) FROM folders f WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count folders: %w", err)
	}
	order, ok := folderOrder[p.Sort]
	if !ok {
		order = folderOrder["newest"]
	}
	rows, err := database.QueryContext(ctx, `SELECT `+folderColumns+`
FROM folders f JOIN users u ON u.id = f.owner_id
WHERE `+clause+`
ORDER BY `+order+`, f.id
LIMIT ? OFFSET ?`, append(args, p.Limit, p.offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	out := make([]models.Folder, 0, p.Limit)
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *f)
	}
	return out, total, rows.Err()
}

func UpdateFolder(ctx context.Context, database *sql.DB, id, ownerID string, in models.FolderUpdate) (*models.Folder, error) {
	if err := checkOwner(ctx, database, "folders", id, ownerID); err != nil {
		return nil, err
	}
	sets := []string{"updated = ?"}
	args := []any{nowRFC3339()}
	if in.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, strings.TrimSpace(*in.Name))
	}
	if in.Color != nil {
		sets = append(sets, "color = ?")
		args = append(args, *in.Color)
	}
	if in.Icon != nil {
		sets = append(sets, "icon = ?")
		args = append(args, *in.Icon)
	}
	if in.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, strings.TrimSpace(*in.Description))
	}
	if in.IsPrivate != nil {
		sets = append(sets, "is_private = ?")
		args = append(args, boolInt(*in.IsPrivate))
	}
	args = append(args, id)
	if _, err := database.ExecContext(ctx, `UPDATE folders SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
		return nil, fmt.Errorf("update folder: %w", err)
	}
	return GetFolder(ctx, database, id, ownerID)
}

func DeleteFolder(ctx context.Context, database *sql.DB, id, ownerID string) error {
	return deleteOwned(ctx, database, "folders", id, ownerID)
}

// AddMemesToFolder adds every listed meme in one transaction. Memes already
// in the folder are skipped; an unknown meme id fails the whole batch.
func AddMemesToFolder(ctx context.Context, database *sql.DB, id, ownerID string, memeIDs []string) (*models.Folder, error) {
	if err := checkOwner(ctx, database, "folders", id, ownerID); err != nil {
		return nil, err
	}
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := nowRFC3339()
	for _, memeID := range memeIDs {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM memes WHERE id = ?`, memeID).Scan(&n); err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, fmt.Errorf("meme %s: %w", memeID, ErrNotFound)
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO folder_memes (folder_id, meme_id, added) VALUES (?, ?, ?)
ON CONFLICT(folder_id, meme_id) DO NOTHING`, id, memeID, now); err != nil {
			return nil, fmt.Errorf("add meme %s: %w", memeID, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE folders SET updated = ? WHERE id = ?`, now, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return GetFolder(ctx, database, id, ownerID)
}

func RemoveMemeFromFolder(ctx context.Context, database *sql.DB, id, ownerID, memeID string) error {
	if err := checkOwner(ctx, database, "folders", id, ownerID); err != nil {
		return err
	}
	res, err := database.ExecContext(ctx, `DELETE FROM folder_memes WHERE folder_id = ? AND meme_id = ?`, id, memeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	_, err = database.ExecContext(ctx, `UPDATE folders SET updated = ? WHERE id = ?`, nowRFC3339(), id)
	return err
}

func scanFolder(row scanner) (*models.Folder, error) {
	var (
		f                 models.Folder
		private           bool
		ownerID, username string
		avatar            sql.NullString
	)
	err := row.Scan(&f.ID, &f.Name, &f.Color, &f.Icon, &f.Description, &private, &f.Created, &f.Updated,
		&f.MemeCount, &ownerID, &username, &avatar)
	if err != nil {
		return nil, notFound(err)
	}
	f.IsPrivate = private
	f.Owner = owner(ownerID, username, avatar)
	return &f, nil
}
