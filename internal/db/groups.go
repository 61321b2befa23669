package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"memeshare/internal/models"
)

const groupColumns = `
g.id, g.name, g.description, g.category, g.is_private, g.posts, g.created,
(SELECT COUNT(1) FROM group_members gm WHERE gm.group_id = g.id),
EXISTS(SELECT 1 FROM group_members gm WHERE gm.group_id = g.id AND gm.user_id = ?),
u.id, u.username, u.avatar_url`

var groupOrder = map[string]string{
	"newest":  "g.created DESC",
	"popular": "(SELECT COUNT(1) FROM group_members gm WHERE gm.group_id = g.id) DESC, g.created DESC",
	"name":    "LOWER(g.name) ASC",
}

// CreateGroup inserts the group with its owner as the first member.
func CreateGroup(ctx context.Context, database *sql.DB, ownerID string, in models.GroupInput) (*models.Group, error) {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	id := newID()
	now := nowRFC3339()
	if _, err := tx.ExecContext(ctx, `
INSERT INTO meme_groups (id, owner_id, name, description, category, is_private, posts, created)
VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		id, ownerID, strings.TrimSpace(in.Name), strings.TrimSpace(in.Description), in.Category,
		boolInt(in.IsPrivate), now); err != nil {
		return nil, fmt.Errorf("insert group: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, joined) VALUES (?, ?, ?)`, id, ownerID, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return GetGroup(ctx, database, id, ownerID)
}

func GetGroup(ctx context.Context, database *sql.DB, id, viewer string) (*models.Group, error) {
	row := database.QueryRowContext(ctx, `SELECT `+groupColumns+`
FROM meme_groups g JOIN users u ON u.id = g.owner_id
WHERE g.id = ?`, viewer, id)
	return scanGroup(row)
}

// ListGroups filters by "category".
func ListGroups(ctx context.Context, database *sql.DB, p ListParams) ([]models.Group, int, error) {
	p = p.normalized()
	where := []string{"1 = 1"}
	args := []any{}
	if category := p.filter("category"); category != "" {
		where = append(where, "g.category = ?")
		args = append(args, category)
	}
	if p.Search != "" {
		where = append(where, "(LOWER(g.name) LIKE ? ESCAPE '\\' OR LOWER(g.description) LIKE ? ESCAPE '\\')")
		args = append(args, p.like(), p.like())
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := database.QueryRowContext(ctx, `SELECT COUNT(1) FROM meme_groups g WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count groups: %w", err)
	}
	order, ok := groupOrder[p.Sort]
	if !ok {
		order = groupOrder["newest"]
	}
	rows, err := database.QueryContext(ctx, `SELECT `+groupColumns+`
FROM meme_groups g JOIN users u ON u.id = g.owner_id
WHERE `+clause+`
ORDER BY `+order+`, g.id
LIMIT ? OFFSET ?`, append(append([]any{p.Viewer}, args...), p.Limit, p.offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	out := make([]models.Group, 0, p.Limit)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *g)
	}
	return out, total, rows.Err()
}

func UpdateGroup(ctx context.Context, database *sql.DB, id, ownerID string, in models.GroupInput) (*models.Group, error) {
	if err := checkOwner(ctx, database, "meme_groups", id, ownerID); err != nil {
		return nil, err
	}
	_, err := database.ExecContext(ctx, `
UPDATE meme_groups SET name = ?, description = ?, category = ?, is_private = ? WHERE id = ?`,
		strings.TrimSpace(in.Name), strings.TrimSpace(in.Description), in.Category, boolInt(in.IsPrivate), id)
	if err != nil {
		return nil, fmt.Errorf("update group: %w", err)
	}
	return GetGroup(ctx, database, id, ownerID)
}

func DeleteGroup(ctx context.Context, database *sql.DB, id, ownerID string) error {
	return deleteOwned(ctx, database, "meme_groups", id, ownerID)
}

// SetGroupMember joins or leaves a group. The owner cannot leave.
func SetGroupMember(ctx context.Context, database *sql.DB, id, userID string, member bool) (*models.Group, error) {
	var ownerID string
	if err := database.QueryRowContext(ctx, `SELECT owner_id FROM meme_groups WHERE id = ?`, id).Scan(&ownerID); err != nil {
		return nil, notFound(err)
	}
	var err error
	if member {
		_, err = database.ExecContext(ctx, `
INSERT INTO group_members (group_id, user_id, joined) VALUES (?, ?, ?)
ON CONFLICT(group_id, user_id) DO NOTHING`, id, userID, nowRFC3339())
	} else {
		if ownerID == userID {
			return nil, fmt.Errorf("owner cannot leave the group: %w", ErrConflict)
		}
		_, err = database.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = ? AND user_id = ?`, id, userID)
	}
	if err != nil {
		return nil, err
	}
	return GetGroup(ctx, database, id, userID)
}

func scanGroup(row scanner) (*models.Group, error) {
	var (
		g                 models.Group
		private, member   bool
		ownerID, username string
		avatar            sql.NullString
	)
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.Category, &private, &g.Stats.Posts, &g.Created,
		&g.Stats.Members, &member, &ownerID, &username, &avatar)
	if err != nil {
		return nil, notFound(err)
	}
	g.IsPrivate = private
	g.IsMember = member
	g.Owner = owner(ownerID, username, avatar)
	return &g, nil
}
