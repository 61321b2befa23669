package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"memeshare/internal/models"
)

const collaborationColumns = `
c.id, c.title, c.description, c.type, c.status, c.is_public, c.created, c.updated,
u.id, u.username, u.avatar_url`

var collaborationOrder = map[string]string{
	"newest":  "c.created DESC",
	"updated": "c.updated DESC",
	"title":   "LOWER(c.title) ASC",
}

// memberClause restricts collaborations to those the viewer owns, has
// accepted an invite to, or that are public.
const memberClause = `(c.is_public = 1 OR c.owner_id = ? OR EXISTS(
    SELECT 1 FROM collaborators cm
    WHERE cm.collaboration_id = c.id AND cm.user_id = ? AND cm.invite_status = 'accepted'))`

// CreateCollaboration inserts the collaboration in draft status with the
// owner as its first collaborator and a pending invite per listed user.
func CreateCollaboration(ctx context.Context, database *sql.DB, ownerID string, in models.CollaborationInput) (*models.Collaboration, error) {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	id := newID()
	now := nowRFC3339()
	if _, err := tx.ExecContext(ctx, `
INSERT INTO collaborations (id, owner_id, title, description, type, status, is_public, created, updated)
VALUES (?, ?, ?, ?, ?, 'draft', ?, ?, ?)`,
		id, ownerID, strings.TrimSpace(in.Title), strings.TrimSpace(in.Description), in.Type,
		boolInt(in.IsPublic), now, now); err != nil {
		return nil, fmt.Errorf("insert collaboration: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO collaborators (collaboration_id, user_id, role, invite_status, invited_by, created)
VALUES (?, ?, 'owner', 'accepted', NULL, ?)`, id, ownerID, now); err != nil {
		return nil, err
	}
	for _, inv := range in.Invites {
		var userID string
		err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE username = ?`, strings.TrimSpace(inv.Username)).Scan(&userID)
		if err != nil {
			return nil, fmt.Errorf("invite %s: %w", inv.Username, notFound(err))
		}
		if userID == ownerID {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO collaborators (collaboration_id, user_id, role, invite_status, invited_by, created)
VALUES (?, ?, ?, 'pending', ?, ?)
ON CONFLICT(collaboration_id, user_id) DO NOTHING`, id, userID, inv.Role, ownerID, now); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return GetCollaboration(ctx, database, id, ownerID)
}

func GetCollaboration(ctx context.Context, database *sql.DB, id, viewer string) (*models.Collaboration, error) {
	row := database.QueryRowContext(ctx, `SELECT `+collaborationColumns+`
FROM collaborations c JOIN users u ON u.id = c.owner_id
WHERE c.id = ? AND `+memberClause, id, viewer, viewer)
	c, err := scanCollaboration(row)
	if err != nil {
		return nil, err
	}
	if err := loadCollaborators(ctx, database, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCollaborations filters by "type" and "status".
func ListCollaborations(ctx context.Context, database *sql.DB, p ListParams) ([]models.Collaboration, int, error) {
	p = p.normalized()
	where := []string{memberClause}
	args := []any{p.Viewer, p.Viewer}
	if typ := p.filter("type"); typ != "" {
		where = append(where, "c.type = ?")
		args = append(args, typ)
	}
	if status := p.filter("status"); status != "" {
		where = append(where, "c.status = ?")
		args = append(args, status)
	}
	if p.Search != "" {
		where = append(where, "(LOWER(c.title) LIKE ? ESCAPE '\\' OR LOWER(c.description) LIKE ? ESCAPE '\\')")
		args = append(args, p.like(), p.like())
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := database.QueryRowContext(ctx, `SELECT COUNT(1) FROM collaborations c WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count collaborations: %w", err)
	}
	order, ok := collaborationOrder[p.Sort]
	if !ok {
		order = collaborationOrder["newest"]
	}
	rows, err := database.QueryContext(ctx, `SELECT `+collaborationColumns+`
FROM collaborations c JOIN users u ON u.id = c.owner_id
WHERE `+clause+`
ORDER BY `+order+`, c.id
LIMIT ? OFFSET ?`, append(args, p.Limit, p.offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list collaborations: %w", err)
	}
	out := make([]models.Collaboration, 0, p.Limit)
	for rows.Next() {
		c, err := scanCollaboration(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		out = append(out, *c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range out {
		if err := loadCollaborators(ctx, database, &out[i]); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

// UpdateCollaboration applies in. The owner and accepted editors may edit;
// status changes must follow the collaboration transition table.
func UpdateCollaboration(ctx context.Context, database *sql.DB, id, userID string, in models.CollaborationUpdate) (*models.Collaboration, error) {
	var (
		ownerID string
		current string
	)
	err := database.QueryRowContext(ctx, `SELECT owner_id, status FROM collaborations WHERE id = ?`, id).Scan(&ownerID, &current)
	if err != nil {
		return nil, notFound(err)
	}
	if ownerID != userID {
		var role string
		err := database.QueryRowContext(ctx, `
SELECT role FROM collaborators
WHERE collaboration_id = ? AND user_id = ? AND invite_status = 'accepted'`, id, userID).Scan(&role)
		if err != nil || role != models.RoleEditor {
			return nil, ErrForbidden
		}
	}

	sets := []string{"updated = ?"}
	args := []any{nowRFC3339()}
	if in.Status != nil && *in.Status != models.CollaborationStatus(current) {
		if err := models.CollaborationStatus(current).CheckTransition(*in.Status); err != nil {
			return nil, err
		}
		sets = append(sets, "status = ?")
		args = append(args, string(*in.Status))
	}
	if in.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, strings.TrimSpace(*in.Title))
	}
	if in.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, strings.TrimSpace(*in.Description))
	}
	if in.IsPublic != nil {
		sets = append(sets, "is_public = ?")
		args = append(args, boolInt(*in.IsPublic))
	}
	args = append(args, id)
	if _, err := database.ExecContext(ctx, `UPDATE collaborations SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
		return nil, fmt.Errorf("update collaboration: %w", err)
	}
	return GetCollaboration(ctx, database, id, userID)
}

func DeleteCollaboration(ctx context.Context, database *sql.DB, id, ownerID string) error {
	return deleteOwned(ctx, database, "collaborations", id, ownerID)
}

// ListInvites returns userID's pending invites, newest first.
func ListInvites(ctx context.Context, database *sql.DB, userID string) ([]models.CollaborationInvite, error) {
	rows, err := database.QueryContext(ctx, `
SELECT c.id, c.title, c.type, cm.role, cm.created, u.id, u.username, u.avatar_url
FROM collaborators cm
JOIN collaborations c ON c.id = cm.collaboration_id
LEFT JOIN users u ON u.id = COALESCE(cm.invited_by, c.owner_id)
WHERE cm.user_id = ? AND cm.invite_status = 'pending'
ORDER BY cm.created DESC, c.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	defer rows.Close()

	out := []models.CollaborationInvite{}
	for rows.Next() {
		var (
			inv    models.CollaborationInvite
			avatar sql.NullString
		)
		if err := rows.Scan(&inv.CollaborationID, &inv.Title, &inv.Type, &inv.Role, &inv.Created,
			&inv.InvitedBy.ID, &inv.InvitedBy.Username, &avatar); err != nil {
			return nil, err
		}
		inv.InvitedBy.AvatarURL = avatar.String
		out = append(out, inv)
	}
	return out, rows.Err()
}

// RespondToInvite accepts or declines userID's pending invite.
func RespondToInvite(ctx context.Context, database *sql.DB, id, userID string, accept bool) error {
	status := models.InviteDeclined
	if accept {
		status = models.InviteAccepted
	}
	res, err := database.ExecContext(ctx, `
UPDATE collaborators SET invite_status = ?
WHERE collaboration_id = ? AND user_id = ? AND invite_status = 'pending'`, status, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func loadCollaborators(ctx context.Context, database *sql.DB, c *models.Collaboration) error {
	rows, err := database.QueryContext(ctx, `
SELECT u.id, u.username, u.avatar_url, cm.role, cm.invite_status
FROM collaborators cm JOIN users u ON u.id = cm.user_id
WHERE cm.collaboration_id = ?
ORDER BY CASE cm.role WHEN 'owner' THEN 0 ELSE 1 END, cm.created, u.username`, c.ID)
	if err != nil {
		return fmt.Errorf("collaborators of %s: %w", c.ID, err)
	}
	defer rows.Close()

	c.Collaborators = []models.Collaborator{}
	for rows.Next() {
		var (
			m      models.Collaborator
			avatar sql.NullString
		)
		if err := rows.Scan(&m.User.ID, &m.User.Username, &avatar, &m.Role, &m.InviteStatus); err != nil {
			return err
		}
		m.User.AvatarURL = avatar.String
		c.Collaborators = append(c.Collaborators, m)
	}
	return rows.Err()
}

func scanCollaboration(row scanner) (*models.Collaboration, error) {
	var (
		c                 models.Collaboration
		status            string
		public            bool
		ownerID, username string
		avatar            sql.NullString
	)
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Type, &status, &public, &c.Created, &c.Updated,
		&ownerID, &username, &avatar)
	if err != nil {
		return nil, notFound(err)
	}
	c.Status = models.CollaborationStatus(status)
	c.IsPublic = public
	c.Owner = owner(ownerID, username, avatar)
	return &c, nil
}
