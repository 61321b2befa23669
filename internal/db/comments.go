package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"memeshare/internal/models"
)

const commentColumns = `
c.id, c.meme_id, c.parent_id, c.content, c.created, c.updated,
(SELECT COUNT(1) FROM comment_likes l WHERE l.comment_id = c.id),
(SELECT COUNT(1) FROM comments r WHERE r.parent_id = c.id),
EXISTS(SELECT 1 FROM comment_likes l WHERE l.comment_id = c.id AND l.user_id = ?),
u.id, u.username, u.avatar_url`

var commentOrder = map[string]string{
	"newest":  "c.created DESC",
	"oldest":  "c.created ASC",
	"popular": "(SELECT COUNT(1) FROM comment_likes l WHERE l.comment_id = c.id) DESC, c.created DESC",
}

// CreateComment stores a comment or, with ParentComment set, a reply. A
// reply must belong to the same meme as its parent.
func CreateComment(ctx context.Context, database *sql.DB, authorID string, in models.CommentInput) (*models.Comment, error) {
	var n int
	if err := database.QueryRowContext(ctx, `SELECT COUNT(1) FROM memes WHERE id = ?`, in.MemeID).Scan(&n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("meme %s: %w", in.MemeID, ErrNotFound)
	}
	var parent any
	if in.ParentComment != nil && strings.TrimSpace(*in.ParentComment) != "" {
		var memeID string
		err := database.QueryRowContext(ctx, `SELECT meme_id FROM comments WHERE id = ?`, *in.ParentComment).Scan(&memeID)
		if err != nil {
			return nil, fmt.Errorf("parent comment: %w", notFound(err))
		}
		if memeID != in.MemeID {
			return nil, fmt.Errorf("parent comment belongs to another meme: %w", ErrConflict)
		}
		parent = *in.ParentComment
	}

	id := newID()
	now := nowRFC3339()
	_, err := database.ExecContext(ctx, `
INSERT INTO comments (id, meme_id, author_id, parent_id, content, created, updated)
VALUES (?, ?, ?, ?, ?, ?, ?)`, id, in.MemeID, authorID, parent, strings.TrimSpace(in.Content), now, now)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return GetComment(ctx, database, id, authorID)
}

func GetComment(ctx context.Context, database *sql.DB, id, viewer string) (*models.Comment, error) {
	row := database.QueryRowContext(ctx, `SELECT `+commentColumns+`
FROM comments c JOIN users u ON u.id = c.author_id
WHERE c.id = ?`, viewer, id)
	return scanComment(row)
}

// ListComments lists top-level comments, optionally for one meme (the
// "memeId" filter), each with its direct replies embedded oldest first.
func ListComments(ctx context.Context, database *sql.DB, p ListParams) ([]models.Comment, int, error) {
	p = p.normalized()
	where := []string{"c.parent_id IS NULL"}
	args := []any{}
	if memeID := p.filter("memeId"); memeID != "" {
		where = append(where, "c.meme_id = ?")
		args = append(args, memeID)
	}
	if p.Search != "" {
		where = append(where, "LOWER(c.content) LIKE ? ESCAPE '\\'")
		args = append(args, p.like())
	}
	out, total, err := listComments(ctx, database, p, strings.Join(where, " AND "), args)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		replies, _, err := listComments(ctx, database,
			ListParams{Page: 1, Limit: MaxPageLimit, Sort: "oldest", Viewer: p.Viewer},
			"c.parent_id = ?", []any{out[i].ID})
		if err != nil {
			return nil, 0, err
		}
		out[i].Replies = replies
	}
	return out, total, nil
}

// ListReplies lists the direct replies of a comment, oldest first unless
// another sort is requested.
func ListReplies(ctx context.Context, database *sql.DB, parentID string, p ListParams) ([]models.Comment, int, error) {
	var n int
	if err := database.QueryRowContext(ctx, `SELECT COUNT(1) FROM comments WHERE id = ?`, parentID).Scan(&n); err != nil {
		return nil, 0, err
	}
	if n == 0 {
		return nil, 0, ErrNotFound
	}
	if p.Sort == "" {
		p.Sort = "oldest"
	}
	return listComments(ctx, database, p.normalized(), "c.parent_id = ?", []any{parentID})
}

func listComments(ctx context.Context, database *sql.DB, p ListParams, clause string, args []any) ([]models.Comment, int, error) {
	var total int
	if err := database.QueryRowContext(ctx, `SELECT COUNT(1) FROM comments c WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}
	order, ok := commentOrder[p.Sort]
	if !ok {
		order = commentOrder["newest"]
	}
	rows, err := database.QueryContext(ctx, `SELECT `+commentColumns+`
FROM comments c JOIN users u ON u.id = c.author_id
WHERE `+clause+`
ORDER BY `+order+`, c.id
LIMIT ? OFFSET ?`, append(append([]any{p.Viewer}, args...), p.Limit, p.offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	out := make([]models.Comment, 0, p.Limit)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func UpdateComment(ctx context.Context, database *sql.DB, id, authorID, content string) (*models.Comment, error) {
	if err := checkAuthor(ctx, database, id, authorID); err != nil {
		return nil, err
	}
	if _, err := database.ExecContext(ctx, `UPDATE comments SET content = ?, updated = ? WHERE id = ?`,
		strings.TrimSpace(content), nowRFC3339(), id); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return GetComment(ctx, database, id, authorID)
}

// DeleteComment removes the author's comment and its replies.
func DeleteComment(ctx context.Context, database *sql.DB, id, authorID string) error {
	if err := checkAuthor(ctx, database, id, authorID); err != nil {
		return err
	}
	_, err := database.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	return err
}

func ToggleCommentLike(ctx context.Context, database *sql.DB, id, userID string) (*models.Comment, error) {
	if err := toggle(ctx, database, "comment_likes", "comment_id", "comments", id, userID); err != nil {
		return nil, err
	}
	return GetComment(ctx, database, id, userID)
}

// ReportComment files one report per reporter and comment; a repeat report
// is ErrConflict.
func ReportComment(ctx context.Context, database *sql.DB, id, reporterID string, in models.ReportInput) (*models.CommentReport, error) {
	var n int
	if err := database.QueryRowContext(ctx, `SELECT COUNT(1) FROM comments WHERE id = ?`, id).Scan(&n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	r := &models.CommentReport{
		ID:        newID(),
		CommentID: id,
		Reason:    in.Reason,
		Details:   strings.TrimSpace(in.Details),
		Created:   nowRFC3339(),
	}
	_, err := database.ExecContext(ctx, `
INSERT INTO comment_reports (id, comment_id, reporter_id, reason, details, created)
VALUES (?, ?, ?, ?, ?, ?)`, r.ID, r.CommentID, reporterID, r.Reason, r.Details, r.Created)
	if err != nil {
		if isUniqueConstraint(err) {
			return nil, fmt.Errorf("report %w", ErrConflict)
		}
		return nil, err
	}
	return r, nil
}

func checkAuthor(ctx context.Context, database *sql.DB, id, authorID string) error {
	var current string
	if err := database.QueryRowContext(ctx, `SELECT author_id FROM comments WHERE id = ?`, id).Scan(&current); err != nil {
		return notFound(err)
	}
	if current != authorID {
		return ErrForbidden
	}
	return nil
}

func scanComment(row scanner) (*models.Comment, error) {
	var (
		c              models.Comment
		parent         sql.NullString
		liked          bool
		authorID, name string
		avatar         sql.NullString
	)
	err := row.Scan(&c.ID, &c.MemeID, &parent, &c.Content, &c.Created, &c.Updated,
		&c.Stats.Likes, &c.Stats.Replies, &liked, &authorID, &name, &avatar)
	if err != nil {
		return nil, notFound(err)
	}
	if parent.Valid {
		p := parent.String
		c.ParentComment = &p
	}
	c.IsLiked = liked
	c.Author = owner(authorID, name, avatar)
	return &c, nil
}
