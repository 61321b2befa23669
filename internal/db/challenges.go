package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"memeshare/internal/models"
)

// challengeTimeLayout is fixed-width so stored dates compare as text.
const challengeTimeLayout = "2006-01-02T15:04:05Z"

const challengeColumns = `
c.id, c.title, c.description, c.category, c.rules, c.start_date, c.end_date, c.submissions, c.created,
(SELECT COUNT(1) FROM challenge_participants p WHERE p.challenge_id = c.id),
EXISTS(SELECT 1 FROM challenge_participants p WHERE p.challenge_id = c.id AND p.user_id = ?),
u.id, u.username, u.avatar_url`

var challengeOrder = map[string]string{
	"newest":      "c.created DESC",
	"ending_soon": "c.end_date ASC",
	"popular":     "(SELECT COUNT(1) FROM challenge_participants p WHERE p.challenge_id = c.id) DESC, c.created DESC",
}

func formatChallengeTime(t time.Time) string {
	return t.UTC().Format(challengeTimeLayout)
}

func CreateChallenge(ctx context.Context, database *sql.DB, ownerID string, in models.ChallengeInput) (*models.Challenge, error) {
	id := newID()
	_, err := database.ExecContext(ctx, `
INSERT INTO challenges (id, owner_id, title, description, category, rules, start_date, end_date, submissions, created)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		id, ownerID, strings.TrimSpace(in.Title), strings.TrimSpace(in.Description), in.Category,
		strings.TrimSpace(in.Rules), formatChallengeTime(in.StartDate), formatChallengeTime(in.EndDate), nowRFC3339())
	if err != nil {
		return nil, fmt.Errorf("insert challenge: %w", err)
	}
	return GetChallenge(ctx, database, id, ownerID)
}

func GetChallenge(ctx context.Context, database *sql.DB, id, viewer string) (*models.Challenge, error) {
	row := database.QueryRowContext(ctx, `SELECT `+challengeColumns+`
FROM challenges c JOIN users u ON u.id = c.owner_id
WHERE c.id = ?`, viewer, id)
	return scanChallenge(row)
}

// ListChallenges filters by "category" and by "status" (upcoming, active or
// ended relative to now).
func ListChallenges(ctx context.Context, database *sql.DB, p ListParams, now time.Time) ([]models.Challenge, int, error) {
	p = p.normalized()
	where := []string{"1 = 1"}
	args := []any{}
	if category := p.filter("category"); category != "" {
		where = append(where, "c.category = ?")
		args = append(args, category)
	}
	ts := formatChallengeTime(now)
	switch p.filter("status") {
	case models.ChallengeUpcoming:
		where = append(where, "c.start_date > ?")
		args = append(args, ts)
	case models.ChallengeActive:
		where = append(where, "c.start_date <= ? AND c.end_date > ?")
		args = append(args, ts, ts)
	case models.ChallengeEnded:
		where = append(where, "c.end_date <= ?")
		args = append(args, ts)
	}
	if p.Search != "" {
		where = append(where, "(LOWER(c.title) LIKE ? ESCAPE '\\' OR LOWER(c.description) LIKE ? ESCAPE '\\')")
		args = append(args, p.like(), p.like())
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := database.QueryRowContext(ctx, `SELECT COUNT(1) FROM challenges c WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count challenges: %w", err)
	}
	order, ok := challengeOrder[p.Sort]
	if !ok {
		order = challengeOrder["newest"]
	}
	rows, err := database.QueryContext(ctx, `SELECT `+challengeColumns+`
FROM challenges c JOIN users u ON u.id = c.owner_id
WHERE `+clause+`
ORDER BY `+order+`, c.id
LIMIT ? OFFSET ?`, append(append([]any{p.Viewer}, args...), p.Limit, p.offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list challenges: %w", err)
	}
	defer rows.Close()

	out := make([]models.Challenge, 0, p.Limit)
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func UpdateChallenge(ctx context.Context, database *sql.DB, id, ownerID string, in models.ChallengeInput) (*models.Challenge, error) {
	if err := checkOwner(ctx, database, "challenges", id, ownerID); err != nil {
		return nil, err
	}
	_, err := database.ExecContext(ctx, `
UPDATE challenges SET title = ?, description = ?, category = ?, rules = ?, start_date = ?, end_date = ?
WHERE id = ?`,
		strings.TrimSpace(in.Title), strings.TrimSpace(in.Description), in.Category, strings.TrimSpace(in.Rules),
		formatChallengeTime(in.StartDate), formatChallengeTime(in.EndDate), id)
	if err != nil {
		return nil, fmt.Errorf("update challenge: %w", err)
	}
	return GetChallenge(ctx, database, id, ownerID)
}

func DeleteChallenge(ctx context.Context, database *sql.DB, id, ownerID string) error {
	return deleteOwned(ctx, database, "challenges", id, ownerID)
}

// JoinChallenge adds userID as a participant. Joining twice is a no-op;
// joining an ended challenge is ErrConflict.
func JoinChallenge(ctx context.Context, database *sql.DB, id, userID string, now time.Time) (*models.Challenge, error) {
	c, err := GetChallenge(ctx, database, id, userID)
	if err != nil {
		return nil, err
	}
	if c.Status(now) == models.ChallengeEnded {
		return nil, fmt.Errorf("challenge has ended: %w", ErrConflict)
	}
	_, err = database.ExecContext(ctx, `
INSERT INTO challenge_participants (challenge_id, user_id, joined) VALUES (?, ?, ?)
ON CONFLICT(challenge_id, user_id) DO NOTHING`, id, userID, nowRFC3339())
	if err != nil {
		return nil, err
	}
	return GetChallenge(ctx, database, id, userID)
}

func scanChallenge(row scanner) (*models.Challenge, error) {
	var (
		c                 models.Challenge
		start, end        string
		joined            bool
		ownerID, username string
		avatar            sql.NullString
	)
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Category, &c.Rules, &start, &end,
		&c.Stats.Submissions, &c.Created, &c.Stats.Participants, &joined, &ownerID, &username, &avatar)
	if err != nil {
		return nil, notFound(err)
	}
	if c.StartDate, err = time.Parse(challengeTimeLayout, start); err != nil {
		return nil, fmt.Errorf("challenge %s start date: %w", c.ID, err)
	}
	if c.EndDate, err = time.Parse(challengeTimeLayout, end); err != nil {
		return nil, fmt.Errorf("challenge %s end date: %w", c.ID, err)
	}
	c.IsJoined = joined
	c.Owner = owner(ownerID, username, avatar)
	return &c, nil
}
