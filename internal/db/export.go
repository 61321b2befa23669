package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ExportFixture snapshots users and the public catalog. Passwords are never
// exported.
func ExportFixture(ctx context.Context, database *sql.DB) (*Fixture, error) {
	f := &Fixture{}

	rows, err := database.QueryContext(ctx, `SELECT username, email FROM users ORDER BY created, username`)
	if err != nil {
		return nil, fmt.Errorf("export users: %w", err)
	}
	for rows.Next() {
		var u FixtureUser
		if err := rows.Scan(&u.Username, &u.Email); err != nil {
			rows.Close()
			return nil, err
		}
		f.Users = append(f.Users, u)
	}
	rows.Close()

	rows, err = database.QueryContext(ctx, `
SELECT u.username, m.title, m.image_url FROM memes m JOIN users u ON u.id = m.owner_id ORDER BY m.created, m.id`)
	if err != nil {
		return nil, fmt.Errorf("export memes: %w", err)
	}
	for rows.Next() {
		var m FixtureMeme
		if err := rows.Scan(&m.Owner, &m.Title, &m.ImageURL); err != nil {
			rows.Close()
			return nil, err
		}
		f.Memes = append(f.Memes, m)
	}
	rows.Close()

	rows, err = database.QueryContext(ctx, `
SELECT t.id, u.username FROM templates t JOIN users u ON u.id = t.owner_id
WHERE t.is_public = 1 ORDER BY t.created, t.id`)
	if err != nil {
		return nil, fmt.Errorf("export templates: %w", err)
	}
	type ref struct{ id, owner string }
	var templates []ref
	for rows.Next() {
		var r ref
		if err := rows.Scan(&r.id, &r.owner); err != nil {
			rows.Close()
			return nil, err
		}
		templates = append(templates, r)
	}
	rows.Close()
	for _, r := range templates {
		t, err := GetTemplate(ctx, database, r.id, "")
		if err != nil {
			return nil, err
		}
		f.Templates = append(f.Templates, FixtureTemplate{
			Owner:       r.owner,
			Name:        t.Name,
			Category:    t.Category,
			Description: t.Description,
			ImageURL:    t.ImageURL,
			TextAreas:   t.TextAreas,
			IsPublic:    t.IsPublic,
		})
	}

	rows, err = database.QueryContext(ctx, `
SELECT g.id, u.username, g.name, g.category, g.description
FROM meme_groups g JOIN users u ON u.id = g.owner_id
WHERE g.is_private = 0 ORDER BY g.created, g.id`)
	if err != nil {
		return nil, fmt.Errorf("export groups: %w", err)
	}
	var groupIDs []string
	for rows.Next() {
		var (
			id string
			g  FixtureGroup
		)
		if err := rows.Scan(&id, &g.Owner, &g.Name, &g.Category, &g.Description); err != nil {
			rows.Close()
			return nil, err
		}
		groupIDs = append(groupIDs, id)
		f.Groups = append(f.Groups, g)
	}
	rows.Close()
	for i, id := range groupIDs {
		members, err := groupMemberNames(ctx, database, id, f.Groups[i].Owner)
		if err != nil {
			return nil, err
		}
		f.Groups[i].Members = members
	}

	rows, err = database.QueryContext(ctx, `
SELECT u.username, c.title, c.description, c.category, c.rules, c.start_date, c.end_date
FROM challenges c JOIN users u ON u.id = c.owner_id ORDER BY c.created, c.id`)
	if err != nil {
		return nil, fmt.Errorf("export challenges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			c          FixtureChallenge
			start, end string
		)
		if err := rows.Scan(&c.Owner, &c.Title, &c.Description, &c.Category, &c.Rules, &start, &end); err != nil {
			return nil, err
		}
		if c.StartDate, err = time.Parse(challengeTimeLayout, start); err != nil {
			return nil, err
		}
		if c.EndDate, err = time.Parse(challengeTimeLayout, end); err != nil {
			return nil, err
		}
		f.Challenges = append(f.Challenges, c)
	}
	return f, rows.Err()
}

func groupMemberNames(ctx context.Context, database *sql.DB, groupID, ownerName string) ([]string, error) {
	rows, err := database.QueryContext(ctx, `
SELECT u.username FROM group_members gm JOIN users u ON u.id = gm.user_id
WHERE gm.group_id = ? ORDER BY gm.joined, u.username`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if name != ownerName {
			out = append(out, name)
		}
	}
	return out, rows.Err()
}
