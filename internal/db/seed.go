package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"memeshare/internal/auth"
	"memeshare/internal/models"
)

// Fixture is a catalog snapshot that can be loaded into an empty or
// existing database. Owners are referenced by username.
type Fixture struct {
	Users      []FixtureUser      `yaml:"users" json:"users"`
	Memes      []FixtureMeme      `yaml:"memes" json:"memes"`
	Templates  []FixtureTemplate  `yaml:"templates" json:"templates"`
	Groups     []FixtureGroup     `yaml:"groups" json:"groups"`
	Challenges []FixtureChallenge `yaml:"challenges" json:"challenges"`
}

type FixtureUser struct {
	Username string `yaml:"username" json:"username"`
	Email    string `yaml:"email" json:"email"`
	// Password may be empty, in which case the account cannot log in.
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
}

type FixtureMeme struct {
	Owner    string `yaml:"owner" json:"owner"`
	Title    string `yaml:"title" json:"title"`
	ImageURL string `yaml:"imageUrl" json:"imageUrl"`
}

type FixtureTemplate struct {
	Owner       string            `yaml:"owner" json:"owner"`
	Name        string            `yaml:"name" json:"name"`
	Category    string            `yaml:"category" json:"category"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	ImageURL    string            `yaml:"imageUrl" json:"imageUrl"`
	TextAreas   []models.TextArea `yaml:"textAreas,omitempty" json:"textAreas,omitempty"`
	IsPublic    bool              `yaml:"isPublic" json:"isPublic"`
}

type FixtureGroup struct {
	Owner       string   `yaml:"owner" json:"owner"`
	Name        string   `yaml:"name" json:"name"`
	Category    string   `yaml:"category" json:"category"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Members     []string `yaml:"members,omitempty" json:"members,omitempty"`
}

type FixtureChallenge struct {
	Owner       string    `yaml:"owner" json:"owner"`
	Title       string    `yaml:"title" json:"title"`
	Description string    `yaml:"description" json:"description"`
	Category    string    `yaml:"category" json:"category"`
	Rules       string    `yaml:"rules,omitempty" json:"rules,omitempty"`
	StartDate   time.Time `yaml:"startDate" json:"startDate"`
	EndDate     time.Time `yaml:"endDate" json:"endDate"`
}

//go:embed demo.yaml
var demoFixture []byte

// SeedDemo loads the built-in demo catalog once per database.
func SeedDemo(ctx context.Context, database *sql.DB) (bool, error) {
	if _, done, err := GetSetting(ctx, database, SettingDemoSeeded); err != nil || done {
		return false, err
	}
	var f Fixture
	if err := yaml.Unmarshal(demoFixture, &f); err != nil {
		return false, fmt.Errorf("parse demo fixture: %w", err)
	}
	if err := LoadFixture(ctx, database, f); err != nil {
		return false, err
	}
	return true, SetSetting(ctx, database, SettingDemoSeeded, nowRFC3339())
}

// LoadFixture inserts f in one transaction. Users that already exist are
// reused; every other entry is inserted as a new row.
func LoadFixture(ctx context.Context, database *sql.DB, f Fixture) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := nowRFC3339()
	users := map[string]string{}
	for _, u := range f.Users {
		id, err := ensureFixtureUser(ctx, tx, u, now)
		if err != nil {
			return fmt.Errorf("user %q: %w", u.Username, err)
		}
		users[strings.ToLower(u.Username)] = id
	}
	ownerID := func(username string) (string, error) {
		if id, ok := users[strings.ToLower(username)]; ok {
			return id, nil
		}
		var id string
		if err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE username = ?`, username).Scan(&id); err != nil {
			return "", fmt.Errorf("owner %q: %w", username, notFound(err))
		}
		users[strings.ToLower(username)] = id
		return id, nil
	}

	for _, m := range f.Memes {
		owner, err := ownerID(m.Owner)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO memes (id, owner_id, title, image_url, views, created) VALUES (?, ?, ?, ?, 0, ?)`,
			newID(), owner, m.Title, m.ImageURL, now); err != nil {
			return fmt.Errorf("meme %q: %w", m.Title, err)
		}
	}
	for _, t := range f.Templates {
		owner, err := ownerID(t.Owner)
		if err != nil {
			return err
		}
		areas, err := encodeTextAreas(t.TextAreas)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO templates (id, owner_id, name, category, description, image_url, text_areas, is_public, created, updated)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			newID(), owner, t.Name, t.Category, t.Description, t.ImageURL, areas, boolInt(t.IsPublic), now, now); err != nil {
			return fmt.Errorf("template %q: %w", t.Name, err)
		}
	}
	for _, g := range f.Groups {
		owner, err := ownerID(g.Owner)
		if err != nil {
			return err
		}
		id := newID()
		if _, err := tx.ExecContext(ctx, `
INSERT INTO meme_groups (id, owner_id, name, description, category, is_private, posts, created)
VALUES (?, ?, ?, ?, ?, 0, 0, ?)`, id, owner, g.Name, g.Description, g.Category, now); err != nil {
			return fmt.Errorf("group %q: %w", g.Name, err)
		}
		for _, member := range append([]string{g.Owner}, g.Members...) {
			memberID, err := ownerID(member)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO group_members (group_id, user_id, joined) VALUES (?, ?, ?)`, id, memberID, now); err != nil {
				return err
			}
		}
	}
	for _, c := range f.Challenges {
		owner, err := ownerID(c.Owner)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO challenges (id, owner_id, title, description, category, rules, start_date, end_date, submissions, created)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
			newID(), owner, c.Title, c.Description, c.Category, c.Rules,
			formatChallengeTime(c.StartDate), formatChallengeTime(c.EndDate), now); err != nil {
			return fmt.Errorf("challenge %q: %w", c.Title, err)
		}
	}

	return tx.Commit()
}

func ensureFixtureUser(ctx context.Context, tx *sql.Tx, u FixtureUser, now string) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE username = ?`, u.Username).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	password := u.Password
	if password == "" {
		password = newID()
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}
	id = newID()
	_, err = tx.ExecContext(ctx, `
INSERT INTO users (id, username, email, password_hash, avatar_url, created) VALUES (?, ?, ?, ?, NULL, ?)`,
		id, u.Username, strings.ToLower(u.Email), hash, now)
	return id, err
}
