package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"memeshare/internal/models"
)

// CreateUser inserts a user. Username and email are unique ignoring case.
func CreateUser(ctx context.Context, database *sql.DB, username, email, passwordHash string) (*models.User, error) {
	u := &models.User{
		ID:       newID(),
		Username: strings.TrimSpace(username),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Created:  nowRFC3339(),
	}
	_, err := database.ExecContext(ctx, `
INSERT INTO users (id, username, email, password_hash, avatar_url, created)
VALUES (?, ?, ?, ?, NULL, ?)`,
		u.ID, u.Username, u.Email, passwordHash, u.Created)
	if err != nil {
		if isUniqueConstraint(err) {
			return nil, fmt.Errorf("user %w", ErrConflict)
		}
		return nil, err
	}
	return u, nil
}

func GetUser(ctx context.Context, database *sql.DB, id string) (*models.User, error) {
	row := database.QueryRowContext(ctx, `
SELECT id, username, email, avatar_url, created FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func GetUserByUsername(ctx context.Context, database *sql.DB, username string) (*models.User, error) {
	row := database.QueryRowContext(ctx, `
SELECT id, username, email, avatar_url, created FROM users WHERE username = ?`, strings.TrimSpace(username))
	return scanUser(row)
}

// GetCredentials returns the user and password hash for a login email.
func GetCredentials(ctx context.Context, database *sql.DB, email string) (*models.User, string, error) {
	var (
		u      models.User
		avatar sql.NullString
		hash   string
	)
	err := database.QueryRowContext(ctx, `
SELECT id, username, email, avatar_url, created, password_hash FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&u.ID, &u.Username, &u.Email, &avatar, &u.Created, &hash)
	if err != nil {
		return nil, "", notFound(err)
	}
	u.AvatarURL = avatar.String
	return &u, hash, nil
}

func CountUsers(ctx context.Context, database *sql.DB) (int, error) {
	var n int
	err := database.QueryRowContext(ctx, `SELECT COUNT(1) FROM users`).Scan(&n)
	return n, err
}

func scanUser(row scanner) (*models.User, error) {
	var (
		u      models.User
		avatar sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &avatar, &u.Created); err != nil {
		return nil, notFound(err)
	}
	u.AvatarURL = avatar.String
	return &u, nil
}
