package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const (
	// SettingTokenSecret holds the signing secret generated on first start
	// when none is configured, so issued tokens survive restarts.
	SettingTokenSecret = "auth.token_secret"
	// SettingDemoSeeded marks that the built-in demo fixture was loaded.
	SettingDemoSeeded = "seed.demo"
)

func GetSetting(ctx context.Context, database *sql.DB, key string) (string, bool, error) {
	var value string
	err := database.QueryRowContext(ctx,
		"SELECT value FROM system_settings WHERE key = ?", key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, true, nil
}

func SetSetting(ctx context.Context, database *sql.DB, key, value string) error {
	_, err := database.ExecContext(ctx, `
		INSERT INTO system_settings (key, value, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// EnsureSetting returns the stored value for key, storing fallback first if
// the key is unset.
func EnsureSetting(ctx context.Context, database *sql.DB, key, fallback string) (string, error) {
	_, err := database.ExecContext(ctx, `
		INSERT INTO system_settings (key, value, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT (key) DO NOTHING
	`, key, fallback)
	if err != nil {
		return "", fmt.Errorf("ensure setting %s: %w", key, err)
	}
	value, _, err := GetSetting(ctx, database, key)
	return value, err
}
