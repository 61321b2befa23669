package db

import (
	"context"
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "users_and_memes",
		sql:     usersAndMemesSchemaV1,
	},
	{
		version: 2,
		name:    "templates",
		sql:     templatesSchemaV2,
	},
	{
		version: 3,
		name:    "folders_and_collaborations",
		sql:     foldersAndCollaborationsSchemaV3,
	},
	{
		version: 4,
		name:    "comments",
		sql:     commentsSchemaV4,
	},
	{
		version: 5,
		name:    "challenges_and_groups",
		sql:     communitySchemaV5,
	},
}

// LatestVersion is the schema version ApplyMigrations brings a database to.
func LatestVersion() int {
	return migrations[len(migrations)-1].version
}

// ApplyMigrations brings database up to LatestVersion. Each pending step runs
// in its own transaction together with its schema_version row.
func ApplyMigrations(database *sql.DB) error {
	ctx := context.Background()
	if _, err := database.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_version (
	version     INTEGER PRIMARY KEY,
	name        TEXT NOT NULL,
	applied_at  TEXT NOT NULL
);`); err != nil {
		return fmt.Errorf("ensure schema_version table: %w", err)
	}

	applied, err := appliedVersions(ctx, database)
	if err != nil {
		return fmt.Errorf("read applied migrations: %w", err)
	}
	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		if err := applyMigration(ctx, database, m); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

// SchemaVersion reports the highest applied migration, 0 on a fresh database.
func SchemaVersion(ctx context.Context, database *sql.DB) (int, error) {
	var version int
	err := database.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	return version, err
}

func appliedVersions(ctx context.Context, database *sql.DB) (map[int]bool, error) {
	rows, err := database.QueryContext(ctx, `SELECT version FROM schema_version`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int]bool{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out[v] = true
	}
	return out, rows.Err()
}

func applyMigration(ctx context.Context, database *sql.DB, m migration) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, name, applied_at) VALUES (?, ?, ?)`,
		m.version, m.name, nowRFC3339(),
	); err != nil {
		return err
	}
	return tx.Commit()
}
