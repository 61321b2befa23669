package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), name))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := ApplyMigrations(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestMigrationsIdempotentAndLatestVersionApplied(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t, "migrations.db")

	if err := ApplyMigrations(database); err != nil {
		t.Fatalf("second migration apply: %v", err)
	}

	latest, err := SchemaVersion(ctx, database)
	if err != nil {
		t.Fatalf("read schema version: %v", err)
	}
	if latest != LatestVersion() {
		t.Fatalf("expected latest schema version %d, got %d", LatestVersion(), latest)
	}
}

func TestMigrationsRecordEachStepOnce(t *testing.T) {
	database := openTestDB(t, "steps.db")
	if err := ApplyMigrations(database); err != nil {
		t.Fatalf("reapply: %v", err)
	}
	var rows, distinct int
	if err := database.QueryRow(`SELECT COUNT(*), COUNT(DISTINCT name) FROM schema_version`).Scan(&rows, &distinct); err != nil {
		t.Fatalf("count schema_version: %v", err)
	}
	if rows != len(migrations) || distinct != len(migrations) {
		t.Fatalf("expected %d recorded steps, got %d rows (%d names)", len(migrations), rows, distinct)
	}
}
