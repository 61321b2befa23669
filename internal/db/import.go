package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ImportFromPath loads a YAML or JSON fixture file.
func ImportFromPath(ctx context.Context, database *sql.DB, fromPath string) error {
	f, err := ReadFixture(fromPath)
	if err != nil {
		return err
	}
	return LoadFixture(ctx, database, *f)
}

// ReadFixture parses a fixture file. JSON is accepted as a subset of YAML.
func ReadFixture(path string) (*Fixture, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f Fixture
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}
