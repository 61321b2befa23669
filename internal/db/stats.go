package db

import (
	"context"
	"database/sql"

	"memeshare/internal/models"
)

func GetCatalogStats(ctx context.Context, database *sql.DB) (models.CatalogStats, error) {
	stats := models.CatalogStats{}
	queries := []struct {
		sql string
		dst *int
	}{
		{`SELECT COUNT(1) FROM users`, &stats.Users},
		{`SELECT COUNT(1) FROM memes`, &stats.Memes},
		{`SELECT COUNT(1) FROM templates`, &stats.Templates},
		{`SELECT COUNT(1) FROM folders`, &stats.Folders},
		{`SELECT COUNT(1) FROM collaborations`, &stats.Collaborations},
		{`SELECT COUNT(1) FROM comments`, &stats.Comments},
		{`SELECT COUNT(1) FROM challenges`, &stats.Challenges},
		{`SELECT COUNT(1) FROM meme_groups`, &stats.Groups},
	}
	for _, q := range queries {
		if err := database.QueryRowContext(ctx, q.sql).Scan(q.dst); err != nil {
			return models.CatalogStats{}, err
		}
	}
	return stats, nil
}
