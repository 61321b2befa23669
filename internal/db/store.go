package db

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"memeshare/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("already exists")
)

const MaxPageLimit = 100

// ListParams is one list request as the handlers parse it.
type ListParams struct {
	Page    int
	Limit   int
	Sort    string
	Search  string
	Filters map[string]string
	// Viewer is the authenticated user id, used for per-user flags like
	// isFavorited. Empty for anonymous requests.
	Viewer string
}

func (p ListParams) normalized() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = models.DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	p.Search = strings.TrimSpace(p.Search)
	return p
}

func (p ListParams) offset() int {
	return (p.Page - 1) * p.Limit
}

func (p ListParams) filter(key string) string {
	return strings.TrimSpace(p.Filters[key])
}

func (p ListParams) like() string {
	return likePattern(strings.ToLower(p.Search))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern is a substring pattern for LIKE ... ESCAPE '\'; wildcards in s
// match literally.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// Meta builds the pagination block for a list response.
func (p ListParams) Meta(total int) models.ListMeta {
	p = p.normalized()
	return models.ListMeta{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: models.TotalPages(total, p.Limit),
	}
}

func newID() string {
	return uuid.NewString()
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func isUniqueConstraint(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func owner(id, username string, avatar sql.NullString) *models.Owner {
	if id == "" {
		return nil
	}
	return &models.Owner{ID: id, Username: username, AvatarURL: avatar.String}
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullable(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
