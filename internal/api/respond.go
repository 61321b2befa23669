package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"memeshare/internal/db"
	"memeshare/internal/forms"
	"memeshare/internal/metrics"
	"memeshare/internal/models"
)

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// decodeBody reads one JSON object into dst. It writes the 400 itself and
// reports whether the handler should continue.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// validate runs the same field rules the client forms use.
func (s *Server) validate(w http.ResponseWriter, in any) bool {
	err := s.validator.Check(in, s.now().UTC())
	if err == nil {
		return true
	}
	var verr *forms.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  verr.Error(),
			"fields": verr.Fields,
		})
		return false
	}
	writeError(w, http.StatusBadRequest, err.Error())
	return false
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, db.ErrForbidden):
		writeError(w, http.StatusForbidden, "not allowed to modify this "+what)
	case errors.Is(err, models.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, db.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.internalError(w, what, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, what string, err error) {
	s.logger.Error("request failed", zap.String("op", what), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// listParams parses page, limit, sort and search plus the named filters.
// An empty sort falls back to the first allowed key.
func listParams(r *http.Request, allowedSorts []string, filters ...string) (db.ListParams, error) {
	q := r.URL.Query()
	p := db.ListParams{
		Page:    1,
		Limit:   models.DefaultPageLimit,
		Search:  strings.TrimSpace(q.Get("search")),
		Filters: map[string]string{},
		Viewer:  viewerID(r),
	}
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, fmt.Errorf("page must be a positive integer")
		}
		p.Page = n
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > db.MaxPageLimit {
			return p, fmt.Errorf("limit must be between 1 and %d", db.MaxPageLimit)
		}
		p.Limit = n
	}
	p.Sort = strings.TrimSpace(q.Get("sort"))
	if p.Sort == "" && len(allowedSorts) > 0 {
		p.Sort = allowedSorts[0]
	}
	if len(allowedSorts) > 0 && !models.Contains(allowedSorts, p.Sort) {
		return p, fmt.Errorf("sort must be one of %s", strings.Join(allowedSorts, ", "))
	}
	for _, key := range filters {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			p.Filters[key] = v
		}
	}
	return p, nil
}

// writeList writes the list envelope: the items under noun plus the
// pagination block.
func writeList[T any](w http.ResponseWriter, noun string, items []T, p db.ListParams, total int) {
	writeJSON(w, http.StatusOK, listEnvelope(noun, items, p, total))
}

func mutated(resource, action string) {
	metrics.ResourceMutations.WithLabelValues(resource, action).Inc()
}

func idParam(r *http.Request) string {
	return chi.URLParam(r, "id")
}
