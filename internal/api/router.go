// Package api is the development HTTP API the memes client talks to.
package api

import (
	"database/sql"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"memeshare/internal/auth"
	"memeshare/internal/db"
	"memeshare/internal/forms"
	"memeshare/internal/models"
	"memeshare/internal/ratelimit"
	"memeshare/internal/serverconfig"
)

const tokenIssuer = "memeshare"

type Server struct {
	db        *sql.DB
	cfg       *serverconfig.Config
	logger    *zap.Logger
	issuer    *auth.Issuer
	validator *forms.Validator
	users     *expirable.LRU[string, *models.User]
	limiter   *ratelimit.Limiter
	hits      atomic.Uint64
	breaker   *gobreaker.CircuitBreaker
	version   string
	started   time.Time
	now       func() time.Time
}

func newServer(database *sql.DB, cfg *serverconfig.Config, logger *zap.Logger, version string) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	issuer, err := auth.NewIssuer(cfg.JWTSecret, tokenIssuer, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}
	s := &Server{
		db:        database,
		cfg:       cfg,
		logger:    logger,
		issuer:    issuer,
		validator: forms.NewValidator(),
		users:     expirable.NewLRU[string, *models.User](cfg.UserCache.Size, nil, cfg.UserCache.TTL),
		limiter:   ratelimit.NewLimiter(),
		version:   version,
		started:   time.Now().UTC(),
		now:       time.Now,
	}
	s.breaker = newStoreBreaker(cfg.Breaker, logger)
	return s, nil
}

// NewRouter wires every endpoint the client uses under /api, plus uploads,
// metrics and the MCP endpoint at the root.
func NewRouter(database *sql.DB, cfg *serverconfig.Config, logger *zap.Logger, version string) (http.Handler, error) {
	s, err := newServer(database, cfg, logger, version)
	if err != nil {
		return nil, err
	}
	return s.routes(), nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         86400,
	}))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		methodNotAllowed(w)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.cfg.UploadDir))))
	if s.cfg.MCP {
		r.Handle("/mcp", s.mcpHandler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.status)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Use(s.rateLimit)
			r.Use(s.storeBreaker)

			r.Post("/auth/register", s.register)
			r.Post("/auth/login", s.login)
			r.With(requireUser).Get("/auth/me", s.me)

			r.Route("/memes", func(r chi.Router) {
				r.Get("/", s.listMemes)
				r.Get("/{id}", s.getMeme)
				r.With(requireUser).Post("/", s.createMeme)
				r.With(requireUser).Delete("/{id}", s.deleteMeme)
				r.With(requireUser).Post("/{id}/like", s.likeMeme)
			})

			r.Route("/templates", func(r chi.Router) {
				r.Get("/", s.listTemplates)
				r.With(requireUser).Get("/favorites", s.listFavoriteTemplates)
				r.Get("/{id}", s.getTemplate)
				r.With(requireUser).Post("/", s.createTemplate)
				r.With(requireUser).Patch("/{id}", s.updateTemplate)
				r.With(requireUser).Delete("/{id}", s.deleteTemplate)
				r.With(requireUser).Post("/{id}/favorite", s.favoriteTemplate(true))
				r.With(requireUser).Delete("/{id}/favorite", s.favoriteTemplate(false))
				r.Post("/{id}/download", s.countTemplate("downloads"))
				r.Post("/{id}/use", s.countTemplate("uses"))
				r.With(requireUser).Post("/{id}/rate", s.rateTemplate)
			})

			r.Route("/collaborations", func(r chi.Router) {
				r.Use(requireUser)
				r.Get("/", s.listCollaborations)
				r.Get("/invites", s.listInvites)
				r.Get("/{id}", s.getCollaboration)
				r.Post("/", s.createCollaboration)
				r.Patch("/{id}", s.updateCollaboration)
				r.Delete("/{id}", s.deleteCollaboration)
				r.Post("/{id}/invite/accept", s.respondToInvite(true))
				r.Post("/{id}/invite/decline", s.respondToInvite(false))
			})

			r.Route("/folders", func(r chi.Router) {
				r.Use(requireUser)
				r.Get("/", s.listFolders)
				r.Get("/{id}", s.getFolder)
				r.Post("/", s.createFolder)
				r.Patch("/{id}", s.updateFolder)
				r.Delete("/{id}", s.deleteFolder)
				r.Post("/{id}/memes", s.addMemesToFolder)
				r.Delete("/{id}/memes/{memeId}", s.removeMemeFromFolder)
			})

			r.Route("/groups", func(r chi.Router) {
				r.Get("/", s.listGroups)
				r.Get("/{id}", s.getGroup)
				r.With(requireUser).Post("/", s.createGroup)
				r.With(requireUser).Put("/{id}", s.updateGroup)
				r.With(requireUser).Delete("/{id}", s.deleteGroup)
				r.With(requireUser).Post("/{id}/join", s.groupMembership(true))
				r.With(requireUser).Post("/{id}/leave", s.groupMembership(false))
			})

			r.Route("/challenges", func(r chi.Router) {
				r.Get("/", s.listChallenges)
				r.Get("/{id}", s.getChallenge)
				r.With(requireUser).Post("/", s.createChallenge)
				r.With(requireUser).Put("/{id}", s.updateChallenge)
				r.With(requireUser).Delete("/{id}", s.deleteChallenge)
				r.With(requireUser).Post("/{id}/join", s.joinChallenge)
			})

			r.Route("/comments", func(r chi.Router) {
				r.Get("/", s.listComments)
				r.Get("/{id}", s.getComment)
				r.Get("/{id}/replies", s.listReplies)
				r.With(requireUser).Post("/", s.createComment)
				r.With(requireUser).Put("/{id}", s.updateComment)
				r.With(requireUser).Delete("/{id}", s.deleteComment)
				r.With(requireUser).Post("/{id}/like", s.likeComment)
				r.With(requireUser).Post("/{id}/report", s.reportComment)
			})
		})
	})
	return r
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	type serverStats struct {
		UptimeSeconds int64  `json:"uptime_seconds"`
		CurrentTime   string `json:"current_time"`
	}
	now := s.now().UTC()
	if err := db.Healthy(r.Context(), s.db); err != nil {
		s.logger.Warn("status check failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	catalog, err := db.GetCatalogStats(r.Context(), s.db)
	if err != nil {
		s.internalError(w, "load stats", err)
		return
	}
	schema, err := db.SchemaVersion(r.Context(), s.db)
	if err != nil {
		s.internalError(w, "load schema version", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   s.version,
		"schema":    schema,
		"timestamp": now.Format(time.RFC3339),
		"health":    map[string]string{"database": "ok", "breaker": s.breaker.State().String()},
		"stats": map[string]any{
			"catalog": catalog,
			"server": serverStats{
				UptimeSeconds: int64(now.Sub(s.started).Seconds()),
				CurrentTime:   now.Format(time.RFC3339),
			},
		},
	})
}
