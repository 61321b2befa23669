package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"memeshare/internal/auth"
	"memeshare/internal/db"
	"memeshare/internal/metrics"
	"memeshare/internal/models"
	"memeshare/internal/ratelimit"
	"memeshare/internal/serverconfig"
)

type contextKey string

const userContextKey contextKey = "user"

// pruneEvery is how many rate-limited requests pass between prunes of idle
// limiter history.
const pruneEvery = 1024

var errServerFailure = errors.New("handler returned 5xx")

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// authenticate resolves a bearer token to a user when one is sent. Requests
// without a token continue anonymously; a bad or expired token is a 401 so
// the client drops its session.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.BearerToken(r.Header.Get("Authorization"))
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := s.issuer.Verify(token)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				writeError(w, http.StatusUnauthorized, "token has expired")
				return
			}
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		user, err := s.lookupUser(r.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "unknown user")
				return
			}
			s.internalError(w, "authenticate", err)
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) lookupUser(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users.Get(id); ok {
		metrics.UserCacheLookups.WithLabelValues("hit").Inc()
		return u, nil
	}
	metrics.UserCacheLookups.WithLabelValues("miss").Inc()
	u, err := db.GetUser(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	s.users.Add(id, u)
	return u, nil
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func currentUser(ctx context.Context) *models.User {
	u, _ := ctx.Value(userContextKey).(*models.User)
	return u
}

// viewerID is the authenticated user id, or "" for anonymous requests.
func viewerID(r *http.Request) string {
	if u := currentUser(r.Context()); u != nil {
		return u.ID
	}
	return ""
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := viewerID(r)
		if caller == "" {
			caller = "ip:" + clientIP(r)
		}
		now := s.now().UTC()
		if s.hits.Add(1)%pruneEvery == 0 {
			s.limiter.Prune(now, 24*time.Hour)
		}

		res := s.limiter.Check(caller, classifyRateRules(r, s.cfg.RateLimits), now)
		if res.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
		}
		if !res.Allowed {
			retryAfter := int(res.ResetAt.Sub(now).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			metrics.RateLimited.WithLabelValues(res.Rule).Inc()
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded: "+res.Rule)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func classifyRateRules(r *http.Request, limits serverconfig.RateLimits) []ratelimit.Rule {
	path := strings.TrimSuffix(r.URL.Path, "/")
	rules := make([]ratelimit.Rule, 0, 2)
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		rules = append(rules, ratelimit.Rule{Name: "reads", Limit: limits.ReadsPerMinute, Window: time.Minute})
	} else {
		rules = append(rules, ratelimit.Rule{Name: "writes", Limit: limits.WritesPerHour, Window: time.Hour})
	}
	if strings.HasPrefix(path, "/api/auth/") && r.Method == http.MethodPost {
		rules = append(rules, ratelimit.Rule{Name: "auth", Limit: limits.AuthPerMinute, Window: time.Minute})
	}
	if path == "/api/templates" && r.Method == http.MethodPost {
		rules = append(rules, ratelimit.Rule{Name: "uploads", Limit: limits.UploadsPerHour, Window: time.Hour})
	}
	return rules
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func newStoreBreaker(cfg serverconfig.Breaker, logger *zap.Logger) *gobreaker.CircuitBreaker {
	metrics.BreakerState.Set(float64(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "store",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.BreakerState.Set(float64(to))
		},
	})
}

// storeBreaker stops sending requests to the store after repeated 5xx
// responses and answers 503 until the breaker half-opens.
func (s *Server) storeBreaker(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := s.breaker.Execute(func() (any, error) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if ww.Status() >= http.StatusInternalServerError {
				return nil, errServerFailure
			}
			return nil, nil
		})
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			w.Header().Set("Retry-After", strconv.Itoa(int(s.cfg.Breaker.OpenTimeout.Seconds())))
			writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
		}
	})
}
