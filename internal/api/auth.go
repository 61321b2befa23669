package api

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"memeshare/internal/auth"
	"memeshare/internal/db"
	"memeshare/internal/models"
)

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterInput
	if !decodeBody(w, r, &in) {
		return
	}
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if !s.validate(w, in) {
		return
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		s.internalError(w, "hash password", err)
		return
	}
	user, err := db.CreateUser(r.Context(), s.db, in.Username, in.Email, hash)
	if err != nil {
		if errors.Is(err, db.ErrConflict) {
			writeError(w, http.StatusConflict, "username or email already registered")
			return
		}
		s.internalError(w, "create user", err)
		return
	}
	s.issueToken(w, http.StatusCreated, user)
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginInput
	if !decodeBody(w, r, &in) {
		return
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if !s.validate(w, in) {
		return
	}
	user, hash, err := db.GetCredentials(r.Context(), s.db, in.Email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		s.internalError(w, "load credentials", err)
		return
	}
	if err := auth.CheckPassword(hash, in.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	s.issueToken(w, http.StatusOK, user)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"user": currentUser(r.Context())})
}

func (s *Server) issueToken(w http.ResponseWriter, status int, user *models.User) {
	token, err := s.issuer.Issue(user.ID, user.Username)
	if err != nil {
		s.internalError(w, "issue token", err)
		return
	}
	s.users.Add(user.ID, user)
	writeJSON(w, status, models.AuthResponse{Token: token, User: *user})
}
