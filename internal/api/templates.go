package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"memeshare/internal/db"
	"memeshare/internal/forms"
	"memeshare/internal/metrics"
	"memeshare/internal/models"
)

const templateUploadPrefix = "/uploads/templates/"

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r, models.TemplateSorts, "category", "owner")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	templates, total, err := db.ListTemplates(r.Context(), s.db, p)
	if err != nil {
		s.internalError(w, "list templates", err)
		return
	}
	writeList(w, "templates", templates, p, total)
}

func (s *Server) listFavoriteTemplates(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r, models.TemplateSorts, "category")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	templates, total, err := db.ListFavoriteTemplates(r.Context(), s.db, p)
	if err != nil {
		s.internalError(w, "list favorite templates", err)
		return
	}
	writeList(w, "templates", templates, p, total)
}

func (s *Server) getTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := db.GetTemplate(r.Context(), s.db, idParam(r), viewerID(r))
	if err != nil {
		s.writeStoreError(w, err, "template")
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

// createTemplate accepts a multipart form with the image under "image" and
// the metadata as plain fields; textAreas is a JSON array.
func (s *Server) createTemplate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+maxJSONBody)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	up, ok := s.readTemplateUpload(w, r)
	if !ok || !s.validate(w, up) {
		return
	}
	if int64(len(up.Image)) > s.cfg.MaxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}

	imageURL, err := s.storeTemplateImage(up.Image)
	if err != nil {
		s.internalError(w, "store template image", err)
		return
	}
	tmpl, err := db.CreateTemplate(r.Context(), s.db, viewerID(r), up.Input, imageURL)
	if err != nil {
		s.removeUpload(imageURL)
		s.internalError(w, "create template", err)
		return
	}
	metrics.UploadBytes.Observe(float64(len(up.Image)))
	mutated("template", "create")
	writeJSON(w, http.StatusCreated, tmpl)
}

func (s *Server) readTemplateUpload(w http.ResponseWriter, r *http.Request) (forms.TemplateUpload, bool) {
	up := forms.TemplateUpload{
		Input: models.TemplateInput{
			Name:        strings.TrimSpace(r.FormValue("name")),
			Category:    strings.TrimSpace(r.FormValue("category")),
			Description: strings.TrimSpace(r.FormValue("description")),
		},
	}
	if raw := r.FormValue("textAreas"); strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &up.Input.TextAreas); err != nil {
			writeError(w, http.StatusBadRequest, "textAreas must be a JSON array")
			return up, false
		}
	}
	if raw := r.FormValue("isPublic"); raw != "" {
		public, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "isPublic must be true or false")
			return up, false
		}
		up.Input.IsPublic = public
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			// Validation reports the missing image next to the other fields.
			return up, true
		}
		writeError(w, http.StatusBadRequest, "invalid image upload")
		return up, false
	}
	defer file.Close()
	up.Filename = header.Filename
	up.Image, err = io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid image upload")
		return up, false
	}
	return up, true
}

func (s *Server) storeTemplateImage(image []byte) (string, error) {
	dir := filepath.Join(s.cfg.UploadDir, "templates")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString() + mimetype.Detect(image).Extension()
	if err := os.WriteFile(filepath.Join(dir, name), image, 0o644); err != nil {
		return "", err
	}
	return templateUploadPrefix + name, nil
}

func (s *Server) removeUpload(imageURL string) {
	if !strings.HasPrefix(imageURL, templateUploadPrefix) {
		return
	}
	name := filepath.Base(strings.TrimPrefix(imageURL, templateUploadPrefix))
	path := filepath.Join(s.cfg.UploadDir, "templates", name)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("remove upload failed", zap.String("path", path), zap.Error(err))
	}
}

func (s *Server) updateTemplate(w http.ResponseWriter, r *http.Request) {
	var in models.TemplateUpdate
	if !decodeBody(w, r, &in) || !s.validate(w, in) {
		return
	}
	tmpl, err := db.UpdateTemplate(r.Context(), s.db, idParam(r), viewerID(r), in)
	if err != nil {
		s.writeStoreError(w, err, "template")
		return
	}
	mutated("template", "update")
	writeJSON(w, http.StatusOK, tmpl)
}

func (s *Server) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	imageURL, err := db.DeleteTemplate(r.Context(), s.db, idParam(r), viewerID(r))
	if err != nil {
		s.writeStoreError(w, err, "template")
		return
	}
	s.removeUpload(imageURL)
	mutated("template", "delete")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) favoriteTemplate(favorite bool) http.HandlerFunc {
	action := "favorite"
	if !favorite {
		action = "unfavorite"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.SetTemplateFavorite(r.Context(), s.db, idParam(r), viewerID(r), favorite); err != nil {
			s.writeStoreError(w, err, "template")
			return
		}
		mutated("template", action)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) countTemplate(counter string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tmpl, err := db.CountTemplateUsage(r.Context(), s.db, idParam(r), viewerID(r), counter)
		if err != nil {
			s.writeStoreError(w, err, "template")
			return
		}
		writeJSON(w, http.StatusOK, tmpl)
	}
}

func (s *Server) rateTemplate(w http.ResponseWriter, r *http.Request) {
	var in models.RateInput
	if !decodeBody(w, r, &in) || !s.validate(w, in) {
		return
	}
	tmpl, err := db.RateTemplate(r.Context(), s.db, idParam(r), viewerID(r), in.Rating)
	if err != nil {
		s.writeStoreError(w, err, "template")
		return
	}
	mutated("template", "rate")
	writeJSON(w, http.StatusOK, tmpl)
}
