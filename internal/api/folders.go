package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"memeshare/internal/db"
	"memeshare/internal/models"
)

func (s *Server) listFolders(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r, models.FolderSorts)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	folders, total, err := db.ListFolders(r.Context(), s.db, p)
	if err != nil {
		s.internalError(w, "list folders", err)
		return
	}
	writeList(w, "folders", folders, p, total)
}

func (s *Server) getFolder(w http.ResponseWriter, r *http.Request) {
	folder, err := db.GetFolder(r.Context(), s.db, idParam(r), viewerID(r))
	if err != nil {
		s.writeStoreError(w, err, "folder")
		return
	}
	writeJSON(w, http.StatusOK, folder)
}

func (s *Server) createFolder(w http.ResponseWriter, r *http.Request) {
	var in models.FolderInput
	if !decodeBody(w, r, &in) || !s.validate(w, in) {
		return
	}
	folder, err := db.CreateFolder(r.Context(), s.db, viewerID(r), in)
	if err != nil {
		s.writeStoreError(w, err, "folder")
		return
	}
	mutated("folder", "create")
	writeJSON(w, http.StatusCreated, folder)
}

func (s *Server) updateFolder(w http.ResponseWriter, r *http.Request) {
	var in models.FolderUpdate
	if !decodeBody(w, r, &in) || !s.validate(w, in) {
		return
	}
	folder, err := db.UpdateFolder(r.Context(), s.db, idParam(r), viewerID(r), in)
	if err != nil {
		s.writeStoreError(w, err, "folder")
		return
	}
	mutated("folder", "update")
	writeJSON(w, http.StatusOK, folder)
}

func (s *Server) deleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := db.DeleteFolder(r.Context(), s.db, idParam(r), viewerID(r)); err != nil {
		s.writeStoreError(w, err, "folder")
		return
	}
	mutated("folder", "delete")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addMemesToFolder(w http.ResponseWriter, r *http.Request) {
	var in models.AddMemesInput
	if !decodeBody(w, r, &in) || !s.validate(w, in) {
		return
	}
	folder, err := db.AddMemesToFolder(r.Context(), s.db, idParam(r), viewerID(r), in.MemeIDs)
	if err != nil {
		s.writeStoreError(w, err, "folder")
		return
	}
	mutated("folder", "add_memes")
	writeJSON(w, http.StatusOK, folder)
}

func (s *Server) removeMemeFromFolder(w http.ResponseWriter, r *http.Request) {
	memeID := chi.URLParam(r, "memeId")
	if err := db.RemoveMemeFromFolder(r.Context(), s.db, idParam(r), viewerID(r), memeID); err != nil {
		s.writeStoreError(w, err, "folder")
		return
	}
	mutated("folder", "remove_meme")
	w.WriteHeader(http.StatusNoContent)
}
