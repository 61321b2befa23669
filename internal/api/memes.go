package api

import (
	"net/http"

	"memeshare/internal/db"
	"memeshare/internal/models"
)

func (s *Server) listMemes(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r, models.MemeSorts, "owner")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	memes, total, err := db.ListMemes(r.Context(), s.db, p)
	if err != nil {
		s.internalError(w, "list memes", err)
		return
	}
	writeList(w, "memes", memes, p, total)
}

func (s *Server) getMeme(w http.ResponseWriter, r *http.Request) {
	meme, err := db.ViewMeme(r.Context(), s.db, idParam(r), viewerID(r))
	if err != nil {
		s.writeStoreError(w, err, "meme")
		return
	}
	writeJSON(w, http.StatusOK, meme)
}

func (s *Server) createMeme(w http.ResponseWriter, r *http.Request) {
	var in models.MemeInput
	if !decodeBody(w, r, &in) || !s.validate(w, in) {
		return
	}
	meme, err := db.CreateMeme(r.Context(), s.db, viewerID(r), in)
	if err != nil {
		s.internalError(w, "create meme", err)
		return
	}
	mutated("meme", "create")
	writeJSON(w, http.StatusCreated, meme)
}

func (s *Server) deleteMeme(w http.ResponseWriter, r *http.Request) {
	if err := db.DeleteMeme(r.Context(), s.db, idParam(r), viewerID(r)); err != nil {
		s.writeStoreError(w, err, "meme")
		return
	}
	mutated("meme", "delete")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) likeMeme(w http.ResponseWriter, r *http.Request) {
	meme, err := db.ToggleMemeLike(r.Context(), s.db, idParam(r), viewerID(r))
	if err != nil {
		s.writeStoreError(w, err, "meme")
		return
	}
	mutated("meme", "like")
	writeJSON(w, http.StatusOK, meme)
}
