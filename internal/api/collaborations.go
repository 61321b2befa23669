package api

import (
	"net/http"

	"memeshare/internal/db"
	"memeshare/internal/models"
)

func (s *Server) listCollaborations(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r, models.CollaborationSorts, "type", "status")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if t := p.Filters["type"]; t != "" && !models.Contains(models.CollaborationTypes, t) {
		writeError(w, http.StatusBadRequest, "unknown collaboration type "+t)
		return
	}
	collabs, total, err := db.ListCollaborations(r.Context(), s.db, p)
	if err != nil {
		s.internalError(w, "list collaborations", err)
		return
	}
	writeList(w, "collaborations", collabs, p, total)
}

func (s *Server) listInvites(w http.ResponseWriter, r *http.Request) {
	invites, err := db.ListInvites(r.Context(), s.db, viewerID(r))
	if err != nil {
		s.internalError(w, "list invites", err)
		return
	}
	if invites == nil {
		invites = []models.CollaborationInvite{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"invites": invites})
}

func (s *Server) getCollaboration(w http.ResponseWriter, r *http.Request) {
	collab, err := db.GetCollaboration(r.Context(), s.db, idParam(r), viewerID(r))
	if err != nil {
		s.writeStoreError(w, err, "collaboration")
		return
	}
	writeJSON(w, http.StatusOK, collab)
}

func (s *Server) createCollaboration(w http.ResponseWriter, r *http.Request) {
	var in models.CollaborationInput
	if !decodeBody(w, r, &in) || !s.validate(w, in) {
		return
	}
	collab, err := db.CreateCollaboration(r.Context(), s.db, viewerID(r), in)
	if err != nil {
		s.writeStoreError(w, err, "collaboration")
		return
	}
	mutated("collaboration", "create")
	writeJSON(w, http.StatusCreated, collab)
}

func (s *Server) updateCollaboration(w http.ResponseWriter, r *http.Request) {
	var in models.CollaborationUpdate
	if !decodeBody(w, r, &in) || !s.validate(w, in) {
		return
	}
	collab, err := db.UpdateCollaboration(r.Context(), s.db, idParam(r), viewerID(r), in)
	if err != nil {
		s.writeStoreError(w, err, "collaboration")
		return
	}
	mutated("collaboration", "update")
	writeJSON(w, http.StatusOK, collab)
}

func (s *Server) deleteCollaboration(w http.ResponseWriter, r *http.Request) {
	if err := db.DeleteCollaboration(r.Context(), s.db, idParam(r), viewerID(r)); err != nil {
		s.writeStoreError(w, err, "collaboration")
		return
	}
	mutated("collaboration", "delete")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) respondToInvite(accept bool) http.HandlerFunc {
	action := "accept"
	if !accept {
		action = "decline"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.RespondToInvite(r.Context(), s.db, idParam(r), viewerID(r), accept); err != nil {
			s.writeStoreError(w, err, "invite")
			return
		}
		mutated("invite", action)
		w.WriteHeader(http.StatusNoContent)
	}
}
