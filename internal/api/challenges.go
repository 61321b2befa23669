package api

import (
	"net/http"

	"memeshare/internal/db"
	"memeshare/internal/models"
)

func (s *Server) listChallenges(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r, models.ChallengeSorts, "category", "status")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if st := p.Filters["status"]; st != "" && !models.Contains(models.ChallengeStatuses, st) {
		writeError(w, http.StatusBadRequest, "status must be one of upcoming, active, ended")
		return
	}
	challenges, total, err := db.ListChallenges(r.Context(), s.db, p, s.now().UTC())
	if err != nil {
		s.internalError(w, "list challenges", err)
		return
	}
	writeList(w, "challenges", challenges, p, total)
}

func (s *Server) getChallenge(w http.ResponseWriter, r *http.Request) {
	challenge, err := db.GetChallenge(r.Context(), s.db, idParam(r), viewerID(r))
	if err != nil {
		s.writeStoreError(w, err, "challenge")
		return
	}
	writeJSON(w, http.StatusOK, challenge)
}

func (s *Server) createChallenge(w http.ResponseWriter, r *http.Request) {
	var in models.ChallengeInput
	if !decodeBody(w, r, &in) || !s.validate(w, in) {
		return
	}
	challenge, err := db.CreateChallenge(r.Context(), s.db, viewerID(r), in)
	if err != nil {
		s.writeStoreError(w, err, "challenge")
		return
	}
	mutated("challenge", "create")
	writeJSON(w, http.StatusCreated, challenge)
}

func (s *Server) updateChallenge(w http.ResponseWriter, r *http.Request) {
	var in models.ChallengeInput
	if !decodeBody(w, r, &in) || !s.validate(w, in) {
		return
	}
	challenge, err := db.UpdateChallenge(r.Context(), s.db, idParam(r), viewerID(r), in)
	if err != nil {
		s.writeStoreError(w, err, "challenge")
		return
	}
	mutated("challenge", "update")
	writeJSON(w, http.StatusOK, challenge)
}

func (s *Server) deleteChallenge(w http.ResponseWriter, r *http.Request) {
	if err := db.DeleteChallenge(r.Context(), s.db, idParam(r), viewerID(r)); err != nil {
		s.writeStoreError(w, err, "challenge")
		return
	}
	mutated("challenge", "delete")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) joinChallenge(w http.ResponseWriter, r *http.Request) {
	challenge, err := db.JoinChallenge(r.Context(), s.db, idParam(r), viewerID(r), s.now().UTC())
	if err != nil {
		s.writeStoreError(w, err, "challenge")
		return
	}
	mutated("challenge", "join")
	writeJSON(w, http.StatusOK, challenge)
}
