package api

import (
	"net/http"

	"memeshare/internal/db"
	"memeshare/internal/models"
)

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r, models.GroupSorts, "category")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	groups, total, err := db.ListGroups(r.Context(), s.db, p)
	if err != nil {
		s.internalError(w, "list groups", err)
		return
	}
	writeList(w, "groups", groups, p, total)
}

func (s *Server) getGroup(w http.ResponseWriter, r *http.Request) {
	group, err := db.GetGroup(r.Context(), s.db, idParam(r), viewerID(r))
	if err != nil {
		s.writeStoreError(w, err, "group")
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	var in models.GroupInput
	if !decodeBody(w, r, &in) || !s.validate(w, in) {
		return
	}
	group, err := db.CreateGroup(r.Context(), s.db, viewerID(r), in)
	if err != nil {
		s.writeStoreError(w, err, "group")
		return
	}
	mutated("group", "create")
	writeJSON(w, http.StatusCreated, group)
}

func (s *Server) updateGroup(w http.ResponseWriter, r *http.Request) {
	var in models.GroupInput
	if !decodeBody(w, r, &in) || !s.validate(w, in) {
		return
	}
	group, err := db.UpdateGroup(r.Context(), s.db, idParam(r), viewerID(r), in)
	if err != nil {
		s.writeStoreError(w, err, "group")
		return
	}
	mutated("group", "update")
	writeJSON(w, http.StatusOK, group)
}

func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := db.DeleteGroup(r.Context(), s.db, idParam(r), viewerID(r)); err != nil {
		s.writeStoreError(w, err, "group")
		return
	}
	mutated("group", "delete")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) groupMembership(join bool) http.HandlerFunc {
	action := "join"
	if !join {
		action = "leave"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		group, err := db.SetGroupMember(r.Context(), s.db, idParam(r), viewerID(r), join)
		if err != nil {
			s.writeStoreError(w, err, "group")
			return
		}
		mutated("group", action)
		writeJSON(w, http.StatusOK, group)
	}
}
