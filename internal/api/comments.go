package api

import (
	"net/http"

	"memeshare/internal/db"
	"memeshare/internal/models"
)

type commentEdit struct {
	Content string `json:"content" validate:"required,notblank,max=1000"`
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r, models.CommentSorts, "memeId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	comments, total, err := db.ListComments(r.Context(), s.db, p)
	if err != nil {
		s.internalError(w, "list comments", err)
		return
	}
	writeList(w, "comments", comments, p, total)
}

func (s *Server) listReplies(w http.ResponseWriter, r *http.Request) {
	sorts := []string{"oldest", "newest", "popular"}
	p, err := listParams(r, sorts)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	replies, total, err := db.ListReplies(r.Context(), s.db, idParam(r), p)
	if err != nil {
		s.writeStoreError(w, err, "comment")
		return
	}
	writeList(w, "comments", replies, p, total)
}

func (s *Server) getComment(w http.ResponseWriter, r *http.Request) {
	comment, err := db.GetComment(r.Context(), s.db, idParam(r), viewerID(r))
	if err != nil {
		s.writeStoreError(w, err, "comment")
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	var in models.CommentInput
	if !decodeBody(w, r, &in) || !s.validate(w, in) {
		return
	}
	comment, err := db.CreateComment(r.Context(), s.db, viewerID(r), in)
	if err != nil {
		s.writeStoreError(w, err, "comment")
		return
	}
	action := "create"
	if in.ParentComment != nil && *in.ParentComment != "" {
		action = "reply"
	}
	mutated("comment", action)
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) updateComment(w http.ResponseWriter, r *http.Request) {
	var in commentEdit
	if !decodeBody(w, r, &in) || !s.validate(w, in) {
		return
	}
	comment, err := db.UpdateComment(r.Context(), s.db, idParam(r), viewerID(r), in.Content)
	if err != nil {
		s.writeStoreError(w, err, "comment")
		return
	}
	mutated("comment", "update")
	writeJSON(w, http.StatusOK, comment)
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	if err := db.DeleteComment(r.Context(), s.db, idParam(r), viewerID(r)); err != nil {
		s.writeStoreError(w, err, "comment")
		return
	}
	mutated("comment", "delete")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) likeComment(w http.ResponseWriter, r *http.Request) {
	comment, err := db.ToggleCommentLike(r.Context(), s.db, idParam(r), viewerID(r))
	if err != nil {
		s.writeStoreError(w, err, "comment")
		return
	}
	mutated("comment", "like")
	writeJSON(w, http.StatusOK, comment)
}

func (s *Server) reportComment(w http.ResponseWriter, r *http.Request) {
	var in models.ReportInput
	if !decodeBody(w, r, &in) || !s.validate(w, in) {
		return
	}
	report, err := db.ReportComment(r.Context(), s.db, idParam(r), viewerID(r), in)
	if err != nil {
		s.writeStoreError(w, err, "comment")
		return
	}
	mutated("comment", "report")
	writeJSON(w, http.StatusCreated, report)
}
