package models

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidTransition = errors.New("invalid status transition")

type CollaborationStatus string

const (
	StatusDraft     CollaborationStatus = "draft"
	StatusActive    CollaborationStatus = "active"
	StatusReviewing CollaborationStatus = "reviewing"
	StatusCompleted CollaborationStatus = "completed"
)

// collaborationTransitions lists the legal status moves. Reviewing never goes
// back to active.
var collaborationTransitions = map[CollaborationStatus][]CollaborationStatus{
	StatusDraft:     {StatusActive},
	StatusActive:    {StatusReviewing},
	StatusReviewing: {StatusCompleted},
}

func ParseCollaborationStatus(raw string) (CollaborationStatus, error) {
	s := CollaborationStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown collaboration status %q", raw)
	}
	return s, nil
}

func (s CollaborationStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusReviewing, StatusCompleted:
		return true
	}
	return false
}

func (s CollaborationStatus) CanTransition(to CollaborationStatus) bool {
	for _, next := range collaborationTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns an error wrapping ErrInvalidTransition when the move
// from s to to is not in the transition table.
func (s CollaborationStatus) CheckTransition(to CollaborationStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown target status %q", ErrInvalidTransition, to)
	}
	if !s.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, to)
	}
	return nil
}

const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
	RoleViewer = "viewer"

	InvitePending  = "pending"
	InviteAccepted = "accepted"
	InviteDeclined = "declined"
)

var CollaboratorRoles = []string{RoleEditor, RoleViewer}

type Collaborator struct {
	User         Owner  `json:"user"`
	Role         string `json:"role"`
	InviteStatus string `json:"inviteStatus"`
}

type Collaboration struct {
	ID            string              `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description,omitempty"`
	Type          string              `json:"type"`
	Status        CollaborationStatus `json:"status"`
	IsPublic      bool                `json:"isPublic"`
	Collaborators []Collaborator      `json:"collaborators"`
	Owner         *Owner              `json:"owner,omitempty"`
	Created       string              `json:"created"`
	Updated       string              `json:"updated,omitempty"`
}

func (c Collaboration) GetID() string { return c.ID }

type CollaborationInvite struct {
	CollaborationID string `json:"collaborationId"`
	Title           string `json:"title"`
	Type            string `json:"type"`
	Role            string `json:"role"`
	InvitedBy       Owner  `json:"invitedBy"`
	Created         string `json:"created"`
}

func (i CollaborationInvite) GetID() string { return i.CollaborationID }

type CollaborationUpdate struct {
	Title       *string              `json:"title,omitempty" validate:"omitempty,notblank,max=100"`
	Description *string              `json:"description,omitempty" validate:"omitempty,max=1000"`
	Status      *CollaborationStatus `json:"status,omitempty"`
	IsPublic    *bool                `json:"isPublic,omitempty"`
}
