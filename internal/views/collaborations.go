package views

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"memeshare/internal/cli/client"
	"memeshare/internal/forms"
	"memeshare/internal/models"
	"memeshare/internal/resource"
)

type Collaborations struct {
	List *resource.Controller[models.Collaboration]

	cl     *client.Client
	logger *zap.Logger

	mu      sync.Mutex
	invites []models.CollaborationInvite
}

func NewCollaborations(cl *client.Client, opts ...Option) *Collaborations {
	o := buildOptions(opts)
	return &Collaborations{
		List:   resource.NewController(cl.ListCollaborations, o.controller(models.CollaborationSorts)...),
		cl:     cl,
		logger: o.logger,
	}
}

func (v *Collaborations) LoadInvites(ctx context.Context) error {
	invites, err := v.cl.ListInvites(ctx)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.invites = invites
	v.mu.Unlock()
	return nil
}

func (v *Collaborations) Invites() []models.CollaborationInvite {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.invites)
}

// AcceptInvite accepts and then reloads both the invites and the
// collaboration list, since membership changes what the list contains.
func (v *Collaborations) AcceptInvite(ctx context.Context, collaborationID string) error {
	return v.answerInvite(ctx, collaborationID, v.cl.AcceptInvite)
}

func (v *Collaborations) DeclineInvite(ctx context.Context, collaborationID string) error {
	return v.answerInvite(ctx, collaborationID, v.cl.DeclineInvite)
}

func (v *Collaborations) answerInvite(ctx context.Context, id string, call func(context.Context, string) error) error {
	if err := resource.Mutate(ctx, v.List, func(ctx context.Context) error {
		return call(ctx, id)
	}, nil); err != nil {
		return err
	}
	return v.LoadInvites(ctx)
}

func (v *Collaborations) Create(ctx context.Context, sub *forms.Submitter, in models.CollaborationInput, onClose func()) (models.Collaboration, error) {
	return submitCreate(ctx, sub, in, func(ctx context.Context) (models.Collaboration, error) {
		return resource.MutateResult(ctx, v.List, func(ctx context.Context) (models.Collaboration, error) {
			return v.cl.CreateCollaboration(ctx, in)
		}, nil)
	}, onClose)
}

// Transition moves a collaboration to status to. The current status is read
// from the server, and moves outside the transition table are refused before
// the update is sent.
func (v *Collaborations) Transition(ctx context.Context, id string, to models.CollaborationStatus) (models.Collaboration, error) {
	return v.transition(ctx, id, to, models.CollaborationUpdate{Status: &to})
}

// Publish takes a draft live: status active and public, in one PATCH.
func (v *Collaborations) Publish(ctx context.Context, id string) (models.Collaboration, error) {
	to := models.StatusActive
	public := true
	return v.transition(ctx, id, to, models.CollaborationUpdate{Status: &to, IsPublic: &public})
}

func (v *Collaborations) transition(ctx context.Context, id string, to models.CollaborationStatus, upd models.CollaborationUpdate) (models.Collaboration, error) {
	current, err := v.cl.GetCollaboration(ctx, id)
	if err != nil {
		return models.Collaboration{}, err
	}
	v.List.Patch(resource.ReplaceByID(current))
	if current.Status != to {
		if err := current.Status.CheckTransition(to); err != nil {
			return current, err
		}
	}
	updated, err := resource.MutateResult(ctx, v.List, func(ctx context.Context) (models.Collaboration, error) {
		return v.cl.UpdateCollaboration(ctx, id, upd)
	}, resource.ReplaceByID[models.Collaboration])
	if err == nil && current.Status != to {
		v.logger.Debug("collaboration status changed",
			zap.String("id", id), zap.String("from", string(current.Status)), zap.String("to", string(to)))
	}
	return updated, err
}

func (v *Collaborations) Update(ctx context.Context, id string, upd models.CollaborationUpdate) (models.Collaboration, error) {
	if upd.Status != nil {
		return v.transition(ctx, id, *upd.Status, upd)
	}
	return resource.MutateResult(ctx, v.List, func(ctx context.Context) (models.Collaboration, error) {
		return v.cl.UpdateCollaboration(ctx, id, upd)
	}, resource.ReplaceByID[models.Collaboration])
}

func (v *Collaborations) Delete(ctx context.Context, id string) error {
	return resource.Mutate(ctx, v.List, func(ctx context.Context) error {
		return v.cl.DeleteCollaboration(ctx, id)
	}, resource.RemoveByID[models.Collaboration](id))
}
