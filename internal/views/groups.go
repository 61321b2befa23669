package views

import (
	"context"

	"memeshare/internal/cli/client"
	"memeshare/internal/forms"
	"memeshare/internal/models"
	"memeshare/internal/resource"
)

type Groups struct {
	List *resource.Controller[models.Group]

	cl *client.Client
}

func NewGroups(cl *client.Client, opts ...Option) *Groups {
	o := buildOptions(opts)
	return &Groups{
		List: resource.NewController(cl.ListGroups, o.controller(models.GroupSorts)...),
		cl:   cl,
	}
}

func (v *Groups) Create(ctx context.Context, sub *forms.Submitter, in models.GroupInput, onClose func()) (models.Group, error) {
	return submitCreate(ctx, sub, in, func(ctx context.Context) (models.Group, error) {
		return resource.MutateResult(ctx, v.List, func(ctx context.Context) (models.Group, error) {
			return v.cl.CreateGroup(ctx, in)
		}, nil)
	}, onClose)
}

func (v *Groups) Update(ctx context.Context, sub *forms.Submitter, id string, in models.GroupInput, onClose func()) (models.Group, error) {
	return submitCreate(ctx, sub, in, func(ctx context.Context) (models.Group, error) {
		return resource.MutateResult(ctx, v.List, func(ctx context.Context) (models.Group, error) {
			return v.cl.UpdateGroup(ctx, id, in)
		}, resource.ReplaceByID[models.Group])
	}, onClose)
}

func (v *Groups) Join(ctx context.Context, id string) (models.Group, error) {
	return resource.MutateResult(ctx, v.List, func(ctx context.Context) (models.Group, error) {
		return v.cl.JoinGroup(ctx, id)
	}, resource.ReplaceByID[models.Group])
}

func (v *Groups) Leave(ctx context.Context, id string) (models.Group, error) {
	return resource.MutateResult(ctx, v.List, func(ctx context.Context) (models.Group, error) {
		return v.cl.LeaveGroup(ctx, id)
	}, resource.ReplaceByID[models.Group])
}

func (v *Groups) Delete(ctx context.Context, id string) error {
	return resource.Mutate(ctx, v.List, func(ctx context.Context) error {
		return v.cl.DeleteGroup(ctx, id)
	}, resource.RemoveByID[models.Group](id))
}
