package views

import (
	"context"

	"memeshare/internal/cli/client"
	"memeshare/internal/forms"
	"memeshare/internal/models"
	"memeshare/internal/resource"
)

type Challenges struct {
	List *resource.Controller[models.Challenge]

	cl *client.Client
}

func NewChallenges(cl *client.Client, opts ...Option) *Challenges {
	o := buildOptions(opts)
	return &Challenges{
		List: resource.NewController(cl.ListChallenges, o.controller(models.ChallengeSorts)...),
		cl:   cl,
	}
}

// Create validates the dialog (the end date must lie in the future at
// submission time) and reloads the list on success.
func (v *Challenges) Create(ctx context.Context, sub *forms.Submitter, in models.ChallengeInput, onClose func()) (models.Challenge, error) {
	return submitCreate(ctx, sub, in, func(ctx context.Context) (models.Challenge, error) {
		return resource.MutateResult(ctx, v.List, func(ctx context.Context) (models.Challenge, error) {
			return v.cl.CreateChallenge(ctx, in)
		}, nil)
	}, onClose)
}

func (v *Challenges) Update(ctx context.Context, sub *forms.Submitter, id string, in models.ChallengeInput, onClose func()) (models.Challenge, error) {
	return submitCreate(ctx, sub, in, func(ctx context.Context) (models.Challenge, error) {
		return resource.MutateResult(ctx, v.List, func(ctx context.Context) (models.Challenge, error) {
			return v.cl.UpdateChallenge(ctx, id, in)
		}, resource.ReplaceByID[models.Challenge])
	}, onClose)
}

func (v *Challenges) Join(ctx context.Context, id string) (models.Challenge, error) {
	return resource.MutateResult(ctx, v.List, func(ctx context.Context) (models.Challenge, error) {
		return v.cl.JoinChallenge(ctx, id)
	}, resource.ReplaceByID[models.Challenge])
}

func (v *Challenges) Delete(ctx context.Context, id string) error {
	return resource.Mutate(ctx, v.List, func(ctx context.Context) error {
		return v.cl.DeleteChallenge(ctx, id)
	}, resource.RemoveByID[models.Challenge](id))
}
