package views

import (
	"context"

	"memeshare/internal/cli/client"
	"memeshare/internal/forms"
	"memeshare/internal/models"
	"memeshare/internal/resource"
)

type Memes struct {
	List *resource.Controller[models.Meme]

	cl *client.Client
}

func NewMemes(cl *client.Client, opts ...Option) *Memes {
	o := buildOptions(opts)
	return &Memes{
		List: resource.NewController(cl.ListMemes, o.controller(models.MemeSorts)...),
		cl:   cl,
	}
}

func (v *Memes) Create(ctx context.Context, sub *forms.Submitter, in models.MemeInput, onClose func()) (models.Meme, error) {
	return submitCreate(ctx, sub, in, func(ctx context.Context) (models.Meme, error) {
		return resource.MutateResult(ctx, v.List, func(ctx context.Context) (models.Meme, error) {
			return v.cl.CreateMeme(ctx, in)
		}, resource.Prepend[models.Meme])
	}, onClose)
}

func (v *Memes) Like(ctx context.Context, id string) (models.Meme, error) {
	return resource.MutateResult(ctx, v.List, func(ctx context.Context) (models.Meme, error) {
		return v.cl.LikeMeme(ctx, id)
	}, resource.ReplaceByID[models.Meme])
}

func (v *Memes) Delete(ctx context.Context, id string) error {
	return resource.Mutate(ctx, v.List, func(ctx context.Context) error {
		return v.cl.DeleteMeme(ctx, id)
	}, resource.RemoveByID[models.Meme](id))
}

// AddToFolder is the "add to folder" dialog opened from a meme.
func (v *Memes) AddToFolder(ctx context.Context, sub *forms.Submitter, folderID string, memeIDs []string, onClose func()) (models.Folder, error) {
	return submitCreate(ctx, sub, models.AddMemesInput{MemeIDs: memeIDs}, func(ctx context.Context) (models.Folder, error) {
		return v.cl.AddMemesToFolder(ctx, folderID, memeIDs)
	}, onClose)
}
