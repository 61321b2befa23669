package views

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"memeshare/internal/cli/client"
	"memeshare/internal/forms"
	"memeshare/internal/models"
	"memeshare/internal/resource"
)

// Templates is the template gallery: a filterable list plus the caller's
// favorite set.
type Templates struct {
	List *resource.Controller[models.Template]

	cl            *client.Client
	logger        *zap.Logger
	favoritesOnly bool

	mu        sync.Mutex
	favorites map[string]bool
}

func NewTemplates(cl *client.Client, opts ...Option) *Templates {
	return newTemplates(cl, cl.ListTemplates, false, opts)
}

// NewFavoriteTemplates lists only the caller's favorites. Unfavoriting a
// template removes it from this list.
func NewFavoriteTemplates(cl *client.Client, opts ...Option) *Templates {
	return newTemplates(cl, cl.ListFavoriteTemplates, true, opts)
}

func newTemplates(cl *client.Client, fetch resource.FetchFunc[models.Template], favoritesOnly bool, opts []Option) *Templates {
	o := buildOptions(opts)
	v := &Templates{
		cl:            cl,
		logger:        o.logger,
		favoritesOnly: favoritesOnly,
		favorites:     map[string]bool{},
	}
	v.List = resource.NewController(fetch, o.controller(models.TemplateSorts)...)
	v.List.Subscribe(v.syncFavorites)
	return v
}

// syncFavorites seeds the favorite set from a freshly loaded page.
func (v *Templates) syncFavorites(s resource.State[models.Template]) {
	if s.Loading || s.Err != nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, t := range s.Items {
		v.favorites[t.ID] = t.IsFavorited || v.favoritesOnly
	}
}

func (v *Templates) IsFavorite(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.favorites[id]
}

// ToggleFavorite favorites or unfavorites id depending on the current set and
// returns the new membership. The set changes only after the server agrees.
func (v *Templates) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	if v.IsFavorite(id) {
		return false, v.SetFavorite(ctx, id, false)
	}
	return true, v.SetFavorite(ctx, id, true)
}

// SetFavorite puts id in or out of the favorite set regardless of what is
// known locally.
func (v *Templates) SetFavorite(ctx context.Context, id string, fav bool) error {
	call := v.cl.UnfavoriteTemplate
	delta := -1
	if fav {
		call = v.cl.FavoriteTemplate
		delta = 1
	}
	patch := resource.UpdateByID[models.Template](id, func(t *models.Template) {
		t.IsFavorited = fav
		t.Stats.Favorites = max(0, t.Stats.Favorites+delta)
	})
	if v.favoritesOnly && !fav {
		patch = resource.RemoveByID[models.Template](id)
	}
	err := resource.Mutate(ctx, v.List, func(ctx context.Context) error {
		return call(ctx, id)
	}, patch)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.favorites[id] = fav
	v.mu.Unlock()
	v.logger.Debug("favorite toggled", zap.String("template", id), zap.Bool("favorite", fav))
	return nil
}

// Favorites returns the ids currently in the favorite set.
func (v *Templates) Favorites() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, 0, len(v.favorites))
	for id, fav := range v.favorites {
		if fav {
			out = append(out, id)
		}
	}
	return out
}

func (v *Templates) Delete(ctx context.Context, id string) error {
	return resource.Mutate(ctx, v.List, func(ctx context.Context) error {
		return v.cl.DeleteTemplate(ctx, id)
	}, resource.RemoveByID[models.Template](id))
}

// Download records the download and streams the image into w.
func (v *Templates) Download(ctx context.Context, id string, w io.Writer) (models.Template, error) {
	tpl, err := resource.MutateResult(ctx, v.List, func(ctx context.Context) (models.Template, error) {
		return v.cl.DownloadTemplate(ctx, id)
	}, resource.ReplaceByID[models.Template])
	if err != nil {
		return tpl, err
	}
	if _, err := v.cl.Download(ctx, tpl.ImageURL, w); err != nil {
		return tpl, fmt.Errorf("fetch image: %w", err)
	}
	return tpl, nil
}

func (v *Templates) Use(ctx context.Context, id string) (models.Template, error) {
	return resource.MutateResult(ctx, v.List, func(ctx context.Context) (models.Template, error) {
		return v.cl.UseTemplate(ctx, id)
	}, resource.ReplaceByID[models.Template])
}

func (v *Templates) Rate(ctx context.Context, id string, rating int) (models.Template, error) {
	if err := forms.NewValidator().Check(models.RateInput{Rating: rating}, timeNow()); err != nil {
		return models.Template{}, err
	}
	return resource.MutateResult(ctx, v.List, func(ctx context.Context) (models.Template, error) {
		return v.cl.RateTemplate(ctx, id, rating)
	}, resource.ReplaceByID[models.Template])
}

// Create uploads a new template and reloads the gallery, since where it
// lands depends on the server-side sort.
func (v *Templates) Create(ctx context.Context, sub *forms.Submitter, up forms.TemplateUpload, onClose func()) (models.Template, error) {
	return submitCreate(ctx, sub, up, func(ctx context.Context) (models.Template, error) {
		return resource.MutateResult(ctx, v.List, func(ctx context.Context) (models.Template, error) {
			return v.cl.CreateTemplate(ctx, up.Input, up.Filename, bytesReader(up.Image))
		}, nil)
	}, onClose)
}

func (v *Templates) Update(ctx context.Context, id string, in models.TemplateUpdate) (models.Template, error) {
	return resource.MutateResult(ctx, v.List, func(ctx context.Context) (models.Template, error) {
		return v.cl.UpdateTemplate(ctx, id, in)
	}, resource.ReplaceByID[models.Template])
}
