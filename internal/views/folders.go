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

// DefaultAvailableCap bounds how many memes FolderDetail.Available scans.
const DefaultAvailableCap = 500

const availablePageSize = 100

type Folders struct {
	List *resource.Controller[models.Folder]

	cl     *client.Client
	logger *zap.Logger
}

func NewFolders(cl *client.Client, opts ...Option) *Folders {
	o := buildOptions(opts)
	return &Folders{
		List:   resource.NewController(cl.ListFolders, o.controller(models.FolderSorts)...),
		cl:     cl,
		logger: o.logger,
	}
}

func (v *Folders) Create(ctx context.Context, sub *forms.Submitter, in models.FolderInput, onClose func()) (models.Folder, error) {
	return submitCreate(ctx, sub, in, func(ctx context.Context) (models.Folder, error) {
		return resource.MutateResult(ctx, v.List, func(ctx context.Context) (models.Folder, error) {
			return v.cl.CreateFolder(ctx, in)
		}, resource.Prepend[models.Folder])
	}, onClose)
}

func (v *Folders) Update(ctx context.Context, id string, in models.FolderUpdate) (models.Folder, error) {
	return resource.MutateResult(ctx, v.List, func(ctx context.Context) (models.Folder, error) {
		return v.cl.UpdateFolder(ctx, id, in)
	}, resource.ReplaceByID[models.Folder])
}

func (v *Folders) Delete(ctx context.Context, id string) error {
	return resource.Mutate(ctx, v.List, func(ctx context.Context) error {
		return v.cl.DeleteFolder(ctx, id)
	}, resource.RemoveByID[models.Folder](id))
}

// FolderDetail is one folder with its memes and the add/remove actions.
type FolderDetail struct {
	cl     *client.Client
	id     string
	cap    int
	logger *zap.Logger

	mu     sync.Mutex
	folder models.Folder
}

// Available is the result of scanning the meme catalog for memes not yet in
// the folder. Truncated is set when the scan stopped at the cap.
type Available struct {
	Memes     []models.Meme
	Scanned   int
	Truncated bool
}

func NewFolderDetail(cl *client.Client, folderID string, opts ...Option) *FolderDetail {
	o := buildOptions(opts)
	return &FolderDetail{cl: cl, id: folderID, cap: DefaultAvailableCap, logger: o.logger}
}

// WithAvailableCap overrides how many memes Available may scan.
func (d *FolderDetail) WithAvailableCap(n int) *FolderDetail {
	if n > 0 {
		d.cap = n
	}
	return d
}

func (d *FolderDetail) Load(ctx context.Context) error {
	f, err := d.cl.GetFolder(ctx, d.id)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.folder = f
	d.mu.Unlock()
	return nil
}

func (d *FolderDetail) Folder() models.Folder {
	d.mu.Lock()
	defer d.mu.Unlock()
	f := d.folder
	f.Memes = slices.Clone(d.folder.Memes)
	return f
}

// AddMemes adds memeIDs in one call and then reloads the folder, since the
// embedded memes come back from the server.
func (d *FolderDetail) AddMemes(ctx context.Context, memeIDs []string) error {
	in := models.AddMemesInput{MemeIDs: memeIDs}
	if err := forms.NewValidator().Check(in, timeNow()); err != nil {
		return err
	}
	if _, err := d.cl.AddMemesToFolder(ctx, d.id, memeIDs); err != nil {
		return err
	}
	return d.Load(ctx)
}

// RemoveMeme removes one meme and patches the local folder on success.
func (d *FolderDetail) RemoveMeme(ctx context.Context, memeID string) error {
	if err := d.cl.RemoveMemeFromFolder(ctx, d.id, memeID); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	before := len(d.folder.Memes)
	d.folder.Memes = slices.DeleteFunc(d.folder.Memes, func(m models.Meme) bool { return m.ID == memeID })
	if removed := before - len(d.folder.Memes); removed > 0 {
		d.folder.MemeCount = max(0, d.folder.MemeCount-removed)
	}
	return nil
}

// Available pages through the meme catalog and returns the memes not in the
// folder, scanning at most the configured cap.
func (d *FolderDetail) Available(ctx context.Context) (Available, error) {
	folder := d.Folder()
	limit := min(availablePageSize, d.cap)
	var out Available
	for page := 1; ; page++ {
		res, err := d.cl.ListMemes(ctx, resource.Query{Page: page, Limit: limit, Sort: "newest"})
		if err != nil {
			return out, err
		}
		items := res.Items
		if room := d.cap - out.Scanned; len(items) > room {
			items = items[:room]
		}
		for _, m := range items {
			if !folder.Contains(m.ID) {
				out.Memes = append(out.Memes, m)
			}
		}
		out.Scanned += len(items)
		more := page < res.TotalPages && len(res.Items) > 0
		if !more && len(items) == len(res.Items) {
			return out, nil
		}
		if out.Scanned >= d.cap {
			out.Truncated = true
			d.logger.Warn("available memes scan truncated",
				zap.String("folder", d.id), zap.Int("cap", d.cap), zap.Int("total", res.Total))
			return out, nil
		}
	}
}
