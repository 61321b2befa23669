package views

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"memeshare/internal/cli/client"
	"memeshare/internal/forms"
	"memeshare/internal/models"
	"memeshare/internal/resource"
)

// Comments is the comment thread under one meme. Top-level comments arrive
// with one level of replies embedded; deeper pages come from Replies.
type Comments struct {
	List *resource.Controller[models.Comment]

	cl     *client.Client
	memeID string
	opts   options
	logger *zap.Logger
}

func NewComments(cl *client.Client, memeID string, opts ...Option) *Comments {
	o := buildOptions(opts)
	return &Comments{
		List:   resource.NewController(cl.ListComments, o.controller(models.CommentSorts, resource.WithFilter("memeId", memeID))...),
		cl:     cl,
		memeID: memeID,
		opts:   o,
		logger: o.logger,
	}
}

// Post adds a top-level comment and reloads the thread.
func (v *Comments) Post(ctx context.Context, sub *forms.Submitter, content string, onClose func()) (models.Comment, error) {
	return v.create(ctx, sub, models.CommentInput{MemeID: v.memeID, Content: content}, onClose)
}

// Reply adds a reply to parentID and reloads the thread so the reply shows up
// nested under its parent with the parent's reply count updated.
func (v *Comments) Reply(ctx context.Context, sub *forms.Submitter, parentID, content string, onClose func()) (models.Comment, error) {
	parent := parentID
	return v.create(ctx, sub, models.CommentInput{MemeID: v.memeID, Content: content, ParentComment: &parent}, onClose)
}

func (v *Comments) create(ctx context.Context, sub *forms.Submitter, in models.CommentInput, onClose func()) (models.Comment, error) {
	created, err := submitCreate(ctx, sub, in, func(ctx context.Context) (models.Comment, error) {
		return v.cl.CreateComment(ctx, in)
	}, onClose)
	if err != nil {
		return created, err
	}
	v.List.Refresh(ctx)
	v.List.Wait()
	return created, nil
}

// Like toggles the caller's like on a comment or reply.
func (v *Comments) Like(ctx context.Context, id string) (models.Comment, error) {
	return resource.MutateResult(ctx, v.List, func(ctx context.Context) (models.Comment, error) {
		return v.cl.LikeComment(ctx, id)
	}, replaceInThread)
}

func (v *Comments) Report(ctx context.Context, sub *forms.Submitter, id string, in models.ReportInput, onClose func()) (models.CommentReport, error) {
	return submitCreate(ctx, sub, in, func(ctx context.Context) (models.CommentReport, error) {
		return v.cl.ReportComment(ctx, id, in)
	}, onClose)
}

func (v *Comments) Edit(ctx context.Context, id, content string) (models.Comment, error) {
	in := models.CommentInput{MemeID: v.memeID, Content: content}
	if err := forms.NewValidator().Check(in, timeNow()); err != nil {
		return models.Comment{}, err
	}
	return resource.MutateResult(ctx, v.List, func(ctx context.Context) (models.Comment, error) {
		return v.cl.UpdateComment(ctx, id, content)
	}, replaceInThread)
}

// Delete removes a comment. Deleting a top-level comment drops it from the
// list; deleting a reply reloads so the parent's count is right.
func (v *Comments) Delete(ctx context.Context, id string) error {
	var patch func([]models.Comment) []models.Comment
	if _, ok := resource.Find(v.List, id); ok {
		patch = resource.RemoveByID[models.Comment](id)
	}
	return resource.Mutate(ctx, v.List, func(ctx context.Context) error {
		return v.cl.DeleteComment(ctx, id)
	}, patch)
}

// Replies returns a controller paging through the replies of one comment.
func (v *Comments) Replies(commentID string) *resource.Controller[models.Comment] {
	fetch := func(ctx context.Context, q resource.Query) (resource.Page[models.Comment], error) {
		return v.cl.ListReplies(ctx, commentID, q)
	}
	return resource.NewController(fetch, v.opts.controller([]string{"oldest", "newest", "popular"})...)
}

func replaceInThread(updated models.Comment) func([]models.Comment) []models.Comment {
	return func(items []models.Comment) []models.Comment {
		for i := range items {
			if items[i].ID == updated.ID {
				replies := items[i].Replies
				items[i] = updated
				if updated.Replies == nil {
					items[i].Replies = replies
				}
				continue
			}
			for j := range items[i].Replies {
				if items[i].Replies[j].ID == updated.ID {
					items[i].Replies = slices.Clone(items[i].Replies)
					items[i].Replies[j] = updated
				}
			}
		}
		return items
	}
}
