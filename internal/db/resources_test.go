package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"memeshare/internal/models"
)

func mustUser(t *testing.T, database *sql.DB, name string) *models.User {
	t.Helper()
	u, err := CreateUser(context.Background(), database, name, name+"@example.com", "hash")
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func mustMeme(t *testing.T, database *sql.DB, ownerID, title string) *models.Meme {
	t.Helper()
	m, err := CreateMeme(context.Background(), database, ownerID, models.MemeInput{Title: title, ImageURL: "https://img.example/" + title + ".png"})
	if err != nil {
		t.Fatalf("create meme %s: %v", title, err)
	}
	return m
}

func TestCreateUserRejectsDuplicateUsernameIgnoringCase(t *testing.T) {
	database := openTestDB(t, "users.db")
	mustUser(t, database, "alice")

	_, err := CreateUser(context.Background(), database, "ALICE", "other@example.com", "hash")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	u, hash, err := GetCredentials(context.Background(), database, " Alice@Example.com ")
	if err != nil {
		t.Fatalf("get credentials: %v", err)
	}
	if u.Username != "alice" || hash != "hash" {
		t.Fatalf("unexpected credentials: %+v %q", u, hash)
	}
}

func TestListMemesPaginatesAndSortsByLikes(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t, "memes.db")
	alice := mustUser(t, database, "alice")
	bob := mustUser(t, database, "bob")

	var ids []string
	for _, title := range []string{"one", "two", "three"} {
		ids = append(ids, mustMeme(t, database, alice.ID, title).ID)
	}
	if _, err := ToggleMemeLike(ctx, database, ids[0], bob.ID); err != nil {
		t.Fatalf("like: %v", err)
	}

	memes, total, err := ListMemes(ctx, database, ListParams{Page: 1, Limit: 2, Sort: "popular", Viewer: bob.ID})
	if err != nil {
		t.Fatalf("list memes: %v", err)
	}
	if total != 3 || len(memes) != 2 {
		t.Fatalf("expected 2 of 3 memes, got %d of %d", len(memes), total)
	}
	if memes[0].ID != ids[0] || !memes[0].IsLiked || memes[0].Stats.Likes != 1 {
		t.Fatalf("expected liked meme first, got %+v", memes[0])
	}
	if meta := (ListParams{Page: 1, Limit: 2}).Meta(total); meta.TotalPages != 2 {
		t.Fatalf("expected 2 total pages, got %d", meta.TotalPages)
	}

	m, err := ToggleMemeLike(ctx, database, ids[0], bob.ID)
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if m.IsLiked || m.Stats.Likes != 0 {
		t.Fatalf("expected like removed, got %+v", m.Stats)
	}
}

func TestDeleteMemeEnforcesOwnership(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t, "meme-delete.db")
	alice := mustUser(t, database, "alice")
	bob := mustUser(t, database, "bob")
	m := mustMeme(t, database, alice.ID, "mine")

	if err := DeleteMeme(ctx, database, m.ID, bob.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := DeleteMeme(ctx, database, m.ID, alice.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := GetMeme(ctx, database, m.ID, alice.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestTemplateFavoritesRatingsAndVisibility(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t, "templates.db")
	alice := mustUser(t, database, "alice")
	bob := mustUser(t, database, "bob")

	public, err := CreateTemplate(ctx, database, alice.ID, models.TemplateInput{
		Name:      "Drake",
		Category:  "reaction",
		IsPublic:  true,
		TextAreas: []models.TextArea{{X: 1, Y: 2, Width: 100, Height: 40}},
	}, "/uploads/drake.png")
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	private, err := CreateTemplate(ctx, database, alice.ID, models.TemplateInput{Name: "Secret", Category: "other"}, "/uploads/secret.png")
	if err != nil {
		t.Fatalf("create private template: %v", err)
	}
	if len(public.TextAreas) != 1 || public.TextAreas[0].Width != 100 {
		t.Fatalf("text areas not stored: %+v", public.TextAreas)
	}

	if _, err := GetTemplate(ctx, database, private.ID, bob.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("private template visible to other user: %v", err)
	}

	if err := SetTemplateFavorite(ctx, database, public.ID, bob.ID, true); err != nil {
		t.Fatalf("favorite: %v", err)
	}
	if err := SetTemplateFavorite(ctx, database, public.ID, bob.ID, true); err != nil {
		t.Fatalf("favorite twice: %v", err)
	}
	favs, total, err := ListFavoriteTemplates(ctx, database, ListParams{Viewer: bob.ID})
	if err != nil {
		t.Fatalf("list favorites: %v", err)
	}
	if total != 1 || !favs[0].IsFavorited || favs[0].Stats.Favorites != 1 {
		t.Fatalf("unexpected favorites: total=%d %+v", total, favs)
	}

	if _, err := RateTemplate(ctx, database, public.ID, bob.ID, 2); err != nil {
		t.Fatalf("rate: %v", err)
	}
	rated, err := RateTemplate(ctx, database, public.ID, alice.ID, 5)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if rated.Stats.Rating != 3.5 || rated.Stats.RatingCount != 2 {
		t.Fatalf("unexpected rating stats: %+v", rated.Stats)
	}
	rated, err = RateTemplate(ctx, database, public.ID, bob.ID, 4)
	if err != nil {
		t.Fatalf("re-rate: %v", err)
	}
	if rated.Stats.Rating != 4.5 || rated.Stats.RatingCount != 2 {
		t.Fatalf("re-rate should replace, got %+v", rated.Stats)
	}

	used, err := CountTemplateUsage(ctx, database, public.ID, bob.ID, "uses")
	if err != nil {
		t.Fatalf("use: %v", err)
	}
	if used.Stats.Uses != 1 {
		t.Fatalf("expected 1 use, got %d", used.Stats.Uses)
	}

	if err := SetTemplateFavorite(ctx, database, public.ID, bob.ID, false); err != nil {
		t.Fatalf("unfavorite: %v", err)
	}
	if _, total, _ := ListFavoriteTemplates(ctx, database, ListParams{Viewer: bob.ID}); total != 0 {
		t.Fatalf("expected no favorites, got %d", total)
	}

	list, total, err := ListTemplates(ctx, database, ListParams{Viewer: bob.ID, Filters: map[string]string{"category": "reaction"}})
	if err != nil {
		t.Fatalf("list templates: %v", err)
	}
	if total != 1 || list[0].ID != public.ID {
		t.Fatalf("unexpected category listing: %d %+v", total, list)
	}
}

func TestFolderAddAndRemoveMemes(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t, "folders.db")
	alice := mustUser(t, database, "alice")
	m1 := mustMeme(t, database, alice.ID, "a")
	m2 := mustMeme(t, database, alice.ID, "b")

	f, err := CreateFolder(ctx, database, alice.ID, models.FolderInput{Name: "Favs", Color: "#ff0000"})
	if err != nil {
		t.Fatalf("create folder: %v", err)
	}
	f, err = AddMemesToFolder(ctx, database, f.ID, alice.ID, []string{m1.ID, m2.ID, m1.ID})
	if err != nil {
		t.Fatalf("add memes: %v", err)
	}
	if f.MemeCount != 2 || len(f.Memes) != 2 {
		t.Fatalf("expected 2 memes, got count=%d len=%d", f.MemeCount, len(f.Memes))
	}

	if _, err := AddMemesToFolder(ctx, database, f.ID, alice.ID, []string{"missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown meme, got %v", err)
	}

	if err := RemoveMemeFromFolder(ctx, database, f.ID, alice.ID, m1.ID); err != nil {
		t.Fatalf("remove meme: %v", err)
	}
	f, err = GetFolder(ctx, database, f.ID, alice.ID)
	if err != nil {
		t.Fatalf("get folder: %v", err)
	}
	if f.Contains(m1.ID) || !f.Contains(m2.ID) || f.MemeCount != 1 {
		t.Fatalf("unexpected folder memes after remove: %+v", f.Memes)
	}
}

func TestCollaborationInvitesAndTransitions(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t, "collabs.db")
	alice := mustUser(t, database, "alice")
	bob := mustUser(t, database, "bob")

	c, err := CreateCollaboration(ctx, database, alice.ID, models.CollaborationInput{
		Title:   "Caption war",
		Type:    "meme",
		Invites: []models.InviteInput{{Username: "bob", Role: models.RoleEditor}},
	})
	if err != nil {
		t.Fatalf("create collaboration: %v", err)
	}
	if c.Status != models.StatusDraft || len(c.Collaborators) != 2 {
		t.Fatalf("unexpected collaboration: %+v", c)
	}

	if _, total, _ := ListCollaborations(ctx, database, ListParams{Viewer: bob.ID}); total != 0 {
		t.Fatalf("pending invitee should not see private collaboration, got %d", total)
	}
	invites, err := ListInvites(ctx, database, bob.ID)
	if err != nil {
		t.Fatalf("list invites: %v", err)
	}
	if len(invites) != 1 || invites[0].InvitedBy.Username != "alice" {
		t.Fatalf("unexpected invites: %+v", invites)
	}
	if err := RespondToInvite(ctx, database, c.ID, bob.ID, true); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := RespondToInvite(ctx, database, c.ID, bob.ID, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second accept should find no pending invite, got %v", err)
	}

	active := models.StatusActive
	pub := true
	c, err = UpdateCollaboration(ctx, database, c.ID, bob.ID, models.CollaborationUpdate{Status: &active, IsPublic: &pub})
	if err != nil {
		t.Fatalf("editor publish: %v", err)
	}
	if c.Status != models.StatusActive || !c.IsPublic {
		t.Fatalf("publish not applied: %+v", c)
	}

	completed := models.StatusCompleted
	if _, err := UpdateCollaboration(ctx, database, c.ID, alice.ID, models.CollaborationUpdate{Status: &completed}); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	items, _, err := ListCollaborations(ctx, database, ListParams{Viewer: bob.ID, Filters: map[string]string{"status": "active"}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 active collaboration, got %d", len(items))
	}
}

func TestReplyIncrementsParentRepliesCount(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t, "comments.db")
	alice := mustUser(t, database, "alice")
	bob := mustUser(t, database, "bob")
	m := mustMeme(t, database, alice.ID, "thread")

	parent, err := CreateComment(ctx, database, alice.ID, models.CommentInput{MemeID: m.ID, Content: "first"})
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	before, _, err := ListComments(ctx, database, ListParams{Filters: map[string]string{"memeId": m.ID}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	reply, err := CreateComment(ctx, database, bob.ID, models.CommentInput{MemeID: m.ID, Content: "reply", ParentComment: &parent.ID})
	if err != nil {
		t.Fatalf("create reply: %v", err)
	}
	if !reply.IsReply() || *reply.ParentComment != parent.ID {
		t.Fatalf("reply missing parent: %+v", reply)
	}

	after, total, err := ListComments(ctx, database, ListParams{Filters: map[string]string{"memeId": m.ID}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 {
		t.Fatalf("replies must not be listed at top level, total=%d", total)
	}
	if got := after[0].RepliesCount() - before[0].RepliesCount(); got != 1 {
		t.Fatalf("expected repliesCount +1, got %+d", got)
	}
	if len(after[0].Replies) != 1 || after[0].Replies[0].ID != reply.ID {
		t.Fatalf("reply not embedded under parent: %+v", after[0].Replies)
	}

	if _, err := ReportComment(ctx, database, reply.ID, alice.ID, models.ReportInput{Reason: "spam"}); err != nil {
		t.Fatalf("report: %v", err)
	}
	if _, err := ReportComment(ctx, database, reply.ID, alice.ID, models.ReportInput{Reason: "spam"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate report, got %v", err)
	}
	if err := DeleteComment(ctx, database, reply.ID, alice.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden deleting another user's comment, got %v", err)
	}

	other := mustMeme(t, database, alice.ID, "other")
	if _, err := CreateComment(ctx, database, bob.ID, models.CommentInput{MemeID: other.ID, Content: "x", ParentComment: &parent.ID}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for cross-meme reply, got %v", err)
	}
}

func TestChallengeStatusFilterAndJoin(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t, "challenges.db")
	alice := mustUser(t, database, "alice")
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	mk := func(title string, start, end time.Time) *models.Challenge {
		c, err := CreateChallenge(ctx, database, alice.ID, models.ChallengeInput{
			Title: title, Description: "d", Category: "funny", StartDate: start, EndDate: end,
		})
		if err != nil {
			t.Fatalf("create challenge %s: %v", title, err)
		}
		return c
	}
	ended := mk("ended", now.AddDate(0, -2, 0), now.AddDate(0, -1, 0))
	active := mk("active", now.AddDate(0, 0, -1), now.AddDate(0, 0, 7))
	mk("upcoming", now.AddDate(0, 1, 0), now.AddDate(0, 2, 0))

	list, total, err := ListChallenges(ctx, database, ListParams{Filters: map[string]string{"status": "active"}}, now)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || list[0].ID != active.ID {
		t.Fatalf("unexpected active challenges: %+v", list)
	}

	joined, err := JoinChallenge(ctx, database, active.ID, alice.ID, now)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if !joined.IsJoined || joined.Stats.Participants != 1 {
		t.Fatalf("unexpected join result: %+v", joined)
	}
	if _, err := JoinChallenge(ctx, database, ended.ID, alice.ID, now); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict joining ended challenge, got %v", err)
	}
}

func TestGroupMembership(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t, "groups.db")
	alice := mustUser(t, database, "alice")
	bob := mustUser(t, database, "bob")

	g, err := CreateGroup(ctx, database, alice.ID, models.GroupInput{Name: "Cats", Category: "animals"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if g.Stats.Members != 1 || !g.IsMember {
		t.Fatalf("owner should be a member: %+v", g)
	}
	g, err = SetGroupMember(ctx, database, g.ID, bob.ID, true)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if g.Stats.Members != 2 || !g.IsMember {
		t.Fatalf("unexpected after join: %+v", g)
	}
	g, err = SetGroupMember(ctx, database, g.ID, bob.ID, false)
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if g.Stats.Members != 1 || g.IsMember {
		t.Fatalf("unexpected after leave: %+v", g)
	}
	if _, err := SetGroupMember(ctx, database, g.ID, alice.ID, false); !errors.Is(err, ErrConflict) {
		t.Fatalf("owner leaving should conflict, got %v", err)
	}
}

func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t, "wildcards.db")
	alice := mustUser(t, database, "alice")
	percent := mustMeme(t, database, alice.ID, "100% real")
	mustMeme(t, database, alice.ID, "100 real")
	under := mustMeme(t, database, alice.ID, "a_b")
	mustMeme(t, database, alice.ID, "axb")

	for search, want := range map[string]string{"100%": percent.ID, "a_b": under.ID} {
		memes, total, err := ListMemes(ctx, database, ListParams{Search: search})
		if err != nil {
			t.Fatalf("list %q: %v", search, err)
		}
		if total != 1 || len(memes) != 1 || memes[0].ID != want {
			t.Fatalf("search %q: expected only %s, got %d rows (%+v)", search, want, total, memes)
		}

		hits, err := SearchCatalog(ctx, database, SearchParams{Query: search, Kind: models.KindMeme})
		if err != nil {
			t.Fatalf("catalog search %q: %v", search, err)
		}
		if len(hits) != 1 || hits[0].ID != want {
			t.Fatalf("catalog search %q: expected only %s, got %+v", search, want, hits)
		}
	}
}
