package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"memeshare/internal/models"
	"memeshare/internal/serverconfig"
)

var pngFixture = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

func TestMemeListEnvelopeAndOwnership(t *testing.T) {
	server, database, alice := setupTestServer(t)
	defer server.Close()
	defer database.Close()
	bob, _ := registerForTest(t, server.URL, "bob")

	for _, title := range []string{"first", "second", "third"} {
		createMemeForTest(t, server.URL, alice, title)
	}
	liked := createMemeForTest(t, server.URL, bob, "bob meme")

	like := doReq(t, server.URL, alice, http.MethodPost, "/api/memes/"+liked.ID+"/like", nil)
	expectStatus(t, like, http.StatusOK)
	var afterLike models.Meme
	decodeJSON(t, like, &afterLike)
	if !afterLike.IsLiked || afterLike.Stats.Likes != 1 {
		t.Fatalf("like did not toggle: %+v", afterLike)
	}

	list := doReq(t, server.URL, "", http.MethodGet, "/api/memes?page=1&limit=2&sort=popular", nil)
	expectStatus(t, list, http.StatusOK)
	var page struct {
		Memes      []models.Meme `json:"memes"`
		Page       int           `json:"page"`
		Limit      int           `json:"limit"`
		Total      int           `json:"total"`
		TotalPages int           `json:"totalPages"`
	}
	decodeJSON(t, list, &page)
	if page.Total != 4 || page.TotalPages != 2 || page.Limit != 2 || len(page.Memes) != 2 {
		t.Fatalf("unexpected envelope %+v", page)
	}
	if page.Memes[0].ID != liked.ID {
		t.Fatalf("popular sort should put the liked meme first, got %s", page.Memes[0].Title)
	}

	badSort := doReq(t, server.URL, "", http.MethodGet, "/api/memes?sort=oldest", nil)
	expectStatus(t, badSort, http.StatusBadRequest)
	_ = badSort.Body.Close()
	badPage := doReq(t, server.URL, "", http.MethodGet, "/api/memes?page=0", nil)
	expectStatus(t, badPage, http.StatusBadRequest)
	_ = badPage.Body.Close()

	forbidden := doReq(t, server.URL, alice, http.MethodDelete, "/api/memes/"+liked.ID, nil)
	expectStatus(t, forbidden, http.StatusForbidden)
	_ = forbidden.Body.Close()

	anonymous := doReq(t, server.URL, "", http.MethodPost, "/api/memes", models.MemeInput{Title: "x", ImageURL: "https://example.com/x.png"})
	expectStatus(t, anonymous, http.StatusUnauthorized)
	_ = anonymous.Body.Close()

	deleted := doReq(t, server.URL, bob, http.MethodDelete, "/api/memes/"+liked.ID, nil)
	expectStatus(t, deleted, http.StatusNoContent)
	_ = deleted.Body.Close()

	gone := doReq(t, server.URL, "", http.MethodGet, "/api/memes/"+liked.ID, nil)
	expectStatus(t, gone, http.StatusNotFound)
	_ = gone.Body.Close()
}

func uploadTemplate(t *testing.T, baseURL, token string, fields map[string]string, image []byte) *http.Response {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if image != nil {
		part, err := mw.CreateFormFile("image", "drake.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(image); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/templates", body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func TestTemplateUploadFavoriteAndDelete(t *testing.T) {
	var uploadDir string
	server, database, alice := setupTestServerWithConfig(t, func(cfg *serverconfig.Config) {
		uploadDir = cfg.UploadDir
	})
	defer server.Close()
	defer database.Close()

	fields := map[string]string{
		"name":      "Drake",
		"category":  "reaction",
		"textAreas": `[{"x":10,"y":10,"width":200,"height":80,"text":"top"}]`,
		"isPublic":  "true",
	}

	missing := uploadTemplate(t, server.URL, alice, fields, nil)
	expectStatus(t, missing, http.StatusBadRequest)
	var verr struct {
		Fields []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"fields"`
	}
	decodeJSON(t, missing, &verr)
	if len(verr.Fields) != 1 || verr.Fields[0].Field != "image" {
		t.Fatalf("expected image field error, got %+v", verr.Fields)
	}

	notImage := uploadTemplate(t, server.URL, alice, fields, []byte("just some text"))
	expectStatus(t, notImage, http.StatusBadRequest)
	_ = notImage.Body.Close()

	created := uploadTemplate(t, server.URL, alice, fields, pngFixture)
	expectStatus(t, created, http.StatusCreated)
	var tmpl models.Template
	decodeJSON(t, created, &tmpl)
	if !strings.HasPrefix(tmpl.ImageURL, "/uploads/templates/") || !strings.HasSuffix(tmpl.ImageURL, ".png") {
		t.Fatalf("unexpected image url %q", tmpl.ImageURL)
	}
	if len(tmpl.TextAreas) != 1 || tmpl.TextAreas[0].Text != "top" {
		t.Fatalf("text areas not stored: %+v", tmpl.TextAreas)
	}

	image := doReq(t, server.URL, "", http.MethodGet, tmpl.ImageURL, nil)
	expectStatus(t, image, http.StatusOK)
	_ = image.Body.Close()

	fav := doReq(t, server.URL, alice, http.MethodPost, "/api/templates/"+tmpl.ID+"/favorite", nil)
	expectStatus(t, fav, http.StatusNoContent)
	_ = fav.Body.Close()

	favorites := doReq(t, server.URL, alice, http.MethodGet, "/api/templates/favorites", nil)
	expectStatus(t, favorites, http.StatusOK)
	var favPage struct {
		Templates []models.Template `json:"templates"`
		Total     int               `json:"total"`
	}
	decodeJSON(t, favorites, &favPage)
	if favPage.Total != 1 || !favPage.Templates[0].IsFavorited {
		t.Fatalf("unexpected favorites %+v", favPage)
	}

	rated := doReq(t, server.URL, alice, http.MethodPost, "/api/templates/"+tmpl.ID+"/rate", models.RateInput{Rating: 4})
	expectStatus(t, rated, http.StatusOK)
	var afterRate models.Template
	decodeJSON(t, rated, &afterRate)
	if afterRate.Stats.Rating != 4 || afterRate.Stats.RatingCount != 1 {
		t.Fatalf("unexpected rating stats %+v", afterRate.Stats)
	}

	rename := "Drake Hotline"
	updated := doReq(t, server.URL, alice, http.MethodPatch, "/api/templates/"+tmpl.ID, models.TemplateUpdate{Name: &rename})
	expectStatus(t, updated, http.StatusOK)
	var afterUpdate models.Template
	decodeJSON(t, updated, &afterUpdate)
	if afterUpdate.Name != rename || afterUpdate.Category != "reaction" {
		t.Fatalf("partial update lost fields: %+v", afterUpdate)
	}

	deleted := doReq(t, server.URL, alice, http.MethodDelete, "/api/templates/"+tmpl.ID, nil)
	expectStatus(t, deleted, http.StatusNoContent)
	_ = deleted.Body.Close()
	stored := filepath.Join(uploadDir, "templates", filepath.Base(tmpl.ImageURL))
	if _, err := os.Stat(stored); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be removed, stat err = %v", stored, err)
	}
}

func TestCollaborationInviteAndStatusFlow(t *testing.T) {
	server, database, alice := setupTestServer(t)
	defer server.Close()
	defer database.Close()
	bob, _ := registerForTest(t, server.URL, "bob")

	created := doReq(t, server.URL, alice, http.MethodPost, "/api/collaborations", models.CollaborationInput{
		Title:   "Friday remix",
		Type:    "meme",
		Invites: []models.InviteInput{{Username: "bob", Role: models.RoleEditor}},
	})
	expectStatus(t, created, http.StatusCreated)
	var collab models.Collaboration
	decodeJSON(t, created, &collab)
	if collab.Status != models.StatusDraft || len(collab.Collaborators) != 2 {
		t.Fatalf("unexpected collaboration %+v", collab)
	}

	invites := doReq(t, server.URL, bob, http.MethodGet, "/api/collaborations/invites", nil)
	expectStatus(t, invites, http.StatusOK)
	var invitePayload struct {
		Invites []models.CollaborationInvite `json:"invites"`
	}
	decodeJSON(t, invites, &invitePayload)
	if len(invitePayload.Invites) != 1 || invitePayload.Invites[0].CollaborationID != collab.ID {
		t.Fatalf("unexpected invites %+v", invitePayload.Invites)
	}

	active := models.StatusActive
	early := doReq(t, server.URL, bob, http.MethodPatch, "/api/collaborations/"+collab.ID, models.CollaborationUpdate{Status: &active})
	expectStatus(t, early, http.StatusForbidden)
	_ = early.Body.Close()

	accept := doReq(t, server.URL, bob, http.MethodPost, "/api/collaborations/"+collab.ID+"/invite/accept", nil)
	expectStatus(t, accept, http.StatusNoContent)
	_ = accept.Body.Close()

	again := doReq(t, server.URL, bob, http.MethodPost, "/api/collaborations/"+collab.ID+"/invite/accept", nil)
	expectStatus(t, again, http.StatusNotFound)
	_ = again.Body.Close()

	for _, step := range []models.CollaborationStatus{models.StatusActive, models.StatusReviewing} {
		status := step
		resp := doReq(t, server.URL, bob, http.MethodPatch, "/api/collaborations/"+collab.ID, models.CollaborationUpdate{Status: &status})
		expectStatus(t, resp, http.StatusOK)
		_ = resp.Body.Close()
	}

	back := models.StatusActive
	invalid := doReq(t, server.URL, alice, http.MethodPatch, "/api/collaborations/"+collab.ID, models.CollaborationUpdate{Status: &back})
	expectStatus(t, invalid, http.StatusConflict)
	_ = invalid.Body.Close()

	list := doReq(t, server.URL, bob, http.MethodGet, "/api/collaborations?status=reviewing&type=meme", nil)
	expectStatus(t, list, http.StatusOK)
	var page struct {
		Collaborations []models.Collaboration `json:"collaborations"`
		Total          int                    `json:"total"`
	}
	decodeJSON(t, list, &page)
	if page.Total != 1 || page.Collaborations[0].Status != models.StatusReviewing {
		t.Fatalf("unexpected collaborations page %+v", page)
	}

	anonymous := doReq(t, server.URL, "", http.MethodGet, "/api/collaborations", nil)
	expectStatus(t, anonymous, http.StatusUnauthorized)
	_ = anonymous.Body.Close()
}

func TestFolderMembership(t *testing.T) {
	server, database, alice := setupTestServer(t)
	defer server.Close()
	defer database.Close()

	m1 := createMemeForTest(t, server.URL, alice, "one")
	m2 := createMemeForTest(t, server.URL, alice, "two")

	created := doReq(t, server.URL, alice, http.MethodPost, "/api/folders", models.FolderInput{Name: "Favorites", Color: "#ff8800"})
	expectStatus(t, created, http.StatusCreated)
	var folder models.Folder
	decodeJSON(t, created, &folder)

	badColor := doReq(t, server.URL, alice, http.MethodPost, "/api/folders", models.FolderInput{Name: "Bad", Color: "orange"})
	expectStatus(t, badColor, http.StatusBadRequest)
	_ = badColor.Body.Close()

	added := doReq(t, server.URL, alice, http.MethodPost, "/api/folders/"+folder.ID+"/memes", models.AddMemesInput{MemeIDs: []string{m1.ID, m2.ID}})
	expectStatus(t, added, http.StatusOK)
	var withMemes models.Folder
	decodeJSON(t, added, &withMemes)
	if withMemes.MemeCount != 2 || !withMemes.Contains(m1.ID) {
		t.Fatalf("memes not added: %+v", withMemes)
	}

	unknown := doReq(t, server.URL, alice, http.MethodPost, "/api/folders/"+folder.ID+"/memes", models.AddMemesInput{MemeIDs: []string{"missing"}})
	expectStatus(t, unknown, http.StatusNotFound)
	_ = unknown.Body.Close()

	removed := doReq(t, server.URL, alice, http.MethodDelete, "/api/folders/"+folder.ID+"/memes/"+m1.ID, nil)
	expectStatus(t, removed, http.StatusNoContent)
	_ = removed.Body.Close()

	get := doReq(t, server.URL, alice, http.MethodGet, "/api/folders/"+folder.ID, nil)
	expectStatus(t, get, http.StatusOK)
	var after models.Folder
	decodeJSON(t, get, &after)
	if after.Contains(m1.ID) || !after.Contains(m2.ID) {
		t.Fatalf("unexpected folder memes after removal: %+v", after.Memes)
	}

	bob, _ := registerForTest(t, server.URL, "bob")
	foreign := doReq(t, server.URL, bob, http.MethodDelete, "/api/folders/"+folder.ID, nil)
	if foreign.StatusCode != http.StatusForbidden && foreign.StatusCode != http.StatusNotFound {
		t.Fatalf("deleting another user's folder returned %d", foreign.StatusCode)
	}
	_ = foreign.Body.Close()
}

func TestCommentReplyIncrementsParent(t *testing.T) {
	server, database, alice := setupTestServer(t)
	defer server.Close()
	defer database.Close()
	bob, _ := registerForTest(t, server.URL, "bob")

	meme := createMemeForTest(t, server.URL, alice, "thread")
	parentResp := doReq(t, server.URL, alice, http.MethodPost, "/api/comments", models.CommentInput{MemeID: meme.ID, Content: "first!"})
	expectStatus(t, parentResp, http.StatusCreated)
	var parent models.Comment
	decodeJSON(t, parentResp, &parent)

	replyResp := doReq(t, server.URL, bob, http.MethodPost, "/api/comments", models.CommentInput{MemeID: meme.ID, Content: "second", ParentComment: &parent.ID})
	expectStatus(t, replyResp, http.StatusCreated)
	var reply models.Comment
	decodeJSON(t, replyResp, &reply)
	if !reply.IsReply() || *reply.ParentComment != parent.ID {
		t.Fatalf("reply not linked to parent: %+v", reply)
	}

	list := doReq(t, server.URL, "", http.MethodGet, "/api/comments?memeId="+meme.ID, nil)
	expectStatus(t, list, http.StatusOK)
	var page struct {
		Comments []models.Comment `json:"comments"`
		Total    int              `json:"total"`
	}
	decodeJSON(t, list, &page)
	if page.Total != 1 || page.Comments[0].RepliesCount() != 1 || len(page.Comments[0].Replies) != 1 {
		t.Fatalf("unexpected top-level comments %+v", page)
	}

	replies := doReq(t, server.URL, "", http.MethodGet, "/api/comments/"+parent.ID+"/replies", nil)
	expectStatus(t, replies, http.StatusOK)
	var replyPage struct {
		Comments []models.Comment `json:"comments"`
	}
	decodeJSON(t, replies, &replyPage)
	if len(replyPage.Comments) != 1 || replyPage.Comments[0].ID != reply.ID {
		t.Fatalf("unexpected replies %+v", replyPage.Comments)
	}

	edit := doReq(t, server.URL, alice, http.MethodPut, "/api/comments/"+reply.ID, map[string]string{"content": "hijack"})
	expectStatus(t, edit, http.StatusForbidden)
	_ = edit.Body.Close()

	blank := doReq(t, server.URL, bob, http.MethodPut, "/api/comments/"+reply.ID, map[string]string{"content": "   "})
	expectStatus(t, blank, http.StatusBadRequest)
	_ = blank.Body.Close()

	report := doReq(t, server.URL, alice, http.MethodPost, "/api/comments/"+reply.ID+"/report", models.ReportInput{Reason: models.ReportSpam})
	expectStatus(t, report, http.StatusCreated)
	_ = report.Body.Close()
	dupReport := doReq(t, server.URL, alice, http.MethodPost, "/api/comments/"+reply.ID+"/report", models.ReportInput{Reason: models.ReportSpam})
	expectStatus(t, dupReport, http.StatusConflict)
	_ = dupReport.Body.Close()
}

func TestChallengeValidationAndJoin(t *testing.T) {
	server, database, alice := setupTestServer(t)
	defer server.Close()
	defer database.Close()

	now := time.Now().UTC().Truncate(time.Second)
	past := doReq(t, server.URL, alice, http.MethodPost, "/api/challenges", models.ChallengeInput{
		Title:       "Too late",
		Description: "ended already",
		Category:    "funny",
		StartDate:   now.Add(-72 * time.Hour),
		EndDate:     now.Add(-24 * time.Hour),
	})
	expectStatus(t, past, http.StatusBadRequest)
	var verr struct {
		Fields []struct {
			Field string `json:"field"`
		} `json:"fields"`
	}
	decodeJSON(t, past, &verr)
	if len(verr.Fields) != 1 || verr.Fields[0].Field != "endDate" {
		t.Fatalf("expected endDate error, got %+v", verr.Fields)
	}

	created := doReq(t, server.URL, alice, http.MethodPost, "/api/challenges", models.ChallengeInput{
		Title:       "Cat week",
		Description: "Only cats",
		Category:    "animals",
		StartDate:   now.Add(-time.Hour),
		EndDate:     now.Add(7 * 24 * time.Hour),
	})
	expectStatus(t, created, http.StatusCreated)
	var challenge models.Challenge
	decodeJSON(t, created, &challenge)

	bob, _ := registerForTest(t, server.URL, "bob")
	joined := doReq(t, server.URL, bob, http.MethodPost, "/api/challenges/"+challenge.ID+"/join", nil)
	expectStatus(t, joined, http.StatusOK)
	var afterJoin models.Challenge
	decodeJSON(t, joined, &afterJoin)
	if !afterJoin.IsJoined || afterJoin.Stats.Participants < 1 {
		t.Fatalf("join not reflected: %+v", afterJoin)
	}

	active := doReq(t, server.URL, "", http.MethodGet, "/api/challenges?status=active&category=animals", nil)
	expectStatus(t, active, http.StatusOK)
	var page struct {
		Challenges []models.Challenge `json:"challenges"`
		Total      int                `json:"total"`
	}
	decodeJSON(t, active, &page)
	if page.Total != 1 || page.Challenges[0].ID != challenge.ID {
		t.Fatalf("unexpected active challenges %+v", page)
	}

	badStatus := doReq(t, server.URL, "", http.MethodGet, "/api/challenges?status=later", nil)
	expectStatus(t, badStatus, http.StatusBadRequest)
	_ = badStatus.Body.Close()
}

func TestGroupMembershipEndpoints(t *testing.T) {
	server, database, alice := setupTestServer(t)
	defer server.Close()
	defer database.Close()
	bob, _ := registerForTest(t, server.URL, "bob")

	created := doReq(t, server.URL, alice, http.MethodPost, "/api/groups", models.GroupInput{Name: "Cat people", Category: "animals"})
	expectStatus(t, created, http.StatusCreated)
	var group models.Group
	decodeJSON(t, created, &group)
	if !group.IsMember || group.Stats.Members != 1 {
		t.Fatalf("owner should be a member: %+v", group)
	}

	join := doReq(t, server.URL, bob, http.MethodPost, "/api/groups/"+group.ID+"/join", nil)
	expectStatus(t, join, http.StatusOK)
	var joined models.Group
	decodeJSON(t, join, &joined)
	if !joined.IsMember || joined.Stats.Members != 2 {
		t.Fatalf("join not reflected: %+v", joined)
	}

	ownerLeaves := doReq(t, server.URL, alice, http.MethodPost, "/api/groups/"+group.ID+"/leave", nil)
	expectStatus(t, ownerLeaves, http.StatusConflict)
	_ = ownerLeaves.Body.Close()

	update := doReq(t, server.URL, bob, http.MethodPut, "/api/groups/"+group.ID, models.GroupInput{Name: "Dog people", Category: "animals"})
	expectStatus(t, update, http.StatusForbidden)
	_ = update.Body.Close()
}
