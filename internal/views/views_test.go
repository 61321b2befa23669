package views

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memeshare/internal/cli/client"
	"memeshare/internal/forms"
	"memeshare/internal/models"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, r.Method+" "+r.URL.Path)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestTemplateFavoriteToggleRoundTrip(t *testing.T) {
	log := &callLog{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /templates", func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		writeJSON(w, http.StatusOK, map[string]any{
			"templates":  []models.Template{{ID: "T", Name: "Drake"}, {ID: "U", Name: "Doge", IsFavorited: true}},
			"page":       1,
			"limit":      12,
			"total":      2,
			"totalPages": 1,
		})
	})
	mux.HandleFunc("POST /templates/{id}/favorite", func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		writeJSON(w, http.StatusOK, map[string]bool{"isFavorited": true})
	})
	mux.HandleFunc("DELETE /templates/{id}/favorite", func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	v := NewTemplates(client.New(srv.URL, nil))
	v.List.Load(ctx)
	v.List.Wait()

	before := v.IsFavorite("T")
	require.False(t, before)
	assert.True(t, v.IsFavorite("U"))

	fav, err := v.ToggleFavorite(ctx, "T")
	require.NoError(t, err)
	assert.True(t, fav)
	assert.True(t, v.IsFavorite("T"))

	fav, err = v.ToggleFavorite(ctx, "T")
	require.NoError(t, err)
	assert.False(t, fav)
	assert.Equal(t, before, v.IsFavorite("T"))

	assert.Equal(t, []string{
		"GET /templates",
		"POST /templates/T/favorite",
		"DELETE /templates/T/favorite",
	}, log.snapshot())
	tpl, ok := findTemplate(v, "T")
	require.True(t, ok)
	assert.False(t, tpl.IsFavorited)
	assert.Zero(t, tpl.Stats.Favorites)
}

func findTemplate(v *Templates, id string) (models.Template, bool) {
	for _, t := range v.List.State().Items {
		if t.ID == id {
			return t, true
		}
	}
	return models.Template{}, false
}

func TestFavoriteFailureLeavesSetUnchanged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "db down"})
	}))
	defer srv.Close()

	v := NewTemplates(client.New(srv.URL, nil))
	_, err := v.ToggleFavorite(context.Background(), "T")
	require.Error(t, err)
	assert.False(t, v.IsFavorite("T"))
	assert.Equal(t, "Server error. Please try again later.", AlertMessage(err))
}

func TestUnfavoriteRemovesFromFavoritesList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /templates/favorites", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"templates": []models.Template{{ID: "A", IsFavorited: true}, {ID: "B", IsFavorited: true}},
			"total":     2, "totalPages": 1,
		})
	})
	mux.HandleFunc("DELETE /templates/{id}/favorite", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	v := NewFavoriteTemplates(client.New(srv.URL, nil))
	v.List.Load(ctx)
	v.List.Wait()

	fav, err := v.ToggleFavorite(ctx, "A")
	require.NoError(t, err)
	assert.False(t, fav)
	items := v.List.State().Items
	require.Len(t, items, 1)
	assert.Equal(t, "B", items[0].ID)
}

func TestCollaborationTransitionRefusedBeforeUpdate(t *testing.T) {
	log := &callLog{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /collaborations", func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		writeJSON(w, http.StatusOK, map[string]any{
			"collaborations": []models.Collaboration{{ID: "c1", Status: models.StatusReviewing}, {ID: "c2", Status: models.StatusDraft}},
			"total":          2, "totalPages": 1,
		})
	})
	statuses := map[string]models.CollaborationStatus{"c1": models.StatusReviewing, "c2": models.StatusDraft}
	mux.HandleFunc("GET /collaborations/{id}", func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		writeJSON(w, http.StatusOK, models.Collaboration{ID: r.PathValue("id"), Status: statuses[r.PathValue("id")]})
	})
	mux.HandleFunc("PATCH /collaborations/{id}", func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		var upd models.CollaborationUpdate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&upd))
		c := models.Collaboration{ID: r.PathValue("id"), Status: *upd.Status}
		if upd.IsPublic != nil {
			c.IsPublic = *upd.IsPublic
		}
		writeJSON(w, http.StatusOK, c)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	v := NewCollaborations(client.New(srv.URL, nil))
	v.List.Load(ctx)
	v.List.Wait()

	_, err := v.Transition(ctx, "c1", models.StatusActive)
	require.True(t, errors.Is(err, models.ErrInvalidTransition))
	assert.Contains(t, AlertMessage(err), "not allowed")

	published, err := v.Publish(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, published.Status)
	assert.True(t, published.IsPublic)

	assert.Equal(t, []string{
		"GET /collaborations",
		"GET /collaborations/c1",
		"GET /collaborations/c2",
		"PATCH /collaborations/c2",
	}, log.snapshot())
	items := v.List.State().Items
	assert.Equal(t, models.StatusActive, items[1].Status)
}

func TestCollaborationTransitionUsesServerStatus(t *testing.T) {
	log := &callLog{}
	var mu sync.Mutex
	server := models.Collaboration{ID: "c1", Title: "x", Status: models.StatusDraft}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /collaborations", func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		mu.Lock()
		defer mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"collaborations": []models.Collaboration{server}, "total": 1, "totalPages": 1})
	})
	mux.HandleFunc("GET /collaborations/{id}", func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		mu.Lock()
		defer mu.Unlock()
		writeJSON(w, http.StatusOK, server)
	})
	mux.HandleFunc("PATCH /collaborations/{id}", func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		var upd models.CollaborationUpdate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&upd))
		mu.Lock()
		defer mu.Unlock()
		if upd.Status != nil {
			server.Status = *upd.Status
		}
		if upd.Title != nil {
			server.Title = *upd.Title
		}
		writeJSON(w, http.StatusOK, server)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	v := NewCollaborations(client.New(srv.URL, nil))
	v.List.Load(ctx)
	v.List.Wait()

	// Another client activates the draft after the list loaded.
	mu.Lock()
	server.Status = models.StatusActive
	mu.Unlock()

	moved, err := v.Transition(ctx, "c1", models.StatusReviewing)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReviewing, moved.Status)

	title := "y"
	same := models.StatusReviewing
	edited, err := v.Update(ctx, "c1", models.CollaborationUpdate{Title: &title, Status: &same})
	require.NoError(t, err)
	assert.Equal(t, "y", edited.Title)
	assert.Equal(t, models.StatusReviewing, edited.Status)

	assert.Equal(t, []string{
		"GET /collaborations",
		"GET /collaborations/c1",
		"PATCH /collaborations/c1",
		"GET /collaborations/c1",
		"PATCH /collaborations/c1",
	}, log.snapshot())
	st := v.List.State()
	require.Len(t, st.Items, 1)
	assert.Equal(t, "y", st.Items[0].Title)
}

func TestAcceptInviteReloadsInvitesAndList(t *testing.T) {
	log := &callLog{}
	var mu sync.Mutex
	accepted := false
	mux := http.NewServeMux()
	mux.HandleFunc("GET /collaborations", func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		mu.Lock()
		defer mu.Unlock()
		items := []models.Collaboration{}
		if accepted {
			items = append(items, models.Collaboration{ID: "c1", Title: "Remix"})
		}
		writeJSON(w, http.StatusOK, map[string]any{"collaborations": items, "total": len(items), "totalPages": 1})
	})
	mux.HandleFunc("GET /collaborations/invites", func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		mu.Lock()
		defer mu.Unlock()
		invites := []models.CollaborationInvite{}
		if !accepted {
			invites = append(invites, models.CollaborationInvite{CollaborationID: "c1", Title: "Remix", Role: "editor"})
		}
		writeJSON(w, http.StatusOK, map[string]any{"invites": invites})
	})
	mux.HandleFunc("POST /collaborations/{id}/invite/accept", func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		mu.Lock()
		accepted = true
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	v := NewCollaborations(client.New(srv.URL, nil))
	v.List.Load(ctx)
	v.List.Wait()
	require.NoError(t, v.LoadInvites(ctx))
	require.Len(t, v.Invites(), 1)

	require.NoError(t, v.AcceptInvite(ctx, "c1"))
	v.List.Wait()

	assert.Empty(t, v.Invites())
	require.Len(t, v.List.State().Items, 1)
	calls := log.snapshot()
	assert.Equal(t, "POST /collaborations/c1/invite/accept", calls[2])
	assert.ElementsMatch(t, []string{"GET /collaborations", "GET /collaborations/invites"}, calls[3:])
}

func TestFolderAvailableIsCapped(t *testing.T) {
	const total = 30
	mux := http.NewServeMux()
	mux.HandleFunc("GET /folders/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.Folder{ID: "f1", Memes: []models.Meme{{ID: "m1"}, {ID: "m3"}}, MemeCount: 2})
	})
	mux.HandleFunc("GET /memes", func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		var items []models.Meme
		for i := (page-1)*limit + 1; i <= min(page*limit, total); i++ {
			items = append(items, models.Meme{ID: fmt.Sprintf("m%d", i)})
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"memes": items, "page": page, "limit": limit, "total": total,
			"totalPages": models.TotalPages(total, limit),
		})
	})
	mux.HandleFunc("DELETE /folders/{id}/memes/{memeId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	d := NewFolderDetail(client.New(srv.URL, nil), "f1").WithAvailableCap(25)
	require.NoError(t, d.Load(ctx))

	avail, err := d.Available(ctx)
	require.NoError(t, err)
	assert.True(t, avail.Truncated)
	assert.Equal(t, 25, avail.Scanned)
	assert.Len(t, avail.Memes, 23)

	d.WithAvailableCap(100)
	avail, err = d.Available(ctx)
	require.NoError(t, err)
	assert.False(t, avail.Truncated)
	assert.Len(t, avail.Memes, 28)

	require.NoError(t, d.RemoveMeme(ctx, "m1"))
	f := d.Folder()
	assert.Equal(t, 1, f.MemeCount)
	assert.False(t, f.Contains("m1"))
	assert.True(t, f.Contains("m3"))
}

func TestAddMemesValidatesBeforeSending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	}))
	defer srv.Close()

	err := NewFolderDetail(client.New(srv.URL, nil), "f1").AddMemes(context.Background(), nil)
	var verr *forms.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "memeIds is required", AlertMessage(err))
}

func TestCreateFolderPrependsAfterSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /folders", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"folders": []models.Folder{{ID: "old"}}, "total": 1, "totalPages": 1})
	})
	mux.HandleFunc("POST /folders", func(w http.ResponseWriter, r *http.Request) {
		var in models.FolderInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		writeJSON(w, http.StatusCreated, models.Folder{ID: "new", Name: in.Name})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	v := NewFolders(client.New(srv.URL, nil))
	v.List.Load(ctx)
	v.List.Wait()

	closed := make(chan struct{})
	sub := NewSubmitter(forms.WithScheduler(func(_ time.Duration, f func()) { f() }))
	f, err := v.Create(ctx, sub, models.FolderInput{Name: "Reactions"}, func() { close(closed) })
	require.NoError(t, err)
	<-closed
	assert.Equal(t, "new", f.ID)
	st := v.List.State()
	assert.Equal(t, []string{"new", "old"}, []string{st.Items[0].ID, st.Items[1].ID})
	assert.Equal(t, 2, st.Total)
}

func TestAlertMessageTaxonomy(t *testing.T) {
	cases := map[string]error{
		"Your session has expired. Please log in again.": &client.APIError{StatusCode: 401},
		"You don't have permission to do that.":          &client.APIError{StatusCode: 403, Message: "forbidden"},
		"Not found. It may have been deleted.":           &client.APIError{StatusCode: 404},
		"Server error. Please try again later.":          &client.APIError{StatusCode: 502},
		"title is required":                              &client.APIError{StatusCode: 400, Message: "title is required"},
		"Still saving, please wait.":                     forms.ErrSubmitInFlight,
		"The server took too long to respond. Please try again.": fmt.Errorf("get: %w", context.DeadlineExceeded),
	}
	for want, err := range cases {
		assert.Equal(t, want, AlertMessage(err))
	}
	assert.Empty(t, AlertMessage(nil))
}
