package views

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memeshare/internal/cli/client"
	"memeshare/internal/forms"
	"memeshare/internal/models"
)

func TestChallengeCreateWithPastEndDateSendsNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	}))
	defer srv.Close()

	now := time.Now()
	v := NewChallenges(client.New(srv.URL, nil))
	defer v.List.Close()
	_, err := v.Create(context.Background(), NewSubmitter(), models.ChallengeInput{
		Title:       "Caption this",
		Description: "Best caption wins",
		Category:    "funny",
		StartDate:   now.Add(-48 * time.Hour),
		EndDate:     now.Add(-time.Hour),
	}, nil)

	var verr *forms.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.NotEmpty(t, verr.Field("endDate"))
}

func TestChallengeCreateReloadsLoadedList(t *testing.T) {
	log := &callLog{}
	var mu sync.Mutex
	stored := []models.Challenge{{ID: "old", Title: "Old"}}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /challenges", func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		mu.Lock()
		defer mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"challenges": stored, "total": len(stored), "totalPages": 1})
	})
	mux.HandleFunc("POST /challenges", func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		var in models.ChallengeInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		c := models.Challenge{ID: "new", Title: in.Title}
		mu.Lock()
		stored = append([]models.Challenge{c}, stored...)
		mu.Unlock()
		writeJSON(w, http.StatusCreated, c)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	v := NewChallenges(client.New(srv.URL, nil))
	v.List.Load(ctx)
	v.List.Wait()

	now := time.Now()
	created, err := v.Create(ctx, NewSubmitter(), models.ChallengeInput{
		Title:       "Caption this",
		Description: "Best caption wins",
		Category:    "funny",
		StartDate:   now,
		EndDate:     now.Add(72 * time.Hour),
	}, nil)
	require.NoError(t, err)
	v.List.Wait()

	assert.Equal(t, "new", created.ID)
	assert.Equal(t, []string{"GET /challenges", "POST /challenges", "GET /challenges"}, log.snapshot())
	st := v.List.State()
	require.Len(t, st.Items, 2)
	assert.Equal(t, "new", st.Items[0].ID)
}

func TestGroupJoinLeaveReplaceOnlyThatGroup(t *testing.T) {
	log := &callLog{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /groups", func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		writeJSON(w, http.StatusOK, map[string]any{
			"groups": []models.Group{
				{ID: "g1", Name: "Cats", Stats: models.GroupStats{Members: 1}},
				{ID: "g2", Name: "Dogs", Stats: models.GroupStats{Members: 4}},
			},
			"total": 2, "totalPages": 1,
		})
	})
	mux.HandleFunc("POST /groups/{id}/join", func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		if r.PathValue("id") == "g2" {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "group is private"})
			return
		}
		writeJSON(w, http.StatusOK, models.Group{ID: "g1", Name: "Cats", IsMember: true, Stats: models.GroupStats{Members: 2}})
	})
	mux.HandleFunc("POST /groups/{id}/leave", func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		writeJSON(w, http.StatusOK, models.Group{ID: "g1", Name: "Cats", Stats: models.GroupStats{Members: 1}})
	})
	mux.HandleFunc("DELETE /groups/{id}", func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	v := NewGroups(client.New(srv.URL, nil))
	v.List.Load(ctx)
	v.List.Wait()

	joined, err := v.Join(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, joined.IsMember)
	st := v.List.State()
	assert.True(t, st.Items[0].IsMember)
	assert.Equal(t, 2, st.Items[0].Stats.Members)
	assert.Equal(t, 4, st.Items[1].Stats.Members)

	_, err = v.Join(ctx, "g2")
	assert.True(t, client.IsForbidden(err))
	assert.False(t, v.List.State().Items[1].IsMember)

	_, err = v.Leave(ctx, "g1")
	require.NoError(t, err)
	st = v.List.State()
	assert.False(t, st.Items[0].IsMember)
	assert.Equal(t, 1, st.Items[0].Stats.Members)

	require.NoError(t, v.Delete(ctx, "g2"))
	st = v.List.State()
	require.Len(t, st.Items, 1)
	assert.Equal(t, 1, st.Total)

	assert.Equal(t, []string{
		"GET /groups",
		"POST /groups/g1/join",
		"POST /groups/g2/join",
		"POST /groups/g1/leave",
		"DELETE /groups/g2",
	}, log.snapshot())
}
