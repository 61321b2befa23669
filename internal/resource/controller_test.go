package resource

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   string
	Name string
}

func (i item) GetID() string { return i.ID }

type recordingFetcher struct {
	mu         sync.Mutex
	calls      []Query
	totalPages int
	err        error
}

func (f *recordingFetcher) fetch(ctx context.Context, q Query) (Page[item], error) {
	f.mu.Lock()
	f.calls = append(f.calls, q.Clone())
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return Page[item]{}, err
	}
	items := []item{{ID: q.Encode() + "#1"}, {ID: q.Encode() + "#2"}}
	return Page[item]{Items: items, Page: q.Page, Limit: q.Limit, Total: f.totalPages * q.Limit, TotalPages: f.totalPages}, nil
}

func (f *recordingFetcher) snapshot() []Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Query, len(f.calls))
	copy(out, f.calls)
	return out
}

func TestControllerIssuesOneFetchPerDistinctQuery(t *testing.T) {
	f := &recordingFetcher{totalPages: 7}
	c := NewController(f.fetch, WithSorts("newest", "popular"), WithLimit(12))
	ctx := context.Background()

	c.Load(ctx)
	c.Wait()
	require.NoError(t, c.SetPage(ctx, 2))
	c.Wait()
	require.NoError(t, c.SetPage(ctx, 2))
	c.Wait()
	require.NoError(t, c.SetSort(ctx, "popular"))
	c.Wait()
	require.NoError(t, c.SetSort(ctx, "popular"))
	c.Wait()
	c.SetFilter(ctx, "category", "gaming")
	c.Wait()
	c.SetFilter(ctx, "category", "gaming")
	c.Wait()
	c.SetSearch(ctx, "  cat ")
	c.Wait()
	c.SetSearch(ctx, "cat")
	c.Wait()

	calls := f.snapshot()
	require.Len(t, calls, 5)
	assert.Equal(t, 1, calls[0].Page)
	assert.Equal(t, "newest", calls[0].Sort)
	assert.Equal(t, 12, calls[0].Limit)
	assert.Equal(t, 2, calls[1].Page)
	assert.Equal(t, "popular", calls[2].Sort)
	assert.Equal(t, 1, calls[2].Page, "sort change returns to the first page")
	assert.Equal(t, "gaming", calls[3].Filter("category"))
	assert.Equal(t, "cat", calls[4].Search)

	st := c.State()
	assert.False(t, st.Loading)
	assert.Equal(t, 7, st.TotalPages)
	assert.Equal(t, calls[4].Encode()+"#1", st.Items[0].ID)
}

func TestControllerRejectsInvalidPageAndSort(t *testing.T) {
	f := &recordingFetcher{totalPages: 1}
	c := NewController(f.fetch, WithSorts("newest", "popular"))
	ctx := context.Background()

	err := c.SetPage(ctx, 0)
	assert.True(t, errors.Is(err, ErrInvalidPage))
	err = c.SetSort(ctx, "oldest")
	assert.True(t, errors.Is(err, ErrInvalidSort))
	c.Wait()
	assert.Empty(t, f.snapshot())
}

func TestControllerDiscardsSupersededResponse(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	cancelled := false
	fetch := func(ctx context.Context, q Query) (Page[item], error) {
		if q.Page == 1 {
			select {
			case <-release:
			case <-ctx.Done():
				mu.Lock()
				cancelled = true
				mu.Unlock()
			}
			return Page[item]{Items: []item{{ID: "stale"}}, Page: 1, TotalPages: 9}, nil
		}
		return Page[item]{Items: []item{{ID: "fresh"}}, Page: q.Page, TotalPages: 3}, nil
	}
	c := NewController(fetch)
	ctx := context.Background()

	c.Load(ctx)
	require.NoError(t, c.SetPage(ctx, 2))
	c.Wait()
	close(release)

	st := c.State()
	require.Len(t, st.Items, 1)
	assert.Equal(t, "fresh", st.Items[0].ID)
	assert.Equal(t, 2, st.Page)
	assert.Equal(t, 3, st.TotalPages)
	mu.Lock()
	assert.True(t, cancelled, "superseded fetch context is cancelled")
	mu.Unlock()
}

func TestControllerClearsItemsOnError(t *testing.T) {
	f := &recordingFetcher{totalPages: 2}
	c := NewController(f.fetch)
	ctx := context.Background()
	c.Load(ctx)
	c.Wait()
	require.NotEmpty(t, c.State().Items)

	f.mu.Lock()
	f.err = errors.New("boom")
	f.mu.Unlock()
	c.Refresh(ctx)
	c.Wait()

	st := c.State()
	assert.EqualError(t, st.Err, "boom")
	assert.Empty(t, st.Items)
	assert.Zero(t, st.TotalPages)
}

func TestControllerKeepsItemsOnErrorWhenConfigured(t *testing.T) {
	f := &recordingFetcher{totalPages: 2}
	c := NewController(f.fetch, WithKeepItemsOnError())
	ctx := context.Background()
	c.Load(ctx)
	c.Wait()

	f.mu.Lock()
	f.err = errors.New("offline")
	f.mu.Unlock()
	c.Refresh(ctx)
	c.Wait()

	st := c.State()
	assert.Error(t, st.Err)
	assert.Len(t, st.Items, 2)
}

func TestControllerNotifiesSubscribers(t *testing.T) {
	f := &recordingFetcher{totalPages: 1}
	c := NewController(f.fetch)
	var mu sync.Mutex
	var loading []bool
	c.Subscribe(func(s State[item]) {
		mu.Lock()
		loading = append(loading, s.Loading)
		mu.Unlock()
	})
	c.Load(context.Background())
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []bool{true, false}, loading)
}

func TestQueryEqualIgnoresEmptyFilters(t *testing.T) {
	a := Query{Page: 1, Limit: 12, Filters: map[string]string{"category": ""}}
	b := Query{Page: 1, Limit: 12}
	assert.True(t, a.Equal(b))
	assert.Equal(t, "limit=12&page=1", a.Encode())
}

func TestControllerSeedSetsQueryWithoutFetching(t *testing.T) {
	f := &recordingFetcher{totalPages: 4}
	c := NewController(f.fetch, WithSorts("newest", "popular"), WithFilter("category", "funny"))
	ctx := context.Background()

	require.NoError(t, c.Seed(Query{Page: 3, Sort: "popular", Search: " cat ", Filters: map[string]string{"owner": "u1", "empty": " "}}))
	assert.Empty(t, f.snapshot())

	c.Load(ctx)
	c.Wait()
	calls := f.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, 3, calls[0].Page)
	assert.Equal(t, "popular", calls[0].Sort)
	assert.Equal(t, "cat", calls[0].Search)
	assert.Equal(t, "funny", calls[0].Filter("category"))
	assert.Equal(t, "u1", calls[0].Filter("owner"))
	assert.NotContains(t, calls[0].Filters, "empty")

	assert.ErrorIs(t, c.Seed(Query{Page: 1}), ErrStarted)
}

func TestControllerSeedRejectsUnknownSort(t *testing.T) {
	c := NewController((&recordingFetcher{}).fetch, WithSorts("newest"))
	assert.ErrorIs(t, c.Seed(Query{Sort: "loudest"}), ErrInvalidSort)
	assert.ErrorIs(t, c.Seed(Query{Page: -1}), ErrInvalidPage)
}
