// Package resource holds the client-side state of a paginated, filterable
// server collection: the query that produced it, the items last returned,
// and the helpers that reconcile those items after a mutation.
package resource

import (
	"maps"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Query is the full parameter tuple of one list request.
type Query struct {
	Page    int
	Limit   int
	Sort    string
	Search  string
	Filters map[string]string
}

// Values encodes q as list query parameters. Empty values are omitted.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if s := strings.TrimSpace(q.Sort); s != "" {
		v.Set("sort", s)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	for k, val := range q.Filters {
		if strings.TrimSpace(val) == "" {
			continue
		}
		v.Set(k, val)
	}
	return v
}

// Encode returns the query string form of q, keys sorted.
func (q Query) Encode() string {
	return q.Values().Encode()
}

func (q Query) Equal(o Query) bool {
	return q.Page == o.Page &&
		q.Limit == o.Limit &&
		q.Sort == o.Sort &&
		q.Search == o.Search &&
		maps.Equal(q.nonEmptyFilters(), o.nonEmptyFilters())
}

func (q Query) Clone() Query {
	out := q
	out.Filters = maps.Clone(q.Filters)
	if out.Filters == nil {
		out.Filters = map[string]string{}
	}
	return out
}

func (q Query) Filter(key string) string {
	return q.Filters[key]
}

// String is a stable human-readable form, used in logs.
func (q Query) String() string {
	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("page=" + strconv.Itoa(q.Page))
	b.WriteString(" limit=" + strconv.Itoa(q.Limit))
	if q.Sort != "" {
		b.WriteString(" sort=" + q.Sort)
	}
	if q.Search != "" {
		b.WriteString(" search=" + strconv.Quote(q.Search))
	}
	for _, k := range keys {
		if q.Filters[k] == "" {
			continue
		}
		b.WriteString(" " + k + "=" + q.Filters[k])
	}
	return b.String()
}

func (q Query) nonEmptyFilters() map[string]string {
	out := make(map[string]string, len(q.Filters))
	for k, v := range q.Filters {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Page is one server response for a list query.
type Page[T any] struct {
	Items      []T
	Page       int
	Limit      int
	Total      int
	TotalPages int
}
