package resource

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const DefaultLimit = 12

var (
	ErrInvalidPage = errors.New("page must be >= 1")
	ErrInvalidSort = errors.New("unsupported sort")
	ErrStarted     = errors.New("controller already loaded")
)

// FetchFunc loads one page of a collection. It must honor ctx cancellation.
type FetchFunc[T any] func(ctx context.Context, q Query) (Page[T], error)

// State is a snapshot of what a collection view renders.
type State[T any] struct {
	Items      []T
	Loading    bool
	Err        error
	Query      Query
	Page       int
	TotalPages int
	Total      int
}

type options struct {
	limit            int
	sorts            []string
	filters          map[string]string
	keepItemsOnError bool
	logger           *zap.Logger
}

type Option func(*options)

// WithLimit fixes the page size of the surface.
func WithLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.limit = n
		}
	}
}

// WithSorts declares the accepted sort keys; the first one is the default.
func WithSorts(sorts ...string) Option {
	return func(o *options) { o.sorts = slices.Clone(sorts) }
}

// WithFilter seeds an initial filter value.
func WithFilter(key, value string) Option {
	return func(o *options) {
		if o.filters == nil {
			o.filters = map[string]string{}
		}
		o.filters[key] = value
	}
}

// WithKeepItemsOnError keeps the last good items when a fetch fails instead of
// clearing them.
func WithKeepItemsOnError() Option {
	return func(o *options) { o.keepItemsOnError = true }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Controller drives the fetch/filter/paginate lifecycle of one collection view.
//
// Every change to the query starts exactly one fetch. A fetch started later
// supersedes any earlier one: the earlier fetch's context is cancelled and its
// result is dropped even if it still resolves, so State always reflects the
// most recently requested query once loading completes.
type Controller[T any] struct {
	fetch  FetchFunc[T]
	opts   options
	logger *zap.Logger

	mu      sync.Mutex
	query   Query
	state   State[T]
	seq     uint64
	cancel  context.CancelFunc
	started bool
	subs    []func(State[T])

	inflight sync.WaitGroup
}

func NewController[T any](fetch FetchFunc[T], opts ...Option) *Controller[T] {
	o := options{limit: DefaultLimit, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	q := Query{Page: 1, Limit: o.limit, Filters: map[string]string{}}
	if len(o.sorts) > 0 {
		q.Sort = o.sorts[0]
	}
	for k, v := range o.filters {
		q.Filters[k] = v
	}
	c := &Controller[T]{
		fetch:  fetch,
		opts:   o,
		logger: o.logger,
		query:  q,
	}
	c.state = State[T]{Query: q.Clone(), Page: q.Page}
	return c
}

// Subscribe registers fn to receive a snapshot whenever loading starts or
// finishes and after every local patch.
func (c *Controller[T]) Subscribe(fn func(State[T])) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// Load issues the initial fetch for the current query. Calling it again
// behaves like Refresh.
func (c *Controller[T]) Load(ctx context.Context) {
	c.Refresh(ctx)
}

// Refresh re-fetches the current query unconditionally.
func (c *Controller[T]) Refresh(ctx context.Context) {
	c.mu.Lock()
	snap := c.startLocked(ctx)
	subs := slices.Clone(c.subs)
	c.mu.Unlock()
	notify(subs, snap)
}

// refreshIfStarted re-fetches only a controller that has loaded before; a
// one-shot mutation on an unread list has nothing to reconcile.
func (c *Controller[T]) refreshIfStarted(ctx context.Context) {
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if started {
		c.Refresh(ctx)
	}
}

// SetFilter sets or, with an empty value, clears a filter and returns to the
// first page.
func (c *Controller[T]) SetFilter(ctx context.Context, key, value string) {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	c.update(ctx, func(q *Query) {
		if value == "" {
			delete(q.Filters, key)
		} else {
			q.Filters[key] = value
		}
		if q.Filters[key] != c.query.Filters[key] {
			q.Page = 1
		}
	})
}

func (c *Controller[T]) SetSearch(ctx context.Context, search string) {
	search = strings.TrimSpace(search)
	c.update(ctx, func(q *Query) {
		if q.Search != search {
			q.Search = search
			q.Page = 1
		}
	})
}

func (c *Controller[T]) SetSort(ctx context.Context, sort string) error {
	sort = strings.TrimSpace(sort)
	if len(c.opts.sorts) > 0 && !slices.Contains(c.opts.sorts, sort) {
		return fmt.Errorf("%w %q (want one of %s)", ErrInvalidSort, sort, strings.Join(c.opts.sorts, ", "))
	}
	c.update(ctx, func(q *Query) {
		if q.Sort != sort {
			q.Sort = sort
			q.Page = 1
		}
	})
	return nil
}

func (c *Controller[T]) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidPage, page)
	}
	c.update(ctx, func(q *Query) { q.Page = page })
	return nil
}

// Seed sets the starting query in one step before the first Load, without
// fetching. Zero fields of q keep their defaults.
func (c *Controller[T]) Seed(q Query) error {
	if q.Page < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPage, q.Page)
	}
	sort := strings.TrimSpace(q.Sort)
	if sort != "" && len(c.opts.sorts) > 0 && !slices.Contains(c.opts.sorts, sort) {
		return fmt.Errorf("%w %q (want one of %s)", ErrInvalidSort, sort, strings.Join(c.opts.sorts, ", "))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrStarted
	}
	if q.Page > 0 {
		c.query.Page = q.Page
	}
	if q.Limit > 0 {
		c.query.Limit = q.Limit
	}
	if sort != "" {
		c.query.Sort = sort
	}
	c.query.Search = strings.TrimSpace(q.Search)
	for k, v := range q.Filters {
		if v = strings.TrimSpace(v); v != "" {
			c.query.Filters[strings.TrimSpace(k)] = v
		}
	}
	c.state.Query = c.query.Clone()
	c.state.Page = c.query.Page
	return nil
}

// Sorts lists the sort keys this surface accepts.
func (c *Controller[T]) Sorts() []string {
	return slices.Clone(c.opts.sorts)
}

func (c *Controller[T]) Query() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query.Clone()
}

func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Wait blocks until no fetch is in flight.
func (c *Controller[T]) Wait() {
	c.inflight.Wait()
}

// Patch applies fn to the current items. It is the reconcile step after a
// mutation the server has already confirmed.
func (c *Controller[T]) Patch(fn func([]T) []T) {
	c.mu.Lock()
	before := len(c.state.Items)
	c.state.Items = fn(slices.Clone(c.state.Items))
	if c.state.Total > 0 || len(c.state.Items) > before {
		c.state.Total += len(c.state.Items) - before
		if c.state.Total < 0 {
			c.state.Total = 0
		}
	}
	snap := c.snapshotLocked()
	subs := slices.Clone(c.subs)
	c.mu.Unlock()
	notify(subs, snap)
}

// Close cancels any in-flight fetch. The controller must not be used after.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.seq++
	c.mu.Unlock()
	c.inflight.Wait()
}

func (c *Controller[T]) update(ctx context.Context, mutate func(q *Query)) {
	c.mu.Lock()
	next := c.query.Clone()
	mutate(&next)
	if c.started && next.Equal(c.query) {
		c.mu.Unlock()
		return
	}
	c.query = next
	snap := c.startLocked(ctx)
	subs := slices.Clone(c.subs)
	c.mu.Unlock()
	notify(subs, snap)
}

func (c *Controller[T]) startLocked(ctx context.Context) State[T] {
	if c.cancel != nil {
		c.cancel()
	}
	c.started = true
	c.seq++
	seq := c.seq
	q := c.query.Clone()
	fctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.state.Loading = true
	c.state.Query = q.Clone()

	c.logger.Debug("fetch started", zap.Uint64("seq", seq), zap.Stringer("query", q))
	c.inflight.Add(1)
	go c.run(fctx, cancel, seq, q)
	return c.snapshotLocked()
}

func (c *Controller[T]) run(ctx context.Context, cancel context.CancelFunc, seq uint64, q Query) {
	defer c.inflight.Done()
	defer cancel()

	page, err := c.fetch(ctx, q)

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.logger.Debug("fetch superseded", zap.Uint64("seq", seq), zap.Error(err))
		return
	}
	c.cancel = nil
	c.state.Loading = false
	if err != nil {
		c.state.Err = err
		if !c.opts.keepItemsOnError {
			c.state.Items = nil
			c.state.Total = 0
			c.state.TotalPages = 0
		}
		c.logger.Debug("fetch failed", zap.Uint64("seq", seq), zap.Error(err))
	} else {
		c.state.Err = nil
		c.state.Items = page.Items
		c.state.Page = q.Page
		if page.Page > 0 {
			c.state.Page = page.Page
		}
		c.state.Total = page.Total
		c.state.TotalPages = page.TotalPages
		c.logger.Debug("fetch finished", zap.Uint64("seq", seq), zap.Int("items", len(page.Items)))
	}
	snap := c.snapshotLocked()
	subs := slices.Clone(c.subs)
	c.mu.Unlock()
	notify(subs, snap)
}

func (c *Controller[T]) snapshotLocked() State[T] {
	s := c.state
	s.Items = slices.Clone(c.state.Items)
	s.Query = c.state.Query.Clone()
	return s
}

func notify[T any](subs []func(State[T]), s State[T]) {
	for _, fn := range subs {
		fn(s)
	}
}
