// Package pager loads a list incrementally, one page at a time.
//
// One Pager backs every paged screen: popular recipes and blogs, the merged
// following feed, search results and per-user lists. It keeps the page
// cursor, deduplicates items by key and records the load errors the UI
// shows.
package pager

import (
	"context"
	"errors"
	"sync"

	"github.com/pders01/crumb/internal/api"
	"github.com/pders01/crumb/internal/debuglog"
)

var (
	// ErrClosed is returned by loads started after Close.
	ErrClosed = errors.New("pager closed")
	// ErrDiscarded is returned when a load finished after the pager was
	// reset or closed; its result was dropped.
	ErrDiscarded = errors.New("pager result discarded")
)

// Identifiable items are deduplicated by Key.
type Identifiable interface {
	Key() string
}

// Page is one response of a list endpoint.
type Page[T any] struct {
	Items      []T
	TotalCount int
}

// FetchFunc requests one page; pageNumber starts at 1.
type FetchFunc[T any] func(ctx context.Context, pageNumber, pageSize int) (Page[T], error)

// FromList adapts an api list call to a FetchFunc.
func FromList[T any](call func(ctx context.Context, page api.PageRequest) (api.ListResponse[T], error)) FetchFunc[T] {
	return func(ctx context.Context, pageNumber, pageSize int) (Page[T], error) {
		resp, err := call(ctx, api.PageRequest{PageNumber: pageNumber, PageSize: pageSize})
		if err != nil {
			return Page[T]{}, err
		}
		return Page[T]{Items: resp.Items, TotalCount: resp.TotalCount}, nil
	}
}

// State is a point-in-time copy of a pager.
type State[T any] struct {
	Items       []T
	PageNumber  int
	TotalPages  int
	Loading     bool
	LoadingMore bool
	Err         string
	ErrMore     string
}

type Pager[T Identifiable] struct {
	fetch    FetchFunc[T]
	pageSize int
	name     string

	mu          sync.Mutex
	items       []T
	seen        map[string]struct{}
	pageNumber  int
	totalPages  int
	loading     bool
	loadingMore bool
	err         string
	errMore     string
	closed      bool

	// gen changes on every reset; loads from an older generation are dropped.
	gen     uint64
	genCtx  context.Context
	stopGen context.CancelFunc
}

func New[T Identifiable](fetch FetchFunc[T], pageSize int) *Pager[T] {
	if pageSize < 1 {
		pageSize = 10
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pager[T]{
		fetch:      fetch,
		pageSize:   pageSize,
		seen:       make(map[string]struct{}),
		pageNumber: 1,
		genCtx:     ctx,
		stopGen:    cancel,
	}
}

// Named sets the name used in log lines.
func (p *Pager[T]) Named(name string) *Pager[T] {
	p.name = name
	return p
}

func (p *Pager[T]) PageSize() int { return p.pageSize }

// LoadInitial resets the cursor and loads page 1, replacing any items.
// In-flight loads of the previous generation are cancelled and dropped.
func (p *Pager[T]) LoadInitial(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.stopGen()
	p.genCtx, p.stopGen = context.WithCancel(context.Background())
	p.gen++
	gen := p.gen
	p.items = nil
	p.seen = make(map[string]struct{})
	p.pageNumber = 1
	p.totalPages = 0
	p.loading = true
	p.loadingMore = false
	p.err = ""
	p.errMore = ""
	ctx, release := p.bind(ctx)
	p.mu.Unlock()
	defer release()

	page, err := p.fetch(ctx, 1, p.pageSize)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || gen != p.gen {
		return ErrDiscarded
	}
	p.loading = false
	if err != nil {
		p.err = api.ErrorMessage(err, "")
		p.logger().Warnf("initial load failed: %v", err)
		return err
	}

	p.appendLocked(page.Items)
	p.pageNumber = 2
	p.totalPages = ceilDiv(page.TotalCount, p.pageSize)
	return nil
}

// LoadMore fetches the next page. It reports false without fetching when a
// load is already in flight or every page has been fetched. A failed load
// leaves the cursor in place, so the next call retries the same page.
func (p *Pager[T]) LoadMore(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false, ErrClosed
	}
	if p.loading || p.loadingMore || p.pageNumber > p.totalPages {
		p.mu.Unlock()
		return false, nil
	}
	p.loadingMore = true
	p.errMore = ""
	gen := p.gen
	number := p.pageNumber
	ctx, release := p.bind(ctx)
	p.mu.Unlock()
	defer release()

	page, err := p.fetch(ctx, number, p.pageSize)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || gen != p.gen {
		return false, ErrDiscarded
	}
	p.loadingMore = false
	if err != nil {
		p.errMore = api.ErrorMessage(err, "")
		p.logger().Warnf("load of page %d failed: %v", number, err)
		return false, err
	}

	p.appendLocked(page.Items)
	p.pageNumber++
	return true, nil
}

// HasMore reports whether LoadMore would fetch another page.
func (p *Pager[T]) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed && !p.loading && p.pageNumber <= p.totalPages
}

// Snapshot returns a copy of the current state.
func (p *Pager[T]) Snapshot() State[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	items := make([]T, len(p.items))
	copy(items, p.items)
	return State[T]{
		Items:       items,
		PageNumber:  p.pageNumber,
		TotalPages:  p.totalPages,
		Loading:     p.loading,
		LoadingMore: p.loadingMore,
		Err:         p.err,
		ErrMore:     p.errMore,
	}
}

// Remove drops the item with key, e.g. after it was deleted. It reports
// whether the item was present.
func (p *Pager[T]) Remove(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.seen[key]; !ok {
		return false
	}
	delete(p.seen, key)
	for i, item := range p.items {
		if item.Key() == key {
			p.items = append(p.items[:i], p.items[i+1:]...)
			break
		}
	}
	return true
}

// Close cancels in-flight loads and discards their results. Later loads
// fail with ErrClosed.
func (p *Pager[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.gen++
	p.stopGen()
	p.loading = false
	p.loadingMore = false
}

// bind derives a context that is cancelled with either ctx or the current
// generation. Callers hold p.mu.
func (p *Pager[T]) bind(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(p.genCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (p *Pager[T]) appendLocked(items []T) {
	for _, item := range items {
		key := item.Key()
		if _, dup := p.seen[key]; dup {
			continue
		}
		p.seen[key] = struct{}{}
		p.items = append(p.items, item)
	}
}

func (p *Pager[T]) logger() *debuglog.FieldLogger {
	return debuglog.WithFields(map[string]any{
		"component": "pager",
		"pager":     p.name,
		"page_size": p.pageSize,
	})
}

func ceilDiv(total, size int) int {
	if total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
