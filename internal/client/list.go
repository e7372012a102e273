package client

import (
	"context"
	"sync"

	"github.com/neuromat/amparo/internal/listquery"
)

// FetchFunc loads the full collection for a subcategory ("" means all).
type FetchFunc[T any] func(ctx context.Context, subcategory string) ([]T, error)

// ListController holds one content listing screen's state: the fetched
// collection plus the current search text, subcategory and page. The
// visible page is always derived from that state, never stored.
//
// Reloads are numbered. A fetch that finishes after a newer one started
// is discarded, so overlapping subcategory switches can never publish a
// stale collection.
type ListController[T any] struct {
	fetch  FetchFunc[T]
	fields listquery.FieldsFunc[T]

	mu          sync.Mutex
	generation  uint64
	items       []T
	loaded      bool
	search      string
	subcategory string
	page        int
}

// NewListController returns a controller with no data loaded. Call
// Reload to populate it.
func NewListController[T any](fetch FetchFunc[T], fields listquery.FieldsFunc[T]) *ListController[T] {
	return &ListController[T]{fetch: fetch, fields: fields, page: 1}
}

// Reload fetches the collection for the current subcategory. The result
// is kept only if no newer reload started in the meantime; a superseded
// reload returns nil without touching the state.
func (l *ListController[T]) Reload(ctx context.Context) error {
	l.mu.Lock()
	l.generation++
	generation := l.generation
	subcategory := l.subcategory
	l.mu.Unlock()

	items, err := l.fetch(ctx, subcategory)

	l.mu.Lock()
	defer l.mu.Unlock()
	if generation != l.generation {
		return nil
	}
	if err != nil {
		return err
	}
	l.items = items
	l.loaded = true
	return nil
}

// SetSearch updates the search text. Any change snaps back to page 1.
func (l *ListController[T]) SetSearch(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if text == l.search {
		return
	}
	l.search = text
	l.page = 1
}

// SetSubcategory switches the subcategory filter and refetches. A
// no-op when the subcategory is unchanged.
func (l *ListController[T]) SetSubcategory(ctx context.Context, subcategory string) error {
	l.mu.Lock()
	if subcategory == l.subcategory {
		l.mu.Unlock()
		return nil
	}
	l.subcategory = subcategory
	l.page = 1
	l.mu.Unlock()
	return l.Reload(ctx)
}

// SetPage moves to the given page. Values below 1 clamp to 1; pages
// past the end stay valid and derive an empty page.
func (l *ListController[T]) SetPage(page int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if page < 1 {
		page = 1
	}
	l.page = page
}

// Page returns the current page number.
func (l *ListController[T]) Page() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page
}

// Loaded reports whether a reload has completed.
func (l *ListController[T]) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// View derives the visible page from the current collection, search
// text and page number.
func (l *ListController[T]) View() listquery.Result[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return listquery.Derive(l.items, listquery.Query{
		SearchText: l.search,
		Page:       l.page,
		PerPage:    listquery.GridPageSize,
	}, l.fields)
}
