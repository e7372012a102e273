// Package listquery derives the paginated, text-filtered view of an
// in-memory content collection. Every listing surface (talks, exercises,
// studies, pamphlets) shares these semantics; only the searchable-field
// extractor differs per kind.
package listquery

import "strings"

// Page sizes used by the listing surfaces.
const (
	GridPageSize = 12  // paginated grid views
	BulkPageSize = 100 // initial bulk fetch of a collection
)

// Query is the user-controlled input of Derive. SearchText that is empty
// or whitespace-only disables text filtering. Page is 1-based; callers
// clamp it to [1, TotalPages] before asking for the next page — Derive
// does not auto-correct a page beyond the end, it just returns an empty
// slice for it.
type Query struct {
	SearchText string
	Page       int
	PerPage    int
}

// Result is the derived view plus the metadata the pagination controls
// need. Page echoes the requested page even when Total is zero.
type Result[T any] struct {
	Items      []T
	Total      int
	Page       int
	PerPage    int
	TotalPages int
}

// FieldsFunc extracts the searchable field values of an item. A nil or
// empty field is simply non-matching; extraction must not fail.
type FieldsFunc[T any] func(T) []string

// Derive filters collection by q.SearchText (case-insensitive substring
// match OR'd across the extracted fields) and slices out the requested
// page. It is a pure function: identical inputs always produce an
// identical Result, and it never errors.
func Derive[T any](collection []T, q Query, fields FieldsFunc[T]) Result[T] {
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = GridPageSize
	}
	page := q.Page
	if page < 1 {
		page = 1
	}

	filtered := collection
	if needle := strings.ToLower(q.SearchText); strings.TrimSpace(needle) != "" {
		filtered = make([]T, 0, len(collection))
		for _, item := range collection {
			if matches(fields(item), needle) {
				filtered = append(filtered, item)
			}
		}
	}

	total := len(filtered)
	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Result[T]{
		Items:      filtered[start:end],
		Total:      total,
		Page:       q.Page,
		PerPage:    perPage,
		TotalPages: TotalPages(total, perPage),
	}
}

// TotalPages is ceil(total/perPage), zero when the collection is empty.
func TotalPages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

func matches(fields []string, needle string) bool {
	for _, f := range fields {
		if f == "" {
			continue
		}
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
