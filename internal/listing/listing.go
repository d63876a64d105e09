// Package listing filters, sorts and paginates in-memory tables.
package listing

import (
	"slices"
	"strings"
)

// Page size limits.
const (
	DefaultSize = 10
	MaxSize     = 100
)

// Page is one page of a list.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Size       int `json:"size"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Filter returns the items for which keep is true. A nil keep returns a
// copy of items.
func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep == nil || keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// SortBy sorts a copy of items with cmp. The sort is stable.
func SortBy[T any](items []T, cmp func(a, b T) int) []T {
	out := slices.Clone(items)
	if cmp != nil {
		slices.SortStableFunc(out, cmp)
	}
	return out
}

// Paginate returns page (1-based) of items. Size is clamped to
// 1..MaxSize, with 0 meaning DefaultSize. Pages past the end are empty
// but keep the totals.
func Paginate[T any](items []T, page, size int) Page[T] {
	switch {
	case size == 0:
		size = DefaultSize
	case size < 1:
		size = 1
	case size > MaxSize:
		size = MaxSize
	}
	if page < 1 {
		page = 1
	}

	total := len(items)
	p := Page[T]{
		Items:      make([]T, 0),
		Page:       page,
		Size:       size,
		Total:      total,
		TotalPages: (total + size - 1) / size,
	}

	start := (page - 1) * size
	if start >= total {
		return p
	}
	end := min(start+size, total)
	p.Items = append(p.Items, items[start:end]...)
	return p
}

// Contains reports whether any of fields contains query, ignoring case.
// An empty query matches everything.
func Contains(query string, fields ...string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Desc reverses the order of cmp.
func Desc[T any](cmp func(a, b T) int) func(a, b T) int {
	return func(a, b T) int { return cmp(b, a) }
}
