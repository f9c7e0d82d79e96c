package store

import (
	"sort"

	"conduit/backend/internal/model"
)

// NewestFirst reports whether a sorts before b in listing order:
// creation time descending, then id descending.
func NewestFirst(a, b *model.Article) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// SortArticles orders articles in place for listing.
func SortArticles(articles []model.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return NewestFirst(&articles[i], &articles[j])
	})
}

// Window returns the [offset, offset+limit) bounds clamped to n.
func Window(n, offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	end := offset + limit
	if limit < 0 || end > n {
		end = n
	}
	return offset, end
}
