package memstore

import (
	"context"
	"slices"
	"sort"
	"time"

	"conduit/backend/internal/model"
	"conduit/backend/internal/store"
)

func (s *Store) CreateArticle(ctx context.Context, article *model.Article, tags []model.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.articleBySlug[article.Slug]; taken {
		return &store.ConflictError{Entity: "article", Field: "slug"}
	}
	if _, taken := s.articles[article.ID]; taken {
		return &store.ConflictError{Entity: "article", Field: "id"}
	}
	author, ok := s.profiles[article.Author.ID]
	if !ok {
		return store.ErrNotFound
	}

	rec := &articleRecord{Article: *article, authorID: author.ID}
	rec.TagList = nil
	for _, t := range tags {
		existing, ok := s.tags[t.Slug]
		if !ok {
			tag := t
			existing = &tag
			s.tags[t.Slug] = existing
		}
		rec.tagSlugs = append(rec.tagSlugs, existing.Slug)
	}

	s.articles[rec.ID] = rec
	s.articleBySlug[rec.Slug] = rec.ID

	*article = s.hydrateArticleLocked(rec)
	return nil
}

func (s *Store) ArticleBySlug(ctx context.Context, slug string) (*model.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.articleBySlug[slug]
	if !ok {
		return nil, store.ErrNotFound
	}
	a := s.hydrateArticleLocked(s.articles[id])
	return &a, nil
}

func (s *Store) UpdateArticle(ctx context.Context, id string, patch model.ArticlePatch, updatedAt time.Time) (*model.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.articles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if patch.Title != nil {
		rec.Title = *patch.Title
	}
	if patch.Description != nil {
		rec.Description = *patch.Description
	}
	if patch.Body != nil {
		rec.Body = *patch.Body
	}
	rec.UpdatedAt = updatedAt
	a := s.hydrateArticleLocked(rec)
	return &a, nil
}

func (s *Store) DeleteArticle(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[id]; !ok {
		return store.ErrNotFound
	}
	s.deleteArticleLocked(id)
	return nil
}

func (s *Store) deleteArticleLocked(id string) {
	rec := s.articles[id]
	for profileID := range s.favoritedBy[id] {
		removeEdge(s.favorites, profileID, id)
	}
	delete(s.favoritedBy, id)
	for cid, c := range s.comments {
		if c.ArticleID == id {
			delete(s.comments, cid)
		}
	}
	delete(s.articleBySlug, rec.Slug)
	delete(s.articles, id)
}

func (s *Store) hydrateArticleLocked(rec *articleRecord) model.Article {
	a := rec.Article
	if p, ok := s.profiles[rec.authorID]; ok {
		a.Author = *p
	}
	a.TagList = make([]string, 0, len(rec.tagSlugs))
	for _, slug := range rec.tagSlugs {
		if t, ok := s.tags[slug]; ok {
			a.TagList = append(a.TagList, t.Label)
		}
	}
	return a
}

func (s *Store) CreateComment(ctx context.Context, comment *model.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[comment.ArticleID]; !ok {
		return store.ErrNotFound
	}
	author, ok := s.profiles[comment.Author.ID]
	if !ok {
		return store.ErrNotFound
	}
	if _, taken := s.comments[comment.ID]; taken {
		return &store.ConflictError{Entity: "comment", Field: "id"}
	}
	s.comments[comment.ID] = &commentRecord{Comment: *comment, authorID: author.ID}
	comment.Author = *author
	return nil
}

func (s *Store) CommentByID(ctx context.Context, id string) (*model.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.comments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := s.hydrateCommentLocked(rec)
	return &c, nil
}

func (s *Store) ListComments(ctx context.Context, articleID string) ([]model.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Comment, 0)
	for _, rec := range s.comments {
		if rec.ArticleID == articleID {
			out = append(out, s.hydrateCommentLocked(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) hydrateCommentLocked(rec *commentRecord) model.Comment {
	c := rec.Comment
	if p, ok := s.profiles[rec.authorID]; ok {
		c.Author = *p
	}
	return c
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

func (s *Store) ListTags(ctx context.Context) ([]model.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Tag, 0, len(s.tags))
	for _, t := range s.tags {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (s *Store) ListArticles(ctx context.Context, filter model.ArticleFilter) ([]model.Article, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var authorID, favoriterID string
	if filter.Author != "" {
		p := s.profileByUsernameLocked(filter.Author)
		if p == nil {
			return []model.Article{}, 0, nil
		}
		authorID = p.ID
	}
	if filter.FavoritedBy != "" {
		p := s.profileByUsernameLocked(filter.FavoritedBy)
		if p == nil {
			return []model.Article{}, 0, nil
		}
		favoriterID = p.ID
	}

	matched := make([]model.Article, 0)
	for _, rec := range s.articles {
		if authorID != "" && rec.authorID != authorID {
			continue
		}
		if favoriterID != "" {
			if _, ok := s.favorites[favoriterID][rec.ID]; !ok {
				continue
			}
		}
		if filter.FollowerID != "" {
			if _, ok := s.follows[filter.FollowerID][rec.authorID]; !ok {
				continue
			}
		}
		if filter.TagSlug != "" && !slices.Contains(rec.tagSlugs, filter.TagSlug) {
			continue
		}
		matched = append(matched, s.hydrateArticleLocked(rec))
	}

	store.SortArticles(matched)
	start, end := store.Window(len(matched), filter.Offset, filter.Limit)
	return matched[start:end], len(matched), nil
}
