// Package feed answers the filtered article listings and the followed-authors
// feed, newest first with offset/limit pagination.
package feed

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"conduit/backend/internal/content"
	"conduit/backend/internal/model"
	"conduit/backend/internal/store"
	apperrors "conduit/backend/pkg/errors"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page selects a window of results. Nil fields take the defaults.
type Page struct {
	Offset *int
	Limit  *int
}

// Query filters a listing. Filters combine with AND; empty ones are ignored.
type Query struct {
	Author    string
	Tag       string
	Favorited string
	Page
}

// Result is one page plus the number of matches before pagination.
type Result struct {
	Articles []model.Article
	Count    int
}

// Service runs listings against a store.Feed.
type Service struct {
	store        store.Feed
	defaultLimit int
	maxLimit     int
	logger       *zap.Logger
}

// NewService creates a feed service. Non-positive limits fall back to the
// package defaults.
func NewService(st store.Feed, defaultLimit, maxLimit int, logger *zap.Logger) *Service {
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if defaultLimit <= 0 || defaultLimit > maxLimit {
		defaultLimit = min(DefaultLimit, maxLimit)
	}
	return &Service{
		store:        st,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		logger:       logger.Named("feed"),
	}
}

// List returns articles matching q.
func (s *Service) List(ctx context.Context, q Query) (*Result, error) {
	offset, limit, err := s.window(q.Page)
	if err != nil {
		return nil, err
	}
	filter := model.ArticleFilter{
		Author:      strings.TrimSpace(q.Author),
		TagSlug:     content.TagSlug(q.Tag),
		FavoritedBy: strings.TrimSpace(q.Favorited),
		Offset:      offset,
		Limit:       limit,
	}
	return s.run(ctx, "list_articles", filter)
}

// Feed returns articles written by authors the viewer follows.
func (s *Service) Feed(ctx context.Context, viewer *model.Profile, page Page) (*Result, error) {
	if viewer == nil {
		return nil, apperrors.NewUnauthorized("Authentication credentials were not provided.")
	}
	offset, limit, err := s.window(page)
	if err != nil {
		return nil, err
	}
	filter := model.ArticleFilter{FollowerID: viewer.ID, Offset: offset, Limit: limit}
	return s.run(ctx, "feed", filter)
}

func (s *Service) run(ctx context.Context, op string, filter model.ArticleFilter) (*Result, error) {
	articles, count, err := s.store.ListArticles(ctx, filter)
	if err != nil {
		s.logger.Error("Listing failed", zap.String("op", op), zap.Error(err))
		return nil, apperrors.NewStoreFailure(op, err)
	}
	s.logger.Debug("Listing served",
		zap.String("op", op),
		zap.Int("offset", filter.Offset),
		zap.Int("limit", filter.Limit),
		zap.Int("count", count))
	return &Result{Articles: articles, Count: count}, nil
}

func (s *Service) window(p Page) (int, int, error) {
	offset, limit := 0, s.defaultLimit
	verr := apperrors.NewValidation()
	if p.Offset != nil {
		if *p.Offset < 0 {
			verr.Add("offset", "must not be negative")
		}
		offset = *p.Offset
	}
	if p.Limit != nil {
		if *p.Limit < 0 {
			verr.Add("limit", "must not be negative")
		}
		limit = min(*p.Limit, s.maxLimit)
	}
	if err := verr.OrNil(); err != nil {
		return 0, 0, err
	}
	return offset, limit, nil
}
