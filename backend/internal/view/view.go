// Package view projects stored entities into the per-viewer representations
// returned by the API.
package view

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"conduit/backend/internal/model"
)

// TimeFormat is RFC 3339 in UTC with millisecond precision.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

const defaultConcurrency = 8

// Graph is the slice of the social graph the composer reads.
type Graph interface {
	IsFollowing(ctx context.Context, a, b *model.Profile) (bool, error)
	HasFavorited(ctx context.Context, p *model.Profile, article *model.Article) (bool, error)
	FavoritesCount(ctx context.Context, article *model.Article) (int, error)
}

type ProfileView struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	Image     string `json:"image"`
	Following bool   `json:"following"`
}

type ArticleView struct {
	Slug           string      `json:"slug"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Body           string      `json:"body"`
	TagList        []string    `json:"tagList"`
	CreatedAt      string      `json:"createdAt"`
	UpdatedAt      string      `json:"updatedAt"`
	Favorited      bool        `json:"favorited"`
	FavoritesCount int         `json:"favoritesCount"`
	Author         ProfileView `json:"author"`
}

type CommentView struct {
	ID        string      `json:"id"`
	Body      string      `json:"body"`
	CreatedAt string      `json:"createdAt"`
	UpdatedAt string      `json:"updatedAt"`
	Author    ProfileView `json:"author"`
}

// Composer builds views relative to a viewer. A nil viewer is anonymous.
type Composer struct {
	graph       Graph
	concurrency int
}

// NewComposer creates a composer that resolves at most concurrency views of a
// page at once.
func NewComposer(graph Graph, concurrency int) *Composer {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Composer{graph: graph, concurrency: concurrency}
}

// FormatTime renders t in the API timestamp format.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// Profile composes a ProfileView. following is false for a nil viewer and for
// the viewer's own profile.
func (c *Composer) Profile(ctx context.Context, viewer, p *model.Profile) (ProfileView, error) {
	following, err := c.graph.IsFollowing(ctx, viewer, p)
	if err != nil {
		return ProfileView{}, err
	}
	return ProfileView{
		Username:  p.Username,
		Bio:       p.Bio,
		Image:     p.Image,
		Following: following,
	}, nil
}

// Article composes an ArticleView.
func (c *Composer) Article(ctx context.Context, viewer *model.Profile, a *model.Article) (ArticleView, error) {
	author, err := c.Profile(ctx, viewer, &a.Author)
	if err != nil {
		return ArticleView{}, err
	}
	favorited, err := c.graph.HasFavorited(ctx, viewer, a)
	if err != nil {
		return ArticleView{}, err
	}
	count, err := c.graph.FavoritesCount(ctx, a)
	if err != nil {
		return ArticleView{}, err
	}

	tags := a.TagList
	if tags == nil {
		tags = []string{}
	}
	return ArticleView{
		Slug:           a.Slug,
		Title:          a.Title,
		Description:    a.Description,
		Body:           a.Body,
		TagList:        tags,
		CreatedAt:      FormatTime(a.CreatedAt),
		UpdatedAt:      FormatTime(a.UpdatedAt),
		Favorited:      favorited,
		FavoritesCount: count,
		Author:         author,
	}, nil
}

// Articles composes a page of views concurrently, preserving input order.
func (c *Composer) Articles(ctx context.Context, viewer *model.Profile, articles []model.Article) ([]ArticleView, error) {
	out := make([]ArticleView, len(articles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i := range articles {
		i := i
		g.Go(func() error {
			v, err := c.Article(gctx, viewer, &articles[i])
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Comment composes a CommentView.
func (c *Composer) Comment(ctx context.Context, viewer *model.Profile, cm *model.Comment) (CommentView, error) {
	author, err := c.Profile(ctx, viewer, &cm.Author)
	if err != nil {
		return CommentView{}, err
	}
	return CommentView{
		ID:        cm.ID,
		Body:      cm.Body,
		CreatedAt: FormatTime(cm.CreatedAt),
		UpdatedAt: FormatTime(cm.UpdatedAt),
		Author:    author,
	}, nil
}

// Comments composes comment views in input order.
func (c *Composer) Comments(ctx context.Context, viewer *model.Profile, comments []model.Comment) ([]CommentView, error) {
	out := make([]CommentView, len(comments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i := range comments {
		i := i
		g.Go(func() error {
			v, err := c.Comment(gctx, viewer, &comments[i])
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
