package feed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"conduit/backend/internal/model"
	"conduit/backend/internal/store/memstore"
	apperrors "conduit/backend/pkg/errors"
)

type fixture struct {
	st   *memstore.Store
	svc  *Service
	base time.Time
	n    int
}

func newFixture() *fixture {
	st := memstore.New()
	return &fixture{
		st:   st,
		svc:  NewService(st, 20, 100, zap.NewNop()),
		base: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) profile(t *testing.T, name string) *model.Profile {
	t.Helper()
	ctx := context.Background()
	u := &model.User{ID: model.NewID(), Username: name, Email: name + "@example.org"}
	require.NoError(t, f.st.CreateUser(ctx, u, &model.Profile{ID: model.NewID()}))
	p, err := f.st.ProfileByUsername(ctx, name)
	require.NoError(t, err)
	return p
}

func (f *fixture) article(t *testing.T, author *model.Profile, tags ...string) *model.Article {
	t.Helper()
	f.n++
	at := f.base.Add(time.Duration(f.n) * time.Minute)
	var ts []model.Tag
	for _, l := range tags {
		ts = append(ts, model.Tag{ID: model.NewID(), Label: l, Slug: l})
	}
	a := &model.Article{
		ID:        model.NewID(),
		Slug:      fmt.Sprintf("%s-%d", author.Username, f.n),
		Title:     "t",
		Author:    *author,
		CreatedAt: at,
		UpdatedAt: at,
	}
	require.NoError(t, f.st.CreateArticle(context.Background(), a, ts))
	return a
}

func intp(v int) *int { return &v }

func TestList_PaginationWindows(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	jake := f.profile(t, "jake")
	for i := 0; i < 25; i++ {
		f.article(t, jake)
	}

	first, err := f.svc.List(ctx, Query{})
	require.NoError(t, err)
	second, err := f.svc.List(ctx, Query{Page: Page{Offset: intp(20), Limit: intp(20)}})
	require.NoError(t, err)

	assert.Equal(t, 25, first.Count)
	assert.Equal(t, 25, second.Count)
	require.Len(t, first.Articles, 20)
	require.Len(t, second.Articles, 5)

	seen := map[string]bool{}
	all := append(append([]model.Article{}, first.Articles...), second.Articles...)
	for i, a := range all {
		assert.False(t, seen[a.ID], "article %s appears twice", a.Slug)
		seen[a.ID] = true
		if i > 0 {
			assert.True(t, all[i-1].CreatedAt.After(a.CreatedAt), "newest first")
		}
	}
	assert.Equal(t, "jake-25", all[0].Slug)
}

func TestList_Filters(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	jake, jane := f.profile(t, "jake"), f.profile(t, "jane")

	f.article(t, jake, "go")
	f.article(t, jake, "python")
	fav := f.article(t, jane, "python")
	_, err := f.st.AddFavorite(ctx, jake.ID, fav.ID)
	require.NoError(t, err)

	res, err := f.svc.List(ctx, Query{Author: "jake"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	res, err = f.svc.List(ctx, Query{Tag: "Python"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	res, err = f.svc.List(ctx, Query{Author: "jake", Tag: "python"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)

	res, err = f.svc.List(ctx, Query{Favorited: "jake"})
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, fav.ID, res.Articles[0].ID)

	res, err = f.svc.List(ctx, Query{Author: "nobody"})
	require.NoError(t, err)
	assert.Zero(t, res.Count)
	assert.Empty(t, res.Articles)
}

func TestFeed_OnlyFollowedAuthors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	viewer, followed, stranger := f.profile(t, "viewer"), f.profile(t, "followed"), f.profile(t, "stranger")

	for i := 0; i < 3; i++ {
		f.article(t, followed)
		f.article(t, stranger)
	}
	f.article(t, viewer)
	_, err := f.st.AddFollow(ctx, viewer.ID, followed.ID)
	require.NoError(t, err)

	res, err := f.svc.Feed(ctx, viewer, Page{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)
	require.Len(t, res.Articles, 3)
	for _, a := range res.Articles {
		assert.Equal(t, "followed", a.Author.Username)
	}

	lonely := f.profile(t, "lonely")
	res, err = f.svc.Feed(ctx, lonely, Page{})
	require.NoError(t, err)
	assert.Zero(t, res.Count)
	assert.Empty(t, res.Articles)
}

func TestFeed_RequiresViewer(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Feed(context.Background(), nil, Page{})
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeUnauthorized))
}

func TestWindow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	jake := f.profile(t, "jake")
	for i := 0; i < 3; i++ {
		f.article(t, jake)
	}

	tests := []struct {
		name    string
		page    Page
		want    int
		invalid bool
	}{
		{"defaults", Page{}, 3, false},
		{"limit capped", Page{Limit: intp(1000)}, 3, false},
		{"offset past end", Page{Offset: intp(10)}, 0, false},
		{"zero limit", Page{Limit: intp(0)}, 0, false},
		{"negative offset", Page{Offset: intp(-1)}, 0, true},
		{"negative limit", Page{Limit: intp(-5)}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.svc.List(ctx, Query{Page: tt.page})
			if tt.invalid {
				assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))
				return
			}
			require.NoError(t, err)
			assert.Len(t, res.Articles, tt.want)
			assert.Equal(t, 3, res.Count)
		})
	}
}
