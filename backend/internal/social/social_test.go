package social

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"conduit/backend/internal/model"
	"conduit/backend/internal/store"
	"conduit/backend/internal/store/memstore"
	apperrors "conduit/backend/pkg/errors"
)

func profile(t *testing.T, st *memstore.Store, name string) *model.Profile {
	t.Helper()
	ctx := context.Background()
	u := &model.User{ID: model.NewID(), Username: name, Email: name + "@example.org"}
	require.NoError(t, st.CreateUser(ctx, u, &model.Profile{ID: model.NewID()}))
	p, err := st.ProfileByUsername(ctx, name)
	require.NoError(t, err)
	return p
}

func TestFollow_Idempotent(t *testing.T) {
	st := memstore.New()
	s := NewService(st, zap.NewNop())
	ctx := context.Background()
	a, b := profile(t, st, "alice"), profile(t, st, "bob")

	require.NoError(t, s.Follow(ctx, a, b))
	require.NoError(t, s.Follow(ctx, a, b))

	ok, err := s.IsFollowing(ctx, a, b)
	require.NoError(t, err)
	assert.True(t, ok)
	followedBy, _ := s.IsFollowedBy(ctx, b, a)
	assert.True(t, followedBy)

	followers, err := s.Followers(ctx, b)
	require.NoError(t, err)
	assert.Len(t, followers, 1)

	require.NoError(t, s.Unfollow(ctx, a, b))
	require.NoError(t, s.Unfollow(ctx, a, b), "unfollowing a missing edge succeeds")
	ok, _ = s.IsFollowing(ctx, a, b)
	assert.False(t, ok)
}

func TestFollow_SelfIsNoop(t *testing.T) {
	st := memstore.New()
	s := NewService(st, zap.NewNop())
	ctx := context.Background()
	a := profile(t, st, "alice")

	require.NoError(t, s.Follow(ctx, a, a))
	ok, err := s.IsFollowing(ctx, a, a)
	require.NoError(t, err)
	assert.False(t, ok)

	following, _ := s.Following(ctx, a)
	assert.Empty(t, following)
	require.NoError(t, s.Unfollow(ctx, a, a))
}

func TestIsFollowing_NilViewer(t *testing.T) {
	st := memstore.New()
	s := NewService(st, zap.NewNop())
	b := profile(t, st, "bob")

	ok, err := s.IsFollowing(context.Background(), nil, b)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFavorite_RoundTrip(t *testing.T) {
	st := memstore.New()
	s := NewService(st, zap.NewNop())
	ctx := context.Background()
	author, reader := profile(t, st, "author"), profile(t, st, "reader")

	article := &model.Article{ID: model.NewID(), Slug: "a-1", Title: "A", Author: *author, CreatedAt: time.Now()}
	require.NoError(t, st.CreateArticle(ctx, article, nil))

	before, _ := s.FavoritesCount(ctx, article)
	require.NoError(t, s.Favorite(ctx, reader, article))
	require.NoError(t, s.Favorite(ctx, reader, article))

	fav, _ := s.HasFavorited(ctx, reader, article)
	count, _ := s.FavoritesCount(ctx, article)
	assert.True(t, fav)
	assert.Equal(t, before+1, count)

	require.NoError(t, s.Unfavorite(ctx, reader, article))
	fav, _ = s.HasFavorited(ctx, reader, article)
	count, _ = s.FavoritesCount(ctx, article)
	assert.False(t, fav)
	assert.Equal(t, before, count)

	anon, err := s.HasFavorited(ctx, nil, article)
	require.NoError(t, err)
	assert.False(t, anon)
}

func TestFavorite_UnknownArticle(t *testing.T) {
	st := memstore.New()
	s := NewService(st, zap.NewNop())
	reader := profile(t, st, "reader")

	err := s.Favorite(context.Background(), reader, &model.Article{ID: "missing"})
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))
}

type failingGraph struct {
	store.Graph
}

func (failingGraph) AddFollow(context.Context, string, string) (bool, error) {
	return false, errors.New("connection reset")
}

func TestFollow_StoreFailure(t *testing.T) {
	s := NewService(failingGraph{}, zap.NewNop())
	err := s.Follow(context.Background(), &model.Profile{ID: "a"}, &model.Profile{ID: "b"})

	var sf *apperrors.ErrStoreFailure
	require.ErrorAs(t, err, &sf)
	assert.Equal(t, "add_follow", sf.Operation)
}
