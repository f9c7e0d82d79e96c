package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conduit/backend/internal/model"
	"conduit/backend/internal/store"
)

// These tests need a disposable PostgreSQL database named by POSTGRES_DSN.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}

	ctx := context.Background()
	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.db.Exec("TRUNCATE users, profiles, follows, favorites, articles, tags, article_tags, comments")
		_ = s.Close(ctx)
	})
	return s
}

func newProfile(t *testing.T, s *Store, name string) *model.Profile {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	u := &model.User{ID: model.NewID(), Username: name, Email: name + "@example.org", PasswordHash: "x", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateUser(ctx, u, &model.Profile{ID: model.NewID()}))
	p, err := s.ProfileByUserID(ctx, u.ID)
	require.NoError(t, err)
	return p
}

func TestStore_UserConflicts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	newProfile(t, s, "pg-jake")

	err := s.CreateUser(ctx, &model.User{ID: model.NewID(), Username: "other", Email: "pg-jake@example.org"}, &model.Profile{ID: model.NewID()})
	var conflict *store.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "email", conflict.Field)

	_, err = s.UserByEmail(ctx, "nobody@example.org")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_ConcurrentFollowWritesOneRow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a, b := newProfile(t, s, "pg-a"), newProfile(t, s, "pg-b")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.AddFollow(ctx, a.ID, b.ID)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)

	following, err := s.Following(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "pg-b", following[0].Username)
}

func TestStore_ListingAndCascade(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	author, reader := newProfile(t, s, "pg-author"), newProfile(t, s, "pg-reader")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var articles []*model.Article
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		a := &model.Article{ID: model.NewID(), Slug: model.NewID(), Title: "t", Author: *author, CreatedAt: at, UpdatedAt: at}
		require.NoError(t, s.CreateArticle(ctx, a, []model.Tag{{ID: model.NewID(), Label: "Python", Slug: "python"}}))
		articles = append(articles, a)
	}
	assert.Equal(t, []string{"Python"}, articles[0].TagList)

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 1)

	_, err = s.AddFollow(ctx, reader.ID, author.ID)
	require.NoError(t, err)
	page, total, err := s.ListArticles(ctx, model.ArticleFilter{FollowerID: reader.ID, TagSlug: "python", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, articles[2].ID, page[0].ID)

	_, err = s.AddFavorite(ctx, reader.ID, articles[0].ID)
	require.NoError(t, err)
	require.NoError(t, s.DeleteUser(ctx, author.UserID))

	_, total, err = s.ListArticles(ctx, model.ArticleFilter{Limit: 20})
	require.NoError(t, err)
	assert.Zero(t, total)
	fav, err := s.HasFavorited(ctx, reader.ID, articles[0].ID)
	require.NoError(t, err)
	assert.False(t, fav)
}

func TestStore_PartialUpdatesKeepOtherColumns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	jake := newProfile(t, s, "pg-patch")
	at := time.Now().UTC().Truncate(time.Millisecond)

	bio, image := "bio", "https://img"
	var wg sync.WaitGroup
	for _, patch := range []model.UserPatch{{Bio: &bio}, {Image: &image}} {
		wg.Add(1)
		go func(patch model.UserPatch) {
			defer wg.Done()
			_, _, err := s.UpdateUser(ctx, jake.UserID, patch, at)
			assert.NoError(t, err)
		}(patch)
	}
	wg.Wait()

	p, err := s.ProfileByUserID(ctx, jake.UserID)
	require.NoError(t, err)
	assert.Equal(t, "bio", p.Bio)
	assert.Equal(t, "https://img", p.Image)
	assert.Equal(t, "pg-patch", p.Username)

	a := &model.Article{
		ID: model.NewID(), Slug: "pg-patch-post", Title: "T", Description: "D", Body: "B",
		Author: *jake, CreatedAt: at, UpdatedAt: at,
	}
	require.NoError(t, s.CreateArticle(ctx, a, nil))

	title := "T2"
	updated, err := s.UpdateArticle(ctx, a.ID, model.ArticlePatch{Title: &title}, at.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, "T2", updated.Title)
	assert.Equal(t, "B", updated.Body)
	assert.Equal(t, "D", updated.Description)

	_, err = s.UpdateArticle(ctx, model.NewID(), model.ArticlePatch{Title: &title}, at)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
