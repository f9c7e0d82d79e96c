package content

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"conduit/backend/internal/model"
	"conduit/backend/internal/store/memstore"
	apperrors "conduit/backend/pkg/errors"
)

func setup(t *testing.T) (*Service, *memstore.Store, *model.Profile) {
	t.Helper()
	st := memstore.New()
	author := newProfile(t, st, "jake")
	return NewService(st, 6, zap.NewNop()), st, author
}

func newProfile(t *testing.T, st *memstore.Store, name string) *model.Profile {
	t.Helper()
	ctx := context.Background()
	u := &model.User{ID: model.NewID(), Username: name, Email: name + "@example.org"}
	require.NoError(t, st.CreateUser(ctx, u, &model.Profile{ID: model.NewID()}))
	p, err := st.ProfileByUsername(ctx, name)
	require.NoError(t, err)
	return p
}

func input(title string, tags ...string) ArticleInput {
	return ArticleInput{Title: title, Description: "desc", Body: "body", TagList: tags}
}

func TestCreateArticle_DistinctSlugsForSameTitle(t *testing.T) {
	s, _, author := setup(t)
	ctx := context.Background()

	a, err := s.CreateArticle(ctx, author, input("How to train your dragon"))
	require.NoError(t, err)
	b, err := s.CreateArticle(ctx, author, input("How to train your dragon"))
	require.NoError(t, err)

	assert.NotEqual(t, a.Slug, b.Slug)
	for _, slug := range []string{a.Slug, b.Slug} {
		assert.True(t, strings.HasPrefix(slug, "how-to-train-your-dragon-"), slug)
		assert.Len(t, strings.TrimPrefix(slug, "how-to-train-your-dragon-"), 6)
	}
}

func TestCreateArticle_RetriesOnSlugCollision(t *testing.T) {
	s, _, author := setup(t)
	ctx := context.Background()

	tokens := []string{"aaaaaa", "aaaaaa", "bbbbbb"}
	s.token = func() string {
		tok := tokens[0]
		tokens = tokens[1:]
		return tok
	}

	first, err := s.CreateArticle(ctx, author, input("Same"))
	require.NoError(t, err)
	second, err := s.CreateArticle(ctx, author, input("Same"))
	require.NoError(t, err)

	assert.Equal(t, "same-aaaaaa", first.Slug)
	assert.Equal(t, "same-bbbbbb", second.Slug)
}

func TestCreateArticle_GivesUpAfterRepeatedCollisions(t *testing.T) {
	s, _, author := setup(t)
	ctx := context.Background()
	s.token = func() string { return "fixed0" }

	_, err := s.CreateArticle(ctx, author, input("Same"))
	require.NoError(t, err)
	_, err = s.CreateArticle(ctx, author, input("Same"))
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConflict))
}

func TestCreateArticle_UnsluggableTitle(t *testing.T) {
	s, _, author := setup(t)
	a, err := s.CreateArticle(context.Background(), author, input("!!!"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(a.Slug, "article-"), a.Slug)
}

func TestCreateArticle_Validation(t *testing.T) {
	s, _, author := setup(t)
	_, err := s.CreateArticle(context.Background(), author, ArticleInput{Title: "t", Body: " "})

	var verr *apperrors.ErrValidation
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "description")
	assert.Contains(t, verr.Fields, "body")
	assert.NotContains(t, verr.Fields, "title")
}

func TestCreateArticle_TagsShared(t *testing.T) {
	s, st, author := setup(t)
	ctx := context.Background()

	a, err := s.CreateArticle(ctx, author, input("One", "python", " Python ", "", "go"))
	require.NoError(t, err)
	_, err = s.CreateArticle(ctx, author, input("Two", "python"))
	require.NoError(t, err)

	assert.Equal(t, []string{"python", "go"}, a.TagList)

	tags, err := st.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	labels, err := s.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "python"}, labels)
}

func TestUpdateArticle_Partial(t *testing.T) {
	s, _, author := setup(t)
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return created }

	a, err := s.CreateArticle(ctx, author, input("Original"))
	require.NoError(t, err)

	s.now = func() time.Time { return created.Add(time.Hour) }
	title := "Renamed"
	updated, err := s.UpdateArticle(ctx, a.Slug, model.ArticlePatch{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, a.Slug, updated.Slug)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "body", updated.Body)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	got, err := s.GetArticle(ctx, a.Slug)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)

	empty := ""
	_, err = s.UpdateArticle(ctx, a.Slug, model.ArticlePatch{Body: &empty})
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))

	_, err = s.UpdateArticle(ctx, "missing", model.ArticlePatch{Title: &title})
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))
}

// gatedStore holds title updates until the gate opens, so a body update can
// commit in between the read and the write of a title update.
type gatedStore struct {
	*memstore.Store
	gate chan struct{}
}

func (g *gatedStore) UpdateArticle(ctx context.Context, id string, patch model.ArticlePatch, updatedAt time.Time) (*model.Article, error) {
	if patch.Title != nil {
		<-g.gate
	}
	return g.Store.UpdateArticle(ctx, id, patch, updatedAt)
}

func TestUpdateArticle_InterleavedFieldsBothKept(t *testing.T) {
	_, st, author := setup(t)
	gated := &gatedStore{Store: st, gate: make(chan struct{})}
	s := NewService(gated, 6, zap.NewNop())
	ctx := context.Background()

	a, err := s.CreateArticle(ctx, author, ArticleInput{Title: "T", Description: "D", Body: "B"})
	require.NoError(t, err)

	title := "T2"
	done := make(chan error, 1)
	go func() {
		_, err := s.UpdateArticle(ctx, a.Slug, model.ArticlePatch{Title: &title})
		done <- err
	}()

	body := "B2"
	_, err = s.UpdateArticle(ctx, a.Slug, model.ArticlePatch{Body: &body})
	require.NoError(t, err)
	close(gated.gate)
	require.NoError(t, <-done)

	got, err := s.GetArticle(ctx, a.Slug)
	require.NoError(t, err)
	assert.Equal(t, "T2", got.Title)
	assert.Equal(t, "B2", got.Body)
	assert.Equal(t, "D", got.Description)
}

func TestDeleteArticle_AuthorOnly(t *testing.T) {
	s, st, author := setup(t)
	ctx := context.Background()
	other := newProfile(t, st, "jane")

	a, err := s.CreateArticle(ctx, author, input("Mine"))
	require.NoError(t, err)

	err = s.DeleteArticle(ctx, other, a.Slug)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeForbidden))

	require.NoError(t, s.DeleteArticle(ctx, author, a.Slug))
	_, err = s.GetArticle(ctx, a.Slug)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))
}

func TestComments(t *testing.T) {
	s, st, author := setup(t)
	ctx := context.Background()
	reader := newProfile(t, st, "jane")

	a, err := s.CreateArticle(ctx, author, input("First"))
	require.NoError(t, err)
	b, err := s.CreateArticle(ctx, author, input("Second"))
	require.NoError(t, err)

	_, err = s.CreateComment(ctx, a.Slug, reader, "   ")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))
	_, err = s.CreateComment(ctx, "missing", reader, "hi")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Second)
		s.now = func() time.Time { return at }
		c, err := s.CreateComment(ctx, a.Slug, reader, fmt.Sprintf("comment %d", i))
		require.NoError(t, err)
		assert.Equal(t, "jane", c.Author.Username)
		ids = append(ids, c.ID)
	}

	list, err := s.ListComments(ctx, a.Slug)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "comment 0", list[0].Body)

	err = s.DeleteComment(ctx, b.Slug, ids[0])
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound), "comment belongs to another article")

	require.NoError(t, s.DeleteComment(ctx, a.Slug, ids[0]))
	err = s.DeleteComment(ctx, a.Slug, ids[0])
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))

	list, _ = s.ListComments(ctx, a.Slug)
	assert.Len(t, list, 2)
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{nil, []string{}},
		{[]string{"", "  "}, []string{}},
		{[]string{"Go", "go", "GO "}, []string{"Go"}},
		{[]string{"b", "a", "b"}, []string{"b", "a"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeTags(tt.in))
	}
}
