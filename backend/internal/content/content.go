// Package content manages articles, their tags and their comments.
package content

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"conduit/backend/internal/model"
	"conduit/backend/internal/store"
	apperrors "conduit/backend/pkg/errors"
)

const (
	defaultSuffixLength = 6
	maxSlugAttempts     = 10
	fallbackSlug        = "article"
)

const (
	msgArticleNotFound = "An article with this slug does not exist."
	msgCommentNotFound = "A comment with this id does not exist."
)

// ArticleInput is the payload for CreateArticle.
type ArticleInput struct {
	Title       string
	Description string
	Body        string
	TagList     []string
}

// Service implements the content operations over a store.Content.
type Service struct {
	store  store.Content
	logger *zap.Logger
	now    func() time.Time
	token  func() string
}

// NewService creates a content service. suffixLength is the size of the random
// token appended to article slugs.
func NewService(st store.Content, suffixLength int, logger *zap.Logger) *Service {
	if suffixLength <= 0 || suffixLength > 32 {
		suffixLength = defaultSuffixLength
	}
	return &Service{
		store:  st,
		logger: logger.Named("content"),
		now:    func() time.Time { return time.Now().UTC() },
		token: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLength]
		},
	}
}

// CreateArticle validates the input, picks a unique slug and stores the
// article with its normalized tags.
func (s *Service) CreateArticle(ctx context.Context, author *model.Profile, in ArticleInput) (*model.Article, error) {
	verr := apperrors.NewValidation()
	requireText(verr, "title", in.Title)
	requireText(verr, "description", in.Description)
	requireText(verr, "body", in.Body)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	labels := NormalizeTags(in.TagList)
	tags := make([]model.Tag, 0, len(labels))
	for _, label := range labels {
		tags = append(tags, model.Tag{ID: model.NewID(), Label: label, Slug: TagSlug(label)})
	}

	base := slug.Make(in.Title)
	if base == "" {
		base = fallbackSlug
	}

	now := s.now()
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		article := &model.Article{
			ID:          model.NewID(),
			Slug:        base + "-" + s.token(),
			Title:       in.Title,
			Description: in.Description,
			Body:        in.Body,
			Author:      *author,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		err := s.store.CreateArticle(ctx, article, tags)
		if err == nil {
			s.logger.Info("Article created",
				zap.String("slug", article.Slug),
				zap.String("author", author.Username),
				zap.Int("tags", len(article.TagList)))
			return article, nil
		}

		var conflict *store.ConflictError
		if errors.As(err, &conflict) && conflict.Field == "slug" {
			s.logger.Debug("Slug collision, regenerating", zap.String("slug", article.Slug))
			continue
		}
		return nil, s.storeErr("create_article", err)
	}

	return nil, apperrors.NewConflict("slug", "could not generate a unique slug")
}

// GetArticle loads an article by slug.
func (s *Service) GetArticle(ctx context.Context, slug string) (*model.Article, error) {
	a, err := s.store.ArticleBySlug(ctx, slug)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NewNotFound("article", msgArticleNotFound)
	}
	if err != nil {
		return nil, s.storeErr("article_by_slug", err)
	}
	return a, nil
}

// UpdateArticle changes only the supplied fields. The slug never changes.
// The patch is applied by the store, so concurrent edits to different fields
// of one article are all kept.
func (s *Service) UpdateArticle(ctx context.Context, slug string, patch model.ArticlePatch) (*model.Article, error) {
	verr := apperrors.NewValidation()
	if patch.Title != nil {
		requireText(verr, "title", *patch.Title)
	}
	if patch.Description != nil {
		requireText(verr, "description", *patch.Description)
	}
	if patch.Body != nil {
		requireText(verr, "body", *patch.Body)
	}

	article, err := s.GetArticle(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return article, nil
	}

	updatedAt := s.now()
	if !updatedAt.After(article.CreatedAt) {
		updatedAt = article.CreatedAt.Add(time.Millisecond)
	}
	updated, err := s.store.UpdateArticle(ctx, article.ID, patch, updatedAt)
	if err != nil {
		return nil, s.storeErr("update_article", err)
	}

	s.logger.Info("Article updated", zap.String("slug", slug))
	return updated, nil
}

// DeleteArticle removes an article and everything hanging off it. Only the
// author may delete.
func (s *Service) DeleteArticle(ctx context.Context, viewer *model.Profile, slug string) error {
	article, err := s.GetArticle(ctx, slug)
	if err != nil {
		return err
	}
	if viewer == nil || viewer.ID != article.Author.ID {
		return apperrors.NewForbidden("You are not the author of this article.")
	}
	if err := s.store.DeleteArticle(ctx, article.ID); err != nil {
		return s.storeErr("delete_article", err)
	}
	s.logger.Info("Article deleted", zap.String("slug", slug))
	return nil
}

// CreateComment adds a comment to the article identified by slug.
func (s *Service) CreateComment(ctx context.Context, slug string, author *model.Profile, body string) (*model.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.NewValidationFailed("body", "can't be blank")
	}
	article, err := s.GetArticle(ctx, slug)
	if err != nil {
		return nil, err
	}

	now := s.now()
	comment := &model.Comment{
		ID:        model.NewID(),
		ArticleID: article.ID,
		Body:      body,
		Author:    *author,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, s.storeErr("create_comment", err)
	}

	s.logger.Info("Comment created",
		zap.String("slug", slug),
		zap.String("comment_id", comment.ID))
	return comment, nil
}

// ListComments returns an article's comments oldest first.
func (s *Service) ListComments(ctx context.Context, slug string) ([]model.Comment, error) {
	article, err := s.GetArticle(ctx, slug)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.ListComments(ctx, article.ID)
	if err != nil {
		return nil, s.storeErr("list_comments", err)
	}
	return comments, nil
}

// DeleteComment removes comment id from the article identified by slug.
// A comment attached to a different article is reported as not found.
func (s *Service) DeleteComment(ctx context.Context, slug, id string) error {
	article, err := s.GetArticle(ctx, slug)
	if err != nil {
		return err
	}
	comment, err := s.store.CommentByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && comment.ArticleID != article.ID) {
		return apperrors.NewNotFound("comment", msgCommentNotFound)
	}
	if err != nil {
		return s.storeErr("comment_by_id", err)
	}

	if err := s.store.DeleteComment(ctx, id); err != nil {
		return s.storeErr("delete_comment", err)
	}
	s.logger.Info("Comment deleted",
		zap.String("slug", slug),
		zap.String("comment_id", id))
	return nil
}

// ListTags returns every tag label in lexicographic order.
func (s *Service) ListTags(ctx context.Context) ([]string, error) {
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, s.storeErr("list_tags", err)
	}
	labels := make([]string, 0, len(tags))
	for _, t := range tags {
		labels = append(labels, t.Label)
	}
	return labels, nil
}

func (s *Service) storeErr(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NewNotFound("article", msgArticleNotFound)
	case errors.Is(err, store.ErrConflict):
		return apperrors.NewConflict("id", err.Error())
	default:
		s.logger.Error("Content store failure", zap.String("op", op), zap.Error(err))
		return apperrors.NewStoreFailure(op, err)
	}
}

func requireText(verr *apperrors.ErrValidation, field, value string) {
	if strings.TrimSpace(value) == "" {
		verr.Add(field, "can't be blank")
	}
}
