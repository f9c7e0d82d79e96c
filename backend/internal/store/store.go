// Package store defines the persistence ports used by the core services.
//
// Each component depends only on the slice of the store it owns: identity on
// Identity, the social graph on Graph, the content store on Content and the
// feed engine on Feed. Backends (memstore, graph, postgres) implement Store.
//
// Every mutating method is atomic with respect to concurrent callers: the
// membership check and the write happen in one critical section or one
// transaction, so duplicate edges can never be produced.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"conduit/backend/internal/model"
)

var (
	// ErrNotFound is returned when the referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique key is already taken.
	ErrConflict = errors.New("unique constraint violated")
)

// ConflictError names the unique field that caused ErrConflict.
type ConflictError struct {
	Entity string
	Field  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrConflict, e.Entity, e.Field)
}

// Is makes errors.Is(err, ErrConflict) hold for every ConflictError.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Identity stores users and their profiles.
type Identity interface {
	// CreateUser inserts the user and its profile in one atomic unit.
	CreateUser(ctx context.Context, user *model.User, profile *model.Profile) error
	UserByID(ctx context.Context, id string) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateUser applies the non-nil fields of patch to the user and its profile
	// in one atomic unit and returns the stored result. Password is ignored.
	UpdateUser(ctx context.Context, userID string, patch model.UserPatch, updatedAt time.Time) (*model.User, *model.Profile, error)
	// DeleteUser removes the user, its profile, its edges and everything it authored.
	DeleteUser(ctx context.Context, id string) error
	ProfileByUserID(ctx context.Context, userID string) (*model.Profile, error)
	ProfileByUsername(ctx context.Context, username string) (*model.Profile, error)
}

// Graph stores the follows and favorites edge sets.
type Graph interface {
	// AddFollow reports whether a new edge was written. Self edges are never written.
	AddFollow(ctx context.Context, followerID, followeeID string) (bool, error)
	RemoveFollow(ctx context.Context, followerID, followeeID string) (bool, error)
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)
	// Following lists profiles followerID follows; Followers lists the reverse edge set.
	Following(ctx context.Context, profileID string) ([]model.Profile, error)
	Followers(ctx context.Context, profileID string) ([]model.Profile, error)

	AddFavorite(ctx context.Context, profileID, articleID string) (bool, error)
	RemoveFavorite(ctx context.Context, profileID, articleID string) (bool, error)
	HasFavorited(ctx context.Context, profileID, articleID string) (bool, error)
	FavoritesCount(ctx context.Context, articleID string) (int, error)
}

// Content stores articles, comments and tags.
type Content interface {
	// CreateArticle inserts the article and attaches tags, reusing any tag whose
	// slug already exists. article.TagList is rewritten to the stored labels.
	// A taken slug yields a ConflictError on field "slug".
	CreateArticle(ctx context.Context, article *model.Article, tags []model.Tag) error
	ArticleBySlug(ctx context.Context, slug string) (*model.Article, error)
	// UpdateArticle applies the non-nil fields of patch in one atomic unit and
	// returns the stored article.
	UpdateArticle(ctx context.Context, id string, patch model.ArticlePatch, updatedAt time.Time) (*model.Article, error)
	// DeleteArticle cascades to comments, favorite edges and tag edges.
	DeleteArticle(ctx context.Context, id string) error

	CreateComment(ctx context.Context, comment *model.Comment) error
	CommentByID(ctx context.Context, id string) (*model.Comment, error)
	// ListComments returns an article's comments oldest first.
	ListComments(ctx context.Context, articleID string) ([]model.Comment, error)
	DeleteComment(ctx context.Context, id string) error

	// ListTags returns every tag ordered by label.
	ListTags(ctx context.Context) ([]model.Tag, error)
}

// Feed runs filtered, paginated article queries.
type Feed interface {
	// ListArticles returns one page ordered newest first (ties by id, descending)
	// together with the number of matching articles before pagination.
	ListArticles(ctx context.Context, filter model.ArticleFilter) ([]model.Article, int, error)
}

// Store is implemented by every backend.
type Store interface {
	Identity
	Graph
	Content
	Feed
	Close(ctx context.Context) error
}
