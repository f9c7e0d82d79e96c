// Package social maintains the follows and favorites edges between profiles
// and articles.
package social

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"conduit/backend/internal/model"
	"conduit/backend/internal/store"
	apperrors "conduit/backend/pkg/errors"
)

// Service wraps the graph store. Every mutation is idempotent.
type Service struct {
	graph  store.Graph
	logger *zap.Logger
}

// NewService creates a social graph service.
func NewService(graph store.Graph, logger *zap.Logger) *Service {
	return &Service{graph: graph, logger: logger.Named("social")}
}

// Follow adds follower -> followee. Following yourself is a silent no-op,
// as is repeating an existing follow.
func (s *Service) Follow(ctx context.Context, follower, followee *model.Profile) error {
	if follower.ID == followee.ID {
		return nil
	}
	created, err := s.graph.AddFollow(ctx, follower.ID, followee.ID)
	if err != nil {
		return s.storeErr("add_follow", "profile", err)
	}
	if created {
		s.logger.Info("Follow added",
			zap.String("follower", follower.Username),
			zap.String("followee", followee.Username))
	}
	return nil
}

// Unfollow removes follower -> followee if present.
func (s *Service) Unfollow(ctx context.Context, follower, followee *model.Profile) error {
	removed, err := s.graph.RemoveFollow(ctx, follower.ID, followee.ID)
	if err != nil {
		return s.storeErr("remove_follow", "profile", err)
	}
	if removed {
		s.logger.Info("Follow removed",
			zap.String("follower", follower.Username),
			zap.String("followee", followee.Username))
	}
	return nil
}

// IsFollowing reports whether a follows b. A nil a never follows anyone.
func (s *Service) IsFollowing(ctx context.Context, a, b *model.Profile) (bool, error) {
	if a == nil || b == nil || a.ID == b.ID {
		return false, nil
	}
	ok, err := s.graph.IsFollowing(ctx, a.ID, b.ID)
	if err != nil {
		return false, s.storeErr("is_following", "profile", err)
	}
	return ok, nil
}

// IsFollowedBy reports whether b follows a.
func (s *Service) IsFollowedBy(ctx context.Context, a, b *model.Profile) (bool, error) {
	return s.IsFollowing(ctx, b, a)
}

// Following lists the profiles p follows, ordered by username.
func (s *Service) Following(ctx context.Context, p *model.Profile) ([]model.Profile, error) {
	out, err := s.graph.Following(ctx, p.ID)
	if err != nil {
		return nil, s.storeErr("following", "profile", err)
	}
	return out, nil
}

// Followers lists the profiles following p, ordered by username.
func (s *Service) Followers(ctx context.Context, p *model.Profile) ([]model.Profile, error) {
	out, err := s.graph.Followers(ctx, p.ID)
	if err != nil {
		return nil, s.storeErr("followers", "profile", err)
	}
	return out, nil
}

// Favorite marks article as a favorite of p.
func (s *Service) Favorite(ctx context.Context, p *model.Profile, article *model.Article) error {
	created, err := s.graph.AddFavorite(ctx, p.ID, article.ID)
	if err != nil {
		return s.storeErr("add_favorite", "article", err)
	}
	if created {
		s.logger.Info("Favorite added",
			zap.String("profile", p.Username),
			zap.String("slug", article.Slug))
	}
	return nil
}

// Unfavorite clears the favorite edge if present.
func (s *Service) Unfavorite(ctx context.Context, p *model.Profile, article *model.Article) error {
	removed, err := s.graph.RemoveFavorite(ctx, p.ID, article.ID)
	if err != nil {
		return s.storeErr("remove_favorite", "article", err)
	}
	if removed {
		s.logger.Info("Favorite removed",
			zap.String("profile", p.Username),
			zap.String("slug", article.Slug))
	}
	return nil
}

// HasFavorited reports whether p favorited article. A nil p never has.
func (s *Service) HasFavorited(ctx context.Context, p *model.Profile, article *model.Article) (bool, error) {
	if p == nil {
		return false, nil
	}
	ok, err := s.graph.HasFavorited(ctx, p.ID, article.ID)
	if err != nil {
		return false, s.storeErr("has_favorited", "article", err)
	}
	return ok, nil
}

// FavoritesCount returns how many profiles favorited article.
func (s *Service) FavoritesCount(ctx context.Context, article *model.Article) (int, error) {
	n, err := s.graph.FavoritesCount(ctx, article.ID)
	if err != nil {
		return 0, s.storeErr("favorites_count", "article", err)
	}
	return n, nil
}

func (s *Service) storeErr(op, entity string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NewNotFound(entity, "The requested "+entity+" does not exist.")
	}
	s.logger.Error("Graph store failure", zap.String("op", op), zap.Error(err))
	return apperrors.NewStoreFailure(op, err)
}
