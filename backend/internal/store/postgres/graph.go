package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"conduit/backend/internal/model"
	"conduit/backend/internal/store"
)

// insertEdge checks both endpoints and inserts row, ignoring a duplicate.
// The returned bool reports whether a row was written.
func (s *Store) insertEdge(ctx context.Context, row any, checks ...func(tx *gorm.DB) error) (bool, error) {
	var created bool
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		for _, check := range checks {
			if err := check(tx); err != nil {
				return err
			}
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected == 1
		return nil
	})
	return created, err
}

func exists(m any, id string) func(tx *gorm.DB) error {
	return func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(m).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return nil
	}
}

func (s *Store) AddFollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	if followerID == followeeID {
		return false, nil
	}
	created, err := s.insertEdge(ctx,
		&followRow{FollowerID: followerID, FolloweeID: followeeID, CreatedAt: time.Now().UTC()},
		exists(&profileRow{}, followerID),
		exists(&profileRow{}, followeeID),
	)
	return created, translate("follow", "add follow", err)
}

func (s *Store) RemoveFollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	res := s.conn(ctx).Where("follower_id = ? AND followee_id = ?", followerID, followeeID).Delete(&followRow{})
	if res.Error != nil {
		return false, translate("follow", "remove follow", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&followRow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&n).Error
	return n > 0, translate("follow", "check follow", err)
}

func (s *Store) Following(ctx context.Context, profileID string) ([]model.Profile, error) {
	var rows []profileRow
	err := s.conn(ctx).
		Joins("JOIN follows ON follows.followee_id = profiles.id").
		Where("follows.follower_id = ?", profileID).
		Order("profiles.username").
		Find(&rows).Error
	if err != nil {
		return nil, translate("profile", "list following", err)
	}
	return profilesToModel(rows), nil
}

func (s *Store) Followers(ctx context.Context, profileID string) ([]model.Profile, error) {
	var rows []profileRow
	err := s.conn(ctx).
		Joins("JOIN follows ON follows.follower_id = profiles.id").
		Where("follows.followee_id = ?", profileID).
		Order("profiles.username").
		Find(&rows).Error
	if err != nil {
		return nil, translate("profile", "list followers", err)
	}
	return profilesToModel(rows), nil
}

func (s *Store) AddFavorite(ctx context.Context, profileID, articleID string) (bool, error) {
	created, err := s.insertEdge(ctx,
		&favoriteRow{ProfileID: profileID, ArticleID: articleID, CreatedAt: time.Now().UTC()},
		exists(&profileRow{}, profileID),
		exists(&articleRow{}, articleID),
	)
	return created, translate("favorite", "add favorite", err)
}

func (s *Store) RemoveFavorite(ctx context.Context, profileID, articleID string) (bool, error) {
	res := s.conn(ctx).Where("profile_id = ? AND article_id = ?", profileID, articleID).Delete(&favoriteRow{})
	if res.Error != nil {
		return false, translate("favorite", "remove favorite", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) HasFavorited(ctx context.Context, profileID, articleID string) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&favoriteRow{}).
		Where("profile_id = ? AND article_id = ?", profileID, articleID).
		Count(&n).Error
	return n > 0, translate("favorite", "check favorite", err)
}

func (s *Store) FavoritesCount(ctx context.Context, articleID string) (int, error) {
	var n int64
	err := s.conn(ctx).Model(&favoriteRow{}).Where("article_id = ?", articleID).Count(&n).Error
	return int(n), translate("favorite", "count favorites", err)
}
