package memstore

import (
	"context"

	"conduit/backend/internal/model"
	"conduit/backend/internal/store"
)

func (s *Store) AddFollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	if followerID == followeeID {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[followerID]; !ok {
		return false, store.ErrNotFound
	}
	if _, ok := s.profiles[followeeID]; !ok {
		return false, store.ErrNotFound
	}
	if !edge(s.follows, followerID).add(followeeID) {
		return false, nil
	}
	edge(s.followedBy, followeeID).add(followerID)
	return true, nil
}

func (s *Store) RemoveFollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !removeEdge(s.follows, followerID, followeeID) {
		return false, nil
	}
	removeEdge(s.followedBy, followeeID, followerID)
	return true, nil
}

func (s *Store) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.follows[followerID][followeeID]
	return ok, nil
}

func (s *Store) Following(ctx context.Context, profileID string) ([]model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profilesLocked(s.follows[profileID]), nil
}

func (s *Store) Followers(ctx context.Context, profileID string) ([]model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profilesLocked(s.followedBy[profileID]), nil
}

func (s *Store) profilesLocked(ids set) []model.Profile {
	out := make([]model.Profile, 0, len(ids))
	for id := range ids {
		if p, ok := s.profiles[id]; ok {
			out = append(out, *p)
		}
	}
	return sortedProfiles(out)
}

func (s *Store) AddFavorite(ctx context.Context, profileID, articleID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profileID]; !ok {
		return false, store.ErrNotFound
	}
	if _, ok := s.articles[articleID]; !ok {
		return false, store.ErrNotFound
	}
	if !edge(s.favorites, profileID).add(articleID) {
		return false, nil
	}
	edge(s.favoritedBy, articleID).add(profileID)
	return true, nil
}

func (s *Store) RemoveFavorite(ctx context.Context, profileID, articleID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !removeEdge(s.favorites, profileID, articleID) {
		return false, nil
	}
	removeEdge(s.favoritedBy, articleID, profileID)
	return true, nil
}

func (s *Store) HasFavorited(ctx context.Context, profileID, articleID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.favorites[profileID][articleID]
	return ok, nil
}

func (s *Store) FavoritesCount(ctx context.Context, articleID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.favoritedBy[articleID]), nil
}
