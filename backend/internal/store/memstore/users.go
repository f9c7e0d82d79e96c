package memstore

import (
	"context"
	"time"

	"conduit/backend/internal/model"
	"conduit/backend/internal/store"
)

func (s *Store) CreateUser(ctx context.Context, user *model.User, profile *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return &store.ConflictError{Entity: "user", Field: "id"}
	}
	if _, exists := s.userByUsername[user.Username]; exists {
		return &store.ConflictError{Entity: "user", Field: "username"}
	}
	if _, exists := s.userByEmail[user.Email]; exists {
		return &store.ConflictError{Entity: "user", Field: "email"}
	}
	if _, exists := s.profiles[profile.ID]; exists {
		return &store.ConflictError{Entity: "profile", Field: "id"}
	}

	s.users[user.ID] = cloneUser(user)
	s.userByUsername[user.Username] = user.ID
	s.userByEmail[user.Email] = user.ID

	p := cloneProfile(profile)
	p.UserID = user.ID
	p.Username = user.Username
	s.profiles[p.ID] = p
	s.profileByUser[user.ID] = p.ID
	return nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.userByEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneUser(s.users[id]), nil
}

func (s *Store) UpdateUser(ctx context.Context, userID string, patch model.UserPatch, updatedAt time.Time) (*model.User, *model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[userID]
	if !ok {
		return nil, nil, store.ErrNotFound
	}
	p, ok := s.profiles[s.profileByUser[userID]]
	if !ok {
		return nil, nil, store.ErrNotFound
	}
	if patch.Username != nil {
		if owner, taken := s.userByUsername[*patch.Username]; taken && owner != userID {
			return nil, nil, &store.ConflictError{Entity: "user", Field: "username"}
		}
	}
	if patch.Email != nil {
		if owner, taken := s.userByEmail[*patch.Email]; taken && owner != userID {
			return nil, nil, &store.ConflictError{Entity: "user", Field: "email"}
		}
	}

	if patch.Username != nil {
		delete(s.userByUsername, current.Username)
		current.Username = *patch.Username
		s.userByUsername[current.Username] = userID
		p.Username = current.Username
	}
	if patch.Email != nil {
		delete(s.userByEmail, current.Email)
		current.Email = *patch.Email
		s.userByEmail[current.Email] = userID
	}
	if patch.PasswordHash != nil {
		current.PasswordHash = *patch.PasswordHash
	}
	if patch.Bio != nil {
		p.Bio = *patch.Bio
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	current.UpdatedAt = updatedAt
	return cloneUser(current), cloneProfile(p), nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	profileID := s.profileByUser[id]

	for followee := range s.follows[profileID] {
		removeEdge(s.followedBy, followee, profileID)
	}
	for follower := range s.followedBy[profileID] {
		removeEdge(s.follows, follower, profileID)
	}
	delete(s.follows, profileID)
	delete(s.followedBy, profileID)

	for articleID := range s.favorites[profileID] {
		removeEdge(s.favoritedBy, articleID, profileID)
	}
	delete(s.favorites, profileID)

	for cid, c := range s.comments {
		if c.authorID == profileID {
			delete(s.comments, cid)
		}
	}
	for aid, a := range s.articles {
		if a.authorID == profileID {
			s.deleteArticleLocked(aid)
		}
	}

	delete(s.profiles, profileID)
	delete(s.profileByUser, id)
	delete(s.userByUsername, u.Username)
	delete(s.userByEmail, u.Email)
	delete(s.users, id)
	return nil
}

func (s *Store) ProfileByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[s.profileByUser[userID]]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneProfile(p), nil
}

func (s *Store) ProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.profileByUsernameLocked(username)
	if p == nil {
		return nil, store.ErrNotFound
	}
	return cloneProfile(p), nil
}

func (s *Store) profileByUsernameLocked(username string) *model.Profile {
	userID, ok := s.userByUsername[username]
	if !ok {
		return nil
	}
	return s.profiles[s.profileByUser[userID]]
}
