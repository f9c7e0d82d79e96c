// Package memstore keeps the whole Conduit dataset in process memory.
// It backs the default development server and the service tests.
package memstore

import (
	"context"
	"sort"
	"sync"

	"conduit/backend/internal/model"
	"conduit/backend/internal/store"
)

type set map[string]struct{}

func (s set) add(k string) bool {
	if _, ok := s[k]; ok {
		return false
	}
	s[k] = struct{}{}
	return true
}

type articleRecord struct {
	model.Article
	authorID string
	tagSlugs []string
}

type commentRecord struct {
	model.Comment
	authorID string
}

// Store is an in-memory implementation of store.Store guarded by one RWMutex.
type Store struct {
	mu sync.RWMutex

	users          map[string]*model.User
	userByEmail    map[string]string
	userByUsername map[string]string

	profiles      map[string]*model.Profile
	profileByUser map[string]string

	// Forward and reverse edge indexes
	follows     map[string]set // follower -> followees
	followedBy  map[string]set // followee -> followers
	favorites   map[string]set // profile -> articles
	favoritedBy map[string]set // article -> profiles

	articles      map[string]*articleRecord
	articleBySlug map[string]string
	comments      map[string]*commentRecord
	tags          map[string]*model.Tag // by slug
}

var _ store.Store = (*Store)(nil)

// New returns an initialized in-memory store.
func New() *Store {
	return &Store{
		users:          make(map[string]*model.User),
		userByEmail:    make(map[string]string),
		userByUsername: make(map[string]string),
		profiles:       make(map[string]*model.Profile),
		profileByUser:  make(map[string]string),
		follows:        make(map[string]set),
		followedBy:     make(map[string]set),
		favorites:      make(map[string]set),
		favoritedBy:    make(map[string]set),
		articles:       make(map[string]*articleRecord),
		articleBySlug:  make(map[string]string),
		comments:       make(map[string]*commentRecord),
		tags:           make(map[string]*model.Tag),
	}
}

// Close is a no-op; it exists to satisfy store.Store.
func (s *Store) Close(ctx context.Context) error {
	return nil
}

func cloneUser(u *model.User) *model.User {
	c := *u
	return &c
}

func cloneProfile(p *model.Profile) *model.Profile {
	c := *p
	return &c
}

func edge(index map[string]set, from string) set {
	s, ok := index[from]
	if !ok {
		s = make(set)
		index[from] = s
	}
	return s
}

func removeEdge(index map[string]set, from, to string) bool {
	s, ok := index[from]
	if !ok {
		return false
	}
	if _, ok := s[to]; !ok {
		return false
	}
	delete(s, to)
	if len(s) == 0 {
		delete(index, from)
	}
	return true
}

func sortedProfiles(ps []model.Profile) []model.Profile {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Username < ps[j].Username })
	return ps
}
