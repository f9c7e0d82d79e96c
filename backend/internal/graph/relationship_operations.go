package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"conduit/backend/internal/model"
	"conduit/backend/internal/store"
)

// ============================================================================
// Relationship Operations
// ============================================================================

// mergeEdge MERGEs a relationship between two matched nodes. The edge id is
// only set when MERGE creates the relationship, so comparing it afterwards
// tells whether this call wrote it even under concurrent duplicates.
func (r *Repository) mergeEdge(ctx context.Context, match string, params map[string]any) (bool, error) {
	edgeID := model.NewID()
	params["edgeID"] = edgeID
	params["now"] = time.Now().UTC()

	var created bool
	err := r.write(ctx, func(tx neo4j.ManagedTransaction) error {
		rec, err := first(ctx, tx, match+`
			ON CREATE SET rel.id = $edgeID, rel.created_at = $now
			RETURN rel.id = $edgeID AS created
		`, params)
		if err != nil {
			return err
		}
		if rec == nil {
			return store.ErrNotFound
		}
		created = getBoolFromRecord(rec, "created")
		return nil
	})
	return created, err
}

func (r *Repository) deleteEdge(ctx context.Context, query string, params map[string]any) (bool, error) {
	var removed bool
	err := r.write(ctx, func(tx neo4j.ManagedTransaction) error {
		rec, err := first(ctx, tx, query+" DELETE rel RETURN count(rel) AS removed", params)
		if err != nil {
			return err
		}
		removed = rec != nil && getIntFromRecord(rec, "removed") > 0
		return nil
	})
	return removed, err
}

func (r *Repository) edgeExists(ctx context.Context, query string, params map[string]any) (bool, error) {
	var exists bool
	err := r.read(ctx, func(tx neo4j.ManagedTransaction) error {
		rec, err := first(ctx, tx, query+" RETURN count(rel) > 0 AS found", params)
		if err != nil {
			return err
		}
		exists = rec != nil && getBoolFromRecord(rec, "found")
		return nil
	})
	return exists, err
}

// AddFollow never writes a self edge.
func (r *Repository) AddFollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	if followerID == followeeID {
		return false, nil
	}
	created, err := r.mergeEdge(ctx, `
		MATCH (a:Profile {id: $follower}), (b:Profile {id: $followee})
		MERGE (a)-[rel:FOLLOWS]->(b)
	`, map[string]any{"follower": followerID, "followee": followeeID})
	return created, translate("follow", "add follow", err)
}

func (r *Repository) RemoveFollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	removed, err := r.deleteEdge(ctx,
		`MATCH (:Profile {id: $follower})-[rel:FOLLOWS]->(:Profile {id: $followee})`,
		map[string]any{"follower": followerID, "followee": followeeID})
	return removed, translate("follow", "remove follow", err)
}

func (r *Repository) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	ok, err := r.edgeExists(ctx,
		`OPTIONAL MATCH (:Profile {id: $follower})-[rel:FOLLOWS]->(:Profile {id: $followee})`,
		map[string]any{"follower": followerID, "followee": followeeID})
	return ok, translate("follow", "check follow", err)
}

func (r *Repository) Following(ctx context.Context, profileID string) ([]model.Profile, error) {
	return r.profiles(ctx, `MATCH (:Profile {id: $id})-[:FOLLOWS]->(p:Profile)`, profileID)
}

func (r *Repository) Followers(ctx context.Context, profileID string) ([]model.Profile, error) {
	return r.profiles(ctx, `MATCH (p:Profile)-[:FOLLOWS]->(:Profile {id: $id})`, profileID)
}

func (r *Repository) profiles(ctx context.Context, match, id string) ([]model.Profile, error) {
	out := make([]model.Profile, 0)
	err := r.read(ctx, func(tx neo4j.ManagedTransaction) error {
		records, err := collect(ctx, tx, match+" RETURN p{.*} AS profile ORDER BY p.username", map[string]any{"id": id})
		if err != nil {
			return err
		}
		for _, rec := range records {
			out = append(out, profileFromMap(getMapFromRecord(rec, "profile")))
		}
		return nil
	})
	if err != nil {
		return nil, translate("profile", "list profiles", err)
	}
	return out, nil
}

func (r *Repository) AddFavorite(ctx context.Context, profileID, articleID string) (bool, error) {
	created, err := r.mergeEdge(ctx, `
		MATCH (p:Profile {id: $profile}), (a:Article {id: $article})
		MERGE (p)-[rel:FAVORITED]->(a)
	`, map[string]any{"profile": profileID, "article": articleID})
	return created, translate("favorite", "add favorite", err)
}

func (r *Repository) RemoveFavorite(ctx context.Context, profileID, articleID string) (bool, error) {
	removed, err := r.deleteEdge(ctx,
		`MATCH (:Profile {id: $profile})-[rel:FAVORITED]->(:Article {id: $article})`,
		map[string]any{"profile": profileID, "article": articleID})
	return removed, translate("favorite", "remove favorite", err)
}

func (r *Repository) HasFavorited(ctx context.Context, profileID, articleID string) (bool, error) {
	ok, err := r.edgeExists(ctx,
		`OPTIONAL MATCH (:Profile {id: $profile})-[rel:FAVORITED]->(:Article {id: $article})`,
		map[string]any{"profile": profileID, "article": articleID})
	return ok, translate("favorite", "check favorite", err)
}

func (r *Repository) FavoritesCount(ctx context.Context, articleID string) (int, error) {
	var n int
	err := r.read(ctx, func(tx neo4j.ManagedTransaction) error {
		rec, err := first(ctx, tx, `
			OPTIONAL MATCH (:Profile)-[rel:FAVORITED]->(:Article {id: $article})
			RETURN count(rel) AS n
		`, map[string]any{"article": articleID})
		if err != nil {
			return err
		}
		if rec != nil {
			n = getIntFromRecord(rec, "n")
		}
		return nil
	})
	return n, translate("favorite", "count favorites", err)
}
