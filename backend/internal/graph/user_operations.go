package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"conduit/backend/internal/model"
	"conduit/backend/internal/store"
)

// ============================================================================
// User Operations
// ============================================================================

// CreateUser writes the user and its profile in one transaction.
func (r *Repository) CreateUser(ctx context.Context, user *model.User, profile *model.Profile) error {
	err := r.write(ctx, func(tx neo4j.ManagedTransaction) error {
		taken, err := first(ctx, tx, `
			MATCH (u:User)
			WHERE u.id = $id OR u.username = $username OR u.email = $email
			RETURN u.id = $id AS id, u.username = $username AS username
			LIMIT 1
		`, map[string]any{"id": user.ID, "username": user.Username, "email": user.Email})
		if err != nil {
			return err
		}
		if taken != nil {
			field := "email"
			if getBoolFromRecord(taken, "id") {
				field = "id"
			} else if getBoolFromRecord(taken, "username") {
				field = "username"
			}
			return &store.ConflictError{Entity: "user", Field: field}
		}

		_, err = collect(ctx, tx, `
			CREATE (u:User {
				id: $id,
				username: $username,
				email: $email,
				password_hash: $passwordHash,
				created_at: $createdAt,
				updated_at: $updatedAt
			})-[:HAS_PROFILE]->(p:Profile {
				id: $profileID,
				user_id: $id,
				username: $username,
				bio: $bio,
				image: $image
			})
		`, map[string]any{
			"id":           user.ID,
			"username":     user.Username,
			"email":        user.Email,
			"passwordHash": user.PasswordHash,
			"createdAt":    user.CreatedAt,
			"updatedAt":    user.UpdatedAt,
			"profileID":    profile.ID,
			"bio":          profile.Bio,
			"image":        profile.Image,
		})
		return err
	})
	if err != nil {
		return translate("user", "create user", err)
	}

	profile.UserID = user.ID
	profile.Username = user.Username
	r.logger.Debug("User node created", zap.String("user_id", user.ID))
	return nil
}

func (r *Repository) UserByID(ctx context.Context, id string) (*model.User, error) {
	return r.userWhere(ctx, "u.id = $value", id)
}

func (r *Repository) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.userWhere(ctx, "u.email = $value", email)
}

func (r *Repository) userWhere(ctx context.Context, predicate, value string) (*model.User, error) {
	var user *model.User
	err := r.read(ctx, func(tx neo4j.ManagedTransaction) error {
		rec, err := first(ctx, tx, "MATCH (u:User) WHERE "+predicate+" RETURN u{.*} AS user", map[string]any{"value": value})
		if err != nil {
			return err
		}
		if rec == nil {
			return store.ErrNotFound
		}
		user = userFromMap(getMapFromRecord(rec, "user"))
		return nil
	})
	if err != nil {
		return nil, translate("user", "fetch user", err)
	}
	return user, nil
}

// UpdateUser sets only the supplied user and profile properties in one
// transaction. Uniqueness is checked only for the supplied username or email.
func (r *Repository) UpdateUser(ctx context.Context, userID string, patch model.UserPatch, updatedAt time.Time) (*model.User, *model.Profile, error) {
	var (
		user    *model.User
		profile model.Profile
	)
	params := map[string]any{
		"id":           userID,
		"username":     optional(patch.Username),
		"email":        optional(patch.Email),
		"passwordHash": optional(patch.PasswordHash),
		"bio":          optional(patch.Bio),
		"image":        optional(patch.Image),
		"updatedAt":    updatedAt,
	}
	err := r.write(ctx, func(tx neo4j.ManagedTransaction) error {
		taken, err := first(ctx, tx, `
			MATCH (o:User)
			WHERE o.id <> $id AND (o.username = $username OR o.email = $email)
			RETURN o.username = $username AS username
			LIMIT 1
		`, params)
		if err != nil {
			return err
		}
		if taken != nil {
			field := "email"
			if getBoolFromRecord(taken, "username") {
				field = "username"
			}
			return &store.ConflictError{Entity: "user", Field: field}
		}

		rec, err := first(ctx, tx, `
			MATCH (u:User {id: $id})-[:HAS_PROFILE]->(p:Profile)
			SET u.username = coalesce($username, u.username),
				u.email = coalesce($email, u.email),
				u.password_hash = coalesce($passwordHash, u.password_hash),
				u.updated_at = $updatedAt,
				p.username = coalesce($username, p.username),
				p.bio = coalesce($bio, p.bio),
				p.image = coalesce($image, p.image)
			RETURN u{.*} AS user, p{.*} AS profile
		`, params)
		if err != nil {
			return err
		}
		if rec == nil {
			return store.ErrNotFound
		}
		user = userFromMap(getMapFromRecord(rec, "user"))
		profile = profileFromMap(getMapFromRecord(rec, "profile"))
		return nil
	})
	if err != nil {
		return nil, nil, translate("user", "update user", err)
	}
	return user, &profile, nil
}

// DeleteUser removes the user, its profile and everything the profile wrote.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	err := r.write(ctx, func(tx neo4j.ManagedTransaction) error {
		rec, err := first(ctx, tx, `
			MATCH (:User {id: $id})-[:HAS_PROFILE]->(p:Profile)
			RETURN p.id AS profile_id
		`, map[string]any{"id": id})
		if err != nil {
			return err
		}
		if rec == nil {
			return store.ErrNotFound
		}
		params := map[string]any{"id": id, "profileID": getStringFromRecord(rec, "profile_id")}

		steps := []string{
			`MATCH (:Profile {id: $profileID})-[:AUTHORED]->(c:Comment) DETACH DELETE c`,
			`MATCH (:Profile {id: $profileID})-[:WROTE]->(:Article)<-[:ON]-(c:Comment) DETACH DELETE c`,
			`MATCH (:Profile {id: $profileID})-[:WROTE]->(a:Article) DETACH DELETE a`,
			`MATCH (u:User {id: $id})-[:HAS_PROFILE]->(p:Profile) DETACH DELETE p, u`,
		}
		for _, q := range steps {
			if _, err := collect(ctx, tx, q, params); err != nil {
				return err
			}
		}
		return nil
	})
	return translate("user", "delete user", err)
}

func (r *Repository) ProfileByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	return r.profileWhere(ctx, "MATCH (:User {id: $value})-[:HAS_PROFILE]->(p:Profile)", userID)
}

func (r *Repository) ProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	return r.profileWhere(ctx, "MATCH (p:Profile {username: $value})", username)
}

func (r *Repository) profileWhere(ctx context.Context, match, value string) (*model.Profile, error) {
	var profile *model.Profile
	err := r.read(ctx, func(tx neo4j.ManagedTransaction) error {
		rec, err := first(ctx, tx, match+" RETURN p{.*} AS profile", map[string]any{"value": value})
		if err != nil {
			return err
		}
		if rec == nil {
			return store.ErrNotFound
		}
		p := profileFromMap(getMapFromRecord(rec, "profile"))
		profile = &p
		return nil
	})
	if err != nil {
		return nil, translate("profile", "fetch profile", err)
	}
	return profile, nil
}
