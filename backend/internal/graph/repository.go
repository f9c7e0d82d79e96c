// Package graph stores the Conduit dataset in Neo4j.
//
// Profiles, articles, comments and tags are nodes; authorship, follows,
// favorites and tagging are relationships:
//
//	(:User)-[:HAS_PROFILE]->(:Profile)
//	(:Profile)-[:FOLLOWS]->(:Profile)
//	(:Profile)-[:FAVORITED]->(:Article)
//	(:Profile)-[:WROTE]->(:Article)-[:TAGGED {position}]->(:Tag)
//	(:Profile)-[:AUTHORED]->(:Comment)-[:ON]->(:Article)
//
// Every mutation runs in one managed write transaction.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"conduit/backend/internal/store"
	"conduit/backend/pkg/logger"
)

// Repository handles all Neo4j database operations
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

var _ store.Store = (*Repository)(nil)

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver: driver,
		logger: logger.Named("graph"),
	}
}

// Open connects to Neo4j, verifies connectivity and ensures the schema.
func Open(ctx context.Context, uri, user, password string) (*Repository, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify neo4j connectivity: %w", err)
	}

	repo := NewRepository(driver)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}
	return repo, nil
}

// Close closes the Neo4j driver connection
func (r *Repository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

var schema = []string{
	"CREATE CONSTRAINT conduit_user_id IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE",
	"CREATE CONSTRAINT conduit_user_username IF NOT EXISTS FOR (u:User) REQUIRE u.username IS UNIQUE",
	"CREATE CONSTRAINT conduit_user_email IF NOT EXISTS FOR (u:User) REQUIRE u.email IS UNIQUE",
	"CREATE CONSTRAINT conduit_profile_id IF NOT EXISTS FOR (p:Profile) REQUIRE p.id IS UNIQUE",
	"CREATE CONSTRAINT conduit_article_id IF NOT EXISTS FOR (a:Article) REQUIRE a.id IS UNIQUE",
	"CREATE CONSTRAINT conduit_article_slug IF NOT EXISTS FOR (a:Article) REQUIRE a.slug IS UNIQUE",
	"CREATE CONSTRAINT conduit_tag_slug IF NOT EXISTS FOR (t:Tag) REQUIRE t.slug IS UNIQUE",
	"CREATE CONSTRAINT conduit_comment_id IF NOT EXISTS FOR (c:Comment) REQUIRE c.id IS UNIQUE",
	"CREATE INDEX conduit_profile_username IF NOT EXISTS FOR (p:Profile) ON (p.username)",
	"CREATE INDEX conduit_article_created IF NOT EXISTS FOR (a:Article) ON (a.created_at)",
}

// EnsureSchema creates the uniqueness constraints and lookup indexes.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	for _, stmt := range schema {
		result, err := session.Run(ctx, stmt, nil)
		if err != nil {
			return fmt.Errorf("failed to apply schema %q: %w", stmt, err)
		}
		if _, err := result.Consume(ctx); err != nil {
			return fmt.Errorf("failed to apply schema %q: %w", stmt, err)
		}
	}
	r.logger.Info("Neo4j schema ensured", zap.Int("statements", len(schema)))
	return nil
}

// write runs work in a managed write transaction, retried by the driver on
// transient failures.
func (r *Repository) write(ctx context.Context, work func(tx neo4j.ManagedTransaction) error) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, work(tx)
	})
	return err
}

func (r *Repository) read(ctx context.Context, work func(tx neo4j.ManagedTransaction) error) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	_, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, work(tx)
	})
	return err
}

// collect runs query inside tx and returns every record.
func collect(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) ([]*neo4j.Record, error) {
	result, err := tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return result.Collect(ctx)
}

// first returns the first record of query, or nil when there is none.
func first(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) (*neo4j.Record, error) {
	records, err := collect(ctx, tx, query, params)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return records[0], nil
}
