// Package postgres implements store.Store on PostgreSQL through GORM.
//
// Follows and favorites are composite-key join tables with a secondary index
// on the reverse column, so both directions of an edge set are index scans.
// Edge inserts use ON CONFLICT DO NOTHING and report whether a row was
// written. Cascades run inside the deleting transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"conduit/backend/internal/model"
	"conduit/backend/internal/store"
	"conduit/backend/pkg/logger"
)

const uniqueViolation = "23505"

type userRow struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false"`
}

func (userRow) TableName() string { return "users" }

type profileRow struct {
	ID       string `gorm:"primaryKey;size:36"`
	UserID   string `gorm:"uniqueIndex;size:36;not null"`
	Username string `gorm:"index;not null"`
	Bio      string
	Image    string
}

func (profileRow) TableName() string { return "profiles" }

type followRow struct {
	FollowerID string    `gorm:"primaryKey;size:36"`
	FolloweeID string    `gorm:"primaryKey;size:36;index"`
	CreatedAt  time.Time `gorm:"autoCreateTime:false"`
}

func (followRow) TableName() string { return "follows" }

type favoriteRow struct {
	ProfileID string    `gorm:"primaryKey;size:36"`
	ArticleID string    `gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
}

func (favoriteRow) TableName() string { return "favorites" }

type articleRow struct {
	ID          string `gorm:"primaryKey;size:36"`
	Slug        string `gorm:"uniqueIndex;not null"`
	Title       string `gorm:"not null"`
	Description string `gorm:"not null"`
	Body        string `gorm:"not null"`
	AuthorID    string `gorm:"index;size:36;not null"`
	// Listing order is (created_at DESC, id DESC).
	CreatedAt time.Time `gorm:"index;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

func (articleRow) TableName() string { return "articles" }

type tagRow struct {
	ID    string `gorm:"primaryKey;size:36"`
	Slug  string `gorm:"uniqueIndex;not null"`
	Label string `gorm:"not null"`
}

func (tagRow) TableName() string { return "tags" }

type articleTagRow struct {
	ArticleID string `gorm:"primaryKey;size:36"`
	TagID     string `gorm:"primaryKey;size:36;index"`
	Position  int
}

func (articleTagRow) TableName() string { return "article_tags" }

type commentRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	ArticleID string    `gorm:"index;size:36;not null"`
	AuthorID  string    `gorm:"index;size:36;not null"`
	Body      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

func (commentRow) TableName() string { return "comments" }

// Store implements store.Store using PostgreSQL with GORM.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ store.Store = (*Store)(nil)

// Open connects to dsn and migrates the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db, logger: logger.Named("postgres")}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}

// Migrate creates missing tables, columns and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&userRow{},
		&profileRow{},
		&followRow{},
		&favoriteRow{},
		&articleRow{},
		&tagRow{},
		&articleTagRow{},
		&commentRow{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	s.logger.Info("PostgreSQL schema migrated")
	return nil
}

// Close closes the database connection
func (s *Store) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// translate maps GORM and driver errors onto the store sentinels. A unique
// violation names its column through the index name, e.g. idx_users_email.
func translate(entity, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrConflict) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		field := "id"
		for _, f := range []string{"slug", "username", "email"} {
			if strings.HasSuffix(pgErr.ConstraintName, "_"+f) {
				field = f
				break
			}
		}
		return &store.ConflictError{Entity: entity, Field: field}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func (r userRow) toModel() *model.User {
	return &model.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func (r profileRow) toModel() model.Profile {
	return model.Profile{ID: r.ID, UserID: r.UserID, Username: r.Username, Bio: r.Bio, Image: r.Image}
}

func profilesToModel(rows []profileRow) []model.Profile {
	out := make([]model.Profile, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out
}
