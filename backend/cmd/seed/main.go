package main

import (
	"context"
	"flag"
	"fmt"

	"go.uber.org/zap"

	"conduit/backend/internal/content"
	"conduit/backend/internal/identity"
	"conduit/backend/internal/services"
	"conduit/backend/pkg/config"
	apperrors "conduit/backend/pkg/errors"
	"conduit/backend/pkg/logger"
)

type demoArticle struct {
	author      string
	title       string
	description string
	body        string
	tags        []string
}

var demoUsers = []string{"jake", "jane", "john"}

var demoArticles = []demoArticle{
	{"jake", "How to train your dragon", "Ever wonder how?", "It takes a Jacobian.", []string{"dragons", "training"}},
	{"jane", "Getting started with Go", "A tour of the basics", "Start with the tour, then write a CLI.", []string{"go", "programming"}},
	{"jane", "Graph databases for feeds", "Follows are edges", "Model follows and favorites as relationships.", []string{"neo4j", "programming"}},
	{"john", "Postgres tips", "Indexes matter", "Add a composite index for every join table.", []string{"postgres", "programming"}},
}

func main() {
	password := flag.String("password", "password123", "Password for every demo user")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env, cfg.LogLevel, cfg.ServiceName); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Named("seed")
	log.Info("Starting database seeding...", zap.String("store", cfg.StoreDriver))

	ctx := context.Background()
	sm, err := services.NewServiceManager(ctx, log, cfg)
	if err != nil {
		log.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer sm.Close(ctx)

	if err := seed(ctx, sm, *password, log); err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}
	log.Info("Seeding complete")
}

// seed registers the demo users (reusing existing ones), has everyone follow
// jane, publishes the demo articles and favorites each one by every other user.
func seed(ctx context.Context, sm *services.ServiceManager, password string, log *zap.Logger) error {
	accounts := make(map[string]*identity.Account, len(demoUsers))
	for _, name := range demoUsers {
		acct, err := sm.Identity.Register(ctx, identity.Registration{
			Username: name,
			Email:    name + "@example.org",
			Password: password,
		})
		if apperrors.IsErrorType(err, apperrors.ErrorTypeConflict) {
			log.Info("User already exists, reusing", zap.String("username", name))
			acct, err = sm.Identity.Login(ctx, name+"@example.org", password)
		}
		if err != nil {
			return fmt.Errorf("user %s: %w", name, err)
		}
		accounts[name] = acct
	}

	for _, name := range demoUsers {
		if err := sm.Social.Follow(ctx, accounts[name].Profile, accounts["jane"].Profile); err != nil {
			return fmt.Errorf("follow jane as %s: %w", name, err)
		}
	}

	for _, d := range demoArticles {
		article, err := sm.Content.CreateArticle(ctx, accounts[d.author].Profile, content.ArticleInput{
			Title:       d.title,
			Description: d.description,
			Body:        d.body,
			TagList:     d.tags,
		})
		if err != nil {
			return fmt.Errorf("article %q: %w", d.title, err)
		}

		for _, name := range demoUsers {
			if name == d.author {
				continue
			}
			if err := sm.Social.Favorite(ctx, accounts[name].Profile, article); err != nil {
				return fmt.Errorf("favorite %s as %s: %w", article.Slug, name, err)
			}
		}
		if _, err := sm.Content.CreateComment(ctx, article.Slug, accounts["jane"].Profile, "Thanks for sharing!"); err != nil {
			return fmt.Errorf("comment on %s: %w", article.Slug, err)
		}
		log.Info("Seeded article", zap.String("slug", article.Slug), zap.String("author", d.author))
	}
	return nil
}
