package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"conduit/backend/internal/content"
	"conduit/backend/internal/feed"
	"conduit/backend/internal/graph"
	"conduit/backend/internal/identity"
	"conduit/backend/internal/social"
	"conduit/backend/internal/store"
	"conduit/backend/internal/store/memstore"
	"conduit/backend/internal/store/postgres"
	"conduit/backend/internal/view"
	"conduit/backend/pkg/config"
)

// ServiceManager owns the store backend and the core services built on it
type ServiceManager struct {
	logger *zap.Logger
	store  store.Store

	Identity *identity.Service
	Social   *social.Service
	Content  *content.Service
	Feed     *feed.Service
	Views    *view.Composer

	closeOnce sync.Once
}

// OpenStore connects the backend selected by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memstore.New(), nil
	case config.DriverNeo4j:
		return graph.Open(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// NewServiceManager opens the configured store and wires the services on it
func NewServiceManager(ctx context.Context, logger *zap.Logger, cfg *config.Config) (*ServiceManager, error) {
	st, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreDriver, err)
	}
	logger.Info("Store opened", zap.String("driver", cfg.StoreDriver))
	return NewWithStore(logger, cfg, st), nil
}

// NewWithStore wires the services on an already opened store
func NewWithStore(logger *zap.Logger, cfg *config.Config, st store.Store) *ServiceManager {
	sg := social.NewService(st, logger)
	return &ServiceManager{
		logger:   logger,
		store:    st,
		Identity: identity.NewService(st, cfg.BcryptCost, logger),
		Social:   sg,
		Content:  content.NewService(st, cfg.SlugSuffixLength, logger),
		Feed:     feed.NewService(st, cfg.FeedDefaultLimit, cfg.FeedMaxLimit, logger),
		Views:    view.NewComposer(sg, cfg.ViewConcurrency),
	}
}

// Close releases the store. It is safe to call more than once.
func (sm *ServiceManager) Close(ctx context.Context) error {
	var err error
	sm.closeOnce.Do(func() {
		err = sm.store.Close(ctx)
		if err != nil {
			sm.logger.Error("Failed to close store", zap.Error(err))
			return
		}
		sm.logger.Info("Store closed")
	})
	return err
}
