package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/alumnihub/alumnihub/internal/actors"
	"github.com/alumnihub/alumnihub/internal/app"
	"github.com/alumnihub/alumnihub/internal/branches"
	"github.com/alumnihub/alumnihub/internal/content"
	"github.com/alumnihub/alumnihub/internal/observability"
	"github.com/alumnihub/alumnihub/internal/platform/cache"
	"github.com/alumnihub/alumnihub/internal/platform/db"
	"github.com/alumnihub/alumnihub/internal/rbac"
	"github.com/alumnihub/alumnihub/internal/roles"
)

type stores struct {
	rbac     rbac.Repository
	actors   actors.RepositoryPort
	branches branches.Repository
	content  content.Repository
	health   app.HealthChecker
	close    func()
}

// server is the assembled HTTP application.
type server struct {
	handler http.Handler
	access  *rbac.Service
	close   func()
}

func openStores(ctx context.Context, cfg *app.Config, logger *slog.Logger) (*stores, error) {
	if cfg.StoreDriver == app.StoreDriverMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		return &stores{
			rbac:     rbac.NewMemoryRepository(),
			actors:   actors.NewMemoryRepository(),
			branches: branches.NewMemoryRepository(),
			content:  content.NewMemoryRepository(),
			close:    func() {},
		}, nil
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return nil, err
	}
	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("schema migrations applied")
	}
	return &stores{
		rbac:     rbac.NewPostgresRepository(pool),
		actors:   actors.NewRepository(pool),
		branches: branches.NewRepository(pool),
		content:  content.NewPostgresRepository(pool),
		health: func(r *http.Request) error {
			return pool.Ping(r.Context())
		},
		close: pool.Close,
	}, nil
}

func buildServer(ctx context.Context, cfg *app.Config, logger *slog.Logger) (*server, error) {
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	closers := []func(){st.close}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	metrics := observability.NewMetrics()

	var resolver rbac.PermissionResolver = rbac.NewResolver(st.rbac)
	var invalidator rbac.Invalidator
	if cfg.CacheEnabled() {
		var client *redis.Client
		client, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			closeAll()
			return nil, err
		}
		closers = append(closers, func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		})
		cached := rbac.NewCachedResolver(resolver, client, cfg.RBACCacheTTL, logger, metrics)
		resolver, invalidator = cached, cached
		logger.Info("resolver cache enabled", slog.Duration("ttl", cfg.RBACCacheTTL))
	}

	branchService := branches.NewService(st.branches, logger)
	actorService := actors.NewService(st.actors, branchService, logger)
	access := rbac.NewService(st.rbac, resolver, logger).WithActors(actorService)
	if invalidator != nil {
		access = access.WithInvalidator(invalidator)
	}
	gate := rbac.NewGate(st.rbac, resolver, cfg.RBACCatalogTTL, logger, metrics)
	access = access.WithKeyMemo(gate)
	guard := rbac.Middleware{Gate: gate, Logger: logger}

	if cfg.SeedOnStart {
		catalog, err := rbac.LoadCatalogFile(cfg.CatalogPath)
		if err != nil {
			closeAll()
			return nil, err
		}
		res, err := access.Seed(ctx, catalog)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
		logger.Info("permission catalog seeded",
			slog.Int("permissions", res.Permissions),
			slog.Int("roles_created", res.RolesCreated),
			slog.Int("grants", res.Grants))
	}
	if cfg.BootstrapActor != "" {
		if _, err := actorService.Bootstrap(ctx, access, cfg.BootstrapActor, cfg.BootstrapRole); err != nil {
			closeAll()
			return nil, fmt.Errorf("bootstrap actor: %w", err)
		}
	}

	contentService := content.NewService(st.content, gate, branchService, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Metrics:            metrics,
		Health:             st.health,
		Identify:           actorService.Identify(cfg.IdentityHeader, logger),
		RolesHandler:       roles.NewHandler(logger, access, guard),
		PermissionsHandler: rbac.NewPermissionsHandler(logger, access, guard),
		ActorsHandler:      actors.NewHandler(logger, actorService, access, gate, guard),
		BranchesHandler:    branches.NewHandler(logger, branchService, guard),
		ContentHandler:     content.NewHandler(logger, contentService),
	})

	return &server{handler: router, access: access, close: closeAll}, nil
}
