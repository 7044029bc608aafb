package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/99minutos/dashboard-roles/internal/api"
	"github.com/99minutos/dashboard-roles/internal/api/middleware"
	"github.com/99minutos/dashboard-roles/internal/core/ports"
	"github.com/99minutos/dashboard-roles/internal/core/service"
	"github.com/99minutos/dashboard-roles/internal/infrastructure/db/memory"
	mongocache "github.com/99minutos/dashboard-roles/internal/infrastructure/db/mongo"
	rediscache "github.com/99minutos/dashboard-roles/internal/infrastructure/db/redis"
	"github.com/99minutos/dashboard-roles/internal/infrastructure/http/handlers"
	"github.com/99minutos/dashboard-roles/internal/infrastructure/profileapi"
	"github.com/99minutos/dashboard-roles/internal/infrastructure/queue"
	"github.com/99minutos/dashboard-roles/internal/pkg/config"
	"github.com/99minutos/dashboard-roles/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, config.Load())
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "dashboard-roles",
		Env:     cfg.Env,
	})

	cache, closeCache, err := openRoleCache(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Str("backend", cfg.Cache.Backend).Msg("failed to open role cache")
		return err
	}
	defer closeCache()

	profiles := profileapi.New(profileapi.Config{
		BaseURL: cfg.Profile.BaseURL,
		Path:    cfg.Profile.Path,
		Timeout: cfg.Profile.Timeout,
	}, nil)

	var syncer ports.RoleSyncer = service.NewProfileSyncer(profiles, log)
	if cfg.Sync.Async {
		dispatcher := queue.NewDispatcher(cfg.Sync.Workers, syncer, log)
		dispatcher.Start(ctx)
		syncer = dispatcher
	}

	roles := service.NewRoleService(profiles, cache, syncer, service.Options{
		ClearCacheOnLogout: cfg.Cache.ClearOnLogout,
	}, log)

	e := api.NewRouter(api.Dependencies{
		Roles: roles,
		Auth: middleware.AuthConfig{
			Secret:   cfg.Auth.JWTSecret,
			Issuer:   cfg.Auth.Issuer,
			Audience: cfg.Auth.Audience,
		},
		Readiness: map[string]handlers.Pinger{"role_cache": cache},
		Logger:    log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("cache", cfg.Cache.Backend).Bool("async_sync", cfg.Sync.Async).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server failed")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openRoleCache connects the configured cache backend and returns it with a
// cleanup function.
func openRoleCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.RoleCache, func(), error) {
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		client, err := rediscache.Connect(ctx, rediscache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return rediscache.NewRoleCache(client, cfg.Cache.KeyPrefix, cfg.Cache.TTL), func() { _ = client.Close() }, nil

	case config.CacheMongo:
		client, db, err := mongocache.Connect(ctx, mongocache.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return nil, nil, err
		}
		cache := mongocache.NewRoleCache(db)
		if err := cache.EnsureIndexes(ctx, cfg.Cache.TTL); err != nil {
			log.Warn().Err(err).Msg("failed to ensure role cache indexes")
		}
		return cache, func() {
			dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = client.Disconnect(dctx)
		}, nil

	case config.CacheMemory:
		return memory.NewRoleCache(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown role cache backend %q", cfg.Cache.Backend)
}
