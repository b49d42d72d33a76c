package server

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pageza/chef-next-door/backend/config"
	"github.com/pageza/chef-next-door/backend/internal/api"
	"github.com/pageza/chef-next-door/backend/internal/auth"
	"github.com/pageza/chef-next-door/backend/internal/cache"
	"github.com/pageza/chef-next-door/backend/internal/database"
	"github.com/pageza/chef-next-door/backend/internal/hooks"
	"github.com/pageza/chef-next-door/backend/internal/middleware"
	"github.com/pageza/chef-next-door/backend/internal/mutations"
	"github.com/pageza/chef-next-door/backend/internal/repository"
	"github.com/pageza/chef-next-door/backend/internal/repository/gormstore"
	"github.com/pageza/chef-next-door/backend/internal/repository/supastore"
	"github.com/pageza/chef-next-door/backend/internal/service"
	"github.com/pageza/chef-next-door/backend/internal/session"
	"github.com/pageza/chef-next-door/backend/internal/storage"
)

// Build connects every backend named by cfg and returns a ready server.
// The cleanup function closes the connections Build opened.
func Build(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*Server, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Server, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	checks := map[string]func(context.Context) error{}
	verifier := session.NewVerifier(cfg.TokenSecret())

	var (
		db       *gorm.DB
		store    repository.Store
		provider auth.Provider
	)
	switch cfg.Backend {
	case config.BackendSupabase:
		store = supastore.New(supastore.Config{
			URL:    cfg.Supabase.RestURL(),
			Schema: cfg.Supabase.Schema,
			APIKey: cfg.Supabase.AnonKey,
		})
		provider = auth.NewGoTrueProvider(cfg.Supabase.AuthURL(), cfg.Supabase.AnonKey, log)
	default:
		var err error
		db, err = database.Open(cfg, log)
		if err != nil {
			return fail(errors.Wrap(err, "open database"))
		}
		closers = append(closers, func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		})
		if err := database.RunMigrations(db, cfg.Database.MigrationsDir, log); err != nil {
			return fail(errors.Wrap(err, "migrate database"))
		}
		store = gormstore.New(db)
		provider = auth.NewLocalProvider(db, verifier, log)
		checks["database"] = func(ctx context.Context) error { return database.HealthCheck(ctx, db) }
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		var err error
		rdb, err = database.NewRedisClient(cfg.Redis, log)
		if err != nil {
			return fail(errors.Wrap(err, "connect redis"))
		}
		closers = append(closers, func() { rdb.Close() })
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	objects, err := objectStore(ctx, cfg)
	if err != nil {
		return fail(errors.Wrap(err, "configure image storage"))
	}

	cacheStore, err := cache.NewStore(cfg.Cache, rdb)
	if err != nil {
		return fail(errors.Wrap(err, "configure cache"))
	}
	adapter := cache.NewAdapter(cacheStore, log)
	client := hooks.NewClient(adapter, hooks.PolicyFromConfig(cfg.Hooks), log)
	client.OnError(hooks.CountFailures)

	profiles := service.NewProfileService(store, log)
	recipes := service.NewRecipeService(store, log)
	search := service.NewSearchService(store, log)

	deps := api.Deps{
		Auth:           service.NewAuthService(provider, log),
		Images:         service.NewImageService(objects, int64(cfg.Storage.MaxUploadMB)<<20, log),
		Resources:      hooks.NewResources(client, profiles, recipes, search),
		Mutations:      mutations.New(adapter, profiles, recipes, log),
		AllowedOrigins: cfg.Server.Origins(),
		LoginPath:      cfg.Server.LoginPath,
		Log:            log,
	}
	if cfg.RateLimit.Enabled {
		deps.CreateLimiter = middleware.NewRecipeCreationLimiter(rdb, cfg.RateLimit)
		deps.ModifyLimiter = middleware.NewRecipeModificationLimiter(rdb, cfg.RateLimit)
		evictCtx, stopEviction := context.WithCancel(context.Background())
		closers = append(closers, stopEviction)
		for _, lim := range []middleware.Limiter{deps.CreateLimiter, deps.ModifyLimiter} {
			if local, ok := lim.(*middleware.LocalLimiter); ok {
				go local.Run(evictCtx, cfg.RateLimit.Window)
			}
		}
	}

	srv := New(cfg, Deps{
		API:          deps,
		Verifier:     verifier,
		HealthChecks: checks,
		Log:          log,
	})
	return srv, cleanup, nil
}

// objectStore picks the image storage named by cfg.Storage.Provider. The
// none provider returns nil and uploads then fail as a backend error.
func objectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	switch cfg.Storage.Provider {
	case "supabase":
		key := cfg.Supabase.ServiceKey
		if key == "" {
			key = cfg.Supabase.AnonKey
		}
		return storage.NewSupabaseStore(cfg.Supabase.StorageURL(), key, cfg.Storage.Bucket), nil
	case "s3":
		s3cfg, err := config.NewS3Config(ctx, cfg.Storage)
		if err != nil {
			return nil, err
		}
		return storage.NewS3Store(s3cfg.Client, s3cfg.BucketName, cfg.Storage.PublicBaseURL), nil
	default:
		return nil, nil
	}
}
