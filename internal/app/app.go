// Package app builds the service graph from configuration.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/api"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/auth"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/cache"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/config"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/ingest"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/metrics"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/purchaseorder"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/workflow"
	"github.com/holt-ace/DASHBOARDV3-sub001/pkg/eventstore"
)

// App holds the wired services and the connections they share.
type App struct {
	Orders   purchaseorder.Service
	Workflow workflow.Service
	Metrics  metrics.Service
	Ingest   *ingest.Handler
	Keys     *auth.KeySet
	Events   EventStream

	cfg       *config.Config
	logger    *zap.Logger
	db        *sql.DB
	rdb       *redis.Client
	snapshots *cache.TTL[*metrics.Snapshot]
	migrators []migrator
}

// EventStream reads the whole journal in append order, batchSize events
// after fromID at a time.
type EventStream interface {
	Stream(ctx context.Context, fromID int64, batchSize int) ([]eventstore.Event, error)
}

type migrator interface {
	Migrate(ctx context.Context) error
}

// New connects the configured backends and builds every service.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	keys, err := auth.NewKeySet(cfg.Auth.APIKeyHashes)
	if err != nil {
		return nil, err
	}
	a.Keys = keys

	var (
		repo    purchaseorder.Repository
		journal purchaseorder.Journal
	)
	switch cfg.Storage.Driver {
	case "memory":
		store := eventstore.NewMemoryStore()
		repo, journal, a.Events = purchaseorder.NewMemoryRepository(), store, store
		logger.Warn("using in-memory storage; data is lost on exit")
	default:
		db, err := openDB(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.db = db
		pgRepo := purchaseorder.NewPostgresRepository(db, logger)
		store := eventstore.NewEventStore(db)
		repo, journal, a.Events = pgRepo, store, store
		a.migrators = []migrator{pgRepo, store}
	}

	a.Workflow = workflow.NewService(workflow.DefaultRegistry(), workflow.DefaultPredicates(), logger)
	a.Orders = purchaseorder.NewService(repo, a.Workflow, journal, logger)

	var snapshotCache metrics.SnapshotCache
	if cfg.Redis.Addr != "" {
		rdb, err := openRedis(ctx, cfg.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.rdb = rdb
		snapshotCache = metrics.NewRedisCache(rdb, cfg.Metrics.CacheTTL, logger)
		logger.Info("metrics snapshots cached in redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		a.snapshots = cache.New[*metrics.Snapshot](cfg.Metrics.CacheTTL, cfg.Metrics.SweepInterval)
		snapshotCache = metrics.NewMemoryCache(a.snapshots)
	}
	a.Metrics = metrics.NewService(snapshotCache, metrics.NewRecorder(cfg.Metrics.RecorderLimit), logger)

	if cfg.Extractor.URL != "" {
		var blobs ingest.BlobStore
		if cfg.MinIO.Endpoint != "" {
			store, err := ingest.NewMinIOStore(cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.MinIO.Bucket, cfg.MinIO.UseSSL)
			if err != nil {
				a.Close()
				return nil, err
			}
			if err := store.EnsureBucket(ctx); err != nil {
				a.Close()
				return nil, err
			}
			blobs = store
		}
		extractor := ingest.NewClient(ingest.ClientConfig{
			URL:        cfg.Extractor.URL,
			APIKey:     cfg.Extractor.APIKey,
			Model:      cfg.Extractor.Model,
			MaxRetries: cfg.Extractor.MaxRetries,
			Timeout:    cfg.Extractor.Timeout,
		}, logger)
		svc := ingest.NewService(extractor, a.Orders, blobs, a.Metrics, logger)
		a.Ingest = ingest.NewHandler(svc, cfg.Ingest.UploadsPerMinute, cfg.Ingest.Burst, logger)
	} else {
		logger.Info("document upload disabled; extractor.url is not set")
	}

	return a, nil
}

// Migrate applies the storage schema. It is a no-op for memory storage.
func (a *App) Migrate(ctx context.Context) error {
	for _, m := range a.migrators {
		if err := m.Migrate(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Run performs background maintenance until ctx is done.
func (a *App) Run(ctx context.Context) {
	if a.snapshots != nil {
		a.snapshots.Run(ctx)
	}
}

// Health reports whether the backing stores are reachable.
func (a *App) Health(ctx context.Context) error {
	if a.db != nil {
		if err := a.db.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Router returns the HTTP handler for every API route.
func (a *App) Router() http.Handler {
	return api.NewRouter(api.Deps{
		Orders:   a.Orders,
		Workflow: a.Workflow,
		Metrics:  a.Metrics,
		Ingest:   a.Ingest,
		Keys:     a.Keys,
		Health:   a.Health,
		Logger:   a.logger,
	})
}

// Close releases the database and redis connections.
func (a *App) Close() error {
	var firstErr error
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			firstErr = err
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func openDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func openRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}
