package container

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"asindir/client/internal/client"
	"asindir/client/internal/config"
	"asindir/client/internal/queue"
	"asindir/client/internal/repository"
	"asindir/client/internal/service"
	"asindir/client/internal/state"
	"asindir/client/internal/taxonomy"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components. Queue and Repository are nil
// when their backing store is disabled in config.
type Container struct {
	Config     *config.Config
	Directory  client.DirectoryClient
	Lookup     client.ProductLookup
	Taxonomy   *taxonomy.Manager
	Selections state.SelectionStore
	Queue      queue.Queue
	Repository repository.ArchiveRepository

	Service *service.Service

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{
		Config: cfg,
	}

	c.Directory = client.NewDirectoryClient(cfg.API)
	c.Lookup = client.NewProductLookup(cfg.Lookup)
	c.Taxonomy = taxonomy.NewManager(c.Directory)
	c.Selections = state.NewMemorySelectionStore()

	if cfg.Database.Enabled {
		db, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.db = db

		archive := repository.NewArchiveRepository(db)
		if err := archive.EnsureSchema(ctx); err != nil {
			c.Close()
			return nil, err
		}
		c.Repository = archive
		log.Info("✅ Connected to Postgres successfully")
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})
		c.redis = rdb

		if _, err := rdb.Ping(ctx).Result(); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")

		redisQueue, err := queue.NewRedisQueue(ctx, rdb, cfg.Redis)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Queue = redisQueue
		c.Selections = state.NewRedisSelectionStore(rdb)
	}

	c.Service = service.NewService(
		c.Directory,
		c.Repository,
		c.Queue,
		cfg.Import.MaxFileSize,
		cfg.Redis.MinIdleTime,
	)

	return c, nil
}

// RestoreSelection replays the saved cursor of the configured session into the
// taxonomy manager.
func (c *Container) RestoreSelection(ctx context.Context) error {
	sel, err := c.Selections.LoadSelection(ctx, c.Config.Redis.Session)
	if err != nil {
		return err
	}
	return c.Taxonomy.Restore(ctx, sel)
}

// SaveSelection stores the manager's current cursor for the next command.
func (c *Container) SaveSelection(ctx context.Context) error {
	return c.Selections.SaveSelection(ctx, c.Config.Redis.Session, c.Taxonomy.Selection())
}

// Run starts the import workers and blocks until ctx is done or a worker
// group fails.
func (c *Container) Run(ctx context.Context, numWorkers int) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.Service.RunWorkers(ctx, numWorkers)
	})

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Debug("Shutting down container...")

	if c.Taxonomy != nil {
		c.Taxonomy.Close()
	}
	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			return fmt.Errorf("failed to close Redis client: %w", err)
		}
	}

	log.Debug("Container shut down successfully")
	return nil
}
