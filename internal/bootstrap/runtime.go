// Package bootstrap connects the configured datastore, cache and file storage
// and assembles the repositories on top of them.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/repository"
	"inkwell/internal/storage"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Runtime holds the process-wide collaborators. Exactly one of DB and Mongo is set.
type Runtime struct {
	DB          *gorm.DB
	MongoClient *mongo.Client
	Mongo       *mongo.Database
	Redis       *redis.Client
	Storage     storage.Storage

	Users    repository.UserRepository
	Posts    repository.PostRepository
	Comments repository.CommentRepository
}

// InitRuntime connects the datastore selected by DB_DRIVER, Redis (optional)
// and the file storage backend.
func InitRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	store, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	var rt *Runtime
	switch cfg.DBDriver {
	case config.DriverMongo:
		client, db, err := database.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		rt = NewMongoRuntime(client, db, store)
	default:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		rt = NewSQLRuntime(db, store)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	rt.Redis = cache.GetClient()

	return rt, nil
}

// NewSQLRuntime wires the gorm repositories over an open database.
func NewSQLRuntime(db *gorm.DB, store storage.Storage) *Runtime {
	return &Runtime{
		DB:       db,
		Storage:  store,
		Users:    repository.NewUserRepository(db),
		Posts:    repository.NewCachedPostRepository(repository.NewPostRepository(db)),
		Comments: repository.NewCommentRepository(db),
		Redis:    cache.GetClient(),
	}
}

// NewMongoRuntime wires the document-store repositories.
func NewMongoRuntime(client *mongo.Client, db *mongo.Database, store storage.Storage) *Runtime {
	return &Runtime{
		MongoClient: client,
		Mongo:       db,
		Storage:     store,
		Users:       repository.NewMongoUserRepository(db),
		Posts:       repository.NewCachedPostRepository(repository.NewMongoPostRepository(db)),
		Comments:    repository.NewMongoCommentRepository(db),
		Redis:       cache.GetClient(),
	}
}

// PingDatastore checks whichever datastore is wired.
func (r *Runtime) PingDatastore(ctx context.Context) error {
	switch {
	case r.DB != nil:
		return database.Ping(ctx, r.DB)
	case r.MongoClient != nil:
		return r.MongoClient.Ping(ctx, nil)
	default:
		return errors.New("no datastore configured")
	}
}

// Close releases the datastore and Redis connections.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if r.DB != nil {
		if err := database.Close(r.DB); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if r.MongoClient != nil {
		if err := r.MongoClient.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("disconnect mongo: %w", err))
		}
	}
	if r.Redis != nil {
		if err := cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
