package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

type Options struct {
	Backend       string
	SessionTTL    time.Duration
	PurgeInterval time.Duration
	RedisAddr     string
	RedisPassword string
	MongoURI      string
	MongoDB       string
	Postgres      Credentials
}

// Open connects the configured backend and prepares its schema.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		return NewRedisStore(client, opts.SessionTTL), nil
	case BackendMongo:
		db, err := ConnectMongoDB(ctx, opts.MongoURI, opts.MongoDB)
		if err != nil {
			return nil, err
		}
		s := NewMongoStore(db, opts.SessionTTL)
		if err := s.CreateIndexes(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case BackendPostgres:
		cred := opts.Postgres
		s, err := NewPostgresStore(&cred, opts.SessionTTL)
		if err != nil {
			return nil, err
		}
		if err := s.RunMigrations(); err != nil {
			s.Close()
			return nil, err
		}
		s.StartPurge(opts.PurgeInterval)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
