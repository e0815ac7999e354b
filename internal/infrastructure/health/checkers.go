package health

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/avatarctic/ledger/internal/core/ports"
	infraDB "github.com/avatarctic/ledger/internal/infrastructure/db"
)

type dbHealthChecker struct{ db *infraDB.Database }

func (d *dbHealthChecker) Name() string                    { return "database" }
func (d *dbHealthChecker) Check(ctx context.Context) error { return d.db.DB.PingContext(ctx) }

type redisHealthChecker struct{ client redis.Cmdable }

func (r *redisHealthChecker) Name() string                    { return "redis" }
func (r *redisHealthChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

type storageHealthChecker struct{ storage ports.ObjectStorage }

func (s *storageHealthChecker) Name() string                    { return "object_storage" }
func (s *storageHealthChecker) Check(ctx context.Context) error { return s.storage.Ping(ctx) }

// NewDBHealthChecker creates a health checker for the database.
func NewDBHealthChecker(db *infraDB.Database) ports.HealthChecker { return &dbHealthChecker{db: db} }

// NewRedisHealthChecker creates a health checker for Redis.
func NewRedisHealthChecker(client redis.Cmdable) ports.HealthChecker {
	return &redisHealthChecker{client: client}
}

// NewStorageHealthChecker probes the configured bucket.
func NewStorageHealthChecker(storage ports.ObjectStorage) ports.HealthChecker {
	return &storageHealthChecker{storage: storage}
}
