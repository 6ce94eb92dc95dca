package postgres

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*AdvisoryLock)(nil)

// AdvisoryLock implements DistributedLock on PostgreSQL advisory locks,
// for deployments that select LOCK_BACKEND=postgres.
//
// Advisory locks are session-scoped rather than TTL-based: the ttl
// arguments are ignored, Extend is a no-op, and a lost connection
// releases everything that session held. The Redis lock is the default
// for multi-worker deployments.
type AdvisoryLock struct {
	db *DB
}

// NewAdvisoryLock creates a PostgreSQL advisory lock adapter.
func NewAdvisoryLock(db *DB) *AdvisoryLock {
	return &AdvisoryLock{db: db}
}

// lockKey maps a lock name onto the bigint keyspace advisory locks use.
func lockKey(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte("intellibase:lock:" + name))
	return int64(h.Sum64())
}

// Acquire tries to take a named advisory lock without blocking. The
// ttl is ignored; the lock is held until Release or session end.
func (l *AdvisoryLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	var acquired bool
	if err := l.db.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", lockKey(name)).Scan(&acquired); err != nil {
		return false, fmt.Errorf("acquire advisory lock %s: %w", name, err)
	}
	return acquired, nil
}

// Release drops a named advisory lock. Releasing a lock this session
// does not hold is not an error.
func (l *AdvisoryLock) Release(ctx context.Context, name string) error {
	var released bool
	if err := l.db.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", lockKey(name)).Scan(&released); err != nil {
		return fmt.Errorf("release advisory lock %s: %w", name, err)
	}
	return nil
}

// Extend is a no-op; advisory locks have no TTL to refresh.
func (l *AdvisoryLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	return nil
}

// Ping checks if the PostgreSQL backend is healthy.
func (l *AdvisoryLock) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}
