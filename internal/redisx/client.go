package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	r := redis.NewClient(&redis.Options{Addr: addr})
	_ = r.WithTimeout(2 * time.Second)
	return r
}

// AcquireJobLock takes the lock for a named job via SET NX. Returns
// false when another worker already holds it.
func AcquireJobLock(ctx context.Context, rdb *redis.Client, job string) (bool, error) {
	return rdb.SetNX(ctx, jobLockKey(job), "1", TTLJobLock).Result()
}

func ReleaseJobLock(ctx context.Context, rdb *redis.Client, job string) error {
	return rdb.Del(ctx, jobLockKey(job)).Err()
}

// Locker adapts the job-lock helpers to the jobs.Locker shape.
type Locker struct{ RDB *redis.Client }

func (l *Locker) Acquire(ctx context.Context, job string) (bool, error) {
	return AcquireJobLock(ctx, l.RDB, job)
}

func (l *Locker) Release(ctx context.Context, job string) error {
	return ReleaseJobLock(ctx, l.RDB, job)
}
