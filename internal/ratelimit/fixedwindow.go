package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// FixedWindow counts events per fixed period using ulule/limiter's Redis store.
// It costs one counter per key instead of one sorted-set member per event.
type FixedWindow struct {
	store limiter.Store
}

// NewFixedWindow wires a limiter store on client under prefix.
func NewFixedWindow(client *redis.Client, prefix string) (*FixedWindow, error) {
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return nil, err
	}
	return &FixedWindow{store: store}, nil
}

// Allow implements Limiter.
func (f *FixedWindow) Allow(ctx context.Context, key string, window time.Duration, max int) (Decision, error) {
	if f == nil || f.store == nil || max <= 0 || window <= 0 {
		return Decision{Allowed: true, Remaining: max, ResetAt: time.Now().Add(window)}, nil
	}
	lim := limiter.New(f.store, limiter.Rate{Period: window, Limit: int64(max)})
	res, err := lim.Get(ctx, key)
	if err != nil {
		return Decision{ResetAt: time.Now().Add(window)}, err
	}
	return Decision{
		Allowed:   !res.Reached,
		Remaining: int(res.Remaining),
		ResetAt:   time.Unix(res.Reset, 0),
	}, nil
}
