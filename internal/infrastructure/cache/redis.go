package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Options struct {
	Addr     string
	Password string
	DB       int
	// bounds the startup PING; zero means 5s
	Timeout time.Duration
}

// OpenRedis returns a client that answered PING. It backs the idempotency
// store and the liquidation stream.
func OpenRedis(ctx context.Context, o Options) (*redis.Client, error) {
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	r := redis.NewClient(&redis.Options{Addr: o.Addr, Password: o.Password, DB: o.DB})
	ctx, cancel := context.WithTimeout(ctx, o.Timeout)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("ping %s: %w", o.Addr, err)
	}
	return r, nil
}
