package cache

import (
	"context"
	"time"

	"github.com/reaxo-dev/reaxo/internal/logger"
	"github.com/redis/go-redis/v9"
)

var Client *redis.Client

// InitRedis connects the package-level client. A missing Redis is not
// fatal: the helpers degrade to pass-through and every read hits the
// source directly.
func InitRedis(addr string) {
	Client = redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Client.Ping(ctx).Err(); err != nil {
		logger.Log.Warn("redis unavailable, continuing without cache", "addr", addr, "err", err)
		Client = nil
	} else {
		logger.Log.Info("redis connected", "addr", addr)
	}
}

func GetClient() *redis.Client {
	return Client
}
