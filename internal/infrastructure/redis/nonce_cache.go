package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const defaultNoncePrefix = "smschecker:nonce"

// NonceCache is a SET NX front for the nonce ledger. A miss here never admits
// a request on its own; the database insert stays authoritative.
type NonceCache struct {
	client *goredis.Client
	prefix string
}

func NewNonceCache(client *goredis.Client, prefix string) *NonceCache {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultNoncePrefix
	}
	return &NonceCache{client: client, prefix: prefix}
}

func (c *NonceCache) key(nonce string) string {
	return c.prefix + ":" + nonce
}

// Reserve reports false when the nonce is already held.
func (c *NonceCache) Reserve(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	if c == nil || c.client == nil {
		return false, errors.New("redis nonce cache is not configured")
	}
	return c.client.SetNX(ctx, c.key(nonce), 1, ttl).Result()
}

func (c *NonceCache) Forget(ctx context.Context, nonce string) error {
	if c == nil || c.client == nil {
		return errors.New("redis nonce cache is not configured")
	}
	return c.client.Del(ctx, c.key(nonce)).Err()
}

func NewClient(addr, password string, db int) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}
