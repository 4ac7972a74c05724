package tiles

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache armazena tiles e o índice entidade→tiles em Redis.
//
// Layout de chaves:
//   - <prefix>:tile:<matrix>:<page>  JSON do Tile (com TTL)
//   - <prefix>:entity:<id>           SET de chaves de tile (com TTL)
//
// Útil quando várias abas/processos do cliente compartilham o cache.
type RedisCache struct {
	rdb *redis.Client

	prefix string
	ttl    time.Duration
}

type RedisCacheOption func(*RedisCache)

func WithCachePrefix(prefix string) RedisCacheOption {
	return func(c *RedisCache) {
		c.prefix = strings.Trim(prefix, ":")
	}
}

func WithCacheTTL(d time.Duration) RedisCacheOption {
	return func(c *RedisCache) { c.ttl = d }
}

func NewRedisCache(rdb *redis.Client, opts ...RedisCacheOption) *RedisCache {
	c := &RedisCache{
		rdb:    rdb,
		prefix: "tiles",
		ttl:    15 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCache) tileKey(k Key) string { return c.prefix + ":tile:" + k.String() }

func (c *RedisCache) entityKey(e string) string { return c.prefix + ":entity:" + e }

func (c *RedisCache) Get(ctx context.Context, key Key) (Tile, bool, error) {
	raw, err := c.rdb.Get(ctx, c.tileKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Tile{}, false, nil
	}
	if err != nil {
		return Tile{}, false, err
	}

	var t Tile
	if err := json.Unmarshal(raw, &t); err != nil {
		return Tile{}, false, err
	}
	return t, true, nil
}

func (c *RedisCache) Put(ctx context.Context, tile Tile) error {
	raw, err := json.Marshal(tile)
	if err != nil {
		return err
	}

	// substituição: tira do índice as entidades da versão anterior.
	old, found, err := c.Get(ctx, tile.Key)
	if err != nil {
		return err
	}

	pipe := c.rdb.Pipeline()
	if found {
		for _, e := range old.Entities {
			pipe.SRem(ctx, c.entityKey(e), tile.Key.String())
		}
	}
	pipe.Set(ctx, c.tileKey(tile.Key), raw, c.ttl)
	for _, e := range tile.Entities {
		pipe.SAdd(ctx, c.entityKey(e), tile.Key.String())
		if c.ttl > 0 {
			pipe.Expire(ctx, c.entityKey(e), c.ttl)
		}
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (c *RedisCache) Drop(ctx context.Context, keys ...Key) error {
	if len(keys) == 0 {
		return nil
	}

	pipe := c.rdb.Pipeline()
	for _, k := range keys {
		t, found, err := c.Get(ctx, k)
		if err != nil {
			return err
		}
		if found {
			for _, e := range t.Entities {
				pipe.SRem(ctx, c.entityKey(e), k.String())
			}
		}
		pipe.Del(ctx, c.tileKey(k))
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (c *RedisCache) InvalidateEntities(ctx context.Context, entities ...string) ([]Key, error) {
	affected := make(map[Key]struct{})
	for _, e := range entities {
		members, err := c.rdb.SMembers(ctx, c.entityKey(e)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}
		for _, m := range members {
			if k, ok := ParseKey(m); ok {
				affected[k] = struct{}{}
			}
		}
	}

	keys := make([]Key, 0, len(affected))
	for k := range affected {
		keys = append(keys, k)
	}
	if err := c.Drop(ctx, keys...); err != nil {
		return nil, err
	}

	pipe := c.rdb.Pipeline()
	for _, e := range entities {
		pipe.Del(ctx, c.entityKey(e))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return keys, nil
}
