package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"supersonic/core/catalogid"
	"supersonic/logger"
	"supersonic/repository"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2"
)

const coverKeyPrefix = "supersonic:cover:"

// CoverStats 封面缓存命中统计
type CoverStats struct {
	LocalHits uint64
	RedisHits uint64
	Misses    uint64
}

// CoverCache 两级封面缓存：进程内 LRU + 可选的 Redis
type CoverCache struct {
	local *lru.Cache[string, []byte]
	redis *redis.Client
	ttl   time.Duration

	localHits atomic.Uint64
	redisHits atomic.Uint64
	misses    atomic.Uint64
}

// NewCoverCache 创建封面缓存，rdb 为 nil 时只使用 LRU
func NewCoverCache(size int, rdb *redis.Client, ttl time.Duration) (*CoverCache, error) {
	if size < 1 {
		size = 1
	}
	local, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create cover LRU: %w", err)
	}
	return &CoverCache{local: local, redis: rdb, ttl: ttl}, nil
}

// CoverKey is the cache key of one album rendition.
func CoverKey(albumID catalogid.ID, size int) string {
	return fmt.Sprintf("%s%s:%d", coverKeyPrefix, albumID.Hex(), repository.CoverIndex(size))
}

// Get returns the cached cover or calls load. Empty covers are not cached.
// Redis failures only cost a reload.
func (c *CoverCache) Get(ctx context.Context, albumID catalogid.ID, size int,
	load func(context.Context) ([]byte, error)) ([]byte, error) {
	key := CoverKey(albumID, size)

	if data, ok := c.local.Get(key); ok {
		c.localHits.Add(1)
		return data, nil
	}

	if data := c.getRedis(ctx, key); data != nil {
		c.redisHits.Add(1)
		c.local.Add(key, data)
		return data, nil
	}

	c.misses.Add(1)
	data, err := load(ctx)
	if err != nil || len(data) == 0 {
		return data, err
	}
	c.local.Add(key, data)
	c.setRedis(ctx, key, data)
	return data, nil
}

func (c *CoverCache) getRedis(ctx context.Context, key string) []byte {
	if c.redis == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("获取封面缓存失败，回源数据库",
				logger.String("key", key),
				logger.ErrorField(err))
		}
		return nil
	}
	return data
}

func (c *CoverCache) setRedis(ctx context.Context, key string, data []byte) {
	if c.redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logger.Warn("设置封面缓存失败",
			logger.String("key", key),
			logger.Int("dataSize", len(data)),
			logger.ErrorField(err))
		return
	}
	logger.Debug("封面缓存设置成功",
		logger.String("key", key),
		logger.Int("dataSize", len(data)),
		logger.Duration("expiration", c.ttl))
}

// Purge drops every cached cover, locally and in Redis.
func (c *CoverCache) Purge(ctx context.Context) error {
	c.local.Purge()
	if c.redis == nil {
		return nil
	}

	var removed int64
	iter := c.redis.Scan(ctx, 0, coverKeyPrefix+"*", 256).Iterator()
	batch := make([]string, 0, 256)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.redis.Del(ctx, batch...).Result()
		removed += n
		batch = batch[:0]
		return err
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return fmt.Errorf("failed to delete cover keys: %w", err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cover keys: %w", err)
	}
	if err := flush(); err != nil {
		return fmt.Errorf("failed to delete cover keys: %w", err)
	}
	logger.Info("封面缓存已清空", logger.Int64("redisKeys", removed))
	return nil
}

func (c *CoverCache) Len() int { return c.local.Len() }

func (c *CoverCache) Stats() CoverStats {
	return CoverStats{
		LocalHits: c.localHits.Load(),
		RedisHits: c.redisHits.Load(),
		Misses:    c.misses.Load(),
	}
}

// CachedCatalog serves album covers through a CoverCache and forwards every
// other query to the wrapped repository.
type CachedCatalog struct {
	repository.CatalogRepository
	covers *CoverCache
}

func NewCachedCatalog(repo repository.CatalogRepository, covers *CoverCache) *CachedCatalog {
	return &CachedCatalog{CatalogRepository: repo, covers: covers}
}

func (c *CachedCatalog) GetAlbumCover(ctx context.Context, albumID catalogid.ID, size int) ([]byte, error) {
	return c.covers.Get(ctx, albumID, size, func(ctx context.Context) ([]byte, error) {
		return c.CatalogRepository.GetAlbumCover(ctx, albumID, size)
	})
}
