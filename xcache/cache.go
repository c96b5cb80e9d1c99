package xcache

import (
	"time"

	"github.com/xiaoshicae/xdocscan/xerror"
	"github.com/xiaoshicae/xdocscan/xutil"

	"github.com/dgraph-io/ristretto"
)

// Cache 进程内缓存，基于 ristretto
// 写入是异步生效的，需要立即读到时调用 Wait
type Cache struct {
	raw        *ristretto.Cache
	defaultTTL time.Duration
}

func New(c *Config) (*Cache, error) {
	c = configMergeDefault(c)
	raw, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: c.NumCounters,
		MaxCost:     c.MaxCost,
		BufferItems: c.BufferItems,
	})
	if err != nil {
		return nil, xerror.Newf("xcache", "new", "ristretto.NewCache failed, err=[%w]", err)
	}
	return &Cache{raw: raw, defaultTTL: xutil.ToDuration(c.DefaultTTL)}, nil
}

func (c *Cache) Get(key string) (any, bool) {
	return c.raw.Get(key)
}

// Set 使用默认 TTL
func (c *Cache) Set(key string, value any) bool {
	return c.raw.SetWithTTL(key, value, 1, c.defaultTTL)
}

// SetWithTTL ttl<=0 表示永不过期
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) bool {
	if ttl < 0 {
		ttl = 0
	}
	return c.raw.SetWithTTL(key, value, 1, ttl)
}

func (c *Cache) Del(key string) {
	c.raw.Del(key)
}

func (c *Cache) Clear() {
	c.raw.Clear()
}

func (c *Cache) Wait() {
	c.raw.Wait()
}

func (c *Cache) Close() {
	c.raw.Close()
}
