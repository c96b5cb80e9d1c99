package xcache

import "time"

// Namespace 带 key 前缀的类型安全缓存视图，多个业务共享同一个 Cache 时互不干扰
type Namespace[V any] struct {
	cache  *Cache
	prefix string
}

// NewNamespace cache 为 nil 时使用全局缓存 C()
func NewNamespace[V any](cache *Cache, prefix string) *Namespace[V] {
	if cache == nil {
		cache = C()
	}
	return &Namespace[V]{cache: cache, prefix: prefix + ":"}
}

func (n *Namespace[V]) Get(key string) (V, bool) {
	var zero V
	if n.cache == nil {
		return zero, false
	}
	v, ok := n.cache.Get(n.prefix + key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(V)
	if !ok {
		return zero, false
	}
	return typed, true
}

// SetWithTTL 写入后立即可读
func (n *Namespace[V]) SetWithTTL(key string, value V, ttl time.Duration) bool {
	if n.cache == nil {
		return false
	}
	ok := n.cache.SetWithTTL(n.prefix+key, value, ttl)
	n.cache.Wait()
	return ok
}

func (n *Namespace[V]) Del(key string) {
	if n.cache == nil {
		return
	}
	n.cache.Del(n.prefix + key)
}
