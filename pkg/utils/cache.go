package utils

import (
	"sync"
	"time"
)

// TTLCache 进程内缓存，短 TTL 用于吸收同一请求风暴内的重复查询。
// 使用 sync.Map 保证并发安全。
type TTLCache struct {
	ttl   time.Duration
	now   func() time.Time
	items sync.Map
}

// cacheItem 内部结构，包含值和过期时间
type cacheItem struct {
	value      []string
	expiration time.Time
}

// NewTTLCache 创建缓存，now 可注入用于测试，传 nil 使用系统时钟
func NewTTLCache(ttl time.Duration, now func() time.Time) *TTLCache {
	if now == nil {
		now = time.Now
	}
	return &TTLCache{ttl: ttl, now: now}
}

// Set 设置缓存
func (c *TTLCache) Set(key string, value []string) {
	c.items.Store(key, cacheItem{
		value:      value,
		expiration: c.now().Add(c.ttl),
	})
}

// Get 获取缓存并验证是否过期
func (c *TTLCache) Get(key string) ([]string, bool) {
	val, ok := c.items.Load(key)
	if !ok {
		return nil, false
	}

	item := val.(cacheItem)

	// 懒删除过期项
	if c.now().After(item.expiration) {
		c.items.Delete(key)
		return nil, false
	}

	return item.value, true
}

// Delete 删除缓存
func (c *TTLCache) Delete(key string) {
	c.items.Delete(key)
}
