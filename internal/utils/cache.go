package utils

import (
	"log"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheItem 包装缓存数据和过期时间
type CacheItem struct {
	Data      interface{}
	ExpiresAt time.Time
}

// PageCache 本地页面缓存，LRU 淘汰 + 读取时检查 TTL。
// 显式构造后注入 handler，不做全局单例，测试可替换时钟。
type PageCache struct {
	lruCache *lru.Cache[string, CacheItem]
	now      func() time.Time
}

// NewPageCache 创建指定容量的页面缓存
func NewPageCache(size int) *PageCache {
	l, err := lru.New[string, CacheItem](size)
	if err != nil {
		log.Fatalf("Failed to create LRU cache: %v", err)
	}
	return &PageCache{
		lruCache: l,
		now:      time.Now,
	}
}

// Set 设置缓存，TTL 为过期时间
func (c *PageCache) Set(key string, data interface{}, ttl time.Duration) {
	c.lruCache.Add(key, CacheItem{
		Data:      data,
		ExpiresAt: c.now().Add(ttl),
	})
}

// Get 获取缓存，若不存在或已过期则返回 nil
func (c *PageCache) Get(key string) interface{} {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil
	}

	// 检查过期
	if c.now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return nil
	}

	return val.Data
}

// GetOrCompute 命中且未过期时直接返回缓存值；否则执行 compute，
// 成功则写入缓存并返回。compute 失败时错误原样上抛，不缓存失败结果。
// 同一 key 并发未命中时可能重复计算，计算是纯读操作，可接受。
func (c *PageCache) GetOrCompute(key string, ttl time.Duration, compute func() (interface{}, error)) (interface{}, error) {
	if data := c.Get(key); data != nil {
		return data, nil
	}

	data, err := compute()
	if err != nil {
		return nil, err
	}

	c.Set(key, data, ttl)
	return data, nil
}

// Delete 删除指定缓存，下一次 GetOrCompute 无视剩余 TTL 重新计算
func (c *PageCache) Delete(key string) {
	c.lruCache.Remove(key)
}
