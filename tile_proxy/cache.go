package tile_proxy

import (
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"
)

// CacheItem 缓存项
type CacheItem struct {
	Features  []*geojson.Feature
	ExpiresAt time.Time
}

// FeatureCache 按瓦片缓存解码后的道路要素
type FeatureCache struct {
	mu      sync.RWMutex
	items   map[TileCoord]*CacheItem
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewFeatureCache 创建缓存，interval > 0 时启动定期清理
func NewFeatureCache(maxSize int, ttl, interval time.Duration) *FeatureCache {
	cache := &FeatureCache{
		items:   make(map[TileCoord]*CacheItem),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if interval > 0 {
		go cache.cleanupLoop(interval)
	}
	return cache
}

// Get 获取缓存
func (c *FeatureCache) Get(key TileCoord) ([]*geojson.Feature, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[key]
	if !ok || c.now().After(item.ExpiresAt) {
		return nil, false
	}
	return item.Features, true
}

// Set 设置缓存，满了先删最早过期的一项
func (c *FeatureCache) Set(key TileCoord, features []*geojson.Feature) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.maxSize > 0 && len(c.items) >= c.maxSize {
		c.evictOldest()
	}
	c.items[key] = &CacheItem{
		Features:  features,
		ExpiresAt: c.now().Add(c.ttl),
	}
}

func (c *FeatureCache) evictOldest() {
	var (
		oldestKey TileCoord
		oldest    time.Time
		found     bool
	)
	for key, item := range c.items {
		if !found || item.ExpiresAt.Before(oldest) {
			oldestKey, oldest, found = key, item.ExpiresAt, true
		}
	}
	if found {
		delete(c.items, oldestKey)
	}
}

func (c *FeatureCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Cleanup()
		case <-c.stop:
			return
		}
	}
}

// Cleanup 清理过期缓存，返回清理数量
func (c *FeatureCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, item := range c.items {
		if now.After(item.ExpiresAt) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// Clear 清空缓存
func (c *FeatureCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[TileCoord]*CacheItem)
}

// Size 获取缓存大小
func (c *FeatureCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close 停止清理协程
func (c *FeatureCache) Close() {
	c.once.Do(func() { close(c.stop) })
}
