package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"study-match/internal/domain"
)

// GroupProfileCache is a read-through cache for group aggregates. Entries
// are deleted on every recalculation, so a hit is at most TTL-stale.
type GroupProfileCache interface {
	Get(ctx context.Context, groupID string) (domain.GroupCharacteristicProfile, bool)
	Set(ctx context.Context, profile domain.GroupCharacteristicProfile)
	Delete(ctx context.Context, groupID string)
}

type memoryGroupProfileCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]memoryCacheEntry
}

type memoryCacheEntry struct {
	profile   domain.GroupCharacteristicProfile
	expiresAt time.Time
}

func NewMemoryGroupProfileCache(ttl time.Duration) GroupProfileCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &memoryGroupProfileCache{
		ttl:   ttl,
		items: make(map[string]memoryCacheEntry),
	}
}

func (c *memoryGroupProfileCache) Get(_ context.Context, groupID string) (domain.GroupCharacteristicProfile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.items[groupID]
	if !ok {
		return domain.GroupCharacteristicProfile{}, false
	}
	if time.Now().UTC().After(entry.expiresAt) {
		delete(c.items, groupID)
		return domain.GroupCharacteristicProfile{}, false
	}
	return entry.profile, true
}

func (c *memoryGroupProfileCache) Set(_ context.Context, profile domain.GroupCharacteristicProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[profile.GroupID] = memoryCacheEntry{
		profile:   profile,
		expiresAt: time.Now().UTC().Add(c.ttl),
	}
}

func (c *memoryGroupProfileCache) Delete(_ context.Context, groupID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, groupID)
}

type redisGroupProfileCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisGroupProfileCache(client *redis.Client, ttl time.Duration) GroupProfileCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &redisGroupProfileCache{
		client: client,
		ttl:    ttl,
		prefix: "match:group_profile:",
	}
}

// Cache errors are treated as misses: the repository is the source of truth
// and a cold redis must never fail a scoring request.
func (c *redisGroupProfileCache) Get(ctx context.Context, groupID string) (domain.GroupCharacteristicProfile, bool) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	raw, err := c.client.Get(ctx, c.prefix+groupID).Bytes()
	if err != nil {
		return domain.GroupCharacteristicProfile{}, false
	}
	var profile domain.GroupCharacteristicProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return domain.GroupCharacteristicProfile{}, false
	}
	return profile, true
}

func (c *redisGroupProfileCache) Set(ctx context.Context, profile domain.GroupCharacteristicProfile) {
	raw, err := json.Marshal(profile)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	c.client.Set(ctx, c.prefix+profile.GroupID, raw, c.ttl)
}

func (c *redisGroupProfileCache) Delete(ctx context.Context, groupID string) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	c.client.Del(ctx, c.prefix+groupID)
}
