// Package cache memoizes compiled output: IR generation is a pure
// function of the AST and assembly emission is a pure function of the
// IR (both deterministic per spec.md), so the same source text always
// produces the same assembly. toycc keys the cache by sha256(source)
// and stores the emitted assembly text, first in an in-process LRU
// tier and optionally in a shared Redis tier behind it.
package cache

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key hashes source into the cache key toycc looks compiled assembly
// up by.
func Key(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Stats reports LRU tier hit/miss/eviction counts.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

type entry struct {
	key   string
	value string
}

// LRU is an in-process, fixed-capacity cache of source hash -> assembly
// text. Grounded on the teacher's pkg/cache.LRUCache (container/list
// eviction list plus a map of list elements), narrowed to a single
// string->string mapping since a compile cache has no TTL, tags, or
// size-estimation concerns the teacher's general-purpose HTTP cache
// carries.
type LRU struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List
	stats    Stats
}

// NewLRU creates an LRU cache holding up to capacity entries. A capacity
// of zero or less falls back to 256.
func NewLRU(capacity int) *LRU {
	if capacity <= 0 {
		capacity = 256
	}
	return &LRU{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached assembly for key, if present.
func (c *LRU) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return "", false
	}
	c.order.MoveToFront(elem)
	c.stats.Hits++
	return elem.Value.(*entry).value, true
}

// Set stores assembly under key, evicting the least-recently-used entry
// if the cache is at capacity.
func (c *LRU) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*entry).value = value
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*entry).key)
			c.stats.Evictions++
		}
	}

	elem := c.order.PushFront(&entry{key: key, value: value})
	c.items[key] = elem
}

// Stats returns a snapshot of the LRU tier's counters.
func (c *LRU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// RedisTier is the distributed compile-cache tier backed by Redis,
// shared across `toycc serve` replicas. Grounded on the teacher's
// pkg/redis.Client (go-redis/v9 wrapped behind a narrow interface) but
// narrowed to the two operations a compile cache actually needs.
type RedisTier struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTier dials addr (host:port) with the given entry TTL.
func NewRedisTier(addr string, ttl time.Duration) *RedisTier {
	return &RedisTier{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// Get looks up key in Redis. A miss is reported as (_, false, nil), not
// an error.
func (r *RedisTier) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores key/value in Redis with the tier's configured TTL.
func (r *RedisTier) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, key, value, r.ttl).Err()
}

// Close releases the underlying connection pool.
func (r *RedisTier) Close() error {
	return r.client.Close()
}

// Compiled is the read-through/write-through cache toycc serve uses:
// an in-process LRU tier backed by an optional Redis tier. A nil Redis
// tier makes Compiled behave as a bare LRU, which is what `toycc serve`
// builds unless cache_backend is "redis".
type Compiled struct {
	lru   *LRU
	redis *RedisTier
}

// NewCompiled builds a Compiled cache. redisTier may be nil.
func NewCompiled(lruCapacity int, redisTier *RedisTier) *Compiled {
	return &Compiled{lru: NewLRU(lruCapacity), redis: redisTier}
}

// Lookup checks the LRU tier, then Redis on a miss, populating the LRU
// tier from any Redis hit.
func (c *Compiled) Lookup(ctx context.Context, source string) (string, bool, error) {
	key := Key(source)
	if asm, ok := c.lru.Get(key); ok {
		return asm, true, nil
	}
	if c.redis == nil {
		return "", false, nil
	}
	asm, ok, err := c.redis.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	if ok {
		c.lru.Set(key, asm)
	}
	return asm, ok, nil
}

// Store writes compiled assembly to both tiers.
func (c *Compiled) Store(ctx context.Context, source, asm string) error {
	key := Key(source)
	c.lru.Set(key, asm)
	if c.redis == nil {
		return nil
	}
	return c.redis.Set(ctx, key, asm)
}
