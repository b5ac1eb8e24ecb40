package providers

import (
	"github.com/coocood/freecache"
	"petcache/internal/structures"
	"sync"
	"unsafe"
)

const defaultCacheTTL = 60

type CacheProviderInterface interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Clear()
	// Generation changes on every Clear.
	Generation() uint64
	// SetIfGeneration stores value only when no Clear happened since gen
	// was read, so a response computed before an invalidation is dropped.
	SetIfGeneration(key string, value []byte, gen uint64) bool
}

type CacheProvider struct {
	cache *freecache.Cache
	ttl   int

	mu  sync.Mutex
	gen uint64
}

func NewCacheProvider(conf *structures.Config, logger Logger) CacheProviderInterface {
	if !conf.Cache.Enabled || conf.Cache.Size <= 0 {
		logger.Infof(TypeApp, "Cache disabled")
		return &noopCache{}
	}

	sizeBytes := conf.Cache.Size * 1024 * 1024
	ttl := conf.Cache.TTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	logger.Infof(TypeApp, "Cache initialized: %dMB, TTL=%ds", conf.Cache.Size, ttl)

	return &CacheProvider{
		cache: freecache.NewCache(sizeBytes),
		ttl:   ttl,
	}
}

// unsafeStringToBytes converts string to []byte without allocation.
// Safe when the result is only read (not modified), which is the case
// for freecache: it copies keys internally.
func unsafeStringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func (c *CacheProvider) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get(unsafeStringToBytes(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *CacheProvider) Set(key string, value []byte) {
	_ = c.cache.Set(unsafeStringToBytes(key), value, c.ttl)
}

func (c *CacheProvider) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.cache.Clear()
}

func (c *CacheProvider) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *CacheProvider) SetIfGeneration(key string, value []byte, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	return c.cache.Set(unsafeStringToBytes(key), value, c.ttl) == nil
}

type noopCache struct{}

func (n *noopCache) Get(_ string) ([]byte, bool)                       { return nil, false }
func (n *noopCache) Set(_ string, _ []byte)                            {}
func (n *noopCache) Clear()                                            {}
func (n *noopCache) Generation() uint64                                { return 0 }
func (n *noopCache) SetIfGeneration(_ string, _ []byte, _ uint64) bool { return false }
