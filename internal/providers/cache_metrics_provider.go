package providers

import "petcache/internal/structures"

// MetricsCacheProvider counts what happens to cached record responses:
// hits and misses on Get, invalidations on Clear, and responses dropped
// because the records changed while they were being built.
type MetricsCacheProvider struct {
	inner   CacheProviderInterface
	metrics MetricsProviderInterface
}

func (c *MetricsCacheProvider) Get(key string) ([]byte, bool) {
	val, ok := c.inner.Get(key)
	if ok {
		c.metrics.IncCacheHits()
	} else {
		c.metrics.IncCacheMisses()
	}
	return val, ok
}

func (c *MetricsCacheProvider) Set(key string, value []byte) {
	c.inner.Set(key, value)
}

func (c *MetricsCacheProvider) Clear() {
	c.inner.Clear()
	c.metrics.IncCacheInvalidations()
}

func (c *MetricsCacheProvider) Generation() uint64 {
	return c.inner.Generation()
}

func (c *MetricsCacheProvider) SetIfGeneration(key string, value []byte, gen uint64) bool {
	if c.inner.SetIfGeneration(key, value, gen) {
		return true
	}
	if c.inner.Generation() != gen {
		c.metrics.IncCacheStaleSets()
	}
	return false
}

// NewInstrumentedCacheProvider wraps the response cache with metrics. A
// disabled cache is returned bare so every read does not show up as a miss.
func NewInstrumentedCacheProvider(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) CacheProviderInterface {
	inner := NewCacheProvider(conf, logger)
	if !conf.Cache.Enabled {
		return inner
	}
	return &MetricsCacheProvider{
		inner:   inner,
		metrics: metrics,
	}
}
