// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"sync"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/lru"

	"github.com/luxfi/bridge"
)

const DefaultCacheSize = 1024

var _ Registry = (*Cached)(nil)

// Cached wraps a Registry with an LRU of listed descriptors. Misses and
// unlisted descriptors are always read through, so a newly listed token is
// visible immediately. A Versioned backing invalidates the cache on every
// change. Any other backing needs Purge after a delisting.
type Cached struct {
	backing   Registry
	versioned Versioned
	cache     *lru.Cache[key, bridge.TokenDescriptor]

	lock sync.Mutex
	seen uint64
}

func NewCached(backing Registry, size int) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c := &Cached{
		backing: backing,
		cache:   lru.NewCache[key, bridge.TokenDescriptor](size),
	}
	if v, ok := backing.(Versioned); ok {
		c.versioned = v
		c.seen = v.Version()
	}
	return c
}

// version returns the backing version, purging the cache if it moved.
func (c *Cached) version() uint64 {
	if c.versioned == nil {
		return 0
	}
	v := c.versioned.Version()

	c.lock.Lock()
	defer c.lock.Unlock()

	if v != c.seen {
		c.cache.Purge()
		c.seen = v
	}
	return v
}

// ResolveLocal implements Registry.
func (c *Cached) ResolveLocal(token common.Address, counterpartChainID uint64) (bridge.TokenDescriptor, bool) {
	v := c.version()
	k := key{token, counterpartChainID}
	if d, ok := c.cache.Get(k); ok {
		return d, true
	}

	d, ok := c.backing.ResolveLocal(token, counterpartChainID)
	if !ok || !d.Listed {
		return d, ok
	}
	c.lock.Lock()
	if c.seen == v {
		c.cache.Add(k, d)
	}
	c.lock.Unlock()
	return d, ok
}

// Purge drops every cached descriptor.
func (c *Cached) Purge() {
	c.cache.Purge()
}

// Len returns the number of cached descriptors.
func (c *Cached) Len() int {
	return c.cache.Len()
}
