package sealclient

import (
	"encoding/hex"
	"sync"

	"github.com/seal-ibe/seal-go/pkg/curve"
)

// keyCacheKey identifies one verified partial key: a full identity and the
// server that issued it. The identity is kept as its hex form internally
// so the map key stays a plain comparable string.
type keyCacheKey struct {
	fullIDHex      string
	serverObjectID [32]byte
}

// KeyCache maps (fullId, serverObjectId) to a verified G1 partial key.
// Process-lifetime, bound to one SealClient; safe for concurrent
// read/write across the fetch orchestrator's goroutines.
type KeyCache struct {
	mu    sync.RWMutex
	items map[keyCacheKey]curve.G1
}

// NewKeyCache returns an empty cache.
func NewKeyCache() *KeyCache {
	return &KeyCache{items: make(map[keyCacheKey]curve.G1)}
}

func cacheKey(fullID []byte, serverObjectID [32]byte) keyCacheKey {
	return keyCacheKey{fullIDHex: hex.EncodeToString(fullID), serverObjectID: serverObjectID}
}

// Get returns the cached partial key for (fullID, serverObjectID), if any.
func (c *KeyCache) Get(fullID []byte, serverObjectID [32]byte) (curve.G1, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[cacheKey(fullID, serverObjectID)]
	return v, ok
}

// Put inserts a key into the cache. Callers must only insert keys that
// have already passed ibe.VerifyUserSecretKey.
func (c *KeyCache) Put(fullID []byte, serverObjectID [32]byte, key curve.G1) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[cacheKey(fullID, serverObjectID)] = key
}

// Has reports whether a verified key is already cached for this pair.
func (c *KeyCache) Has(fullID []byte, serverObjectID [32]byte) bool {
	_, ok := c.Get(fullID, serverObjectID)
	return ok
}
