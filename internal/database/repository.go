package database

import (
	"context"
	"sync"
)

// DigestCache remembers the content digest of every source asset that was
// last resized, keyed by asset name.
type DigestCache interface {
	GetDigest(ctx context.Context, name string) (string, bool, error)
	SetDigest(ctx context.Context, name, digest string) error
	DeleteDigest(ctx context.Context, name string) error
}

type memoryDigestCache struct {
	mu      sync.RWMutex
	digests map[string]string
}

func NewMemoryDigestCache() DigestCache {
	return &memoryDigestCache{digests: make(map[string]string)}
}

func (c *memoryDigestCache) GetDigest(ctx context.Context, name string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	digest, ok := c.digests[name]
	return digest, ok, nil
}

func (c *memoryDigestCache) SetDigest(ctx context.Context, name, digest string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.digests[name] = digest
	return nil
}

func (c *memoryDigestCache) DeleteDigest(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.digests, name)
	return nil
}

type noopDigestCache struct{}

// NewNoopDigestCache always misses, so every asset is resized on every run.
func NewNoopDigestCache() DigestCache { return noopDigestCache{} }

func (noopDigestCache) GetDigest(ctx context.Context, name string) (string, bool, error) {
	return "", false, nil
}
func (noopDigestCache) SetDigest(ctx context.Context, name, digest string) error { return nil }
func (noopDigestCache) DeleteDigest(ctx context.Context, name string) error      { return nil }
