package memory

import (
	"context"
	"sync"
)

// AudioCache maps words to decoded audio buffers for the process lifetime.
// Entries are never evicted; writes are idempotent, last writer wins.
type AudioCache struct {
	mu      sync.RWMutex
	buffers map[string][]byte
}

func NewAudioCache() *AudioCache {
	return &AudioCache{
		buffers: make(map[string][]byte),
	}
}

func (c *AudioCache) Get(_ context.Context, word string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	buf, ok := c.buffers[word]
	return buf, ok
}

func (c *AudioCache) Put(_ context.Context, word string, audio []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buffers[word] = audio
}
