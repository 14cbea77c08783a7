package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// AudioCache stores synthesized audio buffers in Redis so instances share
// one synthesis call per word. Reads and writes are best-effort: a Redis
// failure looks like a cache miss.
type AudioCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAudioCache(client *redis.Client, ttl time.Duration) *AudioCache {
	return &AudioCache{client: client, ttl: ttl}
}

func (c *AudioCache) Get(ctx context.Context, word string) ([]byte, bool) {
	buf, err := c.client.Get(ctx, c.key(word)).Bytes()
	if err != nil {
		return nil, false
	}
	return buf, true
}

func (c *AudioCache) Put(ctx context.Context, word string, audio []byte) {
	_ = c.client.Set(ctx, c.key(word), audio, c.ttl).Err()
}

func (c *AudioCache) key(word string) string {
	return "audio:word:" + word
}
