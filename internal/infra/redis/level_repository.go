package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"vocab-drill-service/internal/content"
	"vocab-drill-service/internal/domain"
	"vocab-drill-service/internal/infra/memory"
)

// LevelRepository caches generated vocabulary lists in Redis (one JSON value
// per level) so instances share AI-generated content, and falls back to the
// loader plus generator on cache miss. Level metadata (topic, color) always
// comes from the loader; only the expensive generation result is cached.
type LevelRepository struct {
	client    *redis.Client
	loader    memory.LevelLoader
	generator content.Generator
	ttl       time.Duration
	sf        singleflight.Group
	rnd       *rand.Rand
}

func NewLevelRepository(client *redis.Client, loader memory.LevelLoader, generator content.Generator, ttl time.Duration) *LevelRepository {
	return &LevelRepository{
		client:    client,
		loader:    loader,
		generator: generator,
		ttl:       ttl,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *LevelRepository) GetLevel(ctx context.Context, levelID string) (domain.Level, error) {
	level, err := r.loader.LoadLevel(ctx, levelID)
	if err != nil {
		return domain.Level{}, err
	}
	if len(level.Items) > 0 {
		if err := domain.ValidateItems(level.Items); err != nil {
			return domain.Level{}, err
		}
		return level, nil
	}

	key := r.vocabKey(levelID)
	if raw, err := r.client.Get(ctx, key).Bytes(); err == nil {
		var items []domain.VocabularyItem
		if err := json.Unmarshal(raw, &items); err == nil && domain.ValidateItems(items) == nil {
			level.Items = items
			return level, nil
		}
		// Corrupt cache entry; regenerate below.
	}

	result, err, _ := r.sf.Do(levelID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := r.client.Get(ctx, key).Bytes(); err == nil {
			var items []domain.VocabularyItem
			if err := json.Unmarshal(raw, &items); err == nil && domain.ValidateItems(items) == nil {
				return items, nil
			}
		}

		items, err := r.generator.Generate(ctx, level.Topic)
		if err != nil {
			return nil, err
		}
		if err := domain.ValidateItems(items); err != nil {
			return nil, err
		}

		if raw, err := json.Marshal(items); err == nil {
			// best-effort cache write
			_ = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
		}
		return items, nil
	})
	if err != nil {
		return domain.Level{}, err
	}
	level.Items = result.([]domain.VocabularyItem)
	return level, nil
}

func (r *LevelRepository) vocabKey(levelID string) string {
	return "level:" + levelID + ":vocab"
}

func (r *LevelRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
