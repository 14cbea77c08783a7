package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"vocab-drill-service/internal/content"
	"vocab-drill-service/internal/domain"
)

// LevelLoader fetches level definitions from the catalog backing store.
type LevelLoader interface {
	LoadLevel(ctx context.Context, levelID string) (domain.Level, error)
}

// LevelRepository resolves levels to playable vocabulary, caching results
// with TTL so the content generator is not hit on every session start.
type LevelRepository struct {
	loader    LevelLoader
	generator content.Generator
	ttl       time.Duration
	clock     func() time.Time
	sf        singleflight.Group
	rnd       *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedLevel
}

type cachedLevel struct {
	level     domain.Level
	expiresAt time.Time
}

func NewLevelRepository(loader LevelLoader, generator content.Generator, ttl time.Duration) *LevelRepository {
	return &LevelRepository{
		loader:    loader,
		generator: generator,
		ttl:       ttl,
		clock:     time.Now,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:     make(map[string]cachedLevel),
	}
}

// GetLevel returns the level with its Items populated: pre-authored items
// when the catalog carries them, generated from the topic otherwise. Results
// failing validation (short list, duplicate words) are never cached or
// returned.
func (r *LevelRepository) GetLevel(ctx context.Context, levelID string) (domain.Level, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[levelID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.level, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(levelID, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[levelID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.level, nil
		}
		r.mu.RUnlock()

		level, err := r.resolve(ctx, levelID)
		if err != nil {
			return domain.Level{}, err
		}

		r.mu.Lock()
		r.cache[levelID] = cachedLevel{
			level:     level,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return level, nil
	})
	if err != nil {
		return domain.Level{}, err
	}
	return result.(domain.Level), nil
}

func (r *LevelRepository) resolve(ctx context.Context, levelID string) (domain.Level, error) {
	level, err := r.loader.LoadLevel(ctx, levelID)
	if err != nil {
		return domain.Level{}, err
	}
	if len(level.Items) == 0 {
		items, err := r.generator.Generate(ctx, level.Topic)
		if err != nil {
			return domain.Level{}, err
		}
		level.Items = items
	}
	if err := domain.ValidateItems(level.Items); err != nil {
		return domain.Level{}, err
	}
	return level, nil
}

func (r *LevelRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticLevelLoader is a catalog backed by an in-memory map (useful for
// tests/demos).
type StaticLevelLoader struct {
	levels map[string]domain.Level
}

func NewStaticLevelLoader(levels map[string]domain.Level) *StaticLevelLoader {
	return &StaticLevelLoader{levels: levels}
}

func (l *StaticLevelLoader) LoadLevel(_ context.Context, levelID string) (domain.Level, error) {
	if level, ok := l.levels[levelID]; ok {
		return level, nil
	}
	return domain.Level{}, domain.ErrLevelNotFound
}
