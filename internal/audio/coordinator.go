// Package audio coordinates speech playback: it resolves words to buffers
// through a read-through cache and routes them to a sink, deduplicating
// in-flight synthesis and dropping playback for steps the learner has left.
package audio

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"vocab-drill-service/internal/app"
)

// Cache stores decoded audio buffers keyed by word. Entries are append-only;
// re-caching the same word is safe.
type Cache interface {
	Get(ctx context.Context, word string) ([]byte, bool)
	Put(ctx context.Context, word string, audio []byte)
}

// Synthesizer turns a word into a playable audio buffer. Synthesis is atomic
// from the coordinator's point of view.
type Synthesizer interface {
	Synthesize(ctx context.Context, word string) ([]byte, error)
}

// Coordinator implements app.Player.
type Coordinator struct {
	cache  Cache
	synth  Synthesizer
	sf     singleflight.Group
	logger *zap.Logger
}

func NewCoordinator(cache Cache, synth Synthesizer, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{cache: cache, synth: synth, logger: logger}
}

// Play routes the word's audio to the sink. Cache misses trigger a synthesis
// fetch; concurrent fetches for the same word are collapsed. A successful
// fetch is cached even when the step has moved on, but stale playback is
// dropped. Synthesis failure is swallowed: audio is an enhancement, the
// learner can still answer from text and emoji cues.
func (c *Coordinator) Play(ctx context.Context, word string, sink app.Sink, stillCurrent func() bool) {
	if stillCurrent == nil {
		stillCurrent = func() bool { return true }
	}

	if buf, ok := c.cache.Get(ctx, word); ok {
		if stillCurrent() {
			sink.Play(word, buf)
		}
		return
	}

	result, err, _ := c.sf.Do(word, func() (interface{}, error) {
		// Re-check in case another caller filled the cache.
		if buf, ok := c.cache.Get(ctx, word); ok {
			return buf, nil
		}
		buf, err := c.synth.Synthesize(ctx, word)
		if err != nil {
			return nil, err
		}
		c.cache.Put(ctx, word, buf)
		return buf, nil
	})
	if err != nil {
		c.logger.Debug("speech synthesis failed", zap.String("word", word), zap.Error(err))
		return
	}
	if stillCurrent() {
		sink.Play(word, result.([]byte))
	}
}
