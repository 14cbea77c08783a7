package audio_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocab-drill-service/internal/audio"
	"vocab-drill-service/internal/infra/memory"
)

const (
	testWait = time.Second
	testTick = 5 * time.Millisecond
)

type fakeSynth struct {
	mu    sync.Mutex
	calls int
	err   error
	block chan struct{}
}

func (s *fakeSynth) Synthesize(_ context.Context, word string) ([]byte, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.block != nil {
		<-s.block
	}
	if s.err != nil {
		return nil, s.err
	}
	return []byte("audio:" + word), nil
}

func (s *fakeSynth) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeSink struct {
	mu     sync.Mutex
	played []string
}

func (s *fakeSink) Play(word string, _ []byte) {
	s.mu.Lock()
	s.played = append(s.played, word)
	s.mu.Unlock()
}

func (s *fakeSink) playedWords() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.played...)
}

func TestPlayFetchesAndCaches(t *testing.T) {
	ctx := context.Background()
	cache := memory.NewAudioCache()
	synth := &fakeSynth{}
	sink := &fakeSink{}
	coord := audio.NewCoordinator(cache, synth, nil)

	coord.Play(ctx, "猫", sink, nil)
	assert.Equal(t, []string{"猫"}, sink.playedWords())
	assert.Equal(t, 1, synth.callCount())

	buf, ok := cache.Get(ctx, "猫")
	require.True(t, ok)
	assert.Equal(t, []byte("audio:猫"), buf)

	// Second play is served from the cache.
	coord.Play(ctx, "猫", sink, nil)
	assert.Equal(t, 1, synth.callCount())
	assert.Equal(t, []string{"猫", "猫"}, sink.playedWords())
}

func TestPlaySwallowsSynthesisFailure(t *testing.T) {
	ctx := context.Background()
	cache := memory.NewAudioCache()
	synth := &fakeSynth{err: errors.New("tts down")}
	sink := &fakeSink{}
	coord := audio.NewCoordinator(cache, synth, nil)

	coord.Play(ctx, "狗", sink, nil)
	assert.Empty(t, sink.playedWords())
	_, ok := cache.Get(ctx, "狗")
	assert.False(t, ok, "failures are not cached")

	// A later attempt may succeed.
	synth.err = nil
	coord.Play(ctx, "狗", sink, nil)
	assert.Equal(t, []string{"狗"}, sink.playedWords())
}

func TestStalePlaybackDroppedButCached(t *testing.T) {
	ctx := context.Background()
	cache := memory.NewAudioCache()
	synth := &fakeSynth{}
	sink := &fakeSink{}
	coord := audio.NewCoordinator(cache, synth, nil)

	coord.Play(ctx, "鸟", sink, func() bool { return false })
	assert.Empty(t, sink.playedWords(), "stale requests must not play")

	// The fetched buffer is still committed for future reuse.
	buf, ok := cache.Get(ctx, "鸟")
	require.True(t, ok)
	assert.Equal(t, []byte("audio:鸟"), buf)
}

func TestConcurrentPlaysDeduplicated(t *testing.T) {
	ctx := context.Background()
	cache := memory.NewAudioCache()
	synth := &fakeSynth{block: make(chan struct{})}
	sink := &fakeSink{}
	coord := audio.NewCoordinator(cache, synth, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			coord.Play(ctx, "鱼", sink, nil)
		}()
	}

	// Let the goroutines pile onto the in-flight fetch, then release it.
	assert.Eventually(t, func() bool { return synth.callCount() >= 1 }, testWait, testTick)
	close(synth.block)
	wg.Wait()

	assert.Equal(t, 1, synth.callCount(), "in-flight fetch shared")
	assert.Len(t, sink.playedWords(), 4, "every caller still hears the word")
}
