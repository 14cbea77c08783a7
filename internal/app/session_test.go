package app_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocab-drill-service/internal/app"
	"vocab-drill-service/internal/domain"
)

var testTimings = app.Timings{
	Presentation: 20 * time.Millisecond,
	Advance:      30 * time.Millisecond,
	Retry:        30 * time.Millisecond,
}

// recordingPlayer implements app.Player and records which words reached the
// sink and which were requested at all.
type recordingPlayer struct {
	mu        sync.Mutex
	requested []string
	played    []string
}

func (p *recordingPlayer) Play(_ context.Context, word string, sink app.Sink, stillCurrent func() bool) {
	p.mu.Lock()
	p.requested = append(p.requested, word)
	p.mu.Unlock()
	if stillCurrent == nil || stillCurrent() {
		sink.Play(word, []byte("audio:"+word))
	}
}

func (p *recordingPlayer) playedWords() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.played...)
}

type recordingSink struct {
	player *recordingPlayer
}

func (s *recordingSink) Play(word string, _ []byte) {
	s.player.mu.Lock()
	s.player.played = append(s.player.played, word)
	s.player.mu.Unlock()
}

func wordMatch(target string, options ...string) domain.Challenge {
	ch := domain.Challenge{Type: domain.ChallengeWordMatch, Target: domain.VocabularyItem{Word: target}}
	for _, opt := range options {
		ch.Options = append(ch.Options, domain.VocabularyItem{Word: opt})
	}
	return ch
}

func learn(word string) domain.Challenge {
	return domain.Challenge{Type: domain.ChallengeLearn, Target: domain.VocabularyItem{Word: word}}
}

func TestScoringFlow(t *testing.T) {
	items := []domain.VocabularyItem{
		{Word: "Cat"}, {Word: "Dog"}, {Word: "Bird"}, {Word: "Fish"},
	}
	queue, err := app.BuildQueue(rand.New(rand.NewSource(7)), items)
	require.NoError(t, err)
	require.Len(t, queue, 12)

	session := app.NewSession("s1", "#fff", queue, testTimings, nil, nil, app.Hooks{})
	session.Start()

	// Step 0 is the learn step for Cat; no answer expected.
	ch, ok := session.CurrentChallenge()
	require.True(t, ok)
	assert.Equal(t, domain.ChallengeLearn, ch.Type)
	_, accepted := session.SubmitAnswer("Cat")
	assert.False(t, accepted, "learn steps must reject submissions")

	session.Advance()

	ch, ok = session.CurrentChallenge()
	require.True(t, ok)
	require.Equal(t, domain.ChallengeListenFind, ch.Type)
	require.Equal(t, "Cat", ch.Target.Word)

	outcome, accepted := session.SubmitAnswer("Cat")
	require.True(t, accepted)
	assert.True(t, outcome.Correct)
	assert.Equal(t, 10, outcome.Awarded)
	assert.Equal(t, 10, outcome.Score)
	assert.Equal(t, 1, outcome.Combo)

	// The correct answer schedules an automatic advance.
	assert.Eventually(t, func() bool {
		return session.Snapshot().StepIndex == 2
	}, time.Second, 5*time.Millisecond)
}

func TestWrongAnswerReArmsStep(t *testing.T) {
	queue := []domain.Challenge{
		wordMatch("Dog", "Dog", "Fish", "Cat", "Bird"),
	}
	session := app.NewSession("s1", "", queue, testTimings, nil, nil, app.Hooks{})
	session.Start()

	outcome, accepted := session.SubmitAnswer("Fish")
	require.True(t, accepted)
	assert.False(t, outcome.Correct)
	assert.Equal(t, 0, outcome.Awarded)
	assert.Equal(t, 0, outcome.Score)
	assert.Equal(t, 0, outcome.Combo)

	snap := session.Snapshot()
	assert.Equal(t, domain.AnswerIncorrect, snap.Answer)
	assert.Equal(t, "Fish", snap.Selected)

	// After the retry delay the step re-arms without advancing.
	assert.Eventually(t, func() bool {
		return session.Snapshot().Answer == domain.AnswerUnknown
	}, time.Second, 5*time.Millisecond)
	snap = session.Snapshot()
	assert.Empty(t, snap.Selected)
	assert.Equal(t, 0, snap.StepIndex)
	assert.Equal(t, 0, snap.Score)
}

func TestComboLaws(t *testing.T) {
	// Long advance delay so the manual Advance calls below always win over
	// the scheduled auto-advance.
	timings := app.Timings{Presentation: 20 * time.Millisecond, Advance: 10 * time.Second, Retry: 30 * time.Millisecond}
	queue := []domain.Challenge{
		wordMatch("A", "A", "B", "C", "D"),
		wordMatch("B", "A", "B", "C", "D"),
		wordMatch("C", "A", "B", "C", "D"),
	}
	session := app.NewSession("s1", "", queue, timings, nil, nil, app.Hooks{})
	session.Start()

	outcome, _ := session.SubmitAnswer("A")
	assert.Equal(t, 10, outcome.Awarded)
	assert.Equal(t, 1, outcome.Combo)
	session.Advance()

	// Miss resets the combo and leaves the score untouched.
	outcome, _ = session.SubmitAnswer("D")
	assert.Equal(t, 0, outcome.Combo)
	assert.Equal(t, 10, outcome.Score)
	assert.Eventually(t, func() bool {
		return session.Snapshot().Answer == domain.AnswerUnknown
	}, time.Second, 5*time.Millisecond)

	outcome, _ = session.SubmitAnswer("B")
	assert.Equal(t, 10, outcome.Awarded, "combo was reset, base award again")
	assert.Equal(t, 1, outcome.Combo)
	session.Advance()

	outcome, _ = session.SubmitAnswer("C")
	assert.Equal(t, 12, outcome.Awarded, "10 + 2*combo")
	assert.Equal(t, 2, outcome.Combo)
	assert.Equal(t, 32, outcome.Score)
}

func TestDoubleSubmissionIsNoOp(t *testing.T) {
	queue := []domain.Challenge{
		wordMatch("A", "A", "B", "C", "D"),
	}
	session := app.NewSession("s1", "", queue, testTimings, nil, nil, app.Hooks{})
	session.Start()

	_, accepted := session.SubmitAnswer("A")
	require.True(t, accepted)
	_, accepted = session.SubmitAnswer("B")
	assert.False(t, accepted)
	assert.Equal(t, 10, session.Snapshot().Score)
}

func TestIdempotentCompletion(t *testing.T) {
	var mu sync.Mutex
	var reported []int
	hooks := app.Hooks{
		OnComplete: func(score int) {
			mu.Lock()
			reported = append(reported, score)
			mu.Unlock()
		},
	}
	session := app.NewSession("s1", "", []domain.Challenge{learn("A")}, testTimings, nil, nil, hooks)
	session.Start()

	session.Advance()
	snap := session.Snapshot()
	assert.True(t, snap.Complete)
	assert.Equal(t, 1, snap.StepIndex)
	assert.Nil(t, snap.Challenge)
	_, ok := session.CurrentChallenge()
	assert.False(t, ok)

	session.Advance()
	session.Advance()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, reported, 3)
	for _, score := range reported {
		assert.Equal(t, 0, score)
	}
}

func TestAutoPlayCurrentStep(t *testing.T) {
	player := &recordingPlayer{}
	sink := &recordingSink{player: player}
	queue := []domain.Challenge{learn("A"), learn("B")}
	session := app.NewSession("s1", "", queue, testTimings, player, sink, app.Hooks{})
	session.Start()

	assert.Eventually(t, func() bool {
		words := player.playedWords()
		return len(words) == 1 && words[0] == "A"
	}, time.Second, 5*time.Millisecond)
}

func TestStalePlaybackCancelled(t *testing.T) {
	player := &recordingPlayer{}
	sink := &recordingSink{player: player}
	queue := []domain.Challenge{
		learn("A"),
		wordMatch("B", "A", "B", "C", "D"), // word-match never auto-plays
	}
	session := app.NewSession("s1", "", queue, testTimings, player, sink, app.Hooks{})
	session.Start()
	session.Advance() // leave step 0 before its presentation delay elapses

	time.Sleep(4 * testTimings.Presentation)
	assert.Empty(t, player.playedWords(), "no playback for an abandoned step")
}

func TestExitReportsNoScore(t *testing.T) {
	var exited bool
	var completed bool
	hooks := app.Hooks{
		OnComplete: func(int) { completed = true },
		OnExit:     func() { exited = true },
	}
	timings := app.Timings{Presentation: 20 * time.Millisecond, Advance: 40 * time.Millisecond, Retry: 40 * time.Millisecond}
	queue := []domain.Challenge{
		wordMatch("A", "A", "B", "C", "D"),
	}
	session := app.NewSession("s1", "", queue, timings, nil, nil, hooks)
	session.Start()

	session.Exit()
	assert.True(t, exited)
	assert.False(t, completed)

	_, accepted := session.SubmitAnswer("A")
	assert.False(t, accepted, "no submissions after exit")

	// Nothing scheduled before the exit may fire afterwards.
	time.Sleep(3 * timings.Advance)
	assert.False(t, completed)
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	queue := []domain.Challenge{
		wordMatch("A", "A", "B", "C", "D"),
		learn("B"),
	}
	session := app.NewSession("s1", "#abc", queue, testTimings, nil, nil, app.Hooks{})

	ch, cancel := session.Subscribe()
	defer cancel()

	initial := <-ch
	assert.Equal(t, 0, initial.StepIndex)
	assert.Equal(t, "#abc", initial.Color)

	session.Start()
	<-ch // snapshot from Start

	_, accepted := session.SubmitAnswer("A")
	require.True(t, accepted)

	update := <-ch
	assert.Equal(t, domain.AnswerCorrect, update.Answer)
	assert.Equal(t, 10, update.Score)
}
