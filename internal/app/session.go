package app

import (
	"context"
	"sync"
	"time"

	"vocab-drill-service/internal/domain"
)

const (
	baseAward  = 10
	comboBonus = 2
)

// Timings holds the fixed delays that pace the drill loop.
type Timings struct {
	// Presentation is the pause after a step change before the step's word
	// is auto-played, so transition animation can settle.
	Presentation time.Duration
	// Advance is the pause after a correct answer before moving on.
	Advance time.Duration
	// Retry is the pause after a wrong answer before the step is re-armed.
	Retry time.Duration
}

// DefaultTimings matches the reference pacing of the game.
func DefaultTimings() Timings {
	return Timings{
		Presentation: 500 * time.Millisecond,
		Advance:      1200 * time.Millisecond,
		Retry:        1000 * time.Millisecond,
	}
}

// Sink receives playable audio for a word. The transport implements it by
// pushing an audio frame to the client.
type Sink interface {
	Play(word string, audio []byte)
}

// Player resolves a word to audio and routes it to the sink. stillCurrent is
// re-checked after any fetch completes; stale playback must be dropped while
// cache writes still commit.
type Player interface {
	Play(ctx context.Context, word string, sink Sink, stillCurrent func() bool)
}

// Hooks receive terminal session events. OnComplete runs with the session
// lock held and must not call back into the session.
type Hooks struct {
	// OnComplete reports the final score. Advancing again after completion
	// re-reports the same score.
	OnComplete func(finalScore int)
	// OnExit fires on teardown; no score is reported.
	OnExit func()
}

// Session owns one play-through of a challenge queue. All mutation goes
// through its methods; timers scheduled for a step are invalidated by a
// generation counter when the step changes or the session is torn down.
type Session struct {
	id      string
	color   string
	queue   []domain.Challenge
	timings Timings
	player  Player
	sink    Sink
	hooks   Hooks
	now     func() time.Time

	mu          sync.RWMutex
	createdAt   time.Time
	step        int
	score       int
	combo       int
	selected    string
	answer      domain.AnswerState
	complete    bool
	exited      bool
	gen         uint64
	timers      []*time.Timer
	subscribers map[chan domain.SessionSnapshot]struct{}
}

// NewSession creates a session positioned at the first step. Call Start once
// the caller is wired up to receive snapshots and audio.
func NewSession(id, color string, queue []domain.Challenge, timings Timings, player Player, sink Sink, hooks Hooks) *Session {
	return newSessionWithClock(id, color, queue, timings, player, sink, hooks, time.Now)
}

// newSessionWithClock allows deterministic timestamps in tests.
func newSessionWithClock(id, color string, queue []domain.Challenge, timings Timings, player Player, sink Sink, hooks Hooks, now func() time.Time) *Session {
	return &Session{
		id:          id,
		color:       color,
		queue:       queue,
		timings:     timings,
		player:      player,
		sink:        sink,
		hooks:       hooks,
		now:         now,
		createdAt:   now(),
		answer:      domain.AnswerUnknown,
		subscribers: make(map[chan domain.SessionSnapshot]struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Start broadcasts the initial snapshot and arms auto-play for the first step.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exited || s.complete {
		return
	}
	s.armAutoPlayLocked()
	s.broadcastLocked()
}

// CurrentChallenge returns the challenge at the current step, or false once
// the session is complete.
func (s *Session) CurrentChallenge() (domain.Challenge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.complete || s.exited {
		return domain.Challenge{}, false
	}
	return s.queue[s.step], true
}

// Snapshot returns the current client-facing state.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// SubmitAnswer records the learner's pick for the current step. It is a
// no-op (ok=false) when the step is unscored, already answered, or the
// session is no longer active. A correct answer awards 10 + 2*combo points,
// bumps the combo, and schedules an automatic advance; a wrong answer resets
// the combo and schedules the step to be re-armed for another try.
func (s *Session) SubmitAnswer(word string) (domain.AnswerOutcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.complete || s.exited || s.answer != domain.AnswerUnknown {
		return domain.AnswerOutcome{}, false
	}
	challenge := s.queue[s.step]
	if !challenge.Type.Scored() {
		return domain.AnswerOutcome{}, false
	}

	s.selected = word
	outcome := domain.AnswerOutcome{Word: word}
	if word == challenge.Target.Word {
		awarded := baseAward + comboBonus*s.combo
		s.score += awarded
		s.combo++
		s.answer = domain.AnswerCorrect
		outcome.Correct = true
		outcome.Awarded = awarded
		s.scheduleLocked(s.timings.Advance, s.advanceLocked)
	} else {
		s.combo = 0
		s.answer = domain.AnswerIncorrect
		s.scheduleLocked(s.timings.Retry, s.rearmLocked)
	}
	outcome.Score = s.score
	outcome.Combo = s.combo
	s.broadcastLocked()
	return outcome, true
}

// Advance moves to the next step, used directly for learn steps. Once the
// queue is exhausted the session completes and reports its final score;
// advancing again is idempotent and re-reports the same score.
func (s *Session) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked()
}

// Exit abandons the session: pending timers are invalidated, subscribers are
// closed, and no score is reported.
func (s *Session) Exit() {
	s.mu.Lock()
	if s.exited {
		s.mu.Unlock()
		return
	}
	s.exited = true
	s.invalidateLocked()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
	hook := s.hooks.OnExit
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// Subscribe returns a channel of state snapshots, primed with the current
// one. The caller must invoke cancel to avoid leaks; the channel is also
// closed when the session exits.
func (s *Session) Subscribe() (<-chan domain.SessionSnapshot, func()) {
	ch := make(chan domain.SessionSnapshot, 8)

	s.mu.Lock()
	if s.exited {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) advanceLocked() {
	if s.exited {
		return
	}
	if s.complete {
		if s.hooks.OnComplete != nil {
			s.hooks.OnComplete(s.score)
		}
		return
	}

	s.invalidateLocked()
	s.selected = ""
	s.answer = domain.AnswerUnknown

	if s.step+1 < len(s.queue) {
		s.step++
		s.armAutoPlayLocked()
	} else {
		s.step = len(s.queue)
		s.complete = true
		if s.hooks.OnComplete != nil {
			s.hooks.OnComplete(s.score)
		}
	}
	s.broadcastLocked()
}

// rearmLocked clears the wrong answer so the learner can retry the same step.
func (s *Session) rearmLocked() {
	s.selected = ""
	s.answer = domain.AnswerUnknown
	s.broadcastLocked()
}

// scheduleLocked runs fn under the session lock after d, unless the step
// generation has moved on or the session has been torn down by then.
func (s *Session) scheduleLocked(d time.Duration, fn func()) {
	gen := s.gen
	t := time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen != gen || s.exited {
			return
		}
		fn()
	})
	s.timers = append(s.timers, t)
}

// armAutoPlayLocked schedules playback of the current target word after the
// presentation delay. Word-match steps show text only and play nothing.
func (s *Session) armAutoPlayLocked() {
	if s.player == nil || s.sink == nil || s.complete {
		return
	}
	challenge := s.queue[s.step]
	if challenge.Type == domain.ChallengeWordMatch {
		return
	}
	gen := s.gen
	word := challenge.Target.Word
	t := time.AfterFunc(s.timings.Presentation, func() {
		if !s.generationIs(gen) {
			return
		}
		s.player.Play(context.Background(), word, s.sink, func() bool {
			return s.generationIs(gen)
		})
	})
	s.timers = append(s.timers, t)
}

func (s *Session) generationIs(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen == gen && !s.exited
}

// invalidateLocked bumps the generation counter and stops pending timers.
func (s *Session) invalidateLocked() {
	s.gen++
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

func (s *Session) broadcastLocked() {
	snapshot := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snapshot:
		default:
			// Drop the oldest pending snapshot so a slow client never
			// blocks the session.
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

func (s *Session) snapshotLocked() domain.SessionSnapshot {
	snapshot := domain.SessionSnapshot{
		SessionID:  s.id,
		Color:      s.color,
		StepIndex:  s.step,
		TotalSteps: len(s.queue),
		Score:      s.score,
		Combo:      s.combo,
		Selected:   s.selected,
		Answer:     s.answer,
		Complete:   s.complete,
	}
	if !s.complete && !s.exited {
		challenge := s.queue[s.step]
		snapshot.Challenge = &challenge
	}
	return snapshot
}
