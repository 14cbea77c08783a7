package app

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vocab-drill-service/internal/domain"
)

// SessionRepository abstracts how live game sessions are tracked
// (in-memory, Redis-marked, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// LevelRepository resolves a level ID to its definition with a playable
// vocabulary list (pre-authored or generated, cached either way).
type LevelRepository interface {
	GetLevel(ctx context.Context, levelID string) (domain.Level, error)
}

// GameService contains the drill-game use cases.
type GameService struct {
	sessions SessionRepository
	levels   LevelRepository
	player   Player
	timings  Timings
	logger   *zap.Logger
	newRand  func() *rand.Rand
}

func NewGameService(sessions SessionRepository, levels LevelRepository, player Player, timings Timings, logger *zap.Logger) *GameService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GameService{
		sessions: sessions,
		levels:   levels,
		player:   player,
		timings:  timings,
		logger:   logger,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// StartSession loads the level's vocabulary, builds the challenge queue, and
// registers a new session. The session is created but not started; call
// Start on it once snapshot delivery is wired up. A short, empty, or
// duplicate-ridden vocabulary list fails here and no session state is
// created.
func (s *GameService) StartSession(ctx context.Context, levelID string, sink Sink, hooks Hooks) (*Session, error) {
	level, err := s.levels.GetLevel(ctx, levelID)
	if err != nil {
		return nil, err
	}

	queue, err := BuildQueue(s.newRand(), level.Items)
	if err != nil {
		return nil, err
	}

	session := NewSession(uuid.NewString(), level.Color, queue, s.timings, s.player, sink, hooks)
	s.sessions.Put(session)
	s.logger.Info("session started",
		zap.String("sessionId", session.ID()),
		zap.String("levelId", levelID),
		zap.Int("steps", len(queue)),
	)
	return session, nil
}

// SubmitAnswer records an answer for the session's current step. ok=false
// means the submission was ignored by a state-machine guard, not an error.
func (s *GameService) SubmitAnswer(sessionID, word string) (domain.AnswerOutcome, bool, error) {
	session, found := s.sessions.Get(sessionID)
	if !found {
		return domain.AnswerOutcome{}, false, domain.ErrSessionNotFound
	}
	outcome, ok := session.SubmitAnswer(word)
	return outcome, ok, nil
}

// Advance moves the session past an unscored step.
func (s *GameService) Advance(sessionID string) error {
	session, found := s.sessions.Get(sessionID)
	if !found {
		return domain.ErrSessionNotFound
	}
	session.Advance()
	return nil
}

// Subscribe returns a channel that receives state snapshots for a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *GameService) Subscribe(sessionID string) (<-chan domain.SessionSnapshot, func(), error) {
	session, found := s.sessions.Get(sessionID)
	if !found {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// EndSession tears the session down and removes it from the store. It is
// safe to call for unknown or already-ended sessions.
func (s *GameService) EndSession(sessionID string) {
	session, found := s.sessions.Get(sessionID)
	if !found {
		return
	}
	session.Exit()
	s.sessions.Delete(sessionID)
	s.logger.Info("session ended", zap.String("sessionId", sessionID))
}
