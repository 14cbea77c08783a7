package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocab-drill-service/internal/app"
	"vocab-drill-service/internal/content"
	"vocab-drill-service/internal/domain"
	"vocab-drill-service/internal/infra/memory"
)

func newTestService(t *testing.T) *app.GameService {
	t.Helper()
	loader := memory.NewStaticLevelLoader(map[string]domain.Level{
		"animals": {ID: "animals", Topic: "animals", Color: "#f59e0b"},
		"tiny":    {ID: "tiny", Topic: "tiny", Color: "#000"},
	})
	generator := content.NewStaticGenerator(map[string][]domain.VocabularyItem{
		"animals": {
			{Word: "猫", Translation: "cat"},
			{Word: "狗", Translation: "dog"},
			{Word: "鸟", Translation: "bird"},
			{Word: "鱼", Translation: "fish"},
		},
		"tiny": {
			{Word: "一", Translation: "one"},
			{Word: "二", Translation: "two"},
		},
	})
	levels := memory.NewLevelRepository(loader, generator, time.Minute)
	return app.NewGameService(memory.NewSessionStore(), levels, nil, testTimings, nil)
}

func TestStartSessionBuildsQueue(t *testing.T) {
	service := newTestService(t)

	session, err := service.StartSession(context.Background(), "animals", nil, app.Hooks{})
	require.NoError(t, err)
	defer service.EndSession(session.ID())

	snap := session.Snapshot()
	assert.Equal(t, 12, snap.TotalSteps)
	assert.Equal(t, "#f59e0b", snap.Color)
	assert.Equal(t, 0, snap.StepIndex)
}

func TestStartSessionRejectsShortVocabulary(t *testing.T) {
	service := newTestService(t)

	_, err := service.StartSession(context.Background(), "tiny", nil, app.Hooks{})
	assert.ErrorIs(t, err, domain.ErrInsufficientItems)
}

func TestStartSessionUnknownLevel(t *testing.T) {
	service := newTestService(t)

	_, err := service.StartSession(context.Background(), "missing", nil, app.Hooks{})
	assert.ErrorIs(t, err, domain.ErrLevelNotFound)
}

func TestServiceAnswerFlow(t *testing.T) {
	service := newTestService(t)

	session, err := service.StartSession(context.Background(), "animals", nil, app.Hooks{})
	require.NoError(t, err)
	defer service.EndSession(session.ID())

	updates, cancel, err := service.Subscribe(session.ID())
	require.NoError(t, err)
	defer cancel()
	<-updates // initial snapshot

	session.Start()
	<-updates

	// Step 0 is a learn step; advance to the first scored step.
	require.NoError(t, service.Advance(session.ID()))
	update := <-updates
	require.NotNil(t, update.Challenge)
	require.Equal(t, domain.ChallengeListenFind, update.Challenge.Type)

	outcome, ok, err := service.SubmitAnswer(session.ID(), update.Challenge.Target.Word)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, outcome.Correct)
	assert.Equal(t, 10, outcome.Score)
}

func TestServiceUnknownSession(t *testing.T) {
	service := newTestService(t)

	_, _, err := service.SubmitAnswer("nope", "word")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, service.Advance("nope"), domain.ErrSessionNotFound)
	_, _, err = service.Subscribe("nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEndSessionRemovesSession(t *testing.T) {
	service := newTestService(t)

	session, err := service.StartSession(context.Background(), "animals", nil, app.Hooks{})
	require.NoError(t, err)

	service.EndSession(session.ID())
	assert.ErrorIs(t, service.Advance(session.ID()), domain.ErrSessionNotFound)
	service.EndSession(session.ID()) // safe to repeat
}
