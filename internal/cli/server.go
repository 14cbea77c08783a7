package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vocab-drill-service/internal/app"
	"vocab-drill-service/internal/audio"
	"vocab-drill-service/internal/config"
	"vocab-drill-service/internal/content"
	"vocab-drill-service/internal/domain"
	"vocab-drill-service/internal/infra/memory"
	pgloader "vocab-drill-service/internal/infra/postgres"
	redisinfra "vocab-drill-service/internal/infra/redis"
	"vocab-drill-service/internal/speech"
	transport "vocab-drill-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.LevelLoader = memory.NewStaticLevelLoader(sampleLevels())
	if pool != nil {
		loader = pgloader.NewLevelLoader(pool)
	}

	var generator content.Generator = content.NewStaticGenerator(sampleVocabulary())
	if cfg.Content.APIKey != "" {
		generator = content.NewOpenAIGenerator(cfg.Content.BaseURL, cfg.Content.APIKey, cfg.Content.Model)
	}

	vocabTTL := config.TTLDuration(cfg.Content.TTL, time.Hour)
	var levels app.LevelRepository
	if redisClient != nil {
		levels = redisinfra.NewLevelRepository(redisClient, loader, generator, vocabTTL)
	} else {
		levels = memory.NewLevelRepository(loader, generator, vocabTTL)
	}

	var synth audio.Synthesizer = speech.Disabled{}
	if cfg.Speech.APIKey != "" {
		synth = speech.NewGoogleClient(cfg.Speech.APIKey, cfg.Speech.Language)
	}

	var audioCache audio.Cache = memory.NewAudioCache()
	if redisClient != nil {
		audioCache = redisinfra.NewAudioCache(redisClient, redisTTL)
	}
	player := audio.NewCoordinator(audioCache, synth, logger)

	var store app.SessionRepository = memory.NewSessionStore()
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, redisTTL)
	}

	timings := app.Timings{
		Presentation: config.TTLDuration(cfg.Game.PresentationDelay, app.DefaultTimings().Presentation),
		Advance:      config.TTLDuration(cfg.Game.AdvanceDelay, app.DefaultTimings().Advance),
		Retry:        config.TTLDuration(cfg.Game.RetryDelay, app.DefaultTimings().Retry),
	}

	service := app.NewGameService(store, levels, player, timings, logger)
	wsHandler := transport.NewWSHandler(service, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeGame)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting vocab drill service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleLevels provides a minimal catalog for running without Postgres.
func sampleLevels() map[string]domain.Level {
	return map[string]domain.Level{
		"animals": {ID: "animals", Topic: "animals", Color: "#f59e0b"},
		"food":    {ID: "food", Topic: "food", Color: "#34d399"},
	}
}

// sampleVocabulary backs the static generator when no AI key is configured.
func sampleVocabulary() map[string][]domain.VocabularyItem {
	return map[string][]domain.VocabularyItem{
		"animals": {
			{Word: "猫", Translation: "cat", Pinyin: "māo", Emoji: "🐱"},
			{Word: "狗", Translation: "dog", Pinyin: "gǒu", Emoji: "🐶"},
			{Word: "鸟", Translation: "bird", Pinyin: "niǎo", Emoji: "🐦"},
			{Word: "鱼", Translation: "fish", Pinyin: "yú", Emoji: "🐟"},
			{Word: "马", Translation: "horse", Pinyin: "mǎ", Emoji: "🐴"},
			{Word: "兔子", Translation: "rabbit", Pinyin: "tùzi", Emoji: "🐰"},
		},
		"food": {
			{Word: "苹果", Translation: "apple", Pinyin: "píngguǒ", Emoji: "🍎"},
			{Word: "米饭", Translation: "rice", Pinyin: "mǐfàn", Emoji: "🍚"},
			{Word: "面条", Translation: "noodles", Pinyin: "miàntiáo", Emoji: "🍜"},
			{Word: "鸡蛋", Translation: "egg", Pinyin: "jīdàn", Emoji: "🥚"},
			{Word: "牛奶", Translation: "milk", Pinyin: "niúnǎi", Emoji: "🥛"},
			{Word: "香蕉", Translation: "banana", Pinyin: "xiāngjiāo", Emoji: "🍌"},
		},
	}
}
