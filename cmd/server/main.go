package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/charge0315/yt-orchestrator/internal/config"
	"github.com/charge0315/yt-orchestrator/internal/db"
	"github.com/charge0315/yt-orchestrator/internal/handler"
	"github.com/charge0315/yt-orchestrator/internal/middleware"
	"github.com/charge0315/yt-orchestrator/internal/quota"
	"github.com/charge0315/yt-orchestrator/internal/repository"
	"github.com/charge0315/yt-orchestrator/internal/router"
	"github.com/charge0315/yt-orchestrator/internal/service"
	"github.com/charge0315/yt-orchestrator/internal/suggest"
	"github.com/charge0315/yt-orchestrator/internal/youtube"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	middleware.InitLogger(cfg.LogLevel, "yt-orchestrator")
	log := middleware.Logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := db.Connect(ctx, cfg.MongoURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer client.Disconnect(context.Background())
	database := client.Database(cfg.MongoDB)

	channelRepo := repository.NewChannelRepo(database)
	playlistRepo := repository.NewPlaylistRepo(database)

	ledger := quota.NewLedger(cfg.QuotaBudget, cfg.QuotaWindow)
	ytClient := youtube.NewClient(cfg.YouTubeBaseURL, cfg.YouTubeAPIKey, cfg.CallTimeout)
	recCache := service.NewRecCache(cfg.RedisURL)
	defer recCache.Close()

	channelCache := service.NewChannelCache(channelRepo)
	channelSvc := service.NewChannelService(channelCache, ytClient, ledger, recCache)
	engine := service.NewSyncEngine(channelCache, ytClient, ledger, cfg.RefreshMaxAge, cfg.RefreshMaxConcurrent, cfg.CallTimeout)
	merger := service.NewPlaylistMerger(playlistRepo)

	var suggester service.Suggester
	if cfg.OpenAIAPIKey != "" {
		suggester = suggest.NewOpenAISuggester(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	} else {
		log.Info().Msg("no OpenAI key configured, using rule-based suggestions")
		suggester = suggest.NewRuleSuggester()
	}
	aggregator := service.NewRecommendationAggregator(suggester, channelCache, recCache, 10)

	handler.InitMetrics(ledger)

	h := &router.Handlers{
		Channel:        handler.NewChannelHandler(channelSvc, engine),
		Artist:         handler.NewArtistHandler(channelSvc),
		Playlist:       handler.NewPlaylistHandler(merger),
		Recommendation: handler.NewRecommendationHandler(aggregator),
		Search:         handler.NewSearchHandler(ytClient, ledger),
		Health:         handler.NewHealthHandler(client, recCache.Client()),
	}

	app := fiber.New(fiber.Config{
		AppName:      "YT Orchestrator API",
		ServerHeader: "yt-orchestrator",
	})
	router.Setup(app, h, cfg.CORSOrigins)

	if cfg.WorkerInterval > 0 {
		worker := service.NewRefreshWorker(channelRepo, engine, cfg.WorkerInterval)
		go worker.Start(ctx)
		defer worker.Stop()
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("backend starting")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
