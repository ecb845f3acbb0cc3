package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bread-daily-service/config"
	"bread-daily-service/handlers"
	"bread-daily-service/middleware"
	"bread-daily-service/models"
	"bread-daily-service/services"
	"bread-daily-service/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(logger)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func newContentGenerator(ctx context.Context, cfg *config.Config) services.ContentGenerator {
	if cfg.GeminiAPIKey == "" {
		logger.Warn("⚠️  GEMINI_API_KEY not set: moderation lets posts through, mood verses are unavailable")
		return services.OfflineGenerator{}
	}
	gen, err := services.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Error("failed to initialize Gemini client, running offline", zap.Error(err))
		return services.OfflineGenerator{}
	}
	return gen
}

func serve(ctx context.Context, cfg *config.Config) error {
	kv, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer kv.Close()

	seed, err := models.LoadSeedContent()
	if err != nil {
		return err
	}

	progress := services.NewProgressStore(ctx, kv, services.DefaultLevelResolver(), logger)
	prefs := services.NewPreferenceStore(kv, logger)
	badges := services.NewBadgeService(models.MilestoneBadges, logger)

	gen := newContentGenerator(ctx, cfg)
	moderation := services.NewModerationGateway(gen, cfg.GatewayTimeout, logger)
	scripture := services.NewScriptureGateway(gen, cfg.GatewayTimeout, logger)
	board := services.NewVerseBoard(scripture, progress, seed, logger)

	limiter, err := services.NewCooldownLimiter(cfg.CommunityCooldown, services.WithLimiterLogger(logger))
	if err != nil {
		return err
	}
	defer limiter.Close()
	feed := services.NewCommunityFeed(moderation, limiter, seed.Posts, services.WithFeedLogger(logger))

	throttle := middleware.NewThrottle(float64(cfg.RequestsPerSecond), cfg.RequestBurst, logger)
	go workers.PollPrune(ctx, throttle, 10*time.Minute, 10000, logger)

	app := fiber.New(fiber.Config{
		AppName:               "bread-daily",
		BodyLimit:             64 * 1024,
		DisableStartupMessage: true,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Cache-Control, " + middleware.ActorHeader,
		MaxAge:       86400,
	}))
	app.Use(throttle.Handler())
	app.Use(middleware.ActorContextMiddleware(logger))

	handlers.SetupProgressionRoutes(app, progress, badges, prefs)
	handlers.SetupScriptureRoutes(app, board)
	handlers.SetupCommunityRoutes(app, feed, limiter, logger)
	handlers.SetupMetricsRoutes(app)

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(":" + cfg.Port)
	}()

	logger.Info(fmt.Sprintf("✅ Server running on http://localhost:%s", cfg.Port))
	logger.Info("✅ Store ready", zap.String("driver", cfg.StoreDriver))
	logger.Info("✅ Community cooldown ticking", zap.Duration("window", cfg.CommunityCooldown))
	logger.Info("✅ CORS configured", zap.Strings("origins", cfg.AllowedOrigins))

	select {
	case err := <-listenErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	return app.ShutdownWithTimeout(5 * time.Second)
}
