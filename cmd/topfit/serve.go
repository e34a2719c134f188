package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/kentavrex/topfit/config"
	"github.com/kentavrex/topfit/internal/api"
	"github.com/kentavrex/topfit/internal/bot"
	"github.com/kentavrex/topfit/internal/conversation"
	"github.com/kentavrex/topfit/internal/database"
	"github.com/kentavrex/topfit/internal/middleware"
	"github.com/kentavrex/topfit/internal/repository"
	"github.com/kentavrex/topfit/internal/router"
	"github.com/kentavrex/topfit/internal/server"
	"github.com/kentavrex/topfit/internal/service"
	"github.com/kentavrex/topfit/internal/telegram"
	"github.com/kentavrex/topfit/internal/types"
	"github.com/kentavrex/topfit/migrations"
)

func newServeCmd(logger func() (*zap.Logger, error)) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot and the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logger()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, workers, log)
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 16, "updates handled concurrently")
	return cmd
}

// app holds the long-lived dependencies shared by the commands
type app struct {
	cfg   *config.Config
	loc   *time.Location
	db    *gorm.DB
	redis *redis.Client
	repo  repository.Repository
	users *service.UsersService
	stats *service.StatisticsService
}

func newApp(log *zap.Logger) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := database.New(cfg, log.Named("database"))
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(db, migrations.FS, log.Named("migrations")); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	rdb, err := database.NewRedisClient(cfg, log.Named("redis"))
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}

	repo := repository.NewGormRepository(db)
	return &app{
		cfg:   cfg,
		loc:   loc,
		db:    db,
		redis: rdb,
		repo:  repo,
		users: service.NewUsersService(repo, log),
		stats: service.NewStatisticsService(repo, loc),
	}, nil
}

func (a *app) Close() {
	_ = a.redis.Close()
	_ = database.Close(a.db)
}

func serve(ctx context.Context, workers int, log *zap.Logger) error {
	a, err := newApp(log)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	llm, err := service.NewLLMService(cfg, a.redis, log)
	if err != nil {
		return err
	}

	// A typed nil must not reach the interface
	var speech service.ISpeechService
	if s := service.NewSpeechService(cfg, a.redis, log); s != nil {
		speech = s
	} else {
		log.Warn("SALUTE_SPEECH_API_KEY is not set, voice input is disabled")
	}

	var s3Config *config.S3Config
	if cfg.S3Bucket != "" {
		if s3Config, err = config.NewS3Config(ctx, cfg); err != nil {
			return err
		}
	}
	images := service.NewImageService(s3Config, cfg.S3Endpoint, log)

	recognition := service.NewDishRecognitionService(a.repo, llm, speech, images, log)
	recommendations := service.NewRecommendationService(a.repo, llm, a.stats, log)
	reports := service.NewReportService(a.stats, a.users)

	var auth service.IAuthService
	if cfg.JWTSecret != "" {
		auth = service.NewAuthService(cfg.JWTSecret, cfg.JWTTTL)
	}

	transport, err := telegram.New(cfg.TelegramToken, telegram.Options{Workers: workers}, log)
	if err != nil {
		return err
	}

	recognitionLimit := middleware.NewRecognitionRateLimiter(a.redis, cfg.RecognitionLimit)
	recommendationLimit := middleware.NewRecommendationRateLimiter(a.redis, cfg.RecommendationLimit)

	handler := bot.New(transport, conversation.NewRedisStore(a.redis), bot.Services{
		Users:           a.users,
		Recognition:     recognition,
		Statistics:      a.stats,
		Recommendations: recommendations,
		Reports:         reports,
		Auth:            auth,
	}, bot.Options{
		AdminID:             cfg.AdminID,
		RecognitionLimit:    recognitionLimit,
		RecommendationLimit: recommendationLimit,
	}, log)

	handlers := router.Handlers{
		Health: api.NewHealthHandler(map[string]api.HealthCheck{
			"database": func(ctx context.Context) error { return database.HealthCheck(ctx, a.db) },
			"redis":    func(ctx context.Context) error { return a.redis.Ping(ctx).Err() },
		}, log.Named("health")),
		Nutrition: api.NewNutritionHandler(a.users, a.stats, reports, recommendations, a.loc, log.Named("api")),
		Admin:     api.NewAdminHandler(a.users, log.Named("api")),
		Limits: api.NewLimitsHandler(map[string]api.QuotaCounter{
			"recognition":    recognitionLimit,
			"recommendation": recommendationLimit,
		}, log.Named("api")),
	}
	if cfg.TelegramWebhookURL != "" {
		handlers.Webhook = api.NewWebhookHandler(transport, cfg.TelegramWebhookSecret, log.Named("webhook"))
	}

	// The API needs tokens to be useful; without a secret every request is refused
	validator := middleware.TokenValidator(rejectAll{})
	if auth != nil {
		validator = auth
	}
	engine := router.SetupRouter(handlers, router.Options{
		Auth:        validator,
		AdminID:     cfg.AdminID,
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   middleware.NewAPIRateLimiter(a.redis, cfg.APIRateLimit),
	}, log)
	srv := server.NewServer(net.JoinHostPort(cfg.ServerHost, cfg.ServerPort), engine, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return transport.Run(gctx, handler, cfg.TelegramWebhookURL, cfg.TelegramWebhookSecret)
	})
	g.Go(func() error {
		return srv.Run(gctx)
	})

	log.Info("topfit started")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("topfit stopped")
	return nil
}

type rejectAll struct{}

func (rejectAll) ValidateToken(string) (*types.TokenClaims, error) {
	return nil, service.ErrInvalidToken
}
