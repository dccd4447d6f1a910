package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/memostream/memostream-api/api/swagger"
	"github.com/memostream/memostream-api/internal/handler"
	"github.com/memostream/memostream-api/internal/middleware"
	"github.com/memostream/memostream-api/internal/repository"
	"github.com/memostream/memostream-api/internal/service"
	"github.com/memostream/memostream-api/pkg/cache"
	"github.com/memostream/memostream-api/pkg/config"
	"github.com/memostream/memostream-api/pkg/database"
	"github.com/memostream/memostream-api/pkg/logger"
	"github.com/memostream/memostream-api/pkg/mail"
	corsmiddleware "github.com/memostream/memostream-api/pkg/middleware/cors"
	reqidmiddleware "github.com/memostream/memostream-api/pkg/middleware/requestid"
)

// @title Memostream API
// @version 1.0.0
// @description Internal memo distribution service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, field cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	memoRepo := repository.NewMemoRepository(db)
	fieldRepo := repository.NewFieldRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	var mailer mail.Mailer
	if cfg.SMTP.Enabled {
		mailer = mail.NewSMTPMailer(cfg.SMTP)
	}

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "memostream-api",
	})
	fieldService := service.NewFieldService(fieldRepo, cacheRepo, cfg.Fields.CacheTTL, validate, logr)
	notifier := service.NewNotificationService(mailer, logr)
	notifier.Start(context.Background())
	defer notifier.Stop()
	memoService := service.NewMemoService(memoRepo, userRepo, fieldService, notifier, userRepo, validate, logr)
	userService := service.NewUserService(userRepo, validate, logr)
	statsService := service.NewStatsService(memoRepo, logr)
	exportService := service.NewExportService(memoRepo, userRepo, logr)
	paraphraseService := service.NewParaphraseService(cfg.Paraphrase, logr)
	metricsService := service.NewMetricsService()
	fieldService.SetMetrics(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Dependencies{
		Auth:        handler.NewAuthHandler(authService),
		Users:       handler.NewUserHandler(userService),
		Fields:      handler.NewFieldHandler(fieldService),
		Memos:       handler.NewMemoHandler(memoService, exportService, metricsService),
		Stats:       handler.NewStatsHandler(statsService),
		Paraphrase:  handler.NewParaphraseHandler(paraphraseService),
		Metrics:     handler.NewMetricsHandler(metricsService),
		AuthService: authService,
		UserRepo:    userRepo,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
