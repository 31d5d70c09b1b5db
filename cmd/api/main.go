package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "estatehub/api/swagger" // swagger docs
	"estatehub/internal/cache"
	"estatehub/internal/config"
	"estatehub/internal/database"
	"estatehub/internal/handler"
	"estatehub/internal/locales"
	"estatehub/internal/logger"
	"estatehub/internal/middleware"
	"estatehub/internal/notify"
	"estatehub/internal/permission"
	"estatehub/internal/repository"
	"estatehub/internal/scheduler"
	"estatehub/internal/service"
	"estatehub/internal/storage"
	"estatehub/internal/validation"
	"estatehub/internal/websocket"

	"github.com/getsentry/sentry-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const principalCacheTTL = 5 * time.Minute

var log = logger.New("MAIN")

// @title           EstateHub API
// @version         1.0
// @description     Property listing review, admin permissions and viewing appointments.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Warn("No configs/.env file found or error loading it")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("invalid configuration", err)
		os.Exit(1)
	}
	gin.SetMode(cfg.Server.Mode)

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
		}); err != nil {
			log.Warn("sentry.Init: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	if err := locales.Init(cfg.Server.DefaultLocale); err != nil {
		log.Warn("i18n init failed: %v", err)
	}
	if err := validation.Register(); err != nil {
		log.Error("validator setup failed", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(ctx, cfg.Database)
	if err != nil {
		sentry.CaptureException(err)
		os.Exit(1)
	}
	log.Success("Connected to PostgreSQL successfully.")

	// Principal cache: Redis when configured so every instance sees invalidations
	var principals cache.PrincipalCache = cache.NewMemoryCache(principalCacheTTL)
	var redisOpt asynq.RedisClientOpt
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, using in-memory principal cache: %v", err)
		} else {
			principals = cache.NewRedisCache(rdb, principalCacheTTL)
		}
		redisOpt = asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)

	var publisher notify.Publisher = notify.NewHubPublisher(wsHub)
	if cfg.Notify.Driver == "queue" {
		queueClient := asynq.NewClient(redisOpt)
		defer queueClient.Close()
		worker := notify.NewWorker(redisOpt, cfg.Notify.Concurrency, publisher)
		if err := worker.Start(); err != nil {
			log.Error("notify worker failed to start", err)
			os.Exit(1)
		}
		defer worker.Shutdown()
		publisher = notify.NewQueuePublisher(queueClient)
	}

	var presigner service.Presigner
	if cfg.S3.Enabled {
		s3Store, err := storage.NewS3Storage(ctx, cfg.S3.BucketName, cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey)
		if err != nil {
			log.Warn("s3 storage disabled: %v", err)
		} else {
			presigner = s3Store
		}
	}

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	listingRepo := repository.NewListingRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)

	tokens := service.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AdminTTL, cfg.JWT.OwnerTTL)
	userService := service.NewUserService(userRepo, tokens)
	listingService := service.NewListingService(txManager, listingRepo, activityRepo, publisher)
	reviewService := service.NewReviewService(txManager, listingRepo, activityRepo, publisher)
	adminService := service.NewAdminService(txManager, adminRepo, sessionRepo, activityRepo, principals)
	authService := service.NewAuthService(txManager, adminRepo, sessionRepo, activityRepo, principals, tokens, cfg.Session.IdleTimeout)
	sessionService := service.NewSessionService(txManager, sessionRepo, activityRepo, publisher, cfg.Session.IdleTimeout)
	activityService := service.NewActivityService(activityRepo)
	appointmentService := service.NewAppointmentService(txManager, appointmentRepo, listingRepo, activityRepo, publisher)
	uploadService := service.NewUploadService(presigner, cfg.S3.PresignTTL)

	if err := adminService.EnsureSuperAdmin(ctx, cfg.Bootstrap.SuperAdminName, cfg.Bootstrap.SuperAdminEmail, cfg.Bootstrap.SuperAdminPassword); err != nil {
		log.Warn("super admin bootstrap failed: %v", err)
	}

	jobs := scheduler.New()
	if err := jobs.AddSessionSweep(cfg.Session.SweepSchedule, sessionService); err != nil {
		log.Error("scheduler setup failed", err)
		os.Exit(1)
	}
	jobs.Start()

	// Set up Gin Router
	router := gin.New()
	router.Use(gin.Logger(), middleware.Sentry())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "Accept-Language"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		status, code := "OK", http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status, code = "DEGRADED", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "wsClients": wsHub.ClientCount()})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, func(ctx context.Context, token string) (permission.Principal, uuid.UUID, error) {
			actor, err := authService.Authenticate(ctx, token)
			if err != nil {
				return permission.Principal{}, uuid.Nil, err
			}
			return actor.Principal, actor.SessionID, nil
		})
	})

	loginLimiter := middleware.NewIPRateLimiter(cfg.Session.LoginRate*60, cfg.Session.LoginBurst)
	guards := handler.Guards{
		Admin:    middleware.RequireAdmin(authService),
		Owner:    middleware.RequireOwner(userService),
		Throttle: loginLimiter.Middleware(),
	}

	// API Routing
	api := router.Group("/api")
	handler.NewAuthHandler(authService, cfg.JWT.AdminTTL, cfg.Server.SecureCookies).RegisterRoutes(api, guards)
	handler.NewReviewHandler(reviewService, listingService).RegisterRoutes(api, guards)
	handler.NewAdminHandler(adminService, sessionService, activityService).RegisterRoutes(api, guards)
	handler.NewListingHandler(listingService).RegisterRoutes(api, guards)
	handler.NewAppointmentHandler(appointmentService).RegisterRoutes(api, guards)
	handler.NewUserHandler(userService).RegisterRoutes(api, guards)
	handler.NewUploadHandler(uploadService).RegisterRoutes(api, guards)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("Server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown: %v", err)
	}
	jobs.Stop(shutdownCtx)
}
