package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamehub/internal/api/handlers"
	"gamehub/internal/avatar"
	"gamehub/internal/config"
	"gamehub/internal/jobs"
	"gamehub/internal/ledger"
	"gamehub/internal/mailer"
	"gamehub/internal/middleware"
	"gamehub/internal/ranking"
	"gamehub/internal/repository"
	"gamehub/internal/service"
	ws "gamehub/internal/websocket"
	"gamehub/internal/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initPostgres(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	log.Println("✓ Connected to PostgreSQL")

	redisClient, err := initRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("✓ Connected to Redis")

	postgresRepo := repository.NewPostgresRepository(db)
	redisRepo := repository.NewRedisRepository(redisClient)

	if err := postgresRepo.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("✓ Database migrations completed")

	// Core: ledger (system of record) + in-memory ranking index
	ledgerStore := ledger.New(db)
	index := ranking.NewIndex()

	leaderboardService := service.NewLeaderboardService(postgresRepo, ledgerStore, index, redisRepo)

	// Warm the index from the ledger before serving traffic
	warmCtx, warmCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := leaderboardService.WarmStart(warmCtx); err != nil {
		log.Fatalf("Failed to warm ranking index: %v", err)
	}
	warmCancel()

	// Outbound mail goes through the worker pool (non-blocking with
	// backpressure)
	mailPool := worker.NewWorkerPool(5, 500, mailer.New(cfg.SMTP))
	mailPool.Start()

	authService := service.NewAuthService(postgresRepo, mailPool, cfg.Auth)

	avatarStore, err := avatar.NewStore(cfg.Avatar)
	if err != nil {
		log.Fatalf("Failed to initialize avatar storage: %v", err)
	}
	userService := service.NewUserService(postgresRepo, leaderboardService, avatarStore)

	// WebSocket hub broadcasts per-game version changes
	hub := ws.NewHub(redisRepo, index)
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go hub.Run(hubCtx)

	// Reconciler repairs index drift from the ledger
	reconciler := jobs.NewReconciler(leaderboardService, cfg.Reconcile.Interval)
	reconCtx, reconCancel := context.WithCancel(context.Background())
	defer reconCancel()
	if err := reconciler.Start(reconCtx); err != nil {
		log.Fatalf("Failed to start reconciler: %v", err)
	}

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService, postgresRepo, redisRepo)

	app := fiber.New(fiber.Config{
		AppName:      "GameHub Backend",
		ErrorHandler: customErrorHandler,
		BodyLimit:    int(cfg.Avatar.MaxBytes) + 1<<20,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	requireAuth := middleware.RequireAuth(authService)

	api := app.Group("/api/v1")

	auth := api.Group("/auth", middleware.RateLimit(redisRepo, "auth", cfg.RateLimit))
	auth.Post("/register", authHandler.Register)
	auth.Post("/verify-email/:code", authHandler.VerifyEmail)
	auth.Post("/login", authHandler.Login)
	auth.Post("/password-reset", authHandler.RequestPasswordReset)
	auth.Post("/password-reset/confirm", authHandler.ResetPassword)

	users := api.Group("/users")
	users.Get("/me", requireAuth, userHandler.Me)
	users.Put("/me/avatar", requireAuth, userHandler.UpdateAvatar)
	users.Delete("/me/avatar", requireAuth, userHandler.RemoveAvatar)
	users.Get("/:username", userHandler.Profile)

	leaderboard := api.Group("/leaderboard")
	leaderboard.Post("/scores", requireAuth, middleware.RateLimit(redisRepo, "scores", cfg.RateLimit), leaderboardHandler.SubmitScore)
	leaderboard.Get("/:game_id", leaderboardHandler.GetLeaderboard)
	leaderboard.Get("/:game_id/rank", requireAuth, leaderboardHandler.GetUserRank)

	api.Get("/health", leaderboardHandler.HealthCheck)

	// Uploaded avatars
	app.Static(cfg.Avatar.PublicURL, avatarStore.Dir())

	// WebSocket route with upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", fiberws.New(func(c *fiberws.Conn) {
		ws.ServeWS(hub, c)
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "GameHub Backend API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/auth/register",
				"POST /api/v1/auth/login",
				"POST /api/v1/leaderboard/scores",
				"GET /api/v1/leaderboard/:game_id",
				"GET /api/v1/leaderboard/:game_id/rank",
				"GET /api/v1/users/me",
				"WS /ws (WebSocket)",
			},
			"websocket_clients": hub.GetClientCount(),
		})
	})

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("\n🛑 Shutting down server...")

		reconciler.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
		}

		log.Println("🔄 Flushing mail worker pool...")
		if err := mailPool.Shutdown(30 * time.Second); err != nil {
			log.Printf("Mail worker pool shutdown error: %v", err)
		}

		if err := postgresRepo.Close(); err != nil {
			log.Printf("Error closing PostgreSQL: %v", err)
		}
		if err := redisRepo.Close(); err != nil {
			log.Printf("Error closing Redis: %v", err)
		}

		log.Println("✓ Server shutdown complete")
	}()

	port := cfg.Server.Port
	log.Printf("🚀 Server starting on port %d...", port)
	if err := app.Listen(fmt.Sprintf(":%d", port)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// initPostgres initializes PostgreSQL connection with connection pooling
func initPostgres(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// initRedis initializes Redis connection with connection pooling
func initRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Username:     cfg.Redis.Username,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     20,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   "Request failed",
		"message": err.Error(),
	})
}
