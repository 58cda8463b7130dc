package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	_ "github.com/redmonkez12/go-bookmark-api/docs" // Swagger docs (generated)
	"github.com/redmonkez12/go-bookmark-api/internal/auth"
	"github.com/redmonkez12/go-bookmark-api/internal/bookmark"
	"github.com/redmonkez12/go-bookmark-api/internal/config"
	"github.com/redmonkez12/go-bookmark-api/internal/database"
	httpServer "github.com/redmonkez12/go-bookmark-api/internal/http"
	"github.com/redmonkez12/go-bookmark-api/internal/logging"
	"github.com/redmonkez12/go-bookmark-api/internal/ratelimit"
	"github.com/redmonkez12/go-bookmark-api/internal/user"
)

// @title           Bookmark API
// @version         1.0
// @description     Bookmark manager REST API with bearer token authentication and per-user bookmarks.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:3333
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"token_format", cfg.Auth.TokenFormat,
	)

	ctx := context.Background()

	sqlDB, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer sqlDB.Close()

	if cfg.Database.RunMigrations {
		if err := database.Migrate(ctx, sqlDB, cfg.Database.MigrationsTable); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("migrations applied")
	}

	db := database.NewBunDB(sqlDB)

	var rateLimiter auth.RateLimiter = ratelimit.Noop{}
	if cfg.RateLimit.Enabled {
		redisClient, err := initRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()

		rateLimiter = ratelimit.NewLimiter(redisClient, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	}

	tokenService, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}
	hasher := auth.NewArgon2Hasher(cfg.Hash)

	userRepo := user.NewRepository(db)
	bookmarkRepo := bookmark.NewRepository(db)

	authService := auth.NewService(userRepo, hasher, tokenService, logger, cfg.Auth.AccessTokenDuration)

	router := httpServer.NewRouter(cfg, httpServer.Handlers{
		Auth:     auth.NewHandler(authService, rateLimiter, cfg.Server.TrustedProxies...),
		User:     user.NewHandler(user.NewService(userRepo)),
		Bookmark: bookmark.NewHandler(bookmark.NewService(bookmarkRepo)),
	}, auth.NewMiddleware(tokenService, userRepo), logger)

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
