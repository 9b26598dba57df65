package main

import (
	"bug_tracker/internal/api"      // Custom package for API handlers
	"bug_tracker/internal/config"   // Custom package for configuration
	"bug_tracker/internal/db"       // Database connection and migrations
	"bug_tracker/internal/realtime" // Realtime bridge
	"bug_tracker/internal/storage"  // Attachment object store
	"bug_tracker/internal/store"    // Store adapter
	"context"                       // context package is needed for Redis operations
	"errors"                        // Server close detection
	"net/http"                      // HTTP server
	"os"                            // Signal types
	"os/signal"                     // Signal notification
	"syscall"                       // SIGTERM
	"time"                          // Timeouts

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET must be set")
	}

	// Connect to the database and bring the schema up to date
	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("failed to migrate DB: %v", err)
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	defer redisClient.Close()

	// Test Redis connection
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	objects, err := storage.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		logrus.Fatalf("failed to prepare upload dir: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r := api.NewRouter(api.Deps{
		Store:          store.New(gdb, realtime.NewPublisher(redisClient)), // Writes publish change events
		Redis:          redisClient,                                        // List caches
		Bridge:         realtime.NewBridge(redisClient),                    // SSE relays
		Objects:        objects,                                            // Attachments
		JWTSecret:      cfg.JWTSecret,                                      // JWT secret key
		AllowedOrigins: cfg.AllowedOrigins,                                 // CORS allow list
	})

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logrus.Info("Server running on " + cfg.AppPort) // Log server start
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("server shutdown error: %v", err)
	}
	logrus.Info("Server stopped")
}
