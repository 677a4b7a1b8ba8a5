// File: app/app.go
package app

import (
	"context"
	"database/sql"
	"go-ledger-api/config"
	"go-ledger-api/db"
	"go-ledger-api/handler"
	"go-ledger-api/logger"
	"go-ledger-api/repository"
	"go-ledger-api/router"
	"go-ledger-api/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
)

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Logger initialized")
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	redisClient, err := db.ConnectRedis()
	if err != nil {
		logger.Log.Fatalf("Error connecting to redis: %v", err)
	}
	defer redisClient.Close()

	r := wire(database, redisClient)

	// --- Start the Server with Graceful Shutdown ---
	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}

// wire builds every layer explicitly and hands the handlers to the router.
// No module-level singletons: tests construct their own instances.
func wire(database *sql.DB, redisClient *redis.Client) http.Handler {
	userRepo := repository.NewUserRepository(database)
	transactionRepo := repository.NewTransactionRepository(database)

	var cache service.ICacheClient
	if redisClient != nil {
		cache = redisClient
	}

	userService := service.NewUserService(database, userRepo, cache)
	transactionService := service.NewTransactionService(
		database, userRepo, transactionRepo, cache,
		config.AppConfig.Ledger.AutoApprovalThreshold,
	)

	userHandler := handler.NewUserHandler(userService)
	transactionHandler := handler.NewTransactionHandler(transactionService)

	return router.NewRouter(userHandler, transactionHandler)
}

// TestApp exposes the wired router and raw DB handle for integration tests.
type TestApp struct {
	DB     *sql.DB
	Router http.Handler
}

func NewTestApp(database *sql.DB, redisClient *redis.Client) *TestApp {
	return &TestApp{
		DB:     database,
		Router: wire(database, redisClient),
	}
}
