package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/joshua-takyi/mentorlink/internal/config"
	"github.com/joshua-takyi/mentorlink/internal/connect"
	"github.com/joshua-takyi/mentorlink/internal/container"
	"github.com/joshua-takyi/mentorlink/internal/observability"
	"github.com/joshua-takyi/mentorlink/internal/routes"
)

func main() {
	// Load environment variables
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	logger.Info("Starting MentorLink API server", "environment", cfg.Environment)

	clients, err := openClients(cfg, logger)
	if err != nil {
		logger.Error("Failed to connect", "error", err)
		os.Exit(1)
	}

	appContainer, err := container.NewContainer(context.Background(), cfg, logger, clients)
	if err != nil {
		logger.Error("Failed to build dependencies", "error", err)
		os.Exit(1)
	}
	observability.SetBackend(appContainer.Backend.Name(), appContainer.KV.Name())

	if cfg.SeedOnStartup {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if _, err := appContainer.ActivityService.Seed(ctx); err != nil {
			logger.Warn("Seeding example activities failed", "error", err)
		}
		cancel()
	}

	router := routes.SetupRoutes(appContainer)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	if err := appContainer.Close(); err != nil {
		logger.Error("Error closing event publisher", "error", err)
	}
	closeClients(logger)

	logger.Info("Server exited")
}

// openClients connects only what the configuration asks for.
func openClients(cfg *config.Config, logger *slog.Logger) (container.Clients, error) {
	var clients container.Clients

	supa, err := connect.InitSupabase(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey)
	if err != nil {
		return clients, err
	}
	clients.Supabase = supa
	logger.Info("Connected to Supabase successfully")

	switch cfg.KVDriver {
	case config.KVDriverRedis:
		if clients.Redis, err = connect.RedisConnect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
			return clients, err
		}
		logger.Info("Connected to Redis successfully")
	case config.KVDriverMongo:
		if clients.Mongo, err = connect.MongoDBConnect(cfg.MongoDBURI); err != nil {
			return clients, err
		}
		logger.Info("Connected to MongoDB successfully")
	}

	if cfg.DatabaseURL != "" && cfg.ActivityBackend != config.BackendKV && cfg.ActivityBackend != config.BackendPostgrest {
		pool, err := connect.PostgresConnect(cfg.DatabaseURL)
		switch {
		case err == nil:
			clients.Postgres = pool
			logger.Info("Connected to Postgres successfully")
		case cfg.ActivityBackend == config.BackendPostgres:
			return clients, err
		default:
			logger.Warn("Postgres unreachable, trying the hosted REST backend", "error", err)
		}
	}
	return clients, nil
}

func closeClients(logger *slog.Logger) {
	connect.Disconnect()
	connect.PostgresDisconnect()
	if err := connect.RedisDisconnect(); err != nil {
		logger.Error("Error disconnecting from Redis", "error", err)
	}
	if err := connect.MongoDBDisconnect(); err != nil {
		logger.Error("Error disconnecting from MongoDB", "error", err)
	}
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel(cfg.LogLevel, slog.LevelInfo),
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	return slog.New(handler)
}

func logLevel(raw string, fallback slog.Level) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		return fallback
	}
	return lvl
}
