// Command seed loads the example activity catalogue into an empty store and
// exits. It uses the same configuration as the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/joshua-takyi/mentorlink/internal/config"
	"github.com/joshua-takyi/mentorlink/internal/connect"
	"github.com/joshua-takyi/mentorlink/internal/container"
)

var errEphemeralStore = errors.New("KV_DRIVER=memory would seed a store that is gone when this command exits")

func main() {
	_ = godotenv.Load(".env.local")

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Seeding failed", "kv_driver", cfg.KVDriver, "error", err)
		os.Exit(1)
	}
}

// run returns instead of exiting so the deferred disconnects always happen.
func run(cfg *config.Config, logger *slog.Logger) error {
	if cfg.KVDriver == config.KVDriverMemory {
		return errEphemeralStore
	}
	// relational catalogues are managed by migrations
	cfg.ActivityBackend = config.BackendKV

	var (
		clients container.Clients
		err     error
	)
	if clients.Supabase, err = connect.InitSupabase(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey); err != nil {
		return err
	}
	defer connect.Disconnect()

	switch cfg.KVDriver {
	case config.KVDriverRedis:
		if clients.Redis, err = connect.RedisConnect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
			return err
		}
		defer func() {
			if err := connect.RedisDisconnect(); err != nil {
				logger.Warn("Redis disconnect failed", "error", err)
			}
		}()
	case config.KVDriverMongo:
		if clients.Mongo, err = connect.MongoDBConnect(cfg.MongoDBURI); err != nil {
			return err
		}
		defer func() {
			if err := connect.MongoDBDisconnect(); err != nil {
				logger.Warn("MongoDB disconnect failed", "error", err)
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := container.NewContainer(ctx, cfg, logger, clients)
	if err != nil {
		return fmt.Errorf("failed to build dependencies: %w", err)
	}
	defer c.Close()

	seeded, err := c.ActivityService.Seed(ctx)
	if err != nil {
		return err
	}
	logger.Info("Seed finished", "kv_driver", c.KV.Name(), "seeded", seeded)
	return nil
}
