package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joshua-takyi/mentorlink/internal/config"
	"github.com/joshua-takyi/mentorlink/internal/events"
	"github.com/joshua-takyi/mentorlink/internal/helpers"
	"github.com/joshua-takyi/mentorlink/internal/kv"
	"github.com/joshua-takyi/mentorlink/internal/models"
	"github.com/joshua-takyi/mentorlink/internal/repository"
	"github.com/joshua-takyi/mentorlink/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

// Clients are the external connections opened by main. Any of them may be
// nil when the configuration does not call for it.
type Clients struct {
	Supabase *supabase.Client
	Mongo    *mongo.Client
	Redis    *redis.Client
	Postgres *pgxpool.Pool
}

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Logger    *slog.Logger
	KV        kv.Store
	Backend   repository.Backend
	Publisher events.Publisher
	Verifier  *helpers.TokenVerifier

	UserService     *services.UserService
	ProfileService  *services.ProfileService
	ActivityService *services.ActivityService
}

// NewContainer wires the stores, picks the activity backend and builds the
// services.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, clients Clients) (*Container, error) {
	store, err := newKVStore(cfg, clients)
	if err != nil {
		return nil, err
	}

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if verifier == nil {
		logger.Info("No local token verification configured, tokens are checked with the identity provider")
	}

	var relational repository.Backend
	switch {
	case cfg.ActivityBackend == config.BackendPostgrest && clients.Supabase != nil:
		relational = repository.NewPostgrestActivityStore(clients.Supabase, logger)
	case clients.Postgres != nil:
		relational = repository.NewPostgresActivityStore(clients.Postgres, logger)
	case clients.Supabase != nil:
		relational = repository.NewPostgrestActivityStore(clients.Supabase, logger)
	}

	backend, err := repository.SelectBackend(ctx, cfg.ActivityBackend, relational, repository.NewKVActivityStore(store, logger), logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Activity backend selected", "backend", backend.Name(), "kv_driver", store.Name())

	var publisher events.Publisher = events.NewLogPublisher(logger)
	if cfg.KafkaEnabled() {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		logger.Info("Publishing domain events to Kafka", "topic", cfg.KafkaTopic)
	}

	identity := repository.NewSupabaseIdentity(clients.Supabase, cfg.SupabaseServiceRoleKey, verifier, store, logger)
	return New(cfg, logger, store, backend, identity, publisher, verifier), nil
}

// New assembles the services from already built dependencies.
func New(cfg *config.Config, logger *slog.Logger, store kv.Store, backend repository.Backend, identity models.IdentityProvider, publisher events.Publisher, verifier *helpers.TokenVerifier) *Container {
	return &Container{
		Config:          cfg,
		Logger:          logger,
		KV:              store,
		Backend:         backend,
		Publisher:       publisher,
		Verifier:        verifier,
		UserService:     services.NewUserService(identity, repository.NewKVMentorRepo(store), backend, publisher, logger),
		ProfileService:  services.NewProfileService(repository.NewKVProfileRepo(store), logger),
		ActivityService: services.NewActivityService(backend, publisher, logger),
	}
}

// Close releases resources owned by the container. Connections in Clients
// are closed by whoever opened them.
func (c *Container) Close() error {
	if c.Verifier != nil {
		c.Verifier.Close()
	}
	return c.Publisher.Close()
}

func newKVStore(cfg *config.Config, clients Clients) (kv.Store, error) {
	switch cfg.KVDriver {
	case config.KVDriverMemory:
		return kv.NewMemoryStore(), nil
	case config.KVDriverRedis:
		if clients.Redis == nil {
			return nil, fmt.Errorf("KV_DRIVER=redis but no Redis client was opened")
		}
		return kv.NewRedisStore(clients.Redis, "mentorlink:"), nil
	case config.KVDriverMongo:
		if clients.Mongo == nil {
			return nil, fmt.Errorf("KV_DRIVER=mongo but no MongoDB client was opened")
		}
		return kv.NewMongoStore(clients.Mongo.Database(cfg.MongoDBName)), nil
	case config.KVDriverSupabase:
		if clients.Supabase == nil {
			return nil, fmt.Errorf("KV_DRIVER=supabase but no Supabase client was opened")
		}
		return kv.NewSupabaseStore(clients.Supabase, cfg.KVTable), nil
	default:
		return nil, fmt.Errorf("unsupported KV_DRIVER %q", cfg.KVDriver)
	}
}

func newVerifier(ctx context.Context, cfg *config.Config) (*helpers.TokenVerifier, error) {
	switch {
	case cfg.SupabaseJWKSURL != "":
		return helpers.NewJWKSVerifier(ctx, cfg.SupabaseJWKSURL)
	case cfg.SupabaseJWTSecret != "":
		return helpers.NewSecretVerifier(cfg.SupabaseJWTSecret), nil
	default:
		return nil, nil
	}
}
