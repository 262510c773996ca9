package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	KVDriverMemory   = "memory"
	KVDriverSupabase = "supabase"
	KVDriverRedis    = "redis"
	KVDriverMongo    = "mongo"

	BackendAuto      = "auto"
	BackendKV        = "kv"
	BackendPostgrest = "postgrest"
	BackendPostgres  = "postgres"
)

type Config struct {
	Port               string
	Environment        string
	LogLevel           string
	APIBasePath        string
	CORSAllowedOrigins []string

	SupabaseURL            string
	SupabaseServiceRoleKey string
	SupabaseJWKSURL        string
	SupabaseJWTSecret      string

	KVDriver      string
	KVTable       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	MongoDBURI    string
	MongoDBName   string
	DatabaseURL   string

	ActivityBackend string
	SeedOnStartup   bool

	KafkaBrokers []string
	KafkaTopic   string
}

// LoadConfig reads settings from the environment and an optional config.yaml.
// Environment variables win over the file.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Port:               v.GetString("PORT"),
		Environment:        v.GetString("ENVIRONMENT"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		APIBasePath:        v.GetString("API_BASE_PATH"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		SupabaseURL:            v.GetString("SUPABASE_URL"),
		SupabaseServiceRoleKey: v.GetString("SUPABASE_SERVICE_ROLE_KEY"),
		SupabaseJWKSURL:        v.GetString("SUPABASE_JWKS_URL"),
		SupabaseJWTSecret:      v.GetString("SUPABASE_JWT_SECRET"),

		KVDriver:      strings.ToLower(v.GetString("KV_DRIVER")),
		KVTable:       v.GetString("KV_TABLE"),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		MongoDBURI:    v.GetString("MONGODB_URI"),
		MongoDBName:   v.GetString("MONGODB_DATABASE"),
		DatabaseURL:   v.GetString("DATABASE_URL"),

		ActivityBackend: strings.ToLower(v.GetString("ACTIVITY_BACKEND")),
		SeedOnStartup:   seedOnStartup(v),

		KafkaBrokers: splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:   v.GetString("KAFKA_TOPIC"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("API_BASE_PATH", "/api/v1")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("KV_DRIVER", KVDriverSupabase)
	v.SetDefault("KV_TABLE", "kv_store")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MONGODB_DATABASE", "mentorlink")
	v.SetDefault("ACTIVITY_BACKEND", BackendAuto)
	v.SetDefault("KAFKA_TOPIC", "mentorlink.events")
}

// seedOnStartup honours an explicit SEED_ON_STARTUP and otherwise seeds only
// in development.
func seedOnStartup(v *viper.Viper) bool {
	if v.IsSet("SEED_ON_STARTUP") {
		return v.GetBool("SEED_ON_STARTUP")
	}
	return v.GetString("ENVIRONMENT") == "development"
}

// Validate rejects combinations that cannot be wired at startup.
func (c *Config) Validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceRoleKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_ROLE_KEY is required")
	}

	switch c.KVDriver {
	case KVDriverMemory, KVDriverSupabase:
	case KVDriverRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when KV_DRIVER=redis")
		}
	case KVDriverMongo:
		if c.MongoDBURI == "" {
			return fmt.Errorf("MONGODB_URI is required when KV_DRIVER=mongo")
		}
	default:
		return fmt.Errorf("unsupported KV_DRIVER %q", c.KVDriver)
	}

	switch c.ActivityBackend {
	case BackendAuto, BackendKV, BackendPostgrest:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when ACTIVITY_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unsupported ACTIVITY_BACKEND %q", c.ActivityBackend)
	}

	if c.KVDriver == KVDriverMemory && c.IsProduction() {
		return fmt.Errorf("KV_DRIVER=memory is not allowed in production")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// KafkaEnabled reports whether domain events should go to a broker.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
