package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIBasePath)
	assert.Equal(t, KVDriverSupabase, cfg.KVDriver)
	assert.Equal(t, BackendAuto, cfg.ActivityBackend)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.SeedOnStartup)
	assert.False(t, cfg.KafkaEnabled())
	assert.True(t, cfg.IsDevelopment())
}

func TestSeedOnStartupFollowsEnvironment(t *testing.T) {
	cases := []struct {
		name string
		env  string
		seed string
		want bool
	}{
		{"development default", "development", "", true},
		{"staging default", "staging", "", false},
		{"production default", "production", "", false},
		{"explicit on", "staging", "true", true},
		{"explicit off", "development", "false", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("SUPABASE_URL", "https://project.supabase.co")
			t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-key")
			t.Setenv("ENVIRONMENT", tc.env)
			if tc.seed != "" {
				t.Setenv("SEED_ON_STARTUP", tc.seed)
			}

			cfg, err := LoadConfig()
			require.NoError(t, err)
			assert.Equal(t, tc.want, cfg.SeedOnStartup)
		})
	}
}

func TestLoadConfigRequiresSupabase(t *testing.T) {
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestValidateDriverCombinations(t *testing.T) {
	base := func() *Config {
		return &Config{
			Environment:            "development",
			SupabaseURL:            "https://project.supabase.co",
			SupabaseServiceRoleKey: "key",
			KVDriver:               KVDriverSupabase,
			ActivityBackend:        BackendKV,
		}
	}

	cfg := base()
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.KVDriver = KVDriverRedis
	assert.Error(t, cfg.Validate())
	cfg.RedisAddr = "localhost:6379"
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.KVDriver = KVDriverMongo
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.ActivityBackend = BackendPostgres
	assert.Error(t, cfg.Validate())
	cfg.DatabaseURL = "postgres://localhost/mentorlink"
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.KVDriver = KVDriverMemory
	cfg.Environment = "production"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.ActivityBackend = "sqlite"
	assert.Error(t, cfg.Validate())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, splitList(" a:9092, ,b:9092 "))
	assert.Nil(t, splitList(""))
}
