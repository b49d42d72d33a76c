package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the loader at empty secret and dotenv locations.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CI", "false")
	t.Setenv("ENV", "test")
	t.Setenv("SECRETS_DIR", dir)
	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	return dir
}

func TestLoadConfigSQLiteDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORAGE_PROVIDER", "none")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "test-secret", cfg.TokenSecret())
	assert.Equal(t, "memory", cfg.Cache.Store)
	assert.Equal(t, 2*time.Second, cfg.Hooks.DedupeInterval)
	assert.Equal(t, 3, cfg.Hooks.RetryCount)
	assert.Equal(t, time.Second, cfg.Hooks.RetryInterval)
	assert.True(t, cfg.Hooks.RevalidateOnMount)
	assert.True(t, cfg.Hooks.RevalidateOnReconnect)
	assert.False(t, cfg.Hooks.RevalidateOnFocus)
	assert.Equal(t, "chef-next-door-images", cfg.Storage.Bucket)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.Origins())
}

func TestLoadConfigSupabaseSecrets(t *testing.T) {
	dir := isolate(t)
	t.Setenv("DATA_BACKEND", "supabase")
	t.Setenv("SUPABASE_URL", "https://abc.supabase.co/")
	t.Setenv("SUPABASE_ANON_KEY", "anon")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "supabase_jwt_secret"), []byte("from-secret\n"), 0o600))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "from-secret", cfg.Supabase.JWTSecret)
	assert.Equal(t, "from-secret", cfg.TokenSecret())
	assert.Equal(t, "https://abc.supabase.co/rest/v1", cfg.Supabase.RestURL())
	assert.Equal(t, "https://abc.supabase.co/storage/v1", cfg.Supabase.StorageURL())
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := isolate(t)
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("DATA_BACKEND=sqlite\nJWT_SECRET=dotenv-secret\nSTORAGE_PROVIDER=s3\n"), 0o600))
	t.Setenv("ENV_FILE", envFile)
	t.Cleanup(func() {
		os.Unsetenv("DATA_BACKEND")
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("STORAGE_PROVIDER")
	})

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "dotenv-secret", cfg.JWTSecret)
	assert.Equal(t, "s3", cfg.Storage.Provider)
}

func TestValidateConfig(t *testing.T) {
	isolate(t)

	t.Run("postgres requires credentials", func(t *testing.T) {
		cfg := &Config{Backend: BackendPostgres, Cache: CacheConfig{Store: "memory"}, Storage: StorageConfig{Provider: "s3"}}
		err := ValidateConfig(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DB_HOST")
		assert.Contains(t, err.Error(), "JWT_SECRET")
	})

	t.Run("redis cache needs redis", func(t *testing.T) {
		cfg := &Config{
			Backend:   BackendSQLite,
			JWTSecret: "x",
			Database:  DatabaseConfig{SQLitePath: "x.db"},
			Cache:     CacheConfig{Store: "redis"},
			Storage:   StorageConfig{Provider: "none"},
		}
		err := ValidateConfig(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CACHE_STORE=redis")
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := &Config{Backend: "mongo", Cache: CacheConfig{Store: "memory"}, Storage: StorageConfig{Provider: "none"}}
		assert.ErrorContains(t, ValidateConfig(cfg), "DATA_BACKEND")
	})

	t.Run("sqlite refused in production", func(t *testing.T) {
		t.Setenv("ENV", "production")
		cfg := &Config{
			Backend:   BackendSQLite,
			JWTSecret: "x",
			Database:  DatabaseConfig{SQLitePath: "x.db"},
			Cache:     CacheConfig{Store: "memory"},
			Storage:   StorageConfig{Provider: "none"},
		}
		assert.ErrorContains(t, ValidateConfig(cfg), "production")
	})
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("CI", "true")
	assert.Equal(t, CI, GetEnvironment())

	t.Setenv("CI", "")
	t.Setenv("ENV", "production")
	assert.True(t, IsProduction())

	t.Setenv("ENV", "")
	assert.True(t, IsDevelopment())
}
