package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// requirement names a setting and how to read it from a Config.
type requirement struct {
	name  string
	value func(*Config) string
}

var (
	// Backend-specific requirements
	requirements = map[string][]requirement{
		BackendSupabase: {
			{"SUPABASE_URL", func(c *Config) string { return c.Supabase.URL }},
			{"SUPABASE_ANON_KEY", func(c *Config) string { return c.Supabase.AnonKey }},
			{"SUPABASE_JWT_SECRET", func(c *Config) string { return c.Supabase.JWTSecret }},
		},
		BackendPostgres: {
			{"DB_HOST", func(c *Config) string { return c.Database.Host }},
			{"DB_PORT", func(c *Config) string { return c.Database.Port }},
			{"DB_USER", func(c *Config) string { return c.Database.User }},
			{"DB_PASSWORD", func(c *Config) string { return c.Database.Password }},
			{"DB_NAME", func(c *Config) string { return c.Database.Name }},
			{"JWT_SECRET", func(c *Config) string { return c.JWTSecret }},
		},
		BackendSQLite: {
			{"SQLITE_PATH", func(c *Config) string { return c.Database.SQLitePath }},
			{"JWT_SECRET", func(c *Config) string { return c.JWTSecret }},
		},
	}
)

// ValidateConfig checks if the configuration meets the requirements for the
// selected backend and the current environment
func ValidateConfig(cfg *Config) error {
	var errors []string

	reqs, ok := requirements[cfg.Backend]
	if !ok {
		errors = append(errors, fmt.Sprintf("DATA_BACKEND must be one of supabase, postgres, sqlite (got %q)", cfg.Backend))
	}
	for _, r := range reqs {
		if r.value(cfg) == "" {
			errors = append(errors, fmt.Sprintf("required setting %s is not set", r.name))
		}
	}

	switch cfg.Cache.Store {
	case "memory":
	case "redis":
		if !cfg.Redis.Enabled() {
			errors = append(errors, "CACHE_STORE=redis requires REDIS_URL or REDIS_HOST")
		}
	default:
		errors = append(errors, fmt.Sprintf("CACHE_STORE must be memory or redis (got %q)", cfg.Cache.Store))
	}

	switch cfg.Storage.Provider {
	case "supabase":
		if cfg.Supabase.URL == "" {
			errors = append(errors, "STORAGE_PROVIDER=supabase requires SUPABASE_URL")
		}
	case "s3":
	case "none":
	default:
		errors = append(errors, fmt.Sprintf("STORAGE_PROVIDER must be supabase, s3 or none (got %q)", cfg.Storage.Provider))
	}

	if cfg.Hooks.RetryCount < 0 {
		errors = append(errors, "HOOKS_RETRY_COUNT cannot be negative")
	}
	if cfg.Hooks.DedupeInterval < 0 {
		errors = append(errors, "HOOKS_DEDUPE_INTERVAL cannot be negative")
	}

	// Production must never fall back to the file backed database.
	if GetEnvironment() == Production && cfg.Backend == BackendSQLite {
		errors = append(errors, "sqlite backend is not allowed in production")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}
