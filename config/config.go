package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Data backends
const (
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Supabase  SupabaseConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Hooks     HooksConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
	Log       LogConfig

	// Backend selects where durable state lives: supabase, postgres or sqlite.
	Backend string `env:"DATA_BACKEND,default=sqlite"`

	// JWTSecret signs tokens issued by the local auth provider.
	JWTSecret string `env:"JWT_SECRET"`
}

type ServerConfig struct {
	Host            string        `env:"SERVER_HOST,default=0.0.0.0"`
	Port            string        `env:"SERVER_PORT,default=8080"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	AllowedOrigins  string        `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	LoginPath       string        `env:"LOGIN_PATH,default=/login"`
}

// Origins splits AllowedOrigins on commas.
func (s ServerConfig) Origins() []string {
	var origins []string
	for _, o := range strings.Split(s.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

type SupabaseConfig struct {
	URL        string `env:"SUPABASE_URL"`
	AnonKey    string `env:"SUPABASE_ANON_KEY"`
	ServiceKey string `env:"SUPABASE_SERVICE_KEY"`
	JWTSecret  string `env:"SUPABASE_JWT_SECRET"`
	Schema     string `env:"SUPABASE_SCHEMA,default=public"`
}

// RestURL is the PostgREST endpoint of the project.
func (s SupabaseConfig) RestURL() string { return strings.TrimRight(s.URL, "/") + "/rest/v1" }

// StorageURL is the storage API endpoint of the project.
func (s SupabaseConfig) StorageURL() string { return strings.TrimRight(s.URL, "/") + "/storage/v1" }

// AuthURL is the gotrue endpoint of the project.
func (s SupabaseConfig) AuthURL() string { return strings.TrimRight(s.URL, "/") + "/auth/v1" }

type DatabaseConfig struct {
	Host     string `env:"DB_HOST,default=localhost"`
	Port     string `env:"DB_PORT,default=5432"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME,default=chef_next_door"`
	SSLMode  string `env:"DB_SSL_MODE,default=disable"`
	// SQLitePath is used when the backend is sqlite.
	SQLitePath    string `env:"SQLITE_PATH,default=chef-next-door.db"`
	MigrationsDir string `env:"MIGRATIONS_DIR,default=migrations"`
}

// DSN returns the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	URL      string `env:"REDIS_URL"`
	Host     string `env:"REDIS_HOST"`
	Port     string `env:"REDIS_PORT,default=6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,default=0"`
}

// Enabled reports whether a redis server was configured.
func (r RedisConfig) Enabled() bool { return r.URL != "" || r.Host != "" }

type CacheConfig struct {
	// Store is memory or redis.
	Store              string        `env:"CACHE_STORE,default=memory"`
	Capacity           int           `env:"CACHE_CAPACITY,default=10000"`
	Shards             int           `env:"CACHE_SHARDS,default=64"`
	TTL                time.Duration `env:"CACHE_TTL,default=10m"`
	EvictionPercentage int           `env:"CACHE_EVICTION_PERCENTAGE,default=10"`
	RedisPrefix        string        `env:"CACHE_REDIS_PREFIX,default=cnd:cache:"`
}

type HooksConfig struct {
	DedupeInterval        time.Duration `env:"HOOKS_DEDUPE_INTERVAL,default=2s"`
	RetryCount            int           `env:"HOOKS_RETRY_COUNT,default=3"`
	RetryInterval         time.Duration `env:"HOOKS_RETRY_INTERVAL,default=1s"`
	RevalidateOnMount     bool          `env:"HOOKS_REVALIDATE_ON_MOUNT,default=true"`
	RevalidateOnReconnect bool          `env:"HOOKS_REVALIDATE_ON_RECONNECT,default=true"`
	RevalidateOnFocus     bool          `env:"HOOKS_REVALIDATE_ON_FOCUS,default=false"`
}

type StorageConfig struct {
	// Provider is supabase or s3.
	Provider      string `env:"STORAGE_PROVIDER,default=supabase"`
	Bucket        string `env:"STORAGE_BUCKET,default=chef-next-door-images"`
	Region        string `env:"AWS_REGION,default=us-east-1"`
	Endpoint      string `env:"S3_ENDPOINT"`
	PublicBaseURL string `env:"STORAGE_PUBLIC_BASE_URL"`
	MaxUploadMB   int    `env:"STORAGE_MAX_UPLOAD_MB,default=5"`
}

type RateLimitConfig struct {
	Enabled     bool          `env:"RATE_LIMIT_ENABLED,default=true"`
	Window      time.Duration `env:"RATE_LIMIT_WINDOW,default=1h"`
	CreateLimit int           `env:"RATE_LIMIT_CREATE,default=20"`
	ModifyLimit int           `env:"RATE_LIMIT_MODIFY,default=60"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL,default=info"`
	Format string `env:"LOG_FORMAT,default=text"`
}

// secretOverlays maps Docker secret names to the fields they override.
var secretOverlays = map[string]func(*Config) *string{
	"supabase_anon_key":    func(c *Config) *string { return &c.Supabase.AnonKey },
	"supabase_service_key": func(c *Config) *string { return &c.Supabase.ServiceKey },
	"supabase_jwt_secret":  func(c *Config) *string { return &c.Supabase.JWTSecret },
	"db_user":              func(c *Config) *string { return &c.Database.User },
	"db_password":          func(c *Config) *string { return &c.Database.Password },
	"redis_password":       func(c *Config) *string { return &c.Redis.Password },
	"redis_url":            func(c *Config) *string { return &c.Redis.URL },
	"jwt_secret":           func(c *Config) *string { return &c.JWTSecret },
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{}

	switch env {
	case CI:
		// CI supplies everything through the environment.
		if err := decodeEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to load CI configuration: %w", err)
		}
	case Development, Test:
		if err := loadDotEnv(); err != nil {
			return nil, fmt.Errorf("failed to load development configuration: %w", err)
		}
		if err := decodeEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to load development configuration: %w", err)
		}
		applySecrets(cfg)
	case Production:
		if err := decodeEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to load production configuration: %w", err)
		}
		applySecrets(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// TokenSecret returns the secret access tokens are verified with.
func (c *Config) TokenSecret() string {
	if c.Backend == BackendSupabase {
		return c.Supabase.JWTSecret
	}
	return c.JWTSecret
}

func decodeEnv(cfg *Config) error {
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return err
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	return nil
}

// loadDotEnv reads ENV_FILE (default .env) when it exists. Variables already
// present in the environment win.
func loadDotEnv() error {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

func applySecrets(cfg *Config) {
	for name, field := range secretOverlays {
		if value := readSecret(name); value != "" {
			*field(cfg) = value
		}
	}
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
