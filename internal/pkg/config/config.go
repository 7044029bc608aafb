package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Cache backends accepted by ROLE_CACHE_BACKEND.
const (
	CacheRedis  = "redis"
	CacheMongo  = "mongo"
	CacheMemory = "memory"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth    AuthConfig
	Profile ProfileAPIConfig
	Cache   CacheConfig
	Sync    SyncConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET, required"`
	Issuer    string `env:"AUTH_ISSUER"`
	Audience  string `env:"AUTH_AUDIENCE"`
}

type ProfileAPIConfig struct {
	BaseURL string        `env:"PROFILE_API_URL,     default=http://localhost:3001"`
	Path    string        `env:"PROFILE_API_PATH,    default=/api/profile"`
	Timeout time.Duration `env:"PROFILE_API_TIMEOUT, default=5s"`
}

type CacheConfig struct {
	Backend       string        `env:"ROLE_CACHE_BACKEND,         default=redis"`
	TTL           time.Duration `env:"ROLE_CACHE_TTL,             default=720h"`
	KeyPrefix     string        `env:"ROLE_CACHE_KEY_PREFIX,      default=dashboard:role:"`
	ClearOnLogout bool          `env:"ROLE_CACHE_CLEAR_ON_LOGOUT, default=false"`
}

// SyncConfig controls how selected roles are pushed to the profile API.
type SyncConfig struct {
	Async   bool `env:"SYNC_ASYNC,   default=true"`
	Workers int  `env:"SYNC_WORKERS, default=4"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=dashboard"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// IsDevelopment reports whether the service runs in a local environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate checks constraints envconfig tags cannot express.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheRedis, CacheMongo, CacheMemory:
	default:
		return fmt.Errorf("config: unknown ROLE_CACHE_BACKEND %q", c.Cache.Backend)
	}
	if c.Sync.Workers < 1 {
		return fmt.Errorf("config: SYNC_WORKERS must be at least 1, got %d", c.Sync.Workers)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("config: ROLE_CACHE_TTL must not be negative")
	}
	return nil
}

// LoadFrom reads configuration through lookuper and validates it.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}
