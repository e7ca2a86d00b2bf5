// Package config loads parkspot settings from the environment. A .env file
// in the working directory is read first when present.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/kamikazebr/parkspot/internal/localstore"
	"github.com/kamikazebr/parkspot/internal/validation"
)

type Config struct {
	Env      string `env:"PARKSPOT_ENV, default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	// LogPretty switches to console output for humans
	LogPretty bool `env:"LOG_PRETTY, default=false"`

	// DataDir holds the file-backed local store, ~/.parkspot when empty
	DataDir      string        `env:"PARKSPOT_DATA_DIR"`
	StoreTimeout time.Duration `env:"PARKSPOT_STORE_TIMEOUT, default=10s" validate:"gt=0"`
	// FeedCoalesce merges live-feed bursts inside this window, 0 disables
	FeedCoalesce time.Duration `env:"PARKSPOT_FEED_COALESCE, default=0s" validate:"gte=0"`

	Remote   RemoteConfig
	Local    LocalConfig
	API      APIConfig
	Location LocationConfig
}

type RemoteConfig struct {
	Backend string `env:"PARKSPOT_REMOTE, default=firestore" validate:"oneof=firestore mongo postgres memory"`

	// Firestore
	FirebaseCredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH"`
	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`

	// MongoDB
	MongoURI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DB, default=parkspot"`

	// PostgreSQL
	DatabaseURL string `env:"DATABASE_URL"`
}

type LocalConfig struct {
	Backend     string `env:"PARKSPOT_LOCAL, default=file" validate:"oneof=file redis"`
	RedisAddr   string `env:"REDIS_ADDR, default=localhost:6379"`
	RedisDB     int    `env:"REDIS_DB, default=0"`
	RedisPrefix string `env:"REDIS_PREFIX, default=parkspot:"`
}

type APIConfig struct {
	Host string `env:"API_HOST, default=0.0.0.0"`
	Port int    `env:"API_PORT, default=8080" validate:"gt=0,lt=65536"`
}

// Addr is the listen address for the HTTP server
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LocationConfig is the fixed device position. Leaving both unset behaves
// like a device that refused location access.
type LocationConfig struct {
	Latitude  string `env:"PARKSPOT_LAT"`
	Longitude string `env:"PARKSPOT_LON"`
}

// Load reads .env (if any) and the process environment
func Load(ctx context.Context) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	return process(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration from vars only, ignoring the environment
func LoadFrom(ctx context.Context, vars map[string]string) (*Config, error) {
	return process(ctx, envconfig.MapLookuper(vars))
}

func process(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if cfg.DataDir == "" {
		dir, err := localstore.DefaultDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dir
	}

	if err := validation.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
