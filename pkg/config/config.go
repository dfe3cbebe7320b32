package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "CARTSTATE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Env var names, exported so tests and deploy tooling reference one place.
const (
	EnvAppEnv       = "CARTSTATE_APP_ENV"
	EnvLogLevel     = "CARTSTATE_LOG_LEVEL"
	EnvLogWarnStack = "CARTSTATE_LOG_WARN_STACK"
	EnvCatalogPath  = "CARTSTATE_CATALOG_PATH"
	EnvSyncTimeout  = "CARTSTATE_SYNC_OP_TIMEOUT"
)

type Config struct {
	App     AppConfig
	Catalog CatalogConfig
	Sync    SyncConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Sync.OpTimeout <= 0 {
		return nil, fmt.Errorf("sync op timeout must be positive, got %v", cfg.Sync.OpTimeout)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CARTSTATE_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"CARTSTATE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CARTSTATE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// CatalogConfig points the demo backend at a product catalog JSON file.
// Empty means the built-in catalog.
type CatalogConfig struct {
	Path string `envconfig:"CARTSTATE_CATALOG_PATH"`
}

type SyncConfig struct {
	// OpTimeout bounds each backend round trip issued by the sync service.
	OpTimeout time.Duration `envconfig:"CARTSTATE_SYNC_OP_TIMEOUT" default:"10s"`
}
