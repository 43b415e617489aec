// Package player fetches player statistics from the upstream stats API
// through a read-through, TTL-bounded cache.
package player

import (
	"time"

	"github.com/statsgames/statscore/internal/platform/config"
)

// DefaultCacheTTL bounds how long a cached upstream response stays valid.
const DefaultCacheTTL = 5 * time.Minute

// Config controls how the player service reaches the upstream stats API and
// how long cached responses live.
type Config struct {
	BaseURL  string        `env:"STATSCORE_UPSTREAM_BASE_URL" envDefault:"https://stats-games-api-backend.vercel.app"`
	CacheTTL time.Duration `env:"STATSCORE_CACHE_TTL"         envDefault:"5m"`
}

// LoadConfigFromEnv loads player configuration and applies defensive defaults.
//
// The upstream API is rate limited, so the cache TTL must stay predictable
// even when the environment is misconfigured.
func LoadConfigFromEnv() Config {
	var cfg Config
	_ = config.ParseEnv(&cfg)
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://stats-games-api-backend.vercel.app"
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	return cfg
}
