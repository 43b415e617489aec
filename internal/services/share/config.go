package share

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultTokenTTL bounds how long a share token stays resolvable when the
// caller does not ask for a specific lifetime.
const DefaultTokenTTL = 15 * time.Minute

const defaultBaseURL = "https://statsgames.app"

// Config controls share link construction and token lifetime.
//
// These values are read at startup so operator-controlled defaults can be
// tuned without changing runtime code paths.
type Config struct {
	BaseURL string        `env:"STATSCORE_SHARE_BASE_URL" envDefault:"https://statsgames.app"`
	TTL     time.Duration `env:"STATSCORE_SHARE_TTL"      envDefault:"15m"`
}

// LoadConfigFromEnv loads share configuration and applies defensive defaults.
//
// Defaults are intentionally explicit because share tokens gate access to
// profile data and should remain predictable in local and CI environments.
func LoadConfigFromEnv() Config {
	var cfg Config
	_ = env.Parse(&cfg)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTokenTTL
	}
	return cfg
}
