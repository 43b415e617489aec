// Package statscore parses maintenance command flags and runs one action
// against the data stores: fetch a player, manage the cache, mint or resolve
// share tokens, or sweep expired ones.
package statscore

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/statsgames/statscore/internal/services/player"
	"github.com/statsgames/statscore/internal/services/share"
	"github.com/statsgames/statscore/internal/storage/kv/bbolt"
	"github.com/statsgames/statscore/internal/storage/sqlite"
)

// Config holds maintenance command configuration.
type Config struct {
	CacheDBPath   string        `env:"STATSCORE_CACHE_DB_PATH"`
	RecordsDBPath string        `env:"STATSCORE_RECORDS_DB_PATH"`
	Timeout       time.Duration `env:"STATSCORE_MAINTENANCE_TIMEOUT" envDefault:"1m"`

	FetchPlayerTag string
	ForceRefresh   bool
	ClearCache     bool
	Health         bool
	MintOwnerID    string
	MintTTL        time.Duration
	ResolveToken   string
	Sweep          bool
}

type envConfig struct {
	CacheDBPath   string        `env:"STATSCORE_CACHE_DB_PATH"`
	RecordsDBPath string        `env:"STATSCORE_RECORDS_DB_PATH"`
	Timeout       time.Duration `env:"STATSCORE_MAINTENANCE_TIMEOUT" envDefault:"1m"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var envCfg envConfig
	if err := env.Parse(&envCfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg := Config{
		CacheDBPath:   envCfg.CacheDBPath,
		RecordsDBPath: envCfg.RecordsDBPath,
		Timeout:       envCfg.Timeout,
	}
	if cfg.CacheDBPath == "" {
		cfg.CacheDBPath = filepath.Join("data", "statscore-cache.db")
	}
	if cfg.RecordsDBPath == "" {
		cfg.RecordsDBPath = filepath.Join("data", "statscore.db")
	}

	fs.StringVar(&cfg.FetchPlayerTag, "fetch-player", "", "fetch stats for a player tag")
	fs.BoolVar(&cfg.ForceRefresh, "force", false, "bypass the cache when fetching (requires -fetch-player)")
	fs.BoolVar(&cfg.ClearCache, "clear-cache", false, "drop every cached player entry")
	fs.BoolVar(&cfg.Health, "health", false, "check whether the upstream stats API is reachable")
	fs.StringVar(&cfg.MintOwnerID, "mint", "", "mint a share token for a user id")
	fs.DurationVar(&cfg.MintTTL, "ttl", 0, "share token lifetime (requires -mint; 0 = configured default)")
	fs.StringVar(&cfg.ResolveToken, "resolve", "", "resolve a share token to its profile and stats")
	fs.BoolVar(&cfg.Sweep, "sweep", false, "delete every expired share token")
	fs.StringVar(&cfg.CacheDBPath, "cache-db-path", cfg.CacheDBPath, "path to cache bbolt database (default: STATSCORE_CACHE_DB_PATH or data/statscore-cache.db)")
	fs.StringVar(&cfg.RecordsDBPath, "records-db-path", cfg.RecordsDBPath, "path to records sqlite database (default: STATSCORE_RECORDS_DB_PATH or data/statscore.db)")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateActions(cfg Config) error {
	actions := 0
	if cfg.FetchPlayerTag != "" {
		actions++
	}
	if cfg.ClearCache {
		actions++
	}
	if cfg.Health {
		actions++
	}
	if cfg.MintOwnerID != "" {
		actions++
	}
	if cfg.ResolveToken != "" {
		actions++
	}
	if cfg.Sweep {
		actions++
	}
	if actions == 0 {
		return errors.New("no action selected; pass one of -fetch-player, -clear-cache, -health, -mint, -resolve, -sweep")
	}
	if actions > 1 {
		return errors.New("actions cannot be combined; pass exactly one")
	}
	if cfg.ForceRefresh && cfg.FetchPlayerTag == "" {
		return errors.New("-force requires -fetch-player")
	}
	if cfg.MintTTL != 0 && cfg.MintOwnerID == "" {
		return errors.New("-ttl requires -mint")
	}
	return nil
}

type playerRunner interface {
	FetchPlayer(ctx context.Context, tag string, forceRefresh bool) (player.PlayerData, error)
	ClearCache(ctx context.Context)
	CheckUpstreamHealth(ctx context.Context) (bool, error)
}

type shareRunner interface {
	CreateToken(ctx context.Context, ownerID string, ttl time.Duration) (share.MintedToken, error)
	ResolveToken(ctx context.Context, token string) (share.SharedProfile, error)
	SweepExpired(ctx context.Context) (int64, error)
}

// Run executes the maintenance command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if err := validateActions(cfg); err != nil {
		return err
	}

	if cfg.FetchPlayerTag != "" || cfg.ClearCache || cfg.Health {
		svc, closeStore, err := openPlayerService(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := closeStore(); closeErr != nil {
				fmt.Fprintf(errOut, "Error: close cache store: %v\n", closeErr)
			}
		}()
		return runPlayerAction(ctx, cfg, svc, out)
	}

	svc, closeStore, err := openShareService(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeStore(); closeErr != nil {
			fmt.Fprintf(errOut, "Error: close record store: %v\n", closeErr)
		}
	}()
	return runShareAction(ctx, cfg, svc, out)
}

func openPlayerService(cfg Config) (*player.Service, func() error, error) {
	store, err := bbolt.Open(cfg.CacheDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache store: %w", err)
	}
	playerCfg := player.LoadConfigFromEnv()
	svc := player.NewService(
		player.NewClient(playerCfg, nil),
		player.NewCache(store, playerCfg.CacheTTL),
	)
	return svc, store.Close, nil
}

func openShareService(cfg Config) (*share.Service, func() error, error) {
	store, err := sqlite.Open(cfg.RecordsDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open record store: %w", err)
	}
	svc := share.NewService(store, store, store, share.LoadConfigFromEnv())
	return svc, store.Close, nil
}

func runPlayerAction(ctx context.Context, cfg Config, svc playerRunner, out io.Writer) error {
	switch {
	case cfg.FetchPlayerTag != "":
		result, err := svc.FetchPlayer(ctx, cfg.FetchPlayerTag, cfg.ForceRefresh)
		if err != nil {
			return err
		}
		source := "upstream"
		if result.Cached {
			source = "cache"
		}
		fmt.Fprintf(out, "player %s (%s):\n", cfg.FetchPlayerTag, source)
		return writeIndentedJSON(out, result.Data)
	case cfg.ClearCache:
		svc.ClearCache(ctx)
		fmt.Fprintln(out, "player cache cleared")
		return nil
	case cfg.Health:
		available, err := svc.CheckUpstreamHealth(ctx)
		if available {
			fmt.Fprintln(out, "upstream stats API: available")
			return nil
		}
		fmt.Fprintln(out, "upstream stats API: unavailable")
		return err
	}
	return errors.New("no player action selected")
}

func runShareAction(ctx context.Context, cfg Config, svc shareRunner, out io.Writer) error {
	switch {
	case cfg.MintOwnerID != "":
		minted, err := svc.CreateToken(ctx, cfg.MintOwnerID, cfg.MintTTL)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "token:     %s\n", minted.Token)
		fmt.Fprintf(out, "url:       %s\n", minted.URL)
		fmt.Fprintf(out, "expiresAt: %s\n", minted.ExpiresAt.Format(time.RFC3339))
		return nil
	case cfg.ResolveToken != "":
		shared, err := svc.ResolveToken(ctx, cfg.ResolveToken)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "profile: %s (%s)\n", shared.Profile.Username, shared.Profile.ID)
		for _, row := range shared.Stats {
			fmt.Fprintf(out, "  %s:\n", row.Game.Name)
			if err := writeIndentedJSON(out, row.Snapshot.Stats); err != nil {
				return err
			}
		}
		return nil
	case cfg.Sweep:
		deleted, err := svc.SweepExpired(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted %d expired share tokens\n", deleted)
		return nil
	}
	return errors.New("no share action selected")
}

func writeIndentedJSON(out io.Writer, payload json.RawMessage) error {
	encoded, err := json.MarshalIndent(json.RawMessage(payload), "  ", "  ")
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	fmt.Fprintf(out, "  %s\n", encoded)
	return nil
}
