// Package commands implements CLI command handlers for luapack.
package commands

import (
	"log/slog"
	"os"

	"github.com/Sumatoshi-tech/luapack/internal/config"
	"github.com/Sumatoshi-tech/luapack/internal/engine"
)

// loadConfig loads the effective configuration for a command run.
func loadConfig(configPath string) (*config.Config, error) {
	return config.LoadConfig(configPath)
}

// newLogger builds the CLI logger on stderr. Verbose lowers the level
// from warn to info so traversal progress becomes visible.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newRegistry builds the engine registry, merging the user manifest from
// config when one is set.
func newRegistry(cfg *config.Config) (*engine.Registry, error) {
	reg := engine.NewRegistry()

	if cfg.Engines.Manifest != "" {
		err := reg.LoadManifest(cfg.Engines.Manifest)
		if err != nil {
			return nil, err
		}
	}

	return reg, nil
}
