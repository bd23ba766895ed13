package config

import "errors"

// Config is the top-level configuration struct for luapack.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Build    BuildConfig    `mapstructure:"build"`
	Engines  EnginesConfig  `mapstructure:"engines"`
}

// AnalysisConfig holds dependency traversal knobs.
type AnalysisConfig struct {
	MaxDependencies int      `mapstructure:"max_dependencies"`
	SearchRoots     []string `mapstructure:"search_roots"`
}

// BuildConfig holds executable packaging settings.
type BuildConfig struct {
	Engine string `mapstructure:"engine"`
	Output string `mapstructure:"output"`
}

// EnginesConfig holds engine registry settings.
type EnginesConfig struct {
	Manifest string `mapstructure:"manifest"`
}

// Default configuration values.
const (
	// DefaultMaxDependencies bounds the dependency traversal.
	// The entry script counts against the limit.
	DefaultMaxDependencies = 36
	// DefaultEngine is the packaging engine used when none is configured.
	DefaultEngine = "luastatic"
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidMaxDependencies indicates the dependency limit is not positive.
	ErrInvalidMaxDependencies = errors.New("analysis.max_dependencies must be positive")
	// ErrEmptyEngine indicates the build engine name is empty.
	ErrEmptyEngine = errors.New("build.engine must not be empty")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Analysis.MaxDependencies < 1 {
		return ErrInvalidMaxDependencies
	}

	if c.Build.Engine == "" {
		return ErrEmptyEngine
	}

	return nil
}
