package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config holds every setting the engine's ambient stack and per-module
// components read at startup. The viper+godotenv+YAML-tag shape follows
// this project's established config package conventions (Default/Load/Save/
// environment overrides) with the sections replaced for this engine's own
// modules.
type Config struct {
	// Mode is the deployment context: "enterprise", "team", "oss", "local".
	Mode string `yaml:"mode"`

	// Storage locates the workspace root every module's on-disk state
	// hangs off of.
	Storage StorageConfig `yaml:"storage"`

	// Seed configures the seed storage layer's locking and connection
	// behavior (§4.3).
	Seed SeedConfig `yaml:"seed"`

	// QueryEngine configures the in-memory SQL surface over seed
	// partitions (§4.4).
	QueryEngine QueryEngineConfig `yaml:"query_engine"`

	// Resolver configures the semantic resolver's per-package timeout and
	// cache behavior (§4.5).
	Resolver ResolverConfig `yaml:"resolver"`

	// Hub configures the federation hub's database location and cache
	// defaults (§4.7).
	Hub HubConfig `yaml:"hub"`
}

// StorageConfig locates the workspace the engine operates on.
type StorageConfig struct {
	WorkspaceRoot string `yaml:"workspace_root"`
}

// SeedConfig controls seed storage's cross-process locking (§4.3,
// internal/seed/lock).
type SeedConfig struct {
	LockTimeout   time.Duration `yaml:"lock_timeout"`
	StaleLockAge  time.Duration `yaml:"stale_lock_age"`
}

// QueryEngineConfig controls the in-memory SQLite connection the query
// engine runs views against (§4.4).
type QueryEngineConfig struct {
	ConnectionPoolSize int   `yaml:"connection_pool_size"`
	MemoryLimitMB      int64 `yaml:"memory_limit_mb"`
}

// ResolverConfig controls the semantic resolver's per-package work budget
// (§4.5).
type ResolverConfig struct {
	PackageTimeout time.Duration `yaml:"package_timeout"`
}

// HubConfig controls the federation hub's embedded database and cache
// defaults (§4.7). AuthToken is resolved through the keyring-backed
// priority chain in credentials.go, not stored in the YAML file directly.
type HubConfig struct {
	DBPath            string `yaml:"db_path"`
	CacheTTLDefault   int    `yaml:"cache_ttl_default_seconds"`
	AuthToken         string `yaml:"-"`
}

// Default returns the configuration devac starts from absent any config
// file or environment overrides.
func Default() *Config {
	workspaceRoot, _ := os.Getwd()
	return &Config{
		Mode: "local",
		Storage: StorageConfig{
			WorkspaceRoot: workspaceRoot,
		},
		Seed: SeedConfig{
			LockTimeout:  10 * time.Second,
			StaleLockAge: 5 * time.Minute,
		},
		QueryEngine: QueryEngineConfig{
			ConnectionPoolSize: 4,
			MemoryLimitMB:      512,
		},
		Resolver: ResolverConfig{
			PackageTimeout: 30 * time.Second,
		},
		Hub: HubConfig{
			DBPath:          filepath.Join(workspaceRoot, ".devac", "central.duckdb"),
			CacheTTLDefault: 300,
		},
	}
}

// Load loads configuration from path (or the standard search locations
// when path is empty), layering file values over Default() and applying
// environment-variable overrides last.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("storage", cfg.Storage)
	v.SetDefault("seed", cfg.Seed)
	v.SetDefault("query_engine", cfg.QueryEngine)
	v.SetDefault("resolver", cfg.Resolver)
	v.SetDefault("hub", cfg.Hub)

	v.SetEnvPrefix("DEVAC")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".devac")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".devac"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) { dc.TagName = "yaml" }); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence, a conventional
// local/example search order.
func loadEnvFiles() {
	envFiles := []string{".env.local", ".env", ".env.example"}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			if err := godotenv.Load(file); err == nil {
				continue
			}
		}
	}

	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".devac", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides layers plain environment variables over whatever viper
// already resolved, giving callers an explicit override path independent
// of the DEVAC_ prefix convention (a conventional two-tier override
// scheme).
func applyEnvOverrides(cfg *Config) {
	if root := os.Getenv("DEVAC_WORKSPACE_ROOT"); root != "" {
		cfg.Storage.WorkspaceRoot = expandPath(root)
	}

	if timeout := os.Getenv("DEVAC_SEED_LOCK_TIMEOUT_SECONDS"); timeout != "" {
		if secs, err := strconv.Atoi(timeout); err == nil {
			cfg.Seed.LockTimeout = time.Duration(secs) * time.Second
		}
	}
	if age := os.Getenv("DEVAC_SEED_STALE_LOCK_AGE_SECONDS"); age != "" {
		if secs, err := strconv.Atoi(age); err == nil {
			cfg.Seed.StaleLockAge = time.Duration(secs) * time.Second
		}
	}

	if pool := os.Getenv("DEVAC_QUERY_ENGINE_POOL_SIZE"); pool != "" {
		if n, err := strconv.Atoi(pool); err == nil {
			cfg.QueryEngine.ConnectionPoolSize = n
		}
	}
	if mem := os.Getenv("DEVAC_QUERY_ENGINE_MEMORY_LIMIT_MB"); mem != "" {
		if n, err := strconv.ParseInt(mem, 10, 64); err == nil {
			cfg.QueryEngine.MemoryLimitMB = n
		}
	}

	if timeout := os.Getenv("DEVAC_RESOLVER_PACKAGE_TIMEOUT_SECONDS"); timeout != "" {
		if secs, err := strconv.Atoi(timeout); err == nil {
			cfg.Resolver.PackageTimeout = time.Duration(secs) * time.Second
		}
	}

	if dbPath := os.Getenv("DEVAC_HUB_DB_PATH"); dbPath != "" {
		cfg.Hub.DBPath = expandPath(dbPath)
	}
	if ttl := os.Getenv("DEVAC_HUB_CACHE_TTL_SECONDS"); ttl != "" {
		if secs, err := strconv.Atoi(ttl); err == nil {
			cfg.Hub.CacheTTLDefault = secs
		}
	}

	if token := os.Getenv("DEVAC_HUB_AUTH_TOKEN"); token != "" {
		cfg.Hub.AuthToken = token
	} else {
		cm := NewHubCredentialManager()
		if token, err := cm.GetAuthToken(); err == nil && token != "" {
			cfg.Hub.AuthToken = token
		}
	}

	if mode := os.Getenv("DEVAC_MODE"); mode != "" {
		cfg.Mode = mode
	}
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save writes c to path as YAML, creating parent directories as needed.
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("mode", c.Mode)
	v.Set("storage", c.Storage)
	v.Set("seed", c.Seed)
	v.Set("query_engine", c.QueryEngine)
	v.Set("resolver", c.Resolver)
	v.Set("hub", HubConfig{DBPath: c.Hub.DBPath, CacheTTLDefault: c.Hub.CacheTTLDefault})

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
