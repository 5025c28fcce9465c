// Package config loads terminal configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	StoreID  string `mapstructure:"store_id"`
	Database DatabaseConfig
	Remote   RemoteConfig
	Sync     SyncConfig
	Server   ServerConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// RemoteConfig holds central server settings.
type RemoteConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Secret  string
	Timeout time.Duration
}

// SyncConfig holds sync cadence and retry settings.
type SyncConfig struct {
	Schedule    string
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
}

// ServerConfig holds the local HTTP API settings.
type ServerConfig struct {
	Addr string
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from file and env. Env var overrides use prefix
// BLAGAJNA_, e.g. BLAGAJNA_REMOTE_BASE_URL.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("store_id", "")
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "blagajna", "blagajna.db"))
	v.SetDefault("remote.base_url", "http://localhost:8081")
	v.SetDefault("remote.secret", "")
	v.SetDefault("remote.timeout", 30*time.Second)
	v.SetDefault("sync.schedule", "*/5 * * * *")
	v.SetDefault("sync.max_attempts", 3)
	v.SetDefault("sync.base_delay", time.Second)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("BLAGAJNA_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "blagajna"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("BLAGAJNA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if c.StoreID == "" {
		return Config{}, fmt.Errorf("store_id is required (set BLAGAJNA_STORE_ID or the config file)")
	}
	return c, nil
}
