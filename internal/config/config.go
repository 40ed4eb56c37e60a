// Package config loads server configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the Brinksmanship server.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Scenario   ScenarioConfig   `mapstructure:"scenario"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigin   string        `mapstructure:"allowed_origin"`
}

// DatabaseConfig holds the pgx connection settings. An empty URL disables
// persistence; games then live only in memory.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConns        int32         `mapstructure:"max_conns"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	HealthCheckTime time.Duration `mapstructure:"health_check_time"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AuthConfig holds session token and admin access settings. AdminKeyHash is
// a bcrypt hash of the admin key; empty disables admin endpoints.
type AuthConfig struct {
	JWTSecret    string        `mapstructure:"jwt_secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	AdminKeyHash string        `mapstructure:"admin_key_hash"`
}

// SimulationConfig supplies defaults for batch simulation runs.
type SimulationConfig struct {
	Games   int `mapstructure:"games"`
	Workers int `mapstructure:"workers"`
}

// ScenarioConfig names the scenario file served to new games. Empty selects
// the built-in default scenario.
type ScenarioConfig struct {
	Path string `mapstructure:"path"`
}

// Load reads configuration from the given path, applying defaults and
// BRINK_-prefixed environment overrides (e.g. BRINK_SERVER_ADDRESS).
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.connect_timeout", 5*time.Second)
	v.SetDefault("database.health_check_time", time.Minute)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("simulation.games", 1000)
	v.SetDefault("simulation.workers", 4)

	v.SetEnvPrefix("BRINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
