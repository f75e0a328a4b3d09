package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the serve command configuration, read from compound.yml and the
// environment.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Cache  CacheConfig  `mapstructure:"cache"`
}

// ServerConfig holds listen settings
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	// Backend is "memory" or "postgres"
	Backend string `mapstructure:"backend"`
	// PostgresDSN is the connection string for the postgres backend
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// CacheConfig selects the document cache backend
type CacheConfig struct {
	// Backend is "off", "memory", or "redis"
	Backend   string        `mapstructure:"backend"`
	RedisAddr string        `mapstructure:"redis_addr"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// loadConfig loads configuration from compound.yml or compound.yaml
func loadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("store.backend", "memory")
	v.SetDefault("cache.backend", "off")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.ttl", 5*time.Minute)

	v.SetConfigName("compound")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("COMPOUND")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	switch config.Store.Backend {
	case "memory":
	case "postgres":
		if config.Store.PostgresDSN == "" {
			return nil, fmt.Errorf("store.postgres_dsn is required for the postgres backend")
		}
	default:
		return nil, fmt.Errorf("unknown store backend %q", config.Store.Backend)
	}

	switch config.Cache.Backend {
	case "off", "memory", "redis":
	default:
		return nil, fmt.Errorf("unknown cache backend %q", config.Cache.Backend)
	}

	return &config, nil
}
