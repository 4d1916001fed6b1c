// Package config loads server configuration from the environment and an
// optional .env file, with sane defaults for local development.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	ServerAddress string
	DBPath        string
	SeedChart     bool
	Registry      RegistryConfig
}

// RegistryConfig maps onto ledger.RegistryPolicy.
type RegistryConfig struct {
	AllowCrossTypeParent bool
	// DeactivateWindowDays blocks deactivation of accounts with ledger
	// activity inside the window. 0 disables the check.
	DeactivateWindowDays int
}

// DeactivateWindow returns the window as a duration.
func (rc RegistryConfig) DeactivateWindow() time.Duration {
	return time.Duration(rc.DeactivateWindowDays) * 24 * time.Hour
}

// Load reads configuration from the environment. A .env file in the
// working directory is honored when present.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_ADDRESS", ":8080")
	viper.SetDefault("DB_PATH", "ledger.db")
	viper.SetDefault("SEED_CHART", true)
	viper.SetDefault("ALLOW_CROSS_TYPE_PARENT", false)
	viper.SetDefault("DEACTIVATE_WINDOW_DAYS", 0)

	// The .env file is optional; env vars and defaults cover its absence.
	_ = viper.ReadInConfig()

	return &Config{
		ServerAddress: viper.GetString("SERVER_ADDRESS"),
		DBPath:        viper.GetString("DB_PATH"),
		SeedChart:     viper.GetBool("SEED_CHART"),
		Registry: RegistryConfig{
			AllowCrossTypeParent: viper.GetBool("ALLOW_CROSS_TYPE_PARENT"),
			DeactivateWindowDays: viper.GetInt("DEACTIVATE_WINDOW_DAYS"),
		},
	}, nil
}
