// Package config loads server settings from file and environment.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all server settings.
type Config struct {
	Addr         string `mapstructure:"addr"`
	DBPath       string `mapstructure:"db_path"`
	JWTSecret    string `mapstructure:"jwt_secret"`
	ReminderCron string `mapstructure:"reminder_cron"`
	LogLevel     string `mapstructure:"log_level"`
}

// Load reads configuration from an optional file and GLPITRACK_* environment
// variables. Environment values win over file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("addr", ":8080")
	v.SetDefault("db_path", "glpitrack.db")
	v.SetDefault("reminder_cron", "* * * * *")
	v.SetDefault("log_level", "info")
	// Registered so AutomaticEnv can surface it through Unmarshal.
	v.SetDefault("jwt_secret", "")

	v.SetEnvPrefix("GLPITRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required (set GLPITRACK_JWT_SECRET)")
	}
	return &cfg, nil
}
