package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all service configuration. Values come from config.yaml when
// present, with environment variables taking precedence.
type Config struct {
	Port string `mapstructure:"port"`

	DBHost     string `mapstructure:"db_host"`
	DBPort     string `mapstructure:"db_port"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
	DBName     string `mapstructure:"db_name"`

	MLBAPIBaseURL string `mapstructure:"mlb_api_base_url"`

	// Timezone is the reference timezone whose civil calendar defines
	// "today" for schedule and matchup refreshes.
	Timezone string `mapstructure:"timezone"`

	ScheduleLookaheadDays int `mapstructure:"schedule_lookahead_days"`
	RetryAttempts         int `mapstructure:"retry_attempts"`
	ChunkSize             int `mapstructure:"chunk_size"`

	CronEnabled      bool   `mapstructure:"cron_enabled"`
	ScheduleCronSpec string `mapstructure:"schedule_cron_spec"`
	MatchupCronSpec  string `mapstructure:"matchup_cron_spec"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Load reads configuration from config.yaml (optional) and the environment.
func Load() (*Config, error) {
	// .env is optional and never committed.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("port", "8080")
	viper.SetDefault("db_host", "localhost")
	viper.SetDefault("db_port", "5432")
	viper.SetDefault("db_user", "matchups_user")
	viper.SetDefault("db_password", "matchups_pass")
	viper.SetDefault("db_name", "xwoba_matchups")
	viper.SetDefault("mlb_api_base_url", "https://statsapi.mlb.com/api/v1")
	viper.SetDefault("timezone", "America/Los_Angeles")
	viper.SetDefault("schedule_lookahead_days", 7)
	viper.SetDefault("retry_attempts", 3)
	viper.SetDefault("chunk_size", 100)
	viper.SetDefault("cron_enabled", true)
	// Schedule firms up overnight; lineups trickle in through the afternoon.
	viper.SetDefault("schedule_cron_spec", "0 6 * * *")
	viper.SetDefault("matchup_cron_spec", "0 9,15 * * *")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	return &cfg, nil
}

// DatabaseURL builds the Postgres connection string.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// Location resolves the configured reference timezone. Load has already
// validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
