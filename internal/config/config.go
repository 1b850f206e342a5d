// Package config provides configuration management for the Clever Tipster application.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Metrics   MetricsConfig   `mapstructure:"metrics" validate:"required"`
	Secrets   SecretsConfig   `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// PipelineConfig represents the decision pipeline parameters
type PipelineConfig struct {
	Workers     int               `mapstructure:"workers" validate:"gte=0"`
	MinEV       float64           `mapstructure:"min_ev"`
	SignalCache SignalCacheConfig `mapstructure:"signal_cache"`
	Fusion      FusionConfig      `mapstructure:"fusion"`
	Bias        BiasConfig        `mapstructure:"bias"`
	Strategy    StrategyConfig    `mapstructure:"strategy"`
	Kombi       KombiConfig       `mapstructure:"kombi"`
}

// SignalCacheConfig bounds the market-signal cache
type SignalCacheConfig struct {
	TTL     time.Duration `mapstructure:"ttl" validate:"gte=0"`
	MaxSize int           `mapstructure:"max_size" validate:"gte=0"`
}

// FusionConfig represents probability fusion parameters
type FusionConfig struct {
	Prior            float64 `mapstructure:"prior" validate:"gt=0,lt=1"`
	ThreeWayPrior    float64 `mapstructure:"three_way_prior" validate:"gt=0,lt=1"`
	MinReliability   float64 `mapstructure:"min_reliability" validate:"gt=0,lte=1"`
	MaxEngines       int     `mapstructure:"max_engines" validate:"gt=0"`
	VolatilityWeight float64 `mapstructure:"volatility_weight" validate:"gte=0,lte=1"`
}

// BiasWeightsConfig holds the relative bias component weights
type BiasWeightsConfig struct {
	Drift    float64 `mapstructure:"drift"`
	Market   float64 `mapstructure:"market"`
	ModelDev float64 `mapstructure:"model_dev"`
	Form     float64 `mapstructure:"form"`
}

// PriorConfig is a 1X2 base rate
type PriorConfig struct {
	Home float64 `mapstructure:"home" validate:"gte=0,lte=1"`
	Draw float64 `mapstructure:"draw" validate:"gte=0,lte=1"`
	Away float64 `mapstructure:"away" validate:"gte=0,lte=1"`
}

// BiasConfig represents bias correction parameters
type BiasConfig struct {
	Weights        BiasWeightsConfig      `mapstructure:"weights"`
	MaxCorrection  float64                `mapstructure:"max_correction" validate:"gte=0,lte=1"`
	ShrinkStrength float64                `mapstructure:"shrink_strength"`
	DefaultPrior   PriorConfig            `mapstructure:"default_prior"`
	LeaguePriors   map[string]PriorConfig `mapstructure:"league_priors" validate:"dive"`
}

// StrategyConfig represents the odds filter and staking parameters
type StrategyConfig struct {
	MinOdds          float64 `mapstructure:"min_odds" validate:"gt=1"`
	ShortMinProb     float64 `mapstructure:"short_min_prob" validate:"gte=0,lte=1"`
	ShortMinConf     float64 `mapstructure:"short_min_conf" validate:"gte=0,lte=1"`
	ShortMaxRisk     float64 `mapstructure:"short_max_risk" validate:"gte=0,lte=1"`
	ShortMinEdge     float64 `mapstructure:"short_min_edge" validate:"gte=0,lte=1"`
	KellyFraction    float64 `mapstructure:"kelly_fraction" validate:"gte=0,lte=1"`
	MaxStakeFraction float64 `mapstructure:"max_stake_fraction" validate:"gte=0,lte=1"`
}

// KombiConfig represents combination ticket parameters
type KombiConfig struct {
	Sizes   []int   `mapstructure:"sizes" validate:"kombisizes"`
	MaxOdds float64 `mapstructure:"max_odds" validate:"gt=1"`
	MaxRisk float64 `mapstructure:"max_risk"`
	TopN    int     `mapstructure:"top_n" validate:"gt=0"`
	MaxPool int     `mapstructure:"max_pool" validate:"gte=2"`
	Workers int     `mapstructure:"workers" validate:"gte=0"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name" validate:"required_if=Enabled true"`
	User           string `mapstructure:"user" validate:"required_if=Enabled true"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"gte=0"`
}

// FeedConfig represents the match feed source
type FeedConfig struct {
	URL               string        `mapstructure:"url" validate:"omitempty,url"`
	File              string        `mapstructure:"file"`
	APIKey            string        `mapstructure:"api_key"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gte=0"`
	RetryMax          int           `mapstructure:"retry_max" validate:"gte=0"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// SchedulerConfig represents the recurring pipeline run
type SchedulerConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Cron       string        `mapstructure:"cron" validate:"required_if=Enabled true"`
	RunTimeout time.Duration `mapstructure:"run_timeout" validate:"gte=0"`
}

// MetricsConfig represents metrics and health endpoint configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// SecretsConfig points at the optional AWS Secrets Manager overlay
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region" validate:"required_if=Enabled true"`
	SecretName string `mapstructure:"secret_name" validate:"required_if=Enabled true"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
