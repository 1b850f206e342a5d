package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"github.com/yourusername/clever-tipster/internal/pipeline"
)

const (
	defaultConfigPath = "config/config.yaml"
	envPrefix         = "TIPSTER"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return unmarshal(v)
}

// LoadWithDefaults loads configuration with default values for every field.
// A missing file is not an error; defaults and environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so that AutomaticEnv can override values
// that are absent from the file.
func setDefaults(v *viper.Viper) {
	d := pipeline.DefaultConfig()

	v.SetDefault("app.name", "clever-tipster")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("pipeline.workers", 0)
	v.SetDefault("pipeline.min_ev", d.MinEV)
	v.SetDefault("pipeline.signal_cache.ttl", d.SignalCacheTTL)
	v.SetDefault("pipeline.signal_cache.max_size", d.SignalCacheMax)

	v.SetDefault("pipeline.fusion.prior", d.Fusion.Prior)
	v.SetDefault("pipeline.fusion.three_way_prior", d.Fusion.ThreeWayPrior)
	v.SetDefault("pipeline.fusion.min_reliability", d.Fusion.MinReliability)
	v.SetDefault("pipeline.fusion.max_engines", d.Fusion.MaxEngines)
	v.SetDefault("pipeline.fusion.volatility_weight", d.Fusion.VolatilityWeight)

	v.SetDefault("pipeline.bias.weights.drift", d.Bias.Weights.Drift)
	v.SetDefault("pipeline.bias.weights.market", d.Bias.Weights.Market)
	v.SetDefault("pipeline.bias.weights.model_dev", d.Bias.Weights.ModelDev)
	v.SetDefault("pipeline.bias.weights.form", d.Bias.Weights.Form)
	v.SetDefault("pipeline.bias.max_correction", d.Bias.MaxCorrection)
	v.SetDefault("pipeline.bias.shrink_strength", d.Bias.ShrinkStrength)
	v.SetDefault("pipeline.bias.default_prior.home", d.Bias.DefaultPrior.Home)
	v.SetDefault("pipeline.bias.default_prior.draw", d.Bias.DefaultPrior.Draw)
	v.SetDefault("pipeline.bias.default_prior.away", d.Bias.DefaultPrior.Away)

	v.SetDefault("pipeline.strategy.min_odds", d.Strategy.MinOdds)
	v.SetDefault("pipeline.strategy.short_min_prob", d.Strategy.ShortMinProb)
	v.SetDefault("pipeline.strategy.short_min_conf", d.Strategy.ShortMinConf)
	v.SetDefault("pipeline.strategy.short_max_risk", d.Strategy.ShortMaxRisk)
	v.SetDefault("pipeline.strategy.short_min_edge", d.Strategy.ShortMinEdge)
	v.SetDefault("pipeline.strategy.kelly_fraction", d.Strategy.KellyFraction)
	v.SetDefault("pipeline.strategy.max_stake_fraction", d.Strategy.MaxStakeFraction)

	v.SetDefault("pipeline.kombi.sizes", d.Kombi.Sizes)
	v.SetDefault("pipeline.kombi.max_odds", d.Kombi.MaxOdds)
	v.SetDefault("pipeline.kombi.max_risk", d.Kombi.MaxRisk)
	v.SetDefault("pipeline.kombi.top_n", d.Kombi.TopN)
	v.SetDefault("pipeline.kombi.max_pool", d.Kombi.MaxPool)
	v.SetDefault("pipeline.kombi.workers", 0)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)

	v.SetDefault("feed.requests_per_second", 2.0)
	v.SetDefault("feed.retry_max", 3)
	v.SetDefault("feed.timeout", "30s")

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.cron", "*/15 * * * *")
	v.SetDefault("scheduler.run_timeout", "5m")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("secrets.enabled", false)
}
