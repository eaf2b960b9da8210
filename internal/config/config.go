package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Export   Export   `mapstructure:"export"`
	Logger   Logger   `mapstructure:"logger"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	GitHub   GitHub   `mapstructure:"github"`
}

// Export holds the configuration for the spreadsheet export.
type Export struct {
	InputPath      string `mapstructure:"input_path"`
	Sheet          string `mapstructure:"sheet"`
	OutputPath     string `mapstructure:"output_path"`
	Market         string `mapstructure:"market"`
	StrategyColumn string `mapstructure:"strategy_column"`
	StrictSide     bool   `mapstructure:"strict_side"`
	Schedule       string `mapstructure:"schedule"` // cron spec, empty runs once
}

// Server holds the configuration for the dashboard web server.
type Server struct {
	Port     int           `mapstructure:"port"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// Database holds the configuration for the export history database.
type Database struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// GitHub holds the configuration for the repository status client.
type GitHub struct {
	BaseURL        string        `mapstructure:"base_url"`
	RawBaseURL     string        `mapstructure:"raw_base_url"`
	User           string        `mapstructure:"user"`
	Repos          []string      `mapstructure:"repos"`
	StatsRepo      string        `mapstructure:"stats_repo"`
	DataRepo       string        `mapstructure:"data_repo"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"input":  "export.input_path",
	"sheet":  "export.sheet",
	"output": "export.output_path",
	"market": "export.market",
	"strict": "export.strict_side",
	"cron":   "export.schedule",
}

// LoadConfig reads configuration from file, environment variables and,
// when flags is non-nil, command line flags. A missing config file is not
// an error; the defaults apply.
func LoadConfig(path string, flags *pflag.FlagSet) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")

	// Allow environment variables to override config file
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err = v.BindPFlag(key, f); err != nil {
					return config, fmt.Errorf("failed to bind flag %q: %w", name, err)
				}
			}
		}
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("failed to read config: %w", err)
		}
		err = nil
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("failed to decode config: %w", err)
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("export.input_path", "live_trading_results.xlsx")
	v.SetDefault("export.sheet", "All Trades")
	v.SetDefault("export.output_path", "public/trades.json")
	v.SetDefault("export.market", "BTC-5M")
	v.SetDefault("export.strategy_column", "Strategy")
	v.SetDefault("export.strict_side", false)
	v.SetDefault("export.schedule", "")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cache_ttl", 30*time.Second)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.dsn", "exports.db")

	v.SetDefault("github.base_url", "https://api.github.com")
	v.SetDefault("github.raw_base_url", "https://raw.githubusercontent.com")
	v.SetDefault("github.user", "")
	v.SetDefault("github.repos", []string{})
	v.SetDefault("github.stats_repo", "")
	v.SetDefault("github.data_repo", "")
	v.SetDefault("github.rate_limit", 1)       // requests per second
	v.SetDefault("github.rate_limit_burst", 5) // burst size
	v.SetDefault("github.timeout", 10*time.Second)
}
