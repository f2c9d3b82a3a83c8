package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds the application settings. Values come from, in order of
// precedence: command line flags, SEBU_* environment variables, the
// config file, defaults.
type Config struct {
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
	LogLevel   string `mapstructure:"log_level"`
}

// Build loads the configuration. cfgFile may be empty, in which case
// config.yaml in the working directory is used when present. flags may
// be nil.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// .env is optional.
	_ = gotenv.Load()

	v := viper.New()
	v.SetDefault("output_path", "")
	v.SetDefault("format", "ofx")
	v.SetDefault("log_level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SEBU")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if flags != nil {
		if f := flags.Lookup("output"); f != nil {
			if err := v.BindPFlag("output_path", f); err != nil {
				return nil, err
			}
		}
		if f := flags.Lookup("format"); f != nil {
			if err := v.BindPFlag("format", f); err != nil {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Format != "ofx" && cfg.Format != "csv" {
		return nil, fmt.Errorf("unknown output format %q", cfg.Format)
	}

	return &cfg, nil
}
