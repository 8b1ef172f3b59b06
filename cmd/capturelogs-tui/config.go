package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/capture-logs/capture-logs/internal/model"
	"github.com/spf13/viper"
)

const (
	defaultAPIURL       = "http://localhost:3000"
	defaultFetchTimeout = 30 * time.Second
)

// cliConfig holds only TUI-relevant configuration.
type cliConfig struct {
	APIURL             string        `mapstructure:"api-url"`
	PageSize           int           `mapstructure:"page-size"`
	LogLevel           string        `mapstructure:"log-level"`
	LogFile            string        `mapstructure:"log-file"`
	FetchTimeout       time.Duration `mapstructure:"fetch-timeout"`
	DropFilterOnResize bool          `mapstructure:"drop-filter-on-resize"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("CAPTURE_LOGS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("api-url", defaultAPIURL)
	v.SetDefault("page-size", model.DefaultPageSize)
	v.SetDefault("log-level", "info")
	v.SetDefault("fetch-timeout", defaultFetchTimeout)
	v.SetDefault("drop-filter-on-resize", false)
	return v
}

func loadCLIConfig(v *viper.Viper, configPath string) (cliConfig, error) {
	var cfg cliConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "capture-logs", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
		// An explicit --config must exist.
		if configPath != "" {
			return cfg, fmt.Errorf("reading config %s: %w", configPath, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}

	u, err := url.Parse(cfg.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return cfg, fmt.Errorf("invalid api-url %q", cfg.APIURL)
	}
	if !validPageSize(cfg.PageSize) {
		return cfg, fmt.Errorf("invalid page-size %d: expected one of %v", cfg.PageSize, model.PageSizes)
	}
	return cfg, nil
}

func validPageSize(n int) bool {
	for _, s := range model.PageSizes {
		if s == n {
			return true
		}
	}
	return false
}
