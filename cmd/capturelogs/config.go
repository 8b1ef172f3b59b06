package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/capture-logs/capture-logs/internal/store"
	"github.com/spf13/viper"
)

const (
	defaultBindHost     = "0.0.0.0"
	defaultPort         = 3000
	defaultHTTPSPort    = 3443
	defaultQueryTimeout = 30 * time.Second
	defaultMaxOpenConns = 8
	defaultDemoRows     = 250
)

// errTLSConfig reports that only one of the certificate and key was given.
var errTLSConfig = errors.New("tls-cert-file and tls-key-file must be set together")

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	BindHost     string        `mapstructure:"bind-host"`
	Port         int           `mapstructure:"port"`
	HTTPEnabled  bool          `mapstructure:"http-enabled"`
	HTTPSPort    int           `mapstructure:"https-port"`
	TLSCertFile  string        `mapstructure:"tls-cert-file"`
	TLSKeyFile   string        `mapstructure:"tls-key-file"`
	DBDriver     string        `mapstructure:"db-driver"`
	DBDSN        string        `mapstructure:"db-dsn"`
	DBPath       string        `mapstructure:"db-path"`
	AutoMigrate  bool          `mapstructure:"auto-migrate"`
	QueryTimeout time.Duration `mapstructure:"query-timeout"`
	MaxOpenConns int           `mapstructure:"max-open-conns"`
	LogLevel     string        `mapstructure:"log-level"`
	LogFormat    string        `mapstructure:"log-format"`
	SeedDemo     bool          `mapstructure:"seed-demo"`
	DemoRows     int           `mapstructure:"demo-rows"`
	ConfigPath   string        `mapstructure:"-"` // not from config file
}

// HTTPAddr is the plain listener address, or "" when disabled.
func (c appConfig) HTTPAddr() string {
	if !c.HTTPEnabled {
		return ""
	}
	return net.JoinHostPort(c.BindHost, strconv.Itoa(c.Port))
}

// HTTPSAddr is the TLS listener address, or "" when TLS is off.
func (c appConfig) HTTPSAddr() string {
	if c.TLSCertFile == "" && c.TLSKeyFile == "" {
		return ""
	}
	return net.JoinHostPort(c.BindHost, strconv.Itoa(c.HTTPSPort))
}

// StoreConfig maps the database keys onto store.Config.
func (c appConfig) StoreConfig() store.Config {
	return store.Config{
		Driver:       c.DBDriver,
		DSN:          c.DBDSN,
		Path:         c.DBPath,
		AutoMigrate:  c.AutoMigrate,
		QueryTimeout: c.QueryTimeout,
		MaxOpenConns: c.MaxOpenConns,
	}
}

// newViper sets defaults and environment bindings. Keys read from the
// environment as CAPTURE_LOGS_<KEY>; the deployment's plain PORT,
// HTTPS_PORT, SSL_CERT_PATH, SSL_KEY_PATH and DATABASE_URL are honoured too.
func newViper() *viper.Viper {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	v := viper.New()
	v.SetEnvPrefix("CAPTURE_LOGS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("bind-host", defaultBindHost)
	v.SetDefault("port", defaultPort)
	v.SetDefault("http-enabled", true)
	v.SetDefault("https-port", defaultHTTPSPort)
	v.SetDefault("db-driver", store.DriverDuckDB)
	v.SetDefault("db-path", filepath.Join(home, ".local", "share", "capture-logs", "capture-logs.duckdb"))
	v.SetDefault("query-timeout", defaultQueryTimeout)
	v.SetDefault("max-open-conns", defaultMaxOpenConns)
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "json")
	v.SetDefault("seed-demo", false)
	v.SetDefault("demo-rows", defaultDemoRows)

	_ = v.BindEnv("port", "CAPTURE_LOGS_PORT", "PORT")
	_ = v.BindEnv("https-port", "CAPTURE_LOGS_HTTPS_PORT", "HTTPS_PORT")
	_ = v.BindEnv("tls-cert-file", "CAPTURE_LOGS_TLS_CERT_FILE", "SSL_CERT_PATH")
	_ = v.BindEnv("tls-key-file", "CAPTURE_LOGS_TLS_KEY_FILE", "SSL_KEY_PATH")
	_ = v.BindEnv("db-dsn", "CAPTURE_LOGS_DB_DSN", "DATABASE_URL")
	return v
}

func loadConfig(v *viper.Viper, configPath string) (appConfig, error) {
	var cfg appConfig

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
	cfg.ConfigPath = v.ConfigFileUsed()

	// The embedded schema is applied by default only to DuckDB; a Postgres
	// schema is owned by whoever runs the database.
	if !v.IsSet("auto-migrate") {
		cfg.AutoMigrate = cfg.DBDriver == "" || cfg.DBDriver == store.DriverDuckDB
	}

	// Expand ~ in db-path
	if strings.HasPrefix(cfg.DBPath, "~/") {
		cfg.DBPath = filepath.Join(home, cfg.DBPath[2:])
	}

	return cfg, validateConfig(cfg)
}

func validateConfig(cfg appConfig) error {
	if cfg.HTTPEnabled && (cfg.Port <= 0 || cfg.Port > 65535) {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return errTLSConfig
	}
	if cfg.HTTPSAddr() != "" && (cfg.HTTPSPort <= 0 || cfg.HTTPSPort > 65535) {
		return fmt.Errorf("invalid https-port: %d", cfg.HTTPSPort)
	}
	if cfg.HTTPAddr() == "" && cfg.HTTPSAddr() == "" {
		return errors.New("no listener enabled: set http-enabled or tls-cert-file/tls-key-file")
	}
	if cfg.QueryTimeout < 0 {
		return fmt.Errorf("invalid query-timeout: %s", cfg.QueryTimeout)
	}
	if cfg.MaxOpenConns < 0 {
		return fmt.Errorf("invalid max-open-conns: %d", cfg.MaxOpenConns)
	}
	if cfg.DemoRows < 0 {
		return fmt.Errorf("invalid demo-rows: %d", cfg.DemoRows)
	}
	return nil
}
