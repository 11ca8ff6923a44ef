package config

import (
	"fmt"
	"net"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	App      AppConfig
	Visitors VisitorConfig
	Security SecurityConfig
}

type ServerConfig struct {
	Port string
	// TemplatesDir switches rendering from the embedded templates to files on
	// disk, re-parsed whenever they change.
	TemplatesDir string
	// TrustedProxies lists the proxy addresses or CIDRs whose
	// X-Forwarded-For is believed. Empty means the socket address is the
	// client.
	TrustedProxies []string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

type VisitorConfig struct {
	Enabled         bool
	DSN             string
	Retention       time.Duration
	CleanupSchedule string
}

type SecurityConfig struct {
	RateLimit  int
	RateWindow time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.templates_dir", "")
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("visitors.enabled", true)
	v.SetDefault("visitors.dsn", ":memory:")
	v.SetDefault("visitors.retention", 365*24*time.Hour)
	v.SetDefault("visitors.cleanup_schedule", "@daily")
	v.SetDefault("security.rate_limit", 100)
	v.SetDefault("security.rate_window", 15*time.Minute)
}

// Flags registers the command-line overrides Load understands.
func Flags(fs *pflag.FlagSet) {
	fs.String("config", "", "optional YAML config file")
	fs.String("port", "", "listen port (overrides PORT)")
	fs.String("templates", "", "serve templates from this directory and reload on change")
	fs.String("env", "", "application environment (development, production)")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.Bool("no-visitors", false, "disable visitor tracking")
	fs.String("visitors-dsn", "", "SQLite DSN for visitor metrics")
}

var flagKeys = map[string]string{
	"port":         "server.port",
	"templates":    "server.templates_dir",
	"env":          "app.environment",
	"log-level":    "app.log_level",
	"visitors-dsn": "visitors.dsn",
}

// Load resolves configuration with precedence flags > PORT > config file > defaults.
// A .env file in the working directory is read first if it exists.
func Load(fs *pflag.FlagSet) (*Config, error) {
	// Ignore error: .env is optional outside development
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if err := v.BindEnv("server.port", "PORT"); err != nil {
		return nil, fmt.Errorf("bind PORT: %w", err)
	}

	if fs != nil {
		if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", f.Value.String(), err)
			}
		}
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
		if f := fs.Lookup("no-visitors"); f != nil && f.Changed && f.Value.String() == "true" {
			v.Set("visitors.enabled", false)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("server.port"),
			TemplatesDir:   v.GetString("server.templates_dir"),
			TrustedProxies: v.GetStringSlice("server.trusted_proxies"),
		},
		App: AppConfig{
			Environment: v.GetString("app.environment"),
			LogLevel:    v.GetString("app.log_level"),
			Version:     v.GetString("app.version"),
		},
		Visitors: VisitorConfig{
			Enabled:         v.GetBool("visitors.enabled"),
			DSN:             v.GetString("visitors.dsn"),
			Retention:       v.GetDuration("visitors.retention"),
			CleanupSchedule: v.GetString("visitors.cleanup_schedule"),
		},
		Security: SecurityConfig{
			RateLimit:  v.GetInt("security.rate_limit"),
			RateWindow: v.GetDuration("security.rate_window"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Security.RateLimit <= 0 {
		return fmt.Errorf("security.rate_limit must be positive, got %d", c.Security.RateLimit)
	}
	if c.Security.RateWindow <= 0 {
		return fmt.Errorf("security.rate_window must be positive, got %s", c.Security.RateWindow)
	}
	for _, p := range c.Server.TrustedProxies {
		if net.ParseIP(p) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(p); err != nil {
			return fmt.Errorf("server.trusted_proxies: %q is not an IP or CIDR", p)
		}
	}
	if c.Visitors.Enabled && c.Visitors.DSN == "" {
		return fmt.Errorf("visitors.dsn is required when visitor tracking is enabled")
	}
	return nil
}

// IsProduction reports whether the app runs with production defaults
// (JSON logs, gin release mode).
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}
