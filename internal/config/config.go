package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all configuration for tablescope.
// Values come from an optional YAML file; environment variables always win.
// The database password is only read from the environment.
type Config struct {
	Port        int      `yaml:"port" env:"PORT" env-default:"8080"`
	Env         string   `yaml:"env" env:"ENVIRONMENT" env-default:"development"`
	LogLevel    string   `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS" env-separator:"," env-default:"*"`

	Database DatabaseConfig `yaml:"database"`
	Browse   BrowseConfig   `yaml:"browse"`
}

// DatabaseConfig describes the database being browsed.
// URL takes precedence over the discrete connection fields.
type DatabaseConfig struct {
	URL      string `yaml:"-" env:"DATABASE_URL"`
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"DB_USERNAME" env-default:"postgres"`
	Password string `yaml:"-" env:"DB_PASSWORD"`
	Database string `yaml:"database" env:"DB_DATABASE" env-default:"postgres"`
	SSLMode  string `yaml:"ssl_mode" env:"DB_SSLMODE" env-default:"prefer"`
	Schema   string `yaml:"schema" env:"DB_SCHEMA" env-default:"public"`

	MaxConns        int32         `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"25"`
	MinConns        int32         `yaml:"min_conns" env:"DB_MIN_CONNS" env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME" env-default:"5m"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME" env-default:"1m"`
	QueryTimeout    time.Duration `yaml:"query_timeout" env:"DB_QUERY_TIMEOUT" env-default:"30s"`
}

type BrowseConfig struct {
	DefaultPageSize int `yaml:"default_page_size" env:"BROWSE_DEFAULT_PAGE_SIZE" env-default:"10"`
	MaxPageSize     int `yaml:"max_page_size" env:"BROWSE_MAX_PAGE_SIZE" env-default:"500"`
}

// Load reads path (if it exists) and applies environment overrides.
// An empty path reads the environment only.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			return cfg, cfg.validate()
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Port <= 0 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Browse.DefaultPageSize <= 0 {
		return errors.New("browse.default_page_size must be positive")
	}
	if c.Browse.MaxPageSize < c.Browse.DefaultPageSize {
		return errors.New("browse.max_page_size must not be below browse.default_page_size")
	}
	if c.Database.Schema == "" {
		c.Database.Schema = "public"
	}
	return nil
}

// IsDevelopment reports whether the server runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "local"
}

// DSN returns a postgres:// connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}

	// url.UserPassword encodes reserved characters in credentials
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Database,
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Redacted returns the DSN with the password masked, for logs.
func (d DatabaseConfig) Redacted() string {
	u, err := url.Parse(d.DSN())
	if err != nil {
		return "postgres://***"
	}
	return u.Redacted()
}
