package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config represents the main configuration for the service
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Moderation ModerationConfig `yaml:"moderation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`      // Address to listen on (e.g., ":8000")
	RequestTimeout  time.Duration `yaml:"request_timeout"`  // Per-request timeout
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // Graceful shutdown deadline
}

// DatabaseConfig contains the relational backing store connection parameters
type DatabaseConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	User         string        `yaml:"user"`
	Password     string        `yaml:"password"`
	Name         string        `yaml:"name"`
	SSLMode      string        `yaml:"ssl_mode"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	ConnLifetime time.Duration `yaml:"conn_lifetime"`
}

// DSN builds a Postgres connection string from the configured parameters.
// User and password are escaped, so credentials with URL metacharacters
// survive.
func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}
	return u.String()
}

// AuthConfig contains credential management configuration
type AuthConfig struct {
	SessionTTL    time.Duration `yaml:"session_ttl"`    // Lifetime of an issued session credential
	SweepInterval time.Duration `yaml:"sweep_interval"` // How often expired sessions are purged
}

// ModerationConfig contains the external profanity-check API configuration
type ModerationConfig struct {
	Endpoint    string        `yaml:"endpoint"`     // Moderation API URL
	APIKey      string        `yaml:"api_key"`      // API key sent in the apikey header
	Timeout     time.Duration `yaml:"timeout"`      // Per-attempt timeout
	MaxAttempts int           `yaml:"max_attempts"` // Total attempts including the first
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Colors bool   `yaml:"colors"` // Colorized console output
	File   string `yaml:"file"`   // Append to this file instead of stdout when set
}

// Default returns a config populated with sane defaults. Values are
// overridden by the config file and then by environment variables.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      ":8000",
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         5432,
			User:         "askstack",
			Name:         "askstack",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
			ConnLifetime: 30 * time.Minute,
		},
		Auth: AuthConfig{
			SessionTTL:    24 * time.Hour,
			SweepInterval: 15 * time.Minute,
		},
		Moderation: ModerationConfig{
			Endpoint:    "https://api.apilayer.com/bad_words",
			Timeout:     5 * time.Second,
			MaxAttempts: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Colors: true,
		},
	}
}

// applyEnv overrides config values from environment variables. Only secrets
// and connection parameters are exposed this way; everything else belongs in
// the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("PG_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("PG_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Database.Port = p
		}
	}
	if v := os.Getenv("PG_USER"); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv("PG_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("PG_DATABASE"); v != "" {
		c.Database.Name = v
	}
	if v := os.Getenv("MODERATION_API_KEY"); v != "" {
		c.Moderation.APIKey = v
	}
	if v := os.Getenv("MODERATION_ENDPOINT"); v != "" {
		c.Moderation.Endpoint = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
}
