package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for problems and returns all of them at
// once, so an operator can fix a broken config file in a single pass.
func (c *Config) Validate() []error {
	var errs []error

	if strings.TrimSpace(c.Server.ListenAddr) == "" {
		errs = append(errs, fmt.Errorf("server.listen_addr must not be empty"))
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.request_timeout must be positive"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout must be positive"))
	}

	if strings.TrimSpace(c.Database.Host) == "" {
		errs = append(errs, fmt.Errorf("database.host must not be empty"))
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Errorf("database.port must be in range 1-65535, got %d", c.Database.Port))
	}
	if strings.TrimSpace(c.Database.User) == "" {
		errs = append(errs, fmt.Errorf("database.user must not be empty"))
	}
	if strings.TrimSpace(c.Database.Name) == "" {
		errs = append(errs, fmt.Errorf("database.name must not be empty"))
	}
	if c.Database.MaxOpenConns < 1 {
		errs = append(errs, fmt.Errorf("database.max_open_conns must be at least 1"))
	}
	if c.Database.MaxIdleConns < 0 {
		errs = append(errs, fmt.Errorf("database.max_idle_conns must not be negative"))
	}

	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.session_ttl must be positive"))
	}
	if c.Auth.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("auth.sweep_interval must be positive"))
	}

	if c.Moderation.Endpoint == "" {
		errs = append(errs, fmt.Errorf("moderation.endpoint must not be empty"))
	} else if u, err := url.Parse(c.Moderation.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("moderation.endpoint must be a valid URL, got %q", c.Moderation.Endpoint))
	}
	if c.Moderation.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("moderation.timeout must be positive"))
	}
	if c.Moderation.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("moderation.max_attempts must be at least 1"))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level))
	}

	return errs
}
