package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in a configuration.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "\n")
}

// Fields returns the names of the invalid fields.
func (e ValidationErrors) Fields() []string {
	fields := make([]string, len(e))
	for i, v := range e {
		fields[i] = v.Field
	}
	return fields
}

// requiredByDriver lists the settings each store driver needs.
var requiredByDriver = map[string][]string{
	"mongo":    {"mongo_uri"},
	"postgres": {"db_host", "db_port", "db_user", "db_name"},
	"sqlite":   {"sqlite_path"},
}

var (
	logLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	logFormats = map[string]bool{"text": true, "json": true}
)

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()
	var errs ValidationErrors

	values := map[string]string{
		"mongo_uri":   cfg.MongoURI,
		"db_host":     cfg.DBHost,
		"db_port":     cfg.DBPort,
		"db_user":     cfg.DBUser,
		"db_name":     cfg.DBName,
		"sqlite_path": cfg.SQLitePath,
	}

	required, ok := requiredByDriver[cfg.StoreDriver]
	if !ok {
		errs = append(errs, ValidationError{"store_driver", fmt.Sprintf("unsupported store driver %q", cfg.StoreDriver)})
	}
	for _, name := range required {
		if values[name] == "" {
			errs = append(errs, ValidationError{name, fmt.Sprintf("required for the %s store", cfg.StoreDriver)})
		}
	}

	if port, err := strconv.Atoi(cfg.ServerPort); err != nil || port <= 0 || port > 65535 {
		errs = append(errs, ValidationError{"server_port", fmt.Sprintf("invalid port %q", cfg.ServerPort)})
	}
	if cfg.RateLimit < 0 {
		errs = append(errs, ValidationError{"rate_limit", "must not be negative"})
	}
	if !logLevels[strings.ToLower(cfg.LogLevel)] {
		errs = append(errs, ValidationError{"log_level", fmt.Sprintf("unknown level %q", cfg.LogLevel)})
	}
	if !logFormats[strings.ToLower(cfg.LogFormat)] {
		errs = append(errs, ValidationError{"log_format", fmt.Sprintf("unknown format %q", cfg.LogFormat)})
	}

	// Write routes are open without a secret, which is only acceptable
	// outside production.
	if env == Production && cfg.JWTSecret == "" {
		errs = append(errs, ValidationError{"jwt_secret", "jwt_secret secret is required"})
	}
	if env == Production && cfg.StoreDriver == "postgres" && cfg.DBPassword == "" {
		errs = append(errs, ValidationError{"db_password", "db_password secret is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
