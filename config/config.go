package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tailscale/hujson"
)

// ConfigFileEnv names the variable holding the path of an optional JSONC
// configuration file.
const ConfigFileEnv = "HOMEFOODS_CONFIG"

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string `json:"server_port"`
	ServerHost string `json:"server_host"`

	// AllowedOrigins lists the origins browsers may call the API from.
	AllowedOrigins []string `json:"allowed_origins"`

	// Store selection: mongo, postgres or sqlite
	StoreDriver string `json:"store_driver"`

	// MongoDB configuration
	MongoURI      string `json:"mongo_uri"`
	MongoDatabase string `json:"mongo_database"`

	// SQL database configuration
	DBHost     string `json:"db_host"`
	DBPort     string `json:"db_port"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBName     string `json:"db_name"`
	DBSSLMode  string `json:"db_ssl_mode"`
	SQLitePath string `json:"sqlite_path"`

	// Redis configuration
	RedisHost     string   `json:"redis_host"`
	RedisPort     string   `json:"redis_port"`
	RedisPassword string   `json:"redis_password"`
	RedisDB       int      `json:"redis_db"`
	RedisURL      string   `json:"redis_url"`
	CacheTTL      Duration `json:"cache_ttl"`

	// RateLimit is the number of write requests a client may make per
	// minute. Zero disables rate limiting.
	RateLimit int `json:"rate_limit"`

	// JWT configuration
	JWTSecret string `json:"jwt_secret"`

	// Logging
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`

	// Snapshot uploads
	S3Bucket  string `json:"s3_bucket"`
	AWSRegion string `json:"aws_region"`
}

// Duration reads "5m" style strings from configuration files.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		ServerPort:     "8080",
		AllowedOrigins: []string{"http://localhost:3000"},
		StoreDriver:    "mongo",
		MongoURI:       "mongodb://127.0.0.1:27017/homefoods",
		DBPort:         "5432",
		DBName:         "homefoods",
		DBSSLMode:      "disable",
		SQLitePath:     "homefoods.db",
		RedisPort:      "6379",
		CacheTTL:       Duration(5 * time.Minute),
		RateLimit:      60,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// LoadConfig builds the configuration from defaults, the optional JSONC
// file, environment variables and secrets, in that order of precedence.
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := Default()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	loadEnv(cfg)

	// Load secrets based on environment
	switch env {
	case CI:
		// CI passes everything through environment variables.
	case Development, Test:
		loadSecrets(cfg, false)
	case Production:
		loadSecrets(cfg, true)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	if cfg.MongoDatabase == "" {
		cfg.MongoDatabase = databaseFromURI(cfg.MongoURI)
	}

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile overlays the JSONC document at path onto cfg.
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("invalid JSONC in %s: %w", path, err)
	}
	if err := json.Unmarshal(standardized, cfg); err != nil {
		return fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return nil
}

// loadEnv overrides cfg with every non-empty variable.
func loadEnv(cfg *Config) {
	vars := map[string]*string{
		"SERVER_PORT":    &cfg.ServerPort,
		"SERVER_HOST":    &cfg.ServerHost,
		"STORE_DRIVER":   &cfg.StoreDriver,
		"MONGO_URI":      &cfg.MongoURI,
		"MONGO_DATABASE": &cfg.MongoDatabase,
		"DB_HOST":        &cfg.DBHost,
		"DB_PORT":        &cfg.DBPort,
		"DB_USER":        &cfg.DBUser,
		"DB_PASSWORD":    &cfg.DBPassword,
		"DB_NAME":        &cfg.DBName,
		"DB_SSL_MODE":    &cfg.DBSSLMode,
		"SQLITE_PATH":    &cfg.SQLitePath,
		"REDIS_HOST":     &cfg.RedisHost,
		"REDIS_PORT":     &cfg.RedisPort,
		"REDIS_PASSWORD": &cfg.RedisPassword,
		"REDIS_URL":      &cfg.RedisURL,
		"JWT_SECRET":     &cfg.JWTSecret,
		"LOG_LEVEL":      &cfg.LogLevel,
		"LOG_FORMAT":     &cfg.LogFormat,
		"S3_BUCKET_NAME": &cfg.S3Bucket,
		"AWS_REGION":     &cfg.AWSRegion,
	}
	for name, field := range vars {
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil {
		cfg.RedisDB = v
	}
	if v, err := strconv.Atoi(os.Getenv("RATE_LIMIT")); err == nil {
		cfg.RateLimit = v
	}
	if v, err := time.ParseDuration(os.Getenv("CACHE_TTL")); err == nil {
		cfg.CacheTTL = Duration(v)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// sensitiveSecrets may only come from the secrets directory in production.
var sensitiveSecrets = []string{"db_password", "jwt_secret", "redis_password", "mongo_uri"}

// loadSecrets reads Docker secrets. In strict mode sensitive values are
// taken from secrets only, discarding whatever the environment set.
func loadSecrets(cfg *Config, strict bool) {
	fields := map[string]*string{
		"db_password":    &cfg.DBPassword,
		"jwt_secret":     &cfg.JWTSecret,
		"redis_password": &cfg.RedisPassword,
		"mongo_uri":      &cfg.MongoURI,
		"db_user":        &cfg.DBUser,
		"redis_url":      &cfg.RedisURL,
	}
	if strict {
		for _, name := range sensitiveSecrets {
			*fields[name] = ""
		}
	}
	for name, field := range fields {
		if v := readSecret(name); v != "" {
			*field = v
		}
	}
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.ServerHost, c.ServerPort)
}

// PostgresDSN returns the connection string for the SQL database.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// RedisEnabled reports whether a Redis server is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}
