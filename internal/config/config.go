// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Metadata  MetadataConfig
	Server    ServerConfig
	Store     StoreConfig
	Auth      AuthConfig
	OAuth     OAuthConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// MetadataConfig holds the on-disk data directory (badger/sqlite files, keys).
type MetadataConfig struct {
	BasePath string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	PublicURL    string        // Optional. Overrides scheme://host when building self and next links.
	CORSOrigins  []string      // Allowed origins (default: *)
	TrustProxy   bool          // Take the client address from X-Forwarded-For / X-Real-IP (default: false)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// StoreConfig selects and configures the entity store backend.
type StoreConfig struct {
	Backend          string // badger, sqlite or datastore (default: badger)
	DatastoreProject string
	CredentialsFile  string // Optional service account JSON for datastore
}

// AuthConfig holds identity token verification and session cookie configuration.
type AuthConfig struct {
	// Audience the ID token must be issued for. Defaults to the OAuth client id.
	Audience string
	Issuers  []string
	JWKSURL  string
	// JWKSRefreshPerMinute caps key set fetches (default: 5)
	JWKSRefreshPerMinute int

	// SessionSecret seeds the cookie sealing key. When empty a key file is
	// generated under the metadata path.
	SessionSecret string
	SessionTTL    time.Duration
}

// OAuthConfig holds the Google OAuth client used by the login flow.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// SessionConfig selects where login state is kept between /mid and /oauth.
type SessionConfig struct {
	Backend       string // badger, redis or memory (default: badger)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// RateLimitConfig bounds the login endpoints per client IP.
type RateLimitConfig struct {
	LoginPerMinute int
	LoginBurst     int
}

// Store and session backend names.
const (
	BackendBadger    = "badger"
	BackendSQLite    = "sqlite"
	BackendDatastore = "datastore"
	BackendRedis     = "redis"
	BackendMemory    = "memory"
)

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("boatyard", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	metadataPath := fs.String("metadata-path", "", "Base path for data files")

	// Server flags
	serverPort := fs.String("port", "", "Server port (default: 8080)")
	publicURL := fs.String("public-url", "", "Public base URL used in self links")
	corsOrigins := fs.String("cors-origins", "", "Comma separated allowed origins (default: *)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	// Store flags
	storeBackend := fs.String("store", "", "Entity store backend: badger, sqlite, datastore")
	datastoreProject := fs.String("datastore-project", "", "Google Cloud project for the datastore backend")
	credentialsFile := fs.String("credentials-file", "", "Service account JSON for the datastore backend")

	// Auth flags
	sessionTTL := fs.String("session-ttl", "", "Login session lifetime (default: 10m)")
	sessionBackend := fs.String("session-store", "", "Session backend: badger, redis, memory")
	redisAddr := fs.String("redis-addr", "", "Redis address for the redis session backend")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Metadata: MetadataConfig{
			BasePath: getConfigValue(*metadataPath, "METADATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "PORT", "8080"),
			PublicURL:   strings.TrimRight(getConfigValue(*publicURL, "PUBLIC_URL", ""), "/"),
			CORSOrigins: getListConfigValue(*corsOrigins, "CORS_ORIGINS", []string{"*"}),
			TrustProxy:  getBoolConfigValue("", "TRUST_PROXY", false),
		},
		Store: StoreConfig{
			Backend:          strings.ToLower(getConfigValue(*storeBackend, "STORE_BACKEND", BackendBadger)),
			DatastoreProject: getConfigValue(*datastoreProject, "DATASTORE_PROJECT_ID", ""),
			CredentialsFile:  getConfigValue(*credentialsFile, "GOOGLE_APPLICATION_CREDENTIALS", ""),
		},
		OAuth: OAuthConfig{
			ClientID:     getConfigValue("", "CLIENT_ID", ""),
			ClientSecret: getConfigValue("", "CLIENT_SECRET", ""),
			RedirectURL:  getConfigValue("", "REDIRECT_URI", "http://localhost:8080/oauth"),
			Scopes: getListConfigValue("", "OAUTH_SCOPES", []string{
				"openid",
				"https://www.googleapis.com/auth/userinfo.profile",
			}),
		},
		Session: SessionConfig{
			Backend:       strings.ToLower(getConfigValue(*sessionBackend, "SESSION_STORE", BackendBadger)),
			RedisAddr:     getConfigValue(*redisAddr, "REDIS_ADDR", ""),
			RedisPassword: getConfigValue("", "REDIS_PASSWORD", ""),
			RedisDB:       getIntConfigValue("", "REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			LoginPerMinute: getIntConfigValue("", "LOGIN_RATE_PER_MINUTE", 20),
			LoginBurst:     getIntConfigValue("", "LOGIN_RATE_BURST", 5),
		},
	}

	cfg.Auth = AuthConfig{
		Audience: getConfigValue("", "TOKEN_AUDIENCE", cfg.OAuth.ClientID),
		Issuers: getListConfigValue("", "TOKEN_ISSUERS", []string{
			"https://accounts.google.com",
			"accounts.google.com",
		}),
		JWKSURL:              getConfigValue("", "JWKS_URL", "https://www.googleapis.com/oauth2/v3/certs"),
		JWKSRefreshPerMinute: getIntConfigValue("", "JWKS_REFRESH_PER_MINUTE", 5),
		SessionSecret:        getConfigValue("", "SESSION_SECRET", ""),
	}

	var err error
	if cfg.Auth.SessionTTL, err = getDurationConfigValue(*sessionTTL, "SESSION_TTL", "10m"); err != nil {
		return nil, err
	}
	if cfg.Server.ReadTimeout, err = getDurationConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = getDurationConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}

	if err := cfg.expandMetadataPath(); err != nil {
		return nil, fmt.Errorf("invalid metadata path: %w", err)
	}

	if cfg.Store.CredentialsFile != "" {
		expanded, err := expandPath(cfg.Store.CredentialsFile, "")
		if err != nil {
			return nil, fmt.Errorf("invalid credentials file: %w", err)
		}
		cfg.Store.CredentialsFile = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Metadata.BasePath == "" {
		return errors.New("metadata base path cannot be empty after expansion")
	}

	switch c.Store.Backend {
	case BackendBadger, BackendSQLite:
	case BackendDatastore:
		if c.Store.DatastoreProject == "" {
			return errors.New("DATASTORE_PROJECT_ID is required for the datastore backend")
		}
	default:
		return fmt.Errorf("invalid store backend: %s (must be badger, sqlite, or datastore)", c.Store.Backend)
	}

	switch c.Session.Backend {
	case BackendBadger, BackendMemory:
	case BackendRedis:
		if c.Session.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis session backend")
		}
	default:
		return fmt.Errorf("invalid session backend: %s (must be badger, redis, or memory)", c.Session.Backend)
	}

	if c.Auth.SessionTTL <= 0 {
		return errors.New("session TTL must be positive")
	}

	if c.App.Environment == "production" {
		if c.OAuth.ClientID == "" || c.OAuth.ClientSecret == "" {
			return errors.New("CLIENT_ID and CLIENT_SECRET are required in production")
		}
		if len(c.Auth.SessionSecret) < 32 {
			return errors.New("SESSION_SECRET of at least 32 characters is required in production")
		}
	}

	if c.RateLimit.LoginPerMinute <= 0 || c.RateLimit.LoginBurst <= 0 {
		return errors.New("login rate limit and burst must be positive")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandMetadataPath defaults the data directory to ~/Boatyard/data.
func (c *Config) expandMetadataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Boatyard", "data")

	expanded, err := expandPath(c.Metadata.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Metadata.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envKey != "" {
		if envValue := os.Getenv(envKey); envValue != "" {
			return envValue
		}
	}

	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Values strconv.ParseBool rejects fall back to the default.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(strValue)
	if err != nil {
		return defaultValue
	}
	return b
}

// getDurationConfigValue parses a duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, strValue, err)
	}
	return d, nil
}

// getListConfigValue splits a comma separated value, dropping blanks.
func getListConfigValue(flagValue, envKey string, defaultValue []string) []string {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var out []string
	for part := range strings.SplitSeq(strValue, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Env vars take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
