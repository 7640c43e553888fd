// Package config reads trustcore settings from the environment and an
// optional .env file found in the working directory or any parent.
package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allisson/go-env"
	validation "github.com/jellydator/validation"
	"github.com/joho/godotenv"

	apperrors "github.com/allisson/trustcore/internal/errors"
	customValidation "github.com/allisson/trustcore/internal/validation"
)

// Preference backends.
const (
	BackendBolt     = "bbolt"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
)

// Config holds all application configuration.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// Environment is the deployment name. "production" disables debug-only tooling.
	Environment string
	// DataDir holds the local bbolt file.
	DataDir string

	// KEKURI locates the key encryption key, e.g. base64key://..., gcpkms://...
	KEKURI string

	// PrefsBackend is bbolt, postgres or mysql.
	PrefsBackend string
	// PrefsAlgorithm is the AEAD sealing preference records.
	PrefsAlgorithm string

	DBConnectionString   string
	DBMaxOpenConnections int
	DBMaxIdleConnections int
	DBConnMaxLifetime    time.Duration

	SessionIdleTimeout time.Duration
	PkceSessionTTL     time.Duration

	OAuthAuthorizationEndpoint string
	OAuthTokenEndpoint         string
	OAuthRevocationEndpoint    string
	OAuthClientID              string
	OAuthRedirectURI           string
	OAuthScope                 string

	TrustPinFile              string
	TrustPinDiscoveryEnabled  bool
	HTTPTimeout               time.Duration
	IntegrityPolicy           string
	IntegrityTrustedInstaller []string
	// IntegrityExpectedSignatures are hex SHA-256 digests of released binaries.
	IntegrityExpectedSignatures []string

	EventsReplayCapacity int
	SentryDSN            string

	MetricsEnabled   bool
	MetricsNamespace string
	MetricsPort      int

	DiagnosticsEnabled bool
	ServerHost         string
	ServerPort         int

	CORSEnabled      bool
	CORSAllowOrigins string

	RateLimitEnabled        bool
	RateLimitRequestsPerSec float64
	RateLimitBurst          int

	WorkerPoolSize int
}

// Load reads the configuration. Call Validate before use.
func Load() *Config {
	loadDotEnv()

	return &Config{
		LogLevel:    env.GetString("LOG_LEVEL", "info"),
		Environment: env.GetString("APP_ENV", "development"),
		DataDir:     env.GetString("DATA_DIR", "./data"),

		KEKURI: env.GetString("KEK_URI", ""),

		PrefsBackend:   env.GetString("PREFS_BACKEND", BackendBolt),
		PrefsAlgorithm: env.GetString("PREFS_ALGORITHM", "aes-gcm"),

		DBConnectionString:   env.GetString("DB_CONNECTION_STRING", ""),
		DBMaxOpenConnections: env.GetInt("DB_MAX_OPEN_CONNECTIONS", 10),
		DBMaxIdleConnections: env.GetInt("DB_MAX_IDLE_CONNECTIONS", 2),
		DBConnMaxLifetime:    env.GetDuration("DB_CONN_MAX_LIFETIME", 5, time.Minute),

		SessionIdleTimeout: env.GetDuration("SESSION_IDLE_TIMEOUT_MINUTES", 30, time.Minute),
		PkceSessionTTL:     env.GetDuration("PKCE_SESSION_TTL_SECONDS", 600, time.Second),

		OAuthAuthorizationEndpoint: env.GetString("OAUTH_AUTHORIZATION_ENDPOINT", ""),
		OAuthTokenEndpoint:         env.GetString("OAUTH_TOKEN_ENDPOINT", ""),
		OAuthRevocationEndpoint:    env.GetString("OAUTH_REVOCATION_ENDPOINT", ""),
		OAuthClientID:              env.GetString("OAUTH_CLIENT_ID", ""),
		OAuthRedirectURI:           env.GetString("OAUTH_REDIRECT_URI", ""),
		OAuthScope:                 env.GetString("OAUTH_SCOPE", "openid profile email"),

		TrustPinFile:             env.GetString("TRUST_PIN_FILE", ""),
		TrustPinDiscoveryEnabled: env.GetBool("TRUST_PIN_DISCOVERY_ENABLED", false),
		HTTPTimeout:              env.GetDuration("HTTP_TIMEOUT_SECONDS", 30, time.Second),

		IntegrityPolicy: env.GetString("INTEGRITY_POLICY", "warn"),
		IntegrityTrustedInstaller: splitList(env.GetString(
			"INTEGRITY_TRUSTED_INSTALLERS",
			"com.android.vending,com.google.android.feedback",
		)),
		IntegrityExpectedSignatures: splitList(env.GetString("INTEGRITY_EXPECTED_SIGNATURES", "")),

		EventsReplayCapacity: env.GetInt("EVENTS_REPLAY_CAPACITY", 100),
		SentryDSN:            env.GetString("SENTRY_DSN", ""),

		MetricsEnabled:   env.GetBool("METRICS_ENABLED", false),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "trustcore"),
		MetricsPort:      env.GetInt("METRICS_PORT", 9091),

		DiagnosticsEnabled: env.GetBool("DIAGNOSTICS_ENABLED", true),
		ServerHost:         env.GetString("SERVER_HOST", "127.0.0.1"),
		ServerPort:         env.GetInt("SERVER_PORT", 9090),

		CORSEnabled:      env.GetBool("CORS_ENABLED", false),
		CORSAllowOrigins: env.GetString("CORS_ALLOW_ORIGINS", ""),

		RateLimitEnabled:        env.GetBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequestsPerSec: env.GetFloat64("RATE_LIMIT_REQUESTS_PER_SEC", 5.0),
		RateLimitBurst:          env.GetInt("RATE_LIMIT_BURST", 10),

		WorkerPoolSize: env.GetInt("WORKER_POOL_SIZE", 4),
	}
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.DataDir, validation.Required),
		validation.Field(&c.PrefsBackend, validation.Required,
			validation.In(BackendBolt, BackendPostgres, BackendMySQL)),
		validation.Field(&c.PrefsAlgorithm, validation.Required, validation.In("aes-gcm", "chacha20-poly1305")),
		validation.Field(&c.DBConnectionString, validation.When(
			c.PrefsBackend == BackendPostgres || c.PrefsBackend == BackendMySQL,
			validation.Required,
		)),
		validation.Field(&c.SessionIdleTimeout, validation.Min(time.Minute)),
		validation.Field(&c.PkceSessionTTL, validation.Min(time.Second)),
		validation.Field(&c.OAuthAuthorizationEndpoint, customValidation.HTTPSURL),
		validation.Field(&c.OAuthTokenEndpoint, customValidation.HTTPSURL),
		validation.Field(&c.OAuthRevocationEndpoint, customValidation.HTTPSURL),
		validation.Field(&c.OAuthRedirectURI, customValidation.AbsoluteURI),
		validation.Field(&c.HTTPTimeout, validation.Min(time.Second)),
		validation.Field(&c.IntegrityPolicy, validation.Required, validation.In("block", "warn")),
		validation.Field(&c.IntegrityExpectedSignatures, validation.Each(validation.By(sha256Hex))),
		validation.Field(&c.EventsReplayCapacity, validation.Required, validation.Min(1)),
		validation.Field(&c.ServerPort, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.MetricsPort, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.RateLimitRequestsPerSec, validation.Min(0.0)),
		validation.Field(&c.WorkerPoolSize, validation.Required, validation.Min(1)),
	)
	return customValidation.WrapValidationError(err)
}

// ExpectedSignatureDigests decodes IntegrityExpectedSignatures.
func (c *Config) ExpectedSignatureDigests() ([][]byte, error) {
	digests := make([][]byte, 0, len(c.IntegrityExpectedSignatures))
	for _, s := range c.IntegrityExpectedSignatures {
		digest, err := hex.DecodeString(s)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "invalid expected signature digest")
		}
		digests = append(digests, digest)
	}
	return digests, nil
}

// IsProduction reports whether Environment is "production".
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// GetGinMode returns "debug" only for debug logging.
func (c *Config) GetGinMode() string {
	if c.LogLevel == "debug" {
		return "debug"
	}
	return "release"
}

func sha256Hex(value any) error {
	s, _ := value.(string)
	digest, err := hex.DecodeString(s)
	if err != nil || len(digest) != 32 {
		return validation.NewError("validation_sha256_hex", "must be a hex encoded SHA-256 digest")
	}
	return nil
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

// loadDotEnv loads the nearest .env file walking up from the working directory.
func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
