package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"INKPRESS_DB_PATH" envDefault:"./data/inkpress.db"`
	SessionSecret string `env:"INKPRESS_SESSION_SECRET,required"`
	ServerHost    string `env:"INKPRESS_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"INKPRESS_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"INKPRESS_ENV" envDefault:"development"`
	LogLevel      string `env:"INKPRESS_LOG_LEVEL" envDefault:"info"`
	UploadsDir    string `env:"INKPRESS_UPLOADS_DIR" envDefault:"./uploads"`

	// Contact form notifications
	AdminEmail string `env:"INKPRESS_ADMIN_EMAIL" envDefault:"admin@myblog.com"`
	SMTPHost   string `env:"INKPRESS_SMTP_HOST"`
	SMTPPort   int    `env:"INKPRESS_SMTP_PORT" envDefault:"587"`
	SMTPUser   string `env:"INKPRESS_SMTP_USER"`
	SMTPPass   string `env:"INKPRESS_SMTP_PASS"`
	SMTPFrom   string `env:"INKPRESS_SMTP_FROM" envDefault:"noreply@myblog.com"`

	// Cache configuration
	RedisURL     string `env:"INKPRESS_REDIS_URL"`                          // Optional Redis URL for distributed caching
	CachePrefix  string `env:"INKPRESS_CACHE_PREFIX" envDefault:"inkpress:"`
	CacheTTL     int    `env:"INKPRESS_CACHE_TTL" envDefault:"300"`         // Default cache TTL in seconds
	CacheMaxSize int    `env:"INKPRESS_CACHE_MAX_SIZE" envDefault:"10000"`  // Max memory cache entries

	// GeoIP configuration
	GeoIPDBPath string `env:"INKPRESS_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// Seeding configuration
	DoSeed bool `env:"INKPRESS_DO_SEED" envDefault:"false"` // Enable database seeding
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// MailEnabled returns true if an SMTP relay is configured for
// contact form notifications.
func (c Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("INKPRESS_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("INKPRESS_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("INKPRESS_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
