package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	OAuth       OAuthConfig
	RateLimit   RateLimitConfig
	Token       TokenConfig
	Journal     JournalConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxConn      int
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// AuthConfig tunes session lifetimes and the auto-refresh policy.
type AuthConfig struct {
	// SessionTTL is the sliding inactivity window.
	SessionTTL time.Duration
	// SessionMaxLifetime caps renewals at created_at + this value.
	SessionMaxLifetime time.Duration
	// RefreshThreshold is the remaining-lifetime fraction below which
	// middleware refreshes the session, in (0, 1].
	RefreshThreshold float64
	// CookieDomain scopes the session cookie; empty means host-only.
	CookieDomain string
}

// OAuthConfig carries per-provider credentials. A provider with an empty
// client id is not registered.
type OAuthConfig struct {
	StateTTL time.Duration
	Google   OAuthProviderConfig
	Github   OAuthProviderConfig
}

type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// RateLimitConfig tunes the fixed-window limiter applied to auth routes.
type RateLimitConfig struct {
	Enabled  bool
	Requests int64
	Window   time.Duration
}

// TokenConfig signs email-verification and password-reset tokens.
type TokenConfig struct {
	Secret    string
	Issuer    string
	VerifyTTL time.Duration
	ResetTTL  time.Duration
}

// JournalConfig tunes the local auth-event journal and its drain schedule.
type JournalConfig struct {
	Path string
	// DrainSpec is a cron expression for flushing events to the database.
	DrainSpec string
	// DrainBatch bounds how many events one drain cycle moves.
	DrainBatch int
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "wikigo-backend"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:      getInt("SERVER_MAX_CONN", 0),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "wikigo"),
			User:            getString("DB_USER", "wikigo"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			SessionTTL:         getDuration("SESSION_TTL", 24*time.Hour),
			SessionMaxLifetime: getDuration("SESSION_MAX_LIFETIME", 30*24*time.Hour),
			RefreshThreshold:   getFloat("SESSION_REFRESH_THRESHOLD", 0.5),
			CookieDomain:       os.Getenv("SESSION_COOKIE_DOMAIN"),
		},
		OAuth: OAuthConfig{
			StateTTL: getDuration("OAUTH_STATE_TTL", 5*time.Minute),
			Google: OAuthProviderConfig{
				ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
				ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
				RedirectURI:  os.Getenv("GOOGLE_REDIRECT_URI"),
			},
			Github: OAuthProviderConfig{
				ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
				ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
				RedirectURI:  os.Getenv("GITHUB_REDIRECT_URI"),
			},
		},
		RateLimit: RateLimitConfig{
			Enabled:  getBool("RATE_LIMIT_ENABLED", true),
			Requests: int64(getInt("RATE_LIMIT_REQUESTS", 10)),
			Window:   getDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Token: TokenConfig{
			Secret:    os.Getenv("TOKEN_SECRET"),
			Issuer:    getString("TOKEN_ISSUER", "wikigo-backend"),
			VerifyTTL: getDuration("TOKEN_VERIFY_TTL", 24*time.Hour),
			ResetTTL:  getDuration("TOKEN_RESET_TTL", time.Hour),
		},
		Journal: JournalConfig{
			Path:       getString("JOURNAL_PATH", "./data/journal.db"),
			DrainSpec:  getString("JOURNAL_DRAIN_SPEC", "@every 30s"),
			DrainBatch: getInt("JOURNAL_DRAIN_BATCH", 500),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg)
	}
	if cfg.Auth.RefreshThreshold <= 0 || cfg.Auth.RefreshThreshold > 1 {
		cfg.Auth.RefreshThreshold = 0.5
	}

	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// IsDev reports whether the service runs in development mode. Error
// responses include diagnostic details only in this mode.
func (c *Config) IsDev() bool {
	return c.Environment != "production"
}

func buildPostgresURL(cfg *Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
