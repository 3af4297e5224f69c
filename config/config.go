package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Mail      MailConfig      `mapstructure:"mail"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
}

// ServerConfig HTTP server settings.
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig cross-origin settings.
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL settings.
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// DSN builds the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig redis settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig token and role settings.
type AuthConfig struct {
	JWTSecret                string        `mapstructure:"jwt_secret"`
	AccessTokenTTL           time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL          time.Duration `mapstructure:"refresh_token_ttl"`
	VerificationTTL          time.Duration `mapstructure:"verification_ttl"`
	RequireEmailVerification bool          `mapstructure:"require_email_verification"`
	// SuperAdmins lists the admin emails allowed to purge soft-deleted records.
	SuperAdmins   []string      `mapstructure:"super_admins"`
	RoleCacheSize int           `mapstructure:"role_cache_size"`
	RoleCacheTTL  time.Duration `mapstructure:"role_cache_ttl"`
	Cookie        CookieConfig  `mapstructure:"cookie"`
}

// CookieConfig refresh token cookie settings.
type CookieConfig struct {
	Secure   bool   `mapstructure:"secure"`
	SameSite string `mapstructure:"same_site"`
	Domain   string `mapstructure:"domain"`
}

// StorageConfig file bucket settings.
type StorageConfig struct {
	RootDir       string   `mapstructure:"root_dir"`
	PublicBaseURL string   `mapstructure:"public_base_url"`
	MaxUploadMB   int64    `mapstructure:"max_upload_mb"`
	DocumentTypes []string `mapstructure:"document_types"`
}

// MailConfig outgoing mail settings. Only the console mailer is wired.
type MailConfig struct {
	From           string `mapstructure:"from"`
	VerifyURL      string `mapstructure:"verify_url"`
	VerifyRedirect string `mapstructure:"verify_redirect"`
}

// LogConfig logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RateLimitConfig limits for unauthenticated auth endpoints.
type RateLimitConfig struct {
	AuthLimit  int           `mapstructure:"auth_limit"`
	AuthWindow time.Duration `mapstructure:"auth_window"`
}

// JobsConfig background jobs.
type JobsConfig struct {
	OrphanSweep OrphanSweepConfig `mapstructure:"orphan_sweep"`
}

// OrphanSweepConfig removes uploaded blobs no record points at.
type OrphanSweepConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Schedule    string        `mapstructure:"schedule"`
	GracePeriod time.Duration `mapstructure:"grace_period"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from defaults, an optional config file, a local .env and the environment.
// Precedence: environment > config file > defaults.
func Load(path string) (*Config, error) {
	// a missing .env is the normal case outside local development
	_ = godotenv.Load()

	v := viper.New()

	// ── defaults ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "campus_portal")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Kolkata")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// registered so AutomaticEnv picks CAMPUS_AUTH_JWT_SECRET up during Unmarshal
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl", "168h")
	v.SetDefault("auth.verification_ttl", "48h")
	v.SetDefault("auth.require_email_verification", true)
	v.SetDefault("auth.super_admins", []string{})
	v.SetDefault("auth.role_cache_size", 1024)
	v.SetDefault("auth.role_cache_ttl", "5m")
	v.SetDefault("auth.cookie.secure", false)
	v.SetDefault("auth.cookie.same_site", "Lax")

	v.SetDefault("storage.root_dir", "./data/storage")
	v.SetDefault("storage.public_base_url", "http://localhost:8080/storage")
	v.SetDefault("storage.max_upload_mb", 20)
	v.SetDefault("storage.document_types", []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"application/zip",
		"text/plain",
	})

	v.SetDefault("mail.from", "no-reply@campus.local")
	v.SetDefault("mail.verify_url", "http://localhost:8080/api/v1/auth/verify")
	v.SetDefault("mail.verify_redirect", "http://localhost:5173/auth?verified=1")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("rate_limit.auth_limit", 10)
	v.SetDefault("rate_limit.auth_window", "1m")

	v.SetDefault("jobs.orphan_sweep.enabled", true)
	v.SetDefault("jobs.orphan_sweep.schedule", "@every 1h")
	v.SetDefault("jobs.orphan_sweep.grace_period", "24h")
	v.SetDefault("jobs.orphan_sweep.timeout", "5m")

	// ── config file ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── environment ──
	v.SetEnvPrefix("CAMPUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: auth.jwt_secret must be set")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("config: auth.jwt_secret must be at least 16 characters")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port must be between 1 and 65535")
	}
	if strings.TrimSpace(c.Storage.RootDir) == "" {
		return fmt.Errorf("config: storage.root_dir must be set")
	}
	if c.Storage.MaxUploadMB <= 0 {
		return fmt.Errorf("config: storage.max_upload_mb must be positive")
	}
	if c.Jobs.OrphanSweep.Enabled {
		if _, err := cron.ParseStandard(c.Jobs.OrphanSweep.Schedule); err != nil {
			return fmt.Errorf("config: jobs.orphan_sweep.schedule: %w", err)
		}
	}
	return nil
}

// IsSuperAdmin reports whether email is configured as a super admin.
func (c *AuthConfig) IsSuperAdmin(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, e := range c.SuperAdmins {
		if strings.ToLower(strings.TrimSpace(e)) == email {
			return true
		}
	}
	return false
}
