package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	S3        S3Config
	Log       LogConfig
	Extractor ExtractorConfig
	CORS      CORSConfig
	Queue     QueueConfig
	Merge     MergeConfig
	Email     EmailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ExtractorProviderConfig holds settings for a single LLM extractor provider.
type ExtractorProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ExtractorConfig holds LLM task-extractor settings with primary/fallback
// provider support.
type ExtractorConfig struct {
	Primary  ExtractorProviderConfig `mapstructure:"primary"`
	Fallback ExtractorProviderConfig `mapstructure:"fallback"`
}

// FallbackConfig returns the fallback provider config, or nil if none is set.
func (e *ExtractorConfig) FallbackConfig() *ExtractorProviderConfig {
	if e.Fallback.Provider != "" {
		return &e.Fallback
	}
	return nil
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// QueueConfig holds extraction queue worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	MaxRetries       int `mapstructure:"max_retries"`
	Concurrency      int `mapstructure:"concurrency"`
}

// MergeConfig holds reconciliation settings for reparses.
type MergeConfig struct {
	PreserveClarifications bool    `mapstructure:"preserve_clarifications"`
	MatchThreshold         int     `mapstructure:"match_threshold"`
	DriftTolerance         float64 `mapstructure:"drift_tolerance"`
	HistoryLimit           int     `mapstructure:"history_limit"`
}

// EmailConfig holds email delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	FrontendURL string `mapstructure:"frontend_url"`
}

// Load reads configuration from environment variables with the WORKLANE_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WORKLANE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "worklane")
	v.SetDefault("db.password", "worklane_secret")
	v.SetDefault("db.name", "worklane_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "worklane-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 50)
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 10)
	v.SetDefault("queue.max_retries", 5)
	v.SetDefault("queue.concurrency", 5)

	// Merge defaults
	v.SetDefault("merge.preserve_clarifications", true)
	v.SetDefault("merge.match_threshold", 80)
	v.SetDefault("merge.drift_tolerance", 0.10)
	v.SetDefault("merge.history_limit", 5)

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "us-east-1")
	v.SetDefault("email.from_address", "noreply@worklane.app")
	v.SetDefault("email.from_name", "Worklane")
	v.SetDefault("email.frontend_url", "http://localhost:3000")

	// Extractor defaults
	v.SetDefault("extractor.primary.provider", "claude")
	v.SetDefault("extractor.primary.api_key", "")
	v.SetDefault("extractor.primary.default_model", "")
	v.SetDefault("extractor.primary.max_retries", 2)
	v.SetDefault("extractor.primary.timeout_secs", 120)
	v.SetDefault("extractor.fallback.provider", "")
	v.SetDefault("extractor.fallback.api_key", "")
	v.SetDefault("extractor.fallback.default_model", "")
	v.SetDefault("extractor.fallback.max_retries", 2)
	v.SetDefault("extractor.fallback.timeout_secs", 120)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                   "WORKLANE_SERVER_PORT",
		"server.read_timeout":           "WORKLANE_SERVER_READ_TIMEOUT",
		"server.write_timeout":          "WORKLANE_SERVER_WRITE_TIMEOUT",
		"server.environment":            "WORKLANE_SERVER_ENVIRONMENT",
		"db.host":                       "WORKLANE_DB_HOST",
		"db.port":                       "WORKLANE_DB_PORT",
		"db.user":                       "WORKLANE_DB_USER",
		"db.password":                   "WORKLANE_DB_PASSWORD",
		"db.name":                       "WORKLANE_DB_NAME",
		"db.sslmode":                    "WORKLANE_DB_SSLMODE",
		"db.max_open":                   "WORKLANE_DB_MAX_OPEN",
		"db.max_idle":                   "WORKLANE_DB_MAX_IDLE",
		"s3.region":                     "WORKLANE_S3_REGION",
		"s3.bucket":                     "WORKLANE_S3_BUCKET",
		"s3.endpoint":                   "WORKLANE_S3_ENDPOINT",
		"s3.access_key":                 "WORKLANE_S3_ACCESS_KEY",
		"s3.secret_key":                 "WORKLANE_S3_SECRET_KEY",
		"s3.max_file_size_mb":           "WORKLANE_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":             "WORKLANE_S3_PRESIGN_EXPIRY",
		"log.level":                     "WORKLANE_LOG_LEVEL",
		"log.format":                    "WORKLANE_LOG_FORMAT",
		"cors.allowed_origins":          "WORKLANE_CORS_ALLOWED_ORIGINS",
		"queue.poll_interval_secs":      "WORKLANE_QUEUE_POLL_INTERVAL_SECS",
		"queue.max_retries":             "WORKLANE_QUEUE_MAX_RETRIES",
		"queue.concurrency":             "WORKLANE_QUEUE_CONCURRENCY",
		"merge.preserve_clarifications": "WORKLANE_MERGE_PRESERVE_CLARIFICATIONS",
		"merge.match_threshold":         "WORKLANE_MERGE_MATCH_THRESHOLD",
		"merge.drift_tolerance":         "WORKLANE_MERGE_DRIFT_TOLERANCE",
		"merge.history_limit":           "WORKLANE_MERGE_HISTORY_LIMIT",
		"email.provider":                "WORKLANE_EMAIL_PROVIDER",
		"email.region":                  "WORKLANE_EMAIL_REGION",
		"email.from_address":            "WORKLANE_EMAIL_FROM_ADDRESS",
		"email.from_name":               "WORKLANE_EMAIL_FROM_NAME",
		"email.frontend_url":            "WORKLANE_EMAIL_FRONTEND_URL",

		"extractor.primary.provider":       "WORKLANE_EXTRACTOR_PRIMARY_PROVIDER",
		"extractor.primary.api_key":        "WORKLANE_EXTRACTOR_PRIMARY_API_KEY",
		"extractor.primary.default_model":  "WORKLANE_EXTRACTOR_PRIMARY_DEFAULT_MODEL",
		"extractor.primary.max_retries":    "WORKLANE_EXTRACTOR_PRIMARY_MAX_RETRIES",
		"extractor.primary.timeout_secs":   "WORKLANE_EXTRACTOR_PRIMARY_TIMEOUT_SECS",
		"extractor.fallback.provider":      "WORKLANE_EXTRACTOR_FALLBACK_PROVIDER",
		"extractor.fallback.api_key":       "WORKLANE_EXTRACTOR_FALLBACK_API_KEY",
		"extractor.fallback.default_model": "WORKLANE_EXTRACTOR_FALLBACK_DEFAULT_MODEL",
		"extractor.fallback.max_retries":   "WORKLANE_EXTRACTOR_FALLBACK_MAX_RETRIES",
		"extractor.fallback.timeout_secs":  "WORKLANE_EXTRACTOR_FALLBACK_TIMEOUT_SECS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if WORKLANE_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("WORKLANE_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Extractor = ExtractorConfig{
		Primary: ExtractorProviderConfig{
			Provider:     v.GetString("extractor.primary.provider"),
			APIKey:       v.GetString("extractor.primary.api_key"),
			DefaultModel: v.GetString("extractor.primary.default_model"),
			MaxRetries:   v.GetInt("extractor.primary.max_retries"),
			TimeoutSecs:  v.GetInt("extractor.primary.timeout_secs"),
		},
		Fallback: ExtractorProviderConfig{
			Provider:     v.GetString("extractor.fallback.provider"),
			APIKey:       v.GetString("extractor.fallback.api_key"),
			DefaultModel: v.GetString("extractor.fallback.default_model"),
			MaxRetries:   v.GetInt("extractor.fallback.max_retries"),
			TimeoutSecs:  v.GetInt("extractor.fallback.timeout_secs"),
		},
	}

	cfg.Queue = QueueConfig{
		PollIntervalSecs: v.GetInt("queue.poll_interval_secs"),
		MaxRetries:       v.GetInt("queue.max_retries"),
		Concurrency:      v.GetInt("queue.concurrency"),
	}

	cfg.Merge = MergeConfig{
		PreserveClarifications: v.GetBool("merge.preserve_clarifications"),
		MatchThreshold:         v.GetInt("merge.match_threshold"),
		DriftTolerance:         v.GetFloat64("merge.drift_tolerance"),
		HistoryLimit:           v.GetInt("merge.history_limit"),
	}

	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		FrontendURL: v.GetString("email.frontend_url"),
	}

	return cfg, nil
}
