package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig
	Download  DownloadConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Policy    PolicyConfig
	Telemetry TelemetryConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name         string
	Port         int
	Environment  string
	LogLevel     string
	LogFormat    string
	WriteTimeout time.Duration
}

// DownloadConfig holds pipeline settings: where workspaces live, which tools to
// run and how long each tool may take.
type DownloadConfig struct {
	BaseDir          string
	YtDlpPath        string
	FFmpegPath       string
	AudioQuality     string
	ExtractTimeout   time.Duration
	TranscodeTimeout time.Duration
	CleanupOnSend    bool
	Retention        time.Duration
	JanitorInterval  time.Duration
}

// DatabaseConfig holds Postgres connection settings for download history
type DatabaseConfig struct {
	Enabled     bool
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// RedisConfig holds Redis settings used for rate limiting and counters
type RedisConfig struct {
	Enabled         bool
	Host            string
	Port            string
	Password        string
	DB              int
	ClientLimit     int64
	GlobalLimit     int64
	LimitWindowSecs int
}

// PolicyConfig holds the optional admission expression
type PolicyConfig struct {
	Expression string
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof bool
	PprofPort   int
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:         serviceName,
			Port:         getEnvInt("PORT", 5000),
			Environment:  getEnv("ENVIRONMENT", "development"),
			LogLevel:     getEnv("LOG_LEVEL", "info"),
			LogFormat:    getEnv("LOG_FORMAT", "text"), // Default to text for development
			WriteTimeout: getEnvDuration("WRITE_TIMEOUT", 30*time.Minute),
		},
		Download: DownloadConfig{
			BaseDir:          getEnv("DOWNLOAD_DIR", "downloads"),
			YtDlpPath:        getEnv("YTDLP_PATH", "yt-dlp"),
			FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
			AudioQuality:     getEnv("AUDIO_QUALITY", "192"),
			ExtractTimeout:   getEnvDuration("EXTRACT_TIMEOUT", 10*time.Minute),
			TranscodeTimeout: getEnvDuration("TRANSCODE_TIMEOUT", 5*time.Minute),
			CleanupOnSend:    getEnvBool("CLEANUP_ON_SEND", true),
			Retention:        getEnvDuration("WORKSPACE_RETENTION", 1*time.Hour),
			JanitorInterval:  getEnvDuration("JANITOR_INTERVAL", 10*time.Minute),
		},
		Database: DatabaseConfig{
			Enabled:     getEnvBool("DATABASE_ENABLED", false),
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "vidgrab"),
			User:        getEnv("POSTGRES_USER", "vidgrab"),
			Password:    getEnv("POSTGRES_PASSWORD", "vidgrab"),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 10),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 1),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
		},
		Redis: RedisConfig{
			Enabled:         getEnvBool("REDIS_ENABLED", false),
			Host:            getEnv("REDIS_HOST", "localhost"),
			Port:            getEnv("REDIS_PORT", "6379"),
			Password:        getEnv("REDIS_PASSWORD", ""),
			DB:              getEnvInt("REDIS_DB", 0),
			ClientLimit:     int64(getEnvInt("RATE_LIMIT_PER_CLIENT", 10)),
			GlobalLimit:     int64(getEnvInt("RATE_LIMIT_GLOBAL", 100)),
			LimitWindowSecs: getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		},
		Policy: PolicyConfig{
			Expression: getEnv("DOWNLOAD_POLICY", ""),
		},
		Telemetry: TelemetryConfig{
			EnablePprof: getEnvBool("ENABLE_PPROF", false),
			PprofPort:   getEnvInt("PPROF_PORT", 6060),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Download.BaseDir == "" {
		return fmt.Errorf("download directory is required")
	}

	if c.Download.ExtractTimeout <= 0 || c.Download.TranscodeTimeout <= 0 {
		return fmt.Errorf("tool timeouts must be positive")
	}

	if c.Download.JanitorInterval < 0 {
		return fmt.Errorf("janitor interval must not be negative")
	}

	// A workspace may be in use for the whole extract + transcode + send window;
	// the janitor must never reach it before that.
	if c.Download.JanitorInterval > 0 {
		inUse := c.Download.ExtractTimeout + c.Download.TranscodeTimeout + c.Service.WriteTimeout
		if c.Download.Retention <= 0 {
			return fmt.Errorf("workspace retention must be positive when the janitor is enabled")
		}
		if c.Download.Retention < inUse {
			return fmt.Errorf("workspace retention %s is shorter than the longest request %s", c.Download.Retention, inUse)
		}
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			return fmt.Errorf("max_conns must be >= min_conns")
		}
	}

	if c.Redis.Enabled && c.Redis.LimitWindowSecs < 1 {
		return fmt.Errorf("invalid rate limit window: %d", c.Redis.LimitWindowSecs)
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns host:port for the Redis client
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
