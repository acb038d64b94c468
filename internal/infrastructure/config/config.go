package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	SIAC      SIACConfig
	Sync      SyncConfig
	Scan      ScanConfig
	Storage   StorageConfig
	Telemetry TelemetryConfig
	Profiling ProfilingConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings.
// When Enabled is false the service runs with in-process locks only.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port for the redis client
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// SIACConfig holds the legacy ERP gateway settings
type SIACConfig struct {
	BaseURL            string
	Timeout            time.Duration
	InsecureSkipVerify bool
	UserAgent          string
	StoreCode          string
	StoreName          string
	Region             string
	DefaultUserCode    string // cd_usuario stamped on locally created receipts
	MaxResponseBytes   int64
}

// SyncConfig holds the reconciliation scheduler settings
type SyncConfig struct {
	Enabled  bool
	Interval time.Duration
	LockTTL  time.Duration // TTL of the system-wide run lock when redis is enabled
	Timezone string
}

// ScanConfig holds line-item lock settings for scan confirmation
type ScanConfig struct {
	LockTTL  time.Duration
	LockWait time.Duration
}

// StorageConfig holds S3 settings for the receipt backup archive
type StorageConfig struct {
	Enabled      bool
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	Prefix       string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsInterval   time.Duration
	LogsEnabled       bool // Ship zap entries to the collector; on by default when telemetry is enabled
	LogsLevel         string
	// Database tracing options
	DBTraceEnabled    bool          // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool          // Log full SQL statements (dev only)
	DBSlowQueryThresh time.Duration // Slow query threshold for warnings (default: 200ms)
}

// ProfilingConfig holds Pyroscope continuous profiling configuration.
// It is independent of telemetry.enabled and off by default.
type ProfilingConfig struct {
	Enabled           bool
	ServerAddress     string
	ApplicationName   string
	BasicAuthUser     string
	BasicAuthPassword string
	ProfileTypes      []string
	SpanProfiles      bool // Label CPU samples with span ids; needs telemetry.enabled
}

// Load loads configuration from .env, TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with GUARDA_ prefix (e.g., GUARDA_DATABASE_PASSWORD)
// 2. Legacy variable names (SIAC_BASE_URL, SIAC_SYNC_ENABLED)
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	// A missing .env is fine, the process environment is used as is.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("GUARDA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("siac.base_url", "GUARDA_SIAC_BASE_URL", "SIAC_BASE_URL")
	_ = v.BindEnv("sync.enabled", "GUARDA_SYNC_ENABLED", "SIAC_SYNC_ENABLED")

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		SIAC: SIACConfig{
			BaseURL:            v.GetString("siac.base_url"),
			Timeout:            v.GetDuration("siac.timeout"),
			InsecureSkipVerify: v.GetBool("siac.insecure_skip_verify"),
			UserAgent:          v.GetString("siac.user_agent"),
			StoreCode:          v.GetString("siac.store_code"),
			StoreName:          v.GetString("siac.store_name"),
			Region:             v.GetString("siac.region"),
			DefaultUserCode:    v.GetString("siac.default_user_code"),
			MaxResponseBytes:   v.GetInt64("siac.max_response_bytes"),
		},
		Sync: SyncConfig{
			Enabled:  v.GetBool("sync.enabled"),
			Interval: v.GetDuration("sync.interval"),
			LockTTL:  v.GetDuration("sync.lock_ttl"),
			Timezone: v.GetString("sync.timezone"),
		},
		Scan: ScanConfig{
			LockTTL:  v.GetDuration("scan.lock_ttl"),
			LockWait: v.GetDuration("scan.lock_wait"),
		},
		Storage: StorageConfig{
			Enabled:      v.GetBool("storage.enabled"),
			Endpoint:     v.GetString("storage.endpoint"),
			Region:       v.GetString("storage.region"),
			Bucket:       v.GetString("storage.bucket"),
			AccessKey:    v.GetString("storage.access_key"),
			SecretKey:    v.GetString("storage.secret_key"),
			UsePathStyle: v.GetBool("storage.use_path_style"),
			Prefix:       v.GetString("storage.prefix"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			LogsLevel:         v.GetString("telemetry.logs_level"),
		},
		Profiling: ProfilingConfig{
			Enabled:           v.GetBool("profiling.enabled"),
			ServerAddress:     v.GetString("profiling.server_address"),
			ApplicationName:   v.GetString("profiling.application_name"),
			BasicAuthUser:     v.GetString("profiling.basic_auth_user"),
			BasicAuthPassword: v.GetString("profiling.basic_auth_password"),
			ProfileTypes:      v.GetStringSlice("profiling.profile_types"),
			SpanProfiles:      v.GetBool("profiling.span_profiles"),
		},
	}

	// insecure_skip_verify defaults to true: SIAC serves a self-signed certificate.
	if !v.IsSet("siac.insecure_skip_verify") {
		cfg.SIAC.InsecureSkipVerify = true
	}
	if !v.IsSet("telemetry.logs_enabled") {
		cfg.Telemetry.LogsEnabled = true
	}
	if !v.IsSet("profiling.span_profiles") {
		cfg.Profiling.SpanProfiles = true
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "ze-do-bip-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "3000"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "zedobip"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	// Start/finish and manual sync wait on SIAC, which may take up to its own timeout.
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 90 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.SIAC.Timeout == 0 {
		cfg.SIAC.Timeout = 30 * time.Second
	}
	if cfg.SIAC.UserAgent == "" {
		cfg.SIAC.UserAgent = "ze-do-bip-backend/1.0"
	}
	if cfg.SIAC.StoreCode == "" {
		cfg.SIAC.StoreCode = "01"
	}
	if cfg.SIAC.StoreName == "" {
		cfg.SIAC.StoreName = "PECISTA"
	}
	if cfg.SIAC.Region == "" {
		cfg.SIAC.Region = "DF"
	}
	if cfg.SIAC.DefaultUserCode == "" {
		cfg.SIAC.DefaultUserCode = "8243"
	}
	if cfg.SIAC.MaxResponseBytes == 0 {
		cfg.SIAC.MaxResponseBytes = 10 << 20
	}
	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = time.Minute
	}
	if cfg.Sync.LockTTL == 0 {
		cfg.Sync.LockTTL = 10 * time.Minute
	}
	if cfg.Sync.Timezone == "" {
		cfg.Sync.Timezone = "America/Sao_Paulo"
	}
	if cfg.Scan.LockTTL == 0 {
		cfg.Scan.LockTTL = 15 * time.Second
	}
	if cfg.Scan.LockWait == 0 {
		cfg.Scan.LockWait = 5 * time.Second
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Prefix == "" {
		cfg.Storage.Prefix = "backups"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "ze-do-bip-backend"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 30 * time.Second
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Telemetry.LogsLevel == "" {
		cfg.Telemetry.LogsLevel = "info"
	}
	if cfg.Profiling.ApplicationName == "" {
		cfg.Profiling.ApplicationName = cfg.Telemetry.ServiceName
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Sync.Interval < time.Second {
		return fmt.Errorf("sync.interval must be at least 1s, got %s", c.Sync.Interval)
	}
	if c.Sync.Enabled && c.SIAC.BaseURL == "" {
		return fmt.Errorf("siac.base_url is required when sync is enabled")
	}
	if c.SIAC.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.SIAC.BaseURL); err != nil {
			return fmt.Errorf("siac.base_url is not a valid URL: %w", err)
		}
	}

	if c.Profiling.Enabled && c.Profiling.ServerAddress == "" {
		return fmt.Errorf("profiling.server_address is required when profiling is enabled")
	}

	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage is enabled")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// IsProduction reports whether the app runs in a production-like environment
func (a *AppConfig) IsProduction() bool {
	return a.Env == "production" || a.Env == "stage"
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
