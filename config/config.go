package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Policy evaluation modes
const (
	PolicyModeWarn  = "warn"
	PolicyModeBlock = "block"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	AuditDatabase *DatabaseConfig // Optional: separate DB for audit logs. When nil, audit uses main DB.
	Auth          AuthConfig
	Platform      PlatformConfig
	Credentials   CredentialsConfig
	Policy        PolicyConfig
	Redis         RedisConfig
	Audit         AuditConfig
	CORS          CORSConfig
	Observability ObservabilityConfig
	TenantsFile   string
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TLS             struct {
		Enabled  bool
		CertFile string
		KeyFile  string
	}
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// AuthConfig holds service-token validation configuration
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// PlatformConfig holds the external advertising platform configuration
type PlatformConfig struct {
	BaseURL        string
	APIVersion     string
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	RetryJitterMs  int
}

// CredentialsConfig holds the platform credential pool. TenantTokens maps a
// tenant id directly to a token; SharedTokens maps a credential reference
// shared by several tenants.
type CredentialsConfig struct {
	TenantTokens map[string]string
	SharedTokens map[string]string
}

// PolicyConfig holds mutation policy settings
type PolicyConfig struct {
	Mode                  string
	HourlyMutationLimit   int
	BudgetIncreaseCapPct  float64
	BroadTargetingAgeSpan int
	ExplicitBudgetOps     []string
	MaxTrackedTenants     int
}

// RedisConfig holds the optional shared mutation-window store configuration
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// AuditConfig holds the async audit pipeline configuration
type AuditConfig struct {
	BufferSize int
	Workers    int
}

// CORSConfig holds cross-origin settings for the HTTP surface
type CORSConfig struct {
	AllowedOrigins []string
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or text
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists (.env when run from the repo root)
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			TLS: struct {
				Enabled  bool
				CertFile string
				KeyFile  string
			}{
				Enabled:  getEnvAsBool("TLS_ENABLED", false),
				CertFile: getEnv("TLS_CERT_FILE", "certs/cert.pem"),
				KeyFile:  getEnv("TLS_KEY_FILE", "certs/key.pem"),
			},
		},
		Database:      loadDatabaseConfig(),
		AuditDatabase: loadAuditDatabaseConfig(),
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			Issuer:    getEnv("JWT_ISSUER", "ads-control-plane"),
		},
		Platform: PlatformConfig{
			BaseURL:        getEnv("PLATFORM_BASE_URL", "https://graph.facebook.com"),
			APIVersion:     getEnv("PLATFORM_API_VERSION", "v19.0"),
			Timeout:        getEnvAsDuration("PLATFORM_TIMEOUT", 30*time.Second),
			MaxRetries:     getEnvAsInt("PLATFORM_MAX_RETRIES", 3),
			RetryBaseDelay: getEnvAsDuration("PLATFORM_RETRY_BASE_DELAY", 500*time.Millisecond),
			RetryMaxDelay:  getEnvAsDuration("PLATFORM_RETRY_MAX_DELAY", 8*time.Second),
			RetryJitterMs:  getEnvAsInt("PLATFORM_RETRY_JITTER_MS", 250),
		},
		Credentials: CredentialsConfig{
			TenantTokens: getEnvAsMap("PLATFORM_TENANT_TOKENS"),
			SharedTokens: getEnvAsMap("PLATFORM_SHARED_TOKENS"),
		},
		Policy: PolicyConfig{
			Mode:                  getEnv("POLICY_MODE", PolicyModeWarn),
			HourlyMutationLimit:   getEnvAsInt("POLICY_HOURLY_MUTATION_LIMIT", 120),
			BudgetIncreaseCapPct:  getEnvAsFloat("POLICY_BUDGET_INCREASE_CAP_PCT", 50),
			BroadTargetingAgeSpan: getEnvAsInt("POLICY_BROAD_TARGETING_AGE_SPAN", 40),
			ExplicitBudgetOps:     getEnvAsSlice("POLICY_EXPLICIT_BUDGET_OPS", []string{"campaign.create", "adset.create"}),
			MaxTrackedTenants:     getEnvAsInt("POLICY_MAX_TRACKED_TENANTS", 10000),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Audit: AuditConfig{
			BufferSize: getEnvAsInt("AUDIT_BUFFER_SIZE", 1000),
			Workers:    getEnvAsInt("AUDIT_WORKERS", 2),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
		TenantsFile: getEnv("TENANTS_FILE", "tenants.yaml"),
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	// Database validation (DATABASE_URL or DB_* vars)
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	// Auth validation (required in production)
	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required in production")
	}

	// Platform validation
	if c.Platform.BaseURL == "" {
		return fmt.Errorf("platform base URL is required")
	}
	if c.Platform.APIVersion == "" {
		return fmt.Errorf("platform API version is required")
	}
	if c.Platform.MaxRetries < 0 {
		return fmt.Errorf("platform max retries must not be negative")
	}

	// Credential validation (at least one token required in production)
	if c.IsProduction() && len(c.Credentials.TenantTokens) == 0 && len(c.Credentials.SharedTokens) == 0 {
		return fmt.Errorf("at least one platform credential must be configured in production")
	}

	// Policy validation
	if c.Policy.Mode != PolicyModeWarn && c.Policy.Mode != PolicyModeBlock {
		return fmt.Errorf("policy mode must be %q or %q", PolicyModeWarn, PolicyModeBlock)
	}
	if c.Policy.HourlyMutationLimit <= 0 {
		return fmt.Errorf("hourly mutation limit must be positive")
	}
	if c.Policy.BudgetIncreaseCapPct <= 0 {
		return fmt.Errorf("budget increase cap must be positive")
	}
	if c.Policy.BroadTargetingAgeSpan <= 0 {
		return fmt.Errorf("broad targeting age span must be positive")
	}

	// Tenants file
	if c.TenantsFile == "" {
		return fmt.Errorf("tenants file path is required")
	}

	// Observability validation
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars
func loadDatabaseConfig() DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "dev"),
		Password:        getEnv("DB_PASSWORD", "adsplane_password"),
		Database:        getEnv("DB_NAME", "adsplane"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// loadAuditDatabaseConfig loads audit DB config from DATABASE_URL_AUDIT.
// Returns nil when not set (audit uses main DB).
func loadAuditDatabaseConfig() *DatabaseConfig {
	dbURL := getEnv("DATABASE_URL_AUDIT", "")
	if dbURL == "" {
		return nil
	}
	return &DatabaseConfig{
		ConnectionString: dbURL,
		MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice parses a comma-separated env var
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}

// getEnvAsMap parses a comma-separated key=value env var
func getEnvAsMap(key string) map[string]string {
	valueStr := os.Getenv(key)
	values := make(map[string]string)
	if valueStr == "" {
		return values
	}
	for _, pair := range strings.Split(valueStr, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) != 2 || kv[0] == "" || kv[1] == "" {
			continue
		}
		values[kv[0]] = kv[1]
	}
	return values
}
