package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// OAuthProviderConfig holds client credentials for one OAuth provider
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
}

// Configured returns whether the provider has credentials set
func (c *OAuthProviderConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// OAuthConfig holds OAuth provider and console URL configuration
type OAuthConfig struct {
	GitHub        OAuthProviderConfig
	Casdoor       OAuthProviderConfig
	ConsoleAPIURL string // base URL for provider redirect URIs
	ConsoleWebURL string // base URL for post-login and sign-in redirects
}

// FeatureConfig holds feature flags governing registration and workspace creation
type FeatureConfig struct {
	AllowRegister        bool
	AllowCreateWorkspace bool
	BillingEnabled       bool
}

// BillingConfig holds the billing service endpoint
type BillingConfig struct {
	BaseURL string
	APIKey  string
}

// Config holds all configuration
type Config struct {
	DB      DBConfig
	Server  ServerConfig
	JWT     JWTConfig
	Log     LogConfig
	Metrics MetricsConfig
	OAuth   OAuthConfig
	Feature FeatureConfig
	Billing BillingConfig
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Not returning error as .env file is optional
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	// Initialize config struct with values from environment
	config := &Config{
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", "console_service"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8082"),
			Env:  getEnv("APP_ENV", "development"),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SIGNING_KEY", "consoleservicesecretkey"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", "console"),
		},
		OAuth: OAuthConfig{
			GitHub: OAuthProviderConfig{
				ClientID:     getEnv("GITHUB_CLIENT_ID", ""),
				ClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
				AuthURL:      getEnv("GITHUB_AUTH_URL", "https://github.com/login/oauth/authorize"),
				TokenURL:     getEnv("GITHUB_TOKEN_URL", "https://github.com/login/oauth/access_token"),
				UserInfoURL:  getEnv("GITHUB_USER_INFO_URL", "https://api.github.com/user"),
			},
			Casdoor: OAuthProviderConfig{
				ClientID:     getEnv("CASDOOR_CLIENT_ID", ""),
				ClientSecret: getEnv("CASDOOR_CLIENT_SECRET", ""),
				AuthURL:      getEnv("CASDOOR_AUTH_URL", ""),
				TokenURL:     getEnv("CASDOOR_TOKEN_URL", ""),
				UserInfoURL:  getEnv("CASDOOR_USER_INFO_URL", ""),
			},
			ConsoleAPIURL: getEnv("CONSOLE_API_URL", "http://localhost:8082"),
			ConsoleWebURL: getEnv("CONSOLE_WEB_URL", "http://localhost:3000"),
		},
		Feature: FeatureConfig{
			AllowRegister:        getEnvAsBool("ALLOW_REGISTER", true),
			AllowCreateWorkspace: getEnvAsBool("ALLOW_CREATE_WORKSPACE", true),
			BillingEnabled:       getEnvAsBool("BILLING_ENABLED", false),
		},
		Billing: BillingConfig{
			BaseURL: getEnv("BILLING_API_URL", ""),
			APIKey:  getEnv("BILLING_API_KEY", ""),
		},
	}

	return config, nil
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("environment", c.Server.Env),
		zap.String("db_host", c.DB.Host),
		zap.String("db_port", c.DB.Port),
		zap.String("db_user", c.DB.User),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
		zap.String("console_web_url", c.OAuth.ConsoleWebURL),
	}
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as booleans
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
