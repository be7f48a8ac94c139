package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL    PostgreSQLConfig
	Server        ServerConfig
	Search        SearchConfig
	Dialogue      DialogueConfig
	Redis         RedisConfig
	Logging       LoggingConfig
	OpenAI        OpenAIConfig
	Notifications NotificationConfig
	Seed          SeedConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, takes precedence over the fields below
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// SearchConfig holds load search configuration
type SearchConfig struct {
	DefaultLimit   int
	MaxLimit       int
	CandidateLimit int // rows fetched from the database before ranking
}

// DialogueConfig holds conversation state configuration
type DialogueConfig struct {
	SuppressionWindow  time.Duration
	MaxHistoryMessages int
	SessionBackend     string // "memory" or "redis"
	SessionTTL         time.Duration
}

// RedisConfig holds Redis configuration for the session store
type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// OpenAIConfig holds OpenAI-compatible API configuration
type OpenAIConfig struct {
	APIKey          string
	APIBase         string
	ChatModel       string
	ChatTemperature float64
	ChatTopP        float64
	ChatMaxTokens   int
	ChatExtraBody   string // JSON string for extra_body (e.g., {"chat_template_kwargs":{"thinking":false}})
	Timeout         int
	Enabled         bool
}

// NotificationConfig holds operator notification configuration
type NotificationConfig struct {
	Backend     string // "log" or "sns"
	SNSTopicARN string
	AWSRegion   string
	Timeout     time.Duration
}

// SeedConfig points at demo data used when no database is configured
type SeedConfig struct {
	File string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("POSTGRESQL_URI", getEnv("PG_DSN", ""))),
			Host:               getEnv("PG_HOST", ""),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "freight"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
		},
		Search: SearchConfig{
			DefaultLimit:   getEnvAsInt("SEARCH_DEFAULT_LIMIT", 5),
			MaxLimit:       getEnvAsInt("SEARCH_MAX_LIMIT", 50),
			CandidateLimit: getEnvAsInt("SEARCH_CANDIDATE_LIMIT", 200),
		},
		Dialogue: DialogueConfig{
			SuppressionWindow:  getEnvAsDuration("DIALOGUE_SUPPRESSION_WINDOW", 30*time.Second),
			MaxHistoryMessages: getEnvAsInt("DIALOGUE_MAX_HISTORY_MESSAGES", 20),
			SessionBackend:     getEnv("SESSION_BACKEND", "memory"),
			SessionTTL:         getEnvAsDuration("SESSION_TTL", 2*time.Hour),
		},
		Redis: RedisConfig{
			Address:   getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "freightchat:session:"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		OpenAI: OpenAIConfig{
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			APIBase:         getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
			ChatModel:       getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			ChatTemperature: getEnvAsFloat("OPENAI_CHAT_TEMPERATURE", 0.3),
			ChatTopP:        getEnvAsFloat("OPENAI_CHAT_TOP_P", 0.9),
			ChatMaxTokens:   getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 1024),
			ChatExtraBody:   getEnv("OPENAI_CHAT_EXTRA_BODY", ""),
			Timeout:         getEnvAsInt("OPENAI_TIMEOUT", 30),
			Enabled:         getEnv("OPENAI_API_KEY", "") != "" && getEnvAsBool("OPENAI_ENABLED", true),
		},
		Notifications: NotificationConfig{
			Backend:     getEnv("NOTIFY_BACKEND", "log"),
			SNSTopicARN: getEnv("NOTIFY_SNS_TOPIC_ARN", ""),
			AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
			Timeout:     getEnvAsDuration("NOTIFY_TIMEOUT", 5*time.Second),
		},
		Seed: SeedConfig{
			File: getEnv("SEED_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail later at wiring time
func (c *Config) Validate() error {
	switch c.Dialogue.SessionBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid SESSION_BACKEND %q, must be one of: memory, redis", c.Dialogue.SessionBackend)
	}
	switch c.Notifications.Backend {
	case "log":
	case "sns":
		if c.Notifications.SNSTopicARN == "" {
			return fmt.Errorf("NOTIFY_SNS_TOPIC_ARN is required when NOTIFY_BACKEND=sns")
		}
	default:
		return fmt.Errorf("invalid NOTIFY_BACKEND %q, must be one of: log, sns", c.Notifications.Backend)
	}
	if c.Dialogue.SuppressionWindow <= 0 {
		return fmt.Errorf("DIALOGUE_SUPPRESSION_WINDOW must be positive")
	}
	if c.Search.DefaultLimit <= 0 || c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf("invalid search limits: default %d, max %d", c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	if c.Search.CandidateLimit <= 0 {
		return fmt.Errorf("SEARCH_CANDIDATE_LIMIT must be positive")
	}
	return nil
}

// HasDatabase reports whether PostgreSQL connection settings were provided
func (c *Config) HasDatabase() bool {
	return c.PostgreSQL.DSN != "" || c.PostgreSQL.Host != ""
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
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
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
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
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration value for %s, using default %s", key, defaultValue)
		return defaultValue
	}
	return value
}
