package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the service
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Gemini   GeminiConfig
	Storage  StorageConfig
	WhatsApp WhatsAppConfig
	SMS      SMSConfig
	Server   ServerConfig
	Worker   WorkerConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

// RedisConfig holds the Redis connection used for submission claims
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// GeminiConfig holds the Gemini classifier configuration
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// StorageConfig holds the FTP media storage configuration
type StorageConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	BaseURL  string
	BasePath string
}

// WhatsAppConfig holds the outbound WhatsApp gateway configuration
type WhatsAppConfig struct {
	GatewayURL string
	APIKey     string
}

// SMSConfig holds the Kavenegar SMS fallback configuration
type SMSConfig struct {
	APIKey string
	Sender string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
}

// WorkerConfig holds the background loop intervals
type WorkerConfig struct {
	ReminderInterval time.Duration
	SweepInterval    time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_DATABASE", "zapmygoal"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Gemini: GeminiConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			Timeout: getEnvAsDuration("GEMINI_TIMEOUT", 30*time.Second),
		},
		Storage: StorageConfig{
			Host:     getEnv("FTP_HOST", ""),
			Port:     getEnv("FTP_PORT", "21"),
			User:     getEnv("FTP_USER", ""),
			Password: getEnv("FTP_PASSWORD", ""),
			BaseURL:  getEnv("FTP_BASE_URL", ""),
			BasePath: getEnv("FTP_BASE_PATH", "challenge-proofs"),
		},
		WhatsApp: WhatsAppConfig{
			GatewayURL: getEnv("WHATSAPP_GATEWAY_URL", ""),
			APIKey:     getEnv("WHATSAPP_API_KEY", ""),
		},
		SMS: SMSConfig{
			APIKey: getEnv("SMS_API_KEY", ""),
			Sender: getEnv("SMS_SENDER", ""),
		},
		Server: ServerConfig{
			Port: getEnv("HTTP_PORT", "8080"),
		},
		Worker: WorkerConfig{
			ReminderInterval: getEnvAsDuration("REMINDER_INTERVAL", time.Minute),
			SweepInterval:    getEnvAsDuration("SWEEP_INTERVAL", time.Minute),
		},
	}
}

// getEnv gets an environment variable or returns a default value
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
