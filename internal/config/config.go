package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	Port                string
	DatabaseURL         string
	Version             string
	LogLevel            string
	OpenAIKey           string
	OpenAITimeout       int     // Classifier call timeout in seconds
	ConfidenceThreshold float64 // Minimum classifier confidence to avoid manual review
	GithubToken         string
	GithubAPIURL        string
	SendGridAPIKey      string
	InboxAddress        string // Central inbox address used as the forwarding sender
	RedisURL            string // Optional; enables the Redis-backed dispatch ledger
	DispatchMaxAttempts int    // Retry budget for transient dispatch failures
	DispatchTimeout     int    // Per-attempt dispatch timeout in seconds
	SnapshotTTL         int    // Client/rule snapshot cache TTL in seconds
}

// Load initializes and returns application configuration
func Load() *Config {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		Version:             getEnv("VERSION", "1.0.0"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		OpenAIKey:           os.Getenv("OPENAI_API_KEY"),
		OpenAITimeout:       getEnvInt("OPENAI_TIMEOUT", 5),
		ConfidenceThreshold: getEnvFloat("CONFIDENCE_THRESHOLD", 0.70),
		GithubToken:         os.Getenv("GITHUB_TOKEN"),
		GithubAPIURL:        getEnv("GITHUB_API_URL", "https://api.github.com"),
		SendGridAPIKey:      os.Getenv("SENDGRID_API_KEY"),
		InboxAddress:        getEnv("INBOX_ADDRESS", "inbox@example.com"),
		RedisURL:            os.Getenv("REDIS_URL"),
		DispatchMaxAttempts: getEnvInt("DISPATCH_MAX_ATTEMPTS", 3),
		DispatchTimeout:     getEnvInt("DISPATCH_TIMEOUT", 10),
		SnapshotTTL:         getEnvInt("SNAPSHOT_TTL", 30),
	}

	return config
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as integer with a default fallback
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets an environment variable as float with a default fallback
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// SetupLogger configures zerolog with JSON output and single-line format
func (c *Config) SetupLogger() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "smartinbox").
		Str("version", c.Version).
		Logger()

	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	return logger
}
