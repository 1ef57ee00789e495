// ============================================================================
// internal/shared/config.go
// Configuration management and environment variable helpers
// ============================================================================

package shared

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ============================================================================
// Configuration Structs
// ============================================================================

// ServerConfig holds all configuration for the portal server
type ServerConfig struct {
	ServiceName string
	HTTPPort    string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error

	// MongoDB Configuration
	MongoDB MongoConfig

	// Redis Configuration (summary cache; optional)
	Redis RedisConfig

	// Security Configuration
	Security SecurityConfig

	// CORS Configuration
	CORS CORSConfig
}

// RedisConfig holds redis cache configuration
type RedisConfig struct {
	Addr    string // empty disables the cache
	TTL     time.Duration
	Enabled bool
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	JWTSecret          string
	JWTExpirationHours int
	BCryptCost         int // BCrypt hashing cost (10-12 recommended)
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int // in seconds
}

// ============================================================================
// Configuration Loading Functions
// ============================================================================

// LoadEnv loads environment variables from .env file
func LoadEnv(envFile string) error {
	if envFile == "" {
		envFile = ".env"
	}

	if err := godotenv.Load(envFile); err != nil {
		log.Printf("Warning: %s file not found, using system environment variables", envFile)
		return err
	}

	log.Printf("Successfully loaded environment from %s", envFile)
	return nil
}

// LoadServerConfig loads server configuration from environment
func LoadServerConfig() (*ServerConfig, error) {
	config := &ServerConfig{
		ServiceName: GetEnv("SERVICE_NAME", "student-portal"),
		HTTPPort:    GetEnv("HTTP_PORT", "8080"),
		Environment: GetEnv("ENVIRONMENT", "development"),
		LogLevel:    GetEnv("LOG_LEVEL", "info"),
	}

	// Load MongoDB configuration
	mongoURI := GetEnv("MONGO_URI", "")
	if mongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI environment variable is required")
	}

	config.MongoDB = MongoConfig{
		URI:            mongoURI,
		Database:       GetEnv("MONGO_DB_NAME", "StudentPortal"),
		ConnectTimeout: GetDurationEnv("MONGO_CONNECT_TIMEOUT", 20*time.Second),
		MaxPoolSize:    uint64(GetIntEnv("MONGO_MAX_POOL_SIZE", 50)),
		MinPoolSize:    uint64(GetIntEnv("MONGO_MIN_POOL_SIZE", 10)),
		MaxIdleTime:    GetDurationEnv("MONGO_MAX_IDLE_TIME", 30*time.Second),
	}

	// Load redis configuration
	redisAddr := GetEnv("REDIS_ADDR", "")
	config.Redis = RedisConfig{
		Addr:    redisAddr,
		TTL:     GetDurationEnv("CACHE_TTL", 5*time.Minute),
		Enabled: redisAddr != "",
	}

	// Load security configuration
	config.Security = SecurityConfig{
		JWTSecret:          GetEnv("JWT_SECRET", ""),
		JWTExpirationHours: GetIntEnv("JWT_EXPIRATION_HOURS", 24),
		BCryptCost:         GetIntEnv("BCRYPT_COST", 10),
	}

	if config.Security.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	// Load CORS configuration
	config.CORS = CORSConfig{
		AllowedOrigins:   GetStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		AllowedMethods:   GetStringSliceEnv("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}),
		AllowedHeaders:   GetStringSliceEnv("CORS_ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type"}),
		AllowCredentials: GetBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		MaxAge:           GetIntEnv("CORS_MAX_AGE", 300),
	}

	return config, nil
}

// ============================================================================
// Environment Variable Helper Functions
// ============================================================================

// GetEnv retrieves an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetIntEnv retrieves an integer environment variable or returns a default value
func GetIntEnv(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// GetBoolEnv retrieves a boolean environment variable or returns a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean value for %s: %s, using default: %t", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// GetDurationEnv retrieves a duration environment variable or returns a default value
// Supports format like "30s", "5m", "1h"
func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration value for %s: %s, using default: %v", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// GetStringSliceEnv retrieves a comma-separated string list or returns a default value
func GetStringSliceEnv(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var result []string
	for _, part := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}

// ============================================================================
// Configuration Validation
// ============================================================================

// ValidateServerConfig validates server configuration
func ValidateServerConfig(config *ServerConfig) error {
	if config.HTTPPort == "" {
		return fmt.Errorf("HTTP port is required")
	}

	if config.MongoDB.URI == "" {
		return fmt.Errorf("MongoDB URI is required")
	}

	if config.MongoDB.Database == "" {
		return fmt.Errorf("MongoDB database name is required")
	}

	if config.Security.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	return nil
}

// ============================================================================
// Environment-Specific Configuration
// ============================================================================

// IsDevelopment checks if running in development environment
func IsDevelopment(config *ServerConfig) bool {
	return config.Environment == "development"
}

// IsProduction checks if running in production environment
func IsProduction(config *ServerConfig) bool {
	return config.Environment == "production"
}

// ============================================================================
// Configuration Display (for debugging)
// ============================================================================

// PrintConfig prints configuration (sanitized) for debugging
func PrintConfig(config *ServerConfig) {
	log.Println("=== Server Configuration ===")
	log.Printf("Service Name: %s", config.ServiceName)
	log.Printf("HTTP Port: %s", config.HTTPPort)
	log.Printf("Environment: %s", config.Environment)
	log.Println("=== MongoDB Configuration ===")
	log.Printf("Database: %s", config.MongoDB.Database)
	log.Printf("Max Pool Size: %d", config.MongoDB.MaxPoolSize)
	log.Printf("Min Pool Size: %d", config.MongoDB.MinPoolSize)
	log.Println("=== Cache Configuration ===")
	log.Printf("Redis Enabled: %t", config.Redis.Enabled)
	log.Printf("Cache TTL: %v", config.Redis.TTL)
	log.Println("=== Security Configuration ===")
	log.Printf("JWT Expiration: %d hours", config.Security.JWTExpirationHours)
	log.Printf("BCrypt Cost: %d", config.Security.BCryptCost)
	log.Println("============================")
}
