package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nse_screener_backend/services/indicator"
)

type Config struct {
	Port        string
	Environment string

	// Local SQLite price database (the default bar source).
	PricesDB string

	// Optional Postgres bar store; used when DBHost is set.
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	BenchmarkSymbol string
	EnableRelative  bool

	JWTSecret         string
	AdminUsername     string
	AdminPasswordHash string

	MongoURI  string
	RefreshAt string // daily recompute time, HH:MM
}

// LoadConfig loads environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Port:              getEnv("PORT", "8080"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		PricesDB:          getEnv("PRICES_DB", "prices.db"),
		DBHost:            getEnv("DB_HOST", ""),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBName:            getEnv("DB_NAME", "nse_screener"),
		BenchmarkSymbol:   getEnv("BENCHMARK_SYMBOL", "^NSEI"),
		EnableRelative:    getEnv("ENABLE_RELATIVE", "true") == "true",
		JWTSecret:         getEnv("JWT_SECRET", "change-me"),
		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		MongoURI:          getEnv("MONGODB_URI", ""),
		RefreshAt:         getEnv("REFRESH_AT", "16:30"),
	}

	return config, nil
}

// UsePostgres reports whether the Postgres bar store is configured.
func (c *Config) UsePostgres() bool {
	return c.DBHost != ""
}

// IndicatorConfig builds the engine configuration from the environment.
func (c *Config) IndicatorConfig() indicator.Config {
	cfg := indicator.DefaultConfig()
	cfg.BenchmarkSymbol = c.BenchmarkSymbol
	cfg.EnableRelative = c.EnableRelative
	return cfg
}

// InitDB initializes the Postgres connection
func InitDB(c *Config) (*gorm.DB, error) {
	// Log connection info (masked for security)
	log.Printf("Connecting to database: host=%s port=%s user=%s dbname=%s",
		maskHost(c.DBHost),
		c.DBPort,
		c.DBUser,
		c.DBName,
	)

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=require TimeZone=Asia/Kolkata",
		c.DBHost,
		c.DBUser,
		c.DBPassword,
		c.DBName,
		c.DBPort,
	)

	var logLevel logger.LogLevel
	if c.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		log.Printf("Database connection error: %v", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection with ping
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Failed to get underlying database: %v", err)
		return nil, fmt.Errorf("failed to get database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Printf("Database ping failed: %v", err)
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	log.Printf("Database connection verified successfully")
	return db, nil
}

// maskHost masks host for logging, preserving domain structure
func maskHost(host string) string {
	if len(host) <= 3 {
		return "***"
	}
	if len(host) <= 15 {
		return host[:3] + "***"
	}
	return host[:8] + "***" + host[len(host)-10:]
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
