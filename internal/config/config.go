package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Authorization strategies.
const (
	AuthStrategyTTL    = "ttl"
	AuthStrategyDirect = "direct"
)

// Database drivers.
const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

// Config holds application configuration
type Config struct {
	// Runtime
	Env      string
	LogLevel string

	// Admin API
	Port        string
	AdminAPIKey string

	// Chat gateway
	TelegramBotToken string
	BotWorkers       int
	CurrencySymbol   string
	Location         *time.Location
	RecentLimit      int
	FamilyLimit      int

	// Database
	DBDriver       string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	SQLitePath     string
	DBQueryTimeout time.Duration

	// Inference
	InferenceHost        string
	InferenceModel       string
	InferenceTemperature float64
	InferenceMaxTokens   int
	InferenceTimeout     time.Duration

	// Parsing
	ReconcileTolerance decimal.Decimal
	CategoriesFile     string

	// Authorization
	AuthStrategy string
	AuthCacheTTL time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", ""),

		Port:        getEnv("PORT", "8080"),
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		BotWorkers:       getInt("BOT_WORKERS", 1),
		CurrencySymbol:   getEnv("CURRENCY_SYMBOL", "£"),
		RecentLimit:      getInt("RECENT_LIMIT", 10),
		FamilyLimit:      getInt("FAMILY_LIMIT", 15),

		DBDriver:       getEnv("DB_DRIVER", DBDriverPostgres),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "famledger"),
		DBPassword:     getEnv("DB_PASSWORD", "famledger"),
		DBName:         getEnv("DB_NAME", "famledger"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		SQLitePath:     getEnv("SQLITE_PATH", "famledger.db"),
		DBQueryTimeout: getDuration("DB_QUERY_TIMEOUT", 10*time.Second),

		InferenceHost:        getEnv("INFERENCE_HOST", "http://ollama:11434"),
		InferenceModel:       getEnv("INFERENCE_MODEL", "llama3.2"),
		InferenceTemperature: getFloat("INFERENCE_TEMPERATURE", 0.1),
		InferenceMaxTokens:   getInt("INFERENCE_MAX_TOKENS", 150),
		InferenceTimeout:     getDuration("INFERENCE_TIMEOUT", 30*time.Second),

		ReconcileTolerance: getDecimal("RECONCILE_TOLERANCE", decimal.NewFromFloat(0.01)),
		CategoriesFile:     getEnv("CATEGORIES_FILE", ""),

		AuthStrategy: getEnv("AUTH_STRATEGY", AuthStrategyTTL),
		AuthCacheTTL: getDuration("AUTH_CACHE_TTL", 5*time.Minute),
	}

	switch config.DBDriver {
	case DBDriverPostgres, DBDriverSQLite:
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER %q: must be %s or %s", config.DBDriver, DBDriverPostgres, DBDriverSQLite)
	}

	switch config.AuthStrategy {
	case AuthStrategyTTL, AuthStrategyDirect:
	default:
		return nil, fmt.Errorf("invalid AUTH_STRATEGY %q: must be %s or %s", config.AuthStrategy, AuthStrategyTTL, AuthStrategyDirect)
	}

	tz := getEnv("TIMEZONE", "Local")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("Warning: invalid TIMEZONE value '%s', falling back to Local\n", tz)
		loc = time.Local
	}
	config.Location = loc

	if config.BotWorkers < 1 {
		config.BotWorkers = 1
	}

	return config, nil
}

// PostgresDSN returns the PostgreSQL connection string
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// MigrationURL returns the database URL understood by golang-migrate.
func (c *Config) MigrationURL() string {
	if c.DBDriver == DBDriverSQLite {
		return "sqlite3://" + c.SQLitePath
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %v\n", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func getDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}
