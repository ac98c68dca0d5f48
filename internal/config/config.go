package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"spendlens/internal/cashflow"
	"spendlens/internal/insights"
	"spendlens/internal/recurring"
)

// Config holds application configuration
type Config struct {
	// Server
	Port           string
	Env            string
	MaxUploadBytes int64

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Auth
	JWTSecret        string
	JWTExpirationDur time.Duration
	IngestAPIKey     string

	// Persistence
	FetchPageSize int

	// Insights
	AnomalyMultiplier       float64
	AlertTrailingPeriods    int
	SavingsDiscount         float64
	DiscretionaryCategories []string

	// Recurring & cash flow
	ExpiringWindowDays     int
	RecurringMinConfidence float64
	CashflowHorizonDays    int
	MerchantDictionaryPath string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "spendlens"),
		DBPassword: getEnv("DB_PASSWORD", "spendlens"),
		DBName:     getEnv("DB_NAME", "spendlens"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:    getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		IngestAPIKey: getEnv("INGEST_API_KEY", ""),

		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		FetchPageSize:  getEnvInt("FETCH_PAGE_SIZE", 500),

		AnomalyMultiplier:       getEnvFloat("ANOMALY_MULTIPLIER", insights.DefaultAnomalyMultiplier),
		AlertTrailingPeriods:    getEnvInt("ALERT_TRAILING_PERIODS", insights.DefaultTrailingPeriods),
		SavingsDiscount:         getEnvFloat("SAVINGS_DISCOUNT", insights.DefaultSavingsDiscount),
		DiscretionaryCategories: getEnvList("DISCRETIONARY_CATEGORIES", insights.DefaultDiscretionaryCategories),

		ExpiringWindowDays:     getEnvInt("EXPIRING_WINDOW_DAYS", recurring.DefaultExpiringWindowDays),
		RecurringMinConfidence: getEnvFloat("RECURRING_MIN_CONFIDENCE", recurring.DefaultMinConfidence),
		CashflowHorizonDays:    getEnvInt("CASHFLOW_HORIZON_DAYS", cashflow.DefaultHorizonDays),
		MerchantDictionaryPath: getEnv("MERCHANT_DICTIONARY_PATH", ""),
	}

	// Parse JWT expiration duration
	expStr := getEnv("JWT_EXPIRES_IN", "24h")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 24h\n", expStr)
		expDur = 24 * time.Hour
	}
	config.JWTExpirationDur = expDur

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// Insights returns the insight thresholds.
func (c *Config) Insights() insights.Config {
	cfg := insights.DefaultConfig()
	cfg.AnomalyMultiplier = c.AnomalyMultiplier
	cfg.TrailingPeriods = c.AlertTrailingPeriods
	cfg.SavingsDiscount = c.SavingsDiscount
	cfg.DiscretionaryCategories = c.DiscretionaryCategories
	return cfg
}

// Recurring returns the recurrence detector options.
func (c *Config) Recurring() recurring.Options {
	opts := recurring.DefaultOptions()
	opts.MinConfidence = c.RecurringMinConfidence
	opts.ExpiringWindowDays = c.ExpiringWindowDays
	return opts
}

// Cashflow returns the projector options.
func (c *Config) Cashflow() cashflow.Options {
	return cashflow.Options{HorizonDays: c.CashflowHorizonDays, Recurring: c.Recurring()}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %v\n", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getEnvList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
