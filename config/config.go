package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	HTTPAddr string

	MinProfit        float64
	MinProfitPercent float64

	CacheTTL     time.Duration
	ScanDeadline time.Duration
	PollInterval time.Duration

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int
	FetchTimeout   time.Duration

	// postgres | sqlite | csv | none
	StorageBackend string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	SQLitePath    string
	CSVOutputPath string

	ChromeBin string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		MinProfit:        getEnvFloat("MIN_PROFIT", 10.0),
		MinProfitPercent: getEnvFloat("MIN_PROFIT_PERCENT", 20.0),

		CacheTTL:     getEnvDuration("CACHE_TTL", 10*time.Minute),
		ScanDeadline: getEnvDuration("SCAN_DEADLINE", 2*time.Minute),
		PollInterval: getEnvDuration("POLL_INTERVAL", 500*time.Millisecond),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 4),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 1000),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		FetchTimeout:   getEnvDuration("FETCH_TIMEOUT", 30*time.Second),

		StorageBackend: getEnv("STORAGE_BACKEND", "none"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "flipscan"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "flipscan123"),
		PostgresDB:       getEnv("POSTGRES_DB", "flipscan_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		SQLitePath:    getEnv("SQLITE_PATH", "./flipscan.db"),
		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/opportunities.csv"),

		ChromeBin: getEnv("CHROME_BIN", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}
