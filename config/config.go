package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Server struct {
		Port    string `env:"PORT" envDefault:"5250"`
		GinMode string `env:"GIN_MODE" envDefault:"release"`

		// Comma separated list of origins allowed by CORS, "*" allows all
		AllowedOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	}

	Database struct {
		// Either "sqlite" or "mysql"
		Type string `env:"DB_TYPE" envDefault:"sqlite"`

		// SQLite database file
		Path string `env:"DB_PATH" envDefault:"database/listings.db"`

		MySQL struct {
			Host     string `env:"MYSQL_HOST" envDefault:"localhost"`
			Port     int    `env:"MYSQL_PORT" envDefault:"3306"`
			User     string `env:"MYSQL_USER" envDefault:"listings"`
			Password string `env:"MYSQL_PASSWORD"`
			Name     string `env:"MYSQL_DATABASE" envDefault:"listings"`
		}

		// Queries slower than this are logged as warnings (in milliseconds)
		SlowQueryMs int `env:"DB_SLOW_QUERY_MS" envDefault:"200"`
	}

	Log struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
	}

	Dashboard struct {
		// Window for the "new listings" metric (in days)
		RecencyWindowDays int `env:"DASHBOARD_RECENCY_DAYS" envDefault:"30"`

		// Window for the weekly trend series (in days)
		WeeklyTrendDays int `env:"DASHBOARD_WEEKLY_TREND_DAYS" envDefault:"90"`

		// Window for the monthly trend series (in days)
		MonthlyTrendDays int `env:"DASHBOARD_MONTHLY_TREND_DAYS" envDefault:"365"`

		// Number of loan types kept in the assumable listings chart
		TopLoanTypes int `env:"DASHBOARD_TOP_LOAN_TYPES" envDefault:"3"`
	}

	// BatchProcessing configures the listing import pipeline used by the seed command
	BatchProcessing struct {
		// Maximum number of listings per batch
		MaxBatchSize int `env:"BATCH_MAX_SIZE" envDefault:"100"`

		// Number of batches the import queue buffers
		QueueSize int `env:"BATCH_QUEUE_SIZE" envDefault:"64"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`
	}

	Seed struct {
		File string `env:"SEED_FILE" envDefault:"database/seed.yaml"`
	}
}

// LoadConfig reads an optional .env file and parses the environment into a Config.
func LoadConfig() (*Config, error) {
	// .env is optional, the real environment always wins
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported database type: %q", c.Database.Type)
	}

	windows := map[string]int{
		"DASHBOARD_RECENCY_DAYS":       c.Dashboard.RecencyWindowDays,
		"DASHBOARD_WEEKLY_TREND_DAYS":  c.Dashboard.WeeklyTrendDays,
		"DASHBOARD_MONTHLY_TREND_DAYS": c.Dashboard.MonthlyTrendDays,
		"DASHBOARD_TOP_LOAN_TYPES":     c.Dashboard.TopLoanTypes,
		"BATCH_MAX_SIZE":               c.BatchProcessing.MaxBatchSize,
		"BATCH_QUEUE_SIZE":             c.BatchProcessing.QueueSize,
	}
	for name, v := range windows {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	if c.BatchProcessing.MaxRetries < 0 || c.BatchProcessing.RetryDelay < 0 {
		return fmt.Errorf("batch retry settings must not be negative")
	}
	return nil
}

// MySQLDSN builds the go-sql-driver DSN for the configured MySQL database.
func (c *Config) MySQLDSN() string {
	m := c.Database.MySQL
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		m.User, m.Password, m.Host, m.Port, m.Name)
}

// SlowQueryThreshold returns the slow query threshold as a duration
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.Database.SlowQueryMs) * time.Millisecond
}

// RetryDelay returns the batch retry delay as a duration
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.BatchProcessing.RetryDelay) * time.Second
}
