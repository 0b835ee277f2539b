package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"listingpulse/server/config"
	"listingpulse/server/internal/models"
)

var (
	ErrMissingID       = errors.New("listing id is required")
	ErrListingNotFound = errors.New("listing not found")
)

// Database is the listing store. It is created once by the composition root
// and handed to every component that reads or writes listings.
type Database struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewDatabase opens the database selected by cfg.Database.Type.
func NewDatabase(cfg *config.Config, logger *logrus.Logger) (*Database, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Type {
	case "mysql":
		dialector = mysql.Open(cfg.MySQLDSN())
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dialector = sqlite.Open(sqliteDSN(cfg.Database.Path))
	}
	return Open(dialector, logger, cfg.SlowQueryThreshold())
}

// Open wraps an arbitrary gorm dialector, used directly by tests.
func Open(dialector gorm.Dialector, logger *logrus.Logger, slowQuery time.Duration) (*Database, error) {
	if logger == nil {
		logger = logrus.New()
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(logger, gormlogger.Config{
			SlowThreshold:             slowQuery,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{db: db, logger: logger}, nil
}

func sqliteDSN(path string) string {
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", path)
}

// Ping checks that the underlying connection is usable
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the underlying gorm handle
func (d *Database) GetDB() *gorm.DB {
	return d.db
}

// RunMigrations creates or updates the listing and mortgage tables
func (d *Database) RunMigrations() error {
	if err := d.db.AutoMigrate(&models.Listing{}, &models.AssumableMortgage{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// NewTestDB opens a migrated SQLite database in dir
func NewTestDB(dir string) (*Database, error) {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	db, err := Open(sqlite.Open(sqliteDSN(filepath.Join(dir, "test.db"))), logger, time.Second)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
