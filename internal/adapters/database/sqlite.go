package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SQLiteConfig contains configuration for the embedded analytics database
type SQLiteConfig struct {
	// Path of the database file. Empty keeps the database in memory.
	Path string

	// BusyTimeout is how long a statement waits on a locked database
	BusyTimeout time.Duration

	// QueryTimeout bounds a single store operation
	QueryTimeout time.Duration
}

// DefaultSQLiteConfig returns default configuration
func DefaultSQLiteConfig(path string) *SQLiteConfig {
	return &SQLiteConfig{
		Path:         path,
		BusyTimeout:  5 * time.Second,
		QueryTimeout: 5 * time.Second,
	}
}

// DSN returns the driver connection string
func (c *SQLiteConfig) DSN() string {
	if c.Path == "" {
		return "file::memory:"
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		c.Path, c.BusyTimeout.Milliseconds())
}

// SQLiteAdapter owns the single connection to the embedded database.
// One open connection makes every statement run in submission order.
type SQLiteAdapter struct {
	db     *gorm.DB
	sqlDB  *sql.DB
	logger *zap.Logger
	config *SQLiteConfig
}

// NewSQLiteAdapter opens the database and migrates the schema
func NewSQLiteAdapter(ctx context.Context, cfg *SQLiteConfig, logger *zap.Logger) (*SQLiteAdapter, error) {
	db, err := gorm.Open(sqlite.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open analytics database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access analytics database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping analytics database: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&analyticsEventRow{}, &settingRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate analytics database: %w", err)
	}

	logger.Info("Analytics database initialized",
		zap.String("path", displayPath(cfg.Path)),
	)

	return &SQLiteAdapter{
		db:     db,
		sqlDB:  sqlDB,
		logger: logger,
		config: cfg,
	}, nil
}

func displayPath(path string) string {
	if path == "" {
		return ":memory:"
	}
	return path
}

// DB returns a session bound to ctx with the configured query timeout
func (a *SQLiteAdapter) DB(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	if a.config.QueryTimeout <= 0 {
		return a.db.WithContext(ctx), func() {}
	}
	ctx, cancel := context.WithTimeout(ctx, a.config.QueryTimeout)
	return a.db.WithContext(ctx), cancel
}

// WithTx executes fn within a transaction.
// If fn returns an error the transaction is rolled back.
func (a *SQLiteAdapter) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db, cancel := a.DB(ctx)
	defer cancel()

	if err := db.Transaction(fn); err != nil {
		return err
	}
	return nil
}

// HealthCheck pings the database
func (a *SQLiteAdapter) HealthCheck(ctx context.Context) error {
	return a.sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (a *SQLiteAdapter) Close() error {
	a.logger.Info("Closing analytics database")
	return a.sqlDB.Close()
}
