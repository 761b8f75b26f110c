package storage

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// SQLiteAdapter persists audit entries using GORM and SQLite.
type SQLiteAdapter struct {
	db *gorm.DB
}

// AuditLogModel is the GORM model for audit entries.
type AuditLogModel struct {
	ID        uint   `gorm:"primaryKey"`
	Action    string `gorm:"index"`
	Status    string
	Vector    string
	Score     float64
	Severity  string `gorm:"index"`
	Details   string
	RequestID string
	Transport string
	IPAddress string
	UserAgent string
	Timestamp time.Time `gorm:"index"`
}

// TableName pins the table name independent of GORM's naming strategy.
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// Options tune the adapter.
type Options struct {
	// Tracing adds OpenTelemetry spans around every query.
	Tracing bool
}

// NewSQLiteAdapter initializes the database and migrates schema.
func NewSQLiteAdapter(path string, opts Options) (*SQLiteAdapter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if opts.Tracing {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, fmt.Errorf("failed to enable query tracing: %w", err)
		}
	}

	if err := db.AutoMigrate(&AuditLogModel{}); err != nil {
		return nil, err
	}

	return &SQLiteAdapter{db: db}, nil
}

// Close closes the underlying connection pool.
func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
