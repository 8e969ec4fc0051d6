package persistence

import (
	"fmt"
	"time"

	"github.com/erp/returns/internal/infrastructure/config"
	"github.com/erp/returns/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens a PostgreSQL connection pool sized from configuration
func NewDatabase(cfg *config.DatabaseConfig, logger gormlogger.Interface) (*Database, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Database{DB: db}, nil
}

// NewSQLiteDatabase opens an SQLite database and creates the schema.
// dsn ":memory:" gives a private in-memory database; the pool is pinned to
// one connection so every query sees the same data.
func NewSQLiteDatabase(dsn string, logger gormlogger.Interface) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(AllModels()...); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Database{DB: db}, nil
}

func gormConfig(logger gormlogger.Interface) *gorm.Config {
	if logger == nil {
		logger = gormlogger.Discard
	}
	return &gorm.Config{
		Logger:                 logger,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}
}

// AllModels lists every table the service owns or reads
func AllModels() []any {
	return []any{
		&models.StoreModel{},
		&models.OrderModel{},
		&models.OrderItemModel{},
		&models.ReturnRequestModel{},
		&models.ReturnLineModel{},
		&models.ShippingRuleModel{},
		&models.StockRecordModel{},
		&models.StockReservationModel{},
		&models.PaymentSplitModel{},
		&models.LedgerEntryModel{},
		&models.InvoiceModel{},
		&models.CreditNoteModel{},
		&models.SequenceCounterModel{},
		&models.OutboxEntryModel{},
		&models.AuditLogModel{},
	}
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}
