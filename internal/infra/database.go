package infra

import (
	"errors"
	"fmt"

	"github.com/CJosueA/Sistema-Facturacion/internal/model"

	migrate "github.com/golang-migrate/migrate/v4"
	// Register the postgres driver and the file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a GORM connection backed by pgx and sizes the pool.
// Schema management is left to RunMigrations / RunSQLMigrations.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return db, nil
}

// Models lists every persisted type, parents first.
func Models() []interface{} {
	return []interface{}{
		&model.Product{},
		&model.Customer{},
		&model.CompanyProfile{},
		&model.Invoice{},
		&model.InvoiceDetail{},
		&model.InvoiceSequence{},
		&model.Movement{},
		&model.PriceHistory{},
		&model.InvoiceDocument{},
	}
}

// RunMigrations creates/updates tables from the models and then applies the
// idempotent patches GORM cannot express. Works on postgres and sqlite.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// RunSQLMigrations applies the versioned SQL files under sourceURL
// (e.g. "file://migrations") with golang-migrate, then the same patches.
func RunSQLMigrations(db *gorm.DB, dsn, sourceURL string) error {
	m, err := migrate.New(sourceURL, dsn)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent statements that AutoMigrate cannot
// handle: the invoice number sequence, the partial index used by the retry
// cron and the counter row for dialects without sequences.
func applySchemaPatches(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		seq := model.InvoiceSequence{Name: model.InvoiceSequenceName}
		return db.Where(model.InvoiceSequence{Name: model.InvoiceSequenceName}).FirstOrCreate(&seq).Error
	}

	patches := []string{
		`CREATE SEQUENCE IF NOT EXISTS invoice_number_seq START 1`,
		`CREATE INDEX IF NOT EXISTS idx_invoice_documents_pending_retry
		     ON invoice_documents (next_retry_at)
		     WHERE status = 'pending' AND next_retry_at IS NOT NULL`,
	}
	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
