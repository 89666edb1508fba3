package infra

import (
	"fmt"

	"eventpay/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// over the full model set, then applies the idempotent SQL patches that GORM
// cannot express (partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
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

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates/updates all tables. Also used by integration tests
// against a throwaway database.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Event{},
		&model.EventTicket{},
		&model.EventExpense{},
		&model.Inscription{},
		&model.Payment{},
		&model.PaymentInscription{},
		&model.PaymentAllocation{},
		&model.PaymentInstallment{},
		&model.FinancialMovement{},
		&model.CashRegister{},
		&model.CashRegisterEntry{},
		&model.CashRegisterTransfer{},
		&model.TicketSale{},
		&model.TicketSaleItem{},
		&model.TicketUnit{},
		&model.User{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Each statement uses IF NOT EXISTS semantics so re-running is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// Reversal walk and webhook compensation both query entries by their
		// installment correlation; partial index keeps it cheap since most
		// entries correlate to something else.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_cash_entries_installment') THEN
		    CREATE INDEX idx_cash_entries_installment
		        ON cash_register_entries (installment_id)
		        WHERE installment_id IS NOT NULL;
		  END IF;
		END $$`,
		// Unredeemed units are the hot set for the door scanner.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_ticket_units_unused') THEN
		    CREATE INDEX idx_ticket_units_unused
		        ON ticket_units (qr_code)
		        WHERE used_at IS NULL;
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("schema patch: %w", err)
		}
	}
	return nil
}
