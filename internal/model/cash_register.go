package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cash register status values.
const (
	RegisterOpen   = "OPEN"
	RegisterClosed = "CLOSED"
)

// Cash register entry types.
const (
	EntryIncome  = "INCOME"
	EntryExpense = "EXPENSE"
)

// CashRegister holds a running balance that is strictly derived from its
// entries and transfers:
//
//	balance == opening + Σ income − Σ expense + Σ transfers in − Σ transfers out
//
// Direct balance writes are forbidden — the cash service is the only writer,
// and always inside the same transaction as the entry/transfer row.
type CashRegister struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name           string          `gorm:"not null"`
	RegionID       *uuid.UUID      `gorm:"type:uuid;index"`
	Status         string          `gorm:"type:varchar(20);not null;default:'OPEN'"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Balance        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	OpenedAt       time.Time
	ClosedAt       *time.Time

	Entries []CashRegisterEntry `gorm:"foreignKey:CashRegisterID"`
}

// ErrEntryCorrelation is returned when an entry does not reference exactly
// one origin.
var ErrEntryCorrelation = errors.New("cash entry must reference exactly one origin")

// CashRegisterEntry is an immutable income/expense record. Exactly one of the
// correlation references below must be set — it is a discriminated link, not
// five independently-optional foreign keys. Entries are never updated or
// deleted; corrections create inverse entries.
type CashRegisterEntry struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CashRegisterID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type           string          `gorm:"type:varchar(20);not null"`
	Method         string          `gorm:"type:varchar(20);not null"`
	Value          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description    string          `gorm:"not null"`

	// Correlation references — exactly one non-nil per row.
	EventID       *uuid.UUID `gorm:"type:uuid"`
	InstallmentID *uuid.UUID `gorm:"type:uuid;index"`
	InscriptionID *uuid.UUID `gorm:"type:uuid"`
	ExpenseID     *uuid.UUID `gorm:"type:uuid"`
	TicketSaleID  *uuid.UUID `gorm:"type:uuid"`

	CreatedAt time.Time
}

// ValidateCorrelation enforces the exactly-one rule.
func (e *CashRegisterEntry) ValidateCorrelation() error {
	n := 0
	for _, ref := range []*uuid.UUID{e.EventID, e.InstallmentID, e.InscriptionID, e.ExpenseID, e.TicketSaleID} {
		if ref != nil {
			n++
		}
	}
	if n != 1 {
		return ErrEntryCorrelation
	}
	return nil
}

// CashRegisterTransfer is the single audit row for an atomic pairwise balance
// move — a transfer writes one of these, not two entries.
type CashRegisterTransfer struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FromCashID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ToCashID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Value       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description *string
	Responsible *string
	CreatedAt   time.Time
}
