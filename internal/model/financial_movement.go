package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Financial movement types.
const (
	MovementIncome     = "INCOME"
	MovementExpense    = "EXPENSE"
	MovementAdjustment = "ADJUSTMENT"
)

// FinancialMovement is an append-style ledger row. Never mutated after
// creation; deleted only in bulk when its owning installment or expense is
// reversed/removed. Exactly one of AccountID / GuestEmail / InscriptionID
// identifies the counterparty, depending on how the payment was registered.
type FinancialMovement struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EventID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	AccountID     *uuid.UUID `gorm:"type:uuid"`
	GuestEmail    *string
	InscriptionID *uuid.UUID      `gorm:"type:uuid"`
	Type          string          `gorm:"type:varchar(20);not null"`
	Value         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt     time.Time
}
