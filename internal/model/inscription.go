package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Inscription status values. Debt clearance is independent of the lifecycle:
// an approval never flips the status, but a reversal that drops PaidValue
// below TotalValue moves the inscription back to PENDING.
const (
	InscriptionPending = "PENDING"
	InscriptionPaid    = "PAID"
)

// Inscription is one participant registration with a debt balance.
// Outstanding debt is TotalValue − PaidValue; "fully paid" is checked with
// PaidValue >= TotalValue to tolerate gateway rounding.
type Inscription struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EventID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	AccountID  *uuid.UUID `gorm:"type:uuid;index"`
	GuestEmail *string
	Name       string          `gorm:"not null"`
	TotalValue decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaidValue  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Status     string          `gorm:"type:varchar(20);not null;default:'PENDING'"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Outstanding returns the remaining debt, floored at zero.
func (i *Inscription) Outstanding() decimal.Decimal {
	out := i.TotalValue.Sub(i.PaidValue)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}
