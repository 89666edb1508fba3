package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event is the owning aggregate for inscriptions, payments and tickets.
// AmountCollected is a denormalized counter tracking the gross value of
// approved payments — a derived cache kept in sync incrementally on the hot
// path and recomputable from the ledger by the reconciliation service.
type Event struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name            string          `gorm:"not null"`
	AmountCollected decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	StartsAt        time.Time
	EndsAt          time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EventTicket carries finite inventory. Invariant: 0 <= Available <= Quantity
// at all times; Available only changes through the inventory guard's atomic
// conditional updates, never through read-then-write from callers.
type EventTicket struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EventID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name      string          `gorm:"not null"`
	Quantity  int             `gorm:"not null"`
	Available int             `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EventExpense is a recorded cost against an event. It produces an EXPENSE
// financial movement and, when paid out of a register, a correlated cash
// entry.
type EventExpense struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EventID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description string          `gorm:"not null"`
	Value       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time
}
