package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TicketSale reserves inventory at creation time, independently of any
// payment status. If the sale row cannot be persisted after a successful
// reservation, the reservation is released (compensating action).
type TicketSale struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EventID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	BuyerEmail string          `gorm:"not null"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Method     string          `gorm:"type:varchar(20);not null"`
	CreatedAt  time.Time

	Items []TicketSaleItem `gorm:"foreignKey:TicketSaleID"`
}

// TicketSaleItem is one ticket type within a sale.
type TicketSaleItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TicketSaleID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	EventTicketID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity      int             `gorm:"not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Units []TicketUnit `gorm:"foreignKey:TicketSaleItemID"`
}

// TicketUnit is a single admission with a single-use QR code. UsedAt is nil
// until redemption and immutable afterwards — redemption is a conditional
// update on used_at IS NULL so a code can never be accepted twice.
type TicketUnit struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TicketSaleItemID uuid.UUID `gorm:"type:uuid;not null;index"`
	QRCode           string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	UsedAt           *time.Time
	CreatedAt        time.Time
}
