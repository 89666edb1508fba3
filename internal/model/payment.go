package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment status values. Legal transitions:
//
//	PENDING      → UNDER_REVIEW | APPROVED (gateway confirm) | REFUSED | CANCELED
//	UNDER_REVIEW → APPROVED | REFUSED | CANCELED
//	APPROVED     → REVERSED
//
// REFUSED and REVERSED are terminal. CANCELED hard-deletes the row
// (pre-settlement only, nothing has been counted yet).
const (
	PaymentPending     = "PENDING"
	PaymentUnderReview = "UNDER_REVIEW"
	PaymentApproved    = "APPROVED"
	PaymentRefused     = "REFUSED"
	PaymentReversed    = "REVERSED"
)

// Payment methods.
const (
	MethodPix         = "PIX"
	MethodCard        = "CARD"
	MethodCash        = "CASH"
	MethodPaymentLink = "PAYMENT_LINK"
)

// Payment is the aggregate root of the settlement graph. It is mutated only
// through the payment service; allocations and installments cascade on
// reversal, the row itself is retained for audit.
type Payment struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EventID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	AccountID  *uuid.UUID `gorm:"type:uuid;index"`
	GuestEmail *string
	Method     string          `gorm:"type:varchar(20);not null"`
	Status     string          `gorm:"type:varchar(20);not null;index"`
	TotalValue decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// TotalReceived is the net amount actually settled by installments —
	// it may stay below TotalValue because of gateway fees.
	TotalReceived   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	RejectionReason *string
	ApprovedBy      *uuid.UUID `gorm:"type:uuid"`

	// Gateway correlation keys. At most one Payment per checkout session /
	// external reference; GatewayPaymentID is the processor's own id.
	ExternalReference *string `gorm:"type:varchar(120);index"`
	CheckoutSession   *string `gorm:"type:varchar(120);uniqueIndex"`
	GatewayPaymentID  *string `gorm:"type:varchar(120);index"`

	// ReceiptPath points at the uploaded PIX proof image, when present.
	ReceiptPath *string

	CreatedAt time.Time
	UpdatedAt time.Time

	Allocations  []PaymentAllocation  `gorm:"foreignKey:PaymentID"`
	Installments []PaymentInstallment `gorm:"foreignKey:PaymentID"`
	Inscriptions []PaymentInscription `gorm:"foreignKey:PaymentID"`
}

// IsSettled reports whether the payment has passed the point where money was
// counted — from here on the only way back is a full reversal.
func (p *Payment) IsSettled() bool {
	return p.Status == PaymentApproved || p.Status == PaymentReversed
}

// PaymentInscription links a gateway-pending payment to the inscriptions it
// will pay for. Allocations for CARD / PAYMENT_LINK payments are only created
// at confirmation time; until then this join row is the record of intent.
// The Position column preserves the order supplied at registration, which is
// the order the debt-capped split walks.
type PaymentInscription struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PaymentID     uuid.UUID `gorm:"type:uuid;not null;index"`
	InscriptionID uuid.UUID `gorm:"type:uuid;not null"`
	Position      int       `gorm:"not null"`
}

// PaymentAllocation attributes part of a payment to one inscription's debt.
// Immutable once created; deleted only as part of full reversal.
// Sum of allocations for a payment never exceeds payment.TotalValue.
type PaymentAllocation struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PaymentID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	InscriptionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Value         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt     time.Time
}

// PaymentInstallment is one settlement leg. GatewayPaymentID is the
// idempotency key for webhook deliveries: a unique index makes duplicate
// confirmations structurally impossible. NetValue may differ from Value
// (gateway fees). Manually approved payments get a single synthetic
// installment with a nil gateway id so the reversal walk is uniform.
type PaymentInstallment struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PaymentID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	InstallmentNumber   int             `gorm:"not null"`
	Value               decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	NetValue            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	GatewayPaymentID    *string         `gorm:"type:varchar(120);uniqueIndex"`
	FinancialMovementID *uuid.UUID      `gorm:"type:uuid"`
	PaidAt              *time.Time
	Received            bool `gorm:"not null;default:false"`
	CreatedAt           time.Time
}
