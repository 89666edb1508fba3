package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// RegisterPaymentRequest creates a payment for one or more inscriptions.
// InscriptionIDs order matters: the debt-capped split walks them in the order
// supplied, carrying any remainder to the next inscription.
type RegisterPaymentRequest struct {
	EventID        string   `json:"event_id"        validate:"required,uuid"`
	AccountID      *string  `json:"account_id"      validate:"omitempty,uuid"`
	GuestEmail     *string  `json:"guest_email"     validate:"omitempty,email"`
	Method         string   `json:"method"          validate:"required,oneof=PIX CARD CASH PAYMENT_LINK"`
	TotalValue     decimal.Decimal `json:"total_value" validate:"required"`
	InscriptionIDs []string `json:"inscription_ids" validate:"required,min=1,dive,uuid"`
	// ReceiptPath: storage path of the uploaded PIX proof (manual methods).
	ReceiptPath *string `json:"receipt_path"`
	// Gateway correlation keys, set for CARD / PAYMENT_LINK checkouts.
	CheckoutSession   *string `json:"checkout_session"   validate:"omitempty,max=120"`
	ExternalReference *string `json:"external_reference" validate:"omitempty,max=120"`
}

type ApprovePaymentRequest struct {
	// CashRegisterID: when set, the approved amount is booked as income on
	// this register (on-site PIX/CASH settlements).
	CashRegisterID *string `json:"cash_register_id" validate:"omitempty,uuid"`
}

type RejectPaymentRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type AllocationResponse struct {
	InscriptionID string          `json:"inscription_id"`
	Value         decimal.Decimal `json:"value"`
}

type InstallmentResponse struct {
	InstallmentNumber int             `json:"installment_number"`
	Value             decimal.Decimal `json:"value"`
	NetValue          decimal.Decimal `json:"net_value"`
	Received          bool            `json:"received"`
	GatewayPaymentID  *string         `json:"gateway_payment_id"`
	PaidAt            *string         `json:"paid_at"`
}

type PaymentResponse struct {
	ID              string                `json:"id"`
	EventID         string                `json:"event_id"`
	Method          string                `json:"method"`
	Status          string                `json:"status"`
	TotalValue      decimal.Decimal       `json:"total_value"`
	TotalReceived   decimal.Decimal       `json:"total_received"`
	RejectionReason *string               `json:"rejection_reason,omitempty"`
	ReceiptURL      *string               `json:"receipt_url,omitempty"`
	Allocations     []AllocationResponse  `json:"allocations"`
	Installments    []InstallmentResponse `json:"installments"`
	CreatedAt       string                `json:"created_at"`
}
