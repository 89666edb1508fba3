package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SaleItemRequest struct {
	EventTicketID string `json:"event_ticket_id" validate:"required,uuid"`
	Quantity      int    `json:"quantity"        validate:"required,min=1"`
}

type CreateSaleRequest struct {
	EventID    string            `json:"event_id"    validate:"required,uuid"`
	BuyerEmail string            `json:"buyer_email" validate:"required,email"`
	Method     string            `json:"method"      validate:"required,oneof=PIX CARD CASH PAYMENT_LINK"`
	Items      []SaleItemRequest `json:"items"       validate:"required,min=1,dive"`
	// CashRegisterID: set for on-site sales settled at a register.
	CashRegisterID *string `json:"cash_register_id" validate:"omitempty,uuid"`
}

type RedeemRequest struct {
	QRCode string `json:"qr_code" validate:"required,min=8"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TicketUnitResponse struct {
	ID     string  `json:"id"`
	QRCode string  `json:"qr_code"`
	UsedAt *string `json:"used_at,omitempty"`
}

type SaleItemResponse struct {
	EventTicketID string               `json:"event_ticket_id"`
	Quantity      int                  `json:"quantity"`
	UnitPrice     decimal.Decimal      `json:"unit_price"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	Units         []TicketUnitResponse `json:"units"`
}

type SaleResponse struct {
	ID         string             `json:"id"`
	EventID    string             `json:"event_id"`
	BuyerEmail string             `json:"buyer_email"`
	Total      decimal.Decimal    `json:"total"`
	Items      []SaleItemResponse `json:"items"`
	CreatedAt  string             `json:"created_at"`
}

type RedeemResponse struct {
	UnitID   string `json:"unit_id"`
	UsedAt   string `json:"used_at"`
	Redeemed bool   `json:"redeemed"`
}
