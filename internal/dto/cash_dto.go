package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenRegisterRequest struct {
	Name           string          `json:"name"            validate:"required,min=2"`
	RegionID       *string         `json:"region_id"       validate:"omitempty,uuid"`
	OpeningBalance decimal.Decimal `json:"opening_balance" validate:"min=0"`
}

// RecordEntryRequest appends an income/expense entry. Exactly one correlation
// reference must be set; the service enforces it beyond tag validation.
type RecordEntryRequest struct {
	CashRegisterID string          `json:"cash_register_id" validate:"required,uuid"`
	Type           string          `json:"type"             validate:"required,oneof=INCOME EXPENSE"`
	Method         string          `json:"method"           validate:"required,oneof=PIX CARD CASH PAYMENT_LINK"`
	Value          decimal.Decimal `json:"value"            validate:"required"`
	Description    string          `json:"description"      validate:"required,min=3"`

	EventID       *string `json:"event_id"       validate:"omitempty,uuid"`
	InstallmentID *string `json:"installment_id" validate:"omitempty,uuid"`
	InscriptionID *string `json:"inscription_id" validate:"omitempty,uuid"`
	ExpenseID     *string `json:"expense_id"     validate:"omitempty,uuid"`
	TicketSaleID  *string `json:"ticket_sale_id" validate:"omitempty,uuid"`
}

type TransferRequest struct {
	FromCashID  string          `json:"from_cash_id" validate:"required,uuid"`
	ToCashID    string          `json:"to_cash_id"   validate:"required,uuid"`
	Value       decimal.Decimal `json:"value"        validate:"required"`
	Description *string         `json:"description"`
	Responsible *string         `json:"responsible"`
}

type EventExpenseRequest struct {
	EventID     string          `json:"event_id"    validate:"required,uuid"`
	Description string          `json:"description" validate:"required,min=3"`
	Value       decimal.Decimal `json:"value"       validate:"required"`
	// CashRegisterID: when set, the expense is also paid out of this register.
	CashRegisterID *string `json:"cash_register_id" validate:"omitempty,uuid"`
	Method         string  `json:"method"           validate:"omitempty,oneof=PIX CARD CASH PAYMENT_LINK"`
}

// MovementFilter is bound from the query string of GET movements.
type MovementFilter struct {
	Type  string `form:"type"` // INCOME | EXPENSE | empty = all
	From  string `form:"from"` // YYYY-MM-DD
	To    string `form:"to"`   // YYYY-MM-DD
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type RegisterResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Status         string          `json:"status"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Balance        decimal.Decimal `json:"balance"`
	OpenedAt       string          `json:"opened_at"`
	ClosedAt       *string         `json:"closed_at,omitempty"`
}

type EntryResponse struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Method      string          `json:"method"`
	Value       decimal.Decimal `json:"value"`
	Description string          `json:"description"`
	CreatedAt   string          `json:"created_at"`
}

// MovementListResponse pages entry rows; the totals are aggregated over the
// whole filtered set, not the current page window.
type MovementListResponse struct {
	Data         []EntryResponse `json:"data"`
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Total        int64           `json:"total"`
	Page         int             `json:"page"`
	Limit        int             `json:"limit"`
}

type ExpenseResponse struct {
	ID          string          `json:"id"`
	EventID     string          `json:"event_id"`
	Description string          `json:"description"`
	Value       decimal.Decimal `json:"value"`
	CreatedAt   string          `json:"created_at"`
}

type TransferResponse struct {
	ID          string          `json:"id"`
	FromCashID  string          `json:"from_cash_id"`
	ToCashID    string          `json:"to_cash_id"`
	Value       decimal.Decimal `json:"value"`
	FromBalance decimal.Decimal `json:"from_balance"`
	ToBalance   decimal.Decimal `json:"to_balance"`
}
