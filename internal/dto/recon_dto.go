package dto

import "github.com/shopspring/decimal"

// Drift report kinds.
const (
	DriftEvent        = "event"
	DriftCashRegister = "cash_register"
)

// DriftReport compares a denormalized counter with the value recomputed from
// its source of truth. Delta == 0 means the counter is in sync.
type DriftReport struct {
	Kind     string          `json:"kind"` // event | cash_register
	ID       string          `json:"id"`
	Expected decimal.Decimal `json:"expected"`
	Actual   decimal.Decimal `json:"actual"`
	Delta    decimal.Decimal `json:"delta"`
}
