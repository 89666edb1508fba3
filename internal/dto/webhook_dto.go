package dto

import "github.com/shopspring/decimal"

// Gateway event kinds consumed by the reconciliation adapter. Anything else
// is acknowledged but not processed — gateways retry forever on non-2xx.
const (
	WebhookPaymentConfirmed   = "PAYMENT_CONFIRMED"
	WebhookPaymentReceived    = "PAYMENT_RECEIVED"
	WebhookCheckoutExpired    = "CHECKOUT_EXPIRED"
	WebhookCheckoutCanceled   = "CHECKOUT_CANCELED"
	WebhookCardCaptureRefused = "PAYMENT_CREDIT_CARD_CAPTURE_REFUSED"
)

// GatewayWebhookRequest is the inbound shape, fixed by the payment gateway.
type GatewayWebhookRequest struct {
	Event   string                `json:"event" validate:"required"`
	Payment GatewayWebhookPayment `json:"payment"`
}

// GatewayWebhookPayment carries the processor's view of one settlement leg.
// ExternalReference is optional in some payload variants — lookup falls back
// to it only when the primary keys are absent.
type GatewayWebhookPayment struct {
	ID                string          `json:"id"`
	CheckoutSession   string          `json:"checkoutSession"`
	ExternalReference string          `json:"externalReference"`
	Value             decimal.Decimal `json:"value"`
	NetValue          decimal.Decimal `json:"netValue"`
	InstallmentNumber int             `json:"installmentNumber"`
	ConfirmedDate     string          `json:"confirmedDate"`
}

// Webhook handling outcomes.
const (
	WebhookProcessed = "processed"
	WebhookIgnored   = "ignored"
)

// WebhookResponse is always returned with HTTP 200 for recognized requests —
// "ignored" is a successful no-op, not an error.
type WebhookResponse struct {
	Status string `json:"status"` // processed | ignored
	Reason string `json:"reason,omitempty"`
}
