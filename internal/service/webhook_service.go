package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventpay/internal/dto"
	"eventpay/internal/model"
	"eventpay/internal/repository"
	"eventpay/internal/worker"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// WebhookService translates gateway deliveries into state machine
// transitions. Every recognized-but-inapplicable delivery resolves to an
// "ignored" result, never an error: gateways retry on non-2xx forever, and
// an unknown payment or a duplicate is not something a retry will fix.
type WebhookService interface {
	Process(ctx context.Context, req dto.GatewayWebhookRequest) (*dto.WebhookResponse, error)
}

type webhookService struct {
	settlement
	dispatcher *worker.Dispatcher
}

func NewWebhookService(
	payments repository.PaymentRepository,
	inscriptions repository.InscriptionRepository,
	events repository.EventRepository,
	cash repository.CashRepository,
	dispatcher *worker.Dispatcher,
) WebhookService {
	return &webhookService{
		settlement: settlement{
			payments:     payments,
			inscriptions: inscriptions,
			events:       events,
			cash:         cash,
		},
		dispatcher: dispatcher,
	}
}

func ignored(reason string) *dto.WebhookResponse {
	return &dto.WebhookResponse{Status: dto.WebhookIgnored, Reason: reason}
}

func processed() *dto.WebhookResponse {
	return &dto.WebhookResponse{Status: dto.WebhookProcessed}
}

func (s *webhookService) Process(ctx context.Context, req dto.GatewayWebhookRequest) (*dto.WebhookResponse, error) {
	switch req.Event {
	case dto.WebhookPaymentConfirmed:
		return s.confirm(ctx, req.Payment)
	case dto.WebhookPaymentReceived:
		return s.creditReceived(ctx, req.Payment)
	case dto.WebhookCheckoutExpired, dto.WebhookCheckoutCanceled:
		return s.abandon(ctx, req.Payment)
	case dto.WebhookCardCaptureRefused:
		return s.refuse(ctx, req.Payment)
	default:
		log.Debug().Str("event", req.Event).Msg("unhandled gateway event")
		return ignored("unhandled event type"), nil
	}
}

// lookup resolves a delivery to a local payment: checkout session first, then
// the gateway's own payment id, with external reference as last resort.
// Returns nil when nothing matches — the caller acknowledges and moves on.
func (s *webhookService) lookup(ctx context.Context, wp dto.GatewayWebhookPayment) *model.Payment {
	if wp.CheckoutSession != "" {
		if p, err := s.payments.FindByCheckoutSession(ctx, wp.CheckoutSession); err == nil {
			return p
		}
	}
	if wp.ID != "" {
		if p, err := s.payments.FindByGatewayID(ctx, wp.ID); err == nil {
			return p
		}
	}
	if wp.ExternalReference != "" {
		if p, err := s.payments.FindByExternalReference(ctx, wp.ExternalReference); err == nil {
			return p
		}
	}
	return nil
}

// ── PAYMENT_CONFIRMED ─────────────────────────────────────────────────────────
// Settlement notice. The installment row keyed by the gateway payment id is
// the idempotency barrier: a redelivery finds it and short-circuits before
// any ledger effect. First delivery for a pending payment runs the deferred
// allocation split plus the full approval effect set in one transaction.
// When the net credit beat the confirmation here, the leg is already on file
// but the payment is still pending; that delivery is not a duplicate.

func (s *webhookService) confirm(ctx context.Context, wp dto.GatewayWebhookPayment) (*dto.WebhookResponse, error) {
	if wp.ID != "" {
		if inst, err := s.payments.FindInstallmentByGatewayID(ctx, wp.ID); err == nil {
			return s.confirmAfterCredit(ctx, inst)
		}
	}

	p := s.lookup(ctx, wp)
	if p == nil {
		return ignored("unknown payment"), nil
	}
	if p.Status == model.PaymentReversed || p.Status == model.PaymentRefused {
		return ignored(fmt.Sprintf("payment already %s", p.Status)), nil
	}

	value := wp.Value
	net := wp.NetValue
	if net.IsZero() {
		net = value
	}
	number := wp.InstallmentNumber
	if number == 0 {
		number = 1
	}
	var gatewayID *string
	if wp.ID != "" {
		id := wp.ID
		gatewayID = &id
	}
	paidAt := parseGatewayDate(wp.ConfirmedDate)

	transitioned := false
	txErr := runTx(ctx, s.payments.DB(), func(tx *gorm.DB) error {
		if p.Status == model.PaymentApproved {
			// A later installment of an already-approved payment: record the
			// leg, never re-run allocations.
			return s.payments.CreateInstallmentTx(tx, &model.PaymentInstallment{
				PaymentID:         p.ID,
				InstallmentNumber: number,
				Value:             value,
				NetValue:          net,
				GatewayPaymentID:  gatewayID,
				PaidAt:            paidAt,
			})
		}

		allocs := p.Allocations
		if len(allocs) == 0 {
			var err error
			allocs, err = s.allocateTx(tx, p)
			if err != nil {
				return err
			}
		}
		if p.GatewayPaymentID == nil && gatewayID != nil {
			p.GatewayPaymentID = gatewayID
		}
		transitioned = true
		return s.approveEffectsTx(tx, p, allocs, approvalOpts{
			gatewayID:         gatewayID,
			installmentNumber: number,
			value:             value,
			netValue:          net,
			paidAt:            paidAt,
		})
	})
	if txErr != nil {
		if isDuplicateKey(txErr) {
			// Lost a race against a concurrent delivery of the same event; the
			// winner's transaction carried the effects.
			return ignored("duplicate delivery"), nil
		}
		return nil, txErr
	}

	if transitioned && s.dispatcher != nil && p.GuestEmail != nil {
		_ = s.dispatcher.EnqueueReceipt(ctx, worker.ReceiptPayload{
			PaymentID: p.ID.String(),
			To:        *p.GuestEmail,
		})
	}
	return processed(), nil
}

// confirmAfterCredit handles a confirmation whose settlement leg is already on
// file. A plain redelivery is acknowledged as a duplicate; when the credit
// landed first the payment is still pending and only the approval effect set
// is missing, so it runs here without creating a second installment. The end
// state matches in-order delivery of the two events.
func (s *webhookService) confirmAfterCredit(ctx context.Context, inst *model.PaymentInstallment) (*dto.WebhookResponse, error) {
	p, err := s.payments.FindByID(ctx, inst.PaymentID)
	if err != nil {
		return ignored("unknown payment"), nil
	}
	if p.Status != model.PaymentPending && p.Status != model.PaymentUnderReview {
		return ignored("duplicate delivery"), nil
	}

	txErr := runTx(ctx, s.payments.DB(), func(tx *gorm.DB) error {
		allocs := p.Allocations
		if len(allocs) == 0 {
			var err error
			allocs, err = s.allocateTx(tx, p)
			if err != nil {
				return err
			}
		}
		if p.GatewayPaymentID == nil {
			p.GatewayPaymentID = inst.GatewayPaymentID
		}
		return s.approveEffectsTx(tx, p, allocs, approvalOpts{settledLeg: inst})
	})
	if txErr != nil {
		return nil, txErr
	}

	if s.dispatcher != nil && p.GuestEmail != nil {
		_ = s.dispatcher.EnqueueReceipt(ctx, worker.ReceiptPayload{
			PaymentID: p.ID.String(),
			To:        *p.GuestEmail,
		})
	}
	return processed(), nil
}

// ── PAYMENT_RECEIVED ──────────────────────────────────────────────────────────
// Net credit release. Only marks the installment received and books the net
// movement — allocations and the event counter were settled at confirmation
// and are never touched again.

func (s *webhookService) creditReceived(ctx context.Context, wp dto.GatewayWebhookPayment) (*dto.WebhookResponse, error) {
	if wp.ID == "" {
		return ignored("missing gateway payment id"), nil
	}

	net := wp.NetValue
	if net.IsZero() {
		net = wp.Value
	}
	now := time.Now()
	paidAt := parseGatewayDate(wp.ConfirmedDate)
	if paidAt == nil {
		paidAt = &now
	}

	inst, err := s.payments.FindInstallmentByGatewayID(ctx, wp.ID)
	if err == nil {
		if inst.Received {
			return ignored("duplicate delivery"), nil
		}
		p, err := s.payments.FindByID(ctx, inst.PaymentID)
		if err != nil {
			return ignored("unknown payment"), nil
		}
		txErr := runTx(ctx, s.payments.DB(), func(tx *gorm.DB) error {
			mov := &model.FinancialMovement{
				EventID:    p.EventID,
				AccountID:  p.AccountID,
				GuestEmail: p.GuestEmail,
				Type:       model.MovementIncome,
				Value:      net,
			}
			if err := s.payments.CreateMovementTx(tx, mov); err != nil {
				return err
			}
			inst.NetValue = net
			inst.Received = true
			inst.PaidAt = paidAt
			inst.FinancialMovementID = &mov.ID
			if err := s.payments.UpdateInstallmentTx(tx, inst); err != nil {
				return err
			}
			return s.payments.AddTotalReceivedTx(tx, p.ID, net)
		})
		if txErr != nil {
			return nil, txErr
		}
		return processed(), nil
	}

	// Credit arrived before (or without) a confirmation we saw. Record the
	// leg as received; the late confirmation finds it by gateway id and runs
	// the approval effect set against it.
	p := s.lookup(ctx, wp)
	if p == nil {
		return ignored("unknown payment"), nil
	}
	if p.Status == model.PaymentReversed || p.Status == model.PaymentRefused {
		return ignored(fmt.Sprintf("payment already %s", p.Status)), nil
	}
	number := wp.InstallmentNumber
	if number == 0 {
		number = 1
	}
	gatewayID := wp.ID
	txErr := runTx(ctx, s.payments.DB(), func(tx *gorm.DB) error {
		mov := &model.FinancialMovement{
			EventID:    p.EventID,
			AccountID:  p.AccountID,
			GuestEmail: p.GuestEmail,
			Type:       model.MovementIncome,
			Value:      net,
		}
		if err := s.payments.CreateMovementTx(tx, mov); err != nil {
			return err
		}
		if err := s.payments.CreateInstallmentTx(tx, &model.PaymentInstallment{
			PaymentID:           p.ID,
			InstallmentNumber:   number,
			Value:               wp.Value,
			NetValue:            net,
			GatewayPaymentID:    &gatewayID,
			FinancialMovementID: &mov.ID,
			Received:            true,
			PaidAt:              paidAt,
		}); err != nil {
			return err
		}
		return s.payments.AddTotalReceivedTx(tx, p.ID, net)
	})
	if txErr != nil {
		if isDuplicateKey(txErr) {
			return ignored("duplicate delivery"), nil
		}
		return nil, txErr
	}
	return processed(), nil
}

// ── CHECKOUT_EXPIRED / CHECKOUT_CANCELED ──────────────────────────────────────
// Routed on current status: pre-settlement payments are canceled outright,
// an approved payment is reversed in full, terminal ones are acknowledged.

func (s *webhookService) abandon(ctx context.Context, wp dto.GatewayWebhookPayment) (*dto.WebhookResponse, error) {
	p := s.lookup(ctx, wp)
	if p == nil {
		return ignored("unknown payment"), nil
	}

	switch p.Status {
	case model.PaymentPending, model.PaymentUnderReview:
		txErr := runTx(ctx, s.payments.DB(), func(tx *gorm.DB) error {
			return s.payments.DeleteTx(tx, p.ID)
		})
		if txErr != nil {
			return nil, txErr
		}
		return processed(), nil
	case model.PaymentApproved:
		txErr := runTx(ctx, s.payments.DB(), func(tx *gorm.DB) error {
			return s.reverseTx(tx, p)
		})
		if txErr != nil {
			return nil, txErr
		}
		return processed(), nil
	default:
		return ignored(fmt.Sprintf("payment already %s", p.Status)), nil
	}
}

// ── PAYMENT_CREDIT_CARD_CAPTURE_REFUSED ───────────────────────────────────────

func (s *webhookService) refuse(ctx context.Context, wp dto.GatewayWebhookPayment) (*dto.WebhookResponse, error) {
	p := s.lookup(ctx, wp)
	if p == nil {
		return ignored("unknown payment"), nil
	}
	if p.Status != model.PaymentPending && p.Status != model.PaymentUnderReview {
		return ignored(fmt.Sprintf("payment already %s", p.Status)), nil
	}

	reason := "credit card capture refused"
	p.Status = model.PaymentRefused
	p.RejectionReason = &reason
	txErr := runTx(ctx, s.payments.DB(), func(tx *gorm.DB) error {
		return s.payments.UpdateTx(tx, p)
	})
	if txErr != nil {
		return nil, txErr
	}
	return processed(), nil
}

// isDuplicateKey reports whether err is the unique-index violation on
// payment_installments.gateway_payment_id. Two concurrent deliveries of the
// same event both pass the pre-transaction lookup; the loser hits the index
// and must resolve to the no-op path instead of a 5xx.
func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "duplicate key value")
}

// parseGatewayDate tolerates the payload date variants the gateway emits.
func parseGatewayDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
