package service

import (
	"context"
	"fmt"
	"time"

	"eventpay/internal/dto"
	"eventpay/internal/infra"
	"eventpay/internal/model"
	"eventpay/internal/repository"
	"eventpay/internal/worker"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentService interface {
	Register(ctx context.Context, req dto.RegisterPaymentRequest) (*dto.PaymentResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.PaymentResponse, error)
	Approve(ctx context.Context, id, approvedBy uuid.UUID, req dto.ApprovePaymentRequest) error
	Reject(ctx context.Context, id uuid.UUID, req dto.RejectPaymentRequest) error
	Cancel(ctx context.Context, id uuid.UUID) error
	Reverse(ctx context.Context, id uuid.UUID) error
}

type paymentService struct {
	settlement
	storage    *infra.Storage
	dispatcher *worker.Dispatcher
}

func NewPaymentService(
	payments repository.PaymentRepository,
	inscriptions repository.InscriptionRepository,
	events repository.EventRepository,
	cash repository.CashRepository,
	storage *infra.Storage,
	dispatcher *worker.Dispatcher,
) PaymentService {
	return &paymentService{
		settlement: settlement{
			payments:     payments,
			inscriptions: inscriptions,
			events:       events,
			cash:         cash,
		},
		storage:    storage,
		dispatcher: dispatcher,
	}
}

// manualMethod reports whether the method is settled by human review of a
// proof (PIX transfer screenshot, cash in hand) rather than by the gateway.
func manualMethod(method string) bool {
	return method == model.MethodPix || method == model.MethodCash
}

// ── Register ──────────────────────────────────────────────────────────────────
// Manual methods enter UNDER_REVIEW with the debt-capped split computed
// immediately; gateway methods enter PENDING and only record which
// inscriptions the payment is for — the split runs at confirmation time.

func (s *paymentService) Register(ctx context.Context, req dto.RegisterPaymentRequest) (*dto.PaymentResponse, error) {
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, fmt.Errorf("invalid event_id: %w", err)
	}
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return nil, fmt.Errorf("%w: event %s", ErrNotFound, req.EventID)
	}
	if !req.TotalValue.IsPositive() {
		return nil, fmt.Errorf("total_value must be positive")
	}

	var accountID *uuid.UUID
	if req.AccountID != nil {
		id, err := uuid.Parse(*req.AccountID)
		if err != nil {
			return nil, fmt.Errorf("invalid account_id: %w", err)
		}
		accountID = &id
	}

	// Resolve inscriptions up front, preserving request order.
	inscs := make([]*model.Inscription, 0, len(req.InscriptionIDs))
	for _, raw := range req.InscriptionIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid inscription_id %q: %w", raw, err)
		}
		insc, err := s.inscriptions.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%w: inscription %s", ErrNotFound, raw)
		}
		if insc.EventID != eventID {
			return nil, fmt.Errorf("inscription %s does not belong to event %s", raw, req.EventID)
		}
		inscs = append(inscs, insc)
	}

	status := model.PaymentPending
	if manualMethod(req.Method) {
		status = model.PaymentUnderReview
	}

	p := &model.Payment{
		EventID:           eventID,
		AccountID:         accountID,
		GuestEmail:        req.GuestEmail,
		Method:            req.Method,
		Status:            status,
		TotalValue:        req.TotalValue,
		ReceiptPath:       req.ReceiptPath,
		CheckoutSession:   req.CheckoutSession,
		ExternalReference: req.ExternalReference,
	}
	for i, insc := range inscs {
		p.Inscriptions = append(p.Inscriptions, model.PaymentInscription{
			InscriptionID: insc.ID,
			Position:      i,
		})
	}
	if manualMethod(req.Method) {
		// Allocations are computed now but have no ledger effect until the
		// reviewer approves.
		p.Allocations = splitAllocations(uuid.Nil, req.TotalValue, inscs)
	}

	if err := s.payments.Create(ctx, p); err != nil {
		return nil, err
	}
	return s.toResponse(p), nil
}

func (s *paymentService) Get(ctx context.Context, id uuid.UUID) (*dto.PaymentResponse, error) {
	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: payment %s", ErrNotFound, id)
	}
	return s.toResponse(p), nil
}

// ── Approve ───────────────────────────────────────────────────────────────────
// Legal only from UNDER_REVIEW. The money is already in hand, so the approval
// books a synthetic settlement installment (value = net = total) with its
// financial movement, optionally a cash entry, and the event counter — all in
// one transaction. The confirmation email is fire-and-forget after commit.

func (s *paymentService) Approve(ctx context.Context, id, approvedBy uuid.UUID, req dto.ApprovePaymentRequest) error {
	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: payment %s", ErrNotFound, id)
	}
	if p.Status != model.PaymentUnderReview {
		return fmt.Errorf("%w: cannot approve payment in status %s", ErrInvalidTransition, p.Status)
	}

	var registerID *uuid.UUID
	if req.CashRegisterID != nil {
		rid, err := uuid.Parse(*req.CashRegisterID)
		if err != nil {
			return fmt.Errorf("invalid cash_register_id: %w", err)
		}
		reg, err := s.cash.FindRegisterByID(ctx, rid)
		if err != nil {
			return fmt.Errorf("%w: cash register %s", ErrNotFound, rid)
		}
		if reg.Status != model.RegisterOpen {
			return fmt.Errorf("cash register %s is not open", rid)
		}
		registerID = &rid
	}

	now := time.Now()
	txErr := runTx(ctx, s.payments.DB(), func(tx *gorm.DB) error {
		return s.approveEffectsTx(tx, p, p.Allocations, approvalOpts{
			approvedBy:        &approvedBy,
			cashRegisterID:    registerID,
			installmentNumber: 1,
			value:             p.TotalValue,
			netValue:          p.TotalValue,
			received:          true,
			paidAt:            &now,
		})
	})
	if txErr != nil {
		return txErr
	}

	s.notifyApproved(ctx, p)
	return nil
}

func (s *paymentService) Reject(ctx context.Context, id uuid.UUID, req dto.RejectPaymentRequest) error {
	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: payment %s", ErrNotFound, id)
	}
	if p.Status != model.PaymentUnderReview {
		return fmt.Errorf("%w: cannot reject payment in status %s", ErrInvalidTransition, p.Status)
	}

	reason := req.Reason
	p.Status = model.PaymentRefused
	p.RejectionReason = &reason
	txErr := runTx(ctx, s.payments.DB(), func(tx *gorm.DB) error {
		return s.payments.UpdateTx(tx, p)
	})
	if txErr != nil {
		return txErr
	}

	if s.dispatcher != nil && p.GuestEmail != nil {
		_ = s.dispatcher.EnqueueEmail(ctx, worker.EmailPayload{
			To:      *p.GuestEmail,
			Subject: "Payment rejected",
			Body:    fmt.Sprintf("Your payment was rejected: %s", reason),
		})
	}
	return nil
}

// Cancel hard-deletes a pre-settlement payment. Nothing has been counted yet
// — no debt was cleared, no installment exists — so there is nothing to undo.
func (s *paymentService) Cancel(ctx context.Context, id uuid.UUID) error {
	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: payment %s", ErrNotFound, id)
	}
	if p.Status != model.PaymentPending && p.Status != model.PaymentUnderReview {
		return fmt.Errorf("%w: cannot cancel payment in status %s", ErrInvalidTransition, p.Status)
	}
	return runTx(ctx, s.payments.DB(), func(tx *gorm.DB) error {
		return s.payments.DeleteTx(tx, p.ID)
	})
}

// Reverse undoes an approved payment in full. All-or-nothing: any failure
// rolls the whole walk back and the payment stays APPROVED.
func (s *paymentService) Reverse(ctx context.Context, id uuid.UUID) error {
	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: payment %s", ErrNotFound, id)
	}
	if p.Status != model.PaymentApproved {
		return fmt.Errorf("%w: cannot reverse payment in status %s", ErrInvalidTransition, p.Status)
	}
	return runTx(ctx, s.payments.DB(), func(tx *gorm.DB) error {
		return s.reverseTx(tx, p)
	})
}

func (s *paymentService) notifyApproved(ctx context.Context, p *model.Payment) {
	if s.dispatcher == nil || p.GuestEmail == nil {
		return
	}
	_ = s.dispatcher.EnqueueReceipt(ctx, worker.ReceiptPayload{
		PaymentID: p.ID.String(),
		To:        *p.GuestEmail,
	})
}

func (s *paymentService) toResponse(p *model.Payment) *dto.PaymentResponse {
	resp := &dto.PaymentResponse{
		ID:              p.ID.String(),
		EventID:         p.EventID.String(),
		Method:          p.Method,
		Status:          p.Status,
		TotalValue:      p.TotalValue,
		TotalReceived:   p.TotalReceived,
		RejectionReason: p.RejectionReason,
		Allocations:     []dto.AllocationResponse{},
		Installments:    []dto.InstallmentResponse{},
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
	}
	if p.ReceiptPath != nil && s.storage != nil {
		u := s.storage.PublicURL(*p.ReceiptPath)
		resp.ReceiptURL = &u
	}
	for _, a := range p.Allocations {
		resp.Allocations = append(resp.Allocations, dto.AllocationResponse{
			InscriptionID: a.InscriptionID.String(),
			Value:         a.Value,
		})
	}
	for _, inst := range p.Installments {
		ir := dto.InstallmentResponse{
			InstallmentNumber: inst.InstallmentNumber,
			Value:             inst.Value,
			NetValue:          inst.NetValue,
			Received:          inst.Received,
			GatewayPaymentID:  inst.GatewayPaymentID,
		}
		if inst.PaidAt != nil {
			ts := inst.PaidAt.Format(time.RFC3339)
			ir.PaidAt = &ts
		}
		resp.Installments = append(resp.Installments, ir)
	}
	return resp
}
