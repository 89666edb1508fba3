package service

import (
	"context"
	"fmt"

	"eventpay/internal/dto"
	"eventpay/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReconciliationService recomputes the denormalized counters from their
// sources of truth. The hot path maintains them incrementally; this service
// is the safety net that detects drift (a crashed half-applied migration, a
// manual DB fix) without ever writing anything.
type ReconciliationService interface {
	CheckEvent(ctx context.Context, eventID uuid.UUID) (*dto.DriftReport, error)
	CheckRegister(ctx context.Context, registerID uuid.UUID) (*dto.DriftReport, error)
	// Sweep checks every event and register, returning only the drifting ones.
	Sweep(ctx context.Context) ([]dto.DriftReport, error)
}

type reconciliationService struct {
	payments repository.PaymentRepository
	events   repository.EventRepository
	cash     repository.CashRepository
}

func NewReconciliationService(payments repository.PaymentRepository, events repository.EventRepository, cash repository.CashRepository) ReconciliationService {
	return &reconciliationService{payments: payments, events: events, cash: cash}
}

// CheckEvent compares event.amount_collected against the sum of approved
// payment gross values.
func (s *reconciliationService) CheckEvent(ctx context.Context, eventID uuid.UUID) (*dto.DriftReport, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("%w: event %s", ErrNotFound, eventID)
	}
	expected, err := s.payments.SumApprovedByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return &dto.DriftReport{
		Kind:     dto.DriftEvent,
		ID:       eventID.String(),
		Expected: expected,
		Actual:   event.AmountCollected,
		Delta:    event.AmountCollected.Sub(expected),
	}, nil
}

// CheckRegister folds all entries and transfers over the opening balance and
// compares the result with the stored balance.
func (s *reconciliationService) CheckRegister(ctx context.Context, registerID uuid.UUID) (*dto.DriftReport, error) {
	reg, err := s.cash.FindRegisterByID(ctx, registerID)
	if err != nil {
		return nil, fmt.Errorf("%w: cash register %s", ErrNotFound, registerID)
	}
	income, expense, transfersIn, transfersOut, err := s.cash.SumEntries(ctx, registerID)
	if err != nil {
		return nil, err
	}
	expected := reg.OpeningBalance.Add(income).Sub(expense).Add(transfersIn).Sub(transfersOut)
	return &dto.DriftReport{
		Kind:     dto.DriftCashRegister,
		ID:       registerID.String(),
		Expected: expected,
		Actual:   reg.Balance,
		Delta:    reg.Balance.Sub(expected),
	}, nil
}

func (s *reconciliationService) Sweep(ctx context.Context) ([]dto.DriftReport, error) {
	var drifts []dto.DriftReport

	events, err := s.events.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range events {
		report, err := s.CheckEvent(ctx, events[i].ID)
		if err != nil {
			log.Error().Err(err).Str("event_id", events[i].ID.String()).Msg("reconciliation: event check failed")
			continue
		}
		if !report.Delta.IsZero() {
			drifts = append(drifts, *report)
		}
	}

	registers, err := s.cash.ListRegisters(ctx)
	if err != nil {
		return nil, err
	}
	for i := range registers {
		report, err := s.CheckRegister(ctx, registers[i].ID)
		if err != nil {
			log.Error().Err(err).Str("register_id", registers[i].ID.String()).Msg("reconciliation: register check failed")
			continue
		}
		if !report.Delta.IsZero() {
			drifts = append(drifts, *report)
		}
	}
	return drifts, nil
}
