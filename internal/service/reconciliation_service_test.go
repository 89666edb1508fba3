package service

import (
	"context"
	"testing"

	"eventpay/internal/dto"
	"eventpay/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckEventDetectsDrift(t *testing.T) {
	payments := newFakePaymentRepo()
	events := newFakeEventRepo()
	cash := newFakeCashRepo()
	svc := NewReconciliationService(payments, events, cash)

	event := seedEvent(events, "Conference")
	payments.payments[uuid.New()] = &model.Payment{
		ID:         uuid.New(),
		EventID:    event.ID,
		Status:     model.PaymentApproved,
		TotalValue: decimal.NewFromFloat(300),
	}

	// In sync.
	event.AmountCollected = decimal.NewFromFloat(300)
	report, err := svc.CheckEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.True(t, report.Delta.IsZero())

	// Counter drifted above the ledger.
	event.AmountCollected = decimal.NewFromFloat(350)
	report, err = svc.CheckEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, "50", report.Delta.String())
	assert.Equal(t, dto.DriftEvent, report.Kind)
}

func TestCheckRegisterFoldsEntriesAndTransfers(t *testing.T) {
	payments := newFakePaymentRepo()
	events := newFakeEventRepo()
	cash := newFakeCashRepo()
	svc := NewReconciliationService(payments, events, cash)

	reg := seedOpenRegister(cash, 100)
	other := seedOpenRegister(cash, 0)
	eventID := uuid.New()
	cash.entries = append(cash.entries,
		model.CashRegisterEntry{CashRegisterID: reg.ID, Type: model.EntryIncome, Value: decimal.NewFromFloat(60), EventID: &eventID},
		model.CashRegisterEntry{CashRegisterID: reg.ID, Type: model.EntryExpense, Value: decimal.NewFromFloat(10), EventID: &eventID},
	)
	cash.transfers = append(cash.transfers,
		model.CashRegisterTransfer{FromCashID: reg.ID, ToCashID: other.ID, Value: decimal.NewFromFloat(20)},
	)

	// expected = 100 + 60 - 10 - 20 = 130
	reg.Balance = decimal.NewFromFloat(130)
	report, err := svc.CheckRegister(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.True(t, report.Delta.IsZero())

	reg.Balance = decimal.NewFromFloat(125)
	report, err = svc.CheckRegister(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.Equal(t, "-5", report.Delta.String())
}

func TestSweepReturnsOnlyDrifting(t *testing.T) {
	payments := newFakePaymentRepo()
	events := newFakeEventRepo()
	cash := newFakeCashRepo()
	svc := NewReconciliationService(payments, events, cash)

	healthy := seedEvent(events, "Healthy")
	drifting := seedEvent(events, "Drifting")
	drifting.AmountCollected = decimal.NewFromFloat(42)
	seedOpenRegister(cash, 100) // balance matches opening, no entries

	reports, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, drifting.ID.String(), reports[0].ID)
	assert.Equal(t, "0", healthy.AmountCollected.String())
}
