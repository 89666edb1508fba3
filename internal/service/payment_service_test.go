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

func newPaymentFixture() (*fakePaymentRepo, *fakeInscriptionRepo, *fakeEventRepo, *fakeCashRepo, PaymentService) {
	payments := newFakePaymentRepo()
	inscriptions := newFakeInscriptionRepo()
	events := newFakeEventRepo()
	cash := newFakeCashRepo()
	svc := NewPaymentService(payments, inscriptions, events, cash, nil, nil)
	return payments, inscriptions, events, cash, svc
}

func TestRegisterManualSplitsDebtCapped(t *testing.T) {
	_, inscriptions, events, _, svc := newPaymentFixture()
	event := seedEvent(events, "Conference")
	first := seedInscription(inscriptions, event.ID, 200)
	second := seedInscription(inscriptions, event.ID, 150)

	resp, err := svc.Register(context.Background(), dto.RegisterPaymentRequest{
		EventID:        event.ID.String(),
		Method:         model.MethodPix,
		TotalValue:     decimal.NewFromFloat(300),
		InscriptionIDs: []string{first.ID.String(), second.ID.String()},
	})

	require.NoError(t, err)
	assert.Equal(t, model.PaymentUnderReview, resp.Status)
	require.Len(t, resp.Allocations, 2)
	// 300 across debts {200, 150}: first is capped at its outstanding 200,
	// the remaining 100 carries to the second.
	assert.Equal(t, first.ID.String(), resp.Allocations[0].InscriptionID)
	assert.Equal(t, "200", resp.Allocations[0].Value.String())
	assert.Equal(t, second.ID.String(), resp.Allocations[1].InscriptionID)
	assert.Equal(t, "100", resp.Allocations[1].Value.String())

	// Registration has no ledger effect until approval.
	assert.Equal(t, "0", first.PaidValue.String())
	assert.Equal(t, "0", second.PaidValue.String())
	assert.Equal(t, "0", event.AmountCollected.String())
}

func TestRegisterGatewayDefersAllocations(t *testing.T) {
	_, inscriptions, events, _, svc := newPaymentFixture()
	event := seedEvent(events, "Conference")
	insc := seedInscription(inscriptions, event.ID, 100)

	session := "cs_123"
	resp, err := svc.Register(context.Background(), dto.RegisterPaymentRequest{
		EventID:         event.ID.String(),
		Method:          model.MethodCard,
		TotalValue:      decimal.NewFromFloat(100),
		InscriptionIDs:  []string{insc.ID.String()},
		CheckoutSession: &session,
	})

	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, resp.Status)
	assert.Empty(t, resp.Allocations)
}

func TestRegisterRejectsForeignInscription(t *testing.T) {
	_, inscriptions, events, _, svc := newPaymentFixture()
	event := seedEvent(events, "Conference")
	other := seedEvent(events, "Workshop")
	foreign := seedInscription(inscriptions, other.ID, 100)

	_, err := svc.Register(context.Background(), dto.RegisterPaymentRequest{
		EventID:        event.ID.String(),
		Method:         model.MethodCash,
		TotalValue:     decimal.NewFromFloat(100),
		InscriptionIDs: []string{foreign.ID.String()},
	})
	assert.ErrorContains(t, err, "does not belong to event")
}

func TestApproveThenReverseIsTrueInverse(t *testing.T) {
	payments, inscriptions, events, _, svc := newPaymentFixture()
	event := seedEvent(events, "Conference")
	first := seedInscription(inscriptions, event.ID, 200)
	second := seedInscription(inscriptions, event.ID, 150)

	resp, err := svc.Register(context.Background(), dto.RegisterPaymentRequest{
		EventID:        event.ID.String(),
		Method:         model.MethodPix,
		TotalValue:     decimal.NewFromFloat(300),
		InscriptionIDs: []string{first.ID.String(), second.ID.String()},
	})
	require.NoError(t, err)
	paymentID := uuid.MustParse(resp.ID)

	require.NoError(t, svc.Approve(context.Background(), paymentID, uuid.New(), dto.ApprovePaymentRequest{}))

	assert.Equal(t, "200", first.PaidValue.String())
	assert.Equal(t, "100", second.PaidValue.String())
	assert.Equal(t, "300", event.AmountCollected.String())
	assert.Len(t, payments.installments, 1)
	assert.Len(t, payments.movements, 1)
	approved, err := svc.Get(context.Background(), paymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentApproved, approved.Status)
	assert.Equal(t, "300", approved.TotalReceived.String())

	require.NoError(t, svc.Reverse(context.Background(), paymentID))

	// Every ledger effect is undone; the payment row itself survives.
	assert.Equal(t, "0", first.PaidValue.String())
	assert.Equal(t, "0", second.PaidValue.String())
	assert.Equal(t, "0", event.AmountCollected.String())
	assert.Empty(t, payments.allocations)
	assert.Empty(t, payments.installments)
	assert.Empty(t, payments.movements)
	assert.Equal(t, model.InscriptionPending, first.Status)

	reversed, err := svc.Get(context.Background(), paymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentReversed, reversed.Status)
	assert.Equal(t, "0", reversed.TotalReceived.String())
}

func TestApproveBooksCashEntry(t *testing.T) {
	_, inscriptions, events, cash, svc := newPaymentFixture()
	event := seedEvent(events, "Conference")
	insc := seedInscription(inscriptions, event.ID, 100)
	reg := seedOpenRegister(cash, 500)

	resp, err := svc.Register(context.Background(), dto.RegisterPaymentRequest{
		EventID:        event.ID.String(),
		Method:         model.MethodCash,
		TotalValue:     decimal.NewFromFloat(100),
		InscriptionIDs: []string{insc.ID.String()},
	})
	require.NoError(t, err)

	regID := reg.ID.String()
	require.NoError(t, svc.Approve(context.Background(), uuid.MustParse(resp.ID), uuid.New(),
		dto.ApprovePaymentRequest{CashRegisterID: &regID}))

	require.Len(t, cash.entries, 1)
	assert.Equal(t, model.EntryIncome, cash.entries[0].Type)
	assert.NotNil(t, cash.entries[0].InstallmentID)
	assert.Equal(t, "600", reg.Balance.String())
}

func TestApproveOnlyFromUnderReview(t *testing.T) {
	_, inscriptions, events, _, svc := newPaymentFixture()
	event := seedEvent(events, "Conference")
	insc := seedInscription(inscriptions, event.ID, 100)

	resp, err := svc.Register(context.Background(), dto.RegisterPaymentRequest{
		EventID:        event.ID.String(),
		Method:         model.MethodCard,
		TotalValue:     decimal.NewFromFloat(100),
		InscriptionIDs: []string{insc.ID.String()},
	})
	require.NoError(t, err)

	err = svc.Approve(context.Background(), uuid.MustParse(resp.ID), uuid.New(), dto.ApprovePaymentRequest{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRejectKeepsLedgerUntouched(t *testing.T) {
	_, inscriptions, events, _, svc := newPaymentFixture()
	event := seedEvent(events, "Conference")
	insc := seedInscription(inscriptions, event.ID, 100)

	resp, err := svc.Register(context.Background(), dto.RegisterPaymentRequest{
		EventID:        event.ID.String(),
		Method:         model.MethodPix,
		TotalValue:     decimal.NewFromFloat(100),
		InscriptionIDs: []string{insc.ID.String()},
	})
	require.NoError(t, err)
	paymentID := uuid.MustParse(resp.ID)

	require.NoError(t, svc.Reject(context.Background(), paymentID, dto.RejectPaymentRequest{Reason: "proof is unreadable"}))

	rejected, err := svc.Get(context.Background(), paymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRefused, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "proof is unreadable", *rejected.RejectionReason)
	assert.Equal(t, "0", insc.PaidValue.String())
	assert.Equal(t, "0", event.AmountCollected.String())

	// Terminal: a second decision is illegal.
	err = svc.Reject(context.Background(), paymentID, dto.RejectPaymentRequest{Reason: "again"})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelHardDeletes(t *testing.T) {
	payments, inscriptions, events, _, svc := newPaymentFixture()
	event := seedEvent(events, "Conference")
	insc := seedInscription(inscriptions, event.ID, 100)

	resp, err := svc.Register(context.Background(), dto.RegisterPaymentRequest{
		EventID:        event.ID.String(),
		Method:         model.MethodPix,
		TotalValue:     decimal.NewFromFloat(100),
		InscriptionIDs: []string{insc.ID.String()},
	})
	require.NoError(t, err)
	paymentID := uuid.MustParse(resp.ID)

	require.NoError(t, svc.Cancel(context.Background(), paymentID))

	_, err = svc.Get(context.Background(), paymentID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, payments.allocations)
	// Cancel never restores debt because none was cleared.
	assert.Equal(t, "0", insc.PaidValue.String())
}

func TestCancelRefusedIsIllegal(t *testing.T) {
	_, inscriptions, events, _, svc := newPaymentFixture()
	event := seedEvent(events, "Conference")
	insc := seedInscription(inscriptions, event.ID, 100)

	resp, err := svc.Register(context.Background(), dto.RegisterPaymentRequest{
		EventID:        event.ID.String(),
		Method:         model.MethodPix,
		TotalValue:     decimal.NewFromFloat(100),
		InscriptionIDs: []string{insc.ID.String()},
	})
	require.NoError(t, err)
	paymentID := uuid.MustParse(resp.ID)
	require.NoError(t, svc.Reject(context.Background(), paymentID, dto.RejectPaymentRequest{Reason: "bad proof"}))

	err = svc.Cancel(context.Background(), paymentID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReverseOnlyFromApproved(t *testing.T) {
	_, inscriptions, events, _, svc := newPaymentFixture()
	event := seedEvent(events, "Conference")
	insc := seedInscription(inscriptions, event.ID, 100)

	resp, err := svc.Register(context.Background(), dto.RegisterPaymentRequest{
		EventID:        event.ID.String(),
		Method:         model.MethodPix,
		TotalValue:     decimal.NewFromFloat(100),
		InscriptionIDs: []string{insc.ID.String()},
	})
	require.NoError(t, err)

	err = svc.Reverse(context.Background(), uuid.MustParse(resp.ID))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOverpaymentStaysUnallocated(t *testing.T) {
	_, inscriptions, events, _, svc := newPaymentFixture()
	event := seedEvent(events, "Conference")
	insc := seedInscription(inscriptions, event.ID, 80)

	resp, err := svc.Register(context.Background(), dto.RegisterPaymentRequest{
		EventID:        event.ID.String(),
		Method:         model.MethodPix,
		TotalValue:     decimal.NewFromFloat(100),
		InscriptionIDs: []string{insc.ID.String()},
	})
	require.NoError(t, err)

	require.Len(t, resp.Allocations, 1)
	assert.Equal(t, "80", resp.Allocations[0].Value.String())

	// The gross still counts in full on approval; only 80 clears debt.
	require.NoError(t, svc.Approve(context.Background(), uuid.MustParse(resp.ID), uuid.New(), dto.ApprovePaymentRequest{}))
	assert.Equal(t, "80", insc.PaidValue.String())
	assert.Equal(t, "100", event.AmountCollected.String())
}
