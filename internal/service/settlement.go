package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"eventpay/internal/model"
	"eventpay/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// settlement bundles the repositories every money-moving path touches.
// PaymentService and WebhookService both embed it, so manual approvals and
// gateway confirmations share one set of ledger effects and one reversal walk.
type settlement struct {
	payments     repository.PaymentRepository
	inscriptions repository.InscriptionRepository
	events       repository.EventRepository
	cash         repository.CashRepository
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// splitAllocations distributes total across inscriptions in the order given,
// capping each share at the inscription's outstanding debt and carrying the
// remainder to the next one. Money left over after the last debt simply stays
// unallocated on the payment.
func splitAllocations(paymentID uuid.UUID, total decimal.Decimal, inscs []*model.Inscription) []model.PaymentAllocation {
	remaining := total
	var allocs []model.PaymentAllocation
	for _, insc := range inscs {
		if !remaining.IsPositive() {
			break
		}
		share := insc.Outstanding()
		if share.GreaterThan(remaining) {
			share = remaining
		}
		if !share.IsPositive() {
			continue
		}
		allocs = append(allocs, model.PaymentAllocation{
			PaymentID:     paymentID,
			InscriptionID: insc.ID,
			Value:         share,
		})
		remaining = remaining.Sub(share)
	}
	return allocs
}

// allocateTx materializes allocations for a payment whose split was deferred
// to confirmation time (CARD / PAYMENT_LINK). It walks the inscription links
// in their registration order and persists the debt-capped split.
func (s settlement) allocateTx(tx *gorm.DB, p *model.Payment) ([]model.PaymentAllocation, error) {
	links := make([]model.PaymentInscription, len(p.Inscriptions))
	copy(links, p.Inscriptions)
	sort.Slice(links, func(i, j int) bool { return links[i].Position < links[j].Position })

	inscs := make([]*model.Inscription, 0, len(links))
	for _, l := range links {
		insc, err := s.inscriptions.FindByIDTx(tx, l.InscriptionID)
		if err != nil {
			return nil, fmt.Errorf("%w: inscription %s", ErrNotFound, l.InscriptionID)
		}
		inscs = append(inscs, insc)
	}

	allocs := splitAllocations(p.ID, p.TotalValue, inscs)
	for i := range allocs {
		if err := s.payments.CreateAllocationTx(tx, &allocs[i]); err != nil {
			return nil, err
		}
	}
	return allocs, nil
}

// approvalOpts carries the per-path differences between a manual approve and
// a gateway confirmation. Manual settlements have the money in hand
// (received, movement booked now); gateway confirmations record the
// settlement leg and wait for PAYMENT_RECEIVED to book the net credit.
// settledLeg points at an installment already on file when the credit arrived
// before the confirmation; the effect set then skips creating a second one.
type approvalOpts struct {
	approvedBy        *uuid.UUID
	cashRegisterID    *uuid.UUID
	gatewayID         *string
	installmentNumber int
	value             decimal.Decimal
	netValue          decimal.Decimal
	received          bool
	paidAt            *time.Time
	settledLeg        *model.PaymentInstallment
}

// approveEffectsTx applies the full ledger effect set of an approval:
// inscription debt decrements per allocation, the settlement installment
// (plus financial movement and cash entry when the money is in hand), the
// event counter, and finally the status flip. Allocation rows must already
// exist — manual payments carry them from registration, gateway payments get
// them from allocateTx in the same transaction.
func (s settlement) approveEffectsTx(tx *gorm.DB, p *model.Payment, allocs []model.PaymentAllocation, opts approvalOpts) error {
	for _, a := range allocs {
		if err := s.inscriptions.AddPaidTx(tx, a.InscriptionID, a.Value); err != nil {
			return err
		}
	}

	inst := opts.settledLeg
	if inst == nil {
		inst = &model.PaymentInstallment{
			PaymentID:         p.ID,
			InstallmentNumber: opts.installmentNumber,
			Value:             opts.value,
			NetValue:          opts.netValue,
			GatewayPaymentID:  opts.gatewayID,
			Received:          opts.received,
			PaidAt:            opts.paidAt,
		}

		if opts.received {
			mov := &model.FinancialMovement{
				EventID:    p.EventID,
				AccountID:  p.AccountID,
				GuestEmail: p.GuestEmail,
				Type:       model.MovementIncome,
				Value:      opts.netValue,
			}
			if err := s.payments.CreateMovementTx(tx, mov); err != nil {
				return err
			}
			inst.FinancialMovementID = &mov.ID
		}

		if err := s.payments.CreateInstallmentTx(tx, inst); err != nil {
			return err
		}
	}

	if opts.cashRegisterID != nil {
		entry := &model.CashRegisterEntry{
			CashRegisterID: *opts.cashRegisterID,
			Type:           model.EntryIncome,
			Method:         p.Method,
			Value:          opts.netValue,
			Description:    fmt.Sprintf("Payment %s settled", p.ID),
			InstallmentID:  &inst.ID,
		}
		if err := entry.ValidateCorrelation(); err != nil {
			return err
		}
		if err := s.cash.CreateEntryTx(tx, entry); err != nil {
			return err
		}
		if err := s.cash.AddBalanceTx(tx, entry.CashRegisterID, entry.Value); err != nil {
			return err
		}
	}

	if err := s.events.AddAmountCollectedTx(tx, p.EventID, p.TotalValue); err != nil {
		return err
	}

	p.Status = model.PaymentApproved
	if opts.approvedBy != nil {
		p.ApprovedBy = opts.approvedBy
	}
	if opts.received {
		p.TotalReceived = p.TotalReceived.Add(opts.netValue)
	}
	return s.payments.UpdateTx(tx, p)
}

// reverseTx undoes every effect of an approval, in strict order: cash entries
// are compensated (never deleted), movements go before the installments that
// own them, allocation effects are rolled back before the allocation rows are
// dropped, and the event counter moves last. The payment row itself survives
// with status REVERSED.
func (s settlement) reverseTx(tx *gorm.DB, p *model.Payment) error {
	instIDs := make([]uuid.UUID, 0, len(p.Installments))
	for _, inst := range p.Installments {
		instIDs = append(instIDs, inst.ID)
	}
	entries, err := s.cash.FindEntriesByInstallmentTx(tx, instIDs)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Type != model.EntryIncome {
			continue
		}
		eventID := p.EventID
		comp := &model.CashRegisterEntry{
			CashRegisterID: e.CashRegisterID,
			Type:           model.EntryExpense,
			Method:         e.Method,
			Value:          e.Value,
			Description:    fmt.Sprintf("Reversal of payment %s", p.ID),
			EventID:        &eventID,
		}
		if err := s.cash.CreateEntryTx(tx, comp); err != nil {
			return err
		}
		if err := s.cash.AddBalanceTx(tx, e.CashRegisterID, e.Value.Neg()); err != nil {
			return err
		}
	}

	for _, inst := range p.Installments {
		if inst.FinancialMovementID != nil {
			if err := s.payments.DeleteMovementTx(tx, *inst.FinancialMovementID); err != nil {
				return err
			}
		}
		if err := s.payments.DeleteInstallmentTx(tx, inst.ID); err != nil {
			return err
		}
	}

	for _, a := range p.Allocations {
		if err := s.inscriptions.AddPaidTx(tx, a.InscriptionID, a.Value.Neg()); err != nil {
			return err
		}
		insc, err := s.inscriptions.FindByIDTx(tx, a.InscriptionID)
		if err != nil {
			return err
		}
		if insc.PaidValue.LessThan(insc.TotalValue) {
			if err := s.inscriptions.SetStatusTx(tx, insc.ID, model.InscriptionPending); err != nil {
				return err
			}
		}
		if err := s.payments.DeleteAllocationTx(tx, a.ID); err != nil {
			return err
		}
	}

	if err := s.events.AddAmountCollectedTx(tx, p.EventID, p.TotalValue.Neg()); err != nil {
		return err
	}

	p.Status = model.PaymentReversed
	p.TotalReceived = decimal.Zero
	return s.payments.UpdateTx(tx, p)
}
