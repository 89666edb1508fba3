package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"eventpay/internal/dto"
	"eventpay/internal/model"
	"eventpay/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory PaymentRepository ──────────────────────────────────────────────

type fakePaymentRepo struct {
	payments     map[uuid.UUID]*model.Payment
	allocations  map[uuid.UUID]model.PaymentAllocation
	installments map[uuid.UUID]*model.PaymentInstallment
	movements    map[uuid.UUID]*model.FinancialMovement

	// raceInstallment runs once inside CreateInstallmentTx before the unique
	// check, standing in for a concurrent insert committing first.
	raceInstallment func()
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{
		payments:     make(map[uuid.UUID]*model.Payment),
		allocations:  make(map[uuid.UUID]model.PaymentAllocation),
		installments: make(map[uuid.UUID]*model.PaymentInstallment),
		movements:    make(map[uuid.UUID]*model.FinancialMovement),
	}
}

func (r *fakePaymentRepo) Create(_ context.Context, p *model.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	for i := range p.Inscriptions {
		if p.Inscriptions[i].ID == uuid.Nil {
			p.Inscriptions[i].ID = uuid.New()
		}
		p.Inscriptions[i].PaymentID = p.ID
	}
	for i := range p.Allocations {
		if p.Allocations[i].ID == uuid.Nil {
			p.Allocations[i].ID = uuid.New()
		}
		p.Allocations[i].PaymentID = p.ID
		r.allocations[p.Allocations[i].ID] = p.Allocations[i]
	}
	r.payments[p.ID] = p
	return nil
}

func (r *fakePaymentRepo) attach(p *model.Payment) *model.Payment {
	p.Allocations = nil
	for _, a := range r.allocations {
		if a.PaymentID == p.ID {
			p.Allocations = append(p.Allocations, a)
		}
	}
	p.Installments = nil
	for _, inst := range r.installments {
		if inst.PaymentID == p.ID {
			p.Installments = append(p.Installments, *inst)
		}
	}
	return p
}

func (r *fakePaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.attach(p), nil
}

func (r *fakePaymentRepo) FindByCheckoutSession(_ context.Context, session string) (*model.Payment, error) {
	for _, p := range r.payments {
		if p.CheckoutSession != nil && *p.CheckoutSession == session {
			return r.attach(p), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePaymentRepo) FindByGatewayID(_ context.Context, gatewayID string) (*model.Payment, error) {
	for _, p := range r.payments {
		if p.GatewayPaymentID != nil && *p.GatewayPaymentID == gatewayID {
			return r.attach(p), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePaymentRepo) FindByExternalReference(_ context.Context, ref string) (*model.Payment, error) {
	for _, p := range r.payments {
		if p.ExternalReference != nil && *p.ExternalReference == ref {
			return r.attach(p), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePaymentRepo) UpdateTx(_ *gorm.DB, p *model.Payment) error {
	r.payments[p.ID] = p
	return nil
}

func (r *fakePaymentRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	for aid, a := range r.allocations {
		if a.PaymentID == id {
			delete(r.allocations, aid)
		}
	}
	delete(r.payments, id)
	return nil
}

func (r *fakePaymentRepo) CreateAllocationTx(_ *gorm.DB, a *model.PaymentAllocation) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.allocations[a.ID] = *a
	return nil
}

func (r *fakePaymentRepo) DeleteAllocationTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.allocations, id)
	return nil
}

func (r *fakePaymentRepo) FindInstallmentByGatewayID(_ context.Context, gatewayID string) (*model.PaymentInstallment, error) {
	for _, inst := range r.installments {
		if inst.GatewayPaymentID != nil && *inst.GatewayPaymentID == gatewayID {
			return inst, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePaymentRepo) CreateInstallmentTx(_ *gorm.DB, inst *model.PaymentInstallment) error {
	if inst.ID == uuid.Nil {
		inst.ID = uuid.New()
	}
	if r.raceInstallment != nil {
		race := r.raceInstallment
		r.raceInstallment = nil
		race()
	}
	// The unique index on gateway_payment_id is part of the contract.
	if inst.GatewayPaymentID != nil {
		if _, err := r.FindInstallmentByGatewayID(context.Background(), *inst.GatewayPaymentID); err == nil {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	r.installments[inst.ID] = inst
	return nil
}

func (r *fakePaymentRepo) UpdateInstallmentTx(_ *gorm.DB, inst *model.PaymentInstallment) error {
	r.installments[inst.ID] = inst
	return nil
}

func (r *fakePaymentRepo) DeleteInstallmentTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.installments, id)
	return nil
}

func (r *fakePaymentRepo) CreateMovementTx(_ *gorm.DB, m *model.FinancialMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movements[m.ID] = m
	return nil
}

func (r *fakePaymentRepo) DeleteMovementTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.movements, id)
	return nil
}

func (r *fakePaymentRepo) AddTotalReceivedTx(_ *gorm.DB, paymentID uuid.UUID, delta decimal.Decimal) error {
	p, ok := r.payments[paymentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.TotalReceived = p.TotalReceived.Add(delta)
	return nil
}

func (r *fakePaymentRepo) SumApprovedByEvent(_ context.Context, eventID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range r.payments {
		if p.EventID == eventID && p.Status == model.PaymentApproved {
			sum = sum.Add(p.TotalValue)
		}
	}
	return sum, nil
}

func (r *fakePaymentRepo) DB() *gorm.DB { return nil }

var _ repository.PaymentRepository = (*fakePaymentRepo)(nil)

// ── In-memory InscriptionRepository ──────────────────────────────────────────

type fakeInscriptionRepo struct {
	inscriptions map[uuid.UUID]*model.Inscription
}

func newFakeInscriptionRepo() *fakeInscriptionRepo {
	return &fakeInscriptionRepo{inscriptions: make(map[uuid.UUID]*model.Inscription)}
}

func (r *fakeInscriptionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Inscription, error) {
	i, ok := r.inscriptions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return i, nil
}

func (r *fakeInscriptionRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Inscription, error) {
	return r.FindByID(context.Background(), id)
}

func (r *fakeInscriptionRepo) AddPaidTx(_ *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	i, ok := r.inscriptions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	i.PaidValue = i.PaidValue.Add(delta)
	return nil
}

func (r *fakeInscriptionRepo) SetStatusTx(_ *gorm.DB, id uuid.UUID, status string) error {
	i, ok := r.inscriptions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	i.Status = status
	return nil
}

var _ repository.InscriptionRepository = (*fakeInscriptionRepo)(nil)

// ── In-memory EventRepository ────────────────────────────────────────────────

type fakeEventRepo struct {
	events   map[uuid.UUID]*model.Event
	expenses []model.EventExpense
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[uuid.UUID]*model.Event)}
}

func (r *fakeEventRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Event, error) {
	e, ok := r.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (r *fakeEventRepo) List(_ context.Context) ([]model.Event, error) {
	out := make([]model.Event, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, *e)
	}
	return out, nil
}

func (r *fakeEventRepo) AddAmountCollectedTx(_ *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	e, ok := r.events[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.AmountCollected = e.AmountCollected.Add(delta)
	return nil
}

func (r *fakeEventRepo) CreateExpenseTx(_ *gorm.DB, e *model.EventExpense) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now()
	r.expenses = append(r.expenses, *e)
	return nil
}

var _ repository.EventRepository = (*fakeEventRepo)(nil)

// ── In-memory CashRepository ─────────────────────────────────────────────────

type fakeCashRepo struct {
	registers map[uuid.UUID]*model.CashRegister
	entries   []model.CashRegisterEntry
	transfers []model.CashRegisterTransfer
}

func newFakeCashRepo() *fakeCashRepo {
	return &fakeCashRepo{registers: make(map[uuid.UUID]*model.CashRegister)}
}

func (r *fakeCashRepo) CreateRegister(_ context.Context, reg *model.CashRegister) error {
	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}
	r.registers[reg.ID] = reg
	return nil
}

func (r *fakeCashRepo) FindRegisterByID(_ context.Context, id uuid.UUID) (*model.CashRegister, error) {
	reg, ok := r.registers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return reg, nil
}

func (r *fakeCashRepo) UpdateRegister(_ context.Context, reg *model.CashRegister) error {
	r.registers[reg.ID] = reg
	return nil
}

func (r *fakeCashRepo) ListRegisters(_ context.Context) ([]model.CashRegister, error) {
	out := make([]model.CashRegister, 0, len(r.registers))
	for _, reg := range r.registers {
		out = append(out, *reg)
	}
	return out, nil
}

func (r *fakeCashRepo) CreateEntryTx(_ *gorm.DB, e *model.CashRegisterEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *fakeCashRepo) AddBalanceTx(_ *gorm.DB, registerID uuid.UUID, delta decimal.Decimal) error {
	reg, ok := r.registers[registerID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	reg.Balance = reg.Balance.Add(delta)
	return nil
}

func (r *fakeCashRepo) DebitBalanceTx(_ *gorm.DB, registerID uuid.UUID, value decimal.Decimal) (int64, error) {
	reg, ok := r.registers[registerID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	if reg.Balance.LessThan(value) {
		return 0, nil
	}
	reg.Balance = reg.Balance.Sub(value)
	return 1, nil
}

func (r *fakeCashRepo) CreateTransferTx(_ *gorm.DB, t *model.CashRegisterTransfer) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now()
	r.transfers = append(r.transfers, *t)
	return nil
}

func (r *fakeCashRepo) FindEntriesByInstallmentTx(_ *gorm.DB, installmentIDs []uuid.UUID) ([]model.CashRegisterEntry, error) {
	ids := make(map[uuid.UUID]bool, len(installmentIDs))
	for _, id := range installmentIDs {
		ids[id] = true
	}
	var out []model.CashRegisterEntry
	for _, e := range r.entries {
		if e.InstallmentID != nil && ids[*e.InstallmentID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeCashRepo) ListEntries(_ context.Context, registerID uuid.UUID, filter dto.MovementFilter) ([]model.CashRegisterEntry, int64, decimal.Decimal, decimal.Decimal, error) {
	var matched []model.CashRegisterEntry
	income, expense := decimal.Zero, decimal.Zero
	for _, e := range r.entries {
		if e.CashRegisterID != registerID {
			continue
		}
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		matched = append(matched, e)
		switch e.Type {
		case model.EntryIncome:
			income = income.Add(e.Value)
		case model.EntryExpense:
			expense = expense.Add(e.Value)
		}
	}
	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(matched) {
		return nil, total, income, expense, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, income, expense, nil
}

func (r *fakeCashRepo) SumEntries(_ context.Context, registerID uuid.UUID) (decimal.Decimal, decimal.Decimal, decimal.Decimal, decimal.Decimal, error) {
	income, expense, in, out := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for _, e := range r.entries {
		if e.CashRegisterID != registerID {
			continue
		}
		switch e.Type {
		case model.EntryIncome:
			income = income.Add(e.Value)
		case model.EntryExpense:
			expense = expense.Add(e.Value)
		}
	}
	for _, t := range r.transfers {
		if t.ToCashID == registerID {
			in = in.Add(t.Value)
		}
		if t.FromCashID == registerID {
			out = out.Add(t.Value)
		}
	}
	return income, expense, in, out, nil
}

func (r *fakeCashRepo) DB() *gorm.DB { return nil }

var _ repository.CashRepository = (*fakeCashRepo)(nil)

// ── In-memory TicketRepository ───────────────────────────────────────────────
// Mutex-guarded: the inventory tests hammer Reserve from many goroutines.

type fakeTicketRepo struct {
	mu        sync.Mutex
	tickets   map[uuid.UUID]*model.EventTicket
	sales     map[uuid.UUID]*model.TicketSale
	unitsByQR map[string]*model.TicketUnit
	failSale  bool
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets:   make(map[uuid.UUID]*model.EventTicket),
		sales:     make(map[uuid.UUID]*model.TicketSale),
		unitsByQR: make(map[string]*model.TicketUnit),
	}
}

func (r *fakeTicketRepo) FindTicketByID(_ context.Context, id uuid.UUID) (*model.EventTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTicketRepo) Reserve(_ context.Context, ticketID uuid.UUID, quantity int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[ticketID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	if t.Available < quantity {
		return 0, nil
	}
	t.Available -= quantity
	return 1, nil
}

func (r *fakeTicketRepo) Release(_ context.Context, ticketID uuid.UUID, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[ticketID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.Available += quantity
	if t.Available > t.Quantity {
		t.Available = t.Quantity
	}
	return nil
}

func (r *fakeTicketRepo) CreateSaleTx(_ *gorm.DB, s *model.TicketSale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSale {
		return errors.New("insert failed")
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	for i := range s.Items {
		item := &s.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.TicketSaleID = s.ID
		for j := range item.Units {
			u := &item.Units[j]
			if u.ID == uuid.Nil {
				u.ID = uuid.New()
			}
			u.TicketSaleItemID = item.ID
			r.unitsByQR[u.QRCode] = u
		}
	}
	r.sales[s.ID] = s
	return nil
}

func (r *fakeTicketRepo) FindSaleByID(_ context.Context, id uuid.UUID) (*model.TicketSale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *fakeTicketRepo) FindUnitByQR(_ context.Context, qrCode string) (*model.TicketUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.unitsByQR[qrCode]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeTicketRepo) RedeemUnit(_ context.Context, qrCode string, usedAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.unitsByQR[qrCode]
	if !ok || u.UsedAt != nil {
		return 0, nil
	}
	u.UsedAt = &usedAt
	return 1, nil
}

func (r *fakeTicketRepo) DB() *gorm.DB { return nil }

var _ repository.TicketRepository = (*fakeTicketRepo)(nil)

// ── Shared fixtures ──────────────────────────────────────────────────────────

func seedEvent(events *fakeEventRepo, name string) *model.Event {
	e := &model.Event{ID: uuid.New(), Name: name, AmountCollected: decimal.Zero}
	events.events[e.ID] = e
	return e
}

func seedInscription(inscs *fakeInscriptionRepo, eventID uuid.UUID, total float64) *model.Inscription {
	i := &model.Inscription{
		ID:         uuid.New(),
		EventID:    eventID,
		Name:       "Participant",
		TotalValue: decimal.NewFromFloat(total),
		PaidValue:  decimal.Zero,
		Status:     model.InscriptionPending,
	}
	inscs.inscriptions[i.ID] = i
	return i
}

func seedOpenRegister(cash *fakeCashRepo, balance float64) *model.CashRegister {
	reg := &model.CashRegister{
		ID:             uuid.New(),
		Name:           "Front desk",
		Status:         model.RegisterOpen,
		OpeningBalance: decimal.NewFromFloat(balance),
		Balance:        decimal.NewFromFloat(balance),
		OpenedAt:       time.Now(),
	}
	cash.registers[reg.ID] = reg
	return reg
}
