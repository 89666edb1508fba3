package service

import (
	"context"
	"fmt"
	"time"

	"eventpay/internal/dto"
	"eventpay/internal/model"
	"eventpay/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CashService owns the append-only ledger. A register balance changes in
// exactly two ways: an entry or a transfer, each written in the same
// transaction as the balance delta.
type CashService interface {
	OpenRegister(ctx context.Context, req dto.OpenRegisterRequest) (*dto.RegisterResponse, error)
	CloseRegister(ctx context.Context, id uuid.UUID) (*dto.RegisterResponse, error)
	ListRegisters(ctx context.Context) ([]dto.RegisterResponse, error)
	RecordEntry(ctx context.Context, req dto.RecordEntryRequest) (*dto.EntryResponse, error)
	Transfer(ctx context.Context, req dto.TransferRequest) (*dto.TransferResponse, error)
	Movements(ctx context.Context, registerID uuid.UUID, filter dto.MovementFilter) (*dto.MovementListResponse, error)
	RecordEventExpense(ctx context.Context, req dto.EventExpenseRequest) (*dto.ExpenseResponse, error)
}

type cashService struct {
	repo     repository.CashRepository
	events   repository.EventRepository
	payments repository.PaymentRepository
}

func NewCashService(repo repository.CashRepository, events repository.EventRepository, payments repository.PaymentRepository) CashService {
	return &cashService{repo: repo, events: events, payments: payments}
}

func (s *cashService) OpenRegister(ctx context.Context, req dto.OpenRegisterRequest) (*dto.RegisterResponse, error) {
	if req.OpeningBalance.IsNegative() {
		return nil, fmt.Errorf("opening_balance cannot be negative")
	}
	var regionID *uuid.UUID
	if req.RegionID != nil {
		id, err := uuid.Parse(*req.RegionID)
		if err != nil {
			return nil, fmt.Errorf("invalid region_id: %w", err)
		}
		regionID = &id
	}

	reg := &model.CashRegister{
		Name:           req.Name,
		RegionID:       regionID,
		Status:         model.RegisterOpen,
		OpeningBalance: req.OpeningBalance,
		Balance:        req.OpeningBalance,
		OpenedAt:       time.Now(),
	}
	if err := s.repo.CreateRegister(ctx, reg); err != nil {
		return nil, err
	}
	return registerToResponse(reg), nil
}

func (s *cashService) CloseRegister(ctx context.Context, id uuid.UUID) (*dto.RegisterResponse, error) {
	reg, err := s.repo.FindRegisterByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: cash register %s", ErrNotFound, id)
	}
	if reg.Status == model.RegisterClosed {
		return nil, fmt.Errorf("%w: register already closed", ErrInvalidTransition)
	}
	now := time.Now()
	reg.Status = model.RegisterClosed
	reg.ClosedAt = &now
	if err := s.repo.UpdateRegister(ctx, reg); err != nil {
		return nil, err
	}
	return registerToResponse(reg), nil
}

func (s *cashService) ListRegisters(ctx context.Context) ([]dto.RegisterResponse, error) {
	regs, err := s.repo.ListRegisters(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RegisterResponse, 0, len(regs))
	for i := range regs {
		out = append(out, *registerToResponse(&regs[i]))
	}
	return out, nil
}

// RecordEntry appends an immutable entry and moves the balance in the same
// transaction. The correlation rule (exactly one origin reference) is
// enforced here, beyond what tag validation can express.
func (s *cashService) RecordEntry(ctx context.Context, req dto.RecordEntryRequest) (*dto.EntryResponse, error) {
	if !req.Value.IsPositive() {
		return nil, fmt.Errorf("entry value must be positive")
	}
	registerID, err := uuid.Parse(req.CashRegisterID)
	if err != nil {
		return nil, fmt.Errorf("invalid cash_register_id: %w", err)
	}
	reg, err := s.repo.FindRegisterByID(ctx, registerID)
	if err != nil {
		return nil, fmt.Errorf("%w: cash register %s", ErrNotFound, registerID)
	}
	if reg.Status != model.RegisterOpen {
		return nil, fmt.Errorf("%w: register is closed", ErrInvalidTransition)
	}

	entry := &model.CashRegisterEntry{
		CashRegisterID: registerID,
		Type:           req.Type,
		Method:         req.Method,
		Value:          req.Value,
		Description:    req.Description,
	}
	if entry.EventID, err = parseOptionalUUID(req.EventID, "event_id"); err != nil {
		return nil, err
	}
	if entry.InstallmentID, err = parseOptionalUUID(req.InstallmentID, "installment_id"); err != nil {
		return nil, err
	}
	if entry.InscriptionID, err = parseOptionalUUID(req.InscriptionID, "inscription_id"); err != nil {
		return nil, err
	}
	if entry.ExpenseID, err = parseOptionalUUID(req.ExpenseID, "expense_id"); err != nil {
		return nil, err
	}
	if entry.TicketSaleID, err = parseOptionalUUID(req.TicketSaleID, "ticket_sale_id"); err != nil {
		return nil, err
	}
	if err := entry.ValidateCorrelation(); err != nil {
		return nil, err
	}

	delta := req.Value
	if req.Type == model.EntryExpense {
		delta = delta.Neg()
	}
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateEntryTx(tx, entry); err != nil {
			return err
		}
		return s.repo.AddBalanceTx(tx, registerID, delta)
	})
	if txErr != nil {
		return nil, txErr
	}
	return entryToResponse(entry), nil
}

// Transfer moves value between two registers atomically. The debit is a
// conditional update, so a concurrent transfer can never drive the source
// register negative. One audit row is written, not two entries.
func (s *cashService) Transfer(ctx context.Context, req dto.TransferRequest) (*dto.TransferResponse, error) {
	if !req.Value.IsPositive() {
		return nil, fmt.Errorf("transfer value must be positive")
	}
	fromID, err := uuid.Parse(req.FromCashID)
	if err != nil {
		return nil, fmt.Errorf("invalid from_cash_id: %w", err)
	}
	toID, err := uuid.Parse(req.ToCashID)
	if err != nil {
		return nil, fmt.Errorf("invalid to_cash_id: %w", err)
	}
	if fromID == toID {
		return nil, fmt.Errorf("cannot transfer a register to itself")
	}
	if _, err := s.repo.FindRegisterByID(ctx, fromID); err != nil {
		return nil, fmt.Errorf("%w: cash register %s", ErrNotFound, fromID)
	}
	if _, err := s.repo.FindRegisterByID(ctx, toID); err != nil {
		return nil, fmt.Errorf("%w: cash register %s", ErrNotFound, toID)
	}

	transfer := &model.CashRegisterTransfer{
		FromCashID:  fromID,
		ToCashID:    toID,
		Value:       req.Value,
		Description: req.Description,
		Responsible: req.Responsible,
	}
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		rows, err := s.repo.DebitBalanceTx(tx, fromID, req.Value)
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("%w: register %s", ErrInsufficientBalance, fromID)
		}
		if err := s.repo.AddBalanceTx(tx, toID, req.Value); err != nil {
			return err
		}
		return s.repo.CreateTransferTx(tx, transfer)
	})
	if txErr != nil {
		return nil, txErr
	}

	from, err := s.repo.FindRegisterByID(ctx, fromID)
	if err != nil {
		return nil, err
	}
	to, err := s.repo.FindRegisterByID(ctx, toID)
	if err != nil {
		return nil, err
	}
	return &dto.TransferResponse{
		ID:          transfer.ID.String(),
		FromCashID:  fromID.String(),
		ToCashID:    toID.String(),
		Value:       req.Value,
		FromBalance: from.Balance,
		ToBalance:   to.Balance,
	}, nil
}

func (s *cashService) Movements(ctx context.Context, registerID uuid.UUID, filter dto.MovementFilter) (*dto.MovementListResponse, error) {
	if _, err := s.repo.FindRegisterByID(ctx, registerID); err != nil {
		return nil, fmt.Errorf("%w: cash register %s", ErrNotFound, registerID)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}

	entries, total, income, expense, err := s.repo.ListEntries(ctx, registerID, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.MovementListResponse{
		Data:         make([]dto.EntryResponse, 0, len(entries)),
		TotalIncome:  income,
		TotalExpense: expense,
		Total:        total,
		Page:         filter.Page,
		Limit:        filter.Limit,
	}
	for i := range entries {
		resp.Data = append(resp.Data, *entryToResponse(&entries[i]))
	}
	return resp, nil
}

// RecordEventExpense books a cost against an event: the expense row, an
// EXPENSE financial movement, and — when paid out of a register — a
// correlated cash entry, all in one transaction.
func (s *cashService) RecordEventExpense(ctx context.Context, req dto.EventExpenseRequest) (*dto.ExpenseResponse, error) {
	if !req.Value.IsPositive() {
		return nil, fmt.Errorf("expense value must be positive")
	}
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, fmt.Errorf("invalid event_id: %w", err)
	}
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return nil, fmt.Errorf("%w: event %s", ErrNotFound, req.EventID)
	}

	var registerID *uuid.UUID
	if req.CashRegisterID != nil {
		rid, err := uuid.Parse(*req.CashRegisterID)
		if err != nil {
			return nil, fmt.Errorf("invalid cash_register_id: %w", err)
		}
		reg, err := s.repo.FindRegisterByID(ctx, rid)
		if err != nil {
			return nil, fmt.Errorf("%w: cash register %s", ErrNotFound, rid)
		}
		if reg.Status != model.RegisterOpen {
			return nil, fmt.Errorf("%w: register is closed", ErrInvalidTransition)
		}
		registerID = &rid
	}

	method := req.Method
	if method == "" {
		method = model.MethodCash
	}

	expense := &model.EventExpense{
		EventID:     eventID,
		Description: req.Description,
		Value:       req.Value,
	}
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.events.CreateExpenseTx(tx, expense); err != nil {
			return err
		}
		if err := s.payments.CreateMovementTx(tx, &model.FinancialMovement{
			EventID: eventID,
			Type:    model.MovementExpense,
			Value:   req.Value,
		}); err != nil {
			return err
		}
		if registerID == nil {
			return nil
		}
		entry := &model.CashRegisterEntry{
			CashRegisterID: *registerID,
			Type:           model.EntryExpense,
			Method:         method,
			Value:          req.Value,
			Description:    req.Description,
			ExpenseID:      &expense.ID,
		}
		if err := s.repo.CreateEntryTx(tx, entry); err != nil {
			return err
		}
		return s.repo.AddBalanceTx(tx, *registerID, req.Value.Neg())
	})
	if txErr != nil {
		return nil, txErr
	}
	return &dto.ExpenseResponse{
		ID:          expense.ID.String(),
		EventID:     eventID.String(),
		Description: expense.Description,
		Value:       expense.Value,
		CreatedAt:   expense.CreatedAt.Format(time.RFC3339),
	}, nil
}

func parseOptionalUUID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", field, err)
	}
	return &id, nil
}

func registerToResponse(reg *model.CashRegister) *dto.RegisterResponse {
	resp := &dto.RegisterResponse{
		ID:             reg.ID.String(),
		Name:           reg.Name,
		Status:         reg.Status,
		OpeningBalance: reg.OpeningBalance,
		Balance:        reg.Balance,
		OpenedAt:       reg.OpenedAt.Format(time.RFC3339),
	}
	if reg.ClosedAt != nil {
		ts := reg.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &ts
	}
	return resp
}

func entryToResponse(e *model.CashRegisterEntry) *dto.EntryResponse {
	return &dto.EntryResponse{
		ID:          e.ID.String(),
		Type:        e.Type,
		Method:      e.Method,
		Value:       e.Value,
		Description: e.Description,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
}
