package repository

import (
	"context"
	"time"

	"eventpay/internal/dto"
	"eventpay/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CashRepository is the data access contract for registers, entries and
// transfers. Balance mutations are relative updates; DebitBalanceTx is
// conditional so a transfer can never drive a register negative even under
// concurrent withdrawals.
type CashRepository interface {
	CreateRegister(ctx context.Context, r *model.CashRegister) error
	FindRegisterByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error)
	UpdateRegister(ctx context.Context, r *model.CashRegister) error
	ListRegisters(ctx context.Context) ([]model.CashRegister, error)

	CreateEntryTx(tx *gorm.DB, e *model.CashRegisterEntry) error
	AddBalanceTx(tx *gorm.DB, registerID uuid.UUID, delta decimal.Decimal) error
	// DebitBalanceTx subtracts value only when the balance covers it.
	// Returns the number of rows updated: 0 means insufficient balance.
	DebitBalanceTx(tx *gorm.DB, registerID uuid.UUID, value decimal.Decimal) (int64, error)
	CreateTransferTx(tx *gorm.DB, t *model.CashRegisterTransfer) error

	// FindEntriesByInstallmentTx returns the entries correlated to any of the
	// given installments — the reversal coordinator compensates them.
	FindEntriesByInstallmentTx(tx *gorm.DB, installmentIDs []uuid.UUID) ([]model.CashRegisterEntry, error)

	// ListEntries pages entries and aggregates income/expense totals over the
	// whole filtered set, independent of the page window.
	ListEntries(ctx context.Context, registerID uuid.UUID, filter dto.MovementFilter) ([]model.CashRegisterEntry, int64, decimal.Decimal, decimal.Decimal, error)

	// SumEntries folds all entries and transfers of a register for the
	// reconciliation balance check.
	SumEntries(ctx context.Context, registerID uuid.UUID) (income, expense, transfersIn, transfersOut decimal.Decimal, err error)

	DB() *gorm.DB
}

type cashRepo struct{ db *gorm.DB }

func NewCashRepository(db *gorm.DB) CashRepository { return &cashRepo{db: db} }

func (r *cashRepo) CreateRegister(ctx context.Context, reg *model.CashRegister) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *cashRepo) FindRegisterByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error) {
	var reg model.CashRegister
	err := r.db.WithContext(ctx).First(&reg, id).Error
	return &reg, err
}

func (r *cashRepo) UpdateRegister(ctx context.Context, reg *model.CashRegister) error {
	return r.db.WithContext(ctx).Save(reg).Error
}

func (r *cashRepo) ListRegisters(ctx context.Context) ([]model.CashRegister, error) {
	var regs []model.CashRegister
	err := r.db.WithContext(ctx).Order("opened_at ASC").Find(&regs).Error
	return regs, err
}

func (r *cashRepo) CreateEntryTx(tx *gorm.DB, e *model.CashRegisterEntry) error {
	return tx.Create(e).Error
}

func (r *cashRepo) AddBalanceTx(tx *gorm.DB, registerID uuid.UUID, delta decimal.Decimal) error {
	return tx.Model(&model.CashRegister{}).Where("id = ?", registerID).
		Update("balance", gorm.Expr("balance + ?", delta)).Error
}

func (r *cashRepo) DebitBalanceTx(tx *gorm.DB, registerID uuid.UUID, value decimal.Decimal) (int64, error) {
	res := tx.Model(&model.CashRegister{}).
		Where("id = ? AND balance >= ?", registerID, value).
		Update("balance", gorm.Expr("balance - ?", value))
	return res.RowsAffected, res.Error
}

func (r *cashRepo) CreateTransferTx(tx *gorm.DB, t *model.CashRegisterTransfer) error {
	return tx.Create(t).Error
}

func (r *cashRepo) FindEntriesByInstallmentTx(tx *gorm.DB, installmentIDs []uuid.UUID) ([]model.CashRegisterEntry, error) {
	if len(installmentIDs) == 0 {
		return nil, nil
	}
	var entries []model.CashRegisterEntry
	err := tx.Where("installment_id IN ?", installmentIDs).Find(&entries).Error
	return entries, err
}

func (r *cashRepo) ListEntries(ctx context.Context, registerID uuid.UUID, filter dto.MovementFilter) ([]model.CashRegisterEntry, int64, decimal.Decimal, decimal.Decimal, error) {
	q := r.db.WithContext(ctx).Model(&model.CashRegisterEntry{}).
		Where("cash_register_id = ?", registerID)

	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if from, err := time.Parse("2006-01-02", filter.From); err == nil {
		q = q.Where("created_at >= ?", from)
	}
	if to, err := time.Parse("2006-01-02", filter.To); err == nil {
		q = q.Where("created_at < ?", to.AddDate(0, 0, 1))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, decimal.Zero, decimal.Zero, err
	}

	// Aggregates over the full filtered set, not the page.
	var agg struct {
		Income  decimal.NullDecimal
		Expense decimal.NullDecimal
	}
	aggQ := q.Session(&gorm.Session{}).
		Select("COALESCE(SUM(CASE WHEN type = 'INCOME' THEN value ELSE 0 END), 0) AS income, " +
			"COALESCE(SUM(CASE WHEN type = 'EXPENSE' THEN value ELSE 0 END), 0) AS expense")
	if err := aggQ.Scan(&agg).Error; err != nil {
		return nil, 0, decimal.Zero, decimal.Zero, err
	}

	var entries []model.CashRegisterEntry
	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("created_at DESC").Limit(filter.Limit).Offset(offset).Find(&entries).Error
	return entries, total, agg.Income.Decimal, agg.Expense.Decimal, err
}

func (r *cashRepo) SumEntries(ctx context.Context, registerID uuid.UUID) (decimal.Decimal, decimal.Decimal, decimal.Decimal, decimal.Decimal, error) {
	sum := func(q *gorm.DB) (decimal.Decimal, error) {
		var v decimal.NullDecimal
		err := q.Scan(&v).Error
		return v.Decimal, err
	}

	income, err := sum(r.db.WithContext(ctx).Model(&model.CashRegisterEntry{}).
		Where("cash_register_id = ? AND type = ?", registerID, model.EntryIncome).
		Select("COALESCE(SUM(value), 0)"))
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, err
	}
	expense, err := sum(r.db.WithContext(ctx).Model(&model.CashRegisterEntry{}).
		Where("cash_register_id = ? AND type = ?", registerID, model.EntryExpense).
		Select("COALESCE(SUM(value), 0)"))
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, err
	}
	in, err := sum(r.db.WithContext(ctx).Model(&model.CashRegisterTransfer{}).
		Where("to_cash_id = ?", registerID).
		Select("COALESCE(SUM(value), 0)"))
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, err
	}
	out, err := sum(r.db.WithContext(ctx).Model(&model.CashRegisterTransfer{}).
		Where("from_cash_id = ?", registerID).
		Select("COALESCE(SUM(value), 0)"))
	return income, expense, in, out, err
}

func (r *cashRepo) DB() *gorm.DB { return r.db }
