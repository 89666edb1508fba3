package repository

import (
	"context"
	"time"

	"eventpay/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TicketRepository is the data access contract for ticket inventory, sales
// and admission units. Reserve is the single atomic check-and-decrement the
// inventory guard is built on — callers never read-then-write availability.
type TicketRepository interface {
	FindTicketByID(ctx context.Context, id uuid.UUID) (*model.EventTicket, error)
	// Reserve conditionally decrements availability. Returns the number of
	// rows updated: 0 means not enough units were available.
	Reserve(ctx context.Context, ticketID uuid.UUID, quantity int) (int64, error)
	// Release restores availability, clamped so it never exceeds quantity.
	Release(ctx context.Context, ticketID uuid.UUID, quantity int) error

	CreateSaleTx(tx *gorm.DB, s *model.TicketSale) error
	FindSaleByID(ctx context.Context, id uuid.UUID) (*model.TicketSale, error)

	FindUnitByQR(ctx context.Context, qrCode string) (*model.TicketUnit, error)
	// RedeemUnit stamps used_at only when the unit is still unused.
	// Returns rows updated: 0 means the code was already redeemed.
	RedeemUnit(ctx context.Context, qrCode string, usedAt time.Time) (int64, error)

	DB() *gorm.DB
}

type ticketRepo struct{ db *gorm.DB }

func NewTicketRepository(db *gorm.DB) TicketRepository { return &ticketRepo{db: db} }

func (r *ticketRepo) FindTicketByID(ctx context.Context, id uuid.UUID) (*model.EventTicket, error) {
	var t model.EventTicket
	err := r.db.WithContext(ctx).First(&t, id).Error
	return &t, err
}

func (r *ticketRepo) Reserve(ctx context.Context, ticketID uuid.UUID, quantity int) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.EventTicket{}).
		Where("id = ? AND available >= ?", ticketID, quantity).
		Update("available", gorm.Expr("available - ?", quantity))
	return res.RowsAffected, res.Error
}

func (r *ticketRepo) Release(ctx context.Context, ticketID uuid.UUID, quantity int) error {
	// LEAST clamp defends against double-release bugs.
	return r.db.WithContext(ctx).Model(&model.EventTicket{}).
		Where("id = ?", ticketID).
		Update("available", gorm.Expr("LEAST(available + ?, quantity)", quantity)).Error
}

func (r *ticketRepo) CreateSaleTx(tx *gorm.DB, s *model.TicketSale) error {
	return tx.Create(s).Error
}

func (r *ticketRepo) FindSaleByID(ctx context.Context, id uuid.UUID) (*model.TicketSale, error) {
	var s model.TicketSale
	err := r.db.WithContext(ctx).Preload("Items").Preload("Items.Units").First(&s, id).Error
	return &s, err
}

func (r *ticketRepo) FindUnitByQR(ctx context.Context, qrCode string) (*model.TicketUnit, error) {
	var u model.TicketUnit
	err := r.db.WithContext(ctx).Where("qr_code = ?", qrCode).First(&u).Error
	return &u, err
}

func (r *ticketRepo) RedeemUnit(ctx context.Context, qrCode string, usedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.TicketUnit{}).
		Where("qr_code = ? AND used_at IS NULL", qrCode).
		Update("used_at", usedAt)
	return res.RowsAffected, res.Error
}

func (r *ticketRepo) DB() *gorm.DB { return r.db }
