package repository

import (
	"context"

	"eventpay/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EventRepository covers the event-side counters the settlement engine
// maintains. AmountCollected is only ever moved with relative updates so
// concurrent approvals cannot clobber each other.
type EventRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	AddAmountCollectedTx(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error
	CreateExpenseTx(tx *gorm.DB, e *model.EventExpense) error
}

type eventRepo struct{ db *gorm.DB }

func NewEventRepository(db *gorm.DB) EventRepository { return &eventRepo{db: db} }

func (r *eventRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	var e model.Event
	err := r.db.WithContext(ctx).First(&e, id).Error
	return &e, err
}

func (r *eventRepo) List(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&events).Error
	return events, err
}

func (r *eventRepo) AddAmountCollectedTx(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	return tx.Model(&model.Event{}).Where("id = ?", id).
		Update("amount_collected", gorm.Expr("amount_collected + ?", delta)).Error
}

func (r *eventRepo) CreateExpenseTx(tx *gorm.DB, e *model.EventExpense) error {
	return tx.Create(e).Error
}
