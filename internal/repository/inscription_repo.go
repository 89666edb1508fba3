package repository

import (
	"context"

	"eventpay/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InscriptionRepository is the narrow contract the settlement engine needs
// from the registration store — the full CRUD surface lives elsewhere.
type InscriptionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Inscription, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Inscription, error)
	// AddPaidTx moves the paid-amount counter; delta may be negative (reversal).
	AddPaidTx(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error
	SetStatusTx(tx *gorm.DB, id uuid.UUID, status string) error
}

type inscriptionRepo struct{ db *gorm.DB }

func NewInscriptionRepository(db *gorm.DB) InscriptionRepository { return &inscriptionRepo{db: db} }

func (r *inscriptionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Inscription, error) {
	var i model.Inscription
	err := r.db.WithContext(ctx).First(&i, id).Error
	return &i, err
}

func (r *inscriptionRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Inscription, error) {
	var i model.Inscription
	err := tx.First(&i, id).Error
	return &i, err
}

func (r *inscriptionRepo) AddPaidTx(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	return tx.Model(&model.Inscription{}).Where("id = ?", id).
		Update("paid_value", gorm.Expr("paid_value + ?", delta)).Error
}

func (r *inscriptionRepo) SetStatusTx(tx *gorm.DB, id uuid.UUID, status string) error {
	return tx.Model(&model.Inscription{}).Where("id = ?", id).
		Update("status", status).Error
}
