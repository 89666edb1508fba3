package repository

import (
	"context"

	"eventpay/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentRepository is the data access contract for the payment aggregate.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling unit testing via in-memory fakes. Methods with a Tx suffix must be
// called inside a live transaction owned by the service.
type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	FindByCheckoutSession(ctx context.Context, session string) (*model.Payment, error)
	FindByGatewayID(ctx context.Context, gatewayID string) (*model.Payment, error)
	FindByExternalReference(ctx context.Context, ref string) (*model.Payment, error)
	UpdateTx(tx *gorm.DB, p *model.Payment) error
	// DeleteTx hard-deletes a pre-settlement payment and its inscription links.
	DeleteTx(tx *gorm.DB, id uuid.UUID) error

	CreateAllocationTx(tx *gorm.DB, a *model.PaymentAllocation) error
	DeleteAllocationTx(tx *gorm.DB, id uuid.UUID) error

	FindInstallmentByGatewayID(ctx context.Context, gatewayID string) (*model.PaymentInstallment, error)
	CreateInstallmentTx(tx *gorm.DB, inst *model.PaymentInstallment) error
	UpdateInstallmentTx(tx *gorm.DB, inst *model.PaymentInstallment) error
	DeleteInstallmentTx(tx *gorm.DB, id uuid.UUID) error

	CreateMovementTx(tx *gorm.DB, m *model.FinancialMovement) error
	DeleteMovementTx(tx *gorm.DB, id uuid.UUID) error

	AddTotalReceivedTx(tx *gorm.DB, paymentID uuid.UUID, delta decimal.Decimal) error

	// SumApprovedByEvent folds the gross value of approved/reversed-exclusive
	// payments for reconciliation against event.amount_collected.
	SumApprovedByEvent(ctx context.Context, eventID uuid.UUID) (decimal.Decimal, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type paymentRepo struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) PaymentRepository { return &paymentRepo{db: db} }

func (r *paymentRepo) Create(ctx context.Context, p *model.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *paymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).
		Preload("Allocations").
		Preload("Installments").
		Preload("Inscriptions").
		First(&p, id).Error
	return &p, err
}

func (r *paymentRepo) FindByCheckoutSession(ctx context.Context, session string) (*model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).
		Preload("Allocations").Preload("Installments").Preload("Inscriptions").
		Where("checkout_session = ?", session).First(&p).Error
	return &p, err
}

func (r *paymentRepo) FindByGatewayID(ctx context.Context, gatewayID string) (*model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).
		Preload("Allocations").Preload("Installments").Preload("Inscriptions").
		Where("gateway_payment_id = ?", gatewayID).First(&p).Error
	return &p, err
}

func (r *paymentRepo) FindByExternalReference(ctx context.Context, ref string) (*model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).
		Preload("Allocations").Preload("Installments").Preload("Inscriptions").
		Where("external_reference = ?", ref).First(&p).Error
	return &p, err
}

func (r *paymentRepo) UpdateTx(tx *gorm.DB, p *model.Payment) error {
	return tx.Save(p).Error
}

func (r *paymentRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	// Pre-settlement payments may carry effect-free allocation rows
	// (PIX/CASH registered but never approved) — drop them with the links.
	if err := tx.Where("payment_id = ?", id).Delete(&model.PaymentAllocation{}).Error; err != nil {
		return err
	}
	if err := tx.Where("payment_id = ?", id).Delete(&model.PaymentInscription{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Payment{}, id).Error
}

func (r *paymentRepo) CreateAllocationTx(tx *gorm.DB, a *model.PaymentAllocation) error {
	return tx.Create(a).Error
}

func (r *paymentRepo) DeleteAllocationTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.PaymentAllocation{}, id).Error
}

func (r *paymentRepo) FindInstallmentByGatewayID(ctx context.Context, gatewayID string) (*model.PaymentInstallment, error) {
	var inst model.PaymentInstallment
	err := r.db.WithContext(ctx).Where("gateway_payment_id = ?", gatewayID).First(&inst).Error
	return &inst, err
}

func (r *paymentRepo) CreateInstallmentTx(tx *gorm.DB, inst *model.PaymentInstallment) error {
	return tx.Create(inst).Error
}

func (r *paymentRepo) UpdateInstallmentTx(tx *gorm.DB, inst *model.PaymentInstallment) error {
	return tx.Save(inst).Error
}

func (r *paymentRepo) DeleteInstallmentTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.PaymentInstallment{}, id).Error
}

func (r *paymentRepo) CreateMovementTx(tx *gorm.DB, m *model.FinancialMovement) error {
	return tx.Create(m).Error
}

func (r *paymentRepo) DeleteMovementTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.FinancialMovement{}, id).Error
}

func (r *paymentRepo) AddTotalReceivedTx(tx *gorm.DB, paymentID uuid.UUID, delta decimal.Decimal) error {
	return tx.Model(&model.Payment{}).Where("id = ?", paymentID).
		Update("total_received", gorm.Expr("total_received + ?", delta)).Error
}

func (r *paymentRepo) SumApprovedByEvent(ctx context.Context, eventID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("event_id = ? AND status = ?", eventID, model.PaymentApproved).
		Select("COALESCE(SUM(total_value), 0)").Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum.Decimal, nil
}

func (r *paymentRepo) DB() *gorm.DB { return r.db }
