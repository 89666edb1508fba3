package service

import (
	"context"
	"fmt"
	"time"

	"eventpay/internal/dto"
	"eventpay/internal/model"
	"eventpay/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TicketService guards finite inventory. Reservation is a conditional
// check-and-decrement in the database — under a concurrent last-unit race
// exactly one buyer wins, the rest get ErrInsufficientInventory.
type TicketService interface {
	CreateSale(ctx context.Context, req dto.CreateSaleRequest) (*dto.SaleResponse, error)
	GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error)
	Redeem(ctx context.Context, req dto.RedeemRequest) (*dto.RedeemResponse, error)
}

type ticketService struct {
	repo   repository.TicketRepository
	events repository.EventRepository
	cash   repository.CashRepository
}

func NewTicketService(repo repository.TicketRepository, events repository.EventRepository, cash repository.CashRepository) TicketService {
	return &ticketService{repo: repo, events: events, cash: cash}
}

// ── CreateSale ────────────────────────────────────────────────────────────────
// Inventory is reserved item by item before anything is persisted. If any
// reservation fails, or the sale transaction itself fails, every reservation
// already taken is released — the compensation is clamped server-side so a
// double release can never push availability past quantity.

func (s *ticketService) CreateSale(ctx context.Context, req dto.CreateSaleRequest) (*dto.SaleResponse, error) {
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
		reg, err := s.cash.FindRegisterByID(ctx, rid)
		if err != nil {
			return nil, fmt.Errorf("%w: cash register %s", ErrNotFound, rid)
		}
		if reg.Status != model.RegisterOpen {
			return nil, fmt.Errorf("%w: register is closed", ErrInvalidTransition)
		}
		registerID = &rid
	}

	type resolvedItem struct {
		ticketID  uuid.UUID
		quantity  int
		unitPrice decimal.Decimal
		subtotal  decimal.Decimal
	}

	var resolved []resolvedItem
	total := decimal.Zero
	for _, item := range req.Items {
		tid, err := uuid.Parse(item.EventTicketID)
		if err != nil {
			return nil, fmt.Errorf("invalid event_ticket_id %q: %w", item.EventTicketID, err)
		}
		t, err := s.repo.FindTicketByID(ctx, tid)
		if err != nil {
			return nil, fmt.Errorf("%w: ticket %s", ErrNotFound, item.EventTicketID)
		}
		if t.EventID != eventID {
			return nil, fmt.Errorf("ticket %s does not belong to event %s", item.EventTicketID, req.EventID)
		}
		subtotal := t.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(subtotal)
		resolved = append(resolved, resolvedItem{
			ticketID:  tid,
			quantity:  item.Quantity,
			unitPrice: t.Price,
			subtotal:  subtotal,
		})
	}

	// Reserve item by item. On the first failure, give back what was taken.
	reserved := make([]resolvedItem, 0, len(resolved))
	release := func() {
		for _, r := range reserved {
			if err := s.repo.Release(ctx, r.ticketID, r.quantity); err != nil {
				log.Error().Err(err).Str("ticket_id", r.ticketID.String()).
					Int("quantity", r.quantity).Msg("failed to release reservation")
			}
		}
	}
	for _, r := range resolved {
		rows, err := s.repo.Reserve(ctx, r.ticketID, r.quantity)
		if err != nil {
			release()
			return nil, err
		}
		if rows == 0 {
			release()
			return nil, fmt.Errorf("%w: ticket %s", ErrInsufficientInventory, r.ticketID)
		}
		reserved = append(reserved, r)
	}

	sale := &model.TicketSale{
		EventID:    eventID,
		BuyerEmail: req.BuyerEmail,
		Total:      total,
		Method:     req.Method,
	}
	for _, r := range reserved {
		item := model.TicketSaleItem{
			EventTicketID: r.ticketID,
			Quantity:      r.quantity,
			UnitPrice:     r.unitPrice,
			Subtotal:      r.subtotal,
		}
		for i := 0; i < r.quantity; i++ {
			item.Units = append(item.Units, model.TicketUnit{QRCode: uuid.NewString()})
		}
		sale.Items = append(sale.Items, item)
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateSaleTx(tx, sale); err != nil {
			return err
		}
		if registerID == nil {
			return nil
		}
		entry := &model.CashRegisterEntry{
			CashRegisterID: *registerID,
			Type:           model.EntryIncome,
			Method:         req.Method,
			Value:          total,
			Description:    fmt.Sprintf("Ticket sale to %s", req.BuyerEmail),
			TicketSaleID:   &sale.ID,
		}
		if err := s.cash.CreateEntryTx(tx, entry); err != nil {
			return err
		}
		return s.cash.AddBalanceTx(tx, *registerID, total)
	})
	if txErr != nil {
		// The reservation survived but the sale did not — compensate.
		release()
		return nil, txErr
	}

	return saleToResponse(sale), nil
}

func (s *ticketService) GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.repo.FindSaleByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: ticket sale %s", ErrNotFound, id)
	}
	return saleToResponse(sale), nil
}

// Redeem accepts a QR code once. The conditional update on used_at IS NULL
// is the whole mechanism: a second scan updates zero rows.
func (s *ticketService) Redeem(ctx context.Context, req dto.RedeemRequest) (*dto.RedeemResponse, error) {
	unit, err := s.repo.FindUnitByQR(ctx, req.QRCode)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown qr code", ErrNotFound)
	}

	now := time.Now()
	rows, err := s.repo.RedeemUnit(ctx, req.QRCode, now)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: unit %s", ErrAlreadyRedeemed, unit.ID)
	}
	return &dto.RedeemResponse{
		UnitID:   unit.ID.String(),
		UsedAt:   now.Format(time.RFC3339),
		Redeemed: true,
	}, nil
}

func saleToResponse(sale *model.TicketSale) *dto.SaleResponse {
	resp := &dto.SaleResponse{
		ID:         sale.ID.String(),
		EventID:    sale.EventID.String(),
		BuyerEmail: sale.BuyerEmail,
		Total:      sale.Total,
		Items:      make([]dto.SaleItemResponse, 0, len(sale.Items)),
		CreatedAt:  sale.CreatedAt.Format(time.RFC3339),
	}
	for _, item := range sale.Items {
		ir := dto.SaleItemResponse{
			EventTicketID: item.EventTicketID.String(),
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			Subtotal:      item.Subtotal,
		}
		for _, u := range item.Units {
			ur := dto.TicketUnitResponse{ID: u.ID.String(), QRCode: u.QRCode}
			if u.UsedAt != nil {
				ts := u.UsedAt.Format(time.RFC3339)
				ur.UsedAt = &ts
			}
			ir.Units = append(ir.Units, ur)
		}
		resp.Items = append(resp.Items, ir)
	}
	return resp
}
