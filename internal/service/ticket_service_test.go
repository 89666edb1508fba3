package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"eventpay/internal/dto"
	"eventpay/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTicketFixture() (*fakeTicketRepo, *fakeEventRepo, *fakeCashRepo, TicketService) {
	tickets := newFakeTicketRepo()
	events := newFakeEventRepo()
	cash := newFakeCashRepo()
	return tickets, events, cash, NewTicketService(tickets, events, cash)
}

func seedTicket(tickets *fakeTicketRepo, eventID uuid.UUID, quantity int, price float64) *model.EventTicket {
	t := &model.EventTicket{
		ID:        uuid.New(),
		EventID:   eventID,
		Name:      "General admission",
		Quantity:  quantity,
		Available: quantity,
		Price:     decimal.NewFromFloat(price),
	}
	tickets.tickets[t.ID] = t
	return t
}

func TestCreateSaleReservesInventory(t *testing.T) {
	tickets, events, _, svc := newTicketFixture()
	event := seedEvent(events, "Conference")
	ticket := seedTicket(tickets, event.ID, 10, 25)

	resp, err := svc.CreateSale(context.Background(), dto.CreateSaleRequest{
		EventID:    event.ID.String(),
		BuyerEmail: "buyer@example.com",
		Method:     model.MethodCash,
		Items:      []dto.SaleItemRequest{{EventTicketID: ticket.ID.String(), Quantity: 3}},
	})

	require.NoError(t, err)
	assert.Equal(t, "75", resp.Total.String())
	require.Len(t, resp.Items, 1)
	assert.Len(t, resp.Items[0].Units, 3)
	assert.Equal(t, 7, ticket.Available)
}

func TestCreateSaleInsufficientInventory(t *testing.T) {
	tickets, events, _, svc := newTicketFixture()
	event := seedEvent(events, "Conference")
	ticket := seedTicket(tickets, event.ID, 3, 25)

	_, err := svc.CreateSale(context.Background(), dto.CreateSaleRequest{
		EventID:    event.ID.String(),
		BuyerEmail: "buyer@example.com",
		Method:     model.MethodCash,
		Items:      []dto.SaleItemRequest{{EventTicketID: ticket.ID.String(), Quantity: 5}},
	})

	assert.ErrorIs(t, err, ErrInsufficientInventory)
	assert.Equal(t, 3, ticket.Available)
}

func TestLastUnitRaceAdmitsExactlyOne(t *testing.T) {
	tickets, events, _, svc := newTicketFixture()
	event := seedEvent(events, "Conference")
	ticket := seedTicket(tickets, event.ID, 1, 25)

	const buyers = 8
	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateSale(context.Background(), dto.CreateSaleRequest{
				EventID:    event.ID.String(),
				BuyerEmail: "buyer@example.com",
				Method:     model.MethodCash,
				Items:      []dto.SaleItemRequest{{EventTicketID: ticket.ID.String(), Quantity: 1}},
			})
		}(i)
	}
	wg.Wait()

	won, lost := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrInsufficientInventory):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, buyers-1, lost)
	assert.Equal(t, 0, ticket.Available)
}

func TestFailedPersistReleasesReservation(t *testing.T) {
	tickets, events, _, svc := newTicketFixture()
	event := seedEvent(events, "Conference")
	ticket := seedTicket(tickets, event.ID, 5, 25)
	tickets.failSale = true

	_, err := svc.CreateSale(context.Background(), dto.CreateSaleRequest{
		EventID:    event.ID.String(),
		BuyerEmail: "buyer@example.com",
		Method:     model.MethodCash,
		Items:      []dto.SaleItemRequest{{EventTicketID: ticket.ID.String(), Quantity: 2}},
	})

	require.Error(t, err)
	// The reservation was compensated, not leaked.
	assert.Equal(t, 5, ticket.Available)
}

func TestPartialReservationIsRolledBack(t *testing.T) {
	tickets, events, _, svc := newTicketFixture()
	event := seedEvent(events, "Conference")
	plenty := seedTicket(tickets, event.ID, 10, 25)
	scarce := seedTicket(tickets, event.ID, 1, 40)

	_, err := svc.CreateSale(context.Background(), dto.CreateSaleRequest{
		EventID:    event.ID.String(),
		BuyerEmail: "buyer@example.com",
		Method:     model.MethodCash,
		Items: []dto.SaleItemRequest{
			{EventTicketID: plenty.ID.String(), Quantity: 2},
			{EventTicketID: scarce.ID.String(), Quantity: 3},
		},
	})

	assert.ErrorIs(t, err, ErrInsufficientInventory)
	assert.Equal(t, 10, plenty.Available)
	assert.Equal(t, 1, scarce.Available)
}

func TestCreateSaleBooksCashEntry(t *testing.T) {
	tickets, events, cash, svc := newTicketFixture()
	event := seedEvent(events, "Conference")
	ticket := seedTicket(tickets, event.ID, 10, 25)
	reg := seedOpenRegister(cash, 0)
	regID := reg.ID.String()

	_, err := svc.CreateSale(context.Background(), dto.CreateSaleRequest{
		EventID:        event.ID.String(),
		BuyerEmail:     "buyer@example.com",
		Method:         model.MethodCash,
		Items:          []dto.SaleItemRequest{{EventTicketID: ticket.ID.String(), Quantity: 2}},
		CashRegisterID: &regID,
	})

	require.NoError(t, err)
	require.Len(t, cash.entries, 1)
	assert.Equal(t, model.EntryIncome, cash.entries[0].Type)
	assert.NotNil(t, cash.entries[0].TicketSaleID)
	assert.Equal(t, "50", reg.Balance.String())
}

func TestRedeemIsSingleUse(t *testing.T) {
	tickets, events, _, svc := newTicketFixture()
	event := seedEvent(events, "Conference")
	ticket := seedTicket(tickets, event.ID, 2, 25)

	sale, err := svc.CreateSale(context.Background(), dto.CreateSaleRequest{
		EventID:    event.ID.String(),
		BuyerEmail: "buyer@example.com",
		Method:     model.MethodCash,
		Items:      []dto.SaleItemRequest{{EventTicketID: ticket.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)
	qr := sale.Items[0].Units[0].QRCode

	first, err := svc.Redeem(context.Background(), dto.RedeemRequest{QRCode: qr})
	require.NoError(t, err)
	assert.True(t, first.Redeemed)

	_, err = svc.Redeem(context.Background(), dto.RedeemRequest{QRCode: qr})
	assert.ErrorIs(t, err, ErrAlreadyRedeemed)
}

func TestRedeemUnknownCode(t *testing.T) {
	_, _, _, svc := newTicketFixture()

	_, err := svc.Redeem(context.Background(), dto.RedeemRequest{QRCode: "not-a-real-code"})
	assert.ErrorIs(t, err, ErrNotFound)
}
