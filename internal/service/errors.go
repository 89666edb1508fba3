package service

import "errors"

// Domain error taxonomy. Handlers map these to HTTP statuses; everything not
// wrapped here surfaces as an internal error. Duplicate gateway deliveries
// are intentionally NOT errors — they resolve to an "ignored" webhook result.
var (
	// ErrNotFound: payment/inscription/ticket/cash register absent.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidTransition: a state machine rule was violated, e.g. approving
	// an already-approved payment. Not retryable.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInsufficientInventory: reserve would oversell a ticket.
	ErrInsufficientInventory = errors.New("insufficient ticket inventory")

	// ErrInsufficientBalance: transfer would drive a register negative.
	ErrInsufficientBalance = errors.New("insufficient cash register balance")

	// ErrAlreadyRedeemed: the QR code was accepted once before.
	ErrAlreadyRedeemed = errors.New("ticket unit already redeemed")
)
