package worker

// receipt_worker.go
// Generates the PDF receipt for an approved payment and chains an email job
// with the file attached. Runs post-commit, so a crash here never affects the
// settlement itself — the receipt can be regenerated by re-enqueueing.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"eventpay/internal/infra"
	"eventpay/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ReceiptPayload is the job envelope sent to QueueReceipt.
type ReceiptPayload struct {
	PaymentID string `json:"payment_id"`
	To        string `json:"to_email"`
}

type ReceiptWorker struct {
	payments    repository.PaymentRepository
	events      repository.EventRepository
	dispatcher  *Dispatcher
	rdb         *redis.Client
	storagePath string
}

func NewReceiptWorker(
	payments repository.PaymentRepository,
	events repository.EventRepository,
	dispatcher *Dispatcher,
	rdb *redis.Client,
	storagePath string,
) *ReceiptWorker {
	return &ReceiptWorker{
		payments:    payments,
		events:      events,
		dispatcher:  dispatcher,
		rdb:         rdb,
		storagePath: storagePath,
	}
}

func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReceiptPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_worker: invalid payload")
		return
	}
	paymentID, err := uuid.Parse(payload.PaymentID)
	if err != nil {
		log.Error().Str("payment_id", payload.PaymentID).Msg("receipt_worker: invalid payment_id")
		return
	}

	p, err := w.payments.FindByID(ctx, paymentID)
	if err != nil {
		log.Error().Err(err).Str("payment_id", payload.PaymentID).Msg("receipt_worker: payment not found")
		return
	}
	eventName := "Event"
	if event, err := w.events.FindByID(ctx, p.EventID); err == nil {
		eventName = event.Name
	}

	var pdfPath string
	genErr := withRetry(ctx, 3, func(attempt int) error {
		path, err := infra.GenerateReceiptPDF(p, eventName, w.storagePath)
		if err != nil {
			return err
		}
		pdfPath = path
		return nil
	})
	if genErr != nil {
		log.Error().Err(genErr).Str("payment_id", payload.PaymentID).Msg("receipt_worker: PDF generation failed")
		SendToDLQ(ctx, w.rdb, QueueReceipt, "receipt", raw, genErr.Error(), 3)
		return
	}
	log.Info().Str("pdf", pdfPath).Str("payment_id", payload.PaymentID).Msg("receipt_worker: PDF generated")

	if payload.To == "" {
		return
	}
	emailJob := EmailPayload{
		To:      payload.To,
		Subject: fmt.Sprintf("Payment receipt — %s", eventName),
		Body:    fmt.Sprintf("Your payment of %s was approved. The receipt is attached.", p.TotalValue.StringFixed(2)),
		PDFPath: pdfPath,
	}
	if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
		log.Warn().Err(err).Str("to", payload.To).Msg("receipt_worker: failed to enqueue email")
	}
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
