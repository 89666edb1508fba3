package worker

// email_worker.go
// Processes email jobs from QueueEmail. Deliveries go through the mailer
// circuit breaker — when the SMTP relay is down the breaker trips and jobs
// fast-fail into the DLQ instead of stalling the pool.

import (
	"context"
	"encoding/json"

	"eventpay/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// EmailPayload is the job envelope sent to QueueEmail.
type EmailPayload struct {
	To      string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	PDFPath string `json:"pdf_path,omitempty"`
}

type EmailWorker struct {
	mailer *infra.Mailer
	cb     *infra.CircuitBreaker
	rdb    *redis.Client
}

func NewEmailWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker, rdb *redis.Client) *EmailWorker {
	return &EmailWorker{mailer: mailer, cb: cb, rdb: rdb}
}

// Process sends one email, with retries and breaker protection. Exhausted
// jobs land in the DLQ for manual inspection.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload EmailPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return
	}
	if payload.To == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return
	}

	err := withRetry(ctx, 3, func(attempt int) error {
		return w.cb.Execute(func() error {
			return w.mailer.Send(payload.To, payload.Subject, payload.Body, payload.PDFPath)
		})
	})
	if err != nil {
		log.Error().Err(err).Str("to", payload.To).Msg("email_worker: delivery failed after retries")
		SendToDLQ(ctx, w.rdb, QueueEmail, "email", raw, err.Error(), 3)
		return
	}
	log.Info().Str("to", payload.To).Msg("email_worker: sent")
}
