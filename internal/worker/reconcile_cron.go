package worker

// reconcile_cron.go
// Background goroutine that periodically recomputes the denormalized
// counters (event.amount_collected, register balances) from their sources of
// truth and logs any drift. Read-only: it never repairs, it alerts.

import (
	"context"
	"time"

	"eventpay/internal/dto"

	"github.com/rs/zerolog/log"
)

const reconcileTickInterval = 5 * time.Minute

// DriftChecker is the slice of the reconciliation service the cron needs.
type DriftChecker interface {
	Sweep(ctx context.Context) ([]dto.DriftReport, error)
}

// StartReconcileCron launches a goroutine that sweeps all events and
// registers on a fixed interval. It respects the context for graceful
// shutdown.
func StartReconcileCron(ctx context.Context, checker DriftChecker) {
	go func() {
		ticker := time.NewTicker(reconcileTickInterval)
		defer ticker.Stop()

		log.Info().Msg("reconcile_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("reconcile_cron: shutting down")
				return
			case <-ticker.C:
				sweep(ctx, checker)
			}
		}
	}()
}

func sweep(ctx context.Context, checker DriftChecker) {
	drifts, err := checker.Sweep(ctx)
	if err != nil {
		log.Error().Err(err).Msg("reconcile_cron: sweep failed")
		return
	}
	if len(drifts) == 0 {
		return
	}
	for _, d := range drifts {
		log.Warn().
			Str("kind", d.Kind).
			Str("id", d.ID).
			Str("expected", d.Expected.String()).
			Str("actual", d.Actual.String()).
			Str("delta", d.Delta.String()).
			Msg("reconcile_cron: counter drift detected")
	}
}
