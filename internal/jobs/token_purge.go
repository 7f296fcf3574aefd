package jobs

import (
	"context"
	"log"
	"time"

	"bioplus/api/internal/config"
)

type tokenPurger interface {
	PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// StartTokenPurgeJob periodically clears expired verification and
// password-reset tokens so stale digests do not accumulate on user rows.
func StartTokenPurgeJob(ctx context.Context, cfg config.Config, store tokenPurger) {
	if !cfg.TokenPurgeJobEnabled {
		return
	}
	interval := cfg.TokenPurgeInterval
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				now := time.Now().UTC()
				tickCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
				purged, err := store.PurgeExpiredTokens(tickCtx, now)
				cancel()
				if err != nil {
					log.Printf("token purge job error: %v", err)
					continue
				}
				if purged > 0 {
					log.Printf("token purge job cleared %d expired tokens", purged)
				}
			}
		}
	}()
}
