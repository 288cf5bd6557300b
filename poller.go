package spgo

import (
	"context"
	"time"
)

// Run drives the pending-load queue until ctx is done, checking it every
// PollInterval and whenever MetadataUpdated fires. It returns ctx's error.
func (b *Bridge) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()

	log := b.log.With().Str("loop", "pending-loads").Logger()
	log.Debug().Dur("interval", b.cfg.PollInterval).Msg("poller started")
	defer log.Debug().Msg("poller stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-b.wake:
		}
		if n := b.CheckLoaded(); n > 0 {
			log.Debug().Int("delivered", n).Int("pending", b.Pending()).Msg("pending loads delivered")
		}
	}
}
