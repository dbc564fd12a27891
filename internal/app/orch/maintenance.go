package orch

import (
	"context"
	"time"

	"github.com/dkeye/Relay/internal/core"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// RunMaintenance sweeps expired events and invites every GCInterval and
// refreshes the presence mirror every PresenceTTL/2. It returns when ctx ends.
func (o *Orchestrator) RunMaintenance(ctx context.Context, opts Options) error {
	g, ctx := errgroup.WithContext(ctx)

	if opts.GCInterval > 0 {
		g.Go(func() error {
			every(ctx, opts.GCInterval, func(now time.Time) {
				o.Sweep(now, opts.EventRetention)
			})
			return nil
		})
	}

	if _, nop := o.Mirror.(core.NopPresenceMirror); !nop && opts.PresenceTTL > 0 {
		g.Go(func() error {
			every(ctx, opts.PresenceTTL/2, func(time.Time) {
				o.RefreshMirror(ctx)
			})
			return nil
		})
	}

	log.Info().Str("module", "orch.maintenance").Dur("gc_interval", opts.GCInterval).Dur("presence_ttl", opts.PresenceTTL).Msg("maintenance started")
	err := g.Wait()
	log.Info().Str("module", "orch.maintenance").Msg("maintenance stopped")
	return err
}

// Sweep runs one round of event and invite garbage collection.
func (o *Orchestrator) Sweep(now time.Time, retention time.Duration) {
	if retention > 0 {
		o.Ledger.GC(retention)
	}
	o.Ledger.GCExpiredInvites(now)
}

// RefreshMirror re-publishes every online user so mirror entries do not expire.
// A user that leaves while its entry is being written is removed again.
func (o *Orchestrator) RefreshMirror(ctx context.Context) {
	for _, st := range o.Presence.Online() {
		cur, ok := o.Presence.Status(st.UserID)
		if !ok {
			continue
		}
		if err := o.Mirror.Online(ctx, cur); err != nil {
			log.Warn().Str("module", "orch.maintenance").Str("user", string(st.UserID)).Err(err).Msg("presence refresh failed")
			return
		}
		if _, still := o.Presence.Status(st.UserID); !still {
			if err := o.Mirror.Offline(ctx, st.UserID); err != nil {
				log.Warn().Str("module", "orch.maintenance").Str("user", string(st.UserID)).Err(err).Msg("presence refresh cleanup failed")
			}
		}
	}
}

func every(ctx context.Context, d time.Duration, fn func(time.Time)) {
	t := time.NewTicker(d)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			fn(now)
		}
	}
}
