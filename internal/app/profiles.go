package app

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

// Profiles replicates profile metadata with last-writer-wins on Rev.
// Memory is authoritative; the store is a write-through mirror.
type Profiles struct {
	mu      sync.RWMutex
	records map[domain.UserID]domain.ProfileRecord

	store   core.ProfileStore
	timeout time.Duration
}

func NewProfiles(store core.ProfileStore, timeout time.Duration) *Profiles {
	if store == nil {
		store = core.NopProfileStore{}
	}
	return &Profiles{
		records: make(map[domain.UserID]domain.ProfileRecord),
		store:   store,
		timeout: timeout,
	}
}

// Announce stores rec when its revision is newer than the stored one and
// returns the record that is current afterwards. Accepted records are written
// through to the store after the lock is released.
func (p *Profiles) Announce(ctx context.Context, uid domain.UserID, rec domain.ProfileRecord) (domain.ProfileRecord, bool) {
	p.mu.Lock()
	var stored *domain.ProfileRecord
	if cur, ok := p.records[uid]; ok {
		stored = &cur
	}
	applied := rec.Supersedes(stored)
	if applied {
		p.records[uid] = rec
	}
	current := p.records[uid]
	p.mu.Unlock()

	l := log.With().Str("module", "app.profiles").Str("user", string(uid)).Int64("rev", rec.Rev).Logger()
	if !applied {
		l.Debug().Int64("stored_rev", current.Rev).Msg("stale profile ignored")
		return current, false
	}
	l.Debug().Msg("profile accepted")

	if !core.IsNop(p.store) {
		wctx, cancel := p.withTimeout(ctx)
		defer cancel()
		if err := p.store.Upsert(wctx, uid, current); err != nil {
			l.Error().Err(err).Str("store", p.store.Name()).Msg("profile write-through failed")
		}
	}
	return current, true
}

// Query returns snapshots for the known subset of ids, in request order.
// With a store configured, newer stored records are adopted first.
func (p *Profiles) Query(ctx context.Context, ids []domain.UserID) []domain.ProfileSnapshot {
	if !core.IsNop(p.store) && len(ids) > 0 {
		rctx, cancel := p.withTimeout(ctx)
		loaded, err := p.store.Load(rctx, ids)
		cancel()
		if err != nil {
			log.Warn().Str("module", "app.profiles").Str("store", p.store.Name()).Err(err).Msg("profile load failed; serving memory")
		} else {
			p.Adopt(loaded)
		}
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.ProfileSnapshot, 0, len(ids))
	seen := make(map[domain.UserID]struct{}, len(ids))
	for _, uid := range ids {
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}
		if rec, ok := p.records[uid]; ok {
			out = append(out, rec.Snapshot(uid))
		}
	}
	return out
}

// Adopt merges snapshots that are newer than memory and reports how many were taken.
func (p *Profiles) Adopt(snaps []domain.ProfileSnapshot) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range snaps {
		var stored *domain.ProfileRecord
		if cur, ok := p.records[s.UserID]; ok {
			stored = &cur
		}
		if rec := s.Record(); rec.Supersedes(stored) {
			p.records[s.UserID] = rec
			n++
		}
	}
	return n
}

func (p *Profiles) Get(uid domain.UserID) (domain.ProfileRecord, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, ok := p.records[uid]
	return rec, ok
}

func (p *Profiles) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}
