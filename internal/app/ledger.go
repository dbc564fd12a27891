package app

import (
	"sync"
	"time"

	"github.com/dkeye/Relay/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type ackKey struct {
	key  domain.HouseKey
	user domain.UserID
}

// Ledger holds the time-bounded per-house event log, advisory ack
// watermarks, house hints and invite tokens. Nothing here is durable.
type Ledger struct {
	mu      sync.Mutex
	events  map[domain.HouseKey][]domain.HouseEvent
	acks    map[ackKey]string
	hints   map[domain.HouseKey]domain.HouseHint
	invites map[string]domain.InviteToken

	inviteTTL time.Duration
	now       func() time.Time
}

type LedgerOption func(*Ledger)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

func WithInviteTTL(ttl time.Duration) LedgerOption {
	return func(l *Ledger) { l.inviteTTL = ttl }
}

func NewLedger(opts ...LedgerOption) *Ledger {
	l := &Ledger{
		events:    make(map[domain.HouseKey][]domain.HouseEvent),
		acks:      make(map[ackKey]string),
		hints:     make(map[domain.HouseKey]domain.HouseHint),
		invites:   make(map[string]domain.InviteToken),
		inviteTTL: domain.DefaultInviteTTL,
		now:       time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Post stamps ev with the server time, fills a missing id and appends it.
func (l *Ledger) Post(key domain.HouseKey, ev domain.HouseEvent) domain.HouseEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	ev.Timestamp = l.now().UTC()
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if ev.SigningPubkey == "" {
		ev.SigningPubkey = key
	}
	l.events[key] = append(l.events[key], ev)
	log.Debug().Str("module", "app.ledger").Str("key", string(key)).Str("event", ev.EventID).Str("event_type", ev.EventType).Msg("event posted")
	return ev
}

// Events returns the whole queue of key in insertion order.
func (l *Ledger) Events(key domain.HouseKey) []domain.HouseEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.HouseEvent{}, l.events[key]...)
}

// EventsSince returns the events strictly after the one with id since.
// If no event has that id the result is empty, not the full backlog.
func (l *Ledger) EventsSince(key domain.HouseKey, since string) []domain.HouseEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	queue := l.events[key]
	for i, ev := range queue {
		if ev.EventID == since {
			return append([]domain.HouseEvent{}, queue[i+1:]...)
		}
	}
	return []domain.HouseEvent{}
}

// Ack overwrites the watermark of (key, user). It is never checked against the queue.
func (l *Ledger) Ack(key domain.HouseKey, user domain.UserID, lastEventID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acks[ackKey{key, user}] = lastEventID
}

func (l *Ledger) Watermark(key domain.HouseKey, user domain.UserID) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id, ok := l.acks[ackKey{key, user}]
	return id, ok
}

// GC drops events not newer than now-retention and empty queues.
// It returns the number of events removed.
func (l *Ledger) GC(retention time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-retention)
	removed := 0
	for key, queue := range l.events {
		kept := queue[:0]
		for _, ev := range queue {
			if ev.Timestamp.After(cutoff) {
				kept = append(kept, ev)
			}
		}
		removed += len(queue) - len(kept)
		if len(kept) == 0 {
			delete(l.events, key)
			continue
		}
		l.events[key] = kept
	}
	if removed > 0 {
		log.Info().Str("module", "app.ledger").Int("removed", removed).Dur("retention", retention).Msg("event gc")
	}
	return removed
}

// PutHint overwrites the hint of key and returns what was stored.
func (l *Ledger) PutHint(key domain.HouseKey, hint domain.HouseHint) domain.HouseHint {
	l.mu.Lock()
	defer l.mu.Unlock()
	hint.SigningPubkey = key
	if hint.LastUpdated.IsZero() {
		hint.LastUpdated = l.now().UTC()
	}
	l.hints[key] = hint
	return hint
}

func (l *Ledger) Hint(key domain.HouseKey) (domain.HouseHint, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.hints[key]
	return h, ok
}

// QueueCount reports how many houses currently hold events.
func (l *Ledger) QueueCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}
