package app

import (
	"testing"
	"time"

	"github.com/dkeye/Relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLedger() (*Ledger, *clock) {
	c := &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewLedger(WithClock(c.now)), c
}

func TestEventCursor(t *testing.T) {
	l, _ := newTestLedger()
	for _, id := range []string{"e1", "e2", "e3"} {
		l.Post("k", domain.HouseEvent{EventID: id, EventType: "t"})
	}

	ids := func(evs []domain.HouseEvent) []string {
		out := []string{}
		for _, e := range evs {
			out = append(out, e.EventID)
		}
		return out
	}
	assert.Equal(t, []string{"e1", "e2", "e3"}, ids(l.Events("k")))
	assert.Equal(t, []string{"e2", "e3"}, ids(l.EventsSince("k", "e1")))
	assert.Equal(t, []string{}, ids(l.EventsSince("k", "e3")))
	assert.Equal(t, []string{}, ids(l.EventsSince("k", "unknown")))
	assert.NotNil(t, l.Events("other"))
}

func TestPostAssignsIDAndTimestamp(t *testing.T) {
	l, c := newTestLedger()
	ev := l.Post("k", domain.HouseEvent{EventType: "t", Timestamp: time.Unix(1, 0)})
	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, c.t, ev.Timestamp)
	assert.Equal(t, domain.HouseKey("k"), ev.SigningPubkey)
}

func TestGCBoundary(t *testing.T) {
	l, c := newTestLedger()
	retention := time.Hour
	l.Post("old", domain.HouseEvent{EventID: "a"})
	l.Post("mixed", domain.HouseEvent{EventID: "b"})
	c.advance(30 * time.Minute)
	l.Post("mixed", domain.HouseEvent{EventID: "c"})

	// "a" and "b" sit exactly on the cutoff and are purged
	c.advance(30 * time.Minute)
	assert.Equal(t, 2, l.GC(retention))
	assert.Empty(t, l.Events("old"))
	assert.Len(t, l.Events("mixed"), 1)
	assert.Equal(t, 1, l.QueueCount())

	c.advance(time.Nanosecond)
	l.GC(retention)
	assert.Len(t, l.Events("mixed"), 1)
	c.advance(30 * time.Minute)
	l.GC(retention)
	assert.Zero(t, l.QueueCount())
}

func TestAckOverwrites(t *testing.T) {
	l, _ := newTestLedger()
	l.Ack("k", "u", "e5")
	l.Ack("k", "u", "e2")
	id, ok := l.Watermark("k", "u")
	require.True(t, ok)
	assert.Equal(t, "e2", id)
}

func TestHintOverwrite(t *testing.T) {
	l, c := newTestLedger()
	_, ok := l.Hint("k")
	assert.False(t, ok)

	l.PutHint("k", domain.HouseHint{EncryptedState: "s1", Signature: "x"})
	h := l.PutHint("k", domain.HouseHint{EncryptedState: "s2", Signature: "y"})
	assert.Equal(t, c.t, h.LastUpdated)

	got, ok := l.Hint("k")
	require.True(t, ok)
	assert.Equal(t, "s2", got.EncryptedState)
	assert.Equal(t, domain.HouseKey("k"), got.SigningPubkey)
}
