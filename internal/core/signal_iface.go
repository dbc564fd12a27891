package core

import "errors"

// Frame is one encoded outbound message.
type Frame []byte

// ConnID identifies one live transport session.
type ConnID string

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend enqueues without blocking. A full queue yields ErrBackpressure.
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SentTo  int
	Dropped []ConnID
}
