package orch

import "time"

// Options carries the tunables the orchestrator and its maintenance loop need.
type Options struct {
	StoreTimeout   time.Duration
	InviteTTL      time.Duration
	GCInterval     time.Duration
	EventRetention time.Duration
	PresenceTTL    time.Duration
}
