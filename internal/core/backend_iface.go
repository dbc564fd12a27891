package core

import (
	"context"

	"github.com/dkeye/Relay/internal/domain"
)

// ProfileStore is the optional durable profile backend.
// It mirrors the in-memory replicator and is never authoritative over it.
type ProfileStore interface {
	Name() string
	// Load returns whatever the store knows about ids; unknown ids are omitted.
	Load(ctx context.Context, ids []domain.UserID) ([]domain.ProfileSnapshot, error)
	// Upsert writes rec iff it is newer than the stored revision.
	Upsert(ctx context.Context, uid domain.UserID, rec domain.ProfileRecord) error
	Close() error
}

// PresenceStatus is the externally mirrored view of an online user.
type PresenceStatus struct {
	UserID domain.UserID     `json:"user_id"`
	Keys   []domain.HouseKey `json:"signing_pubkeys"`
	Active *domain.HouseKey  `json:"active_signing_pubkey"`
	Conns  int               `json:"connections"`
}

// PresenceMirror publishes presence to an external cache for other processes.
type PresenceMirror interface {
	Online(ctx context.Context, st PresenceStatus) error
	Offline(ctx context.Context, uid domain.UserID) error
	Close() error
}

// NopProfileStore is used when no durable backend is configured.
type NopProfileStore struct{}

func (NopProfileStore) Name() string { return "none" }
func (NopProfileStore) Load(context.Context, []domain.UserID) ([]domain.ProfileSnapshot, error) {
	return nil, nil
}
func (NopProfileStore) Upsert(context.Context, domain.UserID, domain.ProfileRecord) error {
	return nil
}
func (NopProfileStore) Close() error { return nil }

type NopPresenceMirror struct{}

func (NopPresenceMirror) Online(context.Context, PresenceStatus) error { return nil }
func (NopPresenceMirror) Offline(context.Context, domain.UserID) error { return nil }
func (NopPresenceMirror) Close() error                                 { return nil }

// IsNop reports whether s is the disabled store.
func IsNop(s ProfileStore) bool {
	_, ok := s.(NopProfileStore)
	return s == nil || ok
}
