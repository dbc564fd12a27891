package app

import (
	"context"
	"testing"

	"github.com/dkeye/Relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnounceMonotonic(t *testing.T) {
	ctx := context.Background()
	p := NewProfiles(nil, 0)

	cur, applied := p.Announce(ctx, "u", domain.ProfileRecord{DisplayName: "five", Rev: 5})
	require.True(t, applied)
	assert.Equal(t, int64(5), cur.Rev)

	cur, applied = p.Announce(ctx, "u", domain.ProfileRecord{DisplayName: "three", Rev: 3})
	assert.False(t, applied)
	assert.Equal(t, "five", cur.DisplayName)

	_, applied = p.Announce(ctx, "u", domain.ProfileRecord{DisplayName: "tie", Rev: 5})
	assert.False(t, applied)

	cur, applied = p.Announce(ctx, "u", domain.ProfileRecord{DisplayName: "six", Rev: 6})
	assert.True(t, applied)
	assert.Equal(t, "six", cur.DisplayName)
}

func TestAnnounceWritesThroughOnlyAccepted(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	p := NewProfiles(store, 0)

	p.Announce(ctx, "u", domain.ProfileRecord{DisplayName: "a", Rev: 2})
	p.Announce(ctx, "u", domain.ProfileRecord{DisplayName: "b", Rev: 1})
	assert.Equal(t, 1, store.upserts)
	assert.Equal(t, "a", store.records["u"].DisplayName)
}

func TestAnnounceSurvivesStoreFailure(t *testing.T) {
	store := newMemStore()
	store.failing = true
	p := NewProfiles(store, 0)

	_, applied := p.Announce(context.Background(), "u", domain.ProfileRecord{Rev: 1})
	assert.True(t, applied)
	_, ok := p.Get("u")
	assert.True(t, ok)
}

func TestQueryKnownSubsetInOrder(t *testing.T) {
	ctx := context.Background()
	p := NewProfiles(nil, 0)
	p.Announce(ctx, "a", domain.ProfileRecord{DisplayName: "A", Rev: 1})
	p.Announce(ctx, "b", domain.ProfileRecord{DisplayName: "B", Rev: 1})

	got := p.Query(ctx, []domain.UserID{"b", "ghost", "a", "b"})
	require.Len(t, got, 2)
	assert.Equal(t, domain.UserID("b"), got[0].UserID)
	assert.Equal(t, domain.UserID("a"), got[1].UserID)
}

func TestQueryAdoptsNewerStoreRecords(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.records["a"] = domain.ProfileRecord{DisplayName: "from-db", Rev: 9}
	store.records["b"] = domain.ProfileRecord{DisplayName: "old-db", Rev: 1}
	p := NewProfiles(store, 0)
	p.Adopt([]domain.ProfileSnapshot{{UserID: "b", DisplayName: "mem", Rev: 4}})

	got := p.Query(ctx, []domain.UserID{"a", "b"})
	require.Len(t, got, 2)
	assert.Equal(t, "from-db", got[0].DisplayName)
	assert.Equal(t, "mem", got[1].DisplayName)

	store.failing = true
	assert.Len(t, p.Query(ctx, []domain.UserID{"a"}), 1)
}
