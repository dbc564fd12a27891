package app

import (
	"testing"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRegisterRosterExcludesSelf(t *testing.T) {
	r := NewRouter()
	assert.Empty(t, r.Register("c1", domain.NewPeer("p1", "h", nil)))
	assert.Equal(t, []domain.PeerID{"p1"}, r.Register("c1", domain.NewPeer("p2", "h", nil)))
	assert.Equal(t, []domain.PeerID{"p1", "p2"}, r.Register("c1", domain.NewPeer("p3", "h", nil)))

	// re-registering does not duplicate
	assert.Equal(t, []domain.PeerID{"p1", "p2"}, r.Register("c1", domain.NewPeer("p3", "h", nil)))
	assert.Equal(t, []domain.PeerID{"p1", "p2", "p3"}, r.Roster("h"))
}

func TestUnregisterDropsEmptyEntries(t *testing.T) {
	r := NewRouter()
	r.Register("c1", domain.NewPeer("p1", "h", keyPtr("k")))
	r.Register("c1", domain.NewPeer("p2", "h", keyPtr("k")))

	_, ok := r.Unregister("p1")
	assert.True(t, ok)
	assert.Equal(t, []domain.PeerID{"p2"}, r.Subscribers("k"))

	r.Unregister("p2")
	assert.Zero(t, r.HouseCount())
	assert.Empty(t, r.Subscribers("k"))

	_, ok = r.Unregister("p2")
	assert.False(t, ok)
}

func TestSubscriptionRequiresKey(t *testing.T) {
	r := NewRouter()
	r.Register("c1", domain.NewPeer("p1", "h", nil))
	r.Register("c1", domain.NewPeer("p2", "h", keyPtr("k")))
	assert.Equal(t, []domain.PeerID{"p2"}, r.Subscribers("k"))
}

func TestReRegisterMovesHouseAndKey(t *testing.T) {
	r := NewRouter()
	r.Register("c1", domain.NewPeer("p1", "h1", keyPtr("k1")))
	r.Register("c1", domain.NewPeer("p1", "h2", keyPtr("k2")))

	assert.Empty(t, r.Roster("h1"))
	assert.Equal(t, []domain.PeerID{"p1"}, r.Roster("h2"))
	assert.Empty(t, r.Subscribers("k1"))
	assert.Equal(t, []domain.PeerID{"p1"}, r.Subscribers("k2"))
	assert.Equal(t, 1, r.HouseCount())
}

func TestUnregisterIfOwnerKeepsMovedPeer(t *testing.T) {
	r := NewRouter()
	r.Register("a", domain.NewPeer("p1", "h", keyPtr("k")))
	r.Register("b", domain.NewPeer("p1", "h", keyPtr("k")))

	owner, ok := r.Owner("p1")
	assert.True(t, ok)
	assert.Equal(t, core.ConnID("b"), owner)

	_, ok = r.UnregisterIfOwner("p1", "a")
	assert.False(t, ok)
	assert.Equal(t, []domain.PeerID{"p1"}, r.Roster("h"))
	assert.Equal(t, []domain.PeerID{"p1"}, r.Subscribers("k"))

	_, ok = r.UnregisterIfOwner("p1", "b")
	assert.True(t, ok)
	assert.Empty(t, r.Roster("h"))
	_, ok = r.Owner("p1")
	assert.False(t, ok)
}
