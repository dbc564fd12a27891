package app

import (
	"testing"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySendToKnownAndUnknownPeer(t *testing.T) {
	r := NewRegistry()
	c := &fakeConn{}
	id := r.Open(c)
	_, err := r.BindPeer(id, "p1")
	require.NoError(t, err)

	require.NoError(t, r.Send("p1", core.Frame("hi")))
	assert.Equal(t, 1, c.count())

	assert.ErrorIs(t, r.Send("ghost", core.Frame("hi")), domain.ErrNotFound)
	assert.Equal(t, 1, c.count())
}

func TestRegistryBindUnknownConn(t *testing.T) {
	r := NewRegistry()
	_, err := r.BindPeer("nope", "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistryCloseOnce(t *testing.T) {
	r := NewRegistry()
	id := r.Open(&fakeConn{})
	_, _ = r.BindPeer(id, "p1")
	_, _ = r.BindPeer(id, "p2")
	_, _ = r.BindPeer(id, "p1")

	peers, ok := r.Close(id)
	require.True(t, ok)
	assert.Equal(t, []domain.PeerID{"p1", "p2"}, peers)

	_, ok = r.Close(id)
	assert.False(t, ok)

	_, bound := r.ConnOf("p1")
	assert.False(t, bound)
	assert.Zero(t, r.Len())
}

func TestRegistryPeerMovesBetweenConns(t *testing.T) {
	r := NewRegistry()
	a := r.Open(&fakeConn{})
	b := r.Open(&fakeConn{})
	_, _ = r.BindPeer(a, "p1")

	prev, err := r.BindPeer(b, "p1")
	require.NoError(t, err)
	assert.Equal(t, a, prev)
	assert.Empty(t, r.PeersOf(a))

	// closing the old connection must not unbind the moved peer
	_, _ = r.Close(a)
	id, ok := r.ConnOf("p1")
	require.True(t, ok)
	assert.Equal(t, b, id)
}

func TestPublishReportsDropped(t *testing.T) {
	r := NewRegistry()
	fast := &fakeConn{}
	slow := &fakeConn{full: true}
	a := r.Open(fast)
	b := r.Open(slow)

	res := r.Publish([]core.ConnID{a, b, "gone"}, core.Frame("x"))
	assert.Equal(t, 1, res.SentTo)
	assert.Equal(t, []core.ConnID{b}, res.Dropped)
	assert.Equal(t, 1, fast.count())
}

func TestConnsOfDedupes(t *testing.T) {
	r := NewRegistry()
	a := r.Open(&fakeConn{})
	_, _ = r.BindPeer(a, "p1")
	_, _ = r.BindPeer(a, "p2")

	assert.Equal(t, []core.ConnID{a}, r.ConnsOf([]domain.PeerID{"p1", "p2", "ghost"}))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("drop")
	require.NoError(t, err)
	assert.Equal(t, DropFrame, p.OnBackPressure("c"))

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, Disconnect, p.OnBackPressure("c"))

	_, err = ParsePolicy("kick")
	assert.Error(t, err)
}
