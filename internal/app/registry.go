package app

import (
	"sync"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	conn  core.SignalConnection
	peers []domain.PeerID
}

// Registry owns live connections and the peer identities registered on them.
// Closing a connection through the registry is the only way its peers go away.
type Registry struct {
	mu       sync.RWMutex
	conns    map[core.ConnID]*connEntry
	peerConn map[domain.PeerID]core.ConnID
}

func NewRegistry() *Registry {
	return &Registry{
		conns:    make(map[core.ConnID]*connEntry),
		peerConn: make(map[domain.PeerID]core.ConnID),
	}
}

// Open tracks conn under a fresh connection id.
func (r *Registry) Open(conn core.SignalConnection) core.ConnID {
	id := core.ConnID(uuid.NewString())
	r.mu.Lock()
	r.conns[id] = &connEntry{conn: conn}
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("opened connection")
	return id
}

// BindPeer attaches peer to connection id. A peer already bound elsewhere is
// moved; the previous connection id is returned so callers can log it.
func (r *Registry) BindPeer(id core.ConnID, peer domain.PeerID) (core.ConnID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.conns[id]
	if !ok {
		return "", domain.ErrNotFound
	}

	prev, bound := r.peerConn[peer]
	if bound && prev == id {
		return prev, nil
	}
	if bound {
		if old, ok := r.conns[prev]; ok {
			old.peers = removePeer(old.peers, peer)
		}
	}
	entry.peers = append(entry.peers, peer)
	r.peerConn[peer] = id
	log.Debug().Str("module", "app.registry").Str("conn", string(id)).Str("peer", string(peer)).Msg("bound peer")
	return prev, nil
}

// Close forgets the connection and returns the peers that were bound to it.
// Only the first call for an id reports ok.
func (r *Registry) Close(id core.ConnID) ([]domain.PeerID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	delete(r.conns, id)
	for _, p := range entry.peers {
		if r.peerConn[p] == id {
			delete(r.peerConn, p)
		}
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Int("peers", len(entry.peers)).Msg("closed connection")
	return entry.peers, true
}

func (r *Registry) Conn(id core.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.conn, true
	}
	return nil, false
}

func (r *Registry) ConnOf(peer domain.PeerID) (core.ConnID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.peerConn[peer]
	return id, ok
}

// ConnsOf resolves peers to their distinct connections. Unknown peers are skipped.
func (r *Registry) ConnsOf(peers []domain.PeerID) []core.ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.ConnID, 0, len(peers))
	seen := make(map[core.ConnID]struct{}, len(peers))
	for _, p := range peers {
		id, ok := r.peerConn[p]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (r *Registry) PeersOf(id core.ConnID) []domain.PeerID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return nil
	}
	return append([]domain.PeerID(nil), e.peers...)
}

// Send enqueues frame for peer. Unknown peers yield domain.ErrNotFound.
func (r *Registry) Send(peer domain.PeerID, frame core.Frame) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.peerConn[peer]
	if !ok {
		return domain.ErrNotFound
	}
	return r.conns[id].conn.TrySend(frame)
}

// SendConn enqueues frame on the connection itself, independent of peers.
func (r *Registry) SendConn(id core.ConnID, frame core.Frame) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return domain.ErrNotFound
	}
	return e.conn.TrySend(frame)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func removePeer(peers []domain.PeerID, peer domain.PeerID) []domain.PeerID {
	out := peers[:0]
	for _, p := range peers {
		if p != peer {
			out = append(out, p)
		}
	}
	return out
}
