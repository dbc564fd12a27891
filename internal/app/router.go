package app

import (
	"sync"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

// Router groups registered peers by house and by house key subscription.
// Each entry remembers the connection that registered it last.
type Router struct {
	mu     sync.RWMutex
	peers  map[domain.PeerID]domain.Peer
	owners map[domain.PeerID]core.ConnID
	houses map[domain.HouseID][]domain.PeerID
	subs   map[domain.HouseKey][]domain.PeerID
}

func NewRouter() *Router {
	return &Router{
		peers:  make(map[domain.PeerID]domain.Peer),
		owners: make(map[domain.PeerID]core.ConnID),
		houses: make(map[domain.HouseID][]domain.PeerID),
		subs:   make(map[domain.HouseKey][]domain.PeerID),
	}
}

// Register places p in its house roster and, when p carries a key, subscribes
// it to that key. It returns the other peers of the house in roster order.
// Re-registering moves the peer instead of duplicating it and hands
// ownership to the new connection.
func (r *Router) Register(owner core.ConnID, p domain.Peer) []domain.PeerID {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.peers[p.ID]; ok {
		if prev.House != p.House {
			r.houses[prev.House] = removePeer(r.houses[prev.House], p.ID)
			if len(r.houses[prev.House]) == 0 {
				delete(r.houses, prev.House)
			}
		}
		if prev.Key != nil && (p.Key == nil || *prev.Key != *p.Key) {
			r.unsubscribe(*prev.Key, p.ID)
		}
	}
	r.peers[p.ID] = p
	r.owners[p.ID] = owner

	r.houses[p.House] = appendUnique(r.houses[p.House], p.ID)
	if p.Key != nil {
		r.subs[*p.Key] = appendUnique(r.subs[*p.Key], p.ID)
	}

	roster := r.houses[p.House]
	others := make([]domain.PeerID, 0, len(roster))
	for _, id := range roster {
		if id != p.ID {
			others = append(others, id)
		}
	}
	log.Info().Str("module", "app.router").Str("peer", string(p.ID)).Str("house", string(p.House)).Int("others", len(others)).Msg("registered peer")
	return others
}

// Unregister removes the peer from its roster and subscription.
func (r *Router) Unregister(id domain.PeerID) (domain.Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unregisterLocked(id)
}

// UnregisterIfOwner removes the peer only while owner still holds it. A peer
// that re-registered from another connection is left alone.
func (r *Router) UnregisterIfOwner(id domain.PeerID, owner core.ConnID) (domain.Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.owners[id]; !ok || cur != owner {
		return domain.Peer{}, false
	}
	return r.unregisterLocked(id)
}

func (r *Router) unregisterLocked(id domain.PeerID) (domain.Peer, bool) {
	p, ok := r.peers[id]
	if !ok {
		return domain.Peer{}, false
	}
	delete(r.peers, id)
	delete(r.owners, id)

	r.houses[p.House] = removePeer(r.houses[p.House], id)
	if len(r.houses[p.House]) == 0 {
		delete(r.houses, p.House)
	}
	if p.Key != nil {
		r.unsubscribe(*p.Key, id)
	}
	log.Info().Str("module", "app.router").Str("peer", string(id)).Str("house", string(p.House)).Msg("unregistered peer")
	return p, true
}

func (r *Router) Lookup(id domain.PeerID) (domain.Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.peers[id]
	return p, ok
}

// Roster returns a copy of the house roster.
func (r *Router) Roster(house domain.HouseID) []domain.PeerID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.PeerID(nil), r.houses[house]...)
}

// Subscribers returns a copy of the peers subscribed to key.
func (r *Router) Subscribers(key domain.HouseKey) []domain.PeerID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.PeerID(nil), r.subs[key]...)
}

// Owner reports the connection that holds id.
func (r *Router) Owner(id domain.PeerID) (core.ConnID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.owners[id]
	return c, ok
}

func (r *Router) HouseCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.houses)
}

func (r *Router) unsubscribe(key domain.HouseKey, id domain.PeerID) {
	r.subs[key] = removePeer(r.subs[key], id)
	if len(r.subs[key]) == 0 {
		delete(r.subs, key)
	}
}

func appendUnique(list []domain.PeerID, id domain.PeerID) []domain.PeerID {
	for _, p := range list {
		if p == id {
			return list
		}
	}
	return append(list, id)
}
