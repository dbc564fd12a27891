package app

import (
	"cmp"
	"slices"
	"sync"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

type presenceUser struct {
	conns  map[core.ConnID]struct{}
	keys   []domain.HouseKey
	active *domain.HouseKey
}

// PresenceEntry is one online user as seen from a house.
type PresenceEntry struct {
	UserID domain.UserID
	Active *domain.HouseKey
}

type KeySnapshot struct {
	Key   domain.HouseKey
	Users []PresenceEntry
}

// Departure describes a user that just went offline.
type Departure struct {
	UserID domain.UserID
	Keys   []domain.HouseKey
}

type HelloResult struct {
	// Keys is the user's full subscription set after the merge.
	Keys   []domain.HouseKey
	Active *domain.HouseKey
	// Snapshots answer the requested keys, for the caller only.
	Snapshots []KeySnapshot
	// Detached is set when the connection previously spoke for another user
	// and that user had no other connection left.
	Detached *Departure
}

// Presence tracks which users are online, over which connections, and in
// which houses.
type Presence struct {
	mu       sync.Mutex
	users    map[domain.UserID]*presenceUser
	connUser map[core.ConnID]domain.UserID
}

func NewPresence() *Presence {
	return &Presence{
		users:    make(map[domain.UserID]*presenceUser),
		connUser: make(map[core.ConnID]domain.UserID),
	}
}

// Hello attaches conn to uid, merges keys into the user's set and sets the
// active house.
func (p *Presence) Hello(conn core.ConnID, uid domain.UserID, keys []domain.HouseKey, active *domain.HouseKey) HelloResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	var res HelloResult
	if prev, ok := p.connUser[conn]; ok && prev != uid {
		if d, gone := p.detach(conn); gone {
			res.Detached = &d
		}
	}

	u, ok := p.users[uid]
	if !ok {
		u = &presenceUser{conns: make(map[core.ConnID]struct{})}
		p.users[uid] = u
		log.Info().Str("module", "app.presence").Str("user", string(uid)).Msg("user online")
	}
	u.conns[conn] = struct{}{}
	p.connUser[conn] = uid
	for _, k := range keys {
		if !slices.Contains(u.keys, k) {
			u.keys = append(u.keys, k)
		}
	}
	u.active = cloneKey(active)

	res.Keys = slices.Clone(u.keys)
	res.Active = cloneKey(u.active)

	requested := make([]domain.HouseKey, 0, len(keys))
	for _, k := range keys {
		if !slices.Contains(requested, k) {
			requested = append(requested, k)
		}
	}
	for _, k := range requested {
		res.Snapshots = append(res.Snapshots, KeySnapshot{Key: k, Users: p.snapshotLocked(k)})
	}
	return res
}

// SetActive changes the active house of a user that already said hello.
func (p *Presence) SetActive(uid domain.UserID, active *domain.HouseKey) ([]domain.HouseKey, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[uid]
	if !ok {
		return nil, false
	}
	u.active = cloneKey(active)
	return slices.Clone(u.keys), true
}

// Disconnect detaches conn. It reports a Departure only when conn was the
// user's last connection.
func (p *Presence) Disconnect(conn core.ConnID) (Departure, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.detach(conn)
}

// Snapshot lists online users subscribed to key, ordered by user id.
func (p *Presence) Snapshot(key domain.HouseKey) []PresenceEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked(key)
}

func (p *Presence) Status(uid domain.UserID) (core.PresenceStatus, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[uid]
	if !ok {
		return core.PresenceStatus{}, false
	}
	return statusOf(uid, u), true
}

// Online lists every online user, ordered by user id.
func (p *Presence) Online() []core.PresenceStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.PresenceStatus, 0, len(p.users))
	for uid, u := range p.users {
		out = append(out, statusOf(uid, u))
	}
	slices.SortFunc(out, func(a, b core.PresenceStatus) int {
		return cmp.Compare(a.UserID, b.UserID)
	})
	return out
}

func (p *Presence) detach(conn core.ConnID) (Departure, bool) {
	uid, ok := p.connUser[conn]
	if !ok {
		return Departure{}, false
	}
	delete(p.connUser, conn)

	u, ok := p.users[uid]
	if !ok {
		return Departure{}, false
	}
	delete(u.conns, conn)
	if len(u.conns) > 0 {
		return Departure{}, false
	}
	delete(p.users, uid)
	log.Info().Str("module", "app.presence").Str("user", string(uid)).Msg("user offline")
	return Departure{UserID: uid, Keys: slices.Clone(u.keys)}, true
}

func (p *Presence) snapshotLocked(key domain.HouseKey) []PresenceEntry {
	out := []PresenceEntry{}
	for uid, u := range p.users {
		if slices.Contains(u.keys, key) {
			out = append(out, PresenceEntry{UserID: uid, Active: cloneKey(u.active)})
		}
	}
	slices.SortFunc(out, func(a, b PresenceEntry) int {
		return cmp.Compare(a.UserID, b.UserID)
	})
	return out
}

func statusOf(uid domain.UserID, u *presenceUser) core.PresenceStatus {
	return core.PresenceStatus{
		UserID: uid,
		Keys:   slices.Clone(u.keys),
		Active: cloneKey(u.active),
		Conns:  len(u.conns),
	}
}

func cloneKey(k *domain.HouseKey) *domain.HouseKey {
	if k == nil {
		return nil
	}
	v := *k
	return &v
}
