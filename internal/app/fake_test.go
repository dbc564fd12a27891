package app

import (
	"context"
	"errors"
	"sync"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrClosed
	}
	if c.full {
		return core.ErrBackpressure
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

type memStore struct {
	mu      sync.Mutex
	records map[domain.UserID]domain.ProfileRecord
	upserts int
	failing bool
}

func newMemStore() *memStore {
	return &memStore{records: make(map[domain.UserID]domain.ProfileRecord)}
}

func (s *memStore) Name() string { return "mem" }

func (s *memStore) Load(_ context.Context, ids []domain.UserID) ([]domain.ProfileSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return nil, errors.New("store down")
	}
	var out []domain.ProfileSnapshot
	for _, id := range ids {
		if r, ok := s.records[id]; ok {
			out = append(out, r.Snapshot(id))
		}
	}
	return out, nil
}

func (s *memStore) Upsert(_ context.Context, uid domain.UserID, rec domain.ProfileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("store down")
	}
	s.upserts++
	if cur, ok := s.records[uid]; !ok || rec.Rev > cur.Rev {
		s.records[uid] = rec
	}
	return nil
}

func (s *memStore) Close() error { return nil }

func keyPtr(k string) *domain.HouseKey {
	v := domain.HouseKey(k)
	return &v
}
