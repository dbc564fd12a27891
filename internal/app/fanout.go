package app

import (
	"github.com/dkeye/Relay/internal/core"
	"github.com/rs/zerolog/log"
)

// Publish hands frame to every listed connection without blocking.
// Connections that are gone are skipped; full queues are reported in Dropped.
func (r *Registry) Publish(ids []core.ConnID, frame core.Frame) core.PublishResult {
	var res core.PublishResult
	if len(ids) == 0 {
		return res
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range ids {
		e, ok := r.conns[id]
		if !ok {
			continue
		}
		if err := e.conn.TrySend(frame); err != nil {
			log.Debug().Str("module", "app.fanout").Str("conn", string(id)).Err(err).Msg("delivery failed")
			res.Dropped = append(res.Dropped, id)
			continue
		}
		res.SentTo++
	}
	return res
}
