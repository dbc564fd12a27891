package orch

import (
	"errors"
	"fmt"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) register(id core.ConnID, m protocol.Register) error {
	prev, err := o.Registry.BindPeer(id, m.PeerID)
	if err != nil {
		return fmt.Errorf("register %s: %w", m.PeerID, err)
	}
	if prev != "" && prev != id {
		log.Info().Str("module", "orch").Str("peer", string(m.PeerID)).Str("from_conn", string(prev)).Str("conn", string(id)).Msg("peer moved to new connection")
	}

	others := o.Router.Register(id, domain.NewPeer(m.PeerID, m.HouseID, m.SigningPubkey))
	o.reply(id, protocol.Registered{PeerID: m.PeerID, Peers: others})
	return nil
}

// forward relays an Offer, Answer or IceCandidate verbatim. An unknown target
// is expected churn, so it is logged and not reported to the sender.
func (o *Orchestrator) forward(from, to domain.PeerID, msg protocol.Message) error {
	l := log.With().Str("module", "orch").Str("type", string(msg.Type())).Str("from", string(from)).Str("to", string(to)).Logger()

	frame, ok := encode(msg)
	if !ok {
		return nil
	}
	err := o.Registry.Send(to, frame)
	switch {
	case err == nil:
		l.Debug().Msg("forwarded")
	case errors.Is(err, domain.ErrNotFound):
		l.Warn().Msg("target peer not found")
	default:
		l.Warn().Err(err).Msg("forward failed")
		if target, ok := o.Registry.ConnOf(to); ok {
			o.onSendError(target, err)
		}
	}
	return nil
}
