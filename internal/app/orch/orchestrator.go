package orch

import (
	"context"
	"errors"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Orchestrator is the application context shared by every handler. Each
// component guards its own state; the orchestrator never holds more than one
// component lock at a time and never holds one while doing I/O.
type Orchestrator struct {
	Registry *app.Registry
	Router   *app.Router
	Presence *app.Presence
	Profiles *app.Profiles
	Ledger   *app.Ledger
	Policy   app.Policy
	Mirror   core.PresenceMirror
}

// New wires fresh components. A nil store or mirror disables that backend.
func New(store core.ProfileStore, mirror core.PresenceMirror, policy app.Policy, opts Options) *Orchestrator {
	if mirror == nil {
		mirror = core.NopPresenceMirror{}
	}
	if policy == nil {
		policy = app.StaticPolicy(app.Disconnect)
	}
	return &Orchestrator{
		Registry: app.NewRegistry(),
		Router:   app.NewRouter(),
		Presence: app.NewPresence(),
		Profiles: app.NewProfiles(store, opts.StoreTimeout),
		Ledger:   app.NewLedger(app.WithInviteTTL(opts.InviteTTL)),
		Policy:   policy,
		Mirror:   mirror,
	}
}

// Connect tracks a new transport connection.
func (o *Orchestrator) Connect(conn core.SignalConnection) core.ConnID {
	return o.Registry.Open(conn)
}

// Disconnect releases every peer and presence record tied to id and tells
// subscribers about users that went offline. Repeated calls are no-ops.
func (o *Orchestrator) Disconnect(ctx context.Context, id core.ConnID) {
	peers, ok := o.Registry.Close(id)
	if !ok {
		return
	}
	o.releasePeers(id, peers)
	if dep, gone := o.Presence.Disconnect(id); gone {
		o.announceOffline(ctx, dep)
	}
	log.Info().Str("module", "orch").Str("conn", string(id)).Int("peers", len(peers)).Msg("connection cleaned up")
}

// releasePeers drops the router entries id still owns. A peer that already
// re-registered on another connection keeps its roster place.
func (o *Orchestrator) releasePeers(id core.ConnID, peers []domain.PeerID) {
	for _, p := range peers {
		if _, ok := o.Router.UnregisterIfOwner(p, id); !ok {
			log.Debug().Str("module", "orch").Str("peer", string(p)).Str("conn", string(id)).Msg("peer owned elsewhere, kept")
		}
	}
}

// OnFrame decodes one inbound frame and dispatches it. Failures are reported
// to the sender as an Error message; the connection stays open.
func (o *Orchestrator) OnFrame(ctx context.Context, id core.ConnID, data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		log.Warn().Str("module", "orch").Str("conn", string(id)).Err(err).Msg("failed to parse message")
		o.reply(id, protocol.Error{Message: "Invalid message format: " + err.Error()})
		return
	}
	if err := o.Dispatch(ctx, id, msg); err != nil {
		log.Warn().Str("module", "orch").Str("conn", string(id)).Str("type", string(msg.Type())).Err(err).Msg("error handling message")
		o.reply(id, protocol.Error{Message: errorText(err)})
	}
}

func errorText(err error) string {
	switch {
	case errors.Is(err, protocol.ErrUnexpectedType):
		return "Invalid message type"
	case errors.Is(err, domain.ErrNotFound):
		return "Connection not found"
	}
	return err.Error()
}

// reply sends msg to one connection.
func (o *Orchestrator) reply(id core.ConnID, msg protocol.Message) {
	frame, ok := encode(msg)
	if !ok {
		return
	}
	if err := o.Registry.SendConn(id, frame); err != nil {
		o.onSendError(id, err)
	}
}

// publish fans msg out to every connection subscribed to key.
func (o *Orchestrator) publish(key domain.HouseKey, msg protocol.Message) core.PublishResult {
	subs := o.Router.Subscribers(key)
	if len(subs) == 0 {
		return core.PublishResult{}
	}
	frame, ok := encode(msg)
	if !ok {
		return core.PublishResult{}
	}
	res := o.Registry.Publish(o.Registry.ConnsOf(subs), frame)
	for _, slow := range res.Dropped {
		o.applyPolicy(slow)
	}
	return res
}

func (o *Orchestrator) onSendError(id core.ConnID, err error) {
	if errors.Is(err, core.ErrBackpressure) {
		o.applyPolicy(id)
	}
}

func (o *Orchestrator) applyPolicy(id core.ConnID) {
	switch o.Policy.OnBackPressure(id) {
	case app.Disconnect:
		if conn, ok := o.Registry.Conn(id); ok {
			log.Warn().Str("module", "orch").Str("conn", string(id)).Msg("outbound queue full, disconnecting")
			conn.Close()
		}
	case app.DropFrame, app.NoAction:
		log.Debug().Str("module", "orch").Str("conn", string(id)).Msg("outbound queue full, frame dropped")
	}
}

func encode(msg protocol.Message) (core.Frame, bool) {
	data, err := protocol.Encode(msg)
	if err != nil {
		log.Error().Str("module", "orch").Str("type", string(msg.Type())).Err(err).Msg("encode failed")
		return nil, false
	}
	return core.Frame(data), true
}
