package orch

import (
	"context"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) presenceHello(ctx context.Context, id core.ConnID, m protocol.PresenceHello) {
	res := o.Presence.Hello(id, m.UserID, m.SigningPubkeys, m.ActiveSigningPubkey)
	if res.Detached != nil {
		o.announceOffline(ctx, *res.Detached)
	}

	for _, snap := range res.Snapshots {
		users := make([]protocol.PresenceUserStatus, 0, len(snap.Users))
		for _, u := range snap.Users {
			users = append(users, protocol.PresenceUserStatus{UserID: u.UserID, ActiveSigningPubkey: u.Active})
		}
		o.reply(id, protocol.PresenceSnapshot{SigningPubkey: snap.Key, Users: users})
	}

	o.announceOnline(m.UserID, res.Keys, res.Active)
	o.mirrorOnline(ctx, m.UserID)
}

func (o *Orchestrator) presenceActive(ctx context.Context, m protocol.PresenceActive) {
	keys, ok := o.Presence.SetActive(m.UserID, m.ActiveSigningPubkey)
	if !ok {
		log.Debug().Str("module", "orch").Str("user", string(m.UserID)).Msg("active house for unknown user ignored")
		return
	}
	o.announceOnline(m.UserID, keys, m.ActiveSigningPubkey)
	o.mirrorOnline(ctx, m.UserID)
}

func (o *Orchestrator) announceOnline(uid domain.UserID, keys []domain.HouseKey, active *domain.HouseKey) {
	for _, k := range keys {
		o.publish(k, protocol.PresenceUpdate{SigningPubkey: k, UserID: uid, Online: true, ActiveSigningPubkey: active})
	}
}

func (o *Orchestrator) announceOffline(ctx context.Context, dep app.Departure) {
	for _, k := range dep.Keys {
		o.publish(k, protocol.PresenceUpdate{SigningPubkey: k, UserID: dep.UserID, Online: false})
	}
	if err := o.Mirror.Offline(ctx, dep.UserID); err != nil {
		log.Warn().Str("module", "orch").Str("user", string(dep.UserID)).Err(err).Msg("presence mirror offline failed")
	}
}

func (o *Orchestrator) mirrorOnline(ctx context.Context, uid domain.UserID) {
	st, ok := o.Presence.Status(uid)
	if !ok {
		return
	}
	if err := o.Mirror.Online(ctx, st); err != nil {
		log.Warn().Str("module", "orch").Str("user", string(uid)).Err(err).Msg("presence mirror online failed")
	}
}
