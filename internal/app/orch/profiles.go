package orch

import (
	"context"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/protocol"
)

// profileAnnounce applies the announce and broadcasts whatever record is
// current afterwards, even when the announce itself was stale.
func (o *Orchestrator) profileAnnounce(ctx context.Context, m protocol.ProfileAnnounce) {
	rec, _ := o.Profiles.Announce(ctx, m.UserID, domain.ProfileRecord{
		DisplayName:  m.DisplayName,
		RealName:     m.RealName,
		ShowRealName: m.ShowRealName,
		Rev:          m.Rev,
	})
	for _, k := range m.SigningPubkeys {
		o.publish(k, protocol.ProfileUpdate{
			SigningPubkey: k,
			UserID:        m.UserID,
			DisplayName:   rec.DisplayName,
			RealName:      rec.RealName,
			ShowRealName:  rec.ShowRealName,
			Rev:           rec.Rev,
		})
	}
}

func (o *Orchestrator) profileHello(ctx context.Context, id core.ConnID, m protocol.ProfileHello) {
	profiles := o.Profiles.Query(ctx, m.UserIDs)
	o.reply(id, protocol.ProfileSnapshot{SigningPubkey: m.SigningPubkey, Profiles: profiles})
}
