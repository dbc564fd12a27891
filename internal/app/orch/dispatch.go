package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/protocol"
)

// Dispatch routes msg to exactly one component. Variants only the server
// may emit are rejected.
func (o *Orchestrator) Dispatch(ctx context.Context, id core.ConnID, msg protocol.Message) error {
	switch m := msg.(type) {
	case protocol.Register:
		return o.register(id, m)
	case protocol.Offer:
		return o.forward(m.FromPeer, m.ToPeer, m)
	case protocol.Answer:
		return o.forward(m.FromPeer, m.ToPeer, m)
	case protocol.IceCandidate:
		return o.forward(m.FromPeer, m.ToPeer, m)
	case protocol.PresenceHello:
		o.presenceHello(ctx, id, m)
		return nil
	case protocol.PresenceActive:
		o.presenceActive(ctx, m)
		return nil
	case protocol.ProfileAnnounce:
		o.profileAnnounce(ctx, m)
		return nil
	case protocol.ProfileHello:
		o.profileHello(ctx, id, m)
		return nil
	case protocol.Registered,
		protocol.Error,
		protocol.HouseHintUpdated,
		protocol.PresenceSnapshot,
		protocol.PresenceUpdate,
		protocol.ProfileSnapshot,
		protocol.ProfileUpdate:
		return fmt.Errorf("%w: %s", protocol.ErrUnexpectedType, m.Type())
	default:
		return fmt.Errorf("%w: %T", protocol.ErrUnknownType, msg)
	}
}
