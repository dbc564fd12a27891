package orch

import (
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/protocol"
)

// PutHint stores the hint for key and pushes it to the key's subscribers.
func (o *Orchestrator) PutHint(key domain.HouseKey, hint domain.HouseHint) domain.HouseHint {
	stored := o.Ledger.PutHint(key, hint)
	o.publish(key, protocol.HouseHintUpdated{
		SigningPubkey:  key,
		EncryptedState: stored.EncryptedState,
		Signature:      stored.Signature,
		LastUpdated:    stored.LastUpdated,
	})
	return stored
}
