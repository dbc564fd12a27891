package domain

import "time"

// HouseEvent is an opaque, signed, append-only fact about a house.
// The server never decrypts EncryptedPayload nor verifies Signature.
type HouseEvent struct {
	EventID          string    `json:"event_id"`
	SigningPubkey    HouseKey  `json:"signing_pubkey"`
	EventType        string    `json:"event_type" binding:"required"`
	EncryptedPayload string    `json:"encrypted_payload" binding:"required"`
	Signature        string    `json:"signature" binding:"required"`
	Timestamp        time.Time `json:"timestamp"`
}

// AckRequest moves the advisory watermark for (house, user).
type AckRequest struct {
	UserID      UserID `json:"user_id" binding:"required"`
	LastEventID string `json:"last_event_id" binding:"required"`
}
